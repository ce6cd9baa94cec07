// Package host defines the contract between the engine and a host compiler.
//
// A host supplies parsing into the shared [syntax.Tree], semantic queries for a
// compiled set of files (the [Oracle]) and an optional formatter. The engine
// never interprets host kinds or symbols beyond the interfaces declared here.
package host

import (
	"context"
	"fmt"

	"github.com/spechtlabs/fixkit/syntax"
)

// Language is a host compiler front end.
type Language interface {
	// Name returns the language identifier rules use in their Languages list.
	Name() string

	// Extensions returns the file extensions the language claims, with dot.
	Extensions() []string

	// Parse parses one file. A non-nil error reports syntax errors; the tree is
	// still returned when the parser recovered.
	Parse(ctx context.Context, path string, src []byte) (*syntax.Tree, error)

	// Compile binds a set of files that form one compilation unit.
	Compile(ctx context.Context, files []File) (Compilation, error)

	// Format normalizes a whole file after edits marked with
	// [syntax.FormatAnnotation].
	Format(ctx context.Context, path string, src []byte) ([]byte, error)
}

// File is one parsed input of a compilation.
type File struct {
	Path string
	Tree *syntax.Tree
}

// Compilation is the semantic model of a set of files.
type Compilation interface {
	// Oracle returns the semantic queries scoped to one file.
	Oracle(path string) Oracle

	// Problems returns the compiler's own errors, for speculative checks.
	Problems() []Problem
}

// Problem is a compiler error.
type Problem struct {
	Path    string
	Span    syntax.Span
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s:%s: %s", p.Path, p.Span, p.Message)
}

// SymbolKind classifies a [Symbol].
type SymbolKind uint8

const (
	SymbolUnknown SymbolKind = iota
	SymbolPackage
	SymbolType
	SymbolFunc
	SymbolMethod
	SymbolField
	SymbolVar
	SymbolParam
	SymbolConst
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolPackage:
		return "package"
	case SymbolType:
		return "type"
	case SymbolFunc:
		return "func"
	case SymbolMethod:
		return "method"
	case SymbolField:
		return "field"
	case SymbolVar:
		return "var"
	case SymbolParam:
		return "param"
	case SymbolConst:
		return "const"
	}
	return "unknown"
}

// Symbol is a declared entity. Symbols are comparable with ==; identity holds
// within one compilation only.
type Symbol interface {
	Name() string
	Kind() SymbolKind
	Exported() bool
	String() string
}

// Type is the type of an expression.
type Type interface {
	String() string
	Identical(other Type) bool
	// Boolean reports whether the type's underlying type is a boolean.
	Boolean() bool
}

// Location points into one file of a compilation.
type Location struct {
	Path string
	Span syntax.Span
}

// DataFlow summarizes symbol use inside a span.
type DataFlow struct {
	Read     []Symbol
	Written  []Symbol
	Declared []Symbol
}

// Oracle answers semantic queries about one file. Cursors must come from the
// tree the compilation was built from; a rewritten tree requires a new
// compilation.
type Oracle interface {
	// Package returns the name of the package or namespace the file belongs to.
	Package() string

	// TypeOf returns the type of the expression at c.
	TypeOf(c syntax.Cursor) (Type, bool)

	// SymbolOf returns the symbol the identifier or expression at c refers to.
	SymbolOf(c syntax.Cursor) (Symbol, bool)

	// DeclaredSymbol returns the symbol declared by the node at c.
	DeclaredSymbol(c syntax.Cursor) (Symbol, bool)

	// References returns every use of sym in the compilation.
	References(sym Symbol) []Location

	// AnalyzeDataFlow reports symbols read, written and declared inside span.
	AnalyzeDataFlow(span syntax.Span) (DataFlow, bool)
}
