package csharp

import (
	"context"
	"slices"
	"strings"

	"github.com/spechtlabs/fixkit/host"
	"github.com/spechtlabs/fixkit/syntax"
)

// Compilation indexes declarations across a set of C# files.
type Compilation struct {
	files    map[string]*fileInfo
	order    []string
	kinds    map[string]host.SymbolKind
	problems []host.Problem
}

var _ host.Compilation = (*Compilation)(nil)

type fileInfo struct {
	tree      *syntax.Tree
	namespace string
	decls     map[nodeKey]string
}

// Compile re-parses each file to recover declaration names.
func (Language) Compile(ctx context.Context, files []host.File) (host.Compilation, error) {
	c := &Compilation{files: make(map[string]*fileInfo, len(files)), kinds: make(map[string]host.SymbolKind)}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := parse([]byte(f.Tree.Text()))
		if err != nil {
			return nil, err
		}
		for _, sp := range res.errors {
			c.problems = append(c.problems, host.Problem{Path: f.Path, Span: sp, Message: "syntax error"})
		}
		for key, name := range res.decls {
			if k := declKind(key.kind); k != host.SymbolUnknown {
				c.kinds[name] = k
			}
		}
		c.files[f.Path] = &fileInfo{tree: f.Tree, namespace: res.namespace, decls: res.decls}
		c.order = append(c.order, f.Path)
	}
	return c, nil
}

func (c *Compilation) Problems() []host.Problem { return slices.Clone(c.problems) }

func (c *Compilation) Oracle(path string) host.Oracle {
	fi, ok := c.files[path]
	if !ok {
		return host.NopOracle{}
	}
	return &oracle{c: c, fi: fi}
}

func declKind(k syntax.Kind) host.SymbolKind {
	switch k {
	case "class_declaration", "struct_declaration", "interface_declaration", "record_declaration", "enum_declaration":
		return host.SymbolType
	case "method_declaration", "constructor_declaration":
		return host.SymbolMethod
	case "local_function_statement":
		return host.SymbolFunc
	case "field_declaration", "property_declaration":
		return host.SymbolField
	case "variable_declarator":
		return host.SymbolVar
	case "parameter":
		return host.SymbolParam
	case "namespace_declaration", "file_scoped_namespace_declaration":
		return host.SymbolPackage
	}
	return host.SymbolUnknown
}

type oracle struct {
	c  *Compilation
	fi *fileInfo
}

func (o *oracle) Package() string { return o.fi.namespace }

// TypeOf knows literals and comparisons only.
func (o *oracle) TypeOf(c syntax.Cursor) (host.Type, bool) {
	switch c.Kind() {
	case "boolean_literal":
		return csType("bool"), true
	case "prefix_unary_expression":
		if strings.HasPrefix(c.Text(), "!") {
			return csType("bool"), true
		}
	case "string_literal":
		return csType("string"), true
	case "integer_literal":
		return csType("int"), true
	case "binary_expression":
		for ch := range c.Children() {
			switch ch.Text() {
			case "==", "!=", "<", ">", "<=", ">=", "&&", "||":
				return csType("bool"), true
			}
		}
	}
	return nil, false
}

func (o *oracle) SymbolOf(c syntax.Cursor) (host.Symbol, bool) {
	if c.Kind() != "identifier" {
		return nil, false
	}
	name := c.Text()
	k, ok := o.c.kinds[name]
	if !ok {
		return nil, false
	}
	return csSymbol{name: name, kind: k}, true
}

func (o *oracle) DeclaredSymbol(c syntax.Cursor) (host.Symbol, bool) {
	sp := c.Span()
	name, ok := o.fi.decls[nodeKey{start: sp.Start, end: sp.End(), kind: c.Kind()}]
	if !ok {
		return nil, false
	}
	return csSymbol{name: name, kind: declKind(c.Kind())}, true
}

// References returns identifiers spelled like sym that are not the name of a
// declaration.
func (o *oracle) References(sym host.Symbol) []host.Location {
	var out []host.Location
	for _, path := range o.c.order {
		fi := o.c.files[path]
		for cur := range fi.tree.Preorder() {
			if cur.Kind() != "identifier" || cur.Text() != sym.Name() {
				continue
			}
			if p, ok := cur.Parent(); ok && fi.declares(p, cur) {
				continue
			}
			out = append(out, host.Location{Path: path, Span: cur.Span()})
		}
	}
	return out
}

func (fi *fileInfo) declares(decl, name syntax.Cursor) bool {
	sp := decl.Span()
	n, ok := fi.decls[nodeKey{start: sp.Start, end: sp.End(), kind: decl.Kind()}]
	return ok && n == name.Text()
}

func (o *oracle) AnalyzeDataFlow(syntax.Span) (host.DataFlow, bool) {
	return host.DataFlow{}, false
}

type csType string

func (t csType) String() string { return string(t) }
func (t csType) Boolean() bool  { return t == "bool" }
func (t csType) Identical(other host.Type) bool {
	o, ok := other.(csType)
	return ok && o == t
}

type csSymbol struct {
	name string
	kind host.SymbolKind
}

func (s csSymbol) Name() string          { return s.name }
func (s csSymbol) Kind() host.SymbolKind { return s.kind }
func (s csSymbol) String() string        { return s.kind.String() + " " + s.name }

// Exported follows the .NET convention of capitalized public members.
func (s csSymbol) Exported() bool {
	return s.name != "" && strings.ToUpper(s.name[:1]) == s.name[:1]
}
