package golang

import (
	"fmt"
	"go/ast"
	"go/scanner"
	"go/token"
	"strings"

	"github.com/spechtlabs/fixkit/syntax"
)

// source adapts one go/ast node to [syntax.Source].
type source struct {
	kind       syntax.Kind
	start, end int
	bad        bool
	children   []syntax.Source
}

func (s *source) Kind() syntax.Kind         { return s.kind }
func (s *source) Range() (int, int)         { return s.start, s.end }
func (s *source) Children() []syntax.Source { return s.children }
func (s *source) Missing() bool             { return false }
func (s *source) Error() bool               { return s.bad }

type nodeKey struct {
	start, end int
	kind       syntax.Kind
}

func kindOf(n ast.Node) syntax.Kind {
	return syntax.Kind(strings.TrimPrefix(fmt.Sprintf("%T", n), "*ast."))
}

// convert mirrors f as a tree of sources and indexes every ast node by span
// and kind. Comments are left to the tokenizer.
func convert(tf *token.File, f *ast.File) (*source, map[nodeKey]ast.Node) {
	index := make(map[nodeKey]ast.Node)
	var root *source
	var stack []*source

	ast.Inspect(f, func(n ast.Node) bool {
		if n == nil {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.kind == "FuncDecl" {
				top.flattenSignature()
			}
			return true
		}
		switch n.(type) {
		case *ast.CommentGroup, *ast.Comment:
			return false
		}

		s := &source{kind: kindOf(n), start: -1, end: -1}
		if n.Pos().IsValid() && n.End().IsValid() {
			s.start, s.end = tf.Offset(n.Pos()), tf.Offset(n.End())
			key := nodeKey{start: s.start, end: s.end, kind: s.kind}
			if _, dup := index[key]; !dup {
				index[key] = n
			}
		}
		switch n.(type) {
		case *ast.BadExpr, *ast.BadStmt, *ast.BadDecl:
			s.bad = true
		}

		if len(stack) == 0 {
			root = s
		} else {
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, s)
		}
		stack = append(stack, s)
		return true
	})
	return root, index
}

// flattenSignature lifts the FuncType children of a FuncDecl, whose range
// starts at the func keyword and would otherwise swallow the receiver and
// name.
func (s *source) flattenSignature() {
	var out []syntax.Source
	for _, ch := range s.children {
		if c, ok := ch.(*source); ok && c.kind == "FuncType" {
			out = append(out, c.children...)
			continue
		}
		out = append(out, ch)
	}
	s.children = out
}

// tokenize splits Go source text between nodes into tokens, comments and
// whitespace trivia.
func tokenize(text string) []*syntax.Node {
	var out []*syntax.Node
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(text))

	var s scanner.Scanner
	s.Init(file, []byte(text), func(token.Position, string) {}, scanner.ScanComments)

	pos := 0
	for {
		p, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		if tok == token.SEMICOLON && lit == "\n" {
			continue
		}
		off := file.Offset(p)
		if off < pos {
			continue
		}
		end := min(len(text), off+tokenLen(text[off:], tok, lit))
		if end <= off {
			continue
		}
		out = append(out, syntax.SplitTrivia(text[pos:off])...)
		kind := syntax.KindToken
		if tok == token.COMMENT {
			kind = syntax.KindComment
		}
		out = append(out, syntax.NewToken(kind, text[off:end]))
		pos = end
	}
	return append(out, syntax.SplitTrivia(text[pos:])...)
}

// tokenLen measures a token in the raw text. The scanner strips carriage
// returns from some literals, so their lengths come from the text itself.
func tokenLen(rest string, tok token.Token, lit string) int {
	switch {
	case tok == token.COMMENT && strings.HasPrefix(rest, "//"):
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			return i
		}
		return len(rest)
	case tok == token.COMMENT:
		if i := strings.Index(rest[2:], "*/"); i >= 0 {
			return i + 4
		}
		return len(rest)
	case tok == token.STRING && strings.HasPrefix(rest, "`"):
		if i := strings.IndexByte(rest[1:], '`'); i >= 0 {
			return i + 2
		}
		return len(rest)
	case lit != "":
		return len(lit)
	}
	return len(tok.String())
}
