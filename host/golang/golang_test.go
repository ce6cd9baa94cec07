package golang_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spechtlabs/fixkit/host"
	"github.com/spechtlabs/fixkit/host/golang"
	"github.com/spechtlabs/fixkit/syntax"
)

const sample = `// Package demo is a sample.
package demo

/* block
   comment */
func (r *recv) method(a int) (b bool) { return a > 0 }

type recv struct{}

func helper(ok bool) int {
	x := 1
	if ok == true {
		x++
	}
	s := ` + "`raw\nstring`" + `
	_ = s
	return x // trailing
}
`

func parse(t *testing.T, src string) *syntax.Tree {
	t.Helper()
	tree, err := golang.New().Parse(context.Background(), "demo.go", []byte(src))
	require.NoError(t, err)
	return tree
}

func first(t *testing.T, tree *syntax.Tree, kind syntax.Kind, text string) syntax.Cursor {
	t.Helper()
	for c := range tree.Preorder() {
		if c.Kind() == kind && (text == "" || c.Text() == text) {
			return c
		}
	}
	t.Fatalf("no %s %q in tree", kind, text)
	return syntax.Cursor{}
}

func TestParseIsLossless(t *testing.T) {
	t.Parallel()

	tree := parse(t, sample)
	assert.Equal(t, sample, tree.Text())
	assert.False(t, tree.RootNode().Malformed())

	var comments int
	for c := range tree.Preorder() {
		if c.Kind() == syntax.KindComment {
			comments++
		}
	}
	assert.Equal(t, 3, comments)
}

func TestFuncDeclChildrenAreFlat(t *testing.T) {
	t.Parallel()

	tree := parse(t, sample)
	decl := first(t, tree, "FuncDecl", "")

	var kinds []syntax.Kind
	for ch := range decl.Significant() {
		if ch.Kind() != syntax.KindToken {
			kinds = append(kinds, ch.Kind())
		}
	}
	assert.Equal(t, []syntax.Kind{"FieldList", "Ident", "FieldList", "FieldList", "BlockStmt"}, kinds)
}

func TestSyntaxErrorsKeepTree(t *testing.T) {
	t.Parallel()

	src := "package p\nfunc f() { x := }\n"
	tree, err := golang.New().Parse(context.Background(), "p.go", []byte(src))
	require.Error(t, err)
	require.NotNil(t, tree)
	assert.Equal(t, src, tree.Text())
	assert.True(t, tree.RootNode().Malformed())
}

func compile(t *testing.T, tree *syntax.Tree) host.Oracle {
	t.Helper()
	comp, err := golang.New().Compile(context.Background(), []host.File{{Path: tree.Path(), Tree: tree}})
	require.NoError(t, err)
	return comp.Oracle(tree.Path())
}

func TestOracle(t *testing.T) {
	t.Parallel()

	tree := parse(t, sample)
	o := compile(t, tree)
	assert.Equal(t, "demo", o.Package())

	cmp := first(t, tree, "BinaryExpr", "ok == true")
	typ, ok := o.TypeOf(cmp)
	require.True(t, ok)
	assert.True(t, typ.Boolean())

	okIdent := cmp.SignificantChildren()[0]
	sym, ok := o.SymbolOf(okIdent)
	require.True(t, ok)
	assert.Equal(t, "ok", sym.Name())
	assert.Equal(t, host.SymbolParam, sym.Kind())

	helper := first(t, tree, "FuncDecl", "")
	for c := range tree.Preorder() {
		if c.Kind() == "FuncDecl" && c.Span().Start > helper.Span().Start {
			helper = c
		}
	}
	decl, ok := o.DeclaredSymbol(helper)
	require.True(t, ok)
	assert.Equal(t, "helper", decl.Name())
	assert.Equal(t, host.SymbolFunc, decl.Kind())
	assert.Empty(t, o.References(decl))

	recvType := first(t, tree, "TypeSpec", "")
	rs, ok := o.DeclaredSymbol(recvType)
	require.True(t, ok)
	assert.Len(t, o.References(rs), 1)
}

func TestAnalyzeDataFlow(t *testing.T) {
	t.Parallel()

	tree := parse(t, sample)
	o := compile(t, tree)

	ifStmt := first(t, tree, "IfStmt", "")
	df, ok := o.AnalyzeDataFlow(ifStmt.Span())
	require.True(t, ok)

	names := func(syms []host.Symbol) []string {
		var out []string
		for _, s := range syms {
			out = append(out, s.Name())
		}
		return out
	}
	assert.Equal(t, []string{"ok"}, names(df.Read))
	assert.Equal(t, []string{"x"}, names(df.Written))
	assert.Empty(t, df.Declared)
}

func TestCompileReportsTypeErrors(t *testing.T) {
	t.Parallel()

	tree := parse(t, "package p\n\nfunc f() int { return \"s\" }\n")
	comp, err := golang.New().Compile(context.Background(), []host.File{{Path: "p.go", Tree: tree}})
	require.NoError(t, err)
	require.NotEmpty(t, comp.Problems())
	assert.Equal(t, "p.go", comp.Problems()[0].Path)
}

func TestFormat(t *testing.T) {
	t.Parallel()

	out, err := golang.New().Format(context.Background(), "p.go", []byte("package p\nfunc f(){x:=1;_=x}\n"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "func f() {")
	assert.Contains(t, string(out), "x := 1")

	_, err = golang.New().Format(context.Background(), "p.go", []byte("package p\nfunc {"))
	assert.Error(t, err)
}
