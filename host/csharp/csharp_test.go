package csharp_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spechtlabs/fixkit/host"
	"github.com/spechtlabs/fixkit/host/csharp"
	"github.com/spechtlabs/fixkit/syntax"
)

const sample = `namespace Demo
{
    // A widget.
    public class Widget
    {
        public void Run(bool ok)
        {
            if (ok) { }
            Helper("x /* not a comment */");
        }

        private static void Helper(string s) { }
    }
}
`

func TestParseIsLossless(t *testing.T) {
	t.Parallel()

	tree, err := csharp.New().Parse(context.Background(), "Widget.cs", []byte(sample))
	require.NoError(t, err)
	assert.Equal(t, sample, tree.Text())
	assert.False(t, tree.RootNode().Malformed())

	var comments []string
	var ifs int
	for c := range tree.Preorder() {
		switch c.Kind() {
		case syntax.KindComment:
			comments = append(comments, c.Text())
		case "if_statement":
			ifs++
		}
	}
	assert.Equal(t, []string{"// A widget."}, comments)
	assert.Equal(t, 1, ifs)
}

func TestParseRecoversFromErrors(t *testing.T) {
	t.Parallel()

	src := "class C { void M() { int x = ; } }\n"
	tree, err := csharp.New().Parse(context.Background(), "C.cs", []byte(src))
	require.ErrorIs(t, err, csharp.ErrParse)
	require.NotNil(t, tree)
	assert.Equal(t, src, tree.Text())
	assert.True(t, tree.RootNode().Malformed())
}

func TestSyntacticOracle(t *testing.T) {
	t.Parallel()

	lang := csharp.New()
	tree, err := lang.Parse(context.Background(), "Widget.cs", []byte(sample))
	require.NoError(t, err)

	comp, err := lang.Compile(context.Background(), []host.File{{Path: "Widget.cs", Tree: tree}})
	require.NoError(t, err)
	o := comp.Oracle("Widget.cs")
	assert.Equal(t, "Demo", o.Package())

	var helper syntax.Cursor
	for c := range tree.Preorder() {
		if c.Kind() == "method_declaration" {
			helper = c
		}
	}
	sym, ok := o.DeclaredSymbol(helper)
	require.True(t, ok)
	assert.Equal(t, "Helper", sym.Name())
	assert.Equal(t, host.SymbolMethod, sym.Kind())

	refs := o.References(sym)
	require.Len(t, refs, 1)
	assert.Equal(t, "Helper", tree.Slice(refs[0].Span))

	ref, ok := tree.FindNode(refs[0].Span, "identifier")
	require.True(t, ok)
	used, ok := o.SymbolOf(ref)
	require.True(t, ok)
	assert.Equal(t, sym, used)
}
