package syntax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/spechtlabs/fixkit/syntax"
)

func ident(name string) *Node {
	return NewNode("Ident", NewToken(KindToken, name))
}

// sample builds "a + b; c".
func sample() *Tree {
	binary := NewNode("Binary", ident("a"), NewTrivia(" "), NewToken(KindToken, "+"), NewTrivia(" "), ident("b"))
	first := NewNode("Stmt", binary, NewToken(KindToken, ";"))
	second := NewNode("Stmt", ident("c"))
	return NewTree("sample.txt", NewNode("File", first, NewTrivia(" "), second))
}

func find(t *testing.T, tree *Tree, text string, kind Kind) Cursor {
	t.Helper()
	for c := range tree.Preorder() {
		if c.Kind() == kind && c.Text() == text {
			return c
		}
	}
	t.Fatalf("no %s node with text %q", kind, text)
	return Cursor{}
}

func TestTextAndSpans(t *testing.T) {
	t.Parallel()

	tree := sample()
	assert.Equal(t, "a + b; c", tree.Text())

	b := find(t, tree, "b", "Ident")
	assert.Equal(t, Span{Start: 4, Length: 1}, b.Span())

	line, col := tree.Position(7)
	assert.Equal(t, 1, line)
	assert.Equal(t, 8, col)
}

func TestReplaceSharesUntouchedSubtrees(t *testing.T) {
	t.Parallel()

	tree := sample()
	a := find(t, tree, "a", "Ident")

	edited, err := tree.Replace(a, ident("alpha"))
	require.NoError(t, err)

	assert.Equal(t, "alpha + b; c", edited.Text())
	assert.Equal(t, "a + b; c", tree.Text(), "original tree must not change")

	// The second statement is shared by pointer.
	assert.Same(t, tree.RootNode().Child(2), edited.RootNode().Child(2))
	assert.NotSame(t, tree.RootNode().Child(0), edited.RootNode().Child(0))

	// Its span moved with the edit.
	c := find(t, edited, "c", "Ident")
	assert.Equal(t, 11, c.Span().Start)
}

func TestRemoveAndInsert(t *testing.T) {
	t.Parallel()

	tree := sample()
	first := find(t, tree, "a + b;", "Stmt")

	removed, err := tree.Remove(first)
	require.NoError(t, err)
	assert.Equal(t, " c", removed.Text())

	inserted, err := tree.InsertAfter(first, NewTrivia(" "), NewNode("Stmt", ident("x"), NewToken(KindToken, ";")))
	require.NoError(t, err)
	assert.Equal(t, "a + b; x; c", inserted.Text())

	before, err := tree.InsertBefore(first, NewNode("Stmt", ident("y"), NewToken(KindToken, ";")))
	require.NoError(t, err)
	assert.Equal(t, "y;a + b; c", before.Text())
}

func TestEditRejectsForeignCursor(t *testing.T) {
	t.Parallel()

	tree := sample()
	other := sample()

	_, err := tree.Replace(find(t, other, "a", "Ident"), ident("z"))
	require.ErrorIs(t, err, ErrForeignCursor)

	_, err = tree.Remove(tree.Root())
	require.ErrorIs(t, err, ErrRootEdit)
}

func TestFindNode(t *testing.T) {
	t.Parallel()

	tree := sample()

	c, ok := tree.FindNode(Span{Start: 0, Length: 5})
	require.True(t, ok)
	assert.Equal(t, Kind("Binary"), c.Kind())

	// "c" is both a Stmt and an Ident; the outermost wins unless a kind is given.
	c, ok = tree.FindNode(Span{Start: 7, Length: 1})
	require.True(t, ok)
	assert.Equal(t, Kind("Stmt"), c.Kind())

	c, ok = tree.FindNode(Span{Start: 7, Length: 1}, "Ident")
	require.True(t, ok)
	assert.Equal(t, Kind("Ident"), c.Kind())

	_, ok = tree.FindNode(Span{Start: 1, Length: 3})
	assert.False(t, ok, "no node covers exactly ' + '")

	_, ok = tree.FindNode(Span{Start: 6, Length: 40})
	assert.False(t, ok)
}

func TestAnnotationSurvivesEdits(t *testing.T) {
	t.Parallel()

	tree := sample()
	ann := NewAnnotation("track")

	tree, err := tree.Annotate(find(t, tree, "c", "Ident"), ann)
	require.NoError(t, err)

	// Grow the text before the annotated node so its span shifts.
	tree, err = tree.Replace(find(t, tree, "a", "Ident"), ident("aaaa"))
	require.NoError(t, err)

	c, ok := tree.Annotated(ann)
	require.True(t, ok)
	assert.Equal(t, "c", c.Text())
	assert.Equal(t, Span{Start: 10, Length: 1}, c.Span())

	// Replacing the annotated node drops the annotation.
	tree, err = tree.Replace(c, ident("d"))
	require.NoError(t, err)
	assert.False(t, tree.HasAnnotation(ann))
}

func TestReplaceNodesRewritesNestedTargetsFirst(t *testing.T) {
	t.Parallel()

	tree := sample()
	outer := find(t, tree, "a + b;", "Stmt")
	inner := find(t, tree, "b", "Ident")
	annOuter, annInner := NewAnnotation("t"), NewAnnotation("t")

	edited, err := tree.ReplaceNodes([]Cursor{outer, inner}, func(orig Cursor, current *Node) *Node {
		if orig.Kind() == "Stmt" {
			return current.WithAnnotations(annOuter)
		}
		return current.WithAnnotations(annInner)
	})
	require.NoError(t, err)

	assert.Equal(t, tree.Text(), edited.Text())
	assert.True(t, edited.HasAnnotation(annOuter))
	assert.True(t, edited.HasAnnotation(annInner))
	assert.Len(t, edited.AnnotatedKind("t"), 2)
	assert.Same(t, tree.RootNode().Child(2), edited.RootNode().Child(2))
}

func TestWithoutAnnotations(t *testing.T) {
	t.Parallel()

	ann := NewAnnotation("x")
	n := ident("a")
	assert.Same(t, n, n.WithoutAnnotations(ann))

	tagged := n.WithAnnotations(ann, ann)
	assert.Len(t, tagged.Annotations(), 1)
	assert.False(t, tagged.WithoutAnnotations(ann).HasAnnotation(ann))
	assert.False(t, n.HasAnnotation(ann))
}

func TestSpanOverlaps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b Span
		want bool
	}{
		{"disjoint", NewSpan(0, 2), NewSpan(2, 4), false},
		{"overlap", NewSpan(0, 3), NewSpan(2, 4), true},
		{"nested", NewSpan(0, 10), NewSpan(2, 4), true},
		{"empty inside", NewSpan(3, 3), NewSpan(2, 4), true},
		{"empty at edge", NewSpan(2, 2), NewSpan(2, 4), false},
		{"two empty", NewSpan(2, 2), NewSpan(2, 2), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}
