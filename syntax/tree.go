package syntax

import (
	"errors"
	"iter"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrForeignCursor is returned when an edit names a cursor from another tree.
	ErrForeignCursor = errors.New("syntax: cursor does not belong to this tree")

	// ErrRootEdit is returned when an edit would leave a tree without exactly one root.
	ErrRootEdit = errors.New("syntax: root can only be replaced by a single node")

	// ErrNilNode is returned when an edit is given a nil node.
	ErrNilNode = errors.New("syntax: nil node")
)

// Tree is an immutable syntax tree for one file.
type Tree struct {
	path string
	root *Node

	textOnce sync.Once
	text     string
	lines    []int

	indexOnce sync.Once
	index     map[Annotation]Cursor
	kinds     map[string]int
}

// NewTree returns a tree rooted at root.
func NewTree(path string, root *Node) *Tree {
	return &Tree{path: path, root: root}
}

// Path returns the file path the tree was parsed from.
func (t *Tree) Path() string { return t.path }

// RootNode returns the root node.
func (t *Tree) RootNode() *Node { return t.root }

// Root returns a cursor at the root.
func (t *Tree) Root() Cursor { return Cursor{node: t.root, index: -1} }

// Len returns the length of the tree's text.
func (t *Tree) Len() int { return t.root.width }

// Text returns the full source text.
func (t *Tree) Text() string {
	t.computeText()
	return t.text
}

func (t *Tree) computeText() {
	t.textOnce.Do(func() {
		t.text = t.root.Text()
		t.lines = []int{0}
		for i := range len(t.text) {
			if t.text[i] == '\n' {
				t.lines = append(t.lines, i+1)
			}
		}
	})
}

// Position converts a byte offset to a 1-based line and column.
func (t *Tree) Position(offset int) (line, col int) {
	t.computeText()
	i := sort.Search(len(t.lines), func(i int) bool { return t.lines[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, offset - t.lines[i] + 1
}

// Slice returns the text covered by s, clamped to the tree.
func (t *Tree) Slice(s Span) string {
	text := t.Text()
	start, end := max(0, s.Start), min(len(text), s.End())
	if start >= end {
		return ""
	}
	return text[start:end]
}

// Preorder iterates over every node of the tree, parents first.
func (t *Tree) Preorder() iter.Seq[Cursor] {
	return t.Root().Preorder()
}

// Walk visits the tree in pre-order. Returning false from fn skips the node's
// children.
func (t *Tree) Walk(fn func(Cursor) bool) {
	t.Root().Inspect(fn)
}

// FindNode returns the outermost node whose span equals span. When kinds are
// given only nodes of those kinds match; otherwise token leaves never match.
func (t *Tree) FindNode(span Span, kinds ...Kind) (Cursor, bool) {
	var search func(c Cursor) (Cursor, bool)
	search = func(c Cursor) (Cursor, bool) {
		if c.Span() == span && c.node.matches(kinds) {
			return c, true
		}
		for ch := range c.Children() {
			if !ch.Span().Contains(span) {
				continue
			}
			if found, ok := search(ch); ok {
				return found, true
			}
		}
		return Cursor{}, false
	}

	root := t.Root()
	if !root.Span().Contains(span) {
		return Cursor{}, false
	}
	return search(root)
}

// Annotated returns the node carrying a.
func (t *Tree) Annotated(a Annotation) (Cursor, bool) {
	t.buildIndex()
	c, ok := t.index[a]
	return c, ok
}

// HasAnnotation reports whether any node carries a.
func (t *Tree) HasAnnotation(a Annotation) bool {
	_, ok := t.Annotated(a)
	return ok
}

// HasAnnotationKind reports whether any node carries an annotation of kind.
func (t *Tree) HasAnnotationKind(kind string) bool {
	t.buildIndex()
	return t.kinds[kind] > 0
}

// AnnotatedKind returns every node carrying an annotation of kind, in
// pre-order.
func (t *Tree) AnnotatedKind(kind string) []Cursor {
	var out []Cursor
	for c := range t.Preorder() {
		for _, a := range c.node.annotations {
			if a.kind == kind {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func (t *Tree) buildIndex() {
	t.indexOnce.Do(func() {
		t.index = make(map[Annotation]Cursor)
		t.kinds = make(map[string]int)
		for c := range t.Preorder() {
			for _, a := range c.node.annotations {
				if _, dup := t.index[a]; dup {
					continue
				}
				t.index[a] = c
				t.kinds[a.kind]++
			}
		}
	})
}

// String returns the tree's text.
func (t *Tree) String() string { return t.Text() }

// Dump renders the tree structure for debugging and tests.
func (t *Tree) Dump() string {
	var b strings.Builder
	var dump func(c Cursor, depth int)
	dump = func(c Cursor, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(string(c.Kind()))
		b.WriteString(" ")
		b.WriteString(c.Span().String())
		if c.node.IsLeaf() {
			b.WriteString(" ")
			b.WriteString(quote(c.node.text))
		}
		b.WriteByte('\n')
		for ch := range c.Children() {
			dump(ch, depth+1)
		}
	}
	dump(t.Root(), 0)
	return b.String()
}

func quote(s string) string {
	r := strings.NewReplacer("\n", `\n`, "\t", `\t`)
	return `"` + r.Replace(s) + `"`
}
