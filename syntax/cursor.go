package syntax

import "iter"

// Cursor is a positioned view of a node inside a particular tree. The zero
// Cursor is invalid.
type Cursor struct {
	node   *Node
	start  int
	parent *Cursor
	index  int
}

// Valid reports whether the cursor points at a node.
func (c Cursor) Valid() bool { return c.node != nil }

// Node returns the underlying node.
func (c Cursor) Node() *Node { return c.node }

// Kind returns the kind of the underlying node.
func (c Cursor) Kind() Kind { return c.node.kind }

// Span returns the absolute span of the node.
func (c Cursor) Span() Span { return Span{Start: c.start, Length: c.node.width} }

// Text returns the node's text.
func (c Cursor) Text() string { return c.node.Text() }

// Index returns the node's position among its parent's children, or -1 for a
// root.
func (c Cursor) Index() int {
	if c.parent == nil {
		return -1
	}
	return c.index
}

// Parent returns the enclosing node.
func (c Cursor) Parent() (Cursor, bool) {
	if c.parent == nil {
		return Cursor{}, false
	}
	return *c.parent, true
}

// ChildAt returns the i-th child.
func (c Cursor) ChildAt(i int) Cursor {
	start := c.start
	for j := range i {
		start += c.node.children[j].width
	}
	p := c
	return Cursor{node: c.node.children[i], start: start, parent: &p, index: i}
}

// Children iterates over the direct children.
func (c Cursor) Children() iter.Seq[Cursor] {
	return func(yield func(Cursor) bool) {
		p := c
		start := c.start
		for i, n := range c.node.children {
			if !yield(Cursor{node: n, start: start, parent: &p, index: i}) {
				return
			}
			start += n.width
		}
	}
}

// Significant iterates over the direct children that are not trivia.
func (c Cursor) Significant() iter.Seq[Cursor] {
	return func(yield func(Cursor) bool) {
		for ch := range c.Children() {
			if ch.node.IsTrivia() {
				continue
			}
			if !yield(ch) {
				return
			}
		}
	}
}

// SignificantChildren collects [Cursor.Significant] into a slice.
func (c Cursor) SignificantChildren() []Cursor {
	var out []Cursor
	for ch := range c.Significant() {
		out = append(out, ch)
	}
	return out
}

// Preorder iterates over the node and all its descendants, parents first.
func (c Cursor) Preorder() iter.Seq[Cursor] {
	return func(yield func(Cursor) bool) {
		c.walk(yield)
	}
}

// Inspect visits the subtree in pre-order. Returning false from fn skips the
// node's children.
func (c Cursor) Inspect(fn func(Cursor) bool) {
	var visit func(Cursor)
	visit = func(n Cursor) {
		if !fn(n) {
			return
		}
		for ch := range n.Children() {
			visit(ch)
		}
	}
	visit(c)
}

// walk visits in pre-order until fn returns false; it reports whether the walk
// completed.
func (c Cursor) walk(fn func(Cursor) bool) bool {
	if !fn(c) {
		return false
	}
	for ch := range c.Children() {
		if !ch.walk(fn) {
			return false
		}
	}
	return true
}

// Tokens iterates over the non-trivia leaves of the subtree.
func (c Cursor) Tokens() iter.Seq[Cursor] {
	return func(yield func(Cursor) bool) {
		for n := range c.Preorder() {
			if n.node.IsLeaf() && n.node.kind == KindToken {
				if !yield(n) {
					return
				}
			}
		}
	}
}

// Ancestors iterates from the parent up to the root.
func (c Cursor) Ancestors() iter.Seq[Cursor] {
	return func(yield func(Cursor) bool) {
		for p := c.parent; p != nil; p = p.parent {
			if !yield(*p) {
				return
			}
		}
	}
}

// Enclosing returns the nearest ancestor of one of the given kinds.
func (c Cursor) Enclosing(kinds ...Kind) (Cursor, bool) {
	for a := range c.Ancestors() {
		for _, k := range kinds {
			if a.node.kind == k {
				return a, true
			}
		}
	}
	return Cursor{}, false
}

func (c Cursor) root() *Node {
	r := c
	for r.parent != nil {
		r = *r.parent
	}
	return r.node
}

type nodeKey struct {
	node  *Node
	start int
}

func (c Cursor) key() nodeKey { return nodeKey{node: c.node, start: c.start} }
