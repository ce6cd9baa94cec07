package syntax

import (
	"slices"
	"strings"
)

// Kind tags a node. Hosts define their own kinds; the leaf kinds below are
// shared by every host.
type Kind string

// Leaf kinds.
const (
	KindToken   Kind = "#token"
	KindTrivia  Kind = "#trivia"
	KindComment Kind = "#comment"
)

type flags uint8

const (
	flagMissing flags = 1 << iota
	flagError
)

// Node is an immutable tree node. Leaves carry text, interior nodes carry
// children. A Node never records its own position; use a [Cursor] for that.
type Node struct {
	kind        Kind
	text        string
	children    []*Node
	width       int
	flags       flags
	annotations []Annotation
}

// NewToken returns a leaf of the given kind holding text.
func NewToken(kind Kind, text string) *Node {
	return &Node{kind: kind, text: text, width: len(text)}
}

// NewTrivia returns a whitespace leaf.
func NewTrivia(text string) *Node {
	return NewToken(KindTrivia, text)
}

// NewNode returns an interior node owning children. Nil children are dropped.
func NewNode(kind Kind, children ...*Node) *Node {
	n := &Node{kind: kind}
	n.setChildren(children)
	return n
}

// NewMissing returns a zero-width node standing for something the parser
// expected but did not find.
func NewMissing(kind Kind) *Node {
	return &Node{kind: kind, flags: flagMissing}
}

func (n *Node) setChildren(children []*Node) {
	n.children = make([]*Node, 0, len(children))
	n.width = 0
	for _, c := range children {
		if c == nil {
			continue
		}
		n.children = append(n.children, c)
		n.width += c.width
	}
}

// Kind returns the node's kind tag.
func (n *Node) Kind() Kind { return n.kind }

// Width returns the length in bytes of the node's text.
func (n *Node) Width() int { return n.width }

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

// IsTrivia reports whether the node is whitespace or a comment leaf.
func (n *Node) IsTrivia() bool { return n.kind == KindTrivia || n.kind == KindComment }

// Missing reports whether the parser synthesized this node.
func (n *Node) Missing() bool { return n.flags&flagMissing != 0 }

// Malformed reports whether this node or any descendant is missing or marked
// as a parse error.
func (n *Node) Malformed() bool {
	if n.flags != 0 {
		return true
	}
	for _, c := range n.children {
		if c.Malformed() {
			return true
		}
	}
	return false
}

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int { return len(n.children) }

// Child returns the i-th child.
func (n *Node) Child(i int) *Node { return n.children[i] }

// Children returns a copy of the direct children.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// Text returns the source text covered by the node.
func (n *Node) Text() string {
	if n.IsLeaf() {
		return n.text
	}
	var b strings.Builder
	b.Grow(n.width)
	n.writeTo(&b)
	return b.String()
}

func (n *Node) writeTo(b *strings.Builder) {
	if n.IsLeaf() {
		b.WriteString(n.text)
		return
	}
	for _, c := range n.children {
		c.writeTo(b)
	}
}

// Annotations returns the annotations carried by the node.
func (n *Node) Annotations() []Annotation { return slices.Clone(n.annotations) }

// HasAnnotation reports whether the node carries a.
func (n *Node) HasAnnotation(a Annotation) bool {
	return slices.Contains(n.annotations, a)
}

// WithAnnotations returns a copy of the node that also carries as.
func (n *Node) WithAnnotations(as ...Annotation) *Node {
	c := n.clone()
	for _, a := range as {
		if !slices.Contains(c.annotations, a) {
			c.annotations = append(c.annotations, a)
		}
	}
	return c
}

// WithoutAnnotations returns a copy of the node without as. The node itself is
// returned when it carries none of them.
func (n *Node) WithoutAnnotations(as ...Annotation) *Node {
	if !slices.ContainsFunc(n.annotations, func(a Annotation) bool { return slices.Contains(as, a) }) {
		return n
	}
	c := n.clone()
	c.annotations = slices.DeleteFunc(c.annotations, func(a Annotation) bool { return slices.Contains(as, a) })
	return c
}

// WithChildren returns a copy of the node with its children replaced. Kind,
// flags and annotations are kept.
func (n *Node) WithChildren(children ...*Node) *Node {
	c := n.clone()
	c.text = ""
	c.setChildren(children)
	return c
}

// WithError returns a copy of the node marked as a parse error.
func (n *Node) WithError() *Node {
	c := n.clone()
	c.flags |= flagError
	return c
}

func (n *Node) clone() *Node {
	c := *n
	c.children = slices.Clone(n.children)
	c.annotations = slices.Clone(n.annotations)
	return &c
}

func (n *Node) replaceChild(i int, repl []*Node) *Node {
	kids := make([]*Node, 0, len(n.children)-1+len(repl))
	kids = append(kids, n.children[:i]...)
	kids = append(kids, repl...)
	kids = append(kids, n.children[i+1:]...)
	return n.WithChildren(kids...)
}

func (n *Node) matches(kinds []Kind) bool {
	if len(kinds) == 0 {
		return !n.IsLeaf() || n.Missing()
	}
	return slices.Contains(kinds, n.kind)
}
