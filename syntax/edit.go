package syntax

import (
	"fmt"
	"slices"
	"sort"
)

// Replace returns a tree in which the node at c is replaced by repl.
func (t *Tree) Replace(c Cursor, repl *Node) (*Tree, error) {
	if repl == nil {
		return nil, ErrNilNode
	}
	return t.splice(c, func(*Node) []*Node { return []*Node{repl} })
}

// Remove returns a tree without the node at c.
func (t *Tree) Remove(c Cursor) (*Tree, error) {
	return t.splice(c, func(*Node) []*Node { return nil })
}

// InsertBefore returns a tree with nodes inserted as siblings before c.
func (t *Tree) InsertBefore(c Cursor, nodes ...*Node) (*Tree, error) {
	if slices.Contains(nodes, nil) {
		return nil, ErrNilNode
	}
	return t.splice(c, func(old *Node) []*Node { return append(slices.Clone(nodes), old) })
}

// InsertAfter returns a tree with nodes inserted as siblings after c.
func (t *Tree) InsertAfter(c Cursor, nodes ...*Node) (*Tree, error) {
	if slices.Contains(nodes, nil) {
		return nil, ErrNilNode
	}
	return t.splice(c, func(old *Node) []*Node { return append([]*Node{old}, nodes...) })
}

// Annotate returns a tree in which the node at c also carries as.
func (t *Tree) Annotate(c Cursor, as ...Annotation) (*Tree, error) {
	return t.Replace(c, c.node.WithAnnotations(as...))
}

// ReplaceNodes rewrites many nodes in a single copy-on-write pass. For every
// target, fn receives the original cursor and the node as rebuilt so far
// (nested targets are rewritten first) and returns its replacement; returning
// nil keeps the rebuilt node.
func (t *Tree) ReplaceNodes(targets []Cursor, fn func(orig Cursor, current *Node) *Node) (*Tree, error) {
	if len(targets) == 0 {
		return t, nil
	}
	want := make(map[nodeKey]bool, len(targets))
	starts := make([]int, 0, len(targets))
	for _, c := range targets {
		if err := t.owns(c); err != nil {
			return nil, err
		}
		want[c.key()] = true
		starts = append(starts, c.start)
	}
	slices.Sort(starts)

	var rewrite func(c Cursor) *Node
	rewrite = func(c Cursor) *Node {
		if !containsStart(starts, c.start, c.start+c.node.width) {
			return c.node
		}
		current := c.node
		if !current.IsLeaf() {
			kids := make([]*Node, 0, len(current.children))
			changed := false
			for ch := range c.Children() {
				n := rewrite(ch)
				changed = changed || n != ch.node
				kids = append(kids, n)
			}
			if changed {
				current = current.WithChildren(kids...)
			}
		}
		if want[c.key()] {
			if repl := fn(c, current); repl != nil {
				return repl
			}
		}
		return current
	}

	root := rewrite(t.Root())
	if root == t.root {
		return t, nil
	}
	return t.derive(root), nil
}

func containsStart(sorted []int, lo, hi int) bool {
	i := sort.SearchInts(sorted, lo)
	return i < len(sorted) && sorted[i] <= hi
}

// splice replaces the node at c with the nodes returned by fn and rebuilds
// the path to the root.
func (t *Tree) splice(c Cursor, fn func(old *Node) []*Node) (*Tree, error) {
	if err := t.owns(c); err != nil {
		return nil, err
	}
	nodes := fn(c.node)
	if c.parent == nil {
		if len(nodes) != 1 {
			return nil, ErrRootEdit
		}
		return t.derive(nodes[0]), nil
	}

	p := c.parent
	updated := p.node.replaceChild(c.index, nodes)
	for cur := p; cur.parent != nil; cur = cur.parent {
		updated = cur.parent.node.replaceChild(cur.index, []*Node{updated})
	}
	return t.derive(updated), nil
}

func (t *Tree) owns(c Cursor) error {
	if !c.Valid() {
		return fmt.Errorf("%w: invalid cursor", ErrForeignCursor)
	}
	if c.root() != t.root {
		return ErrForeignCursor
	}
	return nil
}

func (t *Tree) derive(root *Node) *Tree {
	return NewTree(t.path, root)
}
