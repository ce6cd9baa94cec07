package syntax

import (
	"slices"
	"unicode"
)

// Source is one node of a host parse tree, as seen by [Build].
type Source interface {
	Kind() Kind
	// Range returns the byte offsets [start, end) of the node in the source.
	Range() (start, end int)
	Children() []Source
	Missing() bool
	Error() bool
}

// Atomic is implemented by sources whose text is one token, such as string
// literal contents that the tokenizer must not split.
type Atomic interface {
	Atomic() bool
}

// Tokenizer splits text that lies between child nodes into leaves. The leaves
// must reproduce text exactly.
type Tokenizer func(text string) []*Node

// Build converts a host parse tree into a lossless [Tree]. The root always
// covers the whole source; children that overlap an earlier sibling or leave
// their parent's range are folded into the surrounding gap text.
func Build(path string, src []byte, root Source, tok Tokenizer) *Tree {
	if tok == nil {
		tok = SplitTrivia
	}
	b := builder{src: string(src), tok: tok}
	return NewTree(path, b.build(root, 0, len(src)))
}

type builder struct {
	src string
	tok Tokenizer
}

func (b *builder) build(n Source, start, end int) *Node {
	if n.Missing() {
		return NewMissing(n.Kind())
	}

	if a, ok := n.(Atomic); ok && a.Atomic() && end > start {
		node := NewNode(n.Kind(), NewToken(KindToken, b.src[start:end]))
		if n.Error() {
			node.flags |= flagError
		}
		return node
	}

	children := slices.Clone(n.Children())
	slices.SortStableFunc(children, func(x, y Source) int {
		xs, _ := x.Range()
		ys, _ := y.Range()
		return xs - ys
	})

	var kids []*Node
	pos := start
	for _, ch := range children {
		cs, ce := ch.Range()
		if ch.Missing() {
			if cs < pos || cs > end {
				continue
			}
			kids = b.gap(kids, pos, cs)
			kids = append(kids, NewMissing(ch.Kind()))
			pos = cs
			continue
		}
		if cs < pos || ce > end || ce < cs {
			continue
		}
		kids = b.gap(kids, pos, cs)
		kids = append(kids, b.build(ch, cs, ce))
		pos = ce
	}
	kids = b.gap(kids, pos, end)

	node := NewNode(n.Kind(), kids...)
	if n.Error() {
		node.flags |= flagError
	}
	return node
}

func (b *builder) gap(kids []*Node, from, to int) []*Node {
	if to <= from {
		return kids
	}
	return append(kids, b.tok(b.src[from:to])...)
}

// SplitTrivia is the default [Tokenizer]: whitespace runs become trivia and
// everything else becomes tokens.
func SplitTrivia(text string) []*Node {
	var out []*Node
	start := 0
	space := false
	for i, r := range text {
		s := unicode.IsSpace(r)
		if i > start && s != space {
			out = append(out, leaf(text[start:i], space))
			start = i
		}
		space = s
	}
	if start < len(text) {
		out = append(out, leaf(text[start:], space))
	}
	return out
}

func leaf(text string, space bool) *Node {
	if space {
		return NewTrivia(text)
	}
	return NewToken(KindToken, text)
}
