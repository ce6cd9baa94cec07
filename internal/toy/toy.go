// Package toy is a minimal s-expression host used to exercise the engine in
// tests. Its kinds are "File", "List" and "Atom"; an unbalanced parenthesis
// makes the enclosing node an error.
package toy

import (
	"context"
	"errors"
	"fmt"
	"unicode"

	"github.com/spechtlabs/fixkit/host"
	"github.com/spechtlabs/fixkit/syntax"
)

// Kinds.
const (
	File syntax.Kind = "File"
	List syntax.Kind = "List"
	Atom syntax.Kind = "Atom"
)

// ErrUnbalanced is returned for unbalanced parentheses.
var ErrUnbalanced = errors.New("toy: unbalanced parentheses")

// Language is the toy host.
type Language struct{}

var _ host.Language = Language{}

func (Language) Name() string         { return "toy" }
func (Language) Extensions() []string { return []string{".toy"} }

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

func (Language) Parse(ctx context.Context, path string, src []byte) (*syntax.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text := string(src)
	root := &source{kind: File, start: 0, end: len(text)}
	stack := []*source{root}
	bad := false
	for i := 0; i < len(text); i++ {
		top := stack[len(stack)-1]
		switch r := rune(text[i]); {
		case r == '(':
			l := &source{kind: List, start: i}
			top.children = append(top.children, l)
			stack = append(stack, l)
		case r == ')':
			if len(stack) == 1 {
				root.bad, bad = true, true
				continue
			}
			top.end = i + 1
			stack = stack[:len(stack)-1]
		case unicode.IsSpace(r):
		default:
			j := i
			for j < len(text) && text[j] != '(' && text[j] != ')' && !unicode.IsSpace(rune(text[j])) {
				j++
			}
			top.children = append(top.children, &source{kind: Atom, start: i, end: j})
			i = j - 1
		}
	}
	for _, open := range stack[1:] {
		open.end, open.bad, bad = len(text), true, true
	}

	tree := syntax.Build(path, src, root, nil)
	if bad {
		return tree, fmt.Errorf("%w in %s", ErrUnbalanced, path)
	}
	return tree, nil
}

// Compile checks nothing; every file gets a [host.NopOracle].
func (Language) Compile(ctx context.Context, files []host.File) (host.Compilation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return compilation{}, nil
}

// Format collapses runs of spaces inside the source.
func (Language) Format(ctx context.Context, _ string, src []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(src))
	for i, c := range src {
		if c == ' ' && i > 0 && src[i-1] == ' ' {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

type compilation struct{}

func (compilation) Oracle(string) host.Oracle { return host.NopOracle{Pkg: "toy"} }
func (compilation) Problems() []host.Problem  { return nil }

// Head returns the first atom of a list, or "".
func Head(c syntax.Cursor) string {
	items := Items(c)
	if len(items) == 0 || items[0].Kind() != Atom {
		return ""
	}
	return items[0].Text()
}

// Items returns the significant children of a list other than its
// parentheses.
func Items(c syntax.Cursor) []syntax.Cursor {
	var out []syntax.Cursor
	for ch := range c.Significant() {
		if ch.Kind() == syntax.KindToken {
			continue
		}
		out = append(out, ch)
	}
	return out
}
