// Package csharp is a syntax-only C# host on the tree-sitter grammar. Kinds
// are tree-sitter node kinds ("if_statement", "block"); anonymous tokens and
// comments are leaves. The oracle resolves declarations and references by
// name.
package csharp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"fortio.org/safecast"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"

	"github.com/spechtlabs/fixkit/host"
	"github.com/spechtlabs/fixkit/syntax"
)

// ErrParse is wrapped by Parse when the source has syntax errors.
var ErrParse = errors.New("csharp: syntax error")

var language = sync.OnceValue(func() *tree_sitter.Language {
	return tree_sitter.NewLanguage(tree_sitter_csharp.Language())
})

// Language is the C# host.
type Language struct{}

var _ host.Language = Language{}

// New returns the C# host.
func New() Language { return Language{} }

func (Language) Name() string         { return "csharp" }
func (Language) Extensions() []string { return []string{".cs"} }

// Parse converts src with tree-sitter. The tree is returned together with
// ErrParse when tree-sitter had to recover.
func (Language) Parse(ctx context.Context, path string, src []byte) (*syntax.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := parse(src)
	if err != nil {
		return nil, fmt.Errorf("csharp: parse %s: %w", path, err)
	}
	tree := syntax.Build(path, src, res.root, tokenize)
	if res.hasError {
		return syntax.NewTree(path, tree.RootNode().WithError()), fmt.Errorf("%w in %s", ErrParse, path)
	}
	return tree, nil
}

// Format returns src unchanged; there is no C# formatter.
func (Language) Format(ctx context.Context, _ string, src []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return src, nil
}

type source struct {
	kind       syntax.Kind
	start, end int
	missing    bool
	bad        bool
	name       string
	children   []syntax.Source
}

func (s *source) Kind() syntax.Kind         { return s.kind }
func (s *source) Range() (int, int)         { return s.start, s.end }
func (s *source) Children() []syntax.Source { return s.children }
func (s *source) Missing() bool             { return s.missing }
func (s *source) Error() bool               { return s.bad }

// Atomic keeps literal text in one token.
func (s *source) Atomic() bool {
	return len(s.children) == 0 && (strings.HasSuffix(string(s.kind), "_content") || strings.HasSuffix(string(s.kind), "_literal"))
}

type parseResult struct {
	root      *source
	hasError  bool
	namespace string
	// decls maps declaration nodes to their declared name.
	decls map[nodeKey]string
	// errors are the ERROR and missing nodes tree-sitter produced.
	errors []syntax.Span
}

type nodeKey struct {
	start, end int
	kind       syntax.Kind
}

func parse(src []byte) (*parseResult, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(language()); err != nil {
		return nil, err
	}
	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, errors.New("tree-sitter returned no tree")
	}
	defer tree.Close()

	res := &parseResult{decls: make(map[nodeKey]string)}
	root := tree.RootNode()
	res.hasError = root.HasError()
	var err error
	res.root, err = res.convert(root, src)
	return res, err
}

func offset(n uint) (int, error) {
	return safecast.Conv[int](n)
}

func (r *parseResult) convert(n *tree_sitter.Node, src []byte) (*source, error) {
	start, err := offset(n.StartByte())
	if err != nil {
		return nil, err
	}
	end, err := offset(n.EndByte())
	if err != nil {
		return nil, err
	}

	s := &source{
		kind:    syntax.Kind(n.Kind()),
		start:   start,
		end:     end,
		missing: n.IsMissing(),
		bad:     n.IsError(),
	}
	if s.missing || s.bad {
		r.errors = append(r.errors, syntax.NewSpan(start, end))
	}
	if name := n.ChildByFieldName("name"); name != nil {
		ns, err1 := offset(name.StartByte())
		ne, err2 := offset(name.EndByte())
		if err := errors.Join(err1, err2); err != nil {
			return nil, err
		}
		s.name = string(src[ns:ne])
		r.decls[nodeKey{start: start, end: end, kind: s.kind}] = s.name
		if r.namespace == "" && (s.kind == "namespace_declaration" || s.kind == "file_scoped_namespace_declaration") {
			r.namespace = s.name
		}
	}

	for i := range n.ChildCount() {
		ch := n.Child(i)
		if ch == nil || ch.Kind() == "comment" {
			continue
		}
		if !ch.IsNamed() && !ch.IsMissing() {
			continue
		}
		cs, err := r.convert(ch, src)
		if err != nil {
			return nil, err
		}
		s.children = append(s.children, cs)
	}
	return s, nil
}
