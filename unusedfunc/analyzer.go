// Package unusedfunc provides a rule that detects unexported package-level
// functions that nothing in the package calls or refers to.
//
// Whether a function is used is only known once every file of the package was
// seen, so declarations are collected during the pass and checked when it
// ends.
package unusedfunc

import (
	"cmp"
	"context"
	"go/ast"
	"slices"
	"strings"

	"github.com/spechtlabs/fixkit/codefix"
	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/host"
	"github.com/spechtlabs/fixkit/host/golang"
	"github.com/spechtlabs/fixkit/rule"
	"github.com/spechtlabs/fixkit/syntax"
	"github.com/spechtlabs/fixkit/workspace"
)

const Doc = `detect unused unexported functions

An unexported function that no file of its package refers to is dead code:

    // parse is left over from the old loader.
    func parse(s string) int { ... }

Calls from the function's own body do not count as uses. Methods, init,
main in package main, functions in _test.go files and functions carrying
a //go: or //export directive are never reported. The fix deletes the
function together with its doc comment.

Known limits:
- A reference from another unused function counts as a use, so dead
  helpers that call each other are not reported.
- Only the files that were loaded are searched. Without test files a
  helper used only by _test.go files looks unused, and the fix deletes it.`

// Descriptor is reported at the unused function declaration.
var Descriptor = &diagnostic.Descriptor{
	ID:               "SL1003",
	Title:            "Unused function",
	MessageFormat:    "function %s is unused",
	Category:         "Maintainability",
	DefaultSeverity:  diagnostic.Warning,
	EnabledByDefault: true,
}

var Rule = &rule.Rule{
	Name:        "unusedfunc",
	Doc:         Doc,
	Languages:   []string{"go"},
	Descriptors: []*diagnostic.Descriptor{Descriptor},
	Initialize: func(c *rule.Context) {
		c.RegisterCompilationStartAction(start)
	},
}

var Fixer = &codefix.Fixer{
	IDs:     []string{Descriptor.ID},
	Mode:    codefix.ModeTracked,
	Compute: computeFixes,
}

const (
	funcDecl syntax.Kind = "FuncDecl"

	declsKey = "decls"
)

// decl is a candidate collected during the pass.
type decl struct {
	path string
	span syntax.Span
	name string
	sym  host.Symbol
}

func start(sc *rule.CompilationStartContext) {
	scratch := sc.Scratch()

	sc.RegisterNodeAction(func(nc *rule.NodeContext) {
		path := nc.Document().Path()
		if strings.HasSuffix(path, "_test.go") {
			return
		}
		o := nc.Semantic()
		fd, ok := golang.Node(o, nc.Node())
		if !ok {
			return
		}
		fn, ok := fd.(*ast.FuncDecl)
		if !ok || !candidate(fn, o.Package()) {
			return
		}
		sym, ok := o.DeclaredSymbol(nc.Node())
		if !ok {
			return
		}
		d := decl{path: path, span: nc.Node().Span(), name: fn.Name.Name, sym: sym}
		scratch.Update(declsKey, func(old any) any {
			decls, _ := old.([]decl)
			return append(decls, d)
		})
	}, funcDecl)

	sc.RegisterCompilationEndAction(func(ec *rule.CompilationEndContext) {
		v, ok := ec.Scratch().Get(declsKey)
		if !ok {
			return
		}
		decls := slices.Clone(v.([]decl))
		slices.SortFunc(decls, func(a, b decl) int {
			if c := cmp.Compare(a.path, b.path); c != 0 {
				return c
			}
			return cmp.Compare(a.span.Start, b.span.Start)
		})

		for _, d := range decls {
			if ec.Context().Err() != nil {
				return
			}
			if used(d, ec.Semantic(d.path).References(d.sym)) {
				continue
			}
			loc := diagnostic.Location{Path: d.path, Span: d.span}
			ec.Report(diagnostic.New(Descriptor, loc, d.name))
		}
	})
}

func candidate(fn *ast.FuncDecl, pkg string) bool {
	if fn.Recv != nil || fn.Name.IsExported() {
		return false
	}
	switch fn.Name.Name {
	case "_", "init":
		return false
	case "main":
		if pkg == "main" {
			return false
		}
	}
	if fn.Doc != nil {
		for _, c := range fn.Doc.List {
			if strings.HasPrefix(c.Text, "//go:") || strings.HasPrefix(c.Text, "//export ") {
				return false
			}
		}
	}
	return true
}

// used reports whether any reference lies outside the declaration itself.
func used(d decl, refs []host.Location) bool {
	for _, r := range refs {
		if r.Path != d.path || !d.span.Contains(r.Span) {
			return true
		}
	}
	return false
}

func computeFixes(_ context.Context, req codefix.Request) ([]codefix.Action, error) {
	d := req.Diagnostic
	return []codefix.Action{{
		Title:          "Remove unused function",
		EquivalenceKey: d.ID,
		Apply: func(ctx context.Context, doc *workspace.Document) (*workspace.Document, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			c, err := codefix.Locate(doc, d, funcDecl)
			if err != nil {
				return nil, err
			}
			tree, err := remove(doc.Tree(), c)
			if err != nil {
				return nil, err
			}
			return doc.WithTree(tree), nil
		},
	}}, nil
}

// remove deletes the declaration at c, the comment block directly above it
// and the blank space before both.
func remove(tree *syntax.Tree, c syntax.Cursor) (*syntax.Tree, error) {
	parent, ok := c.Parent()
	if !ok {
		return nil, codefix.ErrNotApplicable
	}
	kids := parent.Node().Children()
	idx := c.Index()

	from := idx
	for from >= 2 && attached(kids[from-1]) && kids[from-2].Kind() == syntax.KindComment {
		from -= 2
	}
	if from > 0 && kids[from-1].Kind() == syntax.KindTrivia {
		from--
	}
	out := append(kids[:from:from], kids[idx+1:]...)
	return tree.Replace(parent, parent.Node().WithChildren(out...))
}

// attached reports whether n is the whitespace of a single line break.
func attached(n *syntax.Node) bool {
	return n.Kind() == syntax.KindTrivia && strings.Count(n.Text(), "\n") <= 1
}
