package fixall_test

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/spechtlabs/fixkit/codefix"
	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/dispatch"
	"github.com/spechtlabs/fixkit/fixall"
	"github.com/spechtlabs/fixkit/internal/toy"
	"github.com/spechtlabs/fixkit/rule"
	"github.com/spechtlabs/fixkit/syntax"
	"github.com/spechtlabs/fixkit/workspace"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func desc(id string) *diagnostic.Descriptor {
	return &diagnostic.Descriptor{
		ID:               id,
		Title:            id,
		MessageFormat:    id,
		DefaultSeverity:  diagnostic.Warning,
		EnabledByDefault: true,
	}
}

var (
	wrapDesc = desc("W0001")
	growDesc = desc("W0002")
	killDesc = desc("W0003")
	badDesc  = desc("W0004")
)

// listRule reports every list accepted by match.
func listRule(name string, d *diagnostic.Descriptor, match func(c syntax.Cursor) bool) *rule.Rule {
	return &rule.Rule{
		Name:        name,
		Descriptors: []*diagnostic.Descriptor{d},
		Initialize: func(c *rule.Context) {
			c.RegisterNodeAction(func(nc *rule.NodeContext) {
				if match(nc.Node()) {
					nc.ReportAt(d, nc.Node())
				}
			}, toy.List)
		},
	}
}

func isWrap(c syntax.Cursor) bool {
	return toy.Head(c) == "wrap" && len(toy.Items(c)) == 2
}

func growCount(c syntax.Cursor) (int, bool) {
	items := toy.Items(c)
	if toy.Head(c) != "grow" || len(items) != 2 {
		return 0, false
	}
	n, err := strconv.Atoi(items[1].Text())
	return n, err == nil && n > 0
}

func rules() []*rule.Rule {
	return []*rule.Rule{
		listRule("wrap", wrapDesc, isWrap),
		listRule("grow", growDesc, func(c syntax.Cursor) bool { _, ok := growCount(c); return ok }),
		listRule("kill", killDesc, func(c syntax.Cursor) bool { return toy.Head(c) == "kill" }),
		listRule("bad", badDesc, func(c syntax.Cursor) bool { return toy.Head(c) == "bad" }),
	}
}

// parseList parses text and returns its first list.
func parseList(text string) *syntax.Node {
	tree, _ := toy.Language{}.Parse(context.Background(), "", []byte(text))
	for c := range tree.Preorder() {
		if c.Kind() == toy.List {
			return c.Node()
		}
	}
	return nil
}

var wrapFix = &codefix.Fixer{
	IDs: []string{wrapDesc.ID},
	Compute: func(_ context.Context, req codefix.Request) ([]codefix.Action, error) {
		return []codefix.Action{
			codefix.Replace("Unwrap", req.Diagnostic, []syntax.Kind{toy.List}, func(c syntax.Cursor) (*syntax.Node, error) {
				if !isWrap(c) {
					return nil, codefix.ErrNotApplicable
				}
				return toy.Items(c)[1].Node(), nil
			}),
		}, nil
	},
}

// growFix shrinks (grow n) to (grow n-1), a new instance of the same finding
// until n reaches zero.
var growFix = &codefix.Fixer{
	IDs:  []string{growDesc.ID},
	Mode: codefix.ModeRequery,
	Compute: func(_ context.Context, req codefix.Request) ([]codefix.Action, error) {
		return []codefix.Action{
			codefix.Replace("Shrink", req.Diagnostic, []syntax.Kind{toy.List}, func(c syntax.Cursor) (*syntax.Node, error) {
				n, ok := growCount(c)
				if !ok {
					return nil, codefix.ErrNotApplicable
				}
				return parseList(fmt.Sprintf("(grow %d)", n-1)), nil
			}),
		}, nil
	},
}

// killFix removes (kill) together with the item before it.
var killFix = &codefix.Fixer{
	IDs: []string{killDesc.ID},
	Compute: func(_ context.Context, req codefix.Request) ([]codefix.Action, error) {
		return []codefix.Action{{
			Title: "Kill",
			Apply: func(_ context.Context, doc *workspace.Document) (*workspace.Document, error) {
				c, err := codefix.Locate(doc, req.Diagnostic, toy.List)
				if err != nil {
					return nil, err
				}
				parent, ok := c.Parent()
				if !ok {
					return nil, codefix.ErrNotApplicable
				}
				prev := -1
				for ch := range parent.Significant() {
					if ch.Index() == c.Index() {
						break
					}
					if ch.Kind() != syntax.KindToken {
						prev = ch.Index()
					}
				}
				var kids []*syntax.Node
				for ch := range parent.Children() {
					if ch.Index() != c.Index() && ch.Index() != prev {
						kids = append(kids, ch.Node())
					}
				}
				tree, err := doc.Tree().Replace(parent, parent.Node().WithChildren(kids...))
				if err != nil {
					return nil, err
				}
				return doc.WithTree(tree), nil
			},
		}}, nil
	},
}

// badFix leaves an unbalanced parenthesis behind.
var badFix = &codefix.Fixer{
	IDs: []string{badDesc.ID},
	Compute: func(_ context.Context, req codefix.Request) ([]codefix.Action, error) {
		return []codefix.Action{
			codefix.Replace("Break", req.Diagnostic, []syntax.Kind{toy.List}, func(syntax.Cursor) (*syntax.Node, error) {
				return syntax.NewToken(syntax.KindToken, "("), nil
			}),
		}, nil
	},
}

func engine(t *testing.T, providers []codefix.Provider, opts ...fixall.Option) *fixall.Engine {
	t.Helper()
	d, err := dispatch.New(rules(), dispatch.WithParallelism(2))
	require.NoError(t, err)
	if providers == nil {
		providers = []codefix.Provider{wrapFix, growFix, killFix, badFix}
	}
	e, err := fixall.New(d, providers, append([]fixall.Option{fixall.WithParallelism(3)}, opts...)...)
	require.NoError(t, err)
	return e
}

func project(t *testing.T, id string, texts ...string) *workspace.Project {
	t.Helper()
	var docs []*workspace.Document
	for i, text := range texts {
		path := fmt.Sprintf("%s/f%d.toy", id, i)
		tree, err := toy.Language{}.Parse(context.Background(), path, []byte(text))
		require.NoError(t, err)
		docs = append(docs, workspace.NewDocument(workspace.DocumentID(path), tree, toy.Language{}))
	}
	return workspace.NewProject(workspace.ProjectID(id), id, toy.Language{}, docs...)
}

func text(t *testing.T, s *workspace.Solution, path string) string {
	t.Helper()
	for _, d := range s.Documents() {
		if d.Path() == path {
			return d.Text()
		}
	}
	t.Fatalf("no document %s", path)
	return ""
}

func TestIndependentSites(t *testing.T) {
	t.Parallel()

	src := "(wrap aaa) (wrap b)\n  (keep  (wrap cc))"
	s := workspace.NewSolution(project(t, "p", src))

	out, res, err := engine(t, nil).FixAll(context.Background(), s, fixall.Request{})
	require.NoError(t, err)
	assert.Equal(t, "aaa b\n  (keep  cc)", text(t, out, "p/f0.toy"))
	assert.Equal(t, src, text(t, s, "p/f0.toy"), "input solution is unchanged")

	doc, ok := res.Document("p/f0.toy")
	require.True(t, ok)
	assert.Equal(t, 1, doc.Iterations)
	assert.True(t, doc.Changed)
	assert.Empty(t, doc.Skipped)
	require.Len(t, doc.Applied, 3)
	assert.Equal(t, syntax.NewSpan(29, 38), doc.Applied[0].Span)
	assert.Equal(t, syntax.NewSpan(11, 19), doc.Applied[1].Span)
	assert.Equal(t, syntax.NewSpan(0, 10), doc.Applied[2].Span)
	assert.Equal(t, "Unwrap", doc.Applied[0].Title)
}

func TestNestedSitesAreReResolved(t *testing.T) {
	t.Parallel()

	s := workspace.NewSolution(project(t, "p", "(x (wrap (wrap (wrap y))))"))

	out, res, err := engine(t, nil).FixAll(context.Background(), s, fixall.Request{})
	require.NoError(t, err)
	assert.Equal(t, "(x y)", text(t, out, "p/f0.toy"))
	assert.Equal(t, 3, res.Applied())
	assert.Zero(t, res.Skipped())
}

func TestRequeryFindsCascadingSites(t *testing.T) {
	t.Parallel()

	s := workspace.NewSolution(project(t, "p", "(a (grow 3)) (wrap b)"))

	out, res, err := engine(t, nil).FixAll(context.Background(), s, fixall.Request{})
	require.NoError(t, err)
	assert.Equal(t, "(a (grow 0)) b", text(t, out, "p/f0.toy"))

	doc, ok := res.Document("p/f0.toy")
	require.True(t, ok)
	assert.Equal(t, 3, doc.Iterations)
	assert.False(t, doc.Truncated)
	assert.Len(t, doc.Applied, 4)

	// The finished document has nothing left to fix.
	_, res, err = engine(t, nil).FixAll(context.Background(), out, fixall.Request{})
	require.NoError(t, err)
	assert.Zero(t, res.Applied())
	assert.Empty(t, res.Changed())
}

func TestRequeryIsBounded(t *testing.T) {
	t.Parallel()

	s := workspace.NewSolution(project(t, "p", "(grow 5)"))

	out, res, err := engine(t, nil, fixall.WithMaxIterations(2)).FixAll(context.Background(), s, fixall.Request{})
	require.NoError(t, err)
	assert.Equal(t, "(grow 3)", text(t, out, "p/f0.toy"))
	assert.True(t, res.Truncated())
}

func TestStaleSitesAreSkipped(t *testing.T) {
	t.Parallel()

	s := workspace.NewSolution(project(t, "p", "(wrap z) (a (wrap b) (kill))"))

	out, res, err := engine(t, nil).FixAll(context.Background(), s, fixall.Request{})
	require.NoError(t, err)
	assert.Equal(t, "z (a  )", text(t, out, "p/f0.toy"))

	doc, ok := res.Document("p/f0.toy")
	require.True(t, ok)
	require.Len(t, doc.Skipped, 1)
	assert.Equal(t, fixall.SkipTrackingLost, doc.Skipped[0].Reason)
	assert.Equal(t, wrapDesc.ID, doc.Skipped[0].ID)
	assert.Len(t, doc.Applied, 2)
}

func TestInvalidEditsAreSkipped(t *testing.T) {
	t.Parallel()

	s := workspace.NewSolution(project(t, "p", "(bad x) (wrap a)"))

	out, res, err := engine(t, nil).FixAll(context.Background(), s, fixall.Request{})
	require.NoError(t, err)
	assert.Equal(t, "(bad x) a", text(t, out, "p/f0.toy"))

	doc, ok := res.Document("p/f0.toy")
	require.True(t, ok)
	assert.True(t, doc.Validated)
	require.Len(t, doc.Skipped, 1)
	assert.Equal(t, fixall.SkipInvalid, doc.Skipped[0].Reason)
	assert.Equal(t, badDesc.ID, doc.Skipped[0].ID)
}

func TestSolutionScope(t *testing.T) {
	t.Parallel()

	s := workspace.NewSolution(
		project(t, "p1", "(wrap a) x", "(plain)"),
		project(t, "p2", "(wrap b) y"),
		project(t, "p3", "(wrap c) z"),
	)

	out, res, err := engine(t, nil).FixAll(context.Background(), s, fixall.Request{Scope: fixall.ScopeSolution})
	require.NoError(t, err)
	assert.Equal(t, "a x", text(t, out, "p1/f0.toy"))
	assert.Equal(t, "(plain)", text(t, out, "p1/f1.toy"))
	assert.Equal(t, "b y", text(t, out, "p2/f0.toy"))
	assert.Equal(t, "c z", text(t, out, "p3/f0.toy"))
	assert.ElementsMatch(t, []string{"p1/f0.toy", "p2/f0.toy", "p3/f0.toy"}, res.Changed())
	assert.Len(t, out.ChangedDocuments(s), 3)
}

func TestProjectScopeMatchesDocumentScope(t *testing.T) {
	t.Parallel()

	texts := []string{"(wrap a) (wrap (wrap b))", "(c (wrap d))", "(e)", "(wrap (f (wrap g)))"}
	s := workspace.NewSolution(project(t, "p", texts...), project(t, "q", "(wrap q)"))
	e := engine(t, nil)

	whole, _, err := e.FixAll(context.Background(), s, fixall.Request{Scope: fixall.ScopeProject, Project: "p"})
	require.NoError(t, err)
	assert.Equal(t, "(wrap q)", text(t, whole, "q/f0.toy"), "other projects are out of scope")

	single := s
	for i := range texts {
		id := workspace.DocumentID(fmt.Sprintf("p/f%d.toy", i))
		single, _, err = e.FixAll(context.Background(), single, fixall.Request{Scope: fixall.ScopeDocument, Project: "p", Document: id})
		require.NoError(t, err)
	}

	for i := range texts {
		path := fmt.Sprintf("p/f%d.toy", i)
		assert.Equal(t, text(t, single, path), text(t, whole, path), path)
	}
}

func TestUnknownScopeTargets(t *testing.T) {
	t.Parallel()

	s := workspace.NewSolution(project(t, "p", "(x)"))
	e := engine(t, nil)

	_, _, err := e.FixAll(context.Background(), s, fixall.Request{Scope: fixall.ScopeProject, Project: "nope"})
	require.ErrorIs(t, err, workspace.ErrUnknownProject)

	_, _, err = e.FixAll(context.Background(), s, fixall.Request{Scope: fixall.ScopeDocument, Project: "p", Document: "nope"})
	require.ErrorIs(t, err, workspace.ErrUnknownDocument)
}

func TestRequestFilters(t *testing.T) {
	t.Parallel()

	s := workspace.NewSolution(project(t, "p", "(wrap a) (grow 1)"))
	e := engine(t, nil)

	out, _, err := e.FixAll(context.Background(), s, fixall.Request{IDs: []string{growDesc.ID}})
	require.NoError(t, err)
	assert.Equal(t, "(wrap a) (grow 0)", text(t, out, "p/f0.toy"))

	out, res, err := e.FixAll(context.Background(), s, fixall.Request{IDs: []string{wrapDesc.ID}, EquivalenceKey: "nope"})
	require.NoError(t, err)
	assert.Equal(t, "(wrap a) (grow 1)", text(t, out, "p/f0.toy"))
	doc, ok := res.Document("p/f0.toy")
	require.True(t, ok)
	require.Len(t, doc.Skipped, 1)
	assert.Equal(t, fixall.SkipNoAction, doc.Skipped[0].Reason)
}

func TestNoBatchProvider(t *testing.T) {
	t.Parallel()

	optOut := &codefix.Fixer{IDs: wrapFix.IDs, Mode: codefix.ModeNone, Compute: wrapFix.Compute}
	s := workspace.NewSolution(project(t, "p", "(wrap a)"))

	out, res, err := engine(t, []codefix.Provider{optOut}).FixAll(context.Background(), s, fixall.Request{})
	require.NoError(t, err)
	assert.Equal(t, "(wrap a)", text(t, out, "p/f0.toy"))
	doc, ok := res.Document("p/f0.toy")
	require.True(t, ok)
	require.Len(t, doc.Skipped, 1)
	assert.Equal(t, fixall.SkipNoBatch, doc.Skipped[0].Reason)
}

func TestFormatPostPass(t *testing.T) {
	t.Parallel()

	spacey := &codefix.Fixer{
		IDs: wrapFix.IDs,
		Compute: func(_ context.Context, req codefix.Request) ([]codefix.Action, error) {
			return []codefix.Action{
				codefix.Replace("Unwrap", req.Diagnostic, []syntax.Kind{toy.List}, func(c syntax.Cursor) (*syntax.Node, error) {
					return toy.Items(c)[1].Node().WithAnnotations(syntax.FormatAnnotation), nil
				}),
			}, nil
		},
	}
	s := workspace.NewSolution(project(t, "p", "(wrap a)  (x   y)"))

	out, _, err := engine(t, []codefix.Provider{spacey}).FixAll(context.Background(), s, fixall.Request{})
	require.NoError(t, err)
	assert.Equal(t, "a (x y)", text(t, out, "p/f0.toy"))

	out, _, err = engine(t, []codefix.Provider{spacey}, fixall.WithFormat(false)).FixAll(context.Background(), s, fixall.Request{})
	require.NoError(t, err)
	assert.Equal(t, "a  (x   y)", text(t, out, "p/f0.toy"))

	// Without a format mark the formatter never runs.
	out, _, err = engine(t, []codefix.Provider{wrapFix}).FixAll(context.Background(), s, fixall.Request{})
	require.NoError(t, err)
	assert.Equal(t, "a  (x   y)", text(t, out, "p/f0.toy"))
}

func TestCancellationDiscardsResults(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cancelling := &codefix.Fixer{
		IDs: wrapFix.IDs,
		Compute: func(ctx context.Context, req codefix.Request) ([]codefix.Action, error) {
			cancel()
			return wrapFix.Compute(ctx, req)
		},
	}
	s := workspace.NewSolution(project(t, "p", "(wrap a) (wrap b)", "(wrap c)"))

	out, res, err := engine(t, []codefix.Provider{cancelling}).FixAll(ctx, s, fixall.Request{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
	assert.Nil(t, res)
}

func TestScopeText(t *testing.T) {
	t.Parallel()

	for _, want := range []fixall.Scope{fixall.ScopeSolution, fixall.ScopeProject, fixall.ScopeDocument} {
		b, err := want.MarshalText()
		require.NoError(t, err)
		var got fixall.Scope
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, want, got)
	}

	var s fixall.Scope
	require.NoError(t, s.Set("file"))
	assert.Equal(t, fixall.ScopeDocument, s)
	require.ErrorIs(t, s.Set("galaxy"), fixall.ErrUnknownScope)
}
