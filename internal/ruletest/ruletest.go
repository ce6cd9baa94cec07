// Package ruletest runs single rules over in-memory sources for tests.
package ruletest

import (
	"context"
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spechtlabs/fixkit/codefix"
	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/dispatch"
	"github.com/spechtlabs/fixkit/fixall"
	"github.com/spechtlabs/fixkit/host"
	"github.com/spechtlabs/fixkit/rule"
	"github.com/spechtlabs/fixkit/workspace"
)

// Project parses files, keyed by path, into one project. Documents are added
// in path order. Syntax errors fail the test.
func Project(t testing.TB, lang host.Language, files map[string]string) *workspace.Project {
	t.Helper()
	var docs []*workspace.Document
	for _, path := range slices.Sorted(maps.Keys(files)) {
		tree, err := lang.Parse(context.Background(), path, []byte(files[path]))
		require.NoError(t, err, path)
		docs = append(docs, workspace.NewDocument(workspace.DocumentID(path), tree, lang))
	}
	return workspace.NewProject("test", "test", lang, docs...)
}

// Diagnose runs r over p and returns its diagnostics in report order.
func Diagnose(t testing.TB, r *rule.Rule, p *workspace.Project) []diagnostic.Diagnostic {
	t.Helper()
	d, err := dispatch.New([]*rule.Rule{r}, dispatch.WithParallelism(1))
	require.NoError(t, err)
	diags, err := d.Analyze(context.Background(), p)
	require.NoError(t, err)
	return diags
}

// IDs returns the descriptor ids of diags.
func IDs(diags []diagnostic.Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.ID
	}
	return out
}

// Texts returns the report text of every diagnostic, sliced from p.
func Texts(p *workspace.Project, diags []diagnostic.Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		doc, ok := p.DocumentByPath(d.Location.Path)
		if !ok {
			out = append(out, "")
			continue
		}
		out = append(out, doc.Tree().Slice(d.Location.Span))
	}
	return out
}

// FixAll fixes every diagnostic of r in p with fixer and returns the new
// document texts, keyed by path.
func FixAll(t testing.TB, r *rule.Rule, fixer codefix.Provider, p *workspace.Project, opts ...fixall.Option) (map[string]string, *fixall.Result) {
	t.Helper()
	d, err := dispatch.New([]*rule.Rule{r}, dispatch.WithParallelism(1))
	require.NoError(t, err)
	eng, err := fixall.New(d, []codefix.Provider{fixer}, opts...)
	require.NoError(t, err)

	out, res, err := eng.FixAll(context.Background(), workspace.NewSolution(p), fixall.Request{})
	require.NoError(t, err)

	texts := make(map[string]string)
	for _, doc := range out.Documents() {
		texts[doc.Path()] = doc.Text()
	}
	return texts, res
}
