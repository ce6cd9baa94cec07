// Package goanalysis exposes Go rules as go/analysis analyzers so they run
// under multichecker, go vet and golangci-lint.
//
// Each pass becomes a one-project workspace whose compilation is the pass's
// own type information. Diagnostics are reported with the first fix action of
// the rule's provider, converted to a suggested text edit.
package goanalysis

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"os"
	"sync"

	"golang.org/x/tools/go/analysis"

	"github.com/spechtlabs/fixkit/codefix"
	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/dispatch"
	"github.com/spechtlabs/fixkit/host/golang"
	"github.com/spechtlabs/fixkit/rule"
	"github.com/spechtlabs/fixkit/workspace"
)

// Analyzer returns an analyzer running r. fixes may be nil for rules without
// fixes. opts configure the dispatcher; suppression directives stay enabled
// unless an option turns them off.
func Analyzer(r *rule.Rule, fixes codefix.Provider, opts ...dispatch.Option) *analysis.Analyzer {
	a := &adapter{
		rule:  r,
		fixes: fixes,
		dispatcher: sync.OnceValues(func() (*dispatch.Dispatcher, error) {
			return dispatch.New([]*rule.Rule{r}, append([]dispatch.Option{dispatch.WithParallelism(1)}, opts...)...)
		}),
	}

	var url string
	if len(r.Descriptors) > 0 {
		url = r.Descriptors[0].HelpURL
	}

	return &analysis.Analyzer{
		Name: r.Name,
		Doc:  r.Doc,
		URL:  url,
		Run:  a.run,
	}
}

type adapter struct {
	rule       *rule.Rule
	fixes      codefix.Provider
	dispatcher func() (*dispatch.Dispatcher, error)
}

func (a *adapter) run(pass *analysis.Pass) (any, error) {
	if !a.rule.Supports(golang.New().Name()) {
		return nil, nil
	}
	d, err := a.dispatcher()
	if err != nil {
		return nil, fmt.Errorf("goanalysis: %s: %w", a.rule.Name, err)
	}

	ctx := context.Background()
	project, files, err := load(ctx, pass)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, nil
	}

	diags, err := d.Analyze(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("goanalysis: %s: %w", a.rule.Name, err)
	}

	for _, diag := range diags {
		if diag.Severity == diagnostic.Hidden {
			continue
		}
		tf, ok := files[diag.Location.Path]
		if !ok {
			continue
		}
		span := diag.Location.Span
		if span.End() > tf.Size() {
			continue
		}

		ad := analysis.Diagnostic{
			Pos:      tf.Pos(span.Start),
			End:      tf.Pos(span.End()),
			Category: diag.ID,
			Message:  diag.Message,
		}
		if diag.Descriptor != nil {
			ad.URL = diag.Descriptor.HelpURL
		}
		if fix, ok := a.suggest(ctx, project, tf, diag); ok {
			ad.SuggestedFixes = []analysis.SuggestedFix{fix}
		}
		pass.Report(ad)
	}
	return nil, nil
}

// load builds the workspace for pass. Files whose text does not match the
// parsed file, such as cgo-processed sources, are left out.
func load(ctx context.Context, pass *analysis.Pass) (*workspace.Project, map[string]*token.File, error) {
	lang := golang.New()
	files := make(map[string]*token.File, len(pass.Files))

	var (
		docs []*workspace.Document
		asts []*ast.File
	)
	for _, f := range pass.Files {
		tf := pass.Fset.File(f.FileStart)
		if tf == nil {
			continue
		}
		src, err := readFile(pass, tf.Name())
		if err != nil {
			return nil, nil, fmt.Errorf("goanalysis: read %s: %w", tf.Name(), err)
		}
		if len(src) != tf.Size() {
			continue
		}
		tree, err := lang.Parse(ctx, tf.Name(), src)
		if tree == nil {
			return nil, nil, err
		}
		docs = append(docs, workspace.NewDocument(workspace.DocumentID(tf.Name()), tree, lang))
		asts = append(asts, f)
		files[tf.Name()] = tf
	}
	if len(docs) == 0 {
		return nil, nil, nil
	}

	comp := golang.NewCompilation(pass.Fset, asts, pass.Pkg, pass.TypesInfo)
	project := workspace.NewProject(workspace.ProjectID(pass.Pkg.Path()), pass.Pkg.Name(), lang, docs...).
		WithCompilation(comp)
	return project, files, nil
}

func readFile(pass *analysis.Pass, name string) ([]byte, error) {
	if pass.ReadFile != nil {
		return pass.ReadFile(name)
	}
	return os.ReadFile(name)
}

// suggest converts the first fix action for diag into a suggested fix.
func (a *adapter) suggest(ctx context.Context, project *workspace.Project, tf *token.File, diag diagnostic.Diagnostic) (analysis.SuggestedFix, bool) {
	if a.fixes == nil || !codefix.Handles(a.fixes, diag.ID) {
		return analysis.SuggestedFix{}, false
	}
	doc, ok := project.DocumentByPath(diag.Location.Path)
	if !ok {
		return analysis.SuggestedFix{}, false
	}

	actions, err := a.fixes.ComputeFixes(ctx, codefix.Request{Document: doc, Project: project, Diagnostic: diag})
	if err != nil || len(actions) == 0 {
		return analysis.SuggestedFix{}, false
	}
	action := actions[0]
	fixed, err := action.Apply(ctx, doc)
	if err != nil {
		return analysis.SuggestedFix{}, false
	}

	edits := codefix.TextEdits(doc.Text(), fixed.Text())
	if len(edits) == 0 {
		return analysis.SuggestedFix{}, false
	}
	fix := analysis.SuggestedFix{Message: action.Title}
	for _, e := range edits {
		fix.TextEdits = append(fix.TextEdits, analysis.TextEdit{
			Pos:     tf.Pos(e.Start),
			End:     tf.Pos(e.End),
			NewText: []byte(e.NewText),
		})
	}
	return fix, true
}
