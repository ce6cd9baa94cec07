// Package fixall applies a fix provider at every site a rule flags, across a
// document, a project or a whole solution, and folds the edited snapshots
// into one result.
//
// Within a document every site is tagged with a tracking annotation before
// the first edit, then fixed innermost-last-first so earlier edits never
// move a pending target. Providers in [codefix.ModeRequery] additionally
// re-run diagnosis after each round to pick up cascading sites.
package fixall

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/spechtlabs/fixkit/codefix"
	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/dispatch"
	"github.com/spechtlabs/fixkit/syntax"
	"github.com/spechtlabs/fixkit/workspace"
)

// trackingKind is the annotation kind of fix-all targets.
const trackingKind = "fixall"

// Request selects what a fix-all run covers.
type Request struct {
	Scope Scope
	// Project is required for ScopeProject and ScopeDocument.
	Project workspace.ProjectID
	// Document is required for ScopeDocument.
	Document workspace.DocumentID
	// IDs restricts the run to these descriptor ids; empty means every
	// fixable id.
	IDs []string
	// EquivalenceKey selects the action at every site; empty picks each
	// site's first action.
	EquivalenceKey string
}

// Engine runs fix-all batches. It is safe for concurrent use.
type Engine struct {
	dispatcher *dispatch.Dispatcher
	fixes      *codefix.Registry
	opts       options
}

// New returns an engine that diagnoses with d and fixes with providers.
func New(d *dispatch.Dispatcher, providers []codefix.Provider, opts ...Option) (*Engine, error) {
	if d == nil {
		return nil, errors.New("fixall: nil dispatcher")
	}
	o := defaultOptions()
	Options(opts).apply(&o)

	e := &Engine{dispatcher: d, fixes: codefix.NewRegistry(providers...), opts: o}
	for _, p := range e.fixes.Providers() {
		for _, id := range p.FixableIDs() {
			if _, ok := d.Descriptor(id); !ok {
				o.logger.Warn("fixall.provider.unknown", "id", id)
			}
		}
	}
	return e, nil
}

// FixAll fixes every selected diagnostic in scope and returns the new
// solution. A cancelled run returns ctx.Err() and no partial result.
func (e *Engine) FixAll(ctx context.Context, s *workspace.Solution, req Request) (*workspace.Solution, *Result, error) {
	projects, err := e.projects(s, req)
	if err != nil {
		return nil, nil, err
	}

	type outcome struct {
		project *workspace.Project
		docs    []DocumentResult
	}
	outcomes := make([]outcome, len(projects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.parallelism)
	for i, p := range projects {
		g.Go(func() error {
			fixed, docs, err := e.fixProject(gctx, p, req)
			if err != nil {
				return err
			}
			outcomes[i] = outcome{project: fixed, docs: docs}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	res := &Result{}
	out := s
	for _, o := range outcomes {
		if out, err = out.WithProject(o.project); err != nil {
			return nil, nil, err
		}
		res.Documents = append(res.Documents, o.docs...)
	}
	e.opts.logger.Debug("fixall.done", "scope", req.Scope.String(), "result", res)
	return out, res, nil
}

func (e *Engine) projects(s *workspace.Solution, req Request) ([]*workspace.Project, error) {
	switch req.Scope {
	case ScopeSolution:
		return s.Projects(), nil
	case ScopeProject, ScopeDocument:
		p, ok := s.Project(req.Project)
		if !ok {
			return nil, fmt.Errorf("fixall: %w: %s", workspace.ErrUnknownProject, req.Project)
		}
		if req.Scope == ScopeDocument {
			if _, ok := p.Document(req.Document); !ok {
				return nil, fmt.Errorf("fixall: %w: %s", workspace.ErrUnknownDocument, req.Document)
			}
		}
		return []*workspace.Project{p}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownScope, uint8(req.Scope))
}

// wanted reports whether id is fixed by this request.
func (e *Engine) wanted(id string, req Request) bool {
	if !e.fixes.Fixable(id) {
		return false
	}
	return len(req.IDs) == 0 || slices.Contains(req.IDs, id)
}

func (e *Engine) requery(id string) bool {
	p, ok := e.fixes.For(id)
	return ok && codefix.ModeOf(p) == codefix.ModeRequery
}

func (e *Engine) fixProject(ctx context.Context, p *workspace.Project, req Request) (*workspace.Project, []DocumentResult, error) {
	diags, err := e.dispatcher.Analyze(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	byPath := make(map[string][]diagnostic.Diagnostic)
	for _, d := range diags {
		if e.wanted(d.ID, req) {
			byPath[d.Location.Path] = append(byPath[d.Location.Path], d)
		}
	}

	var docs []*workspace.Document
	for _, doc := range p.Documents() {
		if req.Scope == ScopeDocument && doc.ID() != req.Document {
			continue
		}
		if len(byPath[doc.Path()]) > 0 {
			docs = append(docs, doc)
		}
	}

	fixed := make([]*workspace.Document, len(docs))
	results := make([]DocumentResult, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.parallelism)
	for i, doc := range docs {
		g.Go(func() error {
			out, res, err := e.fixDocument(gctx, p, doc, byPath[doc.Path()], req)
			if err != nil {
				return err
			}
			fixed[i], results[i] = out, res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	next, err := p.WithDocuments(fixed...)
	if err != nil {
		return nil, nil, err
	}
	e.opts.logger.Debug("fixall.project.done", "project", p.Name(), "documents", len(docs))
	return next, results, nil
}

// fixDocument runs the batch on one document. When the batched result no
// longer parses, the document is redone with every edit validated.
func (e *Engine) fixDocument(ctx context.Context, p *workspace.Project, doc *workspace.Document, diags []diagnostic.Diagnostic, req Request) (*workspace.Document, DocumentResult, error) {
	b := &batch{e: e, req: req, project: p, origin: doc}

	out, res, err := b.run(ctx, diags, false)
	if err != nil {
		return nil, DocumentResult{}, err
	}
	if !res.Changed {
		return doc, res, nil
	}

	final, ok, err := b.finish(ctx, out)
	if err != nil {
		return nil, DocumentResult{}, err
	}
	if ok || doc.Tree().RootNode().Malformed() {
		return final, res, nil
	}

	e.opts.logger.Warn("fixall.document.invalid", "path", doc.Path())
	out, res, err = b.run(ctx, diags, true)
	if err != nil {
		return nil, DocumentResult{}, err
	}
	res.Validated = true
	if !res.Changed {
		return doc, res, nil
	}
	final, _, err = b.finish(ctx, out)
	if err != nil {
		return nil, DocumentResult{}, err
	}
	return final, res, nil
}

// batch is the state of fixing one document.
type batch struct {
	e       *Engine
	req     Request
	project *workspace.Project
	origin  *workspace.Document
}

type site struct {
	diag     diagnostic.Diagnostic
	provider codefix.Provider
	ann      syntax.Annotation
	span     syntax.Span
}

func (s *site) record(title string) Site {
	return Site{ID: s.diag.ID, Span: s.span, Title: title}
}

// run applies rounds until nothing is left to requery.
func (b *batch) run(ctx context.Context, diags []diagnostic.Diagnostic, validate bool) (*workspace.Document, DocumentResult, error) {
	res := DocumentResult{Project: b.project.ID(), Path: b.origin.Path()}
	doc := b.origin
	pending := diags

	for {
		res.Iterations++
		next, applied, err := b.round(ctx, doc, pending, validate, &res)
		if err != nil {
			return nil, res, err
		}
		doc = next
		if applied == 0 || !slices.ContainsFunc(pending, func(d diagnostic.Diagnostic) bool { return b.e.requery(d.ID) }) {
			break
		}

		doc, pending, err = b.rediagnose(ctx, doc)
		if err != nil {
			return nil, res, err
		}
		if len(pending) == 0 {
			break
		}
		if res.Iterations >= b.e.opts.maxIterations {
			res.Truncated = true
			b.e.opts.logger.Warn("fixall.requery.truncated", "path", doc.Path(), "iterations", res.Iterations, "remaining", len(pending))
			break
		}
	}

	res.Changed = doc.Text() != b.origin.Text()
	return doc, res, nil
}

// rediagnose reparses doc and returns the requery-mode diagnostics left in it.
func (b *batch) rediagnose(ctx context.Context, doc *workspace.Document) (*workspace.Document, []diagnostic.Diagnostic, error) {
	reparsed, err := doc.WithText(ctx, doc.Text())
	if reparsed == nil || err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		b.e.opts.logger.Debug("fixall.requery.unparsable", "path", doc.Path(), "error", err)
		return doc, nil, nil
	}

	p, err := b.project.WithDocument(reparsed)
	if err != nil {
		return nil, nil, err
	}
	diags, err := b.e.dispatcher.Analyze(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	var out []diagnostic.Diagnostic
	for _, d := range diags {
		if d.Location.Path == doc.Path() && b.e.wanted(d.ID, b.req) && b.e.requery(d.ID) {
			out = append(out, d)
		}
	}
	return reparsed, out, nil
}

// round tags every site of diags and fixes them from the end of the document
// backwards, inner sites first.
func (b *batch) round(ctx context.Context, doc *workspace.Document, diags []diagnostic.Diagnostic, validate bool, res *DocumentResult) (*workspace.Document, int, error) {
	log := b.e.opts.logger
	tree := doc.Tree()

	var (
		sites   []*site
		targets []syntax.Cursor
		anns    = make(map[syntax.Span][]syntax.Annotation)
		seen    = make(map[Site]bool)
	)
	for _, d := range diags {
		key := Site{ID: d.ID, Span: d.Location.Span}
		if seen[key] {
			continue
		}
		seen[key] = true

		s := &site{diag: d, span: d.Location.Span}
		p, _ := b.e.fixes.For(d.ID)
		s.provider = p
		if codefix.ModeOf(p) == codefix.ModeNone {
			b.skip(res, s, SkipNoBatch, nil)
			continue
		}
		c, ok := tree.FindNode(d.Location.Span)
		if !ok {
			b.skip(res, s, SkipUnresolved, nil)
			continue
		}
		s.ann = syntax.NewAnnotation(trackingKind)
		if _, tagged := anns[c.Span()]; !tagged {
			targets = append(targets, c)
		}
		anns[c.Span()] = append(anns[c.Span()], s.ann)
		sites = append(sites, s)
	}

	tree, err := tree.ReplaceNodes(targets, func(orig syntax.Cursor, current *syntax.Node) *syntax.Node {
		return current.WithAnnotations(anns[orig.Span()]...)
	})
	if err != nil {
		return nil, 0, err
	}
	doc = doc.WithTree(tree)

	slices.SortStableFunc(sites, func(x, y *site) int {
		if c := cmp.Compare(y.span.Start, x.span.Start); c != 0 {
			return c
		}
		if c := cmp.Compare(x.span.Length, y.span.Length); c != 0 {
			return c
		}
		return cmp.Compare(x.diag.ID, y.diag.ID)
	})

	applied := 0
	for _, s := range sites {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		c, ok := doc.Tree().Annotated(s.ann)
		if !ok {
			b.skip(res, s, SkipTrackingLost, nil)
			continue
		}
		if c.Node().Malformed() {
			b.skip(res, s, SkipMalformed, nil)
			doc = untrack(doc, s.ann)
			continue
		}

		next, title, err := b.apply(ctx, doc, s, c.Span())
		if err == nil && validate && !b.parses(ctx, next) {
			err = &skipError{reason: SkipInvalid}
		}
		var se *skipError
		if errors.As(err, &se) {
			b.skip(res, s, se.reason, se.err)
			doc = untrack(doc, s.ann)
			continue
		}
		if err != nil {
			return nil, 0, err
		}

		doc = untrack(next, s.ann)
		res.Applied = append(res.Applied, s.record(title))
		applied++
		log.Debug("fixall.site.applied", "path", doc.Path(), "id", s.diag.ID, "title", title)
	}

	return doc, applied, nil
}

// skipError carries the reason a site is skipped.
type skipError struct {
	reason SkipReason
	err    error
}

func (e *skipError) Error() string {
	if e.err != nil {
		return e.reason.String() + ": " + e.err.Error()
	}
	return e.reason.String()
}

func (e *skipError) Unwrap() error { return e.err }

// apply computes and applies the fix for s at its current span. Everything
// but cancellation fails with a *skipError.
func (b *batch) apply(ctx context.Context, doc *workspace.Document, s *site, span syntax.Span) (*workspace.Document, string, error) {
	diag := s.diag.WithLocation(diagnostic.Location{Path: doc.Path(), Span: span})
	project, err := b.project.WithDocument(doc)
	if err != nil {
		return nil, "", err
	}

	actions, err := s.provider.ComputeFixes(ctx, codefix.Request{Document: doc, Project: project, Diagnostic: diag})
	if err != nil {
		return nil, "", b.failure(ctx, s, err)
	}
	action, ok := codefix.Select(actions, b.req.EquivalenceKey)
	if !ok || action.Apply == nil {
		return nil, "", &skipError{reason: SkipNoAction}
	}

	next, err := action.Apply(ctx, doc)
	switch {
	case err != nil:
		return nil, "", b.failure(ctx, s, err)
	case next == nil:
		return nil, "", &skipError{reason: SkipFailed, err: errors.New("nil document")}
	case next.Text() == doc.Text():
		return nil, "", &skipError{reason: SkipNoChange}
	}
	return next, action.Title, nil
}

func (b *batch) failure(ctx context.Context, s *site, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, codefix.ErrNotApplicable) {
		return &skipError{reason: SkipNotApplicable}
	}
	b.e.opts.logger.Warn("fixall.site.err", "path", b.origin.Path(), "id", s.diag.ID, "error", err)
	return &skipError{reason: SkipFailed, err: err}
}

func (b *batch) skip(res *DocumentResult, s *site, r SkipReason, err error) {
	sk := Skip{Site: s.record(""), Reason: r}
	if err != nil {
		sk.Error = err.Error()
	}
	res.Skipped = append(res.Skipped, sk)
	b.e.opts.logger.Debug("fixall.site.skip", "path", b.origin.Path(), "id", s.diag.ID, "reason", r.String())
}

// parses reports whether doc's text parses without errors.
func (b *batch) parses(ctx context.Context, doc *workspace.Document) bool {
	tree, err := doc.Language().Parse(ctx, doc.Path(), []byte(doc.Text()))
	return err == nil && tree != nil && !tree.RootNode().Malformed()
}

// finish formats doc when an edit asked for it and reparses the result. It
// reports whether the text parses.
func (b *batch) finish(ctx context.Context, doc *workspace.Document) (*workspace.Document, bool, error) {
	text := doc.Text()
	if b.e.opts.format && doc.Tree().HasAnnotationKind(syntax.FormatAnnotation.Kind()) {
		formatted, err := doc.Language().Format(ctx, doc.Path(), []byte(text))
		switch {
		case ctx.Err() != nil:
			return nil, false, ctx.Err()
		case err != nil:
			b.e.opts.logger.Warn("fixall.format.err", "path", doc.Path(), "error", err)
		default:
			text = string(formatted)
		}
	}

	reparsed, err := doc.WithText(ctx, text)
	if ctx.Err() != nil {
		return nil, false, ctx.Err()
	}
	if reparsed == nil {
		return doc, false, nil
	}
	return reparsed, err == nil && !reparsed.Tree().RootNode().Malformed(), nil
}

// untrack strips a from doc's tree.
func untrack(doc *workspace.Document, a syntax.Annotation) *workspace.Document {
	c, ok := doc.Tree().Annotated(a)
	if !ok {
		return doc
	}
	tree, err := doc.Tree().Replace(c, c.Node().WithoutAnnotations(a))
	if err != nil {
		return doc
	}
	return doc.WithTree(tree)
}
