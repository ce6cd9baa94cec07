// Package dispatch runs rules over projects: one pre-order walk per document,
// node callbacks in registration order, documents in parallel and
// compilation-end callbacks after the join.
package dispatch

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/internal/nolint"
	"github.com/spechtlabs/fixkit/rule"
	"github.com/spechtlabs/fixkit/syntax"
	"github.com/spechtlabs/fixkit/workspace"
)

// ErrDuplicateRule is returned when two rules share a name or a descriptor id.
var ErrDuplicateRule = errors.New("dispatch: duplicate rule")

// Dispatcher invokes a fixed set of rules. It is safe for concurrent use;
// each Analyze call is an independent pass.
type Dispatcher struct {
	entries []*entry
	opts    options
}

type entry struct {
	index int
	rule  *rule.Rule
	regs  rule.Registrations
}

// New validates rules, runs every Initialize once and drops rules whose
// descriptors are all disabled.
func New(rules []*rule.Rule, opts ...Option) (*Dispatcher, error) {
	o := defaultOptions()
	Options(opts).apply(&o)
	for _, g := range o.exclude {
		if !doublestar.ValidatePattern(g) {
			return nil, fmt.Errorf("dispatch: invalid exclude pattern %q", g)
		}
	}

	d := &Dispatcher{opts: o}
	names := make(map[string]bool)
	ids := make(map[string]string)
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if names[r.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRule, r.Name)
		}
		names[r.Name] = true
		for _, desc := range r.Descriptors {
			if other, dup := ids[desc.ID]; dup {
				return nil, fmt.Errorf("%w: %s declared by %s and %s", ErrDuplicateRule, desc.ID, other, r.Name)
			}
			ids[desc.ID] = r.Name
		}

		if !d.anyEnabled(r) {
			o.logger.Debug("dispatch.rule.disabled", "rule", r.Name)
			continue
		}
		regs, err := rule.Initialize(r)
		if err != nil {
			return nil, err
		}
		d.entries = append(d.entries, &entry{index: len(d.entries), rule: r, regs: regs})
	}
	return d, nil
}

func (d *Dispatcher) anyEnabled(r *rule.Rule) bool {
	for _, desc := range r.Descriptors {
		if _, on := d.opts.resolver.Effective(desc); on {
			return true
		}
	}
	return false
}

// Rules returns the rules that run, in registration order.
func (d *Dispatcher) Rules() []*rule.Rule {
	out := make([]*rule.Rule, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.rule
	}
	return out
}

// Descriptor returns the descriptor with id among the running rules.
func (d *Dispatcher) Descriptor(id string) (*diagnostic.Descriptor, bool) {
	for _, e := range d.entries {
		if desc, ok := e.rule.Descriptor(id); ok {
			return desc, true
		}
	}
	return nil, false
}

// Excluded reports whether path matches an exclude glob.
func (d *Dispatcher) Excluded(path string) bool {
	p := filepath.ToSlash(path)
	for _, g := range d.opts.exclude {
		if ok, _ := doublestar.Match(g, p); ok {
			return true
		}
	}
	return false
}

// callback is one registered action bound to its pass.
type callback struct {
	rule int
	seq  int
	pass *rule.Pass
	node rule.NodeAction
	tree rule.TreeAction
}

type table struct {
	byKind map[syntax.Kind][]callback
	any    []callback
	trees  []callback
	ends   []endCallback
}

type endCallback struct {
	pass *rule.Pass
	fn   rule.CompilationEndAction
}

func (t *table) addNodes(e *entry, p *rule.Pass, regs []rule.NodeRegistration, seq int) int {
	for _, reg := range regs {
		cb := callback{rule: e.index, seq: seq, pass: p, node: reg.Action}
		seq++
		if len(reg.Kinds) == 0 {
			t.any = append(t.any, cb)
			continue
		}
		for _, k := range slices.Compact(slices.Sorted(slices.Values(reg.Kinds))) {
			t.byKind[k] = append(t.byKind[k], cb)
		}
	}
	return seq
}

func (t *table) addTrees(e *entry, p *rule.Pass, fns []rule.TreeAction, seq int) int {
	for _, fn := range fns {
		t.trees = append(t.trees, callback{rule: e.index, seq: seq, pass: p, tree: fn})
		seq++
	}
	return seq
}

func byOrder(a, b callback) int {
	if c := cmp.Compare(a.rule, b.rule); c != 0 {
		return c
	}
	return cmp.Compare(a.seq, b.seq)
}

func (t *table) sort() {
	for k := range t.byKind {
		slices.SortFunc(t.byKind[k], byOrder)
	}
	slices.SortFunc(t.any, byOrder)
	slices.SortFunc(t.trees, byOrder)
}

// actions returns the callbacks for a node, in registration order.
func (t *table) actions(c syntax.Cursor) []callback {
	kinded := t.byKind[c.Kind()]
	if len(t.any) == 0 || c.Node().IsLeaf() {
		return kinded
	}
	if len(kinded) == 0 {
		return t.any
	}
	out := append(slices.Clone(kinded), t.any...)
	slices.SortFunc(out, byOrder)
	return out
}

// run is the state of one Analyze call.
type run struct {
	d          *Dispatcher
	ctx        context.Context
	project    *workspace.Project
	sink       diagnostic.Collection
	mu         sync.Mutex
	directives map[string]*nolint.FileDirectives
}

// Analyze runs every applicable rule over project and returns the sorted
// diagnostics. A cancelled pass returns ctx.Err() and no diagnostics.
func (d *Dispatcher) Analyze(ctx context.Context, project *workspace.Project) ([]diagnostic.Diagnostic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := d.opts.logger

	comp, err := project.Compilation(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("dispatch.compile.err", "project", project.Name(), "error", err)
		comp = nil
	}

	r := &run{d: d, ctx: ctx, project: project, directives: make(map[string]*nolint.FileDirectives)}
	t := &table{byKind: make(map[syntax.Kind][]callback)}
	lang := project.Language().Name()

	for _, e := range d.entries {
		if !e.rule.Supports(lang) {
			continue
		}
		p := rule.NewPass(ctx, e.rule, project, comp, r.report, r.fault)
		seq := t.addNodes(e, p, e.regs.Nodes, 0)
		seq = t.addTrees(e, p, e.regs.Trees, seq)
		for _, start := range e.regs.Starts {
			regs, ok := r.start(p, start)
			if !ok {
				continue
			}
			seq = t.addNodes(e, p, regs.Nodes, seq)
			seq = t.addTrees(e, p, regs.Trees, seq)
			for _, end := range regs.Ends {
				t.ends = append(t.ends, endCallback{pass: p, fn: end})
			}
		}
	}
	t.sort()

	var docs []*workspace.Document
	for _, doc := range project.Documents() {
		if d.Excluded(doc.Path()) {
			log.Debug("dispatch.document.excluded", "path", doc.Path())
			continue
		}
		docs = append(docs, doc)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.parallelism)
	for _, doc := range docs {
		g.Go(func() error {
			return r.walk(gctx, t, doc)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, end := range t.ends {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.end(end)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Debug("dispatch.project.done", "project", project.Name(), "documents", len(docs), "diagnostics", r.sink.Len())
	return r.sink.Items(), nil
}

// AnalyzeSolution analyzes every project of s in parallel.
func (d *Dispatcher) AnalyzeSolution(ctx context.Context, s *workspace.Solution) ([]diagnostic.Diagnostic, error) {
	projects := s.Projects()
	results := make([][]diagnostic.Diagnostic, len(projects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.parallelism)
	for i, p := range projects {
		g.Go(func() error {
			ds, err := d.Analyze(gctx, p)
			results[i] = ds
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []diagnostic.Diagnostic
	for _, ds := range results {
		out = append(out, ds...)
	}
	diagnostic.Sort(out)
	return out, nil
}

func (r *run) walk(ctx context.Context, t *table, doc *workspace.Document) error {
	tree := doc.Tree()
	if r.d.opts.suppress {
		fd := nolint.ParseTree(tree)
		r.mu.Lock()
		r.directives[doc.Path()] = fd
		r.mu.Unlock()
	}

	for c := range tree.Preorder() {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, cb := range t.actions(c) {
			r.invoke(cb.pass, diagnostic.Location{Path: doc.Path(), Span: c.Span()}, func() {
				cb.node(rule.NewNodeContext(cb.pass, doc, c))
			})
		}
	}

	for _, cb := range t.trees {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.invoke(cb.pass, diagnostic.Location{Path: doc.Path()}, func() {
			cb.tree(rule.NewTreeContext(cb.pass, doc))
		})
	}
	return nil
}

func (r *run) start(p *rule.Pass, fn rule.CompilationStartAction) (regs rule.Registrations, ok bool) {
	ok = r.invoke(p, diagnostic.Location{}, func() {
		regs = p.Start(fn)
	})
	return regs, ok
}

func (r *run) end(cb endCallback) {
	r.invoke(cb.pass, diagnostic.Location{}, func() {
		cb.fn(rule.NewCompilationEndContext(cb.pass))
	})
}

// invoke runs fn and turns a panic into a fault at loc. It reports whether fn
// returned normally.
func (r *run) invoke(p *rule.Pass, loc diagnostic.Location, fn func()) (ok bool) {
	defer func() {
		if v := recover(); v != nil {
			r.fault(p.Rule(), loc, fmt.Errorf("panic: %v", v))
			ok = false
		}
	}()
	fn()
	return true
}

func (r *run) report(ru *rule.Rule, d diagnostic.Diagnostic) {
	if d.Descriptor == nil || !ru.Declares(d.Descriptor) {
		r.fault(ru, d.Location, fmt.Errorf("%w: %s", rule.ErrUndeclaredDescriptor, d.ID))
		return
	}
	sev, on := r.d.opts.resolver.Effective(d.Descriptor)
	if !on {
		return
	}
	if r.suppressed(d, ru.Name) {
		r.d.opts.logger.Debug("dispatch.diagnostic.suppressed", "rule", ru.Name, "id", d.ID, "location", d.Location.String())
		return
	}
	r.sink.Add(d.WithSeverity(sev))
}

func (r *run) fault(ru *rule.Rule, loc diagnostic.Location, err error) {
	if r.ctx.Err() != nil && errors.Is(err, r.ctx.Err()) {
		return
	}
	r.d.opts.logger.Warn("dispatch.rule.fault", "rule", ru.Name, "path", loc.Path, "error", err)

	d := diagnostic.New(diagnostic.Faulted, loc, ru.Name, err)
	sev, on := r.d.opts.resolver.Effective(diagnostic.Faulted)
	if !on {
		return
	}
	r.sink.Add(d.WithSeverity(sev))
}

func (r *run) suppressed(d diagnostic.Diagnostic, ruleName string) bool {
	if !r.d.opts.suppress {
		return false
	}
	r.mu.Lock()
	fd := r.directives[d.Location.Path]
	r.mu.Unlock()
	if fd.Len() == 0 {
		return false
	}
	doc, ok := r.project.DocumentByPath(d.Location.Path)
	if !ok {
		return false
	}
	line, _ := doc.Tree().Position(d.Location.Span.Start)
	return fd.IsSuppressed(line, ruleName, d.ID)
}
