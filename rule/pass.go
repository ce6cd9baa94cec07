package rule

import (
	"context"
	"slices"
	"sync"

	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/host"
	"github.com/spechtlabs/fixkit/syntax"
	"github.com/spechtlabs/fixkit/workspace"
)

// Pass is one rule's view of one analysis of a project. The dispatcher
// creates it; rules only see it through the callback contexts.
type Pass struct {
	ctx     context.Context
	rule    *Rule
	project *workspace.Project
	comp    host.Compilation
	scratch Scratch
	report  func(*Rule, diagnostic.Diagnostic)
	fault   func(*Rule, diagnostic.Location, error)
}

// NewPass returns a pass of r over project. report receives every diagnostic
// the rule reports; fault receives failures raised through Fault.
func NewPass(
	ctx context.Context,
	r *Rule,
	project *workspace.Project,
	comp host.Compilation,
	report func(*Rule, diagnostic.Diagnostic),
	fault func(*Rule, diagnostic.Location, error),
) *Pass {
	return &Pass{ctx: ctx, rule: r, project: project, comp: comp, report: report, fault: fault}
}

// Rule returns the rule the pass runs.
func (p *Pass) Rule() *Rule { return p.rule }

func (p *Pass) oracle(path string) host.Oracle {
	if p.comp == nil {
		return host.NopOracle{}
	}
	return p.comp.Oracle(path)
}

// Start runs fn and returns the callbacks it registered.
func (p *Pass) Start(fn CompilationStartAction) Registrations {
	c := &CompilationStartContext{pass: p}
	fn(c)
	return c.regs
}

// Scratch is state shared by the callbacks of one pass. Callbacks for
// different documents run concurrently, so every access goes through the
// lock.
type Scratch struct {
	mu     sync.Mutex
	values map[string]any
}

// Update replaces the value under key with fn's result. fn receives nil for
// a new key.
func (s *Scratch) Update(key string, fn func(old any) any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[key] = fn(s.values[key])
}

// Get returns the value under key.
func (s *Scratch) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Keys returns the keys set so far, sorted.
func (s *Scratch) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// CompilationStartContext is handed to compilation-start actions.
type CompilationStartContext struct {
	pass *Pass
	regs Registrations
}

func (c *CompilationStartContext) Context() context.Context      { return c.pass.ctx }
func (c *CompilationStartContext) Project() *workspace.Project   { return c.pass.project }
func (c *CompilationStartContext) Compilation() host.Compilation { return c.pass.comp }
func (c *CompilationStartContext) Scratch() *Scratch             { return &c.pass.scratch }

// RegisterNodeAction registers fn for this pass only.
func (c *CompilationStartContext) RegisterNodeAction(fn NodeAction, kinds ...syntax.Kind) {
	c.regs.Nodes = append(c.regs.Nodes, NodeRegistration{Kinds: kinds, Action: fn})
}

// RegisterTreeAction registers fn for this pass only.
func (c *CompilationStartContext) RegisterTreeAction(fn TreeAction) {
	c.regs.Trees = append(c.regs.Trees, fn)
}

// RegisterCompilationEndAction calls fn after every document of the pass was
// walked.
func (c *CompilationStartContext) RegisterCompilationEndAction(fn CompilationEndAction) {
	c.regs.Ends = append(c.regs.Ends, fn)
}

// TreeContext is handed to tree actions.
type TreeContext struct {
	pass *Pass
	doc  *workspace.Document
}

// NewTreeContext is used by the dispatcher.
func NewTreeContext(p *Pass, doc *workspace.Document) *TreeContext {
	return &TreeContext{pass: p, doc: doc}
}

func (c *TreeContext) Context() context.Context      { return c.pass.ctx }
func (c *TreeContext) Document() *workspace.Document { return c.doc }
func (c *TreeContext) Tree() *syntax.Tree            { return c.doc.Tree() }
func (c *TreeContext) Semantic() host.Oracle         { return c.pass.oracle(c.doc.Path()) }
func (c *TreeContext) Project() *workspace.Project   { return c.pass.project }

// Location returns the location of n in the document.
func (c *TreeContext) Location(n syntax.Cursor) diagnostic.Location {
	return diagnostic.Location{Path: c.doc.Path(), Span: n.Span()}
}

// Report adds d to the pass's diagnostics.
func (c *TreeContext) Report(d diagnostic.Diagnostic) { c.pass.report(c.pass.rule, d) }

// ReportAt reports desc at n.
func (c *TreeContext) ReportAt(desc *diagnostic.Descriptor, n syntax.Cursor, args ...any) {
	c.Report(diagnostic.New(desc, c.Location(n), args...))
}

// Fault reports an internal failure of the rule at the start of the document.
func (c *TreeContext) Fault(err error) {
	c.pass.fault(c.pass.rule, diagnostic.Location{Path: c.doc.Path()}, err)
}

// NodeContext is handed to node actions.
type NodeContext struct {
	TreeContext
	node syntax.Cursor
}

// NewNodeContext is used by the dispatcher.
func NewNodeContext(p *Pass, doc *workspace.Document, node syntax.Cursor) *NodeContext {
	return &NodeContext{TreeContext: TreeContext{pass: p, doc: doc}, node: node}
}

// Node returns the matched node.
func (c *NodeContext) Node() syntax.Cursor { return c.node }

// Fault reports an internal failure of the rule at the matched node.
func (c *NodeContext) Fault(err error) {
	c.pass.fault(c.pass.rule, c.Location(c.node), err)
}

// CompilationEndContext is handed to compilation-end actions.
type CompilationEndContext struct {
	pass *Pass
}

// NewCompilationEndContext is used by the dispatcher.
func NewCompilationEndContext(p *Pass) *CompilationEndContext {
	return &CompilationEndContext{pass: p}
}

func (c *CompilationEndContext) Context() context.Context         { return c.pass.ctx }
func (c *CompilationEndContext) Project() *workspace.Project      { return c.pass.project }
func (c *CompilationEndContext) Compilation() host.Compilation    { return c.pass.comp }
func (c *CompilationEndContext) Scratch() *Scratch                { return &c.pass.scratch }
func (c *CompilationEndContext) Semantic(path string) host.Oracle { return c.pass.oracle(path) }

// Report adds d to the pass's diagnostics.
func (c *CompilationEndContext) Report(d diagnostic.Diagnostic) { c.pass.report(c.pass.rule, d) }

// Fault reports an internal failure of the rule for the project.
func (c *CompilationEndContext) Fault(err error) {
	c.pass.fault(c.pass.rule, diagnostic.Location{}, err)
}
