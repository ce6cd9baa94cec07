// Package rule is the plug-in surface for analysis rules.
//
// A [Rule] declares its descriptors and, in Initialize, registers callbacks
// for node kinds, whole trees or a compilation pass. Callbacks receive a
// context bundling the matched node, the semantic oracle of its file, a
// report sink and the pass's cancellation.
package rule

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/syntax"
)

var (
	// ErrInvalidRule is returned for rules that cannot be registered.
	ErrInvalidRule = errors.New("rule: invalid rule")

	// ErrUndeclaredDescriptor is the fault raised when a rule reports a
	// descriptor it did not declare.
	ErrUndeclaredDescriptor = errors.New("rule: undeclared descriptor")
)

// Rule is one analysis plug-in.
type Rule struct {
	Name string
	Doc  string

	// Languages lists the host languages the rule understands. Empty means
	// every language.
	Languages []string

	Descriptors []*diagnostic.Descriptor

	// Initialize registers the rule's callbacks. It runs once per dispatcher.
	Initialize func(*Context)
}

func (r *Rule) String() string { return r.Name }

// Validate checks the static shape of r.
func (r *Rule) Validate() error {
	switch {
	case r.Name == "":
		return fmt.Errorf("%w: missing name", ErrInvalidRule)
	case r.Initialize == nil:
		return fmt.Errorf("%w: %s: missing Initialize", ErrInvalidRule, r.Name)
	case len(r.Descriptors) == 0:
		return fmt.Errorf("%w: %s: no descriptors", ErrInvalidRule, r.Name)
	}
	seen := make(map[string]bool, len(r.Descriptors))
	for _, d := range r.Descriptors {
		if d == nil || d.ID == "" || d.MessageFormat == "" {
			return fmt.Errorf("%w: %s: descriptor without id or message", ErrInvalidRule, r.Name)
		}
		if seen[d.ID] {
			return fmt.Errorf("%w: %s: duplicate descriptor %s", ErrInvalidRule, r.Name, d.ID)
		}
		seen[d.ID] = true
	}
	return nil
}

// Supports reports whether r runs on lang.
func (r *Rule) Supports(lang string) bool {
	return len(r.Languages) == 0 || slices.Contains(r.Languages, lang)
}

// Declares reports whether desc is one of r's descriptors.
func (r *Rule) Declares(desc *diagnostic.Descriptor) bool {
	return slices.Contains(r.Descriptors, desc)
}

// Descriptor returns r's descriptor with id.
func (r *Rule) Descriptor(id string) (*diagnostic.Descriptor, bool) {
	for _, d := range r.Descriptors {
		if d.ID == id {
			return d, true
		}
	}
	return nil, false
}

type (
	NodeAction             func(*NodeContext)
	TreeAction             func(*TreeContext)
	CompilationStartAction func(*CompilationStartContext)
	CompilationEndAction   func(*CompilationEndContext)
)

// NodeRegistration is a node action and the kinds it is interested in.
type NodeRegistration struct {
	Kinds  []syntax.Kind
	Action NodeAction
}

// Registrations are the callbacks a rule registered, in registration order.
type Registrations struct {
	Nodes  []NodeRegistration
	Trees  []TreeAction
	Starts []CompilationStartAction
	Ends   []CompilationEndAction
}

// Context is handed to [Rule.Initialize].
type Context struct {
	regs Registrations
}

// RegisterNodeAction calls fn for every node of one of kinds.
func (c *Context) RegisterNodeAction(fn NodeAction, kinds ...syntax.Kind) {
	c.regs.Nodes = append(c.regs.Nodes, NodeRegistration{Kinds: kinds, Action: fn})
}

// RegisterTreeAction calls fn once per document.
func (c *Context) RegisterTreeAction(fn TreeAction) {
	c.regs.Trees = append(c.regs.Trees, fn)
}

// RegisterCompilationStartAction calls fn at the start of every pass, before
// any document is walked.
func (c *Context) RegisterCompilationStartAction(fn CompilationStartAction) {
	c.regs.Starts = append(c.regs.Starts, fn)
}

// Initialize runs r.Initialize and returns what it registered. A panic is
// returned as an error.
func Initialize(r *Rule) (regs Registrations, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %s: Initialize panicked: %v", ErrInvalidRule, r.Name, p)
		}
	}()
	var c Context
	r.Initialize(&c)
	if len(c.regs.Nodes)+len(c.regs.Trees)+len(c.regs.Starts) == 0 {
		return Registrations{}, fmt.Errorf("%w: %s registered no actions", ErrInvalidRule, r.Name)
	}
	return c.regs, nil
}
