// Package codefix defines how fix providers turn one diagnostic into candidate
// edits of a document.
//
// A provider never holds on to the tree a diagnostic was computed against.
// Every [Action] re-locates its target in the document it is applied to,
// which may already carry other edits of the same batch.
package codefix

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/syntax"
	"github.com/spechtlabs/fixkit/workspace"
)

var (
	// ErrNotApplicable reports that a fix cannot be expressed at a site. It is
	// a normal outcome, not a fault.
	ErrNotApplicable = errors.New("codefix: not applicable")

	// ErrUnknownDiagnostic is returned when a provider is asked to fix a
	// diagnostic it does not declare.
	ErrUnknownDiagnostic = errors.New("codefix: unknown diagnostic")

	// ErrNoProvider is returned when no provider handles a diagnostic id.
	ErrNoProvider = errors.New("codefix: no provider")
)

// Mode selects how the fix-all engine batches a provider's fixes.
type Mode uint8

const (
	// ModeTracked tags every site up front and fixes them one by one.
	ModeTracked Mode = iota
	// ModeRequery re-runs diagnosis after each round, for fixes that can
	// expose new instances of the pattern.
	ModeRequery
	// ModeNone opts out of fix-all.
	ModeNone
)

func (m Mode) String() string {
	switch m {
	case ModeTracked:
		return "tracked"
	case ModeRequery:
		return "requery"
	case ModeNone:
		return "none"
	}
	return fmt.Sprintf("Mode(%d)", m)
}

// Request is one diagnostic anchored to a document snapshot.
type Request struct {
	Document *workspace.Document
	// Project contains Document. Providers use it for semantic queries.
	Project    *workspace.Project
	Diagnostic diagnostic.Diagnostic
}

// Provider computes fixes for the diagnostics it declares.
type Provider interface {
	FixableIDs() []string
	ComputeFixes(ctx context.Context, req Request) ([]Action, error)
}

// BatchProvider is implemented by providers that choose their fix-all mode.
// Providers that do not implement it are batched in [ModeTracked].
type BatchProvider interface {
	Provider
	FixAllMode() Mode
}

// ModeOf returns the fix-all mode of p.
func ModeOf(p Provider) Mode {
	if bp, ok := p.(BatchProvider); ok {
		return bp.FixAllMode()
	}
	return ModeTracked
}

// Handles reports whether p declares id.
func Handles(p Provider, id string) bool {
	return slices.Contains(p.FixableIDs(), id)
}

// Action is one named candidate edit.
type Action struct {
	Title string
	// EquivalenceKey groups actions that perform the same kind of fix across
	// sites. Defaults to Title.
	EquivalenceKey string
	// Apply returns the edited document. It must not modify anything but the
	// returned snapshot.
	Apply func(ctx context.Context, doc *workspace.Document) (*workspace.Document, error)
}

// Key returns the action's equivalence key.
func (a Action) Key() string {
	if a.EquivalenceKey != "" {
		return a.EquivalenceKey
	}
	return a.Title
}

// Select returns the action matching key, or the first action when key is
// empty.
func Select(actions []Action, key string) (Action, bool) {
	if len(actions) == 0 {
		return Action{}, false
	}
	if key == "" {
		return actions[0], true
	}
	for _, a := range actions {
		if a.Key() == key {
			return a, true
		}
	}
	return Action{}, false
}

// Locate finds the target of d in the current tree of doc: the outermost node
// of one of kinds whose span equals the diagnostic span. A missing or
// malformed target yields [ErrNotApplicable].
func Locate(doc *workspace.Document, d diagnostic.Diagnostic, kinds ...syntax.Kind) (syntax.Cursor, error) {
	if d.Location.Path != "" && d.Location.Path != doc.Path() {
		return syntax.Cursor{}, fmt.Errorf("%w: diagnostic for %s applied to %s", ErrNotApplicable, d.Location.Path, doc.Path())
	}
	c, ok := doc.Tree().FindNode(d.Location.Span, kinds...)
	if !ok {
		return syntax.Cursor{}, fmt.Errorf("%w: no node at %s", ErrNotApplicable, d.Location.Span)
	}
	if c.Node().Malformed() {
		return syntax.Cursor{}, fmt.Errorf("%w: malformed %s at %s", ErrNotApplicable, c.Kind(), d.Location.Span)
	}
	return c, nil
}

// Rewrite builds the new node for a located target. Returning nil removes the
// target.
type Rewrite func(c syntax.Cursor) (*syntax.Node, error)

// Replace returns an action that locates the diagnostic target by kinds and
// replaces it with the result of fn.
func Replace(title string, d diagnostic.Diagnostic, kinds []syntax.Kind, fn Rewrite) Action {
	return Action{
		Title:          title,
		EquivalenceKey: d.ID,
		Apply: func(ctx context.Context, doc *workspace.Document) (*workspace.Document, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			c, err := Locate(doc, d, kinds...)
			if err != nil {
				return nil, err
			}
			repl, err := fn(c)
			if err != nil {
				return nil, err
			}

			var tree *syntax.Tree
			if repl == nil {
				tree, err = doc.Tree().Remove(c)
			} else {
				tree, err = doc.Tree().Replace(c, repl)
			}
			if err != nil {
				return nil, err
			}
			return doc.WithTree(tree), nil
		},
	}
}

// Fixer is a [BatchProvider] assembled from functions.
type Fixer struct {
	IDs     []string
	Mode    Mode
	Compute func(ctx context.Context, req Request) ([]Action, error)
}

var _ BatchProvider = (*Fixer)(nil)

func (f *Fixer) FixableIDs() []string { return slices.Clone(f.IDs) }
func (f *Fixer) FixAllMode() Mode     { return f.Mode }

func (f *Fixer) ComputeFixes(ctx context.Context, req Request) ([]Action, error) {
	if !slices.Contains(f.IDs, req.Diagnostic.ID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDiagnostic, req.Diagnostic.ID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.Compute(ctx, req)
}
