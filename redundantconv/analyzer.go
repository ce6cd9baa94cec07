// Package redundantconv provides a rule that detects conversions of a value
// to the type it already has.
//
// The fix is checked before it is offered: the rewritten file is compiled
// together with the rest of its package, and the edit is only kept when the
// unwrapped operand has the same type and no new compiler errors appear.
package redundantconv

import (
	"context"
	"fmt"
	"go/types"

	"github.com/spechtlabs/fixkit/codefix"
	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/host"
	"github.com/spechtlabs/fixkit/host/golang"
	"github.com/spechtlabs/fixkit/rule"
	"github.com/spechtlabs/fixkit/syntax"
	"github.com/spechtlabs/fixkit/workspace"
)

const Doc = `detect redundant type conversions

Converting a value to its own type does nothing:

    func scale(d time.Duration) time.Duration {
        return time.Duration(d) * 2 // use: d * 2
    }

Conversions of constants are not reported, since they fix the type of an
otherwise untyped value.`

// Descriptor is reported at the conversion expression.
var Descriptor = &diagnostic.Descriptor{
	ID:               "SL1004",
	Title:            "Redundant type conversion",
	MessageFormat:    "conversion to %s is redundant",
	Category:         "Style",
	DefaultSeverity:  diagnostic.Info,
	EnabledByDefault: true,
}

var Rule = &rule.Rule{
	Name:        "redundantconv",
	Doc:         Doc,
	Languages:   []string{"go"},
	Descriptors: []*diagnostic.Descriptor{Descriptor},
	Initialize: func(c *rule.Context) {
		c.RegisterNodeAction(check, callExpr)
	},
}

var Fixer = &codefix.Fixer{
	IDs:     []string{Descriptor.ID},
	Mode:    codefix.ModeTracked,
	Compute: computeFixes,
}

const callExpr syntax.Kind = "CallExpr"

// conversion splits T(x) into T and x. Calls with more than one argument or
// a trailing ellipsis do not match.
func conversion(c syntax.Cursor) (fun, arg syntax.Cursor, ok bool) {
	var nodes []syntax.Cursor
	for ch := range c.Significant() {
		switch {
		case !ch.Node().IsLeaf():
			nodes = append(nodes, ch)
		case ch.Text() == "...":
			return syntax.Cursor{}, syntax.Cursor{}, false
		}
	}
	if len(nodes) != 2 {
		return syntax.Cursor{}, syntax.Cursor{}, false
	}
	return nodes[0], nodes[1], true
}

func redundant(o host.Oracle, c syntax.Cursor) (host.Type, bool) {
	fun, arg, ok := conversion(c)
	if !ok {
		return nil, false
	}
	sym, ok := o.SymbolOf(fun)
	if !ok || sym.Kind() != host.SymbolType {
		return nil, false
	}
	if _, constant := golang.Value(o, arg); constant {
		return nil, false
	}
	to, ok := o.TypeOf(c)
	if !ok {
		return nil, false
	}
	from, ok := o.TypeOf(arg)
	if !ok || !to.Identical(from) {
		return nil, false
	}
	return to, true
}

func check(nc *rule.NodeContext) {
	typ, ok := redundant(nc.Semantic(), nc.Node())
	if !ok {
		return
	}
	nc.ReportAt(Descriptor, nc.Node(), typ.String())
}

func computeFixes(_ context.Context, req codefix.Request) ([]codefix.Action, error) {
	d := req.Diagnostic
	project := req.Project
	return []codefix.Action{{
		Title:          "Remove redundant conversion",
		EquivalenceKey: d.ID,
		Apply: func(ctx context.Context, doc *workspace.Document) (*workspace.Document, error) {
			c, err := codefix.Locate(doc, d, callExpr)
			if err != nil {
				return nil, err
			}
			_, arg, ok := conversion(c)
			if !ok {
				return nil, codefix.ErrNotApplicable
			}
			tree, err := doc.Tree().Replace(c, arg.Node())
			if err != nil {
				return nil, err
			}
			fixed := doc.WithTree(tree)
			operand := syntax.Span{Start: c.Span().Start, Length: arg.Span().Length}
			if err := verify(ctx, project, doc, fixed, c, operand); err != nil {
				return nil, err
			}
			return fixed, nil
		},
	}}, nil
}

// verify compiles the package before and after the edit. The unwrapped
// operand must keep the conversion's type and the edit must not add
// compiler errors.
func verify(ctx context.Context, project *workspace.Project, before, after *workspace.Document, call syntax.Cursor, operand syntax.Span) error {
	if project == nil {
		return fmt.Errorf("%w: no project to verify against", codefix.ErrNotApplicable)
	}
	if p, err := project.WithDocument(before); err == nil {
		project = p
	}
	base, err := project.Compilation(ctx)
	if err != nil {
		return err
	}
	want, ok := base.Oracle(before.Path()).TypeOf(call)
	if !ok {
		return fmt.Errorf("%w: conversion no longer typed", codefix.ErrNotApplicable)
	}

	reparsed, err := after.WithText(ctx, after.Text())
	if err != nil {
		return fmt.Errorf("%w: %w", codefix.ErrNotApplicable, err)
	}
	speculative, err := project.WithDocument(reparsed)
	if err != nil {
		return err
	}
	comp, err := speculative.Compilation(ctx)
	if err != nil {
		return err
	}
	if len(comp.Problems()) > len(base.Problems()) {
		return fmt.Errorf("%w: edit introduces compiler errors", codefix.ErrNotApplicable)
	}

	n, ok := reparsed.Tree().FindNode(operand)
	if !ok {
		return fmt.Errorf("%w: operand not found after edit", codefix.ErrNotApplicable)
	}
	got, ok := comp.Oracle(reparsed.Path()).TypeOf(n)
	if !ok || !sameType(got, want) {
		return fmt.Errorf("%w: operand type changes", codefix.ErrNotApplicable)
	}
	return nil
}

// sameType compares types from two separate type-checks. Each check declares
// its own named types, so they are compared by package-qualified name.
func sameType(a, b host.Type) bool {
	x, okx := golang.Type(a)
	y, oky := golang.Type(b)
	if !okx || !oky {
		return a.Identical(b)
	}
	return types.TypeString(x, nil) == types.TypeString(y, nil)
}
