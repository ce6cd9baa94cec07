// Package emptyblock provides a rule that detects if statements with an empty
// body and no else branch.
//
// Such statements do nothing unless their condition has side effects. The fix
// removes them. Removing one can leave its enclosing if empty in turn, so
// fix-all re-runs the rule after every round.
package emptyblock

import (
	"context"
	"fmt"
	"go/types"
	"slices"

	"github.com/spechtlabs/fixkit/codefix"
	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/host"
	"github.com/spechtlabs/fixkit/host/golang"
	"github.com/spechtlabs/fixkit/rule"
	"github.com/spechtlabs/fixkit/syntax"
	"github.com/spechtlabs/fixkit/workspace"
)

const Doc = `detect if statements with an empty body

An if statement without else whose body is empty has no effect unless its
condition does:

    if ready {
    }

Conditions that call functions, receive from channels, assign or
construct objects are left alone. A comment in the body counts as content.
The fix is not applied when the condition holds the last read of a local
variable, since removing it would leave the variable unused.`

// Descriptor is reported at every removable if statement.
var Descriptor = &diagnostic.Descriptor{
	ID:               "SL1002",
	Title:            "Empty if statement",
	MessageFormat:    "if statement has an empty body; remove it",
	Category:         "Style",
	DefaultSeverity:  diagnostic.Warning,
	EnabledByDefault: true,
}

var Rule = &rule.Rule{
	Name:        "emptyblock",
	Doc:         Doc,
	Languages:   []string{"go", "csharp"},
	Descriptors: []*diagnostic.Descriptor{Descriptor},
	Initialize: func(c *rule.Context) {
		c.RegisterNodeAction(check, goIf, csIf)
	},
}

var Fixer = &codefix.Fixer{
	IDs:     []string{Descriptor.ID},
	Mode:    codefix.ModeRequery,
	Compute: computeFixes,
}

const (
	goIf syntax.Kind = "IfStmt"
	csIf syntax.Kind = "if_statement"
)

// grammar holds the kinds one language uses for the shapes the rule inspects.
type grammar struct {
	block      syntax.Kind
	containers []syntax.Kind
	effects    []syntax.Kind
	// unary is the kind of prefix operator expressions; unaryOps are the
	// operators among them with an effect.
	unary    syntax.Kind
	unaryOps []string
}

var grammars = map[syntax.Kind]grammar{
	goIf: {
		block:      "BlockStmt",
		containers: []syntax.Kind{"BlockStmt", "CaseClause", "CommClause"},
		effects:    []syntax.Kind{"CallExpr"},
		unary:      "UnaryExpr",
		unaryOps:   []string{"<-"},
	},
	csIf: {
		block:      "block",
		containers: []syntax.Kind{"block", "switch_section"},
		effects: []syntax.Kind{
			"invocation_expression",
			"assignment_expression",
			"object_creation_expression",
			"implicit_object_creation_expression",
			"await_expression",
			"postfix_unary_expression",
		},
		unary:    "prefix_unary_expression",
		unaryOps: []string{"++", "--"},
	},
}

// emptyIf returns the condition of an if without init, else or body content.
func emptyIf(c syntax.Cursor) (syntax.Cursor, grammar, bool) {
	g, ok := grammars[c.Kind()]
	if !ok {
		return syntax.Cursor{}, grammar{}, false
	}

	var nodes []syntax.Cursor
	for ch := range c.Significant() {
		if !ch.Node().IsLeaf() {
			nodes = append(nodes, ch)
		}
	}
	if len(nodes) != 2 || nodes[1].Kind() != g.block || !emptyBlock(nodes[1]) {
		return syntax.Cursor{}, grammar{}, false
	}

	parent, ok := c.Parent()
	if !ok || !slices.Contains(g.containers, parent.Kind()) {
		return syntax.Cursor{}, grammar{}, false
	}
	return nodes[0], g, true
}

func emptyBlock(b syntax.Cursor) bool {
	for ch := range b.Children() {
		switch {
		case ch.Kind() == syntax.KindTrivia:
		case ch.Kind() == syntax.KindToken && (ch.Text() == "{" || ch.Text() == "}"):
		default:
			return false
		}
	}
	return true
}

// pure reports whether evaluating cond has no visible effect.
func pure(cond syntax.Cursor, g grammar, o host.Oracle) bool {
	clean := true
	cond.Inspect(func(n syntax.Cursor) bool {
		if !clean {
			return false
		}
		switch {
		case slices.Contains(g.effects, n.Kind()):
			clean = false
		case n.Kind() == g.unary:
			for tok := range n.Tokens() {
				clean = !slices.Contains(g.unaryOps, tok.Text())
				break
			}
		}
		return clean
	})
	if !clean {
		return false
	}
	if df, ok := o.AnalyzeDataFlow(cond.Span()); ok && len(df.Written) > 0 {
		return false
	}
	return true
}

func check(nc *rule.NodeContext) {
	cond, g, ok := emptyIf(nc.Node())
	if !ok || !pure(cond, g, nc.Semantic()) {
		return
	}
	nc.ReportAt(Descriptor, nc.Node())
}

func computeFixes(_ context.Context, req codefix.Request) ([]codefix.Action, error) {
	d := req.Diagnostic
	project := req.Project
	return []codefix.Action{{
		Title:          "Remove empty if statement",
		EquivalenceKey: d.ID,
		Apply: func(ctx context.Context, doc *workspace.Document) (*workspace.Document, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			c, err := codefix.Locate(doc, d, goIf, csIf)
			if err != nil {
				return nil, err
			}
			cond, _, ok := emptyIf(c)
			if !ok {
				return nil, codefix.ErrNotApplicable
			}
			if err := keepsReads(ctx, project, doc, c.Span(), cond.Span()); err != nil {
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

// keepsReads fails when a local variable read in cond has no use outside
// stmt. The check runs on a fresh compilation of doc, so it sees the edits of
// earlier sites.
func keepsReads(ctx context.Context, project *workspace.Project, doc *workspace.Document, stmt, cond syntax.Span) error {
	if project == nil {
		return nil
	}
	reparsed, err := doc.WithText(ctx, doc.Text())
	if err != nil {
		return fmt.Errorf("%w: %w", codefix.ErrNotApplicable, err)
	}
	p, err := project.WithDocument(reparsed)
	if err != nil {
		return err
	}
	comp, err := p.Compilation(ctx)
	if err != nil {
		return err
	}
	o := comp.Oracle(reparsed.Path())
	df, ok := o.AnalyzeDataFlow(cond)
	if !ok {
		return nil
	}
	for _, sym := range df.Read {
		if !local(sym) {
			continue
		}
		outside := slices.ContainsFunc(o.References(sym), func(l host.Location) bool {
			return l.Path != doc.Path() || !stmt.Contains(l.Span)
		})
		if !outside {
			return fmt.Errorf("%w: last use of %s", codefix.ErrNotApplicable, sym.Name())
		}
	}
	return nil
}

// local reports whether sym is a variable declared inside a function body.
// Unused parameters and package variables compile, so they do not block the
// removal.
func local(sym host.Symbol) bool {
	obj, ok := golang.Object(sym)
	if !ok {
		return false
	}
	v, ok := obj.(*types.Var)
	return ok && v.Kind() == types.LocalVar
}

// remove drops the statement at c together with the whitespace before it, so
// no blank line is left behind.
func remove(tree *syntax.Tree, c syntax.Cursor) (*syntax.Tree, error) {
	parent, _ := c.Parent()
	idx := c.Index()

	kids := parent.Node().Children()
	from := idx
	if from > 0 && kids[from-1].Kind() == syntax.KindTrivia {
		from--
	}
	out := append(kids[:from:from], kids[idx+1:]...)
	return tree.Replace(parent, parent.Node().WithChildren(out...))
}
