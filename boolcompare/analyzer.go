// Package boolcompare provides a rule that detects comparisons against boolean
// literals.
//
// Comparing a boolean against true or false adds noise without changing the
// result. The fix rewrites the comparison to the operand itself or its
// negation.
package boolcompare

import (
	"context"
	"go/types"

	"github.com/spechtlabs/fixkit/codefix"
	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/host"
	"github.com/spechtlabs/fixkit/host/golang"
	"github.com/spechtlabs/fixkit/rule"
	"github.com/spechtlabs/fixkit/syntax"
)

const Doc = `detect comparisons against boolean literals

Comparing a boolean expression with true or false is redundant:

    if ok == true { ... }   // use: if ok { ... }
    if done != true { ... } // use: if !done { ... }
    if false == x { ... }   // use: if !x { ... }

Only operands of type bool are reported. A comparison yields an untyped
bool, so rewriting one with a named boolean operand would change the
expression's type; those comparisons and comparisons of interfaces holding
true are left alone.`

const (
	propOperand = "operand"
	propNegate  = "negate"

	operandLeft  = "left"
	operandRight = "right"
)

const binaryExpr syntax.Kind = "BinaryExpr"

// Descriptor is reported for every redundant comparison.
var Descriptor = &diagnostic.Descriptor{
	ID:               "SL1001",
	Title:            "Redundant comparison with boolean literal",
	MessageFormat:    "comparison with %s is redundant; use the operand directly",
	Category:         "Style",
	DefaultSeverity:  diagnostic.Warning,
	EnabledByDefault: true,
}

var Rule = &rule.Rule{
	Name:        "boolcompare",
	Doc:         Doc,
	Languages:   []string{"go"},
	Descriptors: []*diagnostic.Descriptor{Descriptor},
	Initialize: func(c *rule.Context) {
		c.RegisterNodeAction(check, binaryExpr)
	},
}

// Fixer rewrites reported comparisons. Sites are independent, so fix-all
// tracks them in one pass.
var Fixer = &codefix.Fixer{
	IDs:     []string{Descriptor.ID},
	Mode:    codefix.ModeTracked,
	Compute: computeFixes,
}

// comparison splits a binary expression into its operands and operator.
type comparison struct {
	left, right syntax.Cursor
	op          string
}

func split(c syntax.Cursor) (comparison, bool) {
	kids := c.SignificantChildren()
	if len(kids) != 3 || !kids[1].Node().IsLeaf() {
		return comparison{}, false
	}
	cmp := comparison{left: kids[0], op: kids[1].Text(), right: kids[2]}
	return cmp, cmp.op == "==" || cmp.op == "!="
}

func literal(c syntax.Cursor) (string, bool) {
	if c.Kind() != "Ident" {
		return "", false
	}
	switch t := c.Text(); t {
	case "true", "false":
		return t, true
	}
	return "", false
}

// universal reports whether the identifier at c is the predeclared constant
// and not a shadowing declaration.
func universal(o host.Oracle, c syntax.Cursor) bool {
	sym, ok := o.SymbolOf(c)
	if !ok {
		return false
	}
	obj, ok := golang.Object(sym)
	return ok && obj.Parent() == types.Universe
}

func check(nc *rule.NodeContext) {
	cmp, ok := split(nc.Node())
	if !ok {
		return
	}
	o := nc.Semantic()

	lit, side, other := "", "", syntax.Cursor{}
	if t, ok := literal(cmp.right); ok && universal(o, cmp.right) {
		lit, side, other = t, operandLeft, cmp.left
	} else if t, ok := literal(cmp.left); ok && universal(o, cmp.left) {
		lit, side, other = t, operandRight, cmp.right
	} else {
		return
	}

	typ, ok := o.TypeOf(other)
	if !ok || !plainBool(typ) {
		return
	}

	// x == true and x != false keep x; the other two negate it.
	negate := (cmp.op == "==") != (lit == "true")
	d := diagnostic.New(Descriptor, nc.Location(nc.Node()), lit).
		WithProperty(propOperand, side).
		WithProperty(propNegate, boolString(negate))
	nc.Report(d)
}

// plainBool reports whether t is bool or untyped bool, so that the operand
// can stand in for the comparison in any context.
func plainBool(t host.Type) bool {
	gt, ok := golang.Type(t)
	if !ok {
		return false
	}
	b, ok := types.Unalias(gt).(*types.Basic)
	return ok && (b.Kind() == types.Bool || b.Kind() == types.UntypedBool)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func computeFixes(_ context.Context, req codefix.Request) ([]codefix.Action, error) {
	d := req.Diagnostic
	side, _ := d.Property(propOperand)
	negateProp, _ := d.Property(propNegate)
	negate := negateProp == "true"

	title := "Remove comparison with boolean literal"
	if negate {
		title = "Negate operand instead of comparing with boolean literal"
	}

	rewrite := func(c syntax.Cursor) (*syntax.Node, error) {
		cmp, ok := split(c)
		if !ok {
			return nil, codefix.ErrNotApplicable
		}
		lit, other := cmp.right, cmp.left
		if side == operandRight {
			lit, other = cmp.left, cmp.right
		}
		if _, ok := literal(lit); !ok {
			return nil, codefix.ErrNotApplicable
		}
		if !negate {
			return other.Node(), nil
		}
		return not(other), nil
	}
	return []codefix.Action{codefix.Replace(title, d, []syntax.Kind{binaryExpr}, rewrite)}, nil
}

// not builds !x, parenthesizing operands that bind looser than a unary
// operator.
func not(x syntax.Cursor) *syntax.Node {
	operand := x.Node()
	switch x.Kind() {
	case "Ident", "SelectorExpr", "CallExpr", "ParenExpr", "IndexExpr", "IndexListExpr", "TypeAssertExpr", "StarExpr", "UnaryExpr":
	default:
		operand = syntax.NewNode("ParenExpr",
			syntax.NewToken(syntax.KindToken, "("),
			operand,
			syntax.NewToken(syntax.KindToken, ")"),
		)
	}
	return syntax.NewNode("UnaryExpr", syntax.NewToken(syntax.KindToken, "!"), operand)
}
