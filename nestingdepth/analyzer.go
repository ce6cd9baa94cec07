// Package nestingdepth provides a rule that enforces shallow nesting and early returns.
//
// Deeply nested code (indentation hell) makes code hard to read and maintain.
// The rule works on the syntax tree alone, so it runs on Go and C# alike.
package nestingdepth

import (
	"context"
	"fmt"
	"strings"

	"github.com/spechtlabs/fixkit/codefix"
	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/rule"
	"github.com/spechtlabs/fixkit/syntax"
	"github.com/spechtlabs/fixkit/workspace"
)

const Doc = `enforce shallow nesting depth and early returns

This rule detects:
1. Functions with nesting depth > 3
2. Nested if statements that could be combined with &&

Deep nesting (indentation hell) causes:
- Reader fatigue from parsing complex logic
- Difficulty testing all code paths
- Hard to track logical states

Good pattern (early return):
    func GetItem(id string) (Item, error) {
        item, ok := cache.Get(id)
        if !ok {
            return Item{}, ErrNotFound
        }

        if !item.Active {
            return Item{}, ErrInactive
        }

        return item, nil
    }

Bad pattern (deep nesting):
    func GetItem(id string) (Item, error) {
        if item, ok := cache.Get(id); ok {
            if item.Active {
                return item, nil
            } else {
                return Item{}, ErrInactive
            }
        } else {
            return Item{}, ErrNotFound
        }
    }

The fix for nested ifs merges the conditions into the inner statement and
moves its body out by one level.`

// MaxNestingDepth is the maximum allowed nesting depth
const MaxNestingDepth = 3

var (
	DepthDescriptor = &diagnostic.Descriptor{
		ID:               "SL1015",
		Title:            "Deeply nested function",
		MessageFormat:    "function %q has nesting depth of %d (max %d); use early returns to flatten the code",
		Category:         "Maintainability",
		DefaultSeverity:  diagnostic.Warning,
		EnabledByDefault: true,
	}

	NestedIfDescriptor = &diagnostic.Descriptor{
		ID:               "SL1016",
		Title:            "Nested if statements",
		MessageFormat:    "nested if statements could be combined with && operator",
		Category:         "Style",
		DefaultSeverity:  diagnostic.Info,
		EnabledByDefault: true,
	}
)

var Rule = &rule.Rule{
	Name:        "nestingdepth",
	Doc:         Doc,
	Languages:   []string{"go", "csharp"},
	Descriptors: []*diagnostic.Descriptor{DepthDescriptor, NestedIfDescriptor},
	Initialize: func(c *rule.Context) {
		c.RegisterNodeAction(checkDepth, "FuncDecl", "method_declaration", "constructor_declaration")
		c.RegisterNodeAction(checkNestedIf, "IfStmt", "if_statement")
	},
}

// Fixer merges nested ifs. Merging can leave the result nested in another
// reported if, so fix-all re-diagnoses between rounds.
var Fixer = &codefix.Fixer{
	IDs:     []string{NestedIfDescriptor.ID},
	Mode:    codefix.ModeRequery,
	Compute: computeFixes,
}

// nesting lists the statements that open a level.
var nesting = map[syntax.Kind]bool{
	"IfStmt": true, "ForStmt": true, "RangeStmt": true,
	"SwitchStmt": true, "TypeSwitchStmt": true, "SelectStmt": true,

	"if_statement": true, "for_statement": true, "foreach_statement": true,
	"while_statement": true, "do_statement": true, "switch_statement": true,
}

// Function literals are measured on their own.
var closures = map[syntax.Kind]bool{
	"FuncLit":                     true,
	"lambda_expression":           true,
	"anonymous_method_expression": true,
	"local_function_statement":    true,
}

func checkDepth(nc *rule.NodeContext) {
	fn := nc.Node()
	depth := maxDepth(fn, 0)
	if depth <= MaxNestingDepth {
		return
	}
	name := string(fn.Kind())
	if sym, ok := nc.Semantic().DeclaredSymbol(fn); ok {
		name = sym.Name()
	}
	nc.ReportAt(DepthDescriptor, fn, name, depth, MaxNestingDepth)
}

func maxDepth(c syntax.Cursor, depth int) int {
	deepest := depth
	for ch := range c.Significant() {
		switch {
		case closures[ch.Kind()]:
			continue
		case nesting[ch.Kind()] && !isElseIf(c, ch):
			deepest = max(deepest, maxDepth(ch, depth+1))
		default:
			deepest = max(deepest, maxDepth(ch, depth))
		}
	}
	return deepest
}

// isElseIf reports whether ch is the else branch of the if statement parent.
func isElseIf(parent, ch syntax.Cursor) bool {
	if parent.Kind() != ch.Kind() {
		return false
	}
	var prev syntax.Cursor
	for k := range parent.Significant() {
		if k.Node() == ch.Node() && k.Span() == ch.Span() {
			return prev.Valid() && prev.Text() == "else"
		}
		prev = k
	}
	return false
}

// ifParts splits an if statement without init or else into its condition and
// body.
func ifParts(c syntax.Cursor) (cond, body syntax.Cursor, ok bool) {
	kids := c.SignificantChildren()
	switch {
	case c.Kind() == "IfStmt" && len(kids) == 3:
		cond, body = kids[1], kids[2]
	case c.Kind() == "if_statement" && len(kids) == 5 && kids[1].Text() == "(":
		cond, body = kids[2], kids[4]
	default:
		return syntax.Cursor{}, syntax.Cursor{}, false
	}
	return cond, body, true
}

// soleIf returns the only statement of block when it is an if statement
// without init or else.
func soleIf(block syntax.Cursor) (syntax.Cursor, bool) {
	if block.Kind() != "BlockStmt" && block.Kind() != "block" {
		return syntax.Cursor{}, false
	}
	kids := block.SignificantChildren()
	if len(kids) != 3 || kids[0].Text() != "{" || kids[2].Text() != "}" {
		return syntax.Cursor{}, false
	}
	inner := kids[1]
	if inner.Kind() != "IfStmt" && inner.Kind() != "if_statement" {
		return syntax.Cursor{}, false
	}
	if _, _, ok := ifParts(inner); !ok {
		return syntax.Cursor{}, false
	}
	// Comments around the inner statement would be lost.
	for cur := range block.Preorder() {
		if cur.Kind() == syntax.KindComment && !inner.Span().Contains(cur.Span()) {
			return syntax.Cursor{}, false
		}
	}
	return inner, true
}

// nested returns the inner if of outer when the two can be merged.
func nested(outer syntax.Cursor) (syntax.Cursor, bool) {
	_, body, ok := ifParts(outer)
	if !ok {
		return syntax.Cursor{}, false
	}
	return soleIf(body)
}

func checkNestedIf(nc *rule.NodeContext) {
	if inner, ok := nested(nc.Node()); ok {
		nc.ReportAt(NestedIfDescriptor, inner)
	}
}

func computeFixes(_ context.Context, req codefix.Request) ([]codefix.Action, error) {
	d := req.Diagnostic
	return []codefix.Action{{
		Title:          "Combine nested if statements",
		EquivalenceKey: d.ID,
		Apply: func(ctx context.Context, doc *workspace.Document) (*workspace.Document, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			inner, err := codefix.Locate(doc, d, "IfStmt", "if_statement")
			if err != nil {
				return nil, err
			}
			outer, ok := outerIf(inner)
			if !ok {
				return nil, fmt.Errorf("%w: no enclosing if", codefix.ErrNotApplicable)
			}
			if got, ok := nested(outer); !ok || got.Span() != inner.Span() {
				return nil, fmt.Errorf("%w: ifs cannot be merged", codefix.ErrNotApplicable)
			}
			tree, err := doc.Tree().Replace(outer, merge(doc.Text(), outer, inner))
			if err != nil {
				return nil, err
			}
			return doc.WithTree(tree), nil
		},
	}}, nil
}

func outerIf(inner syntax.Cursor) (syntax.Cursor, bool) {
	block, ok := inner.Parent()
	if !ok {
		return syntax.Cursor{}, false
	}
	outer, ok := block.Parent()
	return outer, ok && outer.Kind() == inner.Kind()
}

// merge builds the inner if with both conditions, dedented to the outer's
// indentation. The result keeps the outer node's annotations so that sites
// tracked on it survive the edit.
func merge(text string, outer, inner syntax.Cursor) *syntax.Node {
	outerCond, _, _ := ifParts(outer)
	innerCond, _, _ := ifParts(inner)

	binary, paren := syntax.Kind("BinaryExpr"), syntax.Kind("ParenExpr")
	if inner.Kind() == "if_statement" {
		binary, paren = "binary_expression", "parenthesized_expression"
	}
	cond := syntax.NewNode(binary,
		operand(outerCond, paren),
		syntax.NewTrivia(" "),
		syntax.NewToken(syntax.KindToken, "&&"),
		syntax.NewTrivia(" "),
		operand(innerCond, paren),
	)

	kids := inner.Node().Children()
	kids[innerCond.Index()] = cond
	merged := inner.Node().WithChildren(kids...).WithAnnotations(outer.Node().Annotations()...)

	extra := strings.TrimPrefix(indent(text, inner.Span().Start), indent(text, outer.Span().Start))
	if extra == "" {
		return merged
	}
	return dedent(merged, extra)
}

// dedent removes extra from the start of every line break in n's whitespace.
func dedent(n *syntax.Node, extra string) *syntax.Node {
	if n.IsLeaf() {
		if n.Kind() == syntax.KindTrivia && strings.Contains(n.Text(), "\n"+extra) {
			return syntax.NewTrivia(strings.ReplaceAll(n.Text(), "\n"+extra, "\n"))
		}
		return n
	}
	kids := n.Children()
	for i, k := range kids {
		kids[i] = dedent(k, extra)
	}
	return n.WithChildren(kids...)
}

// indent returns the whitespace that starts the line containing offset.
func indent(text string, offset int) string {
	start := strings.LastIndexByte(text[:offset], '\n') + 1
	line := text[start:offset]
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// operand returns cond, parenthesized when it binds looser than &&.
func operand(cond syntax.Cursor, paren syntax.Kind) *syntax.Node {
	wrap := false
	switch cond.Kind() {
	case "conditional_expression", "assignment_expression", "lambda_expression":
		wrap = true
	case "BinaryExpr", "binary_expression":
		kids := cond.SignificantChildren()
		if len(kids) < 3 {
			break
		}
		var op strings.Builder
		for _, k := range kids[1 : len(kids)-1] {
			if k.Node().IsLeaf() {
				op.WriteString(k.Text())
			}
		}
		wrap = op.String() == "||" || op.String() == "??"
	}
	if !wrap {
		return cond.Node()
	}
	return syntax.NewNode(paren,
		syntax.NewToken(syntax.KindToken, "("),
		cond.Node(),
		syntax.NewToken(syntax.KindToken, ")"),
	)
}
