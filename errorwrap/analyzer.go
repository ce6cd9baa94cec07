// Package errorwrap provides a rule that detects bare error returns
// without proper context wrapping.
package errorwrap

import (
	"context"
	"go/ast"
	"go/types"
	"strconv"
	"strings"

	"github.com/spechtlabs/fixkit/codefix"
	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/host"
	"github.com/spechtlabs/fixkit/host/golang"
	"github.com/spechtlabs/fixkit/rule"
	"github.com/spechtlabs/fixkit/syntax"
)

const Doc = `detect bare error returns without context

This rule detects:
1. Returning err directly without wrapping (return err)
2. Error returns in functions with multiple operations where context is lost
3. Error variables returned without adding context about what failed

Errors should be wrapped with context to create a clear error chain:
  return fmt.Errorf("failed to create user: %w", err)

Bare error returns make debugging difficult because you lose the stack context.
When the file imports fmt, the fix wraps the error with the function name.`

var Descriptor = &diagnostic.Descriptor{
	ID:               "SL1014",
	Title:            "Bare error return",
	MessageFormat:    "returning error %q without wrapping; add context with fmt.Errorf(\"operation: %%w\", %s)",
	Category:         "Reliability",
	DefaultSeverity:  diagnostic.Info,
	EnabledByDefault: true,
}

var Rule = &rule.Rule{
	Name:        "errorwrap",
	Doc:         Doc,
	Languages:   []string{"go"},
	Descriptors: []*diagnostic.Descriptor{Descriptor},
	Initialize: func(c *rule.Context) {
		c.RegisterNodeAction(check, "FuncDecl")
	},
}

// Fixer wraps reported identifiers in fmt.Errorf.
var Fixer = &codefix.Fixer{
	IDs:     []string{Descriptor.ID},
	Mode:    codefix.ModeTracked,
	Compute: computeFixes,
}

const (
	propOperation = "operation"
	propFmt       = "fmt"
)

var errorType = types.Universe.Lookup("error").Type().Underlying().(*types.Interface)

func check(nc *rule.NodeContext) {
	o := nc.Semantic()
	n, _ := golang.Node(o, nc.Node())
	fn, ok := n.(*ast.FuncDecl)
	if !ok || fn.Body == nil {
		return
	}

	// Skip test functions
	if strings.HasPrefix(fn.Name.Name, "Test") {
		return
	}

	// Skip very simple functions (1-2 statements)
	if len(fn.Body.List) <= 2 || !hasMultipleOperations(fn) {
		return
	}

	wrapped := make(map[string]bool)
	var bare []*ast.Ident
	ast.Inspect(fn.Body, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.FuncLit:
			return false
		case *ast.AssignStmt:
			// err = fmt.Errorf("...: %w", err)
			for i, rhs := range node.Rhs {
				call, ok := rhs.(*ast.CallExpr)
				if !ok || !isErrorWrap(call) || i >= len(node.Lhs) {
					continue
				}
				if ident, ok := node.Lhs[i].(*ast.Ident); ok {
					wrapped[ident.Name] = true
				}
			}
		case *ast.ReturnStmt:
			for _, result := range node.Results {
				if ident, ok := result.(*ast.Ident); ok && ident.Name != "nil" {
					bare = append(bare, ident)
				}
			}
		}
		return true
	})

	fmtImported := importsFmt(o, nc.Tree())
	for _, ident := range bare {
		if wrapped[ident.Name] {
			continue
		}
		at, ok := find(o, nc.Node(), ident)
		if !ok || !isError(o, at, ident.Name) {
			continue
		}
		d := diagnostic.New(Descriptor, nc.Location(at), ident.Name, ident.Name).
			WithProperty(propOperation, fn.Name.Name).
			WithProperty(propFmt, strconv.FormatBool(fmtImported))
		nc.Report(d)
	}
}

// isError uses the identifier's type when known and falls back to the usual
// error variable names.
func isError(o host.Oracle, c syntax.Cursor, name string) bool {
	if t, ok := o.TypeOf(c); ok {
		if gt, ok := golang.Type(t); ok {
			return types.Implements(gt, errorType)
		}
	}
	return name == "err" || strings.HasSuffix(name, "Err") || strings.HasSuffix(name, "Error")
}

func isErrorWrap(call *ast.CallExpr) bool {
	var name string
	switch fn := call.Fun.(type) {
	case *ast.SelectorExpr:
		name = fn.Sel.Name
	case *ast.Ident:
		name = fn.Name
	default:
		return false
	}

	switch name {
	case "Errorf":
		if len(call.Args) == 0 {
			return false
		}
		lit, ok := call.Args[0].(*ast.BasicLit)
		return ok && strings.Contains(lit.Value, "%w")
	case "Wrap", "Wrapf", "WithMessage":
		return true
	}
	return false
}

func hasMultipleOperations(fn *ast.FuncDecl) bool {
	// Count meaningful statements (excluding just returns and error checks)
	meaningful := 0
	ast.Inspect(fn.Body, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.CallExpr:
			meaningful++
		case *ast.AssignStmt:
			if len(node.Lhs) > 1 || !isErrorIdent(node.Lhs[0]) {
				meaningful++
			}
		}
		return meaningful < 3
	})
	return meaningful >= 2
}

func isErrorIdent(expr ast.Expr) bool {
	ident, ok := expr.(*ast.Ident)
	if !ok {
		return false
	}
	return ident.Name == "err" || strings.HasSuffix(ident.Name, "Err")
}

func importsFmt(o host.Oracle, tree *syntax.Tree) bool {
	for cur := range tree.Preorder() {
		if cur.Kind() != "ImportSpec" {
			continue
		}
		n, _ := golang.Node(o, cur)
		spec, ok := n.(*ast.ImportSpec)
		if ok && spec.Path.Value == `"fmt"` && (spec.Name == nil || spec.Name.Name == "fmt") {
			return true
		}
	}
	return false
}

func find(o host.Oracle, root syntax.Cursor, n ast.Node) (syntax.Cursor, bool) {
	for cur := range root.Preorder() {
		if m, ok := golang.Node(o, cur); ok && m == n {
			return cur, true
		}
	}
	return syntax.Cursor{}, false
}

func computeFixes(_ context.Context, req codefix.Request) ([]codefix.Action, error) {
	d := req.Diagnostic
	if v, _ := d.Property(propFmt); v != "true" {
		return nil, nil
	}
	op, _ := d.Property(propOperation)

	rewrite := func(c syntax.Cursor) (*syntax.Node, error) {
		return wrap(op, c.Node()), nil
	}
	return []codefix.Action{codefix.Replace("Wrap error with fmt.Errorf", d, []syntax.Kind{"Ident"}, rewrite)}, nil
}

// wrap builds fmt.Errorf("op: %w", err).
func wrap(op string, err *syntax.Node) *syntax.Node {
	return syntax.NewNode("CallExpr",
		syntax.NewNode("SelectorExpr",
			syntax.NewNode("Ident", syntax.NewToken(syntax.KindToken, "fmt")),
			syntax.NewToken(syntax.KindToken, "."),
			syntax.NewNode("Ident", syntax.NewToken(syntax.KindToken, "Errorf")),
		),
		syntax.NewToken(syntax.KindToken, "("),
		syntax.NewNode("BasicLit", syntax.NewToken(syntax.KindToken, strconv.Quote(op+": %w"))),
		syntax.NewToken(syntax.KindToken, ","),
		syntax.NewTrivia(" "),
		err,
		syntax.NewToken(syntax.KindToken, ")"),
	)
}
