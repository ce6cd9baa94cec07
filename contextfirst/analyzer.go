// Package contextfirst ensures context.Context is always the first parameter.
//
// This is a Go convention that makes code consistent and easier to read.
// Context should flow through the entire call chain as the first argument.
package contextfirst

import (
	"go/ast"
	"go/types"
	"strings"

	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/host"
	"github.com/spechtlabs/fixkit/host/golang"
	"github.com/spechtlabs/fixkit/rule"
)

const Doc = `ensure context.Context is always the first parameter

Go convention dictates that context.Context should be the first parameter
when a function accepts one. This makes the context flow obvious and consistent.

Good:
    func ProcessRequest(ctx context.Context, req *Request) error
    func (s *Service) Handle(ctx context.Context, id string) (*Result, error)

Bad:
    func ProcessRequest(req *Request, ctx context.Context) error
    func (s *Service) Handle(id string, ctx context.Context) (*Result, error)

Reference: https://go.dev/blog/context#package-context`

var Descriptor = &diagnostic.Descriptor{
	ID:               "SL1006",
	Title:            "Context is not the first parameter",
	MessageFormat:    "context.Context should be the first parameter in %s, not parameter %d",
	Category:         "Design",
	DefaultSeverity:  diagnostic.Warning,
	EnabledByDefault: true,
	HelpURL:          "https://go.dev/blog/context#package-context",
}

var Rule = &rule.Rule{
	Name:        "contextfirst",
	Doc:         Doc,
	Languages:   []string{"go"},
	Descriptors: []*diagnostic.Descriptor{Descriptor},
	Initialize: func(c *rule.Context) {
		c.RegisterNodeAction(check, "FuncDecl", "FuncLit")
	},
}

func check(nc *rule.NodeContext) {
	o := nc.Semantic()
	n, ok := golang.Node(o, nc.Node())
	if !ok {
		return
	}

	var params *ast.FieldList
	var name string
	switch node := n.(type) {
	case *ast.FuncDecl:
		params = node.Type.Params
		name = node.Name.Name
	case *ast.FuncLit:
		params = node.Type.Params
		name = "anonymous function"
	}

	if params == nil || len(params.List) < 2 {
		return
	}

	ctxPos := -1
	for i, field := range params.List {
		if isContextType(o, nc, field.Type) {
			ctxPos = i
			break
		}
	}
	if ctxPos > 0 {
		nc.ReportAt(Descriptor, nc.Node(), name, ctxPos+1)
	}
}

// isContextType prefers the checked type and falls back to the spelling when
// the package did not type-check.
func isContextType(o host.Oracle, nc *rule.NodeContext, expr ast.Expr) bool {
	for c := range nc.Node().Preorder() {
		n, ok := golang.Node(o, c)
		if !ok || n != ast.Node(expr) {
			continue
		}
		t, ok := o.TypeOf(c)
		if !ok {
			break
		}
		gt, ok := golang.Type(t)
		if !ok {
			break
		}
		named, ok := gt.(*types.Named)
		if !ok {
			return false
		}
		obj := named.Obj()
		return obj.Pkg() != nil && obj.Pkg().Path() == "context" && obj.Name() == "Context"
	}
	typeStr := types.ExprString(expr)
	return typeStr == "context.Context" || strings.HasSuffix(typeStr, ".Context")
}
