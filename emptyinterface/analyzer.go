// Package emptyinterface provides a rule that detects problematic uses of interface{}/any.
//
// The empty interface (interface{} or any) bypasses Go's type system.
// While sometimes necessary, it should be used sparingly and wrapped with type-safe APIs.
package emptyinterface

import (
	"context"
	"go/ast"
	"go/types"
	"strings"

	"github.com/spechtlabs/fixkit/codefix"
	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/host/golang"
	"github.com/spechtlabs/fixkit/rule"
	"github.com/spechtlabs/fixkit/syntax"
)

const Doc = `detect problematic uses of interface{}/any

The empty interface bypasses Go's type system and should be used sparingly.
Common problematic patterns:

1. Maps with interface{} values: map[string]interface{}
   - Wrap with type-safe getters/setters

2. Slices of interface{}: []interface{}
   - Use concrete types or generics (Go 1.18+)

3. Functions returning interface{}
   - Return concrete types; "accept interfaces, return structs"

Where the empty interface is needed, spell it any. The literal
interface{} is reported separately and rewritten to any, unless the
package declares its own any.

Example of wrapping unsafe code:
    // Bad: Exposes interface{} to callers
    func Get(key string) interface{} { ... }

    // Good: Type-safe wrapper
    type ItemCache struct { store map[string]any }
    func (c *ItemCache) Get(key string) (Item, error) {
        v, ok := c.store[key]
        if !ok {
            return Item{}, ErrNotFound
        }
        item, ok := v.(Item)
        if !ok {
            return Item{}, ErrInvalidType
        }
        return item, nil
    }`

var (
	// Literal is reported for every spelled-out interface{}.
	Literal = &diagnostic.Descriptor{
		ID:               "SL1005",
		Title:            "Use any instead of interface{}",
		MessageFormat:    "interface{} can be written as any",
		Category:         "Style",
		DefaultSeverity:  diagnostic.Info,
		EnabledByDefault: true,
	}

	// Leak is reported where the empty interface escapes into an API.
	Leak = &diagnostic.Descriptor{
		ID:               "SL1009",
		Title:            "Empty interface in API",
		MessageFormat:    "%s %q %s",
		Category:         "Design",
		DefaultSeverity:  diagnostic.Warning,
		EnabledByDefault: true,
	}
)

var Rule = &rule.Rule{
	Name:        "emptyinterface",
	Doc:         Doc,
	Languages:   []string{"go"},
	Descriptors: []*diagnostic.Descriptor{Literal, Leak},
	Initialize: func(c *rule.Context) {
		c.RegisterCompilationStartAction(start)
	},
}

var Fixer = &codefix.Fixer{
	IDs:     []string{Literal.ID},
	Mode:    codefix.ModeTracked,
	Compute: computeFixes,
}

const interfaceType syntax.Kind = "InterfaceType"

func start(sc *rule.CompilationStartContext) {
	// A package-level any would change meaning under the rewrite.
	if comp, ok := sc.Compilation().(*golang.Compilation); !ok || !shadowsAny(comp.Package()) {
		sc.RegisterNodeAction(checkLiteral, interfaceType)
	}
	sc.RegisterNodeAction(checkField, "Field")
}

func shadowsAny(pkg *types.Package) bool {
	return pkg != nil && pkg.Scope().Lookup("any") != nil
}

func literal(c syntax.Cursor) bool {
	return strings.Join(strings.Fields(c.Text()), "") == "interface{}"
}

func checkLiteral(nc *rule.NodeContext) {
	if literal(nc.Node()) {
		nc.ReportAt(Literal, nc.Node())
	}
}

func checkField(nc *rule.NodeContext) {
	o := nc.Semantic()
	n, _ := golang.Node(o, nc.Node())
	field, ok := n.(*ast.Field)
	if !ok {
		return
	}

	list, ok := nc.Node().Parent()
	if !ok {
		return
	}
	owner, ok := list.Parent()
	if !ok {
		return
	}
	ownerNode, ok := golang.Node(o, owner)
	if !ok {
		return
	}
	listNode, _ := golang.Node(o, list)

	switch on := ownerNode.(type) {
	case *ast.FuncDecl:
		checkFuncField(nc, on, listNode, field)
	case *ast.StructType:
		if spec, ok := owner.Parent(); ok && spec.Kind() == "TypeSpec" {
			checkStructField(nc, field)
		}
	}
}

func checkFuncField(nc *rule.NodeContext, fn *ast.FuncDecl, list ast.Node, field *ast.Field) {
	switch list {
	case fn.Type.Results:
		// Allow if function name suggests it's a wrapper/adapter
		if isEmptyInterface(field.Type) && !isAllowedFuncName(fn.Name.Name) {
			nc.ReportAt(Leak, nc.Node(), "function", fn.Name.Name,
				`returns interface{}/any; return concrete types instead ("accept interfaces, return structs")`)
		}
	case fn.Type.Params:
		if isMapWithEmptyInterface(field.Type) {
			for _, name := range field.Names {
				nc.ReportAt(Leak, nc.Node(), "parameter", name.Name,
					"is map[string]interface{}; consider using a struct or typed map")
			}
		}
	}
}

func checkStructField(nc *rule.NodeContext, field *ast.Field) {
	if isMapWithEmptyInterface(field.Type) {
		nc.ReportAt(Leak, nc.Node(), "field", getFieldNames(field),
			"is map[string]interface{}; consider using a typed struct or wrapping with type-safe methods")
	}
	if isSliceOfEmptyInterface(field.Type) {
		nc.ReportAt(Leak, nc.Node(), "field", getFieldNames(field),
			"is []interface{}; consider using a concrete slice type or generics")
	}
}

func isEmptyInterface(expr ast.Expr) bool {
	switch t := expr.(type) {
	case *ast.InterfaceType:
		return t.Methods == nil || len(t.Methods.List) == 0
	case *ast.Ident:
		return t.Name == "any"
	}
	return false
}

func isMapWithEmptyInterface(expr ast.Expr) bool {
	mapType, ok := expr.(*ast.MapType)
	if !ok {
		return false
	}
	return isEmptyInterface(mapType.Value)
}

func isSliceOfEmptyInterface(expr ast.Expr) bool {
	arrayType, ok := expr.(*ast.ArrayType)
	if !ok {
		return false
	}
	return isEmptyInterface(arrayType.Elt)
}

func isAllowedFuncName(name string) bool {
	// Functions that commonly need to return interface{}
	allowedPrefixes := []string{
		"Marshal", "Unmarshal", "Decode", "Encode",
		"Get", "Load", "Read", // Generic getters in cache/store implementations
		"Parse", "Convert", // Parsing/conversion functions that return different types
		"Wrap", "Value", // Wrapper/value extraction patterns
	}

	lowerName := strings.ToLower(name)
	for _, prefix := range allowedPrefixes {
		if strings.HasPrefix(lowerName, strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

func getFieldNames(field *ast.Field) string {
	if len(field.Names) == 0 {
		return types.ExprString(field.Type)
	}
	names := make([]string, len(field.Names))
	for i, name := range field.Names {
		names[i] = name.Name
	}
	return strings.Join(names, ", ")
}

func computeFixes(_ context.Context, req codefix.Request) ([]codefix.Action, error) {
	repl := syntax.NewNode("Ident", syntax.NewToken(syntax.KindToken, "any"))
	return []codefix.Action{
		codefix.Replace("Replace interface{} with any", req.Diagnostic, []syntax.Kind{interfaceType},
			func(c syntax.Cursor) (*syntax.Node, error) {
				if !literal(c) {
					return nil, codefix.ErrNotApplicable
				}
				return repl, nil
			}),
	}, nil
}
