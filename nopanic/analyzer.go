// Package nopanic provides a rule that ensures library code never panics.
//
// Library functions should return errors instead of panicking. Panics should only
// be used in main packages or for truly unrecoverable programmer errors.
package nopanic

import (
	"go/ast"
	"go/types"
	"strings"

	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/host"
	"github.com/spechtlabs/fixkit/host/golang"
	"github.com/spechtlabs/fixkit/rule"
	"github.com/spechtlabs/fixkit/syntax"
)

const Doc = `ensure library code returns errors instead of panicking

This rule detects:
1. panic() calls in non-main packages
2. log.Fatal/log.Panic calls in library code

Library code should return errors and let the caller decide how to handle them.
Panics make code difficult to use as a library and can crash the entire program.

Good pattern:
    func ParseConfig(data []byte) (*Config, error) {
        var cfg Config
        if err := json.Unmarshal(data, &cfg); err != nil {
            return nil, fmt.Errorf("invalid config: %w", err)
        }
        return &cfg, nil
    }

Bad pattern:
    func MustParseConfig(data []byte) *Config {
        var cfg Config
        if err := json.Unmarshal(data, &cfg); err != nil {
            panic(err)  // Crashes the program!
        }
        return &cfg
    }`

var Descriptor = &diagnostic.Descriptor{
	ID:               "SL1008",
	Title:            "Panic in library code",
	MessageFormat:    "%s() in library code terminates the program; return an error instead",
	Category:         "Reliability",
	DefaultSeverity:  diagnostic.Warning,
	EnabledByDefault: true,
}

var Rule = &rule.Rule{
	Name:        "nopanic",
	Doc:         Doc,
	Languages:   []string{"go"},
	Descriptors: []*diagnostic.Descriptor{Descriptor},
	Initialize: func(c *rule.Context) {
		c.RegisterNodeAction(check, "CallExpr")
	},
}

// Functions where panic is acceptable (initialization, tests)
var allowedPanicFunctions = map[string]bool{
	"init":     true,
	"TestMain": true,
}

var fatalPatterns = map[string]bool{
	"log.Fatal": true, "log.Fatalf": true, "log.Fatalln": true,
	"log.Panic": true, "log.Panicf": true, "log.Panicln": true,
	"logrus.Fatal": true, "logrus.Fatalf": true, "logrus.Fatalln": true,
	"logrus.Panic": true, "logrus.Panicf": true, "logrus.Panicln": true,
}

func check(nc *rule.NodeContext) {
	o := nc.Semantic()
	if o.Package() == "main" || strings.HasSuffix(nc.Document().Path(), "_test.go") {
		return
	}
	if fn, ok := nc.Node().Enclosing("FuncDecl"); ok && allowedPanicFunctions[funcName(o, fn)] {
		return
	}

	n, _ := golang.Node(o, nc.Node())
	call, ok := n.(*ast.CallExpr)
	if !ok {
		return
	}

	var name string
	switch fn := call.Fun.(type) {
	case *ast.Ident:
		name = fn.Name
	case *ast.SelectorExpr:
		if ident, ok := fn.X.(*ast.Ident); ok {
			name = ident.Name + "." + fn.Sel.Name
		} else {
			name = fn.Sel.Name
		}
	default:
		return
	}

	switch {
	case name == "panic":
		if builtin(o, nc.Node()) {
			nc.ReportAt(Descriptor, nc.Node(), name)
		}
	case fatalPatterns[name]:
		nc.ReportAt(Descriptor, nc.Node(), name)
	}
}

func funcName(o host.Oracle, c syntax.Cursor) string {
	n, _ := golang.Node(o, c)
	if fd, ok := n.(*ast.FuncDecl); ok {
		return fd.Name.Name
	}
	return ""
}

// builtin reports whether the callee of call is the predeclared panic. A
// package without type information is assumed not to shadow it.
func builtin(o host.Oracle, call syntax.Cursor) bool {
	kids := call.SignificantChildren()
	if len(kids) == 0 {
		return false
	}
	sym, ok := o.SymbolOf(kids[0])
	if !ok {
		return true
	}
	obj, ok := golang.Object(sym)
	if !ok {
		return true
	}
	_, isBuiltin := obj.(*types.Builtin)
	return isBuiltin
}
