// Package exporteddoc provides a rule that ensures exported symbols have
// documentation.
//
// Exported functions, types, and package-level variables should have
// documentation comments that explain their purpose.
package exporteddoc

import (
	"go/ast"
	"strings"

	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/host"
	"github.com/spechtlabs/fixkit/host/golang"
	"github.com/spechtlabs/fixkit/rule"
	"github.com/spechtlabs/fixkit/syntax"
)

const Doc = `ensure exported symbols have documentation comments

Exported functions, types, and variables should have documentation
that starts with the symbol name. This enables godoc and IDE tooltips.

Good:
    // Service handles business logic for user operations.
    type Service struct { ... }

    // ProcessRequest handles incoming API requests and returns results.
    func ProcessRequest(ctx context.Context, req *Request) (*Response, error)

Bad:
    type Service struct { ... }  // No documentation

    // handles requests  // Doesn't start with function name
    func ProcessRequest(...) ...`

var (
	MissingDescriptor = &diagnostic.Descriptor{
		ID:               "SL1012",
		Title:            "Exported symbol without documentation",
		MessageFormat:    "exported %s %s should have a documentation comment",
		Category:         "Documentation",
		DefaultSeverity:  diagnostic.Info,
		EnabledByDefault: true,
	}

	PrefixDescriptor = &diagnostic.Descriptor{
		ID:               "SL1013",
		Title:            "Documentation does not start with the symbol name",
		MessageFormat:    "documentation for %s should start with %q",
		Category:         "Documentation",
		DefaultSeverity:  diagnostic.Info,
		EnabledByDefault: true,
	}
)

var Rule = &rule.Rule{
	Name:        "exporteddoc",
	Doc:         Doc,
	Languages:   []string{"go"},
	Descriptors: []*diagnostic.Descriptor{MissingDescriptor, PrefixDescriptor},
	Initialize: func(c *rule.Context) {
		c.RegisterNodeAction(checkFunc, "FuncDecl")
		c.RegisterNodeAction(checkGenDecl, "GenDecl")
	},
}

func inTestFile(nc *rule.NodeContext) bool {
	return strings.HasSuffix(nc.Document().Path(), "_test.go")
}

func checkFunc(nc *rule.NodeContext) {
	if inTestFile(nc) {
		return
	}
	o := nc.Semantic()
	n, _ := golang.Node(o, nc.Node())
	fn, ok := n.(*ast.FuncDecl)
	// Skip methods - they're often self-explanatory
	if !ok || fn.Recv != nil || !ast.IsExported(fn.Name.Name) {
		return
	}

	at := find(o, nc.Node(), fn.Name)
	if fn.Doc == nil || len(fn.Doc.List) == 0 {
		nc.ReportAt(MissingDescriptor, at, "function", fn.Name.Name)
		return
	}
	if !startsWith(fn.Doc, fn.Name.Name) {
		nc.ReportAt(PrefixDescriptor, at, fn.Name.Name, fn.Name.Name)
	}
}

func checkGenDecl(nc *rule.NodeContext) {
	if inTestFile(nc) {
		return
	}
	o := nc.Semantic()
	n, _ := golang.Node(o, nc.Node())
	decl, ok := n.(*ast.GenDecl)
	if !ok {
		return
	}

	for _, spec := range decl.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			if !ast.IsExported(s.Name.Name) {
				continue
			}
			doc := s.Doc
			if doc == nil {
				doc = decl.Doc
			}
			at := find(o, nc.Node(), s.Name)
			if doc == nil || len(doc.List) == 0 {
				nc.ReportAt(MissingDescriptor, at, "type", s.Name.Name)
				continue
			}
			if !startsWith(doc, s.Name.Name) {
				nc.ReportAt(PrefixDescriptor, at, s.Name.Name, s.Name.Name)
			}

		case *ast.ValueSpec:
			doc := s.Doc
			if doc == nil {
				doc = decl.Doc
			}
			if doc != nil && len(doc.List) > 0 {
				continue
			}
			for _, name := range s.Names {
				// Error sentinels name themselves.
				if !ast.IsExported(name.Name) || strings.HasPrefix(name.Name, "Err") {
					continue
				}
				nc.ReportAt(MissingDescriptor, find(o, nc.Node(), name), "variable", name.Name)
			}
		}
	}
}

func startsWith(doc *ast.CommentGroup, name string) bool {
	return strings.HasPrefix(doc.List[0].Text, "// "+name)
}

// find returns the cursor for n below root, or root itself.
func find(o host.Oracle, root syntax.Cursor, n ast.Node) syntax.Cursor {
	for cur := range root.Preorder() {
		if m, ok := golang.Node(o, cur); ok && m == n {
			return cur
		}
	}
	return root
}
