package golang

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/importer"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"

	"github.com/spechtlabs/fixkit/host"
	"github.com/spechtlabs/fixkit/syntax"
)

const parseMode = parser.ParseComments | parser.SkipObjectResolution | parser.AllErrors

// Language is the Go host.
type Language struct{}

var _ host.Language = Language{}

// New returns the Go host.
func New() Language { return Language{} }

func (Language) Name() string         { return "go" }
func (Language) Extensions() []string { return []string{".go"} }

// Parse converts src into a lossless tree. Syntax errors are returned with the
// recovered tree.
func (Language) Parse(ctx context.Context, path string, src []byte) (*syntax.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tree, _, _, err := parse(token.NewFileSet(), path, src)
	return tree, err
}

func parse(fset *token.FileSet, path string, src []byte) (*syntax.Tree, *ast.File, map[nodeKey]ast.Node, error) {
	f, perr := parser.ParseFile(fset, path, src, parseMode)
	if f == nil {
		root := syntax.NewNode("File", syntax.SplitTrivia(string(src))...).WithError()
		return syntax.NewTree(path, root), nil, nil, fmt.Errorf("golang: parse %s: %w", path, perr)
	}
	tf := fset.File(f.FileStart)
	if tf == nil {
		return nil, nil, nil, fmt.Errorf("golang: parse %s: no position information", path)
	}
	root, index := convert(tf, f)
	tree := syntax.Build(path, src, root, tokenize)
	if perr != nil {
		tree = syntax.NewTree(path, tree.RootNode().WithError())
		return tree, f, index, fmt.Errorf("golang: parse %s: %w", path, perr)
	}
	return tree, f, index, nil
}

// Compile type-checks files as one package. Imports are resolved from source.
// Type errors do not fail the compilation; they are available from
// [Compilation.Problems].
func (Language) Compile(ctx context.Context, files []host.File) (host.Compilation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	c := &Compilation{fset: fset, files: make(map[string]*fileIndex, len(files))}

	var asts []*ast.File
	pkgName := ""
	for _, file := range files {
		_, f, index, err := parse(fset, file.Path, []byte(file.Tree.Text()))
		if f == nil {
			return nil, err
		}
		if err != nil {
			c.addProblem(err)
		}
		if pkgName == "" {
			pkgName = f.Name.Name
		}
		if f.Name.Name != pkgName {
			c.problems = append(c.problems, host.Problem{
				Path:    file.Path,
				Message: fmt.Sprintf("package %s; expected %s", f.Name.Name, pkgName),
			})
			continue
		}
		c.files[file.Path] = &fileIndex{file: f, tok: fset.File(f.FileStart), nodes: index}
		asts = append(asts, f)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info := newInfo()
	conf := types.Config{
		Importer: importer.ForCompiler(fset, "source", nil),
		Error:    c.addProblem,
	}
	pkg, _ := conf.Check(pkgName, fset, asts, info)
	c.pkg, c.info = pkg, info
	return c, nil
}

// Format runs gofmt over src.
func (Language) Format(ctx context.Context, path string, src []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := format.Source(src)
	if err != nil {
		return nil, fmt.Errorf("golang: format %s: %w", path, err)
	}
	return out, nil
}

func newInfo() *types.Info {
	return &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Implicits:  make(map[ast.Node]types.Object),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
	}
}

func (c *Compilation) addProblem(err error) {
	var terr types.Error
	if errors.As(err, &terr) {
		p := terr.Fset.Position(terr.Pos)
		c.problems = append(c.problems, host.Problem{
			Path:    p.Filename,
			Span:    syntax.Span{Start: p.Offset},
			Message: terr.Msg,
		})
		return
	}
	var list scanner.ErrorList
	if errors.As(err, &list) {
		for _, e := range list {
			c.problems = append(c.problems, host.Problem{
				Path:    e.Pos.Filename,
				Span:    syntax.Span{Start: e.Pos.Offset},
				Message: e.Msg,
			})
		}
		return
	}
	c.problems = append(c.problems, host.Problem{Message: err.Error()})
}
