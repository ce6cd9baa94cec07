package golang

import (
	"cmp"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"slices"

	"github.com/spechtlabs/fixkit/host"
	"github.com/spechtlabs/fixkit/syntax"
)

// Compilation is a type-checked Go package.
type Compilation struct {
	fset     *token.FileSet
	pkg      *types.Package
	info     *types.Info
	files    map[string]*fileIndex
	problems []host.Problem
}

var _ host.Compilation = (*Compilation)(nil)

type fileIndex struct {
	file  *ast.File
	tok   *token.File
	nodes map[nodeKey]ast.Node
}

// NewCompilation wraps a package that was already type-checked, such as one
// loaded by go/packages or handed to a go/analysis pass. Trees for the files
// must be built from the same text the package was parsed from; files are
// keyed by their position filename.
func NewCompilation(fset *token.FileSet, files []*ast.File, pkg *types.Package, info *types.Info) *Compilation {
	c := &Compilation{fset: fset, pkg: pkg, info: info, files: make(map[string]*fileIndex, len(files))}
	for _, f := range files {
		tf := fset.File(f.FileStart)
		if tf == nil {
			continue
		}
		_, index := convert(tf, f)
		c.files[tf.Name()] = &fileIndex{file: f, tok: tf, nodes: index}
	}
	return c
}

// Package returns the checked package.
func (c *Compilation) Package() *types.Package { return c.pkg }

// Problems returns parse and type errors.
func (c *Compilation) Problems() []host.Problem { return slices.Clone(c.problems) }

// Oracle returns the oracle for path. Unknown paths get an oracle that answers
// nothing.
func (c *Compilation) Oracle(path string) host.Oracle {
	fi, ok := c.files[path]
	if !ok {
		return host.NopOracle{Pkg: c.pkgName()}
	}
	return &oracle{c: c, fi: fi}
}

func (c *Compilation) pkgName() string {
	if c.pkg == nil {
		return ""
	}
	return c.pkg.Name()
}

func (c *Compilation) location(pos, end token.Pos) (host.Location, bool) {
	tf := c.fset.File(pos)
	if tf == nil {
		return host.Location{}, false
	}
	start := tf.Offset(pos)
	return host.Location{Path: tf.Name(), Span: syntax.NewSpan(start, tf.Offset(end))}, true
}

type oracle struct {
	c  *Compilation
	fi *fileIndex
}

// Node returns the go/ast node behind c, if o is a Go oracle.
func Node(o host.Oracle, c syntax.Cursor) (ast.Node, bool) {
	g, ok := o.(*oracle)
	if !ok {
		return nil, false
	}
	n := g.node(c)
	return n, n != nil
}

func (o *oracle) node(c syntax.Cursor) ast.Node {
	sp := c.Span()
	return o.fi.nodes[nodeKey{start: sp.Start, end: sp.End(), kind: c.Kind()}]
}

func (o *oracle) Package() string { return o.c.pkgName() }

func (o *oracle) TypeOf(c syntax.Cursor) (host.Type, bool) {
	expr, ok := o.node(c).(ast.Expr)
	if !ok || o.c.info == nil {
		return nil, false
	}
	if tv, ok := o.c.info.Types[expr]; ok && tv.Type != nil {
		return goType{tv.Type}, true
	}
	if id, ok := expr.(*ast.Ident); ok {
		if obj := o.c.info.ObjectOf(id); obj != nil && obj.Type() != nil {
			return goType{obj.Type()}, true
		}
	}
	return nil, false
}

// Value returns the constant value of the expression at c, if it has one.
func Value(o host.Oracle, c syntax.Cursor) (constant.Value, bool) {
	g, ok := o.(*oracle)
	if !ok || g.c.info == nil {
		return nil, false
	}
	expr, ok := g.node(c).(ast.Expr)
	if !ok {
		return nil, false
	}
	tv, ok := g.c.info.Types[expr]
	return tv.Value, ok && tv.Value != nil
}

func (o *oracle) SymbolOf(c syntax.Cursor) (host.Symbol, bool) {
	if o.c.info == nil {
		return nil, false
	}
	var id *ast.Ident
	switch n := o.node(c).(type) {
	case *ast.Ident:
		id = n
	case *ast.SelectorExpr:
		id = n.Sel
	case *ast.ParenExpr:
		if inner, ok := ast.Unparen(n).(*ast.Ident); ok {
			id = inner
		}
	}
	if id == nil {
		return nil, false
	}
	obj := o.c.info.Uses[id]
	if obj == nil {
		obj = o.c.info.Defs[id]
	}
	if obj == nil {
		return nil, false
	}
	return goSymbol{obj}, true
}

func (o *oracle) DeclaredSymbol(c syntax.Cursor) (host.Symbol, bool) {
	if o.c.info == nil {
		return nil, false
	}
	var id *ast.Ident
	switch n := o.node(c).(type) {
	case *ast.FuncDecl:
		id = n.Name
	case *ast.TypeSpec:
		id = n.Name
	case *ast.Ident:
		id = n
	case *ast.ValueSpec:
		if len(n.Names) == 1 {
			id = n.Names[0]
		}
	case *ast.Field:
		if len(n.Names) == 1 {
			id = n.Names[0]
		}
	}
	if id == nil {
		return nil, false
	}
	obj := o.c.info.Defs[id]
	if obj == nil {
		return nil, false
	}
	return goSymbol{obj}, true
}

func (o *oracle) References(sym host.Symbol) []host.Location {
	gs, ok := sym.(goSymbol)
	if !ok || o.c.info == nil {
		return nil
	}
	var out []host.Location
	for id, obj := range o.c.info.Uses {
		if obj != gs.obj {
			continue
		}
		if loc, ok := o.c.location(id.Pos(), id.End()); ok {
			out = append(out, loc)
		}
	}
	slices.SortFunc(out, func(a, b host.Location) int {
		if c := cmp.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return cmp.Compare(a.Span.Start, b.Span.Start)
	})
	return out
}

// AnalyzeDataFlow classifies the identifiers inside span. An identifier on
// the left of an assignment or inc/dec statement is a write.
func (o *oracle) AnalyzeDataFlow(span syntax.Span) (host.DataFlow, bool) {
	if o.c.info == nil {
		return host.DataFlow{}, false
	}
	written := make(map[*ast.Ident]bool)
	var idents []*ast.Ident
	ast.Inspect(o.fi.file, func(n ast.Node) bool {
		if n == nil {
			return true
		}
		if !o.within(n, span) && !o.overlaps(n, span) {
			return false
		}
		switch n := n.(type) {
		case *ast.AssignStmt:
			for _, lhs := range n.Lhs {
				if id, ok := ast.Unparen(lhs).(*ast.Ident); ok {
					written[id] = true
				}
			}
		case *ast.IncDecStmt:
			if id, ok := ast.Unparen(n.X).(*ast.Ident); ok {
				written[id] = true
			}
		case *ast.Ident:
			if o.within(n, span) {
				idents = append(idents, n)
			}
		}
		return true
	})

	var df host.DataFlow
	seen := make(map[types.Object]uint8)
	add := func(list *[]host.Symbol, obj types.Object, bit uint8) {
		if seen[obj]&bit != 0 {
			return
		}
		seen[obj] |= bit
		*list = append(*list, goSymbol{obj})
	}
	for _, id := range idents {
		if obj := o.c.info.Defs[id]; obj != nil {
			add(&df.Declared, obj, 1)
			continue
		}
		obj := o.c.info.Uses[id]
		if obj == nil {
			continue
		}
		if _, isVar := obj.(*types.Var); !isVar {
			continue
		}
		if written[id] {
			add(&df.Written, obj, 2)
		} else {
			add(&df.Read, obj, 4)
		}
	}
	return df, true
}

func (o *oracle) within(n ast.Node, span syntax.Span) bool {
	start, end := o.fi.tok.Offset(n.Pos()), o.fi.tok.Offset(n.End())
	return start >= span.Start && end <= span.End()
}

func (o *oracle) overlaps(n ast.Node, span syntax.Span) bool {
	start, end := o.fi.tok.Offset(n.Pos()), o.fi.tok.Offset(n.End())
	return start < span.End() && end > span.Start
}

type goType struct{ t types.Type }

func (t goType) String() string { return t.t.String() }

func (t goType) Identical(other host.Type) bool {
	o, ok := other.(goType)
	return ok && types.Identical(t.t, o.t)
}

func (t goType) Boolean() bool {
	b, ok := t.t.Underlying().(*types.Basic)
	return ok && b.Info()&types.IsBoolean != 0
}

// Type returns the go/types type behind t.
func Type(t host.Type) (types.Type, bool) {
	g, ok := t.(goType)
	return g.t, ok
}

type goSymbol struct{ obj types.Object }

func (s goSymbol) Name() string   { return s.obj.Name() }
func (s goSymbol) Exported() bool { return s.obj.Exported() }
func (s goSymbol) String() string {
	return types.ObjectString(s.obj, types.RelativeTo(s.obj.Pkg()))
}

func (s goSymbol) Kind() host.SymbolKind {
	switch obj := s.obj.(type) {
	case *types.PkgName:
		return host.SymbolPackage
	case *types.TypeName:
		return host.SymbolType
	case *types.Func:
		if sig, ok := obj.Type().(*types.Signature); ok && sig.Recv() != nil {
			return host.SymbolMethod
		}
		return host.SymbolFunc
	case *types.Var:
		switch obj.Kind() {
		case types.FieldVar:
			return host.SymbolField
		case types.ParamVar, types.ResultVar, types.RecvVar:
			return host.SymbolParam
		}
		return host.SymbolVar
	case *types.Const:
		return host.SymbolConst
	}
	return host.SymbolUnknown
}

// Object returns the go/types object behind sym.
func Object(sym host.Symbol) (types.Object, bool) {
	g, ok := sym.(goSymbol)
	return g.obj, ok
}
