// Package loader turns a directory into a workspace solution: Go packages via
// go/packages, one project per package, and C# projects by .csproj discovery.
package loader

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"go/ast"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/tools/go/packages"

	"github.com/spechtlabs/fixkit/host/csharp"
	"github.com/spechtlabs/fixkit/host/golang"
	"github.com/spechtlabs/fixkit/workspace"
)

// ErrNoProjects is returned when nothing under the directory can be analyzed.
var ErrNoProjects = errors.New("loader: no Go packages or C# projects found")

const goMode = packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
	packages.NeedImports | packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo

// C# build output never holds sources.
var csharpSkip = []string{"**/bin/**", "**/obj/**"}

// Loader loads projects rooted at Dir.
type Loader struct {
	Dir string
	// Tests includes _test.go files in Go packages.
	Tests bool
	// Exclude lists doublestar globs, relative to Dir, of files never loaded.
	Exclude []string
	// Languages restricts loading to these host names; empty loads all.
	Languages []string
	Logger    *slog.Logger
}

func (l *Loader) wants(lang string) bool {
	return len(l.Languages) == 0 || slices.Contains(l.Languages, lang)
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

func (l *Loader) excluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, g := range l.Exclude {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	return false
}

// Solution loads the Go packages matching patterns and every C# project
// under Dir. Empty patterns skip Go loading.
func (l *Loader) Solution(ctx context.Context, patterns ...string) (*workspace.Solution, error) {
	var projects []*workspace.Project
	if len(patterns) > 0 && l.wants(golang.New().Name()) {
		ps, err := l.Go(ctx, patterns...)
		if err != nil {
			return nil, err
		}
		projects = append(projects, ps...)
	}
	if l.wants(csharp.New().Name()) {
		cs, err := l.CSharp(ctx)
		if err != nil {
			return nil, err
		}
		projects = append(projects, cs...)
	}

	if len(projects) == 0 {
		return nil, ErrNoProjects
	}
	return workspace.NewSolution(projects...), nil
}

// Go loads the packages matching patterns with their type information. Test
// variants replace their base package when Tests is set.
func (l *Loader) Go(ctx context.Context, patterns ...string) ([]*workspace.Project, error) {
	cfg := &packages.Config{
		Context: ctx,
		Mode:    goMode,
		Dir:     l.Dir,
		Tests:   l.Tests,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loader: load %s: %w", strings.Join(patterns, " "), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := l.logger()
	lang := golang.New()
	var projects []*workspace.Project
	for _, pkg := range dedupe(pkgs) {
		for _, e := range pkg.Errors {
			log.Warn("loader.package.err", "package", pkg.PkgPath, "error", e.Msg)
		}
		if pkg.Types == nil || len(pkg.Syntax) == 0 {
			continue
		}

		var (
			docs []*workspace.Document
			asts []*ast.File
		)
		for _, f := range pkg.Syntax {
			tf := pkg.Fset.File(f.FileStart)
			if tf == nil || l.excluded(l.rel(tf.Name())) {
				continue
			}
			src, err := os.ReadFile(tf.Name())
			if err != nil {
				return nil, fmt.Errorf("loader: %w", err)
			}
			if len(src) != tf.Size() {
				log.Debug("loader.file.generated", "path", tf.Name())
				continue
			}
			tree, err := lang.Parse(ctx, tf.Name(), src)
			if tree == nil {
				return nil, err
			}
			docs = append(docs, workspace.NewDocument(workspace.DocumentID(tf.Name()), tree, lang))
			asts = append(asts, f)
		}
		if len(docs) == 0 {
			continue
		}

		comp := golang.NewCompilation(pkg.Fset, asts, pkg.Types, pkg.TypesInfo)
		p := workspace.NewProject(workspace.ProjectID(pkg.ID), pkg.PkgPath, lang, docs...).WithCompilation(comp)
		projects = append(projects, p)
	}
	log.Debug("loader.go.done", "patterns", patterns, "projects", len(projects))
	return projects, nil
}

// dedupe keeps one package per import path: the in-package test variant when
// present, otherwise the package itself. External test packages and
// generated test mains are kept as they are.
func dedupe(pkgs []*packages.Package) []*packages.Package {
	byPath := make(map[string]*packages.Package, len(pkgs))
	var order []string
	for _, p := range pkgs {
		if strings.HasSuffix(p.PkgPath, ".test") {
			continue
		}
		key := p.PkgPath
		if cur, ok := byPath[key]; ok {
			if len(p.CompiledGoFiles) > len(cur.CompiledGoFiles) {
				byPath[key] = p
			}
			continue
		}
		byPath[key] = p
		order = append(order, key)
	}
	out := make([]*packages.Package, 0, len(order))
	for _, k := range order {
		out = append(out, byPath[k])
	}
	return out
}

func (l *Loader) rel(name string) string {
	root, err := filepath.Abs(cmp.Or(l.Dir, "."))
	if err != nil {
		return name
	}
	rel, err := filepath.Rel(root, name)
	if err != nil {
		return name
	}
	return rel
}

// CSharp loads one project per .csproj file under Dir. A source file belongs
// to the closest project directory above it. Sources outside every project
// form a project named after Dir when no .csproj exists at all.
func (l *Loader) CSharp(ctx context.Context) ([]*workspace.Project, error) {
	root := cmp.Or(l.Dir, ".")
	fsys := os.DirFS(root)

	csprojs, err := doublestar.Glob(fsys, "**/*.csproj", doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("loader: glob: %w", err)
	}
	sources, err := doublestar.Glob(fsys, "**/*.cs", doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("loader: glob: %w", err)
	}
	sources = slices.DeleteFunc(sources, func(s string) bool {
		if l.excluded(s) {
			return true
		}
		return slices.ContainsFunc(csharpSkip, func(g string) bool {
			ok, _ := doublestar.Match(g, s)
			return ok
		})
	})
	if len(sources) == 0 {
		return nil, nil
	}
	slices.Sort(csprojs)
	slices.Sort(sources)

	dirs := make([]string, 0, len(csprojs))
	for _, p := range csprojs {
		dirs = append(dirs, path.Dir(p))
	}
	if len(dirs) == 0 {
		dirs = append(dirs, ".")
		csprojs = append(csprojs, filepath.Base(absOr(root))+".csproj")
	}

	owned := make(map[string][]string, len(dirs))
	for _, s := range sources {
		if i := owner(dirs, s); i >= 0 {
			owned[csprojs[i]] = append(owned[csprojs[i]], s)
		}
	}

	lang := csharp.New()
	log := l.logger()
	var projects []*workspace.Project
	for _, proj := range csprojs {
		files := owned[proj]
		if len(files) == 0 {
			continue
		}
		docs := make([]*workspace.Document, 0, len(files))
		for _, rel := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			src, err := fs.ReadFile(fsys, rel)
			if err != nil {
				return nil, fmt.Errorf("loader: %w", err)
			}
			name := filepath.Join(root, filepath.FromSlash(rel))
			tree, err := lang.Parse(ctx, name, src)
			if tree == nil {
				return nil, err
			}
			if err != nil {
				log.Warn("loader.csharp.parse", "path", name, "error", err)
			}
			docs = append(docs, workspace.NewDocument(workspace.DocumentID(name), tree, lang))
		}
		name := strings.TrimSuffix(path.Base(proj), ".csproj")
		projects = append(projects, workspace.NewProject(workspace.ProjectID(proj), name, lang, docs...))
	}
	log.Debug("loader.csharp.done", "projects", len(projects))
	return projects, nil
}

// owner returns the index of the deepest directory in dirs containing file.
func owner(dirs []string, file string) int {
	best, depth := -1, -1
	for i, d := range dirs {
		if d != "." && !strings.HasPrefix(file, d+"/") {
			continue
		}
		n := 0
		if d != "." {
			n = strings.Count(d, "/") + 1
		}
		if n > depth {
			best, depth = i, n
		}
	}
	return best
}

func absOr(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}
