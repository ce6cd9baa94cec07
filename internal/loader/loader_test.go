package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, text := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(text), 0o600))
	}
}

func TestCSharpProjects(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	write(t, root, map[string]string{
		"App/App.csproj":             "<Project />",
		"App/Program.cs":             "class Program { }",
		"App/Lib/Lib.csproj":         "<Project />",
		"App/Lib/Util.cs":            "class Util { }",
		"App/Lib/Deep/More.cs":       "class More { }",
		"App/obj/Debug/Generated.cs": "class Generated { }",
		"App/Skip/Ignored.cs":        "class Ignored { }",
	})

	l := &Loader{Dir: root, Exclude: []string{"**/Skip/**"}}
	projects, err := l.CSharp(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)

	byName := map[string][]string{}
	for _, p := range projects {
		assert.Equal(t, "csharp", p.Language().Name())
		for _, d := range p.Documents() {
			rel, err := filepath.Rel(root, d.Path())
			require.NoError(t, err)
			byName[p.Name()] = append(byName[p.Name()], filepath.ToSlash(rel))
		}
	}
	assert.Equal(t, map[string][]string{
		"App": {"App/Program.cs"},
		"Lib": {"App/Lib/Deep/More.cs", "App/Lib/Util.cs"},
	}, byName)
}

func TestCSharpWithoutProjectFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	write(t, root, map[string]string{"a.cs": "class A { }"})

	projects, err := (&Loader{Dir: root}).CSharp(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, filepath.Base(root), projects[0].Name())
	assert.Len(t, projects[0].Documents(), 1)
}

func TestGoPackages(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	write(t, root, map[string]string{
		"go.mod":     "module example.com/m\n\ngo 1.22\n",
		"p/p.go":     "package p\n\nfunc Exported() bool { return helper() == true }\n\nfunc helper() bool { return true }\n",
		"p/p_gen.go": "package p\n\nvar generated = 1\n",
	})

	l := &Loader{Dir: root, Exclude: []string{"**/*_gen.go"}}
	projects, err := l.Go(context.Background(), "./...")
	require.NoError(t, err)
	require.Len(t, projects, 1)

	p := projects[0]
	assert.Equal(t, "example.com/m/p", p.Name())
	require.Len(t, p.Documents(), 1)

	comp, err := p.Compilation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "p", comp.Oracle(p.Documents()[0].Path()).Package())
}

func TestSolutionEmpty(t *testing.T) {
	t.Parallel()

	_, err := (&Loader{Dir: t.TempDir()}).Solution(context.Background())
	require.ErrorIs(t, err, ErrNoProjects)
}

func TestOwner(t *testing.T) {
	t.Parallel()

	dirs := []string{".", "a", "a/b"}
	assert.Equal(t, 2, owner(dirs, "a/b/c.cs"))
	assert.Equal(t, 1, owner(dirs, "a/bc.cs"))
	assert.Equal(t, 0, owner(dirs, "x.cs"))
	assert.Equal(t, -1, owner([]string{"a"}, "b/x.cs"))
}

func TestSolutionLanguages(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	write(t, root, map[string]string{"a.cs": "class A { }"})

	sol, err := (&Loader{Dir: root, Languages: []string{"csharp"}}).Solution(context.Background(), "./...")
	require.NoError(t, err)
	assert.Len(t, sol.Documents(), 1)

	_, err = (&Loader{Dir: root, Languages: []string{"go"}}).Solution(context.Background())
	require.ErrorIs(t, err, ErrNoProjects)
}
