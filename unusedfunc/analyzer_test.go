package unusedfunc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spechtlabs/fixkit/host/golang"
	"github.com/spechtlabs/fixkit/internal/ruletest"
	"github.com/spechtlabs/fixkit/unusedfunc"
)

var files = map[string]string{
	"a.go": `package p

// unused is never called.
// It only calls itself.
func unused() {
	unused()
}

func used() int { return 1 }

var _ = used()

//go:noinline
func directive() {}

func Exported() {}

func init() {}

type t struct{}

func (t) method() {}

func helper() int { return 2 }

func last() {}
`,
	"b.go": `package p

var x = helper()
`,
	"c_test.go": `package p

func testHelper() {}
`,
}

func TestReportsAcrossFiles(t *testing.T) {
	t.Parallel()

	p := ruletest.Project(t, golang.New(), files)
	diags := ruletest.Diagnose(t, unusedfunc.Rule, p)

	require.Len(t, diags, 2)
	assert.Equal(t, "function unused is unused", diags[0].Message)
	assert.Equal(t, "function last is unused", diags[1].Message)
	for _, d := range diags {
		assert.Equal(t, "a.go", d.Location.Path)
	}
}

func TestFixRemovesDocComment(t *testing.T) {
	t.Parallel()

	p := ruletest.Project(t, golang.New(), files)
	texts, res := ruletest.FixAll(t, unusedfunc.Rule, unusedfunc.Fixer, p)

	assert.Equal(t, 2, res.Applied())
	assert.Equal(t, []string{"a.go"}, res.Changed())
	assert.Equal(t, `package p

func used() int { return 1 }

var _ = used()

//go:noinline
func directive() {}

func Exported() {}

func init() {}

type t struct{}

func (t) method() {}

func helper() int { return 2 }
`, texts["a.go"])
	assert.Equal(t, files["b.go"], texts["b.go"])
}

func TestLimits(t *testing.T) {
	t.Parallel()

	p := ruletest.Project(t, golang.New(), map[string]string{
		"a.go": `package p

func ping(n int) {
	if n > 0 {
		pong(n - 1)
	}
}

func pong(n int) { ping(n) }

func helper() int { return 1 }
`,
	})

	// ping and pong only refer to each other; helper is used by a test file
	// that was not loaded.
	diags := ruletest.Diagnose(t, unusedfunc.Rule, p)
	require.Len(t, diags, 1)
	assert.Equal(t, "function helper is unused", diags[0].Message)
}
