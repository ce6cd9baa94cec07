package boolcompare_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spechtlabs/fixkit/boolcompare"
	"github.com/spechtlabs/fixkit/host/golang"
	"github.com/spechtlabs/fixkit/internal/ruletest"
)

const src = `package p

type flag bool

func f(ok bool, n int, fl flag, v any) bool {
	if ok == true {
		return false
	}
	if ok != true {
		return true
	}
	if false == ok {
		return true
	}
	if n > 0 == false {
		return true
	}
	if fl == true {
		return true
	}
	if v == true {
		return true
	}
	return ok
}

func g(ok bool) bool {
	true := false
	return ok == true
}
`

const want = `package p

type flag bool

func f(ok bool, n int, fl flag, v any) bool {
	if ok {
		return false
	}
	if !ok {
		return true
	}
	if !ok {
		return true
	}
	if !(n > 0) {
		return true
	}
	if fl == true {
		return true
	}
	if v == true {
		return true
	}
	return ok
}

func g(ok bool) bool {
	true := false
	return ok == true
}
`

func TestReports(t *testing.T) {
	t.Parallel()

	p := ruletest.Project(t, golang.New(), map[string]string{"p.go": src})
	diags := ruletest.Diagnose(t, boolcompare.Rule, p)

	assert.Equal(t, []string{
		"ok == true",
		"ok != true",
		"false == ok",
		"n > 0 == false",
	}, ruletest.Texts(p, diags))

	negate := make([]string, len(diags))
	for i, d := range diags {
		negate[i], _ = d.Property("negate")
	}
	assert.Equal(t, []string{"false", "true", "true", "true"}, negate)
	assert.Equal(t, "comparison with true is redundant; use the operand directly", diags[0].Message)
}

func TestFixAll(t *testing.T) {
	t.Parallel()

	p := ruletest.Project(t, golang.New(), map[string]string{"p.go": src})
	texts, res := ruletest.FixAll(t, boolcompare.Rule, boolcompare.Fixer, p)

	require.Equal(t, 4, res.Applied())
	assert.Zero(t, res.Skipped())
	assert.Equal(t, want, texts["p.go"])
}

func TestNestedComparisons(t *testing.T) {
	t.Parallel()

	p := ruletest.Project(t, golang.New(), map[string]string{"p.go": `package p

func f(ok bool) bool {
	return (ok == true) != false
}
`})
	texts, res := ruletest.FixAll(t, boolcompare.Rule, boolcompare.Fixer, p)

	assert.Equal(t, 2, res.Applied())
	assert.Equal(t, `package p

func f(ok bool) bool {
	return (ok)
}
`, texts["p.go"])
}

func TestNamedBoolKeepsComparison(t *testing.T) {
	t.Parallel()

	const text = `package p

type flag bool

type alias = bool

func use(bool) {}

func f(fl flag, al alias) {
	var r bool = fl == true
	use(fl != false)
	use(al == true)
	_ = r
}
`
	p := ruletest.Project(t, golang.New(), map[string]string{"p.go": text})
	diags := ruletest.Diagnose(t, boolcompare.Rule, p)
	assert.Equal(t, []string{"al == true"}, ruletest.Texts(p, diags))

	texts, res := ruletest.FixAll(t, boolcompare.Rule, boolcompare.Fixer, p)
	assert.Equal(t, 1, res.Applied())
	assert.Equal(t, strings.Replace(text, "use(al == true)", "use(al)", 1), texts["p.go"])
}
