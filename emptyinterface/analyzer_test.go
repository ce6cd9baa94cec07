package emptyinterface_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spechtlabs/fixkit/emptyinterface"
	"github.com/spechtlabs/fixkit/host/golang"
	"github.com/spechtlabs/fixkit/internal/ruletest"
)

const src = `package p

type store struct {
	data  map[string]interface{}
	items []any
	name  string
}

func Fetch() interface{} { return nil }

func GetValue() any { return nil }

func apply(opts map[string]any, n int) {}

var _ = func(v interface{ String() string }) {}
`

func TestReports(t *testing.T) {
	t.Parallel()

	p := ruletest.Project(t, golang.New(), map[string]string{"p.go": src})
	diags := ruletest.Diagnose(t, emptyinterface.Rule, p)

	assert.Equal(t, []string{"SL1009", "SL1005", "SL1009", "SL1009", "SL1005", "SL1009"}, ruletest.IDs(diags))
	assert.Equal(t,
		`field "data" is map[string]interface{}; consider using a typed struct or wrapping with type-safe methods`,
		diags[0].Message)
	assert.Equal(t, `field "items" is []interface{}; consider using a concrete slice type or generics`, diags[2].Message)
	assert.Contains(t, diags[3].Message, `function "Fetch" returns interface{}/any`)
	assert.Equal(t, `parameter "opts" is map[string]interface{}; consider using a struct or typed map`, diags[5].Message)
}

func TestFixAll(t *testing.T) {
	t.Parallel()

	p := ruletest.Project(t, golang.New(), map[string]string{"p.go": src})
	texts, res := ruletest.FixAll(t, emptyinterface.Rule, emptyinterface.Fixer, p)

	assert.Equal(t, 2, res.Applied())
	assert.Equal(t, `package p

type store struct {
	data  map[string]any
	items []any
	name  string
}

func Fetch() any { return nil }

func GetValue() any { return nil }

func apply(opts map[string]any, n int) {}

var _ = func(v interface{ String() string }) {}
`, texts["p.go"])
}

func TestPackageLevelAny(t *testing.T) {
	t.Parallel()

	p := ruletest.Project(t, golang.New(), map[string]string{"q.go": `package q

type any = interface{ M() }

var v interface{}
`})
	assert.Empty(t, ruletest.Diagnose(t, emptyinterface.Rule, p))
}
