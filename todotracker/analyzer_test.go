package todotracker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spechtlabs/fixkit/host/csharp"
	"github.com/spechtlabs/fixkit/host/golang"
	"github.com/spechtlabs/fixkit/internal/ruletest"
	"github.com/spechtlabs/fixkit/todotracker"
)

func TestGo(t *testing.T) {
	t.Parallel()

	p := ruletest.Project(t, golang.New(), map[string]string{"p.go": `package p

// TODO(alice): add retries
// TODO: fix this
// FIXME(bob) handle overflow
// TODO: (carol) later
func f() {}
`})
	diags := ruletest.Diagnose(t, todotracker.Rule, p)

	assert.Equal(t, []string{"// TODO: fix this", "// FIXME(bob) handle overflow", "// TODO: (carol) later"}, ruletest.Texts(p, diags))
	assert.Equal(t, "TODO without owner; use TODO(owner): description", diags[0].Message)
	assert.Equal(t, "FIXME without description; use FIXME(owner): description", diags[1].Message)
	assert.Equal(t, "TODO appears malformed; use TODO(owner): description", diags[2].Message)
}

func TestCSharp(t *testing.T) {
	t.Parallel()

	p := ruletest.Project(t, csharp.New(), map[string]string{"C.cs": `namespace Demo
{
    // TODO make this configurable
    class C { }
}
`})
	diags := ruletest.Diagnose(t, todotracker.Rule, p)

	assert.Equal(t, []string{"// TODO make this configurable"}, ruletest.Texts(p, diags))
}
