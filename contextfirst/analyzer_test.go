package contextfirst_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spechtlabs/fixkit/contextfirst"
	"github.com/spechtlabs/fixkit/host/golang"
	"github.com/spechtlabs/fixkit/internal/ruletest"
)

func TestContextFirst(t *testing.T) {
	t.Parallel()

	p := ruletest.Project(t, golang.New(), map[string]string{"p.go": `package p

import "context"

type Context struct{}

func good(ctx context.Context, n int) {}

func bad(n int, ctx context.Context) {}

func local(n int, c Context) {}

func single(ctx context.Context) {}

var _ = func(n int, ctx context.Context) {}
`})
	diags := ruletest.Diagnose(t, contextfirst.Rule, p)

	var msgs []string
	for _, d := range diags {
		msgs = append(msgs, d.Message)
	}
	assert.Equal(t, []string{
		"context.Context should be the first parameter in bad, not parameter 2",
		"context.Context should be the first parameter in anonymous function, not parameter 2",
	}, msgs)
}
