package nopanic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spechtlabs/fixkit/host/golang"
	"github.com/spechtlabs/fixkit/internal/ruletest"
	"github.com/spechtlabs/fixkit/nopanic"
)

const lib = `package lib

import "log"

func init() { panic("ok in init") }

func Must(err error) {
	if err != nil {
		panic(err)
	}
}

func Stop() { log.Fatalf("bye %d", 1) }

func shadow() {
	panic := func(string) {}
	panic("not the builtin")
}
`

func TestLibrary(t *testing.T) {
	t.Parallel()

	p := ruletest.Project(t, golang.New(), map[string]string{
		"lib.go":      lib,
		"lib_test.go": "package lib\n\nfunc helper() { panic(\"tests may panic\") }\n",
	})
	diags := ruletest.Diagnose(t, nopanic.Rule, p)

	assert.Equal(t, []string{"panic(err)", `log.Fatalf("bye %d", 1)`}, ruletest.Texts(p, diags))
	assert.Equal(t, "panic() in library code terminates the program; return an error instead", diags[0].Message)
	assert.Equal(t, "log.Fatalf() in library code terminates the program; return an error instead", diags[1].Message)
}

func TestMainPackage(t *testing.T) {
	t.Parallel()

	p := ruletest.Project(t, golang.New(), map[string]string{
		"main.go": "package main\n\nfunc main() { panic(\"fine\") }\n",
	})
	assert.Empty(t, ruletest.Diagnose(t, nopanic.Rule, p))
}
