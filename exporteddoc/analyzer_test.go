package exporteddoc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spechtlabs/fixkit/exporteddoc"
	"github.com/spechtlabs/fixkit/host/golang"
	"github.com/spechtlabs/fixkit/internal/ruletest"
)

const src = `package p

// Service handles requests.
type Service struct{}

type Bare struct{}

// handles things
func Process() {}

func Run() {}

// Stop stops.
func Stop() {}

func (Service) Method() {}

func internal() {}

var Exported = 1

var ErrBad = 2

// Limits.
const (
	Max = 10
)
`

func TestExportedDoc(t *testing.T) {
	t.Parallel()

	p := ruletest.Project(t, golang.New(), map[string]string{
		"p.go":      src,
		"p_test.go": "package p\n\nfunc Helper() {}\n",
	})
	diags := ruletest.Diagnose(t, exporteddoc.Rule, p)

	assert.Equal(t, []string{"Bare", "Process", "Run", "Exported"}, ruletest.Texts(p, diags))
	assert.Equal(t, []string{"SL1012", "SL1013", "SL1012", "SL1012"}, ruletest.IDs(diags))
	require.Len(t, diags, 4)
	assert.Equal(t, "exported type Bare should have a documentation comment", diags[0].Message)
	assert.Equal(t, `documentation for Process should start with "Process"`, diags[1].Message)
	assert.Equal(t, "exported variable Exported should have a documentation comment", diags[3].Message)
}
