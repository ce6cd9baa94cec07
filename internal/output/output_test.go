package output

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/fixall"
	"github.com/spechtlabs/fixkit/internal/toy"
	"github.com/spechtlabs/fixkit/syntax"
	"github.com/spechtlabs/fixkit/workspace"
)

var desc = &diagnostic.Descriptor{
	ID:               "T0001",
	MessageFormat:    "atom %s",
	DefaultSeverity:  diagnostic.Warning,
	EnabledByDefault: true,
}

func solution(t *testing.T) *workspace.Solution {
	t.Helper()
	tree, err := toy.Language{}.Parse(context.Background(), "/src/a.toy", []byte("(a\n  b)"))
	require.NoError(t, err)
	doc := workspace.NewDocument("a", tree, toy.Language{})
	return workspace.NewSolution(workspace.NewProject("p", "p", toy.Language{}, doc))
}

func diags() []diagnostic.Diagnostic {
	loc := diagnostic.Location{Path: "/src/a.toy", Span: syntax.Span{Start: 5, Length: 1}}
	return []diagnostic.Diagnostic{
		diagnostic.New(desc, loc, "b"),
		diagnostic.New(desc, loc, "b").WithSeverity(diagnostic.Error),
	}
}

func TestText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := New(&buf, solution(t), Options{Base: "/src"})
	require.NoError(t, p.Diagnostics(FormatText, diags()))

	assert.Equal(t, "a.toy:2:3: warning T0001: atom b\na.toy:2:3: error T0001: atom b\n", buf.String())
}

func TestJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := New(&buf, solution(t), Options{Base: "/src"})
	require.NoError(t, p.Diagnostics(FormatJSON, diags()))

	var records []diagnostic.Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "a.toy", records[0].Span.File)
	assert.Equal(t, diagnostic.Error, records[1].Severity)
}

func TestMsgpack(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := New(&buf, nil, Options{})
	require.NoError(t, p.Diagnostics(FormatMsgpack, diags()))

	records, err := diagnostic.DecodeMsgpack(&buf)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "/src/a.toy", records[0].Span.File)
	assert.Equal(t, "atom b", records[0].Message)
}

func TestFixResult(t *testing.T) {
	t.Parallel()

	res := &fixall.Result{Documents: []fixall.DocumentResult{
		{
			Path:    "/src/a.toy",
			Applied: []fixall.Site{{ID: "T0001", Span: syntax.Span{Start: 1, Length: 1}}},
			Skipped: []fixall.Skip{{
				Site:   fixall.Site{ID: "T0001", Span: syntax.Span{Start: 5, Length: 1}},
				Reason: fixall.SkipNotApplicable,
			}},
		},
		{Path: "/src/b.toy"},
	}}

	var buf bytes.Buffer
	require.NoError(t, New(&buf, nil, Options{Base: "/src"}).FixResult(res))
	assert.Equal(t, "a.toy: 1 fixed, 1 skipped\n  T0001 [5,6): fix not applicable\n1 fixed, 1 skipped\n", buf.String())
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	var f Format
	require.NoError(t, f.Set("JSON"))
	assert.Equal(t, FormatJSON, f)

	_, err := ParseFormat("xml")
	require.ErrorIs(t, err, ErrUnknownFormat)
}
