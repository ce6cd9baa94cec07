package fixall

import (
	"log/slog"

	"github.com/spechtlabs/fixkit/syntax"
	"github.com/spechtlabs/fixkit/workspace"
)

// SkipReason explains why a site was not fixed.
type SkipReason int

const (
	// SkipUnresolved means no node matched the diagnostic span.
	SkipUnresolved SkipReason = iota

	// SkipTrackingLost means an earlier edit removed the tracked node.
	SkipTrackingLost

	// SkipMalformed means the tracked node is missing or a parse error.
	SkipMalformed

	// SkipNotApplicable means the provider declined the site.
	SkipNotApplicable

	// SkipNoAction means no action matched the equivalence key.
	SkipNoAction

	// SkipFailed means the provider returned an error.
	SkipFailed

	// SkipInvalid means the edit would leave the document unparsable.
	SkipInvalid

	// SkipNoChange means the action did not change the text.
	SkipNoChange

	// SkipNoBatch means the provider opted out of fix-all.
	SkipNoBatch
)

// String returns a human-readable description of the skip reason.
func (r SkipReason) String() string {
	switch r {
	case SkipUnresolved:
		return "no node at diagnostic span"
	case SkipTrackingLost:
		return "target removed by an earlier fix"
	case SkipMalformed:
		return "target is malformed"
	case SkipNotApplicable:
		return "fix not applicable"
	case SkipNoAction:
		return "no matching fix action"
	case SkipFailed:
		return "fix failed"
	case SkipInvalid:
		return "fix would break the document"
	case SkipNoChange:
		return "fix made no change"
	case SkipNoBatch:
		return "provider does not support fix-all"
	default:
		return "unknown reason"
	}
}

// Site is one diagnostic location. Span refers to the snapshot the
// diagnostic was computed against.
type Site struct {
	ID    string
	Span  syntax.Span
	Title string
}

// Skip records a site that was left unchanged.
type Skip struct {
	Site
	Reason SkipReason
	// Error is set for SkipFailed.
	Error string
}

// DocumentResult describes the fixes of one document.
type DocumentResult struct {
	Project workspace.ProjectID
	Path    string
	Applied []Site
	Skipped []Skip
	// Iterations counts fix rounds; more than one only in requery mode.
	Iterations int
	// Truncated is set when the requery loop stopped at its bound with
	// diagnostics left.
	Truncated bool
	// Validated is set when the document was redone site by site because
	// the batched result did not parse.
	Validated bool
	Changed   bool
}

// Result describes a fix-all run.
type Result struct {
	Documents []DocumentResult
}

// Applied returns the number of applied sites.
func (r *Result) Applied() int {
	n := 0
	for _, d := range r.Documents {
		n += len(d.Applied)
	}
	return n
}

// Skipped returns the number of skipped sites.
func (r *Result) Skipped() int {
	n := 0
	for _, d := range r.Documents {
		n += len(d.Skipped)
	}
	return n
}

// Truncated reports whether any document hit the requery bound.
func (r *Result) Truncated() bool {
	for _, d := range r.Documents {
		if d.Truncated {
			return true
		}
	}
	return false
}

// Changed returns the paths of changed documents.
func (r *Result) Changed() []string {
	var out []string
	for _, d := range r.Documents {
		if d.Changed {
			out = append(out, d.Path)
		}
	}
	return out
}

// Document returns the result for path.
func (r *Result) Document(path string) (DocumentResult, bool) {
	for _, d := range r.Documents {
		if d.Path == path {
			return d, true
		}
	}
	return DocumentResult{}, false
}

// LogValue implements [slog.LogValuer].
func (r *Result) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("documents", len(r.Documents)),
		slog.Int("applied", r.Applied()),
		slog.Int("skipped", r.Skipped()),
		slog.Bool("truncated", r.Truncated()),
	)
}
