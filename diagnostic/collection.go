package diagnostic

import (
	"cmp"
	"slices"
	"sync"
)

// Collection is an append-only sink safe for concurrent use. It keeps
// duplicates.
type Collection struct {
	mu    sync.Mutex
	items []Diagnostic
}

// Add appends diagnostics.
func (c *Collection) Add(ds ...Diagnostic) {
	c.mu.Lock()
	c.items = append(c.items, ds...)
	c.mu.Unlock()
}

// Len returns the number of diagnostics added so far.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Items returns a sorted copy of the collected diagnostics.
func (c *Collection) Items() []Diagnostic {
	c.mu.Lock()
	out := slices.Clone(c.items)
	c.mu.Unlock()
	Sort(out)
	return out
}

// Sort orders diagnostics by path, start, length, severity (descending) and
// id, keeping report order for ties.
func Sort(ds []Diagnostic) {
	slices.SortStableFunc(ds, func(a, b Diagnostic) int {
		if c := cmp.Compare(a.Location.Path, b.Location.Path); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Location.Span.Start, b.Location.Span.Start); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Location.Span.Length, b.Location.Span.Length); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Severity, a.Severity); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
