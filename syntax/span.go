package syntax

import "fmt"

// Span is a half-open byte range [Start, Start+Length) into a tree's text.
type Span struct {
	Start  int `json:"start" msgpack:"start"`
	Length int `json:"length" msgpack:"length"`
}

// NewSpan returns the span covering [start, end).
func NewSpan(start, end int) Span {
	return Span{Start: start, Length: end - start}
}

// End returns the exclusive end offset.
func (s Span) End() int {
	return s.Start + s.Length
}

// Empty reports whether the span has zero length.
func (s Span) Empty() bool {
	return s.Length == 0
}

// Contains reports whether o lies entirely within s.
func (s Span) Contains(o Span) bool {
	return s.Start <= o.Start && o.End() <= s.End()
}

// Overlaps reports whether s and o share at least one byte. An empty span
// overlaps a non-empty span when it lies strictly inside it.
func (s Span) Overlaps(o Span) bool {
	if s.Empty() && o.Empty() {
		return false
	}
	if s.Empty() {
		return o.Start < s.Start && s.Start < o.End()
	}
	if o.Empty() {
		return s.Start < o.Start && o.Start < s.End()
	}
	return s.Start < o.End() && o.Start < s.End()
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End())
}
