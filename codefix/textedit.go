package codefix

import (
	"errors"
	"unicode/utf8"
)

// TextEdit replaces the bytes [Start, End) of the old text with NewText.
type TextEdit struct {
	Start   int
	End     int
	NewText string
}

// TextEdits returns the single edit that turns before into after: the range
// between their common prefix and common suffix. Equal texts yield nil.
func TextEdits(before, after string) []TextEdit {
	if before == after {
		return nil
	}

	prefix := 0
	for prefix < len(before) && prefix < len(after) && before[prefix] == after[prefix] {
		prefix++
	}
	// Keep the edit on rune boundaries.
	for prefix > 0 && prefix < len(before) && !utf8.RuneStart(before[prefix]) {
		prefix--
	}

	suffix := 0
	for suffix < len(before)-prefix && suffix < len(after)-prefix &&
		before[len(before)-1-suffix] == after[len(after)-1-suffix] {
		suffix++
	}
	for suffix > 0 && !utf8.RuneStart(before[len(before)-suffix]) {
		suffix--
	}

	return []TextEdit{{
		Start:   prefix,
		End:     len(before) - suffix,
		NewText: after[prefix : len(after)-suffix],
	}}
}

// ApplyTextEdits applies non-overlapping edits sorted by Start to text.
func ApplyTextEdits(text string, edits []TextEdit) (string, error) {
	var out []byte
	pos := 0
	for _, e := range edits {
		if e.Start < pos || e.End < e.Start || e.End > len(text) {
			return "", errOverlap
		}
		out = append(out, text[pos:e.Start]...)
		out = append(out, e.NewText...)
		pos = e.End
	}
	out = append(out, text[pos:]...)
	return string(out), nil
}

var errOverlap = errors.New("codefix: overlapping or out of range text edit")

func isNotApplicable(err error) bool {
	return errors.Is(err, ErrNotApplicable)
}
