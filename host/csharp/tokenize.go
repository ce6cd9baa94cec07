package csharp

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spechtlabs/fixkit/syntax"
)

// tokenize splits the text between named nodes: whitespace, comments, words,
// string literals and single punctuation characters.
func tokenize(text string) []*syntax.Node {
	var out []*syntax.Node
	for i := 0; i < len(text); {
		rest := text[i:]
		r, size := utf8.DecodeRuneInString(rest)
		n := 0
		kind := syntax.KindToken
		switch {
		case unicode.IsSpace(r):
			n = strings.IndexFunc(rest, func(r rune) bool { return !unicode.IsSpace(r) })
			kind = syntax.KindTrivia
		case strings.HasPrefix(rest, "//"):
			n = strings.IndexByte(rest, '\n')
			kind = syntax.KindComment
		case strings.HasPrefix(rest, "/*"):
			if j := strings.Index(rest[2:], "*/"); j >= 0 {
				n = j + 4
			}
			kind = syntax.KindComment
		case r == '"' || r == '\'':
			n = quoted(rest, r)
		case isWord(r):
			n = strings.IndexFunc(rest, func(r rune) bool { return !isWord(r) })
		default:
			n = size
		}
		if n <= 0 {
			n = len(rest)
		}
		out = append(out, syntax.NewToken(kind, rest[:n]))
		i += n
	}
	return out
}

func isWord(r rune) bool {
	return r == '_' || r == '@' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// quoted returns the length of the literal opened by q at the start of s.
func quoted(s string, q rune) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case byte(q):
			return i + 1
		case '\n':
			return i
		}
	}
	return len(s)
}
