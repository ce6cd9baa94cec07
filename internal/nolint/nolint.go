// Package nolint provides support for suppressing diagnostics using special
// comments in the source code.
//
// Supported comment formats:
//
//	//nolint:fixkit              - suppress every rule on this line
//	//nolint:boolcompare         - suppress one rule by name
//	//nolint:SL1001,contextfirst - suppress by descriptor id or several rules
//	// nolint:fixkit             - space after // is allowed
//
// Comments can appear:
//   - On the same line as the code (inline)
//   - On the line immediately before the code
//
// Directives are read from comment leaves of a [syntax.Tree], so they work for
// every host whose comments start with "//".
package nolint

import (
	"regexp"
	"strings"

	"github.com/spechtlabs/fixkit/syntax"
)

// All is the directive name that suppresses every rule.
const All = "fixkit"

// nolintRegex matches nolint directives in comments.
// Matches: //nolint:name or // nolint:name or //nolint:name1,name2
var nolintRegex = regexp.MustCompile(`^//\s*nolint:([a-zA-Z0-9_,-]+)`)

// Directive represents a parsed nolint directive.
type Directive struct {
	Line  int      // Line number where the directive appears
	Names []string // Rule names or descriptor ids to suppress
}

// FileDirectives holds all nolint directives for a file, indexed by line number.
type FileDirectives struct {
	// byLine maps line numbers to their directives.
	// A directive on line N applies to lines N and N+1 (for preceding comments).
	byLine map[int]*Directive
}

// ParseTree extracts all nolint directives from a tree's comments.
func ParseTree(tree *syntax.Tree) *FileDirectives {
	fd := &FileDirectives{
		byLine: make(map[int]*Directive),
	}

	for c := range tree.Preorder() {
		if c.Kind() != syntax.KindComment {
			continue
		}
		if d := parseComment(c.Text()); d != nil {
			line, _ := tree.Position(c.Span().Start)
			d.Line = line
			fd.byLine[line] = d
		}
	}

	return fd
}

// parseComment parses a single comment for nolint directive.
func parseComment(text string) *Directive {
	matches := nolintRegex.FindStringSubmatch(text)
	if matches == nil {
		return nil
	}

	var names []string
	for name := range strings.SplitSeq(matches[1], ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			names = append(names, name)
		}
	}

	return &Directive{
		Names: names,
	}
}

// Len returns the number of directives in the file.
func (fd *FileDirectives) Len() int {
	if fd == nil {
		return 0
	}
	return len(fd.byLine)
}

// IsSuppressed checks if a diagnostic on line should be suppressed for any of
// the given names (typically the rule name and the descriptor id).
func (fd *FileDirectives) IsSuppressed(line int, names ...string) bool {
	if fd == nil {
		return false
	}

	// Check the current line (inline comment)
	if d := fd.byLine[line]; d != nil && d.matches(names) {
		return true
	}

	// Check the previous line (preceding comment)
	if d := fd.byLine[line-1]; d != nil && d.matches(names) {
		return true
	}

	return false
}

// matches checks if the directive suppresses one of names.
func (d *Directive) matches(names []string) bool {
	for _, n := range d.Names {
		// "fixkit" suppresses all rules
		if n == All {
			return true
		}
		for _, want := range names {
			if strings.EqualFold(n, want) {
				return true
			}
		}
	}
	return false
}
