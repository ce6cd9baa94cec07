// Package todotracker ensures TODO/FIXME comments have owners and context.
//
// Orphaned TODOs tend to stay forever. Requiring ownership and context
// helps ensure technical debt is tracked and eventually addressed.
package todotracker

import (
	"regexp"
	"strings"

	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/rule"
	"github.com/spechtlabs/fixkit/syntax"
)

const Doc = `ensure TODO/FIXME comments have owners and context

Orphaned TODOs without owners tend to never get done. This rule
enforces that TODO/FIXME comments include:
1. An owner (username, email, or team)
2. Context about what needs to be done

Good:
    // TODO(username): Implement retry logic for transient failures
    // FIXME(@team-platform): This breaks when input exceeds 1MB
    // TODO(jira:PROJ-123): Add caching layer

Bad:
    // TODO: fix this
    // FIXME
    // TODO - make this better`

var Descriptor = &diagnostic.Descriptor{
	ID:               "SL1007",
	Title:            "TODO without owner",
	MessageFormat:    "%[1]s %[2]s; use %[1]s(owner): description",
	Category:         "Maintainability",
	DefaultSeverity:  diagnostic.Info,
	EnabledByDefault: true,
}

var Rule = &rule.Rule{
	Name:        "todotracker",
	Doc:         Doc,
	Languages:   []string{"go", "csharp"},
	Descriptors: []*diagnostic.Descriptor{Descriptor},
	Initialize: func(c *rule.Context) {
		c.RegisterTreeAction(run)
	},
}

// Pattern to match well-formed TODOs: TODO(owner): description
var wellFormedTODO = regexp.MustCompile(`(?i)(TODO|FIXME)\s*\([^)]+\)\s*:\s*\S+`)

// Pattern to match any TODO/FIXME
var anyTODO = regexp.MustCompile(`(?i)(TODO|FIXME)`)

func run(tc *rule.TreeContext) {
	for c := range tc.Tree().Preorder() {
		if tc.Context().Err() != nil {
			return
		}
		if c.Kind() == syntax.KindComment {
			checkComment(tc, c)
		}
	}
}

func checkComment(tc *rule.TreeContext, c syntax.Cursor) {
	text := c.Text()

	if !anyTODO.MatchString(text) || wellFormedTODO.MatchString(text) {
		return
	}

	todoType := "TODO"
	if strings.Contains(strings.ToUpper(text), "FIXME") {
		todoType = "FIXME"
	}

	// Determine what's wrong
	switch {
	case !strings.Contains(text, "("):
		tc.ReportAt(Descriptor, c, todoType, "without owner")
	case !strings.Contains(text, ":"):
		tc.ReportAt(Descriptor, c, todoType, "without description")
	default:
		// Has parens and colon but doesn't match pattern - likely malformed
		tc.ReportAt(Descriptor, c, todoType, "appears malformed")
	}
}
