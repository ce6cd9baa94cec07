// Package analyzers provides the registry of all fixkit rules.
//
// The registry is explicit: every rule and its fix provider is listed here,
// and tools pick rules from it by name, by category or by language.
package analyzers

import (
	"slices"

	"golang.org/x/tools/go/analysis"

	"github.com/spechtlabs/fixkit/boolcompare"
	"github.com/spechtlabs/fixkit/codefix"
	"github.com/spechtlabs/fixkit/contextfirst"
	"github.com/spechtlabs/fixkit/dispatch"
	"github.com/spechtlabs/fixkit/emptyblock"
	"github.com/spechtlabs/fixkit/emptyinterface"
	"github.com/spechtlabs/fixkit/errorwrap"
	"github.com/spechtlabs/fixkit/exporteddoc"
	"github.com/spechtlabs/fixkit/goanalysis"
	"github.com/spechtlabs/fixkit/hardcodedcreds"
	"github.com/spechtlabs/fixkit/nestingdepth"
	"github.com/spechtlabs/fixkit/nopanic"
	"github.com/spechtlabs/fixkit/redundantconv"
	"github.com/spechtlabs/fixkit/rule"
	"github.com/spechtlabs/fixkit/todotracker"
	"github.com/spechtlabs/fixkit/unusedfunc"
)

type entry struct {
	rule  *rule.Rule
	fixer codefix.Provider
}

// catalog lists every rule, grouped by category.
var catalog = []entry{
	// Style
	{boolcompare.Rule, boolcompare.Fixer},
	{emptyblock.Rule, emptyblock.Fixer},
	{nestingdepth.Rule, nestingdepth.Fixer},
	{redundantconv.Rule, redundantconv.Fixer},

	// Clean Code
	{emptyinterface.Rule, emptyinterface.Fixer},
	{unusedfunc.Rule, unusedfunc.Fixer},

	// Safety
	{errorwrap.Rule, errorwrap.Fixer},
	{nopanic.Rule, nil},

	// Security
	{hardcodedcreds.Rule, nil},

	// Architecture
	{contextfirst.Rule, nil},
	{exporteddoc.Rule, nil},
	{todotracker.Rule, nil},
}

// All returns all available rules.
// Rules are grouped by category for clarity.
func All() []*rule.Rule {
	out := make([]*rule.Rule, 0, len(catalog))
	for _, e := range catalog {
		out = append(out, e.rule)
	}
	return out
}

// Style returns rules that simplify code without changing behavior.
func Style() []*rule.Rule {
	return []*rule.Rule{
		boolcompare.Rule,
		emptyblock.Rule,
		nestingdepth.Rule,
		redundantconv.Rule,
	}
}

// CleanCode returns rules that remove dead or outdated code.
func CleanCode() []*rule.Rule {
	return []*rule.Rule{
		emptyinterface.Rule,
		unusedfunc.Rule,
	}
}

// Safety returns rules focused on error handling and program termination.
func Safety() []*rule.Rule {
	return []*rule.Rule{
		errorwrap.Rule,
		nopanic.Rule,
	}
}

// Security returns rules that catch leaked secrets.
func Security() []*rule.Rule {
	return []*rule.Rule{
		hardcodedcreds.Rule,
	}
}

// Architecture returns rules focused on API shape and maintenance.
func Architecture() []*rule.Rule {
	return []*rule.Rule{
		contextfirst.Rule,
		exporteddoc.Rule,
		todotracker.Rule,
	}
}

// ForLanguage returns the rules that support lang.
func ForLanguage(lang string) []*rule.Rule {
	var out []*rule.Rule
	for _, e := range catalog {
		if e.rule.Supports(lang) {
			out = append(out, e.rule)
		}
	}
	return out
}

// Lookup returns the rule named name.
func Lookup(name string) (*rule.Rule, bool) {
	i := slices.IndexFunc(catalog, func(e entry) bool { return e.rule.Name == name })
	if i < 0 {
		return nil, false
	}
	return catalog[i].rule, true
}

// Providers returns the fix providers of rules, in registry order. Rules
// without fixes contribute nothing.
func Providers(rules []*rule.Rule) []codefix.Provider {
	var out []codefix.Provider
	for _, e := range catalog {
		if e.fixer != nil && slices.Contains(rules, e.rule) {
			out = append(out, e.fixer)
		}
	}
	return out
}

// Analyzers returns the Go rules among rules as go/analysis analyzers.
func Analyzers(rules []*rule.Rule, opts ...dispatch.Option) []*analysis.Analyzer {
	var out []*analysis.Analyzer
	for _, e := range catalog {
		if !e.rule.Supports("go") || !slices.Contains(rules, e.rule) {
			continue
		}
		out = append(out, goanalysis.Analyzer(e.rule, e.fixer, opts...))
	}
	return out
}
