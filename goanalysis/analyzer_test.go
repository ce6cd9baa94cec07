package goanalysis_test

import (
	"testing"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/analysistest"

	"github.com/spechtlabs/fixkit/boolcompare"
	"github.com/spechtlabs/fixkit/goanalysis"
	"github.com/spechtlabs/fixkit/nopanic"
	"github.com/spechtlabs/fixkit/todotracker"
)

func TestAnalyzer(t *testing.T) {
	t.Parallel()

	testdata := analysistest.TestData()

	tests := []struct {
		name     string
		dir      string
		analyzer *analysis.Analyzer
		fix      bool
	}{
		{
			name:     "SuggestedFixes",
			dir:      "boolcompare",
			analyzer: goanalysis.Analyzer(boolcompare.Rule, boolcompare.Fixer),
			fix:      true,
		},
		{
			name:     "NoFixes",
			dir:      "nopanic",
			analyzer: goanalysis.Analyzer(nopanic.Rule, nil),
		},
		{
			name:     "Suppressed",
			dir:      "suppressed",
			analyzer: goanalysis.Analyzer(todotracker.Rule, nil),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if tt.fix {
				analysistest.RunWithSuggestedFixes(t, testdata, tt.analyzer, tt.dir)
			} else {
				analysistest.Run(t, testdata, tt.analyzer, tt.dir)
			}
		})
	}
}

func TestAnalyzerMetadata(t *testing.T) {
	t.Parallel()

	a := goanalysis.Analyzer(boolcompare.Rule, boolcompare.Fixer)
	if a.Name != "boolcompare" {
		t.Errorf("Name = %q, want boolcompare", a.Name)
	}
	if err := analysis.Validate([]*analysis.Analyzer{a}); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}
