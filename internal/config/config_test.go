package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/rule"
)

func mockRules() []*rule.Rule {
	mk := func(name, id string, on bool) *rule.Rule {
		return &rule.Rule{
			Name: name,
			Descriptors: []*diagnostic.Descriptor{{
				ID:               id,
				MessageFormat:    name,
				DefaultSeverity:  diagnostic.Warning,
				EnabledByDefault: on,
			}},
		}
	}
	return []*rule.Rule{
		mk("rule1", "T0001", true),
		mk("rule2", "T0002", true),
		mk("rule3", "T0003", false),
	}
}

func TestFilterRules(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
		want   []string
	}{
		{
			name:   "nil config enables all",
			config: nil,
			want:   []string{"rule1", "rule2", "rule3"},
		},
		{
			name: "default true enables all",
			config: &Config{
				Rules: map[string]bool{"default": true},
			},
			want: []string{"rule1", "rule2", "rule3"},
		},
		{
			name: "default false disables all",
			config: &Config{
				Rules: map[string]bool{"default": false},
			},
			want: []string{},
		},
		{
			name: "disable specific rule",
			config: &Config{
				Rules: map[string]bool{
					"default": true,
					"rule2":   false,
				},
			},
			want: []string{"rule1", "rule3"},
		},
		{
			name: "enable specific rules when default is false",
			config: &Config{
				Rules: map[string]bool{
					"default": false,
					"rule1":   true,
					"rule3":   true,
				},
			},
			want: []string{"rule1", "rule3"},
		},
		{
			name: "descriptor id enables its rule when default is false",
			config: &Config{
				Rules: map[string]bool{
					"default": false,
					"T0002":   true,
				},
			},
			want: []string{"rule2"},
		},
		{
			name: "rule name overrides its descriptor ids",
			config: &Config{
				Rules: map[string]bool{
					"default": false,
					"rule2":   false,
					"T0002":   true,
				},
			},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.config.FilterRules(mockRules())
			if len(got) != len(tt.want) {
				t.Errorf("FilterRules() returned %d rules, want %d", len(got), len(tt.want))
				return
			}
			for i, r := range got {
				if r.Name != tt.want[i] {
					t.Errorf("FilterRules()[%d].Name = %q, want %q", i, r.Name, tt.want[i])
				}
			}
		})
	}
}

func TestIsEnabled(t *testing.T) {
	tests := []struct {
		name        string
		config      *Config
		rule        string
		wantEnabled bool
	}{
		{
			name:        "nil config enables all",
			config:      nil,
			rule:        "any",
			wantEnabled: true,
		},
		{
			name: "explicitly enabled",
			config: &Config{
				Rules: map[string]bool{"myrule": true},
			},
			rule:        "myrule",
			wantEnabled: true,
		},
		{
			name: "explicitly disabled",
			config: &Config{
				Rules: map[string]bool{"myrule": false},
			},
			rule:        "myrule",
			wantEnabled: false,
		},
		{
			name: "uses default when not specified",
			config: &Config{
				Rules: map[string]bool{"default": false},
			},
			rule:        "other",
			wantEnabled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.config.IsEnabled(tt.rule)
			if got != tt.wantEnabled {
				t.Errorf("IsEnabled(%q) = %v, want %v", tt.rule, got, tt.wantEnabled)
			}
		})
	}
}

func TestLoadFrom(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".fixkit.yaml")

	configContent := `rules:
  default: true
  nopanic: false
  todotracker: false
severity:
  SL1001: error
  emptyblock: none
exclude:
  - "**/vendor/**"
fix:
  parallelism: 4
  max-iterations: 7
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Rules["default"] != true {
		t.Errorf("default = %v, want true", cfg.Rules["default"])
	}
	if cfg.Rules["nopanic"] != false {
		t.Errorf("nopanic = %v, want false", cfg.Rules["nopanic"])
	}
	if cfg.Severity["SL1001"] != "error" {
		t.Errorf("severity SL1001 = %q, want error", cfg.Severity["SL1001"])
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "**/vendor/**" {
		t.Errorf("exclude = %v", cfg.Exclude)
	}
	if cfg.Fix.Parallelism != 4 || cfg.Fix.MaxIterations != 7 {
		t.Errorf("fix = %+v, want parallelism 4 and max-iterations 7", cfg.Fix)
	}
	if cfg.Path() != configPath {
		t.Errorf("Path() = %q, want %q", cfg.Path(), configPath)
	}
}

func TestLoadFromTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".fixkit.toml")

	configContent := `exclude = ["gen/**"]

[rules]
default = false
boolcompare = true

[severity]
boolcompare = "info"

[fix]
max-iterations = 3
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Rules["default"] != false || cfg.Rules["boolcompare"] != true {
		t.Errorf("rules = %v", cfg.Rules)
	}
	if cfg.Severity["boolcompare"] != "info" {
		t.Errorf("severity = %v", cfg.Severity)
	}
	if cfg.Fix.MaxIterations != 3 {
		t.Errorf("max-iterations = %d, want 3", cfg.Fix.MaxIterations)
	}
}

func TestLoadFromInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".fixkit.yaml")
	if err := os.WriteFile(configPath, []byte("rules: [unterminated"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	if _, err := LoadFrom(configPath); err == nil {
		t.Errorf("LoadFrom() error = nil, want parse error")
	}
}

func TestResolverEffective(t *testing.T) {
	rules := mockRules()
	d1, d2, d3 := rules[0].Descriptors[0], rules[1].Descriptors[0], rules[2].Descriptors[0]

	tests := []struct {
		name        string
		config      *Config
		desc        *diagnostic.Descriptor
		wantSev     diagnostic.Severity
		wantEnabled bool
	}{
		{"compiled default", nil, d1, diagnostic.Warning, true},
		{"disabled by default", nil, d3, diagnostic.Warning, false},
		{"severity by id", &Config{Severity: map[string]string{"T0001": "error"}}, d1, diagnostic.Error, true},
		{"severity by rule name", &Config{Severity: map[string]string{"rule2": "info"}}, d2, diagnostic.Info, true},
		{"id wins over rule name", &Config{Severity: map[string]string{"rule1": "info", "T0001": "error"}}, d1, diagnostic.Error, true},
		{"none disables", &Config{Severity: map[string]string{"rule1": "none"}}, d1, diagnostic.Warning, false},
		{"rules off", &Config{Rules: map[string]bool{"T0002": false}}, d2, diagnostic.Warning, false},
		{"rules on enables opt-in", &Config{Rules: map[string]bool{"rule3": true}}, d3, diagnostic.Warning, true},
		{"default false", &Config{Rules: map[string]bool{"default": false}}, d1, diagnostic.Warning, false},
		{"default true keeps opt-in off", &Config{Rules: map[string]bool{"default": true}}, d3, diagnostic.Warning, false},
		{"invalid severity keeps default", &Config{Severity: map[string]string{"T0001": "loud"}}, d1, diagnostic.Warning, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
			r := NewResolver(tt.config, rules, logger)
			sev, enabled := r.Effective(tt.desc)
			if sev != tt.wantSev || enabled != tt.wantEnabled {
				t.Errorf("Effective(%s) = (%v, %v), want (%v, %v)", tt.desc.ID, sev, enabled, tt.wantSev, tt.wantEnabled)
			}
		})
	}
}

func TestResolverWarnsOnUnknownKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	cfg := &Config{
		Rules:    map[string]bool{"rulee1": false},
		Severity: map[string]string{"T9999": "error"},
	}
	rules := mockRules()
	r := NewResolver(cfg, rules, logger)

	out := buf.String()
	if !strings.Contains(out, "config.key.unknown") {
		t.Errorf("expected unknown key warning, got %q", out)
	}
	if !strings.Contains(out, "suggestion=rule1") {
		t.Errorf("expected suggestion for rulee1, got %q", out)
	}

	// The misspelled key is ignored, so rule1 keeps its default.
	if _, enabled := r.Effective(rules[0].Descriptors[0]); !enabled {
		t.Errorf("rule1 disabled by a misspelled key")
	}
}
