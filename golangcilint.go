// Package fixkit provides golangci-lint v2 module plugin integration.
//
// This file registers fixkit as a module plugin for golangci-lint v2.
// To use fixkit with golangci-lint, you need to build a custom binary:
//
//  1. Create a .custom-gcl.yml file referencing this module
//  2. Run: golangci-lint custom
//  3. Use the generated ./custom-gcl binary
//
// Only the Go rules run under golangci-lint; each becomes its own analyzer
// with suggested fixes, so `golangci-lint run --fix` applies them.
//
// See https://golangci-lint.run/plugins/module-plugins/ for more details.
package fixkit

import (
	"github.com/golangci/plugin-module-register/register"
	"golang.org/x/tools/go/analysis"

	"github.com/spechtlabs/fixkit/analyzers"
	"github.com/spechtlabs/fixkit/dispatch"
	"github.com/spechtlabs/fixkit/internal/config"
)

//nolint:gochecknoinits // Required for golangci-lint module plugin registration
func init() {
	register.Plugin("fixkit", New)
}

// Settings allows configuring which rules run and how severe they are.
type Settings struct {
	// DisabledRules is a list of rule names or descriptor ids to disable.
	DisabledRules []string `json:"disabled-rules"`
	// Severity overrides severities by rule name or descriptor id. "none"
	// disables a descriptor.
	Severity map[string]string `json:"severity"`
	// Nolint keeps fixkit's own //nolint handling. golangci-lint already
	// filters its nolint directives, so it is off by default.
	Nolint bool `json:"nolint"`
}

// Config converts the settings into the shape of a .fixkit.yaml file.
func (s Settings) Config() *config.Config {
	cfg := config.Default()
	for _, name := range s.DisabledRules {
		cfg.Rules[name] = false
	}
	cfg.Severity = s.Severity
	return cfg
}

type fixkitPlugin struct {
	settings Settings
}

// New creates a new fixkit plugin instance.
func New(conf any) (register.LinterPlugin, error) {
	s, err := register.DecodeSettings[Settings](conf)
	if err != nil {
		return nil, err
	}
	return &fixkitPlugin{settings: s}, nil
}

// BuildAnalyzers returns the list of analyzers to run.
func (p *fixkitPlugin) BuildAnalyzers() ([]*analysis.Analyzer, error) {
	all := analyzers.All()
	cfg := p.settings.Config()
	resolver := config.NewResolver(cfg, all, nil)

	return analyzers.Analyzers(cfg.FilterRules(all),
		dispatch.WithSeverity(resolver),
		dispatch.WithSuppression(p.settings.Nolint),
	), nil
}

// GetLoadMode returns the load mode required by the analyzers.
// Several rules query types, so we need TypesInfo mode.
func (p *fixkitPlugin) GetLoadMode() string {
	return register.LoadModeTypesInfo
}
