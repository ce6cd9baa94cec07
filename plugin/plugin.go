//go:build ignore
// +build ignore

// Package main provides a legacy golangci-lint plugin for the fixkit Go rules.
//
// Build as a plugin:
//
//	go build -buildmode=plugin -o fixkit.so ./plugin
//
// Then configure golangci-lint:
//
//	linters-settings:
//	  custom:
//	    fixkit:
//	      path: ./fixkit.so
//	      description: fixkit rules with suggested fixes
//	      original-url: github.com/spechtlabs/fixkit
//
// Prefer the module plugin registered by the root package; this entry point
// only exists for golangci-lint versions without module plugins.
//
// NOTE: This file is excluded from normal builds. Use -buildmode=plugin explicitly.
package main

import (
	"golang.org/x/tools/go/analysis"

	"github.com/spechtlabs/fixkit/analyzers"
	"github.com/spechtlabs/fixkit/internal/config"
)

// AnalyzerPlugin exports the analyzers for golangci-lint plugin system.
var AnalyzerPlugin analyzerPlugin

type analyzerPlugin struct{}

// GetAnalyzers returns the Go rules enabled by .fixkit.yaml.
func (analyzerPlugin) GetAnalyzers() []*analysis.Analyzer {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	return analyzers.Analyzers(cfg.FilterRules(analyzers.All()))
}

// main is a no-op; this package is meant to be built with -buildmode=plugin.
func main() {}
