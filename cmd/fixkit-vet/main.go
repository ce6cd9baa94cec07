// Command fixkit-vet runs the fixkit Go rules as go/analysis analyzers.
//
// It speaks the go vet protocol, so it can be used standalone or as a vet
// tool, and applies suggested fixes with -fix.
//
// Usage:
//
//	# Standalone
//	fixkit-vet ./...
//
//	# Apply suggested fixes
//	fixkit-vet -fix ./...
//
//	# As a vet tool
//	go vet -vettool=$(which fixkit-vet) ./...
//
// Rules are enabled and disabled through .fixkit.yaml, as for the fixkit
// command. Severity overrides of "none" disable single descriptors.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/tools/go/analysis/multichecker"

	"github.com/spechtlabs/fixkit/analyzers"
	"github.com/spechtlabs/fixkit/dispatch"
	"github.com/spechtlabs/fixkit/internal/config"
	"github.com/spechtlabs/fixkit/internal/version"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "-version" || os.Args[1] == "--version" || os.Args[1] == "version") {
		fmt.Println(version.Info())
		fmt.Println("https://github.com/spechtlabs/fixkit")
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixkit-vet: error loading config: %v\n", err)
		os.Exit(1)
	}

	all := analyzers.All()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	enabled := analyzers.Analyzers(cfg.FilterRules(all),
		dispatch.WithSeverity(config.NewResolver(cfg, all, logger)),
		dispatch.WithLogger(logger),
		dispatch.WithExclude(cfg.Exclude...),
	)

	if len(enabled) == 0 {
		fmt.Fprintf(os.Stderr, "fixkit-vet: no Go rules enabled (check your .fixkit.yaml configuration)\n")
		os.Exit(1)
	}

	multichecker.Main(enabled...)
}
