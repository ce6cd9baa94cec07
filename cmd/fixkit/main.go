// Command fixkit runs the fixkit rules over Go packages and C# projects and
// applies their fixes in batch.
//
// Usage:
//
//	# Report diagnostics
//	fixkit lint ./...
//
//	# Apply every available fix
//	fixkit fix ./...
//
//	# Apply one kind of fix to one file
//	fixkit fix --scope document --file internal/a.go --id SL1001 ./internal/...
//
// Configuration:
//
// Create a .fixkit.yaml file in your project root:
//
//	rules:
//	  todotracker: false
//	severity:
//	  SL1004: warning
//	  nopanic: none
//	exclude:
//	  - "**/*_gen.go"
//	fix:
//	  max-iterations: 8
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/spechtlabs/fixkit/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "fixkit",
	Short:         "Static analysis with batch code fixes",
	Long:          `fixkit reports rule diagnostics for Go and C# code and fixes them in batch.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "configuration file (default: .fixkit.yaml found upwards)")
	rootCmd.PersistentFlags().StringP("dir", "C", ".", "directory to load projects from")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log engine events to stderr")
	rootCmd.PersistentFlags().Bool("tests", false, "include _test.go files")
	rootCmd.PersistentFlags().StringSlice("lang", nil, "load only these languages (go, csharp)")
	rootCmd.PersistentFlags().StringSlice("rule", nil, "run only these rules (name or id)")
}

func main() {
	rootCmd.Version = version.Short()

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errFindings) {
			fmt.Fprintf(os.Stderr, "fixkit: %v\n", err)
		}
		os.Exit(1)
	}
}

func logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
