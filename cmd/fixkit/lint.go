package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/internal/output"
)

var lintCmd = &cobra.Command{
	Use:   "lint [flags] [packages]",
	Short: "Report diagnostics",
	Long:  "Load the Go packages matching the patterns (default ./...) and every C# project under --dir, run the enabled rules and print their diagnostics.",
	RunE:  runLint,
}

var (
	lintFormat = output.FormatText
	failOn     = diagnostic.Warning
)

func init() {
	lintCmd.Flags().Var(&lintFormat, "format", "output format (text|json|msgpack)")
	lintCmd.Flags().Var(&severityFlag{&failOn}, "fail-on", "lowest severity that makes the command fail")
	lintCmd.Flags().Bool("hidden", false, "include hidden diagnostics")
}

func runLint(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, args)
	if err != nil {
		return err
	}

	diags, err := s.dispatcher.AnalyzeSolution(cmd.Context(), s.solution)
	if err != nil {
		return err
	}

	hidden, err := cmd.Flags().GetBool("hidden")
	if err != nil {
		return err
	}
	shown := diags[:0:0]
	failed := false
	for _, d := range diags {
		if d.Severity == diagnostic.Hidden && !hidden {
			continue
		}
		shown = append(shown, d)
		if d.Severity >= failOn {
			failed = true
		}
	}

	p, err := s.printer(cmd, s.solution)
	if err != nil {
		return err
	}
	if err := p.Diagnostics(lintFormat, shown); err != nil {
		return err
	}
	if failed {
		return errFindings
	}
	return nil
}

// severityFlag adapts a severity to pflag.Value.
type severityFlag struct{ s *diagnostic.Severity }

var (
	_ pflag.Value = (*severityFlag)(nil)
	_ pflag.Value = (*output.Format)(nil)
)

func (f *severityFlag) String() string {
	if f.s == nil {
		return ""
	}
	return f.s.String()
}

func (f *severityFlag) Set(v string) error {
	s, err := diagnostic.ParseSeverity(v)
	if err != nil {
		return err
	}
	*f.s = s
	return nil
}

func (*severityFlag) Type() string { return "severity" }
