package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spechtlabs/fixkit/analyzers"
	"github.com/spechtlabs/fixkit/internal/config"
)

var rulesCmd = &cobra.Command{
	Use:   "rules [name]",
	Short: "List rules and their descriptors",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRules,
}

func runRules(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	if len(args) == 1 {
		r, ok := analyzers.Lookup(args[0])
		if !ok {
			return fmt.Errorf("unknown rule %q", args[0])
		}
		_, err := fmt.Fprintf(w, "%s (%s)\n\n%s\n", r.Name, strings.Join(r.Languages, ", "), r.Doc)
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	resolver := config.NewResolver(cfg, analyzers.All(), logger(cmd))
	fixable := map[string]bool{}
	for _, p := range analyzers.Providers(analyzers.All()) {
		for _, id := range p.FixableIDs() {
			fixable[id] = true
		}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRULE\tSEVERITY\tFIX\tLANGUAGES\tTITLE")
	for _, r := range analyzers.All() {
		for _, d := range r.Descriptors {
			sev, on := resolver.Effective(d)
			state := sev.String()
			if !on || !cfg.IsEnabled(r.Name) {
				state = "off"
			}
			fix := ""
			if fixable[d.ID] {
				fix = "yes"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", d.ID, r.Name, state, fix, strings.Join(r.Languages, ","), d.Title)
		}
	}
	return tw.Flush()
}
