package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spechtlabs/fixkit/analyzers"
	"github.com/spechtlabs/fixkit/dispatch"
	"github.com/spechtlabs/fixkit/internal/config"
	"github.com/spechtlabs/fixkit/internal/loader"
	"github.com/spechtlabs/fixkit/internal/output"
	"github.com/spechtlabs/fixkit/rule"
	"github.com/spechtlabs/fixkit/workspace"
)

// errFindings makes the process exit non-zero without printing an error.
var errFindings = errors.New("findings reported")

// session is the state shared by lint and fix.
type session struct {
	cfg        *config.Config
	rules      []*rule.Rule
	dispatcher *dispatch.Dispatcher
	solution   *workspace.Solution
	dir        string
	log        *slog.Logger
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// selectRules applies the configuration and the --rule flag.
func selectRules(cmd *cobra.Command, cfg *config.Config) ([]*rule.Rule, error) {
	rules := cfg.FilterRules(analyzers.All())
	only, err := cmd.Flags().GetStringSlice("rule")
	if err != nil {
		return nil, err
	}
	if len(only) == 0 {
		return rules, nil
	}

	var out []*rule.Rule
	for _, key := range only {
		i := slices.IndexFunc(analyzers.All(), func(r *rule.Rule) bool {
			_, declares := r.Descriptor(key)
			return r.Name == key || declares
		})
		if i < 0 {
			return nil, fmt.Errorf("unknown rule %q (see fixkit rules)", key)
		}
		if r := analyzers.All()[i]; !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func newSession(cmd *cobra.Command, patterns []string) (*session, error) {
	log := logger(cmd)
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if p := cfg.Path(); p != "" {
		log.Debug("config.loaded", "path", p)
	}

	rules, err := selectRules(cmd, cfg)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, errors.New("no rules enabled (check your .fixkit.yaml configuration)")
	}

	d, err := dispatch.New(rules,
		dispatch.WithSeverity(config.NewResolver(cfg, analyzers.All(), log)),
		dispatch.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return nil, err
	}
	tests, err := cmd.Flags().GetBool("tests")
	if err != nil {
		return nil, err
	}
	langs, err := cmd.Flags().GetStringSlice("lang")
	if err != nil {
		return nil, err
	}
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	l := &loader.Loader{Dir: dir, Tests: tests, Exclude: cfg.Exclude, Languages: langs, Logger: log}
	sol, err := l.Solution(cmd.Context(), patterns...)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, rules: rules, dispatcher: d, solution: sol, dir: abs, log: log}, nil
}

func (s *session) printer(cmd *cobra.Command, sol *workspace.Solution) (*output.Printer, error) {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return nil, err
	}
	var on bool
	switch mode {
	case "auto":
		on = !color.NoColor
	case "on", "always":
		on = true
	case "off", "never":
	default:
		return nil, fmt.Errorf("invalid --color %q (auto|on|off)", mode)
	}
	return output.New(cmd.OutOrStdout(), sol, output.Options{Color: on, Base: s.dir}), nil
}
