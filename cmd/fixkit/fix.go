package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spechtlabs/fixkit/analyzers"
	"github.com/spechtlabs/fixkit/fixall"
	"github.com/spechtlabs/fixkit/workspace"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] [packages]",
	Short: "Apply fixes in batch",
	Long: "Fix every fixable diagnostic in scope. Fixes are computed against one snapshot, " +
		"applied together and written back only for documents that changed.",
	RunE: runFix,
}

var fixScope = fixall.ScopeSolution

func init() {
	fixCmd.Flags().Var(&fixScope, "scope", "what to fix (solution|project|document)")
	fixCmd.Flags().String("file", "", "document to fix with --scope document or project")
	fixCmd.Flags().StringSlice("id", nil, "fix only these descriptor ids")
	fixCmd.Flags().String("key", "", "equivalence key of the fix to apply at every site")
	fixCmd.Flags().Bool("dry-run", false, "report what would change without writing files")
	fixCmd.Flags().Bool("reformat", true, "run the formatter over fixed code when a fix asks for it")
}

func runFix(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, args)
	if err != nil {
		return err
	}
	req, err := fixRequest(cmd, s.solution)
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetBool("reformat")
	if err != nil {
		return err
	}

	engine, err := fixall.New(s.dispatcher, analyzers.Providers(s.rules),
		fixall.WithLogger(s.log),
		fixall.WithParallelism(s.cfg.Fix.Parallelism),
		fixall.WithMaxIterations(s.cfg.Fix.MaxIterations),
		fixall.WithFormat(format),
	)
	if err != nil {
		return err
	}

	fixed, res, err := engine.FixAll(cmd.Context(), s.solution, req)
	if err != nil {
		return err
	}

	dry, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}
	if !dry {
		if err := write(fixed.ChangedDocuments(s.solution)); err != nil {
			return err
		}
	}

	p, err := s.printer(cmd, fixed)
	if err != nil {
		return err
	}
	return p.FixResult(res)
}

// fixRequest builds the request for the --scope, --file, --id and --key
// flags. Project and document scopes are located through --file.
func fixRequest(cmd *cobra.Command, sol *workspace.Solution) (fixall.Request, error) {
	req := fixall.Request{Scope: fixScope}
	var err error
	if req.IDs, err = cmd.Flags().GetStringSlice("id"); err != nil {
		return req, err
	}
	if req.EquivalenceKey, err = cmd.Flags().GetString("key"); err != nil {
		return req, err
	}
	if fixScope == fixall.ScopeSolution {
		return req, nil
	}

	file, err := cmd.Flags().GetString("file")
	if err != nil {
		return req, err
	}
	if file == "" {
		return req, fmt.Errorf("--scope %s needs --file", fixScope)
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return req, err
	}
	for _, p := range sol.Projects() {
		if doc, ok := p.DocumentByPath(abs); ok {
			req.Project, req.Document = p.ID(), doc.ID()
			return req, nil
		}
	}
	return req, fmt.Errorf("%s is not part of any loaded project", file)
}

// write stores changed documents, keeping file permissions.
func write(docs []*workspace.Document) error {
	for _, doc := range docs {
		mode := os.FileMode(0o644)
		if fi, err := os.Stat(doc.Path()); err == nil {
			mode = fi.Mode().Perm()
		}
		if err := os.WriteFile(doc.Path(), []byte(doc.Text()), mode); err != nil {
			return fmt.Errorf("write %s: %w", doc.Path(), err)
		}
	}
	return nil
}
