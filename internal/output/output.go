// Package output writes diagnostics and fix results for the command line.
package output

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/fixall"
	"github.com/spechtlabs/fixkit/workspace"
)

// Options configures text output.
type Options struct {
	// Color enables ANSI colors.
	Color bool
	// Base makes paths relative to this directory when set.
	Base string
}

// Printer writes diagnostics of one solution.
type Printer struct {
	w    io.Writer
	sol  *workspace.Solution
	opts Options

	path     *color.Color
	id       *color.Color
	severity map[diagnostic.Severity]*color.Color
	applied  *color.Color
	skipped  *color.Color
}

// New returns a printer resolving line numbers against sol.
func New(w io.Writer, sol *workspace.Solution, opts Options) *Printer {
	p := &Printer{
		w:    w,
		sol:  sol,
		opts: opts,
		path: color.New(color.Bold),
		id:   color.New(color.FgCyan),
		severity: map[diagnostic.Severity]*color.Color{
			diagnostic.Hidden:  color.New(color.Faint),
			diagnostic.Info:    color.New(color.FgBlue, color.Bold),
			diagnostic.Warning: color.New(color.FgYellow, color.Bold),
			diagnostic.Error:   color.New(color.FgRed, color.Bold),
		},
		applied: color.New(color.FgGreen),
		skipped: color.New(color.FgYellow),
	}
	for _, c := range p.colors() {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *Printer) colors() []*color.Color {
	out := []*color.Color{p.path, p.id, p.applied, p.skipped}
	for _, c := range p.severity {
		out = append(out, c)
	}
	return out
}

// Diagnostics writes ds in format f.
func (p *Printer) Diagnostics(f Format, ds []diagnostic.Diagnostic) error {
	switch f {
	case FormatJSON:
		return diagnostic.EncodeJSON(p.w, p.relative(ds))
	case FormatMsgpack:
		return diagnostic.EncodeMsgpack(p.w, p.relative(ds))
	case FormatText:
		for _, d := range ds {
			if err := p.text(d); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownFormat, f)
}

// text writes one diagnostic as
//
//	path:line:col: severity ID: message
func (p *Printer) text(d diagnostic.Diagnostic) error {
	line, col := p.position(d.Location)
	sev := p.severity[d.Severity]
	if sev == nil {
		sev = p.severity[diagnostic.Warning]
	}
	_, err := fmt.Fprintf(p.w, "%s: %s %s: %s\n",
		p.path.Sprintf("%s:%d:%d", p.display(d.Location.Path), line, col),
		sev.Sprint(d.Severity),
		p.id.Sprint(d.ID),
		d.Message,
	)
	return err
}

func (p *Printer) position(loc diagnostic.Location) (line, col int) {
	if p.sol != nil {
		for _, doc := range p.sol.Documents() {
			if doc.Path() == loc.Path {
				return doc.Tree().Position(loc.Span.Start)
			}
		}
	}
	return 0, 0
}

func (p *Printer) display(path string) string {
	if p.opts.Base == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(p.opts.Base, path)
	if err != nil {
		return path
	}
	return rel
}

func (p *Printer) relative(ds []diagnostic.Diagnostic) []diagnostic.Diagnostic {
	if p.opts.Base == "" {
		return ds
	}
	out := make([]diagnostic.Diagnostic, len(ds))
	for i, d := range ds {
		loc := d.Location
		loc.Path = p.display(loc.Path)
		out[i] = d.WithLocation(loc)
	}
	return out
}

// FixResult writes a per-document summary of a fix-all run.
func (p *Printer) FixResult(res *fixall.Result) error {
	for _, d := range res.Documents {
		if len(d.Applied) == 0 && len(d.Skipped) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(p.w, "%s: %s", p.path.Sprint(p.display(d.Path)),
			p.applied.Sprintf("%d fixed", len(d.Applied))); err != nil {
			return err
		}
		if len(d.Skipped) > 0 {
			if _, err := fmt.Fprintf(p.w, ", %s", p.skipped.Sprintf("%d skipped", len(d.Skipped))); err != nil {
				return err
			}
		}
		if d.Truncated {
			if _, err := fmt.Fprint(p.w, ", stopped after ", d.Iterations, " rounds"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(p.w); err != nil {
			return err
		}
		for _, s := range d.Skipped {
			if _, err := fmt.Fprintf(p.w, "  %s %s: %s\n", p.id.Sprint(s.ID), s.Span, s.Reason); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(p.w, "%d fixed, %d skipped\n", res.Applied(), res.Skipped())
	return err
}
