package diagnostic

import (
	"fmt"

	"github.com/spechtlabs/fixkit/syntax"
)

// Descriptor is the static metadata of one kind of finding.
type Descriptor struct {
	ID               string
	Title            string
	MessageFormat    string
	Category         string
	DefaultSeverity  Severity
	EnabledByDefault bool
	HelpURL          string
}

func (d *Descriptor) String() string { return d.ID }

// Faulted is reported in place of a rule callback that panicked or called
// Fault. Its arguments are the rule name and the failure.
var Faulted = &Descriptor{
	ID:               "FK0001",
	Title:            "Rule faulted",
	MessageFormat:    "rule %s faulted: %v",
	Category:         "Internal",
	DefaultSeverity:  Warning,
	EnabledByDefault: true,
}

// Location is a span in one file.
type Location struct {
	Path string
	Span syntax.Span
}

func (l Location) String() string {
	return fmt.Sprintf("%s%s", l.Path, l.Span)
}

// Diagnostic is one reported finding. Values are never mutated; the With
// methods return modified copies.
type Diagnostic struct {
	Descriptor *Descriptor
	ID         string
	Message    string
	Severity   Severity
	Location   Location
	Properties Properties
}

// New creates a diagnostic for desc at loc with the descriptor's default
// severity. args fill the descriptor's message format.
func New(desc *Descriptor, loc Location, args ...any) Diagnostic {
	msg := desc.MessageFormat
	if len(args) > 0 {
		msg = fmt.Sprintf(desc.MessageFormat, args...)
	}
	return Diagnostic{
		Descriptor: desc,
		ID:         desc.ID,
		Message:    msg,
		Severity:   desc.DefaultSeverity,
		Location:   loc,
	}
}

// WithSeverity returns a copy reported at s.
func (d Diagnostic) WithSeverity(s Severity) Diagnostic {
	d.Severity = s
	return d
}

// WithLocation returns a copy anchored at loc.
func (d Diagnostic) WithLocation(loc Location) Diagnostic {
	d.Location = loc
	return d
}

// WithProperty returns a copy with key set to value.
func (d Diagnostic) WithProperty(key, value string) Diagnostic {
	d.Properties = d.Properties.With(key, value)
	return d
}

// Property returns the value stored under key.
func (d Diagnostic) Property(key string) (string, bool) {
	return d.Properties.Get(key)
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s [%s]", d.Location, d.Severity, d.Message, d.ID)
}
