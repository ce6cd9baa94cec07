package fixall

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownScope is returned when parsing an unknown scope name.
var ErrUnknownScope = errors.New("fixall: unknown scope")

// Scope selects which documents a fix-all run covers.
type Scope uint8

const (
	ScopeSolution Scope = iota
	ScopeProject
	ScopeDocument
)

func (s Scope) String() string {
	switch s {
	case ScopeSolution:
		return "solution"
	case ScopeProject:
		return "project"
	case ScopeDocument:
		return "document"
	}
	return fmt.Sprintf("Scope(%d)", s)
}

// ParseScope parses a scope name.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "solution", "all", "":
		return ScopeSolution, nil
	case "project", "package":
		return ScopeProject, nil
	case "document", "file":
		return ScopeDocument, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScope, s)
}

func (s Scope) MarshalText() ([]byte, error) {
	if s > ScopeDocument {
		return nil, fmt.Errorf("%w: %d", ErrUnknownScope, uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Scope) UnmarshalText(text []byte) error {
	v, err := ParseScope(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Set implements pflag.Value.
func (s *Scope) Set(v string) error { return s.UnmarshalText([]byte(v)) }

// Type implements pflag.Value.
func (*Scope) Type() string { return "scope" }
