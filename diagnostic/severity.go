package diagnostic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrUnknownSeverity is returned when parsing an unrecognized severity name.
var ErrUnknownSeverity = errors.New("diagnostic: unknown severity")

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// Hidden diagnostics are computed and fixable but not shown by default.
	Hidden Severity = iota
	Info
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", uint8(s))
}

// ParseSeverity parses a severity name, case-insensitively.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "hidden":
		return Hidden, nil
	case "info", "suggestion":
		return Info, nil
	case "warning", "warn":
		return Warning, nil
	case "error":
		return Error, nil
	}
	return Hidden, fmt.Errorf("%w: %q", ErrUnknownSeverity, name)
}

func (s Severity) MarshalText() ([]byte, error) {
	if s > Error {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSeverity, uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

var (
	_ msgpack.CustomEncoder = Severity(0)
	_ msgpack.CustomDecoder = (*Severity)(nil)
)

func (s Severity) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(s.String())
}

func (s *Severity) DecodeMsgpack(dec *msgpack.Decoder) error {
	name, err := dec.DecodeString()
	if err != nil {
		return err
	}
	return s.UnmarshalText([]byte(name))
}
