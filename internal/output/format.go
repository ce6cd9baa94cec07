package output

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFormat is returned when parsing an unknown format name.
var ErrUnknownFormat = errors.New("output: unknown format")

// Format selects how diagnostics are written.
type Format uint8

const (
	FormatText Format = iota
	FormatJSON
	FormatMsgpack
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	case FormatMsgpack:
		return "msgpack"
	}
	return fmt.Sprintf("Format(%d)", f)
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "msgpack":
		return FormatMsgpack, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Set implements pflag.Value.
func (f *Format) Set(v string) error {
	p, err := ParseFormat(v)
	if err != nil {
		return err
	}
	*f = p
	return nil
}

// Type implements pflag.Value.
func (*Format) Type() string { return "format" }
