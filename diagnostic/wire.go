package diagnostic

import (
	"encoding/json"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/spechtlabs/fixkit/syntax"
)

// Record is the wire shape of a diagnostic.
type Record struct {
	ID         string     `json:"id" msgpack:"id"`
	Severity   Severity   `json:"severity" msgpack:"severity"`
	Message    string     `json:"message" msgpack:"message"`
	Span       RecordSpan `json:"span" msgpack:"span"`
	Properties Properties `json:"properties" msgpack:"properties"`
}

// RecordSpan locates a [Record].
type RecordSpan struct {
	File   string `json:"file" msgpack:"file"`
	Start  int    `json:"start" msgpack:"start"`
	Length int    `json:"length" msgpack:"length"`
}

// Record returns the wire form of d.
func (d Diagnostic) Record() Record {
	return Record{
		ID:       d.ID,
		Severity: d.Severity,
		Message:  d.Message,
		Span: RecordSpan{
			File:   d.Location.Path,
			Start:  d.Location.Span.Start,
			Length: d.Location.Span.Length,
		},
		Properties: d.Properties,
	}
}

// Location returns the location the record points at.
func (r Record) Location() Location {
	return Location{Path: r.Span.File, Span: syntax.Span{Start: r.Span.Start, Length: r.Span.Length}}
}

func records(ds []Diagnostic) []Record {
	out := make([]Record, len(ds))
	for i, d := range ds {
		out[i] = d.Record()
	}
	return out
}

// EncodeJSON writes ds as an indented JSON array of records.
func EncodeJSON(w io.Writer, ds []Diagnostic) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records(ds))
}

// EncodeMsgpack writes ds as a msgpack array of records.
func EncodeMsgpack(w io.Writer, ds []Diagnostic) error {
	return msgpack.NewEncoder(w).Encode(records(ds))
}

// DecodeMsgpack reads records written by [EncodeMsgpack].
func DecodeMsgpack(r io.Reader) ([]Record, error) {
	var out []Record
	if err := msgpack.NewDecoder(r).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
