package diagnostic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/vmihailenco/msgpack/v5"
)

// Property is one entry of a [Properties] bag.
type Property struct {
	Key   string
	Value string
}

// Properties is an immutable, insertion-ordered string map. Rules use it to
// hand data to their fix providers. The zero value is empty.
type Properties struct {
	pairs []Property
}

// NewProperties builds a bag from alternating keys and values. A trailing key
// without a value maps to "".
func NewProperties(kv ...string) Properties {
	var p Properties
	for i := 0; i < len(kv); i += 2 {
		v := ""
		if i+1 < len(kv) {
			v = kv[i+1]
		}
		p = p.With(kv[i], v)
	}
	return p
}

// With returns a copy with key set to value. An existing key keeps its
// position.
func (p Properties) With(key, value string) Properties {
	out := make([]Property, len(p.pairs), len(p.pairs)+1)
	copy(out, p.pairs)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return Properties{pairs: out}
		}
	}
	return Properties{pairs: append(out, Property{Key: key, Value: value})}
}

// Get returns the value for key.
func (p Properties) Get(key string) (string, bool) {
	for _, kv := range p.pairs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Len returns the number of entries.
func (p Properties) Len() int { return len(p.pairs) }

// Keys returns the keys in insertion order.
func (p Properties) Keys() []string {
	keys := make([]string, len(p.pairs))
	for i, kv := range p.pairs {
		keys[i] = kv.Key
	}
	return keys
}

// All iterates over the entries in insertion order.
func (p Properties) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, kv := range p.pairs {
			if !yield(kv.Key, kv.Value) {
				return
			}
		}
	}
}

func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range p.pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p *Properties) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*p = Properties{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("diagnostic: properties must be a JSON object, got %v", tok)
	}

	var out Properties
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("diagnostic: property key %v is not a string", kt)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("diagnostic: property %q: %w", key, err)
		}
		out = out.With(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = out
	return nil
}

var (
	_ msgpack.CustomEncoder = Properties{}
	_ msgpack.CustomDecoder = (*Properties)(nil)
)

func (p Properties) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(len(p.pairs)); err != nil {
		return err
	}
	for _, kv := range p.pairs {
		if err := enc.EncodeString(kv.Key); err != nil {
			return err
		}
		if err := enc.EncodeString(kv.Value); err != nil {
			return err
		}
	}
	return nil
}

func (p *Properties) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	var out Properties
	for range max(n, 0) {
		key, err := dec.DecodeString()
		if err != nil {
			return err
		}
		value, err := dec.DecodeString()
		if err != nil {
			return err
		}
		out = out.With(key, value)
	}
	*p = out
	return nil
}
