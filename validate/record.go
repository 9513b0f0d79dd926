package validate

import (
	"bytes"
	"errors"
	"iter"
	"slices"

	json "github.com/goccy/go-json"
)

// Record is an ordered mapping from field name to value.
//
// Keys keep their first insertion order; setting an existing key replaces
// its value in place. The zero value is not usable, use NewRecord.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// RecordOf builds a record from alternating key/value pairs:
//
//	RecordOf("a", "x", "b", "1")
//
// It panics on an odd number of arguments or a non-string key.
func RecordOf(kv ...any) *Record {
	if len(kv)%2 != 0 {
		panic("validate: RecordOf needs key/value pairs")
	}
	r := &Record{keys: make([]string, 0, len(kv)/2), values: make(map[string]any, len(kv)/2)}
	for i := 0; i < len(kv); i += 2 {
		r.Set(kv[i].(string), kv[i+1])
	}
	return r
}

// Set stores v under key and returns r.
func (r *Record) Set(key string, v any) *Record {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
	return r
}

// Get returns the value under key and whether the key is present.
func (r *Record) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Keys returns a copy of the keys in order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.keys)
}

// Len reports the number of fields.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Clone returns a shallow copy; values are shared, not deep-copied.
func (r *Record) Clone() *Record {
	if r == nil {
		return NewRecord()
	}
	c := &Record{keys: slices.Clone(r.keys), values: make(map[string]any, len(r.values))}
	for k, v := range r.values {
		c.values[k] = v
	}
	return c
}

// All iterates fields in order.
func (r *Record) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if r == nil {
			return
		}
		for _, k := range r.keys {
			if !yield(k, r.values[k]) {
				return
			}
		}
	}
}

// Map returns the fields as an unordered map.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, r.Len())
	for k, v := range r.All() {
		m[k] = v
	}
	return m
}

// MarshalJSON encodes the record as a JSON object in key order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

var errNotObject = errors.New("validate: record must be a JSON object")

// UnmarshalJSON decodes a JSON object keeping the key order of the input.
func (r *Record) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errNotObject
	}
	*r = Record{values: make(map[string]any)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		r.Set(key, v)
	}
	_, err = dec.Token()
	return err
}
