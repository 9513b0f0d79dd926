// Package validate coerces records against a schema and enforces
// foreign-key constraints, failing fast on the first invalid value.
//
// A Validator is compiled once from a Schema and optional ForeignKeys and
// is read-only afterwards. Records flow through it in one of three ways:
//
//	out, err := v.Apply(rec)             // one record, stateless
//
//	s := v.NewStream()                   // push, one record at a time
//	out, err := s.Push(rec)
//	err = s.End()
//
//	it := v.Validate(src)                // pull, over any Source
//	for it.Next() { use(it.Record()) }
//	err := it.Err()
//
// Validation errors are returned unwrapped so their message is exactly
// the coercion or foreign-key message.
package validate

import (
	"log/slog"
	"strconv"

	"github.com/carlodf/tabval/coerce"
	"github.com/carlodf/tabval/internal/logger"
	"github.com/carlodf/tabval/transform"
)

// Option configures a Validator.
type Option func(*Validator)

// WithRegistry resolves value types against reg instead of coerce.Default.
func WithRegistry(reg *coerce.Registry) Option {
	return func(v *Validator) {
		if reg != nil {
			v.registry = reg
		}
	}
}

// WithLogger sets the logger used to report rejected values at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// Validator applies a compiled schema to records.
// It is safe for concurrent use; streams built from it are not.
type Validator struct {
	registry *coerce.Registry
	logger   *slog.Logger
	fields   []boundField
}

// boundField is a schema field with its coercion resolved up front.
type boundField struct {
	Field
	coerce coerce.Func
	fk     *ValueSet
}

// New compiles schema and fks. A nil or empty schema yields a pass-through
// validator; a nil fks map means no constraints.
func New(schema Schema, fks ForeignKeys, opts ...Option) *Validator {
	v := &Validator{
		registry: coerce.Default,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.fields = make([]boundField, len(schema))
	for i, f := range schema {
		v.fields[i] = boundField{
			Field:  f,
			coerce: v.registry.Resolve(f.ValueType),
			fk:     fks[f.Name],
		}
	}
	return v
}

// Schema returns a copy of the compiled schema.
func (v *Validator) Schema() Schema {
	s := make(Schema, len(v.fields))
	for i, f := range v.fields {
		s[i] = f.Field
	}
	return s
}

// Apply coerces rec field by field in schema order and returns a new
// record; rec itself is never modified.
//
// Keys outside the schema are copied unchanged. A schema field missing
// from rec is coerced as nil; when that succeeds with a non-nil value the
// field is appended, otherwise the output keeps the input's key set. The
// first coercion or foreign-key failure is returned with a nil record.
func (v *Validator) Apply(rec *Record) (*Record, error) {
	out := rec.Clone()
	for _, f := range v.fields {
		raw, present := rec.Get(f.Name)
		val, err := f.coerce(raw)
		if err != nil {
			v.logger.Debug("value rejected", logger.Field(f.Name), slog.String("type", f.ValueType), logger.Error(err))
			return nil, err
		}
		if f.fk != nil && !f.fk.Contains(val) {
			err := &ForeignKeyError{Field: f.Name, Value: val}
			v.logger.Debug("foreign key violation", logger.Field(f.Name), logger.Error(err))
			return nil, err
		}
		if present || val != nil {
			out.Set(f.Name, val)
		}
	}
	return out, nil
}

// Map adapts the validator to transform.Mapper[*Record]. Fields are keyed
// by the decoder's header names, or by their position ("0", "1", …) when
// the decoder provides none.
func (v *Validator) Map(e transform.Extractor) (*Record, error) {
	return v.Apply(RecordFromExtractor(e))
}

// RecordFromExtractor copies a decoded row into a Record of strings.
func RecordFromExtractor(e transform.Extractor) *Record {
	names := e.Names()
	rec := NewRecord()
	for i := range e.Len() {
		val, _ := e.ByIndex(i)
		key := strconv.Itoa(i)
		if i < len(names) {
			key = names[i]
		}
		rec.Set(key, val)
	}
	return rec
}

// ExtractRecord is a transform.Mapper that converts rows without
// validating them, for use with FromTransform.
func ExtractRecord(e transform.Extractor) (*Record, error) {
	return RecordFromExtractor(e), nil
}
