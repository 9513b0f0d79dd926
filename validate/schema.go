package validate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/carlodf/tabval/coerce"
)

// Field declares how one record key is coerced.
type Field struct {
	Name      string `json:"name" yaml:"name"`
	ValueType string `json:"valueType" yaml:"valueType"`
}

// Schema is an ordered list of fields. A nil or empty schema coerces
// nothing.
type Schema []Field

// Names returns the field names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Document is a schema file: the fields plus raw foreign-key values as
// written in the file. Foreign-key values stay YAML nodes until the field
// type is known, so an unquoted 2013-11-13 or 007 keeps its source text.
type Document struct {
	Fields         Schema                 `yaml:"fields"`
	RawForeignKeys map[string][]yaml.Node `yaml:"foreignKeys"`
}

// LoadSchema reads a YAML or JSON schema document. Two shapes are
// accepted: a bare list of fields, or a mapping with "fields" and an
// optional "foreignKeys" mapping from field name to allowed values.
func LoadSchema(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	doc := &Document{}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	node := &root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	switch node.Kind {
	case yaml.SequenceNode:
		err = node.Decode(&doc.Fields)
	case yaml.MappingNode:
		err = node.Decode(doc)
	default:
		err = errors.New("expected a list of fields or a mapping with \"fields\"")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	if err := doc.check(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	return doc, nil
}

// LoadSchemaFile opens path and parses it with LoadSchema.
func LoadSchemaFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := LoadSchema(f)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	return doc, nil
}

// ForeignKeys coerces the raw foreign-key values of each field with that
// field's own coercion, so members compare equal to coerced record values.
// A nil registry means coerce.Default.
func (d *Document) ForeignKeys(reg *coerce.Registry) (ForeignKeys, error) {
	if len(d.RawForeignKeys) == 0 {
		return nil, nil
	}
	if reg == nil {
		reg = coerce.Default
	}
	types := make(map[string]string, len(d.Fields))
	for _, f := range d.Fields {
		types[f.Name] = f.ValueType
	}
	fks := make(ForeignKeys, len(d.RawForeignKeys))
	for name, raw := range d.RawForeignKeys {
		typ := types[name]
		fn := reg.Resolve(typ)
		set := NewValueSet()
		for i := range raw {
			v, err := rawValue(&raw[i], coerce.ParseKind(typ) == coerce.KindJSON)
			if err != nil {
				return nil, fmt.Errorf("foreign key %q: %w", name, err)
			}
			cv, err := fn(v)
			if err != nil {
				return nil, fmt.Errorf("foreign key %q: %w", name, err)
			}
			set.Add(cv)
		}
		fks[name] = set
	}
	return fks, nil
}

// rawValue returns the source text of a scalar node, or nil for a YAML
// null. Structured values are decoded only for JSON fields, where a
// quoted string is still read as JSON text.
func rawValue(n *yaml.Node, structured bool) (any, error) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind == yaml.ScalarNode {
		switch {
		case n.ShortTag() == "!!null":
			return nil, nil
		case structured && n.ShortTag() != "!!str":
			var v any
			if err := n.Decode(&v); err != nil {
				return nil, err
			}
			return v, nil
		}
		return n.Value, nil
	}
	if !structured {
		return nil, fmt.Errorf("value at line %d is not a scalar", n.Line)
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// check rejects unnamed and duplicate fields, and foreign keys on fields
// the schema does not declare.
func (d *Document) check() error {
	names := make(map[string]struct{}, len(d.Fields))
	for i, f := range d.Fields {
		if f.Name == "" {
			return fmt.Errorf("field %d has no name", i)
		}
		if _, ok := names[f.Name]; ok {
			return fmt.Errorf("duplicate field %s in schema %q", f.Name, d.Fields.Names())
		}
		names[f.Name] = struct{}{}
	}
	for name := range d.RawForeignKeys {
		if _, ok := names[name]; !ok {
			return fmt.Errorf("foreign key on undeclared field %q", name)
		}
	}
	return nil
}
