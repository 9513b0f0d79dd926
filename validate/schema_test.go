package validate_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlodf/tabval/validate"
)

func TestLoadSchema_BareListJSON(t *testing.T) {
	t.Parallel()
	doc, err := validate.LoadSchema(strings.NewReader(`[
		{"name": "a", "valueType": "xsd:string"},
		{"name": "b", "valueType": "xsd:integer"}
	]`))
	require.NoError(t, err)
	assert.Equal(t, validate.Schema{
		{Name: "a", ValueType: "xsd:string"},
		{Name: "b", ValueType: "xsd:integer"},
	}, doc.Fields)

	fks, err := doc.ForeignKeys(nil)
	require.NoError(t, err)
	assert.Nil(t, fks)
}

func TestLoadSchema_YAMLWithForeignKeys(t *testing.T) {
	t.Parallel()
	doc, err := validate.LoadSchema(strings.NewReader(`
fields:
  - name: d
    valueType: xsd:date
  - name: n
    valueType: xsd:integer
foreignKeys:
  d: ["2013-11-13", "2013-11-14"]
  n: [1, "2.0"]
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "n"}, doc.Fields.Names())

	fks, err := doc.ForeignKeys(nil)
	require.NoError(t, err)
	require.Len(t, fks, 2)
	assert.True(t, fks["d"].Contains(time.Date(2013, 11, 14, 0, 0, 0, 0, time.UTC)))
	assert.False(t, fks["d"].Contains(time.Date(2013, 11, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, fks["n"].Contains(int64(2)))

	v := validate.New(doc.Fields, fks)
	_, err = v.Apply(validate.RecordOf("d", "2013-11-15", "n", "1"))
	assert.EqualError(t, err, "2013-11-15 is not a valid value according to its foreignkey")
}

func TestLoadSchema_Empty(t *testing.T) {
	t.Parallel()
	doc, err := validate.LoadSchema(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Empty(t, doc.Fields)
}

func TestLoadSchema_Invalid(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"scalar":          `"just a string"`,
		"no name":         `[{"valueType": "xsd:string"}]`,
		"duplicate":       `[{"name": "a"}, {"name": "a"}]`,
		"undeclared fk":   "fields: [{name: a}]\nforeignKeys: {b: [1]}",
		"malformed yaml":  "fields: [",
		"wrong fields ty": "fields: 3",
	}
	for name, in := range cases {
		_, err := validate.LoadSchema(strings.NewReader(in))
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, validate.ErrInvalidSchema), "%s: %v", name, err)
	}
}

func TestForeignKeys_BadValue(t *testing.T) {
	t.Parallel()
	doc, err := validate.LoadSchema(strings.NewReader("fields: [{name: d, valueType: xsd:date}]\nforeignKeys: {d: [\"2013/11/13\"]}"))
	require.NoError(t, err)
	_, err = doc.ForeignKeys(nil)
	assert.EqualError(t, err, `foreign key "d": 2013/11/13 is not an ISO 8601 date`)
}

func TestLoadSchemaFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- {name: a, valueType: xsd:boolean}\n"), 0o600))

	doc, err := validate.LoadSchemaFile(path)
	require.NoError(t, err)
	assert.Equal(t, validate.Schema{{Name: "a", ValueType: "xsd:boolean"}}, doc.Fields)

	_, err = validate.LoadSchemaFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestForeignKeys_UnquotedScalarsKeepTheirText(t *testing.T) {
	t.Parallel()
	doc, err := validate.LoadSchema(strings.NewReader(`
fields:
  - {name: s, valueType: xsd:string}
  - {name: tag, valueType: xsd:token}
foreignKeys:
  s: [2013-11-13, yes]
  tag: [2013-11-13, 007, ~]
`))
	require.NoError(t, err)
	fks, err := doc.ForeignKeys(nil)
	require.NoError(t, err)

	assert.True(t, fks["s"].Contains("2013-11-13"))
	assert.True(t, fks["s"].Contains("yes"))
	assert.True(t, fks["tag"].Contains("007"))
	assert.True(t, fks["tag"].Contains(nil))
	assert.Equal(t, 3, fks["tag"].Len())

	v := validate.New(doc.Fields, fks)
	_, err = v.Apply(validate.RecordOf("s", "2013-11-13", "tag", "2013-11-13"))
	require.NoError(t, err)
	_, err = v.Apply(validate.RecordOf("s", "yes", "tag", "007"))
	require.NoError(t, err)
	_, err = v.Apply(validate.RecordOf("s", "yes", "tag", "7"))
	assert.EqualError(t, err, "7 is not a valid value according to its foreignkey")
}

func TestForeignKeys_StructuredValues(t *testing.T) {
	t.Parallel()
	doc, err := validate.LoadSchema(strings.NewReader(`
fields:
  - {name: j, valueType: json}
  - {name: s, valueType: xsd:string}
foreignKeys:
  j: [{a: 1}, '{"b": 2}', 3]
`))
	require.NoError(t, err)
	fks, err := doc.ForeignKeys(nil)
	require.NoError(t, err)
	assert.True(t, fks["j"].Contains(map[string]any{"a": float64(1)}))
	assert.True(t, fks["j"].Contains(map[string]any{"b": float64(2)}))
	assert.True(t, fks["j"].Contains(float64(3)))

	doc, err = validate.LoadSchema(strings.NewReader("fields: [{name: s, valueType: xsd:string}]\nforeignKeys: {s: [[1, 2]]}"))
	require.NoError(t, err)
	_, err = doc.ForeignKeys(nil)
	assert.EqualError(t, err, `foreign key "s": value at line 2 is not a scalar`)
}
