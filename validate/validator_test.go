package validate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlodf/tabval/coerce"
	"github.com/carlodf/tabval/validate"
)

var testSchema = validate.Schema{
	{Name: "a", ValueType: "xsd:string"},
	{Name: "b", ValueType: "xsd:integer"},
	{Name: "c", ValueType: "xsd:double"},
	{Name: "d", ValueType: "xsd:date"},
	{Name: "e", ValueType: "xsd:boolean"},
}

func day(d int) time.Time {
	return time.Date(2013, 11, d, 0, 0, 0, 0, time.UTC)
}

func rawRecords() []*validate.Record {
	return []*validate.Record{
		validate.RecordOf("a", "a", "b", "1", "c", "1.2", "d", "2013-11-13", "e", "true"),
		validate.RecordOf("a", "x", "b", "2", "c", "2.3", "d", "2013-11-14", "e", "false"),
		validate.RecordOf("a", "y", "b", "3", "c", "3.4", "d", "2013-11-15", "e", "true"),
	}
}

func coercedRecords() []*validate.Record {
	return []*validate.Record{
		validate.RecordOf("a", "a", "b", int64(1), "c", 1.2, "d", day(13), "e", true),
		validate.RecordOf("a", "x", "b", int64(2), "c", 2.3, "d", day(14), "e", false),
		validate.RecordOf("a", "y", "b", int64(3), "c", 3.4, "d", day(15), "e", true),
	}
}

func TestValidate_CoercesRawAndAlreadyCoerced(t *testing.T) {
	t.Parallel()
	v := validate.New(testSchema, nil)
	want := coercedRecords()

	for name, input := range map[string][]*validate.Record{"raw": rawRecords(), "coerced": coercedRecords()} {
		it := v.Validate(validate.SliceSource(input...))
		i := 0
		for it.Next() {
			got := it.Record()
			require.Equal(t, want[i].Keys(), got.Keys(), name)
			for _, k := range got.Keys() {
				gv, _ := got.Get(k)
				wv, _ := want[i].Get(k)
				if k == "d" {
					assert.True(t, wv.(time.Time).Equal(gv.(time.Time)), "%s record %d", name, i)
					continue
				}
				assert.Equal(t, wv, gv, "%s record %d field %s", name, i, k)
			}
			i++
		}
		require.NoError(t, it.Err(), name)
		assert.Equal(t, 3, i, name)
		assert.Equal(t, validate.StateCompleted, it.State(), name)
	}
}

func TestValidate_ForeignKeyFailure(t *testing.T) {
	t.Parallel()
	fks := validate.ForeignKeys{"d": validate.NewValueSet(day(13), day(14))}
	v := validate.New(testSchema, fks)

	it := v.Validate(validate.SliceSource(
		validate.RecordOf("a", "y", "b", "3", "c", "3.4", "d", "2013-11-15", "e", true),
	))
	assert.False(t, it.Next())
	err := it.Err()
	require.Error(t, err)
	assert.Equal(t, "2013-11-15 is not a valid value according to its foreignkey", err.Error())
	assert.True(t, errors.Is(err, validate.ErrForeignKey))

	var fkErr *validate.ForeignKeyError
	require.True(t, errors.As(err, &fkErr))
	assert.Equal(t, "d", fkErr.Field)
	assert.Equal(t, validate.StateFailed, it.State())
}

func TestValidate_ForeignKeyComparesInstants(t *testing.T) {
	t.Parallel()
	cet := time.FixedZone("CET", 3600)
	// Same instant as 2013-11-14T00:00:00Z, different location.
	fks := validate.ForeignKeys{"d": validate.NewValueSet(day(13), day(14).In(cet))}
	v := validate.New(testSchema, fks)

	out, err := v.Apply(validate.RecordOf("a", "x", "b", "2", "c", "2.3", "d", "2013-11-14", "e", "false"))
	require.NoError(t, err)
	d, _ := out.Get("d")
	assert.True(t, day(14).Equal(d.(time.Time)))
}

func TestValidate_CoercionErrorBeforeForeignKey(t *testing.T) {
	t.Parallel()
	fks := validate.ForeignKeys{"d": validate.NewValueSet(day(13))}
	v := validate.New(testSchema, fks)

	_, err := v.Apply(validate.RecordOf("a", "y", "b", "3", "c", "3.4", "d", "2013/11/15", "e", true))
	require.Error(t, err)
	assert.Equal(t, "2013/11/15 is not an ISO 8601 date", err.Error())
	assert.True(t, errors.Is(err, coerce.ErrTypeMismatch))
	assert.False(t, errors.Is(err, validate.ErrForeignKey))
}

func TestValidate_EmptySchemaPassesThrough(t *testing.T) {
	t.Parallel()
	in := validate.RecordOf("a", "y", "b", "3", "c", "3.4", "d", "2013/11/15", "e", true)

	for _, schema := range []validate.Schema{nil, {}} {
		out, err := validate.New(schema, nil).Apply(in)
		require.NoError(t, err)
		assert.Equal(t, in.Keys(), out.Keys())
		assert.Equal(t, in.Map(), out.Map())
	}
}

func TestApply_DoesNotMutateInputAndKeepsOrder(t *testing.T) {
	t.Parallel()
	v := validate.New(validate.Schema{{Name: "n", ValueType: "xsd:integer"}}, nil)
	in := validate.RecordOf("z", "keep", "n", "7", "a", "also")

	out, err := v.Apply(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "n", "a"}, out.Keys())
	n, _ := out.Get("n")
	assert.Equal(t, int64(7), n)

	orig, _ := in.Get("n")
	assert.Equal(t, "7", orig)
}

func TestApply_MissingField(t *testing.T) {
	t.Parallel()

	// A missing string field is coerced as null and rejected.
	_, err := validate.New(validate.Schema{{Name: "a", ValueType: "xsd:string"}}, nil).
		Apply(validate.RecordOf("b", "1"))
	assert.EqualError(t, err, "null is not a string")

	// A missing double is a missing number: accepted, key set unchanged.
	out, err := validate.New(validate.Schema{{Name: "c", ValueType: "xsd:double"}}, nil).
		Apply(validate.RecordOf("b", "1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, out.Keys())

	// Unknown types never fail.
	out, err = validate.New(validate.Schema{{Name: "x", ValueType: "custom"}}, nil).
		Apply(validate.RecordOf("b", "1"))
	require.NoError(t, err)
	assert.False(t, out.Has("x"))
}

func TestNew_WithRegistry(t *testing.T) {
	t.Parallel()
	reg := coerce.NewRegistry()
	require.NoError(t, reg.Register("x:nonempty", func(v any) (any, error) {
		if s, ok := v.(string); ok && s != "" {
			return s, nil
		}
		return nil, errors.New("empty value")
	}))
	v := validate.New(validate.Schema{{Name: "a", ValueType: "x:nonempty"}}, nil, validate.WithRegistry(reg))

	_, err := v.Apply(validate.RecordOf("a", ""))
	assert.EqualError(t, err, "empty value")
	_, err = v.Apply(validate.RecordOf("a", "ok"))
	assert.NoError(t, err)
	assert.Equal(t, validate.Schema{{Name: "a", ValueType: "x:nonempty"}}, v.Schema())
}

func TestStream_StateMachine(t *testing.T) {
	t.Parallel()
	v := validate.New(testSchema, nil)
	s := v.NewStream()
	assert.Equal(t, validate.StateIdle, s.State())

	raw := rawRecords()
	_, err := s.Push(raw[0])
	require.NoError(t, err)
	assert.Equal(t, validate.StateProcessing, s.State())

	bad := validate.RecordOf("a", "y", "b", "x", "c", "3.4", "d", "2013-11-15", "e", "true")
	_, err = s.Push(bad)
	require.EqualError(t, err, "x is not an integer")
	assert.Equal(t, validate.StateFailed, s.State())

	// Halted: valid input is not processed and the same error comes back.
	out, err2 := s.Push(raw[1])
	assert.Nil(t, out)
	assert.Same(t, err, err2)
	assert.Same(t, err, s.End())
	assert.Equal(t, 1, s.Count())
}

func TestStream_EndThenPush(t *testing.T) {
	t.Parallel()
	s := validate.New(nil, nil).NewStream()
	require.NoError(t, s.End())
	require.NoError(t, s.End())
	assert.Equal(t, validate.StateCompleted, s.State())

	_, err := s.Push(validate.RecordOf("a", 1))
	assert.ErrorIs(t, err, validate.ErrStreamClosed)
}

func TestIterator_StopsAtFirstError(t *testing.T) {
	t.Parallel()
	v := validate.New(testSchema, nil)
	recs := rawRecords()
	recs[1].Set("e", "maybe")
	src := &countingSource{Source: validate.SliceSource(recs...)}

	it := v.Validate(src)
	var got []*validate.Record
	var errs []error
	for rec, err := range it.All() {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		got = append(got, rec)
	}
	assert.Len(t, got, 1)
	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0], "maybe is not a boolean")
	assert.Equal(t, 2, src.pulled, "no record is read after the failure")
	assert.False(t, it.Next())

	require.NoError(t, it.Close())
	assert.True(t, src.closed)
}

func TestIterator_UpstreamError(t *testing.T) {
	t.Parallel()
	upstream := errors.New("read failure")
	it := validate.New(testSchema, nil).Validate(&countingSource{Source: validate.SliceSource(), err: upstream})

	assert.False(t, it.Next())
	assert.Same(t, upstream, it.Err())
	assert.Equal(t, validate.StateFailed, it.State())
	assert.False(t, it.Next())
	assert.Same(t, upstream, it.Err())
}

func TestRun_Channels(t *testing.T) {
	t.Parallel()
	v := validate.New(testSchema, nil)

	in := make(chan *validate.Record)
	out := make(chan *validate.Record)
	errc := make(chan error, 1)
	go func() { errc <- v.Run(context.Background(), in, out) }()

	go func() {
		defer close(in)
		for _, r := range rawRecords() {
			in <- r
		}
	}()

	n := 0
	for rec := range out {
		b, _ := rec.Get("b")
		assert.Equal(t, int64(n+1), b)
		n++
	}
	assert.Equal(t, 3, n)
	assert.NoError(t, <-errc)
}

func TestRun_FailureClosesOutput(t *testing.T) {
	t.Parallel()
	v := validate.New(testSchema, nil)

	in := make(chan *validate.Record, 3)
	in <- validate.RecordOf("a", "a", "b", "0.5", "c", "1", "d", "2013-11-13", "e", "1")
	in <- rawRecords()[0]
	close(in)
	out := make(chan *validate.Record, 3)

	err := v.Run(context.Background(), in, out)
	assert.EqualError(t, err, "0.5 is not an integer")
	_, open := <-out
	assert.False(t, open)
	assert.Len(t, in, 1, "records after the failure stay unread")
}

func TestRun_Canceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := validate.New(nil, nil).Run(ctx, make(chan *validate.Record), make(chan *validate.Record))
	assert.ErrorIs(t, err, context.Canceled)
}

type countingSource struct {
	validate.Source
	pulled int
	closed bool
	err    error
}

func (c *countingSource) Next() bool {
	ok := c.Source.Next()
	if ok {
		c.pulled++
	}
	return ok
}

func (c *countingSource) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.Source.Err()
}

func (c *countingSource) Close() error {
	c.closed = true
	return c.Source.Close()
}
