package validate

import (
	"iter"

	"github.com/carlodf/tabval/transform"
)

// Source is a forward-only producer of records. It follows the same
// Next/Record/Err/Close contract as transform.RecordIterator.
type Source interface {
	Next() bool
	Record() *Record
	Err() error
	Close() error
}

// Iterator yields validated records pulled from a Source.
//
//	it := v.Validate(src)
//	defer it.Close()
//	for it.Next() {
//	    rec := it.Record()
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator struct {
	src    Source
	stream *Stream
	cur    *Record
	err    error
	done   bool
}

// Validate wraps src. Records are read lazily, one per call to Next.
func (v *Validator) Validate(src Source) *Iterator {
	return &Iterator{src: src, stream: v.NewStream()}
}

// Next advances to the next valid record. It returns false at end of
// input, on an upstream error or on the first validation failure; Err
// tells them apart.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	if !it.src.Next() {
		it.done = true
		if err := it.src.Err(); err != nil {
			it.stream.abort(err)
			it.err = err
			return false
		}
		it.err = it.stream.End()
		return false
	}
	out, err := it.stream.Push(it.src.Record())
	if err != nil {
		it.err = err
		it.done = true
		return false
	}
	it.cur = out
	return true
}

// Record returns the current record. Valid after Next returned true.
func (it *Iterator) Record() *Record { return it.cur }

// Err returns the first upstream or validation error.
func (it *Iterator) Err() error { return it.err }

// State reports the underlying stream state. An upstream error fails the
// stream just like a validation error.
func (it *Iterator) State() State { return it.stream.State() }

// Close stops iteration and closes the source.
func (it *Iterator) Close() error {
	it.done = true
	return it.src.Close()
}

// All ranges over the remaining records. A failure is yielded once, as the
// last pair, with a nil record.
func (it *Iterator) All() iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		for it.Next() {
			if !yield(it.Record(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// SliceSource returns a Source over records held in memory.
func SliceSource(records ...*Record) Source {
	return &sliceSource{records: records, idx: -1}
}

type sliceSource struct {
	records []*Record
	idx     int
}

func (s *sliceSource) Next() bool {
	if s.idx+1 >= len(s.records) {
		s.idx = len(s.records)
		return false
	}
	s.idx++
	return true
}

func (s *sliceSource) Record() *Record { return s.records[s.idx] }
func (s *sliceSource) Err() error      { return nil }
func (s *sliceSource) Close() error    { return nil }

// FromTransform adapts a transform.StructIterator of records, such as the
// output of a decode transform mapped with RecordFromExtractor, to Source.
func FromTransform(it transform.StructIterator[*Record]) Source {
	return structSource{it}
}

type structSource struct {
	transform.StructIterator[*Record]
}

func (s structSource) Record() *Record { return s.Struct() }
