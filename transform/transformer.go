// Package transform turns a source-aware byte stream into rows and maps
// each row into a typed value.
//
//	connector.SrcAwareStreamer (bytes + provenance)
//	  → Decoder        (RecordIterator of raw rows)
//	  → Mapper[T]      (row → T)
//	  → StructIterator (stream of T)
//
// Decoders know the wire format; mappers know the target type. The
// validate package plugs in at the Mapper step.
package transform

import (
	"context"

	"github.com/carlodf/tabval/connector"
)

// Extractor gives read-only access to one decoded row. Values are the raw
// text of each cell; typing them is the mapper's job.
type Extractor interface {
	// ByIndex returns the cell at i; ok is false when i is out of range.
	ByIndex(i int) (string, bool)

	// ByName returns the cell under the header name; ok is false when the
	// name is unknown or the row has no header.
	ByName(name string) (string, bool)

	// Len is the number of cells in the row.
	Len() int

	// Names returns the header, or nil when the format has none.
	Names() []string

	// Meta is the provenance of the row.
	Meta() connector.SrcMeta
}

// RecordIterator is a forward-only iterator over decoded rows.
//
//	it, err := dec.Decode(ctx, stream)
//	if err != nil { ... }
//	defer it.Close()
//	for it.Next() {
//	    row := it.Record()
//	}
//	if err := it.Err(); err != nil { ... }
type RecordIterator interface {
	// Next advances and reports whether a row is available. After false,
	// Err tells end of input from failure.
	Next() bool

	// Record returns the current row, valid until the next call to Next.
	Record() Extractor

	// Err returns the first error other than io.EOF.
	Err() error

	// Close releases the stream. Safe to call more than once and before
	// the iterator is exhausted.
	Close() error
}

// StructIterator is a RecordIterator whose rows went through a Mapper.
type StructIterator[T any] interface {
	Next() bool

	// Struct returns the current value, valid until the next call to Next.
	Struct() T

	Err() error
	Close() error
}

// Decoder reads one on-wire format. Format options are fixed at
// construction.
type Decoder interface {
	// Decode takes ownership of rc; the returned iterator closes it.
	Decode(ctx context.Context, rc connector.SrcAwareStreamer) (RecordIterator, error)
}

// Mapper converts a row into a T. A non-nil error ends the stream.
type Mapper[T any] func(Extractor) (T, error)

// Transformer composes a Decoder with a Mapper.
type Transformer[T any] interface {
	// Transform decodes rc and maps each row with mapFn. The returned
	// iterator owns rc.
	Transform(ctx context.Context, rc connector.SrcAwareStreamer, mapFn Mapper[T]) (StructIterator[T], error)
}
