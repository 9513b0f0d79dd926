package transform

import (
	"context"
	"errors"
	"log/slog"

	"github.com/carlodf/tabval/connector"
	"github.com/carlodf/tabval/internal/logger"
)

// ErrNilMapper is returned by Transform when no Mapper is given.
var ErrNilMapper = errors.New("transform: nil mapper")

// decodeMapTransform implements Transformer[T] with any Decoder.
type decodeMapTransform[T any] struct {
	decoder Decoder
	logger  *slog.Logger
}

// NewDecodeMapTransform returns a Transformer that decodes with decoder
// and maps every row. An optional logger records the row a mapper
// rejected. It panics if decoder is nil.
func NewDecodeMapTransform[T any](decoder Decoder, log ...*slog.Logger) Transformer[T] {
	if decoder == nil {
		panic("transform: nil decoder")
	}
	t := &decodeMapTransform[T]{decoder: decoder, logger: logger.Discard()}
	if len(log) > 0 && log[0] != nil {
		t.logger = log[0]
	}
	return t
}

func (t *decodeMapTransform[T]) Transform(
	ctx context.Context,
	rc connector.SrcAwareStreamer,
	mapFn Mapper[T],
) (StructIterator[T], error) {
	if mapFn == nil {
		return nil, ErrNilMapper
	}

	rows, err := t.decoder.Decode(ctx, rc)
	if err != nil {
		return nil, err
	}
	return &mappedIterator[T]{inner: rows, mapFn: mapFn, logger: t.logger}, nil
}

// mappedIterator stops at the first mapper error and surfaces it
// unchanged.
type mappedIterator[T any] struct {
	inner  RecordIterator
	mapFn  Mapper[T]
	logger *slog.Logger

	cur  T
	n    int
	err  error
	done bool
}

func (m *mappedIterator[T]) Next() bool {
	if m.done {
		return false
	}
	if !m.inner.Next() {
		m.done = true
		return false
	}

	row := m.inner.Record()
	val, err := m.mapFn(row)
	if err != nil {
		meta := row.Meta()
		m.logger.Debug("row rejected",
			logger.Source(meta.Name),
			slog.Int64("offset", meta.ByteOffset),
			logger.Count("row", m.n+1),
			logger.Error(err))
		m.err = err
		m.done = true
		var zero T
		m.cur = zero
		return false
	}

	m.cur = val
	m.n++
	return true
}

func (m *mappedIterator[T]) Struct() T {
	return m.cur
}

func (m *mappedIterator[T]) Err() error {
	if m.err != nil {
		return m.err
	}
	return m.inner.Err()
}

func (m *mappedIterator[T]) Close() error {
	m.done = true
	return m.inner.Close()
}
