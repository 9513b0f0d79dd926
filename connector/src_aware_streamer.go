// Package connector joins several opener.Opener sources into one byte
// stream while tracking which source the bytes come from, so decoders can
// attach provenance to each record.
package connector

import (
	"context"
	"io"
)

// SrcMeta is the position of the stream within the source of the bytes
// last returned by Read. ByteOffset counts bytes of that source already
// handed to the reader.
type SrcMeta struct {
	Name       string
	ByteOffset int64
}

// SrcAwareStreamer is a byte stream spanning several sources.
type SrcAwareStreamer interface {
	io.ReadCloser

	// Current returns the position after the latest Read. Non-blocking.
	Current() SrcMeta

	// AwaitBoundary blocks until the next source starts and returns its
	// metadata (ByteOffset 0), or io.EOF once no source is left.
	AwaitBoundary(context.Context) (SrcMeta, error)
}
