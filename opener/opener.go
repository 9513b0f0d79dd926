// Package opener resolves source specifications (paths, globs, file URLs,
// s3:// URLs) into lazily opened byte streams.
//
// Openers are cheap descriptions of a source: nothing is read until Open is
// called, which lets the connector multiplexer open one source at a time.
package opener

import (
	"context"
	"io"
)

// Opener opens one named source.
type Opener interface {
	// Open returns a fresh reader over the source. Callers close it.
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name identifies the source in record metadata and log lines.
	Name() string
}
