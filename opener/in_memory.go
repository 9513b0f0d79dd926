package opener

import (
	"bytes"
	"context"
	"io"
)

// InMemorySource serves a byte slice. It is meant for tests and for
// validating small inline datasets:
//
//	srcs := []opener.Opener{
//	    opener.InMemorySource{SourceName: "inline", Data: []byte("a,b\n1,true\n")},
//	}
//	mux := connector.NewMuxReader(ctx, srcs)
type InMemorySource struct {
	Data       []byte
	SourceName string
}

// Open never fails; each call returns an independent reader.
func (s InMemorySource) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.Data)), nil
}

func (s InMemorySource) Name() string {
	return s.SourceName
}
