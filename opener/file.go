package opener

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// File opens a regular file. Existence is only checked by Open.
type File struct {
	Path string
}

// NewFile returns a File for the cleaned path.
func NewFile(path string) File {
	return File{Path: filepath.Clean(path)}
}

// Open checks ctx before touching the filesystem; os.Open itself cannot be
// interrupted.
func (f File) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(f.Path)
}

// Name returns the cleaned path.
func (f File) Name() string {
	return f.Path
}
