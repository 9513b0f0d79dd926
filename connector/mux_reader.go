package connector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/carlodf/tabval/internal/logger"
	"github.com/carlodf/tabval/opener"
)

const defaultBufferSize = 32 * 1024

// ErrClosed is returned by Read after Close.
var ErrClosed = errors.New("connector: stream closed")

// Option configures NewMuxReader.
type Option func(*muxOptions)

type muxOptions struct {
	logger  *slog.Logger
	bufSize int
}

// WithLogger logs one debug line per finished or failed source.
func WithLogger(l *slog.Logger) Option {
	return func(o *muxOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithBufferSize sets the size of the chunks read from each source.
// Non-positive sizes are ignored.
func WithBufferSize(n int) Option {
	return func(o *muxOptions) {
		if n > 0 {
			o.bufSize = n
		}
	}
}

// chunk is a slice of one source; meta.ByteOffset is the offset of data[0].
type chunk struct {
	meta SrcMeta
	data []byte
}

// muxReader reads sources one after another and hands their bytes to the
// consumer in chunks that never span two sources, so Current always names
// the source of the bytes most recently returned by Read.
//
//   - Only one source is open at a time, in the order given.
//   - A non-empty source that does not end with '\n' is followed by one.
//   - On a read error, bytes read before the error are delivered first.
//   - Open and read errors end the stream; Read returns them wrapped with
//     the source name.
//   - The boundary channel holds at most one event: boundaries nobody
//     waited for are coalesced and only the latest is kept.
type muxReader struct {
	chunks chan chunk
	// werr is set by the copy goroutine before chunks is closed.
	werr error

	done      chan struct{}
	closeOnce sync.Once

	boundary chan SrcMeta

	// Consumer side, owned by the goroutine calling Read.
	pending []byte
	meta    SrcMeta
	err     error
	current atomic.Value
}

// NewMuxReader starts reading ops in a goroutine and returns the joined
// stream. Cancelling ctx aborts opening and copying; Close stops the
// goroutine at its next hand-off.
func NewMuxReader(ctx context.Context, ops []opener.Opener, opts ...Option) SrcAwareStreamer {
	o := muxOptions{logger: logger.Discard(), bufSize: defaultBufferSize}
	for _, opt := range opts {
		opt(&o)
	}

	m := &muxReader{
		chunks:   make(chan chunk),
		done:     make(chan struct{}),
		boundary: make(chan SrcMeta, 1),
	}
	go m.run(ctx, ops, o)
	return m
}

func (m *muxReader) run(ctx context.Context, ops []opener.Opener, o muxOptions) {
	defer drainAndClose(m.boundary)
	defer close(m.chunks)

	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			m.werr = err
			return
		}
		n, err := m.copySource(ctx, op, o.bufSize)
		if err != nil {
			if !errors.Is(err, ErrClosed) {
				o.logger.Debug("source failed", logger.Source(op.Name()), logger.Error(err))
			}
			m.werr = err
			return
		}
		o.logger.Debug("source done", logger.Source(op.Name()), slog.Int64("bytes", n))
	}
}

// copySource streams one source and returns the number of bytes handed
// over.
func (m *muxReader) copySource(ctx context.Context, op opener.Opener, size int) (int64, error) {
	rc, err := op.Open(ctx)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", op.Name(), err)
	}
	defer rc.Close()

	overwriteLatest(m.boundary, SrcMeta{Name: op.Name()})

	var (
		off  int64
		last byte
	)
	for {
		// The consumer keeps the slice until it is drained.
		buf := make([]byte, size)
		n, rerr := rc.Read(buf)
		if n > 0 {
			c := chunk{meta: SrcMeta{Name: op.Name(), ByteOffset: off}, data: buf[:n]}
			if err := m.send(ctx, c); err != nil {
				return off, err
			}
			off += int64(n)
			last = buf[n-1]
		}
		if rerr == io.EOF {
			// A source without a final line break must not run into the
			// first line of the next one.
			if off > 0 && last != '\n' {
				nl := chunk{meta: SrcMeta{Name: op.Name(), ByteOffset: off}, data: []byte{'\n'}}
				if err := m.send(ctx, nl); err != nil {
					return off, err
				}
			}
			return off, nil
		}
		if rerr != nil {
			return off, fmt.Errorf("read %s: %w", op.Name(), rerr)
		}
	}
}

func (m *muxReader) send(ctx context.Context, c chunk) error {
	select {
	case m.chunks <- c:
		return nil
	case <-m.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *muxReader) Read(p []byte) (int, error) {
	select {
	case <-m.done:
		return 0, ErrClosed
	default:
	}
	if len(p) == 0 {
		return 0, nil
	}
	for len(m.pending) == 0 {
		if m.err != nil {
			return 0, m.err
		}
		select {
		case c, ok := <-m.chunks:
			if !ok {
				m.err = io.EOF
				if m.werr != nil {
					m.err = m.werr
				}
				continue
			}
			m.pending, m.meta = c.data, c.meta
		case <-m.done:
			return 0, ErrClosed
		}
	}
	n := copy(p, m.pending)
	m.pending = m.pending[n:]
	m.meta.ByteOffset += int64(n)
	m.current.Store(m.meta)
	return n, nil
}

// Close stops the stream. It is safe to call from any goroutine, more
// than once.
func (m *muxReader) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}

func (m *muxReader) Current() SrcMeta {
	val := m.current.Load()
	if val == nil {
		return SrcMeta{}
	}
	return val.(SrcMeta)
}

func (m *muxReader) AwaitBoundary(ctx context.Context) (SrcMeta, error) {
	select {
	case meta, ok := <-m.boundary:
		if !ok {
			return SrcMeta{}, io.EOF
		}
		return meta, nil
	case <-ctx.Done():
		return SrcMeta{}, ctx.Err()
	}
}

// overwriteLatest sends v on a 1-buffered channel, dropping a stale value
// if the buffer is full.
func overwriteLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		case <-ch:
		}
	}
}

func drainAndClose[T any](ch chan T) {
	for {
		select {
		case <-ch:
		default:
			close(ch)
			return
		}
	}
}
