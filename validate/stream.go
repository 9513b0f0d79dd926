package validate

import "context"

// State is the lifecycle position of a Stream.
type State int

const (
	StateIdle State = iota
	StateProcessing
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stream applies a Validator to records pushed one at a time.
//
// The first failure is terminal: the stream moves to StateFailed and every
// later Push returns that same error without looking at the record.
// A Stream is not safe for concurrent use.
type Stream struct {
	v     *Validator
	state State
	err   error
	count int
}

// NewStream returns an idle stream bound to v.
func (v *Validator) NewStream() *Stream {
	return &Stream{v: v}
}

// Push validates rec and returns the coerced record.
func (s *Stream) Push(rec *Record) (*Record, error) {
	switch s.state {
	case StateFailed:
		return nil, s.err
	case StateCompleted:
		return nil, ErrStreamClosed
	}
	s.state = StateProcessing
	out, err := s.v.Apply(rec)
	if err != nil {
		s.state = StateFailed
		s.err = err
		return nil, err
	}
	s.count++
	return out, nil
}

// End signals end of input. It returns the terminal error of a failed
// stream, nil otherwise. Calling End more than once is harmless.
func (s *Stream) End() error {
	if s.state == StateFailed {
		return s.err
	}
	s.state = StateCompleted
	return nil
}

// abort fails the stream with an error raised outside validation, such as
// a read error from the record source. It is a no-op once terminal.
func (s *Stream) abort(err error) {
	if s.state == StateFailed || s.state == StateCompleted {
		return
	}
	s.state = StateFailed
	s.err = err
}

// State reports the current lifecycle state.
func (s *Stream) State() State { return s.state }

// Err returns the terminal error, if any.
func (s *Stream) Err() error { return s.err }

// Count reports how many records were emitted.
func (s *Stream) Count() int { return s.count }

// Run validates records received from in and sends results to out, which
// it closes on return. It returns nil once in is closed and drained, the
// first validation error, or ctx.Err() on cancellation. After an error no
// further records are read from in.
func (v *Validator) Run(ctx context.Context, in <-chan *Record, out chan<- *Record) error {
	defer close(out)
	s := v.NewStream()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec, ok := <-in:
			if !ok {
				return s.End()
			}
			res, err := s.Push(rec)
			if err != nil {
				return err
			}
			select {
			case out <- res:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
