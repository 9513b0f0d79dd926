// Package sink writes validated records out of the pipeline.
package sink

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/carlodf/tabval/validate"
)

// ErrNilRecord is returned when Write is given a nil record.
var ErrNilRecord = errors.New("sink: nil record")

// JSONLines writes one JSON object per line, keys in record order.
// Output is buffered; call Flush when done. Not safe for concurrent use.
type JSONLines struct {
	bw    *bufio.Writer
	enc   *json.Encoder
	count int
}

// NewJSONLines returns a writer that buffers its output to w.
func NewJSONLines(w io.Writer) *JSONLines {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &JSONLines{bw: bw, enc: enc}
}

// Write encodes rec as one line. A nil record yields ErrNilRecord.
func (j *JSONLines) Write(rec *validate.Record) error {
	if rec == nil {
		return ErrNilRecord
	}
	if err := j.enc.Encode(rec); err != nil {
		return fmt.Errorf("sink: encode record %d: %w", j.count+1, err)
	}
	j.count++
	return nil
}

// Flush writes any buffered output to the underlying writer.
func (j *JSONLines) Flush() error {
	return j.bw.Flush()
}

// Count is the number of records written so far.
func (j *JSONLines) Count() int {
	return j.count
}

// Drain writes every record it yields and flushes. A validation error
// from it is returned as is, after the records that preceded it were
// flushed.
func (j *JSONLines) Drain(it *validate.Iterator) error {
	for rec, err := range it.All() {
		if err != nil {
			if ferr := j.Flush(); ferr != nil {
				return errors.Join(err, ferr)
			}
			return err
		}
		if err := j.Write(rec); err != nil {
			return err
		}
	}
	return j.Flush()
}
