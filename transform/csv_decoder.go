package transform

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/carlodf/tabval/connector"
)

// CSVDecoderOptions configures NewCSVDecoder.
type CSVDecoderOptions struct {
	// Comma is the field delimiter; ',' when zero.
	Comma rune

	// Comment starts a line that is ignored; no comments when zero.
	Comment rune

	// Header, when non-empty, names the columns and every row is read as
	// data. Otherwise the first row of the stream is the header.
	Header []string

	// KeepLeadingSpace disables trimming of leading white space in cells.
	KeepLeadingSpace bool

	// LazyQuotes accepts quotes in unquoted cells and non-doubled quotes
	// in quoted cells.
	LazyQuotes bool
}

// NewCSVDecoder returns a Decoder for RFC 4180 text.
//
// Every row must have as many cells as the header. When the header is
// read from the stream and the stream joins several sources, a row equal
// to the header at the start of a later source is that source's own
// header and is dropped.
func NewCSVDecoder(opt CSVDecoderOptions) Decoder {
	d := &csvDecoder{opt: opt}
	if d.opt.Comma == 0 {
		d.opt.Comma = ','
	}
	d.opt.Header = slices.Clone(opt.Header)
	return d
}

type csvDecoder struct {
	opt CSVDecoderOptions
}

// Decode reads the header, if it was not configured, before returning.
// Cancelling ctx closes rc, which ends iteration with an error.
func (d *csvDecoder) Decode(ctx context.Context, rc connector.SrcAwareStreamer) (RecordIterator, error) {
	r := csv.NewReader(rc)
	r.Comma = d.opt.Comma
	r.Comment = d.opt.Comment
	r.LazyQuotes = d.opt.LazyQuotes
	r.TrimLeadingSpace = !d.opt.KeepLeadingSpace

	header := d.opt.Header
	inferred := len(header) == 0
	if inferred {
		first, err := r.Read()
		if err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("unable to infer header from first record: %w", err)
		}
		header = first
	}
	if err := validateHeader(header); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("malformed header: %w", err)
	}
	r.FieldsPerRecord = len(header)

	it := &csvRowIterator{
		r:           r,
		src:         rc,
		header:      header,
		index:       buildIndex(header),
		skipHeaders: inferred,
		last:        rc.Current(),
	}
	if inferred {
		it.lastLine, _ = r.FieldPos(len(header) - 1)
	}
	it.stop = context.AfterFunc(ctx, func() { _ = rc.Close() })
	return it, nil
}

type csvRowIterator struct {
	r   *csv.Reader
	src connector.SrcAwareStreamer

	header []string
	index  map[string]int
	// skipHeaders drops a repeated header at the start of each source.
	skipHeaders bool

	row  []string
	meta connector.SrcMeta
	// last is the provenance of the last row read, served or skipped.
	last connector.SrcMeta
	// lineBase is the stream line preceding the current source; lastLine
	// is the stream line of the last row read.
	lineBase int
	lastLine int

	err  error
	done bool
	stop func() bool
}

func (it *csvRowIterator) Next() bool {
	if it.done || it.err != nil {
		return false
	}
	for {
		row, err := it.r.Read()
		if err == io.EOF {
			it.done = true
			return false
		}
		if err != nil {
			it.err = it.sourceError(err)
			return false
		}

		meta := it.src.Current()
		newSource := it.isSourceStart(meta)
		if newSource {
			start, _ := it.r.FieldPos(0)
			it.lineBase = start - 1
		}
		it.lastLine, _ = it.r.FieldPos(len(row) - 1)
		it.last = meta
		if it.skipHeaders && newSource && slices.Equal(row, it.header) {
			continue
		}
		it.row, it.meta = row, meta
		return true
	}
}

// Record returns the current row. It shares the header slice with every
// other row; copy Names before modifying it.
func (it *csvRowIterator) Record() Extractor {
	return rowExtractor{cells: it.row, header: it.header, index: it.index, meta: it.meta}
}

func (it *csvRowIterator) Err() error {
	return it.err
}

// Close releases the stream and the context watch.
func (it *csvRowIterator) Close() error {
	it.done = true
	if it.stop != nil {
		it.stop()
	}
	return it.src.Close()
}

// isSourceStart reports whether meta belongs to a source other than the
// previous row's.
func (it *csvRowIterator) isSourceStart(meta connector.SrcMeta) bool {
	if it.last.Name == "" || meta.Name != it.last.Name {
		return true
	}
	return meta.ByteOffset < it.last.ByteOffset
}

// sourceError prefixes err with the name of the source it came from and
// numbers parse error lines from the start of that source.
func (it *csvRowIterator) sourceError(err error) error {
	meta := it.src.Current()
	if meta.Name == "" {
		return err
	}
	base := it.lineBase
	if it.isSourceStart(meta) {
		base = it.lastLine
	}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		rebased := *pe
		rebased.StartLine -= base
		rebased.Line -= base
		err = &rebased
	}
	return fmt.Errorf("%s: %w", meta.Name, err)
}

// rowExtractor is an Extractor over a CSV row.
type rowExtractor struct {
	cells  []string
	header []string
	index  map[string]int
	meta   connector.SrcMeta
}

func (e rowExtractor) ByIndex(i int) (string, bool) {
	if i < 0 || i >= len(e.cells) {
		return "", false
	}
	return e.cells[i], true
}

func (e rowExtractor) ByName(name string) (string, bool) {
	i, ok := e.index[name]
	if !ok {
		return "", false
	}
	return e.cells[i], true
}

func (e rowExtractor) Len() int { return len(e.cells) }

func (e rowExtractor) Names() []string { return e.header }

func (e rowExtractor) Meta() connector.SrcMeta { return e.meta }

// validateHeader rejects duplicate column names.
func validateHeader(h []string) error {
	seen := make(map[string]struct{}, len(h))
	for _, name := range h {
		if _, ok := seen[name]; ok {
			return fmt.Errorf("duplicate entry %s in header %q", name, h)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func buildIndex(names []string) map[string]int {
	index := make(map[string]int, len(names))
	for i, name := range names {
		index[name] = i
	}
	return index
}
