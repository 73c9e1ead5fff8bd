package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
)

// rowSource yields the raw rows of a tabular format.
type rowSource interface {
	// next returns the next physical row and its 1-based index, header
	// rows and blank rows included. newTable marks the first row of a
	// table that carries its own header. io.EOF ends the source.
	next() (row int, cells []string, newTable bool, err error)
	metadata() FileMetadata
	Close() error
}

// rowResult is the type-erased outcome of one data row.
type rowResult struct {
	row     int
	columns int
	record  reflect.Value // *T on success
	err     string
}

func (r rowResult) ok() bool { return r.err == "" }

// cursor maps the rows of a source onto a record type, resolving a header
// for every table it meets.
type cursor struct {
	src     rowSource
	m       *Mapping
	closers []io.Closer

	headers []string
	columns []*Binding // per header position, nil when unmapped
	width   int
	ready   bool
}

func newCursor(src rowSource, m *Mapping) *cursor {
	return &cursor{src: src, m: m}
}

// next returns the next data row outcome, or io.EOF.
func (c *cursor) next() (rowResult, error) {
	for {
		row, cells, newTable, err := c.src.next()
		if err != nil {
			return rowResult{}, err
		}
		if newTable {
			c.ready = false
		}
		if blankRow(cells) {
			continue
		}
		if !c.ready {
			c.setHeader(cells)
			continue
		}
		return c.mapRow(row, cells), nil
	}
}

func (c *cursor) setHeader(cells []string) {
	c.headers = make([]string, len(cells))
	c.columns = make([]*Binding, len(cells))
	for i, cell := range cells {
		c.headers[i] = strings.TrimSpace(cell)
		if b, ok := c.m.Lookup(cell); ok {
			c.columns[i] = b
		}
	}
	c.width = len(cells)
	c.ready = true
}

// mapRow zips cells against the header, stopping at the first field that
// fails to convert.
func (c *cursor) mapRow(row int, cells []string) rowResult {
	rec := reflect.New(c.m.Type)
	n := min(len(cells), len(c.columns))
	for i := 0; i < n; i++ {
		b := c.columns[i]
		if b == nil {
			continue
		}
		if err := b.assign(rec.Elem(), cells[i]); err != nil {
			return rowResult{
				row:     row,
				columns: c.width,
				err:     fmt.Sprintf("Row %d, column '%s' parse failed: %v", row, c.headers[i], err),
			}
		}
	}
	return rowResult{row: row, columns: c.width, record: rec}
}

func (c *cursor) metadata() FileMetadata {
	return c.src.metadata()
}

// Close releases the source and everything opened beneath it.
func (c *cursor) Close() error {
	errs := []error{c.src.Close()}
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i].Close())
	}
	c.closers = nil
	return errors.Join(errs...)
}

// batch is a fully materialized, type-erased read.
type batch struct {
	meta    FileMetadata
	records []reflect.Value // *T
	errors  []RowError
	bytes   int64
}

// drain reads every remaining row. ctx is checked at the yield cadence
// derived from size.
func (c *cursor) drain(ctx context.Context, size int64) (*batch, error) {
	b := &batch{}
	n := 0
	for {
		r, err := c.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		n++
		if ShouldYield(n, EstimateRows(size, c.width)) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if r.ok() {
			b.records = append(b.records, r.record)
		} else {
			b.errors = append(b.errors, RowError{Row: r.row, Message: r.err})
		}
	}
	b.meta = c.metadata()
	return b, nil
}

func blankRow(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// tabularReader adapts a rowSource constructor to formatReader.
type tabularReader struct {
	open func(in *input, opts readOptions) (rowSource, error)
}

func (t tabularReader) streaming() bool { return true }

func (t tabularReader) needsMapping() bool { return true }

func (t tabularReader) stream(_ context.Context, in *input, m *Mapping, opts readOptions) (*cursor, error) {
	src, err := t.open(in, opts)
	if err != nil {
		return nil, err
	}
	return newCursor(src, m), nil
}

func (t tabularReader) readAll(ctx context.Context, in *input, m *Mapping, opts readOptions) (*batch, error) {
	c, err := t.stream(ctx, in, m, opts)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.drain(ctx, in.size)
}
