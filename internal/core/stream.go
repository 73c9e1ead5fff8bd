package core

import (
	"context"
	"errors"
	"io"
	"iter"
	"sync"
)

// Stream is a single-use, row-by-row read. Range over All once; if All is
// never ranged, call Close.
type Stream[T any] struct {
	ctx   context.Context
	imp   *Importer
	cur   *cursor
	in    *input
	size  int64
	name  string
	start sync.Once

	closeOnce sync.Once
	closeErr  error

	rows      int
	estimated int
	err       error
}

func newStream[T any](ctx context.Context, imp *Importer, c *cursor, in *input) *Stream[T] {
	return &Stream[T]{ctx: ctx, imp: imp, cur: c, in: in, size: in.size, name: in.name}
}

// All yields one outcome per data row. A second range yields nothing.
// The read stops early when the consumer breaks or the context is done;
// check Err afterwards.
func (s *Stream[T]) All() iter.Seq[RowOutcome[T]] {
	return func(yield func(RowOutcome[T]) bool) {
		first := false
		s.start.Do(func() { first = true })
		if !first {
			return
		}
		defer s.Close()

		for {
			r, err := s.cur.next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				s.err = err
				break
			}

			s.rows++
			if s.estimated == 0 {
				s.estimated = EstimateRows(s.size, s.cur.width)
			}
			if ShouldYield(s.rows, s.estimated) {
				if err := s.ctx.Err(); err != nil {
					s.err = err
					break
				}
				s.imp.yield()
			}

			out := RowOutcome[T]{Row: r.row, Columns: r.columns, OK: r.ok()}
			if out.OK {
				out.Record = r.record.Interface().(*T)
			} else {
				out.Error = r.err
			}
			if !yield(out) {
				break
			}
		}

		s.imp.logger.DebugContext(s.ctx, "stream finished",
			"file", s.name,
			"rows", s.rows,
			"bytes", s.in.counter.n,
			"error", s.err,
		)
	}
}

// Err returns the I/O or context error that ended the stream early, if any.
func (s *Stream[T]) Err() error {
	return s.err
}

// Estimated returns the row estimate behind the yield cadence. It is zero
// until the first data row has been read.
func (s *Stream[T]) Estimated() int {
	return s.estimated
}

// Metadata returns document properties exposed by the format, if any.
func (s *Stream[T]) Metadata() FileMetadata {
	return s.cur.metadata()
}

// Close releases the underlying file. It is safe to call more than once;
// All yields nothing after Close.
func (s *Stream[T]) Close() error {
	s.start.Do(func() {})
	s.closeOnce.Do(func() {
		s.closeErr = s.cur.Close()
	})
	return s.closeErr
}
