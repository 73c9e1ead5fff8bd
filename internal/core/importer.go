package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"runtime"
	"slices"
	"time"
)

// DefaultMaxFileSize caps whole-file reads (10 MiB). Streaming reads have no cap.
const DefaultMaxFileSize int64 = 10 << 20

// Yielder hands control back to the scheduler during long streaming reads.
type Yielder func()

// formatReader is implemented once per physical format. Readers that
// report false from needsMapping receive a Mapping carrying only Type.
type formatReader interface {
	readAll(ctx context.Context, in *input, m *Mapping, opts readOptions) (*batch, error)
	stream(ctx context.Context, in *input, m *Mapping, opts readOptions) (*cursor, error)
	streaming() bool
	needsMapping() bool
}

// input is an opened, decompressed file.
type input struct {
	name    string
	size    int64
	r       io.Reader
	counter *countingReader
	closers []io.Closer
}

func (in *input) Close() error {
	var errs []error
	for i := len(in.closers) - 1; i >= 0; i-- {
		errs = append(errs, in.closers[i].Close())
	}
	in.closers = nil
	return errors.Join(errs...)
}

// Importer dispatches files to format readers by extension. It is safe for
// concurrent use; the only shared state is the mapping cache.
type Importer struct {
	maxFileSize int64
	yield       Yielder
	logger      *slog.Logger
	readers     map[string]formatReader
}

// Option configures an Importer.
type Option func(*Importer)

// WithMaxFileSize overrides DefaultMaxFileSize. Values <= 0 are ignored.
func WithMaxFileSize(n int64) Option {
	return func(imp *Importer) {
		if n > 0 {
			imp.maxFileSize = n
		}
	}
}

// WithYielder replaces runtime.Gosched as the streaming yield hook.
func WithYielder(y Yielder) Option {
	return func(imp *Importer) {
		if y != nil {
			imp.yield = y
		}
	}
}

// WithDelimiter sets the field delimiter for .csv files. TSV always uses tabs.
func WithDelimiter(comma rune) Option {
	return func(imp *Importer) {
		if comma != 0 {
			imp.readers[".csv"] = tabularReader{open: openDelimited(comma)}
		}
	}
}

// WithLogger sets the logger for read summaries. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(imp *Importer) {
		if l != nil {
			imp.logger = l
		}
	}
}

// NewImporter creates an Importer with the built-in formats.
func NewImporter(opts ...Option) *Importer {
	imp := &Importer{
		maxFileSize: DefaultMaxFileSize,
		yield:       runtime.Gosched,
		logger:      slog.Default(),
		readers: map[string]formatReader{
			".csv":  tabularReader{open: openDelimited(',')},
			".tsv":  tabularReader{open: openDelimited('\t')},
			".xlsx": tabularReader{open: openXLSX},
			".xlsm": tabularReader{open: openXLSX},
			".json": jsonReader,
			".yaml": yamlReader,
			".yml":  yamlReader,
		},
	}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// MaxFileSize returns the whole-file size ceiling.
func (imp *Importer) MaxFileSize() int64 {
	return imp.maxFileSize
}

// Formats returns the supported extensions, sorted.
func (imp *Importer) Formats() []string {
	exts := make([]string, 0, len(imp.readers))
	for ext := range imp.readers {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// ReadOption tunes a single read.
type ReadOption func(*readOptions)

type readOptions struct {
	sheet string
}

// WithSheet limits a spreadsheet read to the named sheet. Other formats
// ignore it.
func WithSheet(name string) ReadOption {
	return func(o *readOptions) { o.sheet = name }
}

func collectOptions(opts []ReadOption) readOptions {
	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ReadAll maps every row of f into T. Row failures are collected in
// Result.Errors; only precondition and I/O errors are returned.
func ReadAll[T any](ctx context.Context, imp *Importer, f File, opts ...ReadOption) (*Result[T], error) {
	b, err := imp.readAll(ctx, f, reflect.TypeFor[T](), collectOptions(opts))
	if err != nil {
		return nil, err
	}

	res := &Result[T]{
		FileName:       f.Name(),
		ContentType:    f.ContentType(),
		Author:         b.meta.Author,
		LastModifiedBy: b.meta.LastModifiedBy,
		CreatedAt:      b.meta.CreatedAt,
		ModifiedAt:     b.meta.ModifiedAt,
		Records:        make([]T, 0, len(b.records)),
		Errors:         b.errors,
	}
	for _, rec := range b.records {
		res.Records = append(res.Records, *rec.Interface().(*T))
	}
	if res.Errors == nil {
		res.Errors = []RowError{}
	}
	return res, nil
}

// ReadStreaming opens f for row-by-row mapping into T. Preconditions are
// checked before it returns; the rows are read as the Stream is ranged.
func ReadStreaming[T any](ctx context.Context, imp *Importer, f File, opts ...ReadOption) (*Stream[T], error) {
	c, in, err := imp.stream(ctx, f, reflect.TypeFor[T](), collectOptions(opts))
	if err != nil {
		return nil, err
	}
	return newStream[T](ctx, imp, c, in), nil
}

func (imp *Importer) readAll(ctx context.Context, f File, t reflect.Type, opts readOptions) (*batch, error) {
	fr, m, err := imp.prepare(f, t, true)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	log := imp.logger.With("file", f.Name(), "type", t.String())
	log.DebugContext(ctx, "import started", "size", f.Size())

	in, err := imp.open(f)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	b, err := fr.readAll(ctx, in, m, opts)
	if err != nil {
		log.WarnContext(ctx, "import failed", "error", err, "bytes", in.counter.n)
		return nil, err
	}
	b.bytes = in.counter.n

	log.InfoContext(ctx, "import finished",
		"rows", len(b.records)+len(b.errors),
		"failures", len(b.errors),
		"bytes", b.bytes,
		"duration", time.Since(start),
	)
	return b, nil
}

func (imp *Importer) stream(ctx context.Context, f File, t reflect.Type, opts readOptions) (*cursor, *input, error) {
	fr, m, err := imp.prepare(f, t, false)
	if err != nil {
		return nil, nil, err
	}
	if !fr.streaming() {
		_, err := fr.stream(ctx, nil, m, opts)
		return nil, nil, err
	}

	in, err := imp.open(f)
	if err != nil {
		return nil, nil, err
	}
	c, err := fr.stream(ctx, in, m, opts)
	if err != nil {
		in.Close()
		return nil, nil, err
	}
	c.closers = append(c.closers, in)

	imp.logger.DebugContext(ctx, "stream opened", "file", f.Name(), "type", t.String(), "size", f.Size())
	return c, in, nil
}

// prepare runs every precondition check. Nothing is opened.
func (imp *Importer) prepare(f File, t reflect.Type, wholeFile bool) (formatReader, *Mapping, error) {
	if isNilFile(f) {
		return nil, nil, ErrNoFile
	}
	if f.Size() == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrEmptyFile, f.Name())
	}
	if wholeFile && f.Size() > imp.maxFileSize {
		return nil, nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrFileTooLarge, f.Name(), f.Size(), imp.maxFileSize)
	}

	format, _ := splitExt(f.Name())
	fr, ok := imp.readers[format]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f.Name())
	}

	if !fr.needsMapping() {
		return fr, &Mapping{Type: t}, nil
	}
	m, err := MappingFor(t)
	if err != nil {
		return nil, nil, err
	}
	return fr, m, nil
}

// open returns the decompressed content of f.
func (imp *Importer) open(f File) (*input, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name(), err)
	}
	counter := &countingReader{r: rc}

	_, compression := splitExt(f.Name())
	r, dc, err := decompress(counter, compression)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("open %s: %w", f.Name(), err)
	}

	return &input{
		name:    f.Name(),
		size:    f.Size(),
		r:       r,
		counter: counter,
		closers: []io.Closer{rc, dc},
	}, nil
}

func isNilFile(f File) bool {
	if f == nil {
		return true
	}
	v := reflect.ValueOf(f)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
