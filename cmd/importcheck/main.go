// Command importcheck reads a file the way the import server would and
// prints what it found, without keeping any records.
//
//	importcheck -type person people.csv
//	importcheck -type invoice -stream -sheet Q1 invoices.xlsx.gz
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/JonMunkholm/fileimport/internal/core"
	"github.com/JonMunkholm/fileimport/internal/logging"
	_ "github.com/JonMunkholm/fileimport/internal/schema" // Register record types
)

const (
	exitOK       = 0
	exitError    = 1
	exitRowFails = 2
	exitUsage    = 64
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	recordType string
	stream     bool
	sheet      string
	delimiter  string
	maxSize    int64
	maxErrors  int
	strict     bool
	list       bool
	verbose    bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("importcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.recordType, "type", "person", "record type key (see -list)")
	fs.BoolVar(&opts.stream, "stream", false, "read row by row instead of whole-file")
	fs.StringVar(&opts.sheet, "sheet", "", "spreadsheet sheet to read (default: all)")
	fs.StringVar(&opts.delimiter, "delimiter", ",", "field separator for .csv files")
	fs.Int64Var(&opts.maxSize, "max-size", core.DefaultMaxFileSize, "whole-file size limit in bytes")
	fs.IntVar(&opts.maxErrors, "errors", 20, "row errors to print (0 for all)")
	fs.BoolVar(&opts.strict, "strict", false, "exit with status 2 when any row fails")
	fs.BoolVar(&opts.list, "list", false, "list record types and exit")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging to stderr")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: importcheck [flags] <file>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if opts.list {
		listRecordTypes(stdout)
		return exitOK
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}

	comma, size := utf8.DecodeRuneInString(opts.delimiter)
	if comma == utf8.RuneError || size != len(opts.delimiter) {
		fmt.Fprintf(stderr, "importcheck: -delimiter must be a single character, got %q\n", opts.delimiter)
		return exitUsage
	}

	rt, ok := core.Get(opts.recordType)
	if !ok {
		fmt.Fprintf(stderr, "importcheck: unknown record type %q (see -list)\n", opts.recordType)
		return exitUsage
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	imp := core.NewImporter(
		core.WithMaxFileSize(opts.maxSize),
		core.WithDelimiter(comma),
		core.WithLogger(logging.New(stderr, level, "text")),
	)

	file, err := core.OpenLocalFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "importcheck: %v\n", err)
		return exitError
	}

	var readOpts []core.ReadOption
	if opts.sheet != "" {
		readOpts = append(readOpts, core.WithSheet(opts.sheet))
	}

	var rep *report
	if opts.stream {
		rep, err = streamFile(ctx, imp, rt, file, readOpts)
	} else {
		rep, err = readFile(ctx, imp, rt, file, readOpts)
	}
	if rep != nil {
		rep.render(stdout, opts.maxErrors)
	}
	if err != nil {
		fmt.Fprintf(stderr, "importcheck: %s\n", core.FormatUserError(err))
		if opts.verbose {
			fmt.Fprintf(stderr, "importcheck: %v\n", err)
		}
		return exitError
	}

	if opts.strict && rep.failed > 0 {
		return exitRowFails
	}
	return exitOK
}

// report is what importcheck prints for one file.
type report struct {
	file      string
	mode      string
	typeLabel string
	author    string
	modified  *time.Time
	estimated int
	total     int
	succeeded int
	failed    int
	errors    []core.RowError
	elapsed   time.Duration
}

func readFile(ctx context.Context, imp *core.Importer, rt core.RecordType, f core.File, opts []core.ReadOption) (*report, error) {
	start := time.Now()
	summary, err := rt.ReadAll(ctx, imp, f, opts...)
	if err != nil {
		return nil, err
	}

	return &report{
		file:      summary.FileName,
		mode:      "whole file",
		typeLabel: rt.Label,
		author:    summary.Author,
		modified:  summary.ModifiedAt,
		total:     summary.TotalRows,
		succeeded: summary.SuccessCount,
		failed:    summary.FailureCount,
		errors:    summary.Errors,
		elapsed:   time.Since(start),
	}, nil
}

func streamFile(ctx context.Context, imp *core.Importer, rt core.RecordType, f core.File, opts []core.ReadOption) (*report, error) {
	start := time.Now()
	s, err := rt.Stream(ctx, imp, f, opts...)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	rep := &report{file: f.Name(), mode: "stream", typeLabel: rt.Label}
	for o := range s.All() {
		rep.total++
		if o.OK {
			rep.succeeded++
			continue
		}
		rep.failed++
		rep.errors = append(rep.errors, core.RowError{Row: o.Row, Message: o.Error})
	}
	rep.estimated = s.Estimated()
	rep.elapsed = time.Since(start)

	// A stream that stopped early still reports what it read.
	return rep, s.Err()
}

func (r *report) render(w io.Writer, maxErrors int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(r.file)
	t.AppendRow(table.Row{"Record type", r.typeLabel})
	t.AppendRow(table.Row{"Mode", r.mode})
	if r.author != "" {
		t.AppendRow(table.Row{"Author", r.author})
	}
	if r.modified != nil {
		t.AppendRow(table.Row{"Modified", r.modified.Format(time.RFC3339)})
	}
	if r.estimated > 0 {
		t.AppendRow(table.Row{"Estimated rows", r.estimated})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"Rows", r.total})
	t.AppendRow(table.Row{"Succeeded", r.succeeded})
	t.AppendRow(table.Row{"Failed", r.failed})
	t.AppendRow(table.Row{"Elapsed", r.elapsed.Round(time.Millisecond).String()})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	t.Render()

	if len(r.errors) == 0 {
		return
	}

	shown := r.errors
	if maxErrors > 0 && len(shown) > maxErrors {
		shown = shown[:maxErrors]
	}

	et := table.NewWriter()
	et.SetOutputMirror(w)
	et.SetStyle(table.StyleLight)
	et.AppendHeader(table.Row{"Row", "Code", "Error"})
	for _, e := range shown {
		et.AppendRow(table.Row{e.Row, core.MapMessage(e.Message).Code, e.Message})
	}
	if hidden := len(r.errors) - len(shown); hidden > 0 {
		et.AppendFooter(table.Row{"", "", strconv.Itoa(hidden) + " more not shown"})
	}
	et.Style().Format = table.FormatOptions{
		Footer: text.FormatDefault,
		Header: text.FormatDefault,
		Row:    text.FormatDefault,
	}
	et.Render()
}

func listRecordTypes(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Key", "Label", "Columns"})
	for _, rt := range core.All() {
		t.AppendRow(table.Row{rt.Key, rt.Label, len(rt.Columns)})
	}
	t.Style().Format = table.FormatOptions{
		Footer: text.FormatDefault,
		Header: text.FormatDefault,
		Row:    text.FormatDefault,
	}
	t.Render()
}
