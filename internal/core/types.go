package core

import (
	"io"
	"time"
)

// File is the host-provided upload abstraction the importer reads from.
// ContentType is advisory only; format dispatch uses the name's extension.
type File interface {
	Name() string
	Size() int64
	ContentType() string
	// Open returns a fresh reader positioned at the start of the content.
	Open() (io.ReadCloser, error)
}

// FileMetadata carries optional authorship information some formats expose
// (spreadsheet document properties). Zero values mean "not available".
type FileMetadata struct {
	Author         string
	LastModifiedBy string
	CreatedAt      *time.Time
	ModifiedAt     *time.Time
}

// RowError describes a data row that could not be mapped.
// Row 0 is reserved for payload-level failures that have no row boundary.
type RowError struct {
	Row     int    `json:"row" msgpack:"row"`
	Message string `json:"message" msgpack:"message"`
}

// Result is the whole-file outcome of an import: every successfully mapped
// record plus one RowError per failed row. Counts are derived from the two
// slices and can't drift from them.
type Result[T any] struct {
	FileName       string
	ContentType    string
	Author         string
	LastModifiedBy string
	CreatedAt      *time.Time
	ModifiedAt     *time.Time

	Records []T
	Errors  []RowError
}

// SuccessCount returns the number of mapped records.
func (r *Result[T]) SuccessCount() int {
	return len(r.Records)
}

// FailureCount returns the number of failed rows.
func (r *Result[T]) FailureCount() int {
	return len(r.Errors)
}

// TotalRows returns SuccessCount + FailureCount.
func (r *Result[T]) TotalRows() int {
	return len(r.Records) + len(r.Errors)
}

// RowOutcome is the streaming counterpart of one data row.
// Exactly one of Record and Error is set.
type RowOutcome[T any] struct {
	Row     int    // physical row index, header counted
	Columns int    // header columns of the table the row belongs to
	OK      bool
	Record  *T     // nil unless OK
	Error   string // empty when OK
}

// ImportSummary is a type-erased Result used by hosts that pick the record
// type at runtime (see RegisterType).
type ImportSummary struct {
	FileName       string     `json:"fileName" msgpack:"fileName"`
	ContentType    string     `json:"contentType" msgpack:"contentType"`
	Author         string     `json:"author,omitempty" msgpack:"author,omitempty"`
	LastModifiedBy string     `json:"lastModifiedBy,omitempty" msgpack:"lastModifiedBy,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty" msgpack:"createdAt,omitempty"`
	ModifiedAt     *time.Time `json:"modifiedAt,omitempty" msgpack:"modifiedAt,omitempty"`
	TotalRows      int        `json:"totalRows" msgpack:"totalRows"`
	SuccessCount   int        `json:"successCount" msgpack:"successCount"`
	FailureCount   int        `json:"failureCount" msgpack:"failureCount"`
	Records        []any      `json:"records" msgpack:"records"`
	Errors         []RowError `json:"errors" msgpack:"errors"`
}

// Outcome is a type-erased RowOutcome.
type Outcome struct {
	Row     int    `json:"row"`
	Columns int    `json:"columns"`
	OK      bool   `json:"ok"`
	Record  any    `json:"record,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Summarize erases the record type of r.
func Summarize[T any](r *Result[T]) *ImportSummary {
	records := make([]any, len(r.Records))
	for i := range r.Records {
		records[i] = r.Records[i]
	}
	errs := r.Errors
	if errs == nil {
		errs = []RowError{}
	}
	return &ImportSummary{
		FileName:       r.FileName,
		ContentType:    r.ContentType,
		Author:         r.Author,
		LastModifiedBy: r.LastModifiedBy,
		CreatedAt:      r.CreatedAt,
		ModifiedAt:     r.ModifiedAt,
		TotalRows:      r.TotalRows(),
		SuccessCount:   r.SuccessCount(),
		FailureCount:   r.FailureCount(),
		Records:        records,
		Errors:         errs,
	}
}
