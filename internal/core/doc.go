// Package core maps uploaded files onto caller-defined record types.
//
// It contains all import logic independent of any UI or transport layer and
// is used unchanged by the web server, the importcheck CLI and tests.
//
// # Formats
//
// The file extension picks the reader (case-insensitive, optionally followed
// by .gz, .zst or .xz):
//
//   - .csv, .tsv: delimited text, first non-blank line is the header
//   - .xlsx, .xlsm: every sheet is a table with its own header row
//   - .json, .yaml, .yml: a list of objects decoded in one step
//
// # Record Types
//
// A record type is a plain struct. Headers match field names
// case-insensitively; extra names are declared with the header tag:
//
//	type Person struct {
//	    Name      string    `header:"FullName"`
//	    Age       int
//	    BirthDate time.Time `header:"DOB,Date of Birth"`
//	    Notes     string    `header:"-"`
//	}
//
// Field mappings are built once per type and cached for the process.
//
// # Reading
//
// [ReadAll] materializes a [Result]; rows that fail to convert become
// [RowError] entries and never abort the import. [ReadStreaming] returns a
// [Stream] whose All method yields one [RowOutcome] per data row and hands
// control back to the scheduler every [YieldInterval] rows.
//
//	imp := core.NewImporter()
//	res, err := core.ReadAll[Person](ctx, imp, core.NewMultipartFile(hdr))
//
// Returned errors are preconditions ([ErrEmptyFile], [ErrFileTooLarge],
// [ErrUnsupportedFormat], ...), the capability error
// [ErrStreamingUnsupported], or I/O failures.
//
// # Error Handling
//
// Technical errors and row messages are mapped to user-friendly messages
// with [MapError] and [MapMessage]. Each category has its own code prefix:
//
//   - FILE: size, format, sheet and archive problems
//   - FMT: capability and record type problems
//   - VAL: cell conversion failures
//   - IMP: busy, cancelled and timed-out imports
package core
