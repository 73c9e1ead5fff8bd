package core

import "errors"

// Precondition errors abort an import before any row is processed.
// Their texts double as MapError patterns, keep them in sync with
// error_messages.go.
var (
	ErrNoFile            = errors.New("no file provided")
	ErrEmptyFile         = errors.New("empty file")
	ErrFileTooLarge      = errors.New("file too large")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrUnsupportedField  = errors.New("unsupported field type")
	ErrSheetNotFound     = errors.New("sheet not found")
	ErrNotStruct         = errors.New("record type must be a struct")
)

// ErrStreamingUnsupported is a capability error: the format can only be read
// as a whole.
var ErrStreamingUnsupported = errors.New("streaming not supported")

// IsPrecondition reports whether err rejected the file before reading rows.
func IsPrecondition(err error) bool {
	for _, target := range []error{
		ErrNoFile, ErrEmptyFile, ErrFileTooLarge, ErrUnsupportedFormat,
		ErrUnsupportedField, ErrSheetNotFound, ErrNotStruct,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
