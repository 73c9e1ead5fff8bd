package core

// # Error Codes Reference
//
// Import errors are shown to users with a code they can quote to support.
// Codes are grouped by category:
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large            Patterns: "file too large"
//	FILE002 - Invalid delimited text    Patterns: "invalid csv"
//	FILE003 - Encoding error            Patterns: "encoding error"
//	FILE004 - No file                   Patterns: "no file provided"
//	FILE005 - Empty file                Patterns: "empty file"
//	FILE006 - Unsupported format        Patterns: "unsupported format"
//	FILE007 - Sheet not found           Patterns: "sheet not found"
//	FILE008 - Invalid spreadsheet       Patterns: "open spreadsheet"
//	FILE009 - Damaged compressed file   Patterns: "gzip:", "zstd:", "xz:"
//
// # Format Errors (FMT001-FMT099)
//
//	FMT001 - Streaming unsupported      Patterns: "streaming not supported"
//	FMT002 - Unsupported record field   Patterns: "unsupported field type", "record type must be a struct"
//
// # Validation Errors (VAL001-VAL099)
//
// Row messages embed the converter's reason, so these match inside
// "Row N, column 'H' parse failed: <reason>":
//
//	VAL001 - Invalid date               Patterns: "invalid date"
//	VAL002 - Invalid number             Patterns: "invalid number"
//	VAL003 - Invalid boolean            Patterns: "invalid boolean"
//	VAL004 - Invalid duration           Patterns: "invalid duration"
//	VAL005 - Required value missing     Patterns: "empty value"
//	VAL006 - Invalid enum               Patterns: "invalid enum"
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - System busy                Patterns: "too many imports"
//	IMP002 - Request cancelled          Patterns: "context canceled"
//	IMP003 - Request timeout            Patterns: "context deadline exceeded"
//
// # Record Types (REC001-REC099)
//
//	REC001 - Unknown record type        Patterns: "unknown record type"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited              Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Check the application logs for
// the original technical error.
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// Keep the table in the same order as the reference above.
var errorPatterns = []errorPattern{
	// File errors
	{"file too large", UserMessage{
		Message: "File exceeds the maximum size for a full import",
		Action:  "Split the file, or use the streaming import",
		Code:    "FILE001",
	}},
	{"invalid csv", UserMessage{
		Message: "File is not valid delimited text",
		Action:  "Check quoting and delimiters, then upload again",
		Code:    "FILE002",
	}},
	{"encoding error", UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save file as UTF-8 encoding",
		Code:    "FILE003",
	}},
	{"no file provided", UserMessage{
		Message: "No file was selected",
		Action:  "Please select a file to import",
		Code:    "FILE004",
	}},
	{"empty file", UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a file with a header row and data rows",
		Code:    "FILE005",
	}},
	{"unsupported format", UserMessage{
		Message: "This file type is not supported",
		Action:  "Upload a .csv, .tsv, .xlsx, .json or .yaml file",
		Code:    "FILE006",
	}},
	{"sheet not found", UserMessage{
		Message: "The requested sheet does not exist in this workbook",
		Action:  "Check the sheet name, or leave it blank to read every sheet",
		Code:    "FILE007",
	}},
	{"open spreadsheet", UserMessage{
		Message: "File is not a valid spreadsheet",
		Action:  "Re-save the workbook as .xlsx and upload again",
		Code:    "FILE008",
	}},
	{"gzip:", damagedArchive},
	{"zstd:", damagedArchive},
	{"xz:", damagedArchive},

	// Format errors
	{"streaming not supported", UserMessage{
		Message: "This file type can only be imported in full",
		Action:  "Use the regular import for this file",
		Code:    "FMT001",
	}},
	{"unsupported field type", UserMessage{
		Message: "The record type has a field that cannot be imported",
		Action:  "Contact support",
		Code:    "FMT002",
	}},
	{"record type must be a struct", UserMessage{
		Message: "The record type has a field that cannot be imported",
		Action:  "Contact support",
		Code:    "FMT002",
	}},

	// Validation errors
	{"invalid date", UserMessage{
		Message: "Invalid date format detected",
		Action:  "Use YYYY-MM-DD, MM/DD/YYYY, or Jan 15, 2024",
		Code:    "VAL001",
	}},
	{"invalid number", UserMessage{
		Message: "Invalid number format detected",
		Action:  "Use digits with an optional decimal point",
		Code:    "VAL002",
	}},
	{"invalid boolean", UserMessage{
		Message: "Invalid yes/no value detected",
		Action:  "Use true/false, yes/no or 1/0",
		Code:    "VAL003",
	}},
	{"invalid duration", UserMessage{
		Message: "Invalid duration detected",
		Action:  "Use values such as 90s, 15m or 1h30m",
		Code:    "VAL004",
	}},
	{"empty value", UserMessage{
		Message: "Required value is empty",
		Action:  "Fill in every mapped column, or remove the column",
		Code:    "VAL005",
	}},
	{"invalid enum", UserMessage{
		Message: "Value is not in the allowed list",
		Action:  "Check the allowed values for this field",
		Code:    "VAL006",
	}},

	// Import errors
	{"too many imports", UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "IMP001",
	}},
	{"context canceled", UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "IMP002",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or the streaming import",
		Code:    "IMP003",
	}},

	// Record types
	{"unknown record type", UserMessage{
		Message: "Unknown record type",
		Action:  "Pick one of the listed record types",
		Code:    "REC001",
	}},

	// Rate limiting
	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

var damagedArchive = UserMessage{
	Message: "Compressed file is damaged or incomplete",
	Action:  "Compress the file again and re-upload it",
	Code:    "FILE009",
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	return MapMessage(err.Error())
}

// MapMessage is MapError for plain text such as RowError.Message.
func MapMessage(s string) UserMessage {
	if s == "" {
		return UserMessage{}
	}
	lower := strings.ToLower(s)
	for _, ep := range errorPatterns {
		if strings.Contains(lower, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error (for logs) with its user message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
