package lexicon

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is a machine-readable failure category.
type ErrorCode string

const (
	CodeSchemaMalformed       ErrorCode = "schema_malformed"
	CodeDuplicateIdentifier   ErrorCode = "duplicate_identifier"
	CodeUnresolvedReference   ErrorCode = "unresolved_reference"
	CodeInvalidReferenceKind  ErrorCode = "invalid_reference_kind"
	CodeDefNotFound           ErrorCode = "def_not_found"
	CodeInvalidKind           ErrorCode = "invalid_kind"
	CodeCyclicOrMissingImport ErrorCode = "cyclic_or_missing_import"
)

// Sentinels for errors.Is. They match any *Error with the same code.
var (
	ErrSchemaMalformed       = &Error{Code: CodeSchemaMalformed}
	ErrDuplicateIdentifier   = &Error{Code: CodeDuplicateIdentifier}
	ErrUnresolvedReference   = &Error{Code: CodeUnresolvedReference}
	ErrInvalidReferenceKind  = &Error{Code: CodeInvalidReferenceKind}
	ErrDefNotFound           = &Error{Code: CodeDefNotFound}
	ErrInvalidKind           = &Error{Code: CodeInvalidKind}
	ErrCyclicOrMissingImport = &Error{Code: CodeCyclicOrMissingImport}
)

// Issue is one violated constraint found while validating a document.
type Issue struct {
	// Path is the dotted location inside the document, e.g. "defs.main.input.encoding".
	Path     string
	Message  string
	Expected string
	Actual   string
}

func (i Issue) String() string {
	var b strings.Builder
	if i.Path != "" {
		b.WriteString(i.Path)
		b.WriteString(": ")
	}
	b.WriteString(i.Message)
	if i.Expected != "" || i.Actual != "" {
		fmt.Fprintf(&b, " (expected %s, got %s)", orNone(i.Expected), orNone(i.Actual))
	}
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "nothing"
	}
	return s
}

// Error is the error type returned by every lexicon operation.
type Error struct {
	Code    ErrorCode
	Message string

	// Document is the NSID (or source name) of the offending document, if known.
	Document string

	// Path locates the failure inside Document.
	Path string

	// Value is the offending raw value for SchemaMalformed errors.
	Value any

	// Issues lists every violation, in document order, for SchemaMalformed errors.
	Issues []Issue

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Document != "" {
		b.WriteString(": ")
		b.WriteString(e.Document)
	}
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	for _, issue := range e.Issues {
		b.WriteString("\n  - ")
		b.WriteString(issue.String())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == "" && t.Document == ""
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var lexErr *Error
	if errors.As(err, &lexErr) {
		return lexErr.Code
	}
	return ""
}

func errorf(code ErrorCode, doc, path, format string, args ...any) *Error {
	return &Error{
		Code:     code,
		Document: doc,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Warning is a non-fatal finding attached to a document.
type Warning struct {
	Code     string
	Message  string
	Document string
	Path     string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s at %s: %s", w.Code, w.Document, w.Path, w.Message)
}
