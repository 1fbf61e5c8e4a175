// Package failure defines the error kinds a cycle can end with.
//
// Every kind is handled inside a cycle; none of them stops the process.
package failure

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Match with errors.Is.
var (
	ErrFetch       = errors.New("fetch failure")
	ErrParse       = errors.New("parse failure")
	ErrEmptyResult = errors.New("empty result")
	ErrWrite       = errors.New("write failure")
)

// NoOffset marks errors not tied to a page.
const NoOffset = -1

// Error carries the operation, kind and page offset of a failure.
type Error struct {
	Op     string
	Kind   error
	Offset int
	Err    error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Offset != NoOffset {
		msg += fmt.Sprintf(" (offset %d)", e.Offset)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Fetch wraps a transport failure for the page at offset.
func Fetch(op string, offset int, err error) error {
	return &Error{Op: op, Kind: ErrFetch, Offset: offset, Err: err}
}

// Parse wraps a decoding failure for the page at offset.
func Parse(op string, offset int, err error) error {
	return &Error{Op: op, Kind: ErrParse, Offset: offset, Err: err}
}

// Empty reports that no records were obtained.
func Empty(op string) error {
	return &Error{Op: op, Kind: ErrEmptyResult, Offset: NoOffset}
}

// Write wraps a file I/O failure.
func Write(op string, err error) error {
	return &Error{Op: op, Kind: ErrWrite, Offset: NoOffset, Err: err}
}

// KindLabel returns a short label for metrics and logs.
func KindLabel(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrEmptyResult):
		return "empty"
	case errors.Is(err, ErrWrite):
		return "write"
	default:
		return "unknown"
	}
}
