// Package errors provides structured error types for typegraph.
//
// Store commands, storage backends and the HTTP API report failures as
// [*Error] values carrying a machine-readable [Code]. The code survives
// wrapping, so callers can branch on it without string matching:
//
//	err := s.RenameType(id, "Trade")
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    // the node was deleted in the meantime
//	}
//
// Semantic diagnostics (duplicate names, bad cardinalities, ...) are not
// errors in this sense. They are collected by package validate and never
// abort a command.
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidKind  Code = "INVALID_KIND"
	ErrCodeInvalidIndex Code = "INVALID_INDEX"

	// Graph integrity errors
	ErrCodeNotFound            Code = "NOT_FOUND"
	ErrCodeDuplicate           Code = "DUPLICATE"
	ErrCodeIncompatibleKind    Code = "INCOMPATIBLE_KIND"
	ErrCodeCircularInheritance Code = "CIRCULAR_INHERITANCE"
	ErrCodeReadOnly            Code = "READ_ONLY"

	// History errors
	ErrCodeNothingToUndo Code = "NOTHING_TO_UNDO"
	ErrCodeNothingToRedo Code = "NOTHING_TO_REDO"

	// Infrastructure errors
	ErrCodeStorage     Code = "STORAGE"
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// NotFound is shorthand for a NOT_FOUND error about a node id.
func NotFound(id string) *Error {
	return New(ErrCodeNotFound, "node %q not found", id)
}
