// Package errors provides structured error types for the simply CLI.
//
// Every fatal condition the commands can hit carries a machine-readable
// [Code] so callers (and the --json output mode) can tell a validation
// failure apart from a user cancellation or an install that is still running.
//
// # Error Codes
//
// Codes follow a category prefix convention:
//   - INVALID_*: Input validation failures (ids, flags, project files)
//   - NOT_FOUND: A hub query returned no matching record
//   - CONNECTION, UNAUTHORIZED, NETWORK_ERROR: Org access failures
//   - INSTALL_*: Terminal install outcomes
//   - CANCELED: The user declined a required prompt
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidID, "%s is not a subscriber package version id", id)
//	if errors.Is(err, errors.ErrCodeInvalidID) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeConnection, origErr, "connect to %s", alias)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidID      Code = "INVALID_ID"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidProject Code = "INVALID_PROJECT"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"
	ErrCodeAPIVersion     Code = "API_VERSION"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Connection and network errors
	ErrCodeConnection   Code = "CONNECTION"
	ErrCodeNetwork      Code = "NETWORK_ERROR"
	ErrCodeTimeout      Code = "TIMEOUT"
	ErrCodeUnauthorized Code = "UNAUTHORIZED"

	// Install outcomes
	ErrCodeInstallInProgress Code = "INSTALL_IN_PROGRESS"
	ErrCodeInstallFailed     Code = "INSTALL_FAILED"

	// User interaction
	ErrCodeCanceled Code = "CANCELED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// ExitCode maps an error to a process exit status.
// User cancellations exit with 2 so scripts can tell them apart from failures.
func ExitCode(err error) int {
	switch GetCode(err) {
	case ErrCodeCanceled:
		return 2
	case ErrCodeInstallInProgress:
		return 3
	default:
		return 1
	}
}
