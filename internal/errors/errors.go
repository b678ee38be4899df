// Package errors provides standardized domain errors with codes for the
// QuestBank category API.
//
// Usage:
//
//	// In the engine - return typed errors
//	if codeTaken {
//	    return errors.DuplicateCode("code %q already in use", spec.Code)
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrCycle) {
//	    // reject the move
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound       Code = "NOT_FOUND"
	CodeParentNotFound Code = "PARENT_NOT_FOUND"
	CodeDuplicateCode  Code = "DUPLICATE_CODE"
	CodeCycle          Code = "CYCLE"
	CodeHasChildren    Code = "HAS_CHILDREN"
	CodeValidation     Code = "VALIDATION"
	CodeMalformedPath  Code = "MALFORMED_PATH"
	CodeConflict       Code = "CONFLICT"
	CodeInternal       Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound, CodeParentNotFound:
		return http.StatusNotFound
	case CodeDuplicateCode, CodeConflict:
		return http.StatusConflict
	case CodeCycle, CodeHasChildren, CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeMalformedPath:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound       = &Error{Code: CodeNotFound, Message: "not found"}
	ErrParentNotFound = &Error{Code: CodeParentNotFound, Message: "parent not found"}
	ErrDuplicateCode  = &Error{Code: CodeDuplicateCode, Message: "duplicate code"}
	ErrCycle          = &Error{Code: CodeCycle, Message: "move would create a cycle"}
	ErrHasChildren    = &Error{Code: CodeHasChildren, Message: "category has children"}
	ErrValidation     = &Error{Code: CodeValidation, Message: "validation error"}
	ErrMalformedPath  = &Error{Code: CodeMalformedPath, Message: "malformed path"}
	ErrConflict       = &Error{Code: CodeConflict, Message: "transaction conflict"}
	ErrInternal       = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// ParentNotFound creates a parent not found error.
func ParentNotFound(msg string) *Error {
	return &Error{Code: CodeParentNotFound, Message: msg}
}

// ParentNotFoundf creates a parent not found error with formatted message.
func ParentNotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeParentNotFound, Message: fmt.Sprintf(format, args...)}
}

// DuplicateCode creates a duplicate code error with formatted message.
func DuplicateCode(format string, args ...any) *Error {
	return &Error{Code: CodeDuplicateCode, Message: fmt.Sprintf(format, args...)}
}

// Cycle creates a cycle error with formatted message.
func Cycle(format string, args ...any) *Error {
	return &Error{Code: CodeCycle, Message: fmt.Sprintf(format, args...)}
}

// HasChildren creates a has-children error with formatted message.
func HasChildren(format string, args ...any) *Error {
	return &Error{Code: CodeHasChildren, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// MalformedPath creates a malformed path error with formatted message.
func MalformedPath(format string, args ...any) *Error {
	return &Error{Code: CodeMalformedPath, Message: fmt.Sprintf(format, args...)}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
