// Package errs defines the service's typed error hierarchy. The HTTP status
// of a failure is decided where the error is created, not inferred later from
// message text.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping and metrics labels.
type Kind string

const (
	// KindValidation marks bad or missing caller input.
	KindValidation Kind = "validation"
	// KindNotFound marks a missing resource.
	KindNotFound Kind = "not_found"
	// KindExecution marks an external tool failure, timeout, or output overrun.
	KindExecution Kind = "execution"
	// KindInternal marks everything else.
	KindInternal Kind = "internal"
)

// Error is a classified service error carrying its HTTP status.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation creates a 400-class input error.
func Validation(format string, args ...any) *Error {
	return &Error{
		Kind:    KindValidation,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf(format, args...),
	}
}

// NotFound creates a 404-class error.
func NotFound(format string, args ...any) *Error {
	return &Error{
		Kind:    KindNotFound,
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

// Execution creates a 500-class error for a failed external tool call.
func Execution(message string, err error) *Error {
	return &Error{
		Kind:    KindExecution,
		Status:  http.StatusInternalServerError,
		Message: message,
		Err:     err,
	}
}

// Internal creates a 500-class error for everything else.
func Internal(message string, err error) *Error {
	return &Error{
		Kind:    KindInternal,
		Status:  http.StatusInternalServerError,
		Message: message,
		Err:     err,
	}
}

// StatusOf maps any error to an HTTP status code. Untyped errors are 500.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

// KindOf maps any error to its Kind. Untyped errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}
