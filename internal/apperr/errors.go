package apperr

import (
	"context"
	"errors"
	"strconv"
)

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Human readable message, safe to return to clients
	Metadata map[string]string // Offending field, bound or state
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithMetadata creates a domain error carrying structured details.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WrapWithMetadata creates a domain error with both metadata and a cause.
func WrapWithMetadata(code Code, message string, metadata map[string]string, cause error) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata, Cause: cause}
}

// Validation reports a malformed or missing input field.
func Validation(field, message string) *Error {
	return WithMetadata(CodeValidation, message, map[string]string{"field": field})
}

// NotFound reports a missing entity of the given kind.
func NotFound(kind string, id uint64) *Error {
	return WithMetadata(CodeNotFound, kind+" not found", map[string]string{
		"kind": kind,
		"id":   strconv.FormatUint(id, 10),
	})
}

// Unavailable wraps a failure of an external collaborator. Deadline and
// cancellation errors from the context end up here as well.
func Unavailable(message string, cause error) *Error {
	return Wrap(CodeUnavailable, message, cause)
}

// CodeOf extracts the code from err, or CodeUnknown when err is not a
// domain error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// HTTPStatus maps any error to the HTTP status the API returns for it.
func HTTPStatus(err error) int {
	return CodeOf(err).HTTPStatus()
}

// Retryable reports whether a caller may safely retry the operation with
// backoff.
func Retryable(err error) bool {
	return CodeOf(err) == CodeUnavailable
}

// FromContext converts context expiry into an Unavailable error and returns
// any other error untouched.
func FromContext(err error, message string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Unavailable(message, err)
	}
	return err
}
