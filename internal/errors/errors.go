package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType categorizes a failure so that callers can distinguish
// "repository not found/forbidden" from "transient upstream failure" from
// "malformed input" without parsing messages.
type ErrorType int

const (
	// Validation errors - malformed input such as a bad "owner/repo" name
	ErrorTypeValidation ErrorType = iota
	// NotFound errors - unknown or inaccessible repository/resource
	ErrorTypeNotFound
	// Forbidden errors - authentication or permission failures
	ErrorTypeForbidden
	// Upstream errors - non-2xx API responses, status and body carried verbatim
	ErrorTypeUpstream
	// Network errors - connection or timeout failures, retryable at transport
	ErrorTypeNetwork
	// Truncated errors - oversized listings degraded to "unknown"
	ErrorTypeTruncated
)

// Error is a structured error carrying the upstream status code and message.
type Error struct {
	Type    ErrorType
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on error type so errors.Is works across wrapped chains.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// New creates a new error with the given type and message.
func New(errType ErrorType, message string) *Error {
	return &Error{Type: errType, Message: message}
}

// Newf creates a new error with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with a type and message. Returns nil when
// err is nil so call sites can wrap unconditionally.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Type: errType, Message: message, Cause: err}
}

// FromStatus maps an HTTP status code and body to a typed error. The message
// is kept verbatim per the upstream contract.
func FromStatus(status int, message string) *Error {
	e := &Error{Status: status, Message: message}
	switch status {
	case http.StatusNotFound:
		e.Type = ErrorTypeNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		e.Type = ErrorTypeForbidden
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		e.Type = ErrorTypeNetwork
	default:
		e.Type = ErrorTypeUpstream
	}
	return e
}

// TypeOf extracts the ErrorType from an error chain. The second return is
// false when no structured error is present.
func TypeOf(err error) (ErrorType, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Type, true
	}
	return 0, false
}

// IsNotFound reports whether the error chain denotes a missing or
// inaccessible resource.
func IsNotFound(err error) bool {
	t, ok := TypeOf(err)
	return ok && (t == ErrorTypeNotFound || t == ErrorTypeForbidden)
}

// IsTransient reports whether the failure is worth retrying upstream.
func IsTransient(err error) bool {
	t, ok := TypeOf(err)
	return ok && t == ErrorTypeNetwork
}

// IsValidation reports whether the failure was caused by malformed input.
func IsValidation(err error) bool {
	t, ok := TypeOf(err)
	return ok && t == ErrorTypeValidation
}
