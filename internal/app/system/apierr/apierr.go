// Package apierr defines the typed errors handlers return to the response
// layer. A *Error carries the HTTP status and the client-facing message;
// anything else reaching the boundary is treated as an internal error.
package apierr

import (
	"errors"
	"net/http"
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a client-facing failure.
type Error struct {
	Status  int
	Message string
	Errors  []FieldError

	// cause is logged, never sent to the client.
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// WithCause attaches an underlying error for logging.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

// WithFields attaches per-field validation errors.
func (e *Error) WithFields(fields ...FieldError) *Error {
	e.Errors = append(e.Errors, fields...)
	return e
}

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func BadRequest(message string) *Error   { return New(http.StatusBadRequest, message) }
func Unauthorized(message string) *Error { return New(http.StatusUnauthorized, message) }
func Forbidden(message string) *Error    { return New(http.StatusForbidden, message) }
func NotFound(message string) *Error     { return New(http.StatusNotFound, message) }
func Conflict(message string) *Error     { return New(http.StatusConflict, message) }
func TooManyRequests(message string) *Error {
	return New(http.StatusTooManyRequests, message)
}

// Internal wraps an unexpected failure. The message is generic.
func Internal(cause error) *Error {
	return New(http.StatusInternalServerError, "Internal server error").WithCause(cause)
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
