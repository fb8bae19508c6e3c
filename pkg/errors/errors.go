// Package errors defines the typed error carried from services to the HTTP
// layer. Services return (possibly wrapped) *AppError values; anything else
// is reported to clients as an internal error.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is an error with a stable client-facing code and HTTP status.
// Internal holds the underlying cause, which is logged but never rendered.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.Internal != nil:
		return e.Message + ": " + e.Internal.Error()
	default:
		return e.Message
	}
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// Is matches on code and status, so a copy made by WithInternal still
// satisfies errors.Is against its sentinel.
func (e *AppError) Is(target error) bool {
	other, ok := target.(*AppError)
	if !ok || e == nil || other == nil {
		return false
	}
	return e.Code == other.Code && e.StatusCode == other.StatusCode
}

// WithInternal returns a copy of e carrying cause.
func (e *AppError) WithInternal(cause error) *AppError {
	if e == nil {
		return nil
	}
	cpy := *e
	cpy.Internal = cause
	return &cpy
}

// WithMessage returns a copy of e with a different client message.
func (e *AppError) WithMessage(format string, args ...any) *AppError {
	if e == nil {
		return nil
	}
	cpy := *e
	cpy.Message = fmt.Sprintf(format, args...)
	return &cpy
}

// Server reports whether e should be treated as a server-side failure.
func (e *AppError) Server() bool {
	return e != nil && (e.StatusCode == 0 || e.StatusCode >= http.StatusInternalServerError)
}

func New(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: status}
}

var (
	ErrBadRequest         = New("BAD_REQUEST", "Invalid request", http.StatusBadRequest)
	ErrUnauthorized       = New("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", "Invalid email or password", http.StatusUnauthorized)
	ErrForbidden          = New("FORBIDDEN", "Permission denied", http.StatusForbidden)
	ErrNotFound           = New("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrConflict           = New("CONFLICT", "Resource already exists", http.StatusConflict)
	ErrRateLimit          = New("RATE_LIMIT_EXCEEDED", "Too many requests, please slow down", http.StatusTooManyRequests)
	ErrInternalServer     = New("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
)

// FromError finds the outermost *AppError in err's chain. Errors without one
// become ErrInternalServer with err attached as the cause.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer.WithInternal(err)
}

// NewBadRequest is ErrBadRequest with a specific message, typically a
// validation summary.
func NewBadRequest(message string) *AppError {
	return ErrBadRequest.WithMessage("%s", message)
}
