package errors

import (
	"errors"
	"fmt"
)

// Kind classifies where an error originated from the client's point of view.
type Kind string

const (
	// KindValidation marks errors detected locally before any network call.
	KindValidation Kind = "validation"
	// KindAPI marks a backend response with a non-success status.
	KindAPI Kind = "api"
	// KindTransport marks a request that failed to complete at all.
	KindTransport Kind = "transport"
)

// Error is the single error type surfaced to the application shell. The
// user-facing text lives in Message; Status carries the HTTP status for API
// errors (zero otherwise).
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrAPIRequestFailed = New(KindAPI, "API request failed")
	ErrExportFailed     = New(KindAPI, "Export failed")
	ErrNetwork          = New(KindTransport, "network request failed")
	ErrPasswordMismatch = New(KindValidation, "Passwords do not match!")
	ErrPasswordTooShort = New(KindValidation, "Password must be at least 6 characters!")
	ErrRatingIncomplete = New(KindValidation, "Please select a report and provide a rating!")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, KindTransport, ErrNetwork.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// IsValidation reports whether err was raised locally without a network call.
func IsValidation(err error) bool {
	e := FromError(err)
	return e != nil && e.Kind == KindValidation
}
