package model

import (
	"errors"
	"fmt"
)

// Error kinds shared by the editor core, the AI bridge and the backend.
var (
	ErrInvalidFormat        = errors.New("invalid format")
	ErrValidation           = errors.New("validation error")
	ErrNotFound             = errors.New("not found")
	ErrNetwork              = errors.New("network error")
	ErrLLMUnavailable       = errors.New("language model unavailable")
	ErrLLMRateLimited       = errors.New("language model rate limited")
	ErrLLMMalformedResponse = errors.New("malformed language model response")
	ErrStaleResponse        = errors.New("response superseded by a newer edit")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrConflict             = errors.New("conflict")
	ErrInsufficientCredits  = errors.New("insufficient credits")
)

// Error carries an error kind together with the failing operation and a readable message.
type Error struct {
	Kind    error
	Op      string
	Message string
	Err     error
}

// NewError builds an Error of the given kind with a formatted message.
func NewError(kind error, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds an Error of the given kind around an underlying cause.
func WrapError(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: err.Error(), Err: err}
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

// Is matches the error against its kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Severity of a user-facing notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// SeverityOf classifies err for notification purposes.
func SeverityOf(err error) Severity {
	switch {
	case err == nil:
		return SeveritySuccess
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound), errors.Is(err, ErrStaleResponse):
		return SeverityWarning
	default:
		return SeverityError
	}
}
