// Package apperror defines the error taxonomy shared by the service and
// handler layers. Every error a core operation returns is either one of the
// four kinds below or an unexpected infrastructure failure.
package apperror

import (
	"errors"
	"fmt"
)

// Kind sentinels. Match with errors.Is.
var (
	// ErrValidation reports malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound reports an unknown event, request, user or category id.
	ErrNotFound = errors.New("not found")
	// ErrForbidden reports a caller that does not own the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict reports a well-formed request that violates a state-machine
	// or capacity rule.
	ErrConflict = errors.New("conflict")
)

// Error carries a human readable message alongside its kind.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

// Unwrap exposes both the kind and the underlying cause, if any.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation builds an ErrValidation error.
func Validation(format string, args ...any) error {
	return newError(ErrValidation, format, args...)
}

// NotFound builds an ErrNotFound error.
func NotFound(format string, args ...any) error {
	return newError(ErrNotFound, format, args...)
}

// Forbidden builds an ErrForbidden error.
func Forbidden(format string, args ...any) error {
	return newError(ErrForbidden, format, args...)
}

// Conflict builds an ErrConflict error.
func Conflict(format string, args ...any) error {
	return newError(ErrConflict, format, args...)
}

// Wrap attaches cause to a new error of the given kind.
func Wrap(kind, cause error, format string, args ...any) error {
	e := newError(kind, format, args...)
	e.Err = cause
	return e
}

// KindOf returns the kind sentinel of err, or nil for unexpected errors.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrForbidden, ErrConflict} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
