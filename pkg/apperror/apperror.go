// Package apperror defines the error taxonomy shared by all domain services.
// Services return these instead of raw errors so handlers can map failures to
// HTTP status codes in one place.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	// Validation marks malformed or missing input.
	Validation Kind = iota + 1
	// Conflict marks uniqueness violations (duplicate slot, username, weekday row).
	Conflict
	// NotFound marks lookup misses.
	NotFound
	// Authorization marks role-gated operations attempted by the wrong role.
	Authorization
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Conflict:
		return "conflict"
	case NotFound:
		return "not_found"
	case Authorization:
		return "authorization"
	}
	return "unknown"
}

// Error is a classified application error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a classified error with a user-visible message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf returns a classified error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or 0 if err is not an apperror.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return KindOf(err) == Validation }

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool { return KindOf(err) == Conflict }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return KindOf(err) == NotFound }

// IsAuthorization reports whether err is an authorization error.
func IsAuthorization(err error) bool { return KindOf(err) == Authorization }

// HTTPStatus maps an error's Kind to an HTTP status code. Unclassified errors
// map to 500.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Validation:
		return 400
	case Authorization:
		return 403
	case NotFound:
		return 404
	case Conflict:
		return 409
	default:
		return 500
	}
}
