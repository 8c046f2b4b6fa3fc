package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the HTTP boundary can map it to a fixed
// status code and a machine-stable keyword.
type Kind string

const (
	KindValidation   Kind = "validation_error"
	KindConflict     Kind = "conflict"
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindInternal     Kind = "internal_error"
)

// Error carries a taxonomy kind, a human message, and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return newErr(KindValidation, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newErr(KindConflict, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newErr(KindNotFound, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return newErr(KindUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newErr(KindForbidden, format, args...)
}

// Internal wraps an unexpected infrastructure failure. The cause is kept
// for logging but never shown to production clients.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Msg: "internal error", Err: err}
}

// KindOf extracts the taxonomy kind from err, defaulting to internal for
// unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
