// Package apperror classifies domain failures so handlers can map them to
// HTTP statuses in one place. Every core operation fails fast with exactly
// one of these kinds; nothing in the core retries.
package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Kind identifies the failure class of an Error.
type Kind int

const (
	// Validation covers missing or malformed request fields and bad
	// identifier formats. No state change occurred.
	Validation Kind = iota + 1
	// NotFound covers unknown counterparties, requests, and referenced records.
	NotFound
	// Conflict covers duplicate relationship requests and repeated accepts.
	Conflict
	// Authorization covers record ownership mismatches.
	Authorization
	// Internal covers persistence and cryptographic failures.
	Internal
)

// Error is a classified domain error.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// Kind returns the failure class.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the external-facing message without the wrapped cause.
func (e *Error) Message() string { return e.msg }

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...interface{}) *Error {
	return newError(Validation, format, args...)
}

func NotFoundf(format string, args ...interface{}) *Error {
	return newError(NotFound, format, args...)
}

func Conflictf(format string, args ...interface{}) *Error {
	return newError(Conflict, format, args...)
}

func Authorizationf(format string, args ...interface{}) *Error {
	return newError(Authorization, format, args...)
}

// Internalf wraps an underlying cause so diagnostics keep the original error
// while the message stays presentable.
func Internalf(err error, format string, args ...interface{}) *Error {
	e := newError(Internal, format, args...)
	e.err = err
	return e
}

// KindOf extracts the Kind from err, returning Internal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return Internal
}

// HTTP converts a classified error into an echo HTTP error. Unclassified
// errors become 500s with a generic message so internals do not leak.
func HTTP(err error) *echo.HTTPError {
	var e *Error
	if !errors.As(err, &e) {
		return echo.NewHTTPError(http.StatusInternalServerError, "unexpected error occurred")
	}

	switch e.kind {
	case Validation:
		return echo.NewHTTPError(http.StatusBadRequest, e.msg)
	case NotFound:
		return echo.NewHTTPError(http.StatusNotFound, e.msg)
	case Conflict:
		return echo.NewHTTPError(http.StatusConflict, e.msg)
	case Authorization:
		return echo.NewHTTPError(http.StatusForbidden, e.msg)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, e.msg)
	}
}
