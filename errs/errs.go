// Package errs defines the error-kind taxonomy the engine surfaces to its
// callers and wraps underlying causes with a stack trace for operator-facing
// logs.
package errs

import (
	"net/http"

	"github.com/go-errors/errors"
)

// Kind classifies an engine error by its origin, independent of the
// underlying cause. The HTTP surface maps each Kind to a status code via
// Status.
type Kind string

const (
	BadRequest        Kind = "bad_request"
	CapacityExhausted Kind = "capacity_exhausted"
	SessionNotFound   Kind = "session_not_found"
	RedirectLoop      Kind = "redirect_loop"
	TooManyRedirects  Kind = "too_many_redirects"
	MalformedRedirect Kind = "malformed_redirect"
	UpstreamDial      Kind = "upstream_dial"
	UpstreamTLS       Kind = "upstream_tls"
	ProxyProtocol     Kind = "proxy_protocol"
	Timeout           Kind = "timeout"
	Decode            Kind = "decode"
)

// statusByKind maps each Kind to its HTTP status per spec.md §7's table.
var statusByKind = map[Kind]int{
	BadRequest:        http.StatusBadRequest,
	CapacityExhausted: http.StatusBadRequest,
	SessionNotFound:   http.StatusNotFound,
	RedirectLoop:      http.StatusBadGateway,
	TooManyRedirects:  http.StatusBadGateway,
	MalformedRedirect: http.StatusBadGateway,
	UpstreamDial:      http.StatusBadGateway,
	UpstreamTLS:       http.StatusBadGateway,
	ProxyProtocol:     http.StatusBadGateway,
	Timeout:           http.StatusGatewayTimeout,
	Decode:            http.StatusBadGateway,
}

// Status returns the HTTP status code for k, or 500 if k is unrecognized.
func (k Kind) Status() int {
	if s, ok := statusByKind[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error is an engine error carrying a Kind, a human-readable message, and
// the wrapped cause (if any), with a captured stack trace for debug logging.
type Error struct {
	Kind    Kind
	Message string
	cause   *errors.Error
}

// New creates an Error of the given kind with message, with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: errors.Wrap(errors.New(message), 1)}
}

// Wrap creates an Error of the given kind wrapping err, preserving the
// original error's stack trace if it is already a *errors.Error.
func Wrap(kind Kind, message string, err error) *Error {
	if err == nil {
		return New(kind, message)
	}
	var wrapped *errors.Error
	if e, ok := err.(*errors.Error); ok {
		wrapped = e
	} else {
		wrapped = errors.Wrap(err, 1)
	}
	return &Error{Kind: kind, Message: message, cause: wrapped}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil && e.Message != e.cause.Error() {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/errors.As to traverse into the wrapped cause.
func (e *Error) Unwrap() error {
	if e.cause == nil {
		return nil
	}
	return e.cause.Err
}

// Stack returns the wrapped cause's formatted stack trace, for debug-level
// logging only — never surfaced to callers over the HTTP API.
func (e *Error) Stack() string {
	if e.cause == nil {
		return ""
	}
	return string(e.cause.Stack())
}

// As reports whether err is (or wraps) an *Error, assigning it to target if
// so. It is a thin convenience over the standard errors.As.
func As(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
