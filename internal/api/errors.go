package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind separates failures that reached the server from those that never did.
type Kind int

const (
	KindHTTP Kind = iota + 1
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindTransport:
		return "transport"
	}
	return "unknown"
}

// Error is returned by every Client call that did not succeed.
type Error struct {
	Kind   Kind
	Op     string // e.g. "POST /todos"
	Status int    // zero for transport failures
	Msg    string // server-provided message, if any
	Err    error  // underlying transport error, if any
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		if e.Msg != "" {
			return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Status, e.Msg)
		}
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.Status)
	default:
		return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func asError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsHTTP reports whether err is a non-2xx response.
func IsHTTP(err error) bool {
	e, ok := asError(err)
	return ok && e.Kind == KindHTTP
}

// IsTransport reports whether err is a request that never completed.
func IsTransport(err error) bool {
	e, ok := asError(err)
	return ok && e.Kind == KindTransport
}

func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	if e, ok := asError(err); ok {
		return e.Status
	}
	return 0
}

// MessageOf returns the server message carried by err, or "".
func MessageOf(err error) string {
	if e, ok := asError(err); ok {
		return e.Msg
	}
	return ""
}
