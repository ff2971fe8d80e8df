package model

import (
	"errors"
	"sync/atomic"
)

// ErrValidation marks failures caught locally, before any network call.
var ErrValidation = errors.New("validation failed")

// Credential store keys.
const (
	KeyToken    = "token"
	KeyUsername = "username"
)

// Session is the authenticated identity of the current user.
// The zero value is an anonymous session.
type Session struct {
	Token    string
	Username string
}

// IsAuthenticated is true iff a token is held.
func (s Session) IsAuthenticated() bool { return s.Token != "" }

// RequestState is the busy flag shared by every network-triggering operation.
// It only signals loading; it never blocks a caller.
type RequestState struct {
	busy atomic.Bool
}

func (r *RequestState) Set(busy bool) { r.busy.Store(busy) }

func (r *RequestState) Busy() bool { return r.busy.Load() }
