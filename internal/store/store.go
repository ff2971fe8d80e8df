// Package store defines the credential store: a small key-value persistence
// for the bearer token and username that survives restarts.
package store

import (
	"os"
	"strings"

	"github.com/Makepad-fr/tada-remote/internal/model"
)

// Store is an opaque key-value persistence.
// Get reports ok=false for a missing key; Delete of a missing key is not an error.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// Source values reported by EnvOverlay.
const (
	SourceEnv  = "env"
	SourceFile = "file"
	SourceNone = ""
)

// EnvOverlay serves selected keys from environment variables before falling
// back to Base. Writes always go to Base; the environment is never modified.
type EnvOverlay struct {
	Base Store
	Env  map[string]string // key -> environment variable name
}

// NewEnvOverlay overlays TADA_TOKEN and TADA_USERNAME on base.
func NewEnvOverlay(base Store) *EnvOverlay {
	return &EnvOverlay{
		Base: base,
		Env: map[string]string{
			model.KeyToken:    "TADA_TOKEN",
			model.KeyUsername: "TADA_USERNAME",
		},
	}
}

func (o *EnvOverlay) Get(key string) (string, bool, error) {
	if v, ok := o.fromEnv(key); ok {
		return v, true, nil
	}
	v, ok, err := o.Base.Get(key)
	if err != nil || !ok {
		return "", false, err
	}
	if key == model.KeyToken {
		v = StripBearer(v)
	}
	return v, true, nil
}

func (o *EnvOverlay) Set(key, value string) error { return o.Base.Set(key, value) }

func (o *EnvOverlay) Delete(key string) error { return o.Base.Delete(key) }

// Source tells where key currently resolves from.
func (o *EnvOverlay) Source(key string) string {
	if _, ok := o.fromEnv(key); ok {
		return SourceEnv
	}
	if _, ok, err := o.Base.Get(key); err == nil && ok {
		return SourceFile
	}
	return SourceNone
}

func (o *EnvOverlay) fromEnv(key string) (string, bool) {
	name, ok := o.Env[key]
	if !ok {
		return "", false
	}
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return "", false
	}
	if key == model.KeyToken {
		v = StripBearer(v)
	}
	return v, true
}

// StripBearer removes a leading "Bearer " scheme, case-insensitively.
func StripBearer(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
