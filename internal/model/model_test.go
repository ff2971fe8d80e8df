package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSession_IsAuthenticated(t *testing.T) {
	assert.False(t, Session{}.IsAuthenticated())
	assert.False(t, Session{Username: "alice"}.IsAuthenticated())
	assert.True(t, Session{Token: "tok1", Username: "alice"}.IsAuthenticated())
}

func TestBlank(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"\t\n", true},
		{"Buy milk", false},
		{"  x ", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Blank(tt.in), "Blank(%q)", tt.in)
	}
}

func TestIndexOf(t *testing.T) {
	todos := []Todo{{ID: 1, Content: "a"}, {ID: 7, Content: "b"}}
	assert.Equal(t, 0, IndexOf(todos, 1))
	assert.Equal(t, 1, IndexOf(todos, 7))
	assert.Equal(t, -1, IndexOf(todos, 3))
	assert.Equal(t, -1, IndexOf(nil, 1))
}

func TestRequestState(t *testing.T) {
	var r RequestState
	assert.False(t, r.Busy())
	r.Set(true)
	assert.True(t, r.Busy())
	r.Set(false)
	assert.False(t, r.Busy())
}
