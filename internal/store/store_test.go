package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada-remote/internal/store"
	"github.com/Makepad-fr/tada-remote/internal/store/memstore"
)

func TestStripBearer(t *testing.T) {
	assert.Equal(t, "abc", store.StripBearer("Bearer abc"))
	assert.Equal(t, "abc", store.StripBearer("bearer   abc "))
	assert.Equal(t, "abc", store.StripBearer("abc"))
	assert.Equal(t, "", store.StripBearer("  "))
}

func TestEnvOverlay_PrefersEnvironment(t *testing.T) {
	base := memstore.New()
	require.NoError(t, base.Set("token", "file-token"))
	o := store.NewEnvOverlay(base)

	t.Setenv("TADA_TOKEN", "Bearer env-token")
	v, ok, err := o.Get("token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "env-token", v)
	assert.Equal(t, store.SourceEnv, o.Source("token"))
}

func TestEnvOverlay_FallsBackToBase(t *testing.T) {
	base := memstore.New()
	require.NoError(t, base.Set("username", "alice"))
	o := store.NewEnvOverlay(base)

	t.Setenv("TADA_USERNAME", "")
	t.Setenv("TADA_TOKEN", "")
	v, ok, err := o.Get("username")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "alice", v)
	assert.Equal(t, store.SourceFile, o.Source("username"))
	assert.Equal(t, store.SourceNone, o.Source("token"))
}

func TestEnvOverlay_WritesGoToBase(t *testing.T) {
	base := memstore.New()
	o := store.NewEnvOverlay(base)

	require.NoError(t, o.Set("token", "tok1"))
	v, ok, _ := base.Get("token")
	assert.True(t, ok)
	assert.Equal(t, "tok1", v)

	require.NoError(t, o.Delete("token"))
	assert.Equal(t, 0, base.Len())
}
