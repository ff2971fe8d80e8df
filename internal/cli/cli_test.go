package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada-remote/internal/apitest"
	"github.com/Makepad-fr/tada-remote/internal/ui"
)

type env struct {
	t     *testing.T
	srv   *apitest.Server
	creds string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)

	home := t.TempDir()
	creds := filepath.Join(home, ".tada", "credentials.json")
	t.Setenv("HOME", home)
	t.Setenv("TADA_API_URL", srv.URL)
	t.Setenv("TADA_CREDENTIALS_PATH", creds)
	t.Setenv("TADA_TOKEN", "")
	t.Setenv("TADA_USERNAME", "")
	t.Setenv("TADA_LOGGING_FILE", "")
	t.Setenv("TADA_LOGGING_LEVEL", "error")

	return &env{t: t, srv: srv, creds: creds}
}

// run executes the CLI and returns exit code and combined output.
func (e *env) run(args ...string) (int, string) {
	e.t.Helper()
	var out bytes.Buffer
	ui.SetOutput(&out, &out)
	defer ui.SetOutput(nil, nil)

	root := newRootCmd()
	root.SetArgs(append([]string{"--no-color"}, args...))
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.ExecuteContext(context.Background())
	return exitCode(err), out.String()
}

func TestLoginAndStatus(t *testing.T) {
	e := newEnv(t)
	e.srv.AddUser("alice", "x")

	code, out := e.run("login", "-u", "alice", "-p", "x")
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "Logged in as alice")
	assert.Contains(t, out, "0 todos")
	_, err := os.Stat(e.creds)
	require.NoError(t, err)

	code, out = e.run("status")
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "user:    alice")
	assert.Contains(t, out, "source:  file")
	assert.Contains(t, out, e.srv.URL)

	code, out = e.run("whoami")
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, `"sub": "alice"`)
}

func TestLogin_WrongPassword(t *testing.T) {
	e := newEnv(t)
	e.srv.AddUser("alice", "x")

	code, out := e.run("login", "-u", "alice", "-p", "nope")
	assert.Equal(t, exitError, code)
	assert.Contains(t, out, "Bad username or password")
	_, err := os.Stat(e.creds)
	assert.True(t, os.IsNotExist(err))
}

func TestTodoCommands(t *testing.T) {
	e := newEnv(t)

	code, out := e.run("register", "-u", "alice", "-p", "x")
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "Registration successful")

	code, out = e.run("login", "-u", "alice", "-p", "x")
	require.Equal(t, exitOK, code, out)

	code, out = e.run("add", "Buy", "milk")
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "#1 Buy milk")

	code, out = e.run("ls", "--plain")
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "Buy milk")
	assert.Contains(t, out, "Total 1")

	code, out = e.run("edit", "1", "Buy", "oat", "milk")
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "#1 Buy oat milk")

	code, out = e.run("rm", "#1")
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "0 todos left")
	assert.Empty(t, e.srv.Todos("alice"))

	code, out = e.run("logout")
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "Logged out")

	code, _ = e.run("ls", "--plain")
	assert.Equal(t, exitUsage, code)
}

func TestAdd_Blank(t *testing.T) {
	e := newEnv(t)
	e.srv.AddUser("alice", "x")
	code, _ := e.run("login", "-u", "alice", "-p", "x")
	require.Equal(t, exitOK, code)

	code, out := e.run("add", "  ")
	assert.Equal(t, exitError, code)
	assert.Contains(t, out, "todo content cannot be empty")
	assert.Equal(t, 0, e.srv.Requests(apitest.RouteCreate))
}

func TestEnvironmentToken(t *testing.T) {
	e := newEnv(t)
	e.srv.AddUser("alice", "x")
	e.srv.Seed("alice", "from env")
	t.Setenv("TADA_TOKEN", "Bearer "+e.srv.Token("alice"))
	t.Setenv("TADA_USERNAME", "alice")

	code, out := e.run("ls", "--plain")
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "from env")

	code, out = e.run("status")
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "source:  env")
}

func TestExpiredStoredToken(t *testing.T) {
	e := newEnv(t)
	e.srv.AddUser("alice", "x")
	t.Setenv("TADA_TOKEN", e.srv.ExpiredToken("alice"))
	t.Setenv("TADA_USERNAME", "alice")

	code, out := e.run("add", "x")
	assert.Equal(t, exitError, code)
	assert.Contains(t, out, "session expired")
	assert.Equal(t, 0, e.srv.Requests(apitest.RouteCreate))
}

func TestUsageErrors(t *testing.T) {
	e := newEnv(t)
	tests := [][]string{
		{"add"},
		{"rm"},
		{"rm", "abc"},
		{"edit"},
		{"add", "x"}, // not logged in
		{"whoami"},   // not logged in
		{"frobnicate"},
		{"login", "--bogus"},
		{"--theme", "sparkly", "status"},
	}
	for _, args := range tests {
		code, out := e.run(args...)
		assert.Equal(t, exitUsage, code, "args %v: %s", args, out)
	}
	assert.Equal(t, 0, e.srv.Total())
}

func TestOpaqueToken(t *testing.T) {
	e := newEnv(t)
	t.Setenv("TADA_TOKEN", "not-a-jwt")

	code, out := e.run("whoami")
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "Opaque token")

	assert.Equal(t, "(unknown)", expiryOf("not-a-jwt"))
}

func TestListPlain_RefreshFailure(t *testing.T) {
	e := newEnv(t)
	e.srv.AddUser("alice", "x")
	e.srv.Seed("alice", "Buy milk")
	code, out := e.run("login", "-u", "alice", "-p", "x")
	require.Equal(t, exitOK, code, out)

	e.srv.Fail(apitest.RouteList, 500, "database down")

	code, out = e.run("ls", "--plain")
	assert.Equal(t, exitError, code)
	assert.Contains(t, out, "could not load todos")
	assert.NotContains(t, out, "Total")
	assert.NotContains(t, out, "nothing to do")

	// credentials survive a server error
	code, out = e.run("ls", "--plain")
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "Buy milk")
}
