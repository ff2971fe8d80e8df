package api_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada-remote/internal/api"
	"github.com/Makepad-fr/tada-remote/internal/apitest"
	"github.com/Makepad-fr/tada-remote/internal/model"
)

func setup(t *testing.T) (*apitest.Server, *api.Client) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	return srv, api.New(srv.URL + "/")
}

func TestLogin(t *testing.T) {
	srv, c := setup(t)
	srv.AddUser("alice", "x")
	ctx := context.Background()

	t.Run("success returns token", func(t *testing.T) {
		tok, err := c.Login(ctx, api.Credentials{Username: "alice", Password: "x"})
		require.NoError(t, err)
		assert.NotEmpty(t, tok)
	})

	t.Run("bad credentials carry server message", func(t *testing.T) {
		_, err := c.Login(ctx, api.Credentials{Username: "alice", Password: "wrong"})
		require.Error(t, err)
		assert.True(t, api.IsHTTP(err))
		assert.False(t, api.IsTransport(err))
		assert.Equal(t, http.StatusUnauthorized, api.StatusOf(err))
		assert.Equal(t, "Bad username or password", api.MessageOf(err))
		assert.True(t, api.IsUnauthorized(err))
	})
}

func TestRegister(t *testing.T) {
	srv, c := setup(t)
	ctx := context.Background()

	msg, err := c.Register(ctx, api.Credentials{Username: "bob", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "Registration successful", msg)

	_, err = c.Register(ctx, api.Credentials{Username: "bob", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, api.StatusOf(err))
	assert.Equal(t, "Username already exists", api.MessageOf(err))
	assert.Equal(t, 2, srv.Requests(apitest.RouteRegister))
}

func TestTodoCRUD(t *testing.T) {
	srv, c := setup(t)
	srv.AddUser("alice", "x")
	tok := srv.Token("alice")
	ctx := context.Background()

	todos, err := c.ListTodos(ctx, tok)
	require.NoError(t, err)
	assert.Empty(t, todos)
	assert.NotNil(t, todos)

	created, err := c.CreateTodo(ctx, tok, "Buy milk")
	require.NoError(t, err)
	assert.Equal(t, model.Todo{ID: 1, Content: "Buy milk"}, created)

	require.NoError(t, c.UpdateTodo(ctx, tok, created.ID, "Buy oat milk"))
	todos, err = c.ListTodos(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, []model.Todo{{ID: 1, Content: "Buy oat milk"}}, todos)

	require.NoError(t, c.DeleteTodo(ctx, tok, created.ID))
	todos, err = c.ListTodos(ctx, tok)
	require.NoError(t, err)
	assert.Empty(t, todos)
}

func TestTodo_NotFoundFallsBackToStatusText(t *testing.T) {
	srv, c := setup(t)
	srv.AddUser("alice", "x")

	err := c.DeleteTodo(context.Background(), srv.Token("alice"), 42)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, api.StatusOf(err))
	assert.Equal(t, http.StatusText(http.StatusNotFound), api.MessageOf(err))
	assert.Contains(t, err.Error(), "DELETE /todos/42")
}

func TestTodo_EmptyServerMessage(t *testing.T) {
	srv, c := setup(t)
	srv.AddUser("alice", "x")
	srv.Fail(apitest.RouteCreate, http.StatusBadRequest, "")

	_, err := c.CreateTodo(context.Background(), srv.Token("alice"), "x")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, api.StatusOf(err))
	assert.Equal(t, "Bad Request", api.MessageOf(err))
	assert.Empty(t, srv.Todos("alice"))
}

func TestAuthenticatedCalls(t *testing.T) {
	srv, c := setup(t)
	srv.AddUser("alice", "x")
	ctx := context.Background()

	_, err := c.ListTodos(ctx, "")
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
	assert.Equal(t, "Missing Authorization Header", api.MessageOf(err))

	_, err = c.ListTodos(ctx, srv.ExpiredToken("alice"))
	assert.True(t, api.IsUnauthorized(err))
}

func TestTransportFailure(t *testing.T) {
	srv := apitest.New()
	url := srv.URL
	srv.Close()

	_, err := api.New(url).ListTodos(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, api.IsTransport(err))
	assert.False(t, api.IsHTTP(err))
	assert.Equal(t, 0, api.StatusOf(err))
	assert.Contains(t, err.Error(), "transport")
}

func TestUsersAreIsolated(t *testing.T) {
	srv, c := setup(t)
	srv.AddUser("alice", "x")
	srv.AddUser("bob", "y")
	srv.Seed("alice", "alice's")
	ctx := context.Background()

	todos, err := c.ListTodos(ctx, srv.Token("bob"))
	require.NoError(t, err)
	assert.Empty(t, todos)
}
