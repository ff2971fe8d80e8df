package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada-remote/internal/api"
	"github.com/Makepad-fr/tada-remote/internal/apitest"
	"github.com/Makepad-fr/tada-remote/internal/model"
	"github.com/Makepad-fr/tada-remote/internal/notify"
	"github.com/Makepad-fr/tada-remote/internal/session"
	"github.com/Makepad-fr/tada-remote/internal/store/memstore"
	"github.com/Makepad-fr/tada-remote/internal/todos"
)

type harness struct {
	t   *testing.T
	srv *apitest.Server
	m   Model
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	srv.AddUser("alice", "x")

	n := NewNotifier()
	busy := &model.RequestState{}
	client := api.New(srv.URL)
	list := todos.New(client, nil, todos.WithNotifier(n), todos.WithRequestState(busy))
	mgr := session.New(client, memstore.New(),
		session.WithList(list), session.WithNotifier(n), session.WithRequestState(busy))
	list.SetTokenSource(mgr)
	list.SetOnUnauthorized(mgr.Expire)

	h := &harness{t: t, srv: srv, m: New(context.Background(), mgr, list, n)}
	h.send(tea.WindowSizeMsg{Width: 80, Height: 24})
	return h
}

// send feeds msg and returns the command produced.
func (h *harness) send(msg tea.Msg) tea.Cmd {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	m, ok := next.(Model)
	require.True(h.t, ok)
	h.m = m
	return cmd
}

// run executes an operation command synchronously and feeds its result back.
func (h *harness) run(cmd tea.Cmd) opDoneMsg {
	h.t.Helper()
	require.NotNil(h.t, cmd)
	done, ok := cmd().(opDoneMsg)
	require.True(h.t, ok, "expected an operation command")
	h.send(done)
	return done
}

func keys(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	ctrlR = tea.KeyMsg{Type: tea.KeyCtrlR}
)

func (h *harness) login() {
	h.t.Helper()
	h.m.username.SetValue("alice")
	h.m.password.SetValue("x")
	done := h.run(h.send(enter))
	require.NoError(h.t, done.err)
	require.True(h.t, h.m.authenticated())
}

func TestAuthView_ShowsLoginThenRegister(t *testing.T) {
	h := newHarness(t)
	assert.Contains(t, h.m.View(), "Login")
	assert.Contains(t, h.m.View(), "Need to register?")

	assert.Nil(t, h.send(ctrlR))
	assert.Equal(t, session.FormRegister, h.m.session.Form())
	assert.Contains(t, h.m.View(), "Register")
	assert.Equal(t, 0, h.srv.Total())
}

func TestLogin_ShowsServerList(t *testing.T) {
	h := newHarness(t)
	h.srv.Seed("alice", "Buy milk")

	h.login()

	assert.Equal(t, 1, h.srv.Requests(apitest.RouteList))
	assert.Len(t, h.m.list.Items(), 1)
	assert.Contains(t, h.m.View(), "Buy milk")
	assert.Empty(t, h.m.password.Value())
}

func TestLogin_WrongPasswordStaysOnForm(t *testing.T) {
	h := newHarness(t)
	h.m.username.SetValue("alice")
	h.m.password.SetValue("nope")

	done := h.run(h.send(enter))
	assert.Error(t, done.err)
	assert.False(t, h.m.authenticated())

	h.send(noteMsg(<-h.m.notifier.ch))
	assert.Equal(t, "Bad username or password", h.m.status.Message)
	assert.Contains(t, h.m.View(), "Bad username or password")
}

func TestEnterOnUsernameMovesToPassword(t *testing.T) {
	h := newHarness(t)
	h.m.username.SetValue("alice")
	h.send(enter)
	assert.Equal(t, 1, h.m.focus)
	assert.Equal(t, 0, h.srv.Total())
}

func TestAddTodo(t *testing.T) {
	h := newHarness(t)
	h.login()

	h.send(keys("a"))
	require.Equal(t, inputAdd, h.m.mode)
	h.m.input.SetValue("Walk dog")
	done := h.run(h.send(enter))
	require.NoError(t, done.err)

	assert.Equal(t, inputNone, h.m.mode)
	require.Len(t, h.m.list.Items(), 1)
	assert.Equal(t, "Walk dog", h.m.list.Items()[0].(listItem).todo.Content)
}

func TestAddTodo_BlankStaysOpen(t *testing.T) {
	h := newHarness(t)
	h.login()
	before := h.srv.Total()

	h.send(keys("a"))
	h.m.input.SetValue("   ")
	assert.Nil(t, h.send(enter))
	assert.Equal(t, inputAdd, h.m.mode)
	assert.Equal(t, "Todo cannot be empty", h.m.inputErr)
	assert.Contains(t, h.m.View(), "Add todo: ")
	assert.Equal(t, before, h.srv.Total())

	h.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, inputNone, h.m.mode)
}

func TestEditTodo(t *testing.T) {
	h := newHarness(t)
	h.srv.Seed("alice", "Buy milk")
	h.login()

	h.send(keys("e"))
	require.Equal(t, inputEdit, h.m.mode)
	assert.Equal(t, "Buy milk", h.m.input.Value())
	h.m.input.SetValue("Buy oat milk")
	done := h.run(h.send(enter))
	require.NoError(t, done.err)

	assert.Equal(t, "Buy oat milk", h.m.list.Items()[0].(listItem).todo.Content)
}

func TestDeleteTodo(t *testing.T) {
	h := newHarness(t)
	h.srv.Seed("alice", "Buy milk")
	h.login()

	done := h.run(h.send(keys("d")))
	require.NoError(t, done.err)
	assert.Empty(t, h.m.list.Items())
	assert.Empty(t, h.srv.Todos("alice"))
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.srv.Seed("alice", "Buy milk")
	h.login()
	before := h.srv.Total()

	h.send(keys("L"))
	assert.False(t, h.m.authenticated())
	assert.Empty(t, h.m.list.Items())
	assert.Equal(t, before, h.srv.Total())
	assert.Contains(t, h.m.View(), "Login")
}

func TestNotifier_NeverBlocks(t *testing.T) {
	n := NewNotifier()
	for i := 0; i < 100; i++ {
		n.Notify(notify.Notification{Message: "x"})
	}
	assert.Len(t, n.ch, cap(n.ch))
}
