// Package session owns the authentication state machine: restoring a stored
// session, login, registration, logout and expiry, and the bearer token that
// the list synchronizer sends with every call.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Makepad-fr/tada-remote/internal/api"
	"github.com/Makepad-fr/tada-remote/internal/model"
	"github.com/Makepad-fr/tada-remote/internal/notify"
	"github.com/Makepad-fr/tada-remote/internal/store"
)

type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
	Registering
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Registering:
		return "registering"
	default:
		return "anonymous"
	}
}

// Form is which anonymous form the view shows. It never depends on network state.
type Form int

const (
	FormLogin Form = iota
	FormRegister
)

func (f Form) String() string {
	if f == FormRegister {
		return "register"
	}
	return "login"
}

var ErrMissingCredentials = fmt.Errorf("%w: username and password are required", model.ErrValidation)

// AuthAPI is the subset of the gateway used for authentication.
type AuthAPI interface {
	Login(ctx context.Context, creds api.Credentials) (string, error)
	Register(ctx context.Context, creds api.Credentials) (string, error)
}

// List is the part of the list synchronizer the session drives.
type List interface {
	Refresh(ctx context.Context) error
	Clear()
}

type Manager struct {
	api      AuthAPI
	store    store.Store
	list     List
	busy     *model.RequestState
	notifier notify.Notifier

	mu      sync.RWMutex
	state   State
	form    Form
	session model.Session
}

type Option func(*Manager)

func WithList(l List) Option {
	return func(m *Manager) { m.list = l }
}

func WithNotifier(n notify.Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithRequestState shares a busy flag with other components.
func WithRequestState(r *model.RequestState) Option {
	return func(m *Manager) { m.busy = r }
}

func New(gw AuthAPI, st store.Store, opts ...Option) *Manager {
	m := &Manager{
		api:      gw,
		store:    st,
		busy:     &model.RequestState{},
		notifier: notify.Discard,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// SetList attaches the list once it exists.
func (m *Manager) SetList(l List) { m.list = l }

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) Session() model.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// Token implements todos.TokenSource.
func (m *Manager) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Token, m.session.IsAuthenticated()
}

func (m *Manager) Form() Form {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.form
}

func (m *Manager) SetForm(f Form) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.form = f
}

// ToggleForm switches between the login and registration forms.
func (m *Manager) ToggleForm() Form {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.form == FormLogin {
		m.form = FormRegister
	} else {
		m.form = FormLogin
	}
	return m.form
}

func (m *Manager) Busy() bool { return m.busy.Busy() }

// RestoreSession adopts stored credentials when both token and username are
// present and triggers one list refresh. The token is not validated here.
func (m *Manager) RestoreSession(ctx context.Context) bool {
	ok, _ := m.Resume(ctx)
	return ok
}

// Resume is RestoreSession that also returns the error of the initial list
// refresh, for callers that must not present a list that never loaded.
func (m *Manager) Resume(ctx context.Context) (bool, error) {
	token, err := m.read(model.KeyToken)
	if err != nil {
		logrus.WithError(err).Warnln("Failed to read stored token")
		return false, nil
	}
	username, err := m.read(model.KeyUsername)
	if err != nil {
		logrus.WithError(err).Warnln("Failed to read stored username")
		return false, nil
	}
	if token == "" || username == "" {
		logrus.Debugln("No stored session")
		return false, nil
	}

	m.mu.Lock()
	m.session = model.Session{Token: token, Username: username}
	m.state = Authenticated
	m.form = FormLogin
	m.mu.Unlock()

	logrus.WithField("username", username).Debugln("Session restored")
	return true, m.refreshList(ctx)
}

// Login authenticates, persists the token and username, then refreshes the
// list. Nothing is persisted when authentication fails.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		m.rejected("login", ErrMissingCredentials)
		return ErrMissingCredentials
	}

	m.setState(Authenticating)
	token, err := m.call(func() (string, error) {
		return m.api.Login(ctx, api.Credentials{Username: username, Password: password})
	})
	if err != nil {
		m.anonymous(FormLogin)
		m.failed("login", username, err, "login failed")
		return fmt.Errorf("login: %w", err)
	}

	if err := m.persist(token, username); err != nil {
		m.anonymous(FormLogin)
		logrus.WithField("username", username).WithError(err).Errorln("Failed to persist credentials")
		m.notify(notify.Error, "could not save credentials")
		return fmt.Errorf("login: %w", err)
	}

	m.mu.Lock()
	m.session = model.Session{Token: token, Username: username}
	m.state = Authenticated
	m.form = FormLogin
	m.mu.Unlock()

	logrus.WithField("username", username).Infoln("Logged in")
	m.notify(notify.Success, "Logged in as "+username)
	// login stands even when the first load fails
	_ = m.refreshList(ctx)
	return nil
}

// Register creates an account. It never logs the user in; on success the
// login form is shown again.
func (m *Manager) Register(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		m.rejected("register", ErrMissingCredentials)
		return ErrMissingCredentials
	}

	m.setState(Registering)
	msg, err := m.call(func() (string, error) {
		return m.api.Register(ctx, api.Credentials{Username: username, Password: password})
	})
	if err != nil {
		m.anonymous(FormRegister)
		m.failed("register", username, err, "registration failed")
		return fmt.Errorf("register: %w", err)
	}

	m.anonymous(FormLogin)

	if msg == "" {
		msg = "Registration successful"
	}
	logrus.WithField("username", username).Infoln("Registered")
	m.notify(notify.Success, msg)
	return nil
}

// Logout clears the store, the session and the list. It cannot fail; store
// errors are only logged.
func (m *Manager) Logout() {
	username := m.reset()
	logrus.WithField("username", username).Infoln("Logged out")
	m.notify(notify.Info, "Logged out")
}

// Expire is Logout triggered by the server rejecting the token.
func (m *Manager) Expire() {
	username := m.reset()
	logrus.WithField("username", username).Warnln("Session expired")
	m.notify(notify.Error, "session expired, please log in again")
}

func (m *Manager) reset() string {
	for _, key := range []string{model.KeyToken, model.KeyUsername} {
		if err := m.store.Delete(key); err != nil {
			logrus.WithField("key", key).WithError(err).Warnln("Failed to clear stored credential")
		}
	}

	m.mu.Lock()
	username := m.session.Username
	m.session = model.Session{}
	m.state = Anonymous
	m.form = FormLogin
	m.mu.Unlock()

	if m.list != nil {
		m.list.Clear()
	}
	return username
}

// call runs fn with the busy flag raised.
func (m *Manager) call(fn func() (string, error)) (string, error) {
	m.busy.Set(true)
	defer m.busy.Set(false)
	return fn()
}

// persist writes both keys or neither.
func (m *Manager) persist(token, username string) error {
	if err := m.store.Set(model.KeyToken, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if err := m.store.Set(model.KeyUsername, username); err != nil {
		if derr := m.store.Delete(model.KeyToken); derr != nil {
			logrus.WithError(derr).Warnln("Failed to roll back stored token")
		}
		return fmt.Errorf("save username: %w", err)
	}
	return nil
}

func (m *Manager) read(key string) (string, error) {
	v, ok, err := m.store.Get(key)
	if err != nil || !ok {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

// refreshList returns the list's error; the list has already notified and
// logged it.
func (m *Manager) refreshList(ctx context.Context) error {
	if m.list == nil {
		return nil
	}
	return m.list.Refresh(ctx)
}

// anonymous drops any in-memory session so that the state never reads
// Anonymous while a token is still handed out. The store is left alone.
func (m *Manager) anonymous(form Form) {
	m.mu.Lock()
	had := m.session.IsAuthenticated()
	m.session = model.Session{}
	m.state = Anonymous
	m.form = form
	m.mu.Unlock()

	if had && m.list != nil {
		m.list.Clear()
	}
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

func (m *Manager) rejected(op string, err error) {
	logrus.WithField("op", op).WithError(err).Warnln("Rejected before sending")
	m.notify(notify.Error, "username and password are required")
}

func (m *Manager) failed(op, username string, err error, fallback string) {
	logrus.WithFields(logrus.Fields{
		"op":       op,
		"username": username,
		"status":   api.StatusOf(err),
	}).WithError(err).Errorln("Authentication request failed")

	msg := api.MessageOf(err)
	switch {
	case msg != "":
	case api.IsTransport(err):
		msg = "could not reach the server"
	default:
		msg = fallback
	}
	m.notify(notify.Error, msg)
}

func (m *Manager) notify(level notify.Level, msg string) {
	m.notifier.Notify(notify.Notification{Level: level, Message: msg})
}
