// Package todos owns the in-memory mirror of the user's todo list and keeps it
// consistent with the server. Add appends the server-returned item; Update and
// Remove re-fetch the whole list. Overlapping operations are not serialized:
// the last response to resolve wins.
package todos

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Makepad-fr/tada-remote/internal/api"
	"github.com/Makepad-fr/tada-remote/internal/model"
	"github.com/Makepad-fr/tada-remote/internal/notify"
)

var (
	ErrNotAuthenticated = fmt.Errorf("%w: not logged in", model.ErrValidation)
	ErrEmptyContent     = fmt.Errorf("%w: todo content cannot be empty", model.ErrValidation)
	// ErrAborted is returned when the content resolver yields nothing.
	ErrAborted = errors.New("edit aborted")
)

// API is the subset of the gateway used by the synchronizer.
type API interface {
	ListTodos(ctx context.Context, token string) ([]model.Todo, error)
	CreateTodo(ctx context.Context, token, content string) (model.Todo, error)
	UpdateTodo(ctx context.Context, token string, id int64, content string) error
	DeleteTodo(ctx context.Context, token string, id int64) error
}

// TokenSource yields the current bearer token, ok=false when anonymous.
type TokenSource interface {
	Token() (string, bool)
}

// ContentResolver supplies replacement content for a todo, ok=false when the
// user cancelled.
type ContentResolver interface {
	Resolve(current model.Todo) (content string, ok bool)
}

// ResolverFunc adapts a function to ContentResolver.
type ResolverFunc func(model.Todo) (string, bool)

func (f ResolverFunc) Resolve(t model.Todo) (string, bool) { return f(t) }

// Content is a resolver that always returns s.
func Content(s string) ContentResolver {
	return ResolverFunc(func(model.Todo) (string, bool) { return s, s != "" })
}

type Synchronizer struct {
	api            API
	tokens         TokenSource
	busy           *model.RequestState
	notifier       notify.Notifier
	onUnauthorized func()

	mu    sync.RWMutex
	items []model.Todo
}

type Option func(*Synchronizer)

func WithNotifier(n notify.Notifier) Option {
	return func(s *Synchronizer) { s.notifier = n }
}

// WithRequestState shares a busy flag with other components.
func WithRequestState(r *model.RequestState) Option {
	return func(s *Synchronizer) { s.busy = r }
}

// OnUnauthorized registers fn to run when the server rejects the token.
func OnUnauthorized(fn func()) Option {
	return func(s *Synchronizer) { s.onUnauthorized = fn }
}

func New(gw API, tokens TokenSource, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		api:      gw,
		tokens:   tokens,
		busy:     &model.RequestState{},
		notifier: notify.Discard,
		items:    []model.Todo{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SetTokenSource replaces the token source. Used when the session manager is
// built after the synchronizer.
func (s *Synchronizer) SetTokenSource(tokens TokenSource) { s.tokens = tokens }

// SetOnUnauthorized replaces the unauthorized hook.
func (s *Synchronizer) SetOnUnauthorized(fn func()) { s.onUnauthorized = fn }

// Items returns a copy of the list.
func (s *Synchronizer) Items() []model.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Todo, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Synchronizer) Find(id int64) (model.Todo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := model.IndexOf(s.items, id); i >= 0 {
		return s.items[i], true
	}
	return model.Todo{}, false
}

func (s *Synchronizer) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Synchronizer) Busy() bool { return s.busy.Busy() }

// Clear empties the list without any network call.
func (s *Synchronizer) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = []model.Todo{}
}

// Refresh replaces the local list with the server's.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	s.busy.Set(true)
	defer s.busy.Set(false)

	token, err := s.token("refresh")
	if err != nil {
		return err
	}
	return s.refresh(ctx, token, "could not load todos")
}

// Add validates content, creates it on the server and appends the returned
// todo. The list is untouched on any failure.
func (s *Synchronizer) Add(ctx context.Context, content string) (model.Todo, error) {
	s.busy.Set(true)
	defer s.busy.Set(false)

	token, err := s.token("add")
	if err != nil {
		return model.Todo{}, err
	}
	if model.Blank(content) {
		s.reject("add", ErrEmptyContent)
		return model.Todo{}, ErrEmptyContent
	}

	created, err := s.api.CreateTodo(ctx, token, content)
	if err != nil {
		s.failed("add", 0, err, "could not add todo")
		return model.Todo{}, fmt.Errorf("add todo: %w", err)
	}

	s.mu.Lock()
	s.items = append(s.items, created)
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{"op": "add", "id": created.ID}).Debugln("Todo added")
	s.notify(notify.Success, "Todo added")
	return created, nil
}

// Update asks resolver for the new content of id, sends it, then re-fetches
// the list. A cancelled or blank resolution returns ErrAborted without any
// network call.
func (s *Synchronizer) Update(ctx context.Context, id int64, resolver ContentResolver) error {
	token, err := s.token("update")
	if err != nil {
		return err
	}
	current, ok := s.Find(id)
	if !ok {
		current = model.Todo{ID: id}
	}
	content, ok := resolver.Resolve(current)
	if !ok || model.Blank(content) {
		logrus.WithFields(logrus.Fields{"op": "update", "id": id}).Debugln("Update aborted")
		return ErrAborted
	}

	// raised after the resolver: prompting is user time, not a request
	s.busy.Set(true)
	defer s.busy.Set(false)

	if err := s.api.UpdateTodo(ctx, token, id, content); err != nil {
		s.failed("update", id, err, "could not update todo")
		return fmt.Errorf("update todo %d: %w", id, err)
	}
	if err := s.refresh(ctx, token, "todo updated, but the list could not be reloaded"); err != nil {
		return err
	}
	s.notify(notify.Success, "Todo updated")
	return nil
}

// Remove deletes id on the server, then re-fetches the list.
func (s *Synchronizer) Remove(ctx context.Context, id int64) error {
	s.busy.Set(true)
	defer s.busy.Set(false)

	token, err := s.token("remove")
	if err != nil {
		return err
	}
	if err := s.api.DeleteTodo(ctx, token, id); err != nil {
		s.failed("remove", id, err, "could not delete todo")
		return fmt.Errorf("delete todo %d: %w", id, err)
	}
	if err := s.refresh(ctx, token, "todo deleted, but the list could not be reloaded"); err != nil {
		return err
	}
	s.notify(notify.Success, "Todo deleted")
	return nil
}

// refresh does the fetch without touching the busy flag.
func (s *Synchronizer) refresh(ctx context.Context, token, failMsg string) error {
	list, err := s.api.ListTodos(ctx, token)
	if err != nil {
		s.failed("refresh", 0, err, failMsg)
		return fmt.Errorf("refresh todos: %w", err)
	}

	s.mu.Lock()
	s.items = list
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{"op": "refresh", "count": len(list)}).Debugln("Todo list refreshed")
	return nil
}

func (s *Synchronizer) token(op string) (string, error) {
	if s.tokens != nil {
		if t, ok := s.tokens.Token(); ok {
			return t, nil
		}
	}
	s.reject(op, ErrNotAuthenticated)
	return "", ErrNotAuthenticated
}

func (s *Synchronizer) reject(op string, err error) {
	logrus.WithField("op", op).WithError(err).Warnln("Rejected before sending")
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		s.notify(notify.Error, "please log in first")
	default:
		s.notify(notify.Error, "todo content cannot be empty")
	}
}

func (s *Synchronizer) failed(op string, id int64, err error, msg string) {
	fields := logrus.Fields{
		"op":     op,
		"status": api.StatusOf(err),
	}
	if id != 0 {
		fields["id"] = id
	}
	logrus.WithFields(fields).WithError(err).Errorln("Todo operation failed")

	if api.IsUnauthorized(err) && s.onUnauthorized != nil {
		s.onUnauthorized()
		return
	}
	s.notify(notify.Error, msg)
}

func (s *Synchronizer) notify(level notify.Level, msg string) {
	s.notifier.Notify(notify.Notification{Level: level, Message: msg})
}
