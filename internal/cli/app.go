package cli

import (
	"github.com/Makepad-fr/tada-remote/internal/api"
	"github.com/Makepad-fr/tada-remote/internal/config"
	"github.com/Makepad-fr/tada-remote/internal/model"
	"github.com/Makepad-fr/tada-remote/internal/notify"
	"github.com/Makepad-fr/tada-remote/internal/session"
	"github.com/Makepad-fr/tada-remote/internal/store"
	"github.com/Makepad-fr/tada-remote/internal/store/jsonstore"
	"github.com/Makepad-fr/tada-remote/internal/todos"
)

// app is one wired client: store, gateway, session manager and list sharing
// a busy flag and a notifier.
type app struct {
	cfg     *config.Config
	store   *store.EnvOverlay
	client  *api.Client
	session *session.Manager
	todos   *todos.Synchronizer
}

func newApp(cfg *config.Config, n notify.Notifier) (*app, error) {
	path, err := cfg.CredentialsPath()
	if err != nil {
		return nil, err
	}
	st := store.NewEnvOverlay(jsonstore.New(path))
	client := api.New(cfg.API.URL)
	busy := &model.RequestState{}

	list := todos.New(client, nil,
		todos.WithNotifier(n),
		todos.WithRequestState(busy))
	mgr := session.New(client, st,
		session.WithList(list),
		session.WithNotifier(n),
		session.WithRequestState(busy))
	list.SetTokenSource(mgr)
	list.SetOnUnauthorized(mgr.Expire)

	return &app{cfg: cfg, store: st, client: client, session: mgr, todos: list}, nil
}
