package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/artstore/artstore/internal/client/auth"
	"github.com/artstore/artstore/internal/client/config"
	"github.com/artstore/artstore/internal/client/localstate"
	"github.com/artstore/artstore/internal/client/models"
	"github.com/artstore/artstore/internal/client/nav"
	"github.com/artstore/artstore/internal/client/profile"
	"github.com/artstore/artstore/internal/client/remote"
	"github.com/artstore/artstore/internal/logging"

	_ "modernc.org/sqlite"
)

// App holds the wired client components plus the shell's own view of where
// the user currently "is" (the path shown by the open command).
type App struct {
	config     *config.Config
	client     remote.Client
	store      *auth.Store
	guard      *nav.Guard
	redirector *nav.Redirector
	local      *localstate.Store
	logger     logging.Logger

	path   string
	reader *bufio.Reader
	out    io.Writer
}

// NewApp wires the full client stack from configuration: the persisted local
// state, the HTTP backend client with session auto-refresh, the profile
// reconciler, the auth store, and the navigation helpers.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	local, err := localstate.Open(ctx, cfg.LocalStatePath)
	if err != nil {
		return nil, err
	}

	client, err := remote.NewHTTPClient(remote.Options{
		BaseURL:     cfg.BackendURL,
		AnonKey:     cfg.AnonKey,
		Store:       local,
		AutoRefresh: true,
		RefreshLead: cfg.RefreshLead,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	reconciler := profile.NewReconciler(client, logger)
	store := auth.NewStore(client, reconciler, local, logger, auth.Options{
		BootstrapTimeout: cfg.BootstrapTimeout,
		SignUpRetries:    cfg.SignUpRetries,
		SignUpRetryDelay: cfg.SignUpRetryDelay,
	})

	app := &App{
		config:     cfg,
		client:     client,
		store:      store,
		guard:      nav.NewGuard(cfg.GuardMaxWait),
		redirector: nav.NewRedirector(),
		local:      local,
		logger:     logger,
		path:       nav.RouteHome,
		reader:     bufio.NewReader(os.Stdin),
		out:        os.Stdout,
	}

	// A sign-out or a fresh sign-in rearms the one-shot profile redirect.
	client.OnAuthStateChange(func(event remote.Event, session *models.Session) {
		switch event {
		case remote.EventSignedOut, remote.EventSignedIn:
			app.redirector.Reset()
		}
	})

	return app, nil
}

// Run bootstraps auth state and enters the shell. It returns when the user
// exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	defer a.close()
	a.store.Bootstrap(ctx)
	a.Root(ctx)
}

func (a *App) close() {
	a.store.Close()
	if err := a.client.Close(); err != nil {
		a.logger.Warn(context.Background(), "error closing backend client", "error", err)
	}
	if err := a.local.Close(); err != nil {
		a.logger.Warn(context.Background(), "error closing local state", "error", err)
	}
}

func (a *App) isLoggedIn() bool {
	return a.store.State().Authenticated()
}
