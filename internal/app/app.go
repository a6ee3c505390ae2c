package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dukerupert/walkin/internal/api"
	"github.com/dukerupert/walkin/internal/appointment"
	"github.com/dukerupert/walkin/internal/auth"
	"github.com/dukerupert/walkin/internal/config"
	"github.com/dukerupert/walkin/internal/database"
	"github.com/dukerupert/walkin/internal/model"
	"github.com/dukerupert/walkin/internal/notification"
	"github.com/dukerupert/walkin/internal/organization"
	"github.com/dukerupert/walkin/internal/secret"
	"github.com/dukerupert/walkin/internal/state"
	"github.com/dukerupert/walkin/internal/store"
	"github.com/dukerupert/walkin/internal/telemetry"
	"github.com/dukerupert/walkin/internal/visit"
)

const serviceName = "walkin"

// App holds every long-lived component of the client.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Client      *api.Client
	State       *state.Store
	Credentials *store.CredentialStore
	Preferences *store.PreferenceStore

	Accounts      *auth.Accounts
	Resolver      *auth.Resolver
	Poller        *auth.Poller
	Organizations *organization.Service
	Appointments  *appointment.Service
	Visits        *visit.Service
	Notifications *notification.Service

	db       *sql.DB
	shutdown telemetry.ShutdownFunc
}

// Option adjusts how New builds the App.
type Option func(*options)

type options struct {
	transport http.RoundTripper
}

// WithTransport replaces the HTTP transport under the API client.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// New opens device storage and wires the client, state container and
// workflows together. The caller must Close the App.
func New(cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.DeviceSecret == "" && cfg.IsProduction() {
		logger.Warn("WALKIN_DEVICE_SECRET not set, tokens stored unsealed")
	}
	creds := store.NewCredentialStore(db, secret.NewSealer(cfg.DeviceSecret))
	prefs := store.NewPreferenceStore(db)

	var clientOpts []api.Option
	if o.transport != nil {
		clientOpts = append(clientOpts, api.WithTransport(o.transport))
	}
	client := api.NewClient(api.Config{
		BaseURL:     cfg.APIURL,
		Timeout:     cfg.APITimeout,
		AuthTimeout: cfg.AuthTimeout,
	}, creds, logger, clientOpts...)

	st := state.NewStore(logger)
	resolver := auth.NewResolver(client, creds, st, logger)
	accounts := auth.NewAccounts(client, creds, st, logger)
	client.OnUnauthorized(accounts.Expire)

	a := &App{
		Config:        cfg,
		Logger:        logger,
		Client:        client,
		State:         st,
		Credentials:   creds,
		Preferences:   prefs,
		Accounts:      accounts,
		Resolver:      resolver,
		Poller:        auth.NewPoller(resolver, cfg.PollInterval),
		Organizations: organization.NewService(client, st, logger),
		Appointments:  appointment.NewService(client, st, logger),
		Visits:        visit.NewService(client, st, logger),
		Notifications: notification.NewService(client, st, logger),
		db:            db,
		shutdown:      telemetry.Setup(serviceName, cfg.OTLPEndpoint, cfg.OTLPInsecure, logger),
	}

	theme, err := prefs.Theme()
	if err != nil {
		logger.Warn("load theme", "error", err)
	}
	st.Dispatch(state.ThemeSet{Theme: theme})

	return a, nil
}

// Theme returns the persisted theme.
func (a *App) Theme() model.Theme {
	return a.State.State().Theme
}

// SetTheme persists theme and publishes it to subscribers.
func (a *App) SetTheme(theme model.Theme) error {
	if err := a.Preferences.SetTheme(theme); err != nil {
		return err
	}
	a.State.Dispatch(state.ThemeSet{Theme: theme})
	return nil
}

// Close stops background work, flushes traces and closes device storage.
func (a *App) Close(ctx context.Context) error {
	a.Poller.Stop()
	if err := a.shutdown(ctx); err != nil {
		a.Logger.Warn("telemetry shutdown", "error", err)
	}
	return a.db.Close()
}
