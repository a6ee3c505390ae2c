package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/walkin/internal/model"
	"github.com/dukerupert/walkin/internal/session"
	"github.com/dukerupert/walkin/internal/state"
)

// Route is the top-level screen the app should present.
type Route string

const (
	RouteLogin              Route = "login"
	RouteOrganizationChoice Route = "organization_choice"
	RouteWaiting            Route = "waiting"
	RouteMainApp            Route = "main_app"
)

// Backend is the slice of the API client the resolver needs.
type Backend interface {
	Me(ctx context.Context) (*model.User, error)
	CurrentOrganization(ctx context.Context) (*model.Organization, error)
}

// Sessions reads the stored token pair.
type Sessions interface {
	Get() (model.Session, error)
}

// Decide maps session validity and the cached user to a route. It has no
// side effects.
func Decide(authenticated bool, user *model.User) Route {
	if !authenticated || user == nil {
		return RouteLogin
	}
	switch user.OrganizationStatus {
	case model.OrgStatusApproved:
		if user.HasOrganization() {
			return RouteMainApp
		}
		return RouteOrganizationChoice
	case model.OrgStatusPending:
		return RouteWaiting
	default:
		return RouteOrganizationChoice
	}
}

// Resolver decides which screen to enter on start and after auth changes.
type Resolver struct {
	backend  Backend
	sessions Sessions
	store    *state.Store
	logger   *slog.Logger
	now      func() time.Time
}

func NewResolver(backend Backend, sessions Sessions, store *state.Store, logger *slog.Logger) *Resolver {
	return &Resolver{
		backend:  backend,
		sessions: sessions,
		store:    store,
		logger:   logger.With("component", "resolver"),
		now:      time.Now,
	}
}

// Resolve picks the route from the stored session and the cached user,
// loading the user from the backend when none is cached. Any failure routes
// to Login; the error is returned for display.
func (r *Resolver) Resolve(ctx context.Context) (Route, error) {
	sess, err := r.sessions.Get()
	if err != nil {
		r.store.Dispatch(state.LoggedOut{})
		return RouteLogin, fmt.Errorf("read session: %w", err)
	}
	if !session.Usable(sess, r.now()) {
		r.store.Dispatch(state.LoggedOut{})
		return RouteLogin, nil
	}

	user := r.store.State().Auth.User
	if user == nil {
		user, err = r.backend.Me(ctx)
		if err != nil {
			r.logger.Warn("load user", "error", err)
			r.store.Dispatch(state.LoggedOut{})
			return RouteLogin, err
		}
		r.store.Dispatch(state.LoggedIn{User: user})
	}
	return r.enter(ctx, user), nil
}

// Refresh reloads the user from the backend and resolves again.
func (r *Resolver) Refresh(ctx context.Context) (Route, error) {
	user, err := r.backend.Me(ctx)
	if err != nil {
		if r.store.State().Auth.User == nil {
			return RouteLogin, err
		}
		return r.Resolve(ctx)
	}
	r.store.Dispatch(state.UserUpdated{User: user})
	return r.Resolve(ctx)
}

// enter applies Decide and performs the one side effect it implies: the
// organization fetch on the way into the main app.
func (r *Resolver) enter(ctx context.Context, user *model.User) Route {
	route := Decide(true, user)
	if route == RouteMainApp {
		r.loadOrganization(ctx)
	}
	return route
}

// loadOrganization fetches the current organization. Failure leaves the
// app in a degraded state with no organization.
func (r *Resolver) loadOrganization(ctx context.Context) {
	org, err := r.backend.CurrentOrganization(ctx)
	if err != nil {
		r.logger.Error("load organization", "error", err)
		org = nil
	}
	r.store.Dispatch(state.OrganizationLoaded{Organization: org})
}
