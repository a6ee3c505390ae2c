package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukerupert/walkin/internal/api"
	"github.com/dukerupert/walkin/internal/model"
	"github.com/dukerupert/walkin/internal/state"
)

// AccountBackend is the slice of the API client used for sign-up, sign-in
// and sign-out.
type AccountBackend interface {
	Register(ctx context.Context, reg model.Registration) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.LoginResult, error)
	VerifyEmail(ctx context.Context, token, email string) error
	ResendVerification(ctx context.Context, email string) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*model.User, error)
}

// CredentialStore persists the token pair.
type CredentialStore interface {
	Get() (model.Session, error)
	Set(model.Session) error
	Clear() error
}

// Accounts runs the authentication flows and keeps the credential store
// and the auth slice in step.
type Accounts struct {
	backend AccountBackend
	creds   CredentialStore
	store   *state.Store
	logger  *slog.Logger
}

func NewAccounts(backend AccountBackend, creds CredentialStore, store *state.Store, logger *slog.Logger) *Accounts {
	return &Accounts{
		backend: backend,
		creds:   creds,
		store:   store,
		logger:  logger.With("component", "accounts"),
	}
}

// ValidateRegistration checks the sign-up form.
func ValidateRegistration(reg model.Registration, confirmPassword string) error {
	switch {
	case strings.TrimSpace(reg.Name) == "":
		return api.Invalid("name", "Name is required")
	case len(strings.TrimSpace(reg.Name)) < 2:
		return api.Invalid("name", "Name must be at least 2 characters")
	case strings.TrimSpace(reg.Email) == "":
		return api.Invalid("email", "Email is required")
	case !model.ValidEmail(reg.Email):
		return api.Invalid("email", "Please enter a valid email")
	case strings.TrimSpace(reg.Phone) == "":
		return api.Invalid("phone", "Phone number is required")
	case !model.ValidContactPhone(reg.Phone):
		return api.Invalid("phone", "Please enter a valid phone number")
	case reg.Password == "":
		return api.Invalid("password", "Password is required")
	case len(reg.Password) < 6:
		return api.Invalid("password", "Password must be at least 6 characters")
	case reg.Password != confirmPassword:
		return api.Invalid("confirmPassword", "Passwords must match")
	}
	return nil
}

// Register validates and submits the sign-up form. The account still needs
// email verification before login.
func (a *Accounts) Register(ctx context.Context, reg model.Registration, confirmPassword string) (*model.User, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.TrimSpace(reg.Email)
	reg.Phone = strings.TrimSpace(reg.Phone)
	if err := ValidateRegistration(reg, confirmPassword); err != nil {
		return nil, err
	}
	return a.backend.Register(ctx, reg)
}

// Login signs in, stores the token pair and records the user.
func (a *Accounts) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		return nil, api.Invalid("email", "Email is required")
	case !model.ValidEmail(email):
		return nil, api.Invalid("email", "Please enter a valid email")
	case password == "":
		return nil, api.Invalid("password", "Password is required")
	}

	res, err := a.backend.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, &api.Error{Kind: api.KindServer, Message: "Login response did not include a token."}
	}
	if err := a.creds.Set(model.Session{AuthToken: res.Token, RefreshToken: res.RefreshToken}); err != nil {
		return nil, fmt.Errorf("store credentials: %w", err)
	}

	// Me authenticates with the stored token, so a failure here has to
	// undo the Set above.
	user := res.User
	if user == nil {
		if user, err = a.backend.Me(ctx); err != nil {
			if cerr := a.creds.Clear(); cerr != nil {
				a.logger.Error("clear credentials", "error", cerr)
			}
			return nil, err
		}
	}
	a.store.Dispatch(state.LoggedIn{User: user})
	a.logger.Info("logged in", "user_id", user.ID)
	return user, nil
}

func (a *Accounts) VerifyEmail(ctx context.Context, token, email string) error {
	if strings.TrimSpace(token) == "" {
		return api.Invalid("token", "Verification code is required")
	}
	if !model.ValidEmail(email) {
		return api.Invalid("email", "Please enter a valid email")
	}
	return a.backend.VerifyEmail(ctx, strings.TrimSpace(token), strings.TrimSpace(email))
}

func (a *Accounts) ResendVerification(ctx context.Context, email string) error {
	if !model.ValidEmail(email) {
		return api.Invalid("email", "Please enter a valid email")
	}
	return a.backend.ResendVerification(ctx, strings.TrimSpace(email))
}

// Logout tells the backend best-effort, then always clears local state.
func (a *Accounts) Logout(ctx context.Context) error {
	if err := a.backend.Logout(ctx); err != nil {
		a.logger.Warn("logout request", "error", err)
	}
	a.store.Dispatch(state.LoggedOut{})
	if err := a.creds.Clear(); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// Expire resets the auth state after the backend rejected the session. The
// API client has already cleared the stored tokens.
func (a *Accounts) Expire() {
	a.logger.Info("session expired")
	a.store.Dispatch(state.LoggedOut{})
}
