package state

import "github.com/dukerupert/walkin/internal/model"

type AuthState struct {
	Authenticated bool
	User          *model.User
}

// LoggedIn records a successful login or a restored session.
type LoggedIn struct{ User *model.User }

// UserUpdated replaces the cached user after a profile refresh.
type UserUpdated struct{ User *model.User }

// LoggedOut resets every slice except the theme preference.
type LoggedOut struct{}

func (LoggedIn) Type() string    { return "auth/loggedIn" }
func (UserUpdated) Type() string { return "auth/userUpdated" }
func (LoggedOut) Type() string   { return "auth/loggedOut" }

func (a LoggedIn) reduce(s *State) {
	s.Auth.Authenticated = true
	s.Auth.User = a.User
}

func (a UserUpdated) reduce(s *State) {
	s.Auth.User = a.User
}

func (LoggedOut) reduce(s *State) {
	theme := s.Theme
	*s = initialState()
	s.Theme = theme
}
