package state

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/dukerupert/walkin/internal/model"
)

// Action is a typed state change. Each slice file declares its own actions.
type Action interface {
	Type() string
	reduce(*State)
}

// State is the whole client-side cache.
type State struct {
	Auth          AuthState
	Organization  OrganizationState
	Appointments  AppointmentState
	Notifications NotificationState
	Theme         model.Theme
}

func initialState() State {
	return State{
		Notifications: NotificationState{Settings: model.DefaultNotificationSettings()},
		Theme:         model.ThemeSystem,
	}
}

func (s State) clone() State {
	out := s
	if s.Auth.User != nil {
		u := *s.Auth.User
		out.Auth.User = &u
	}
	if s.Organization.Current != nil {
		o := *s.Organization.Current
		out.Organization.Current = &o
	}
	out.Organization.Members = slices.Clone(s.Organization.Members)
	out.Organization.JoinRequests = slices.Clone(s.Organization.JoinRequests)
	out.Appointments.Items = slices.Clone(s.Appointments.Items)
	out.Appointments.Incoming = slices.Clone(s.Appointments.Incoming)
	if s.Appointments.Stats != nil {
		st := *s.Appointments.Stats
		out.Appointments.Stats = &st
	}
	out.Notifications.Items = slices.Clone(s.Notifications.Items)
	return out
}

// Change is delivered to subscribers after an action has been applied.
type Change struct {
	Type  string
	State State
}

// Subscription receives changes on C until it is cancelled.
type Subscription struct {
	C chan Change
}

// Store holds State and applies actions one at a time. It is passed to the
// workflows explicitly; there is no package-level instance.
type Store struct {
	mu     sync.RWMutex
	state  State
	subs   map[*Subscription]struct{}
	logger *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	return &Store{
		state:  initialState(),
		subs:   make(map[*Subscription]struct{}),
		logger: logger.With("component", "state"),
	}
}

// Dispatch applies a and notifies subscribers.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	a.reduce(&s.state)
	snapshot := s.state.clone()
	s.mu.Unlock()

	s.logger.Debug("dispatch", "action", a.Type())
	s.broadcast(Change{Type: a.Type(), State: snapshot})
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Subscribe registers a subscriber with a small buffer.
func (s *Store) Subscribe() *Subscription {
	sub := &Subscription{C: make(chan Change, 16)}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	return sub
}

// Unsubscribe removes sub and closes its channel.
func (s *Store) Unsubscribe(sub *Subscription) {
	s.mu.Lock()
	if _, ok := s.subs[sub]; ok {
		delete(s.subs, sub)
		close(sub.C)
	}
	s.mu.Unlock()
}

func (s *Store) broadcast(c Change) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for sub := range s.subs {
		select {
		case sub.C <- c:
		default:
			// Slow subscriber; it will see the next change's full state.
			s.logger.Debug("subscriber buffer full", "action", c.Type)
		}
	}
}

// upsert replaces the element with the same id or appends it.
func upsert[T any](items []T, item T, id func(T) int64) []T {
	for i := range items {
		if id(items[i]) == id(item) {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}

func remove[T any](items []T, target int64, id func(T) int64) []T {
	return slices.DeleteFunc(items, func(v T) bool { return id(v) == target })
}
