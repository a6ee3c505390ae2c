package notification

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dukerupert/walkin/internal/api"
	"github.com/dukerupert/walkin/internal/model"
	"github.com/dukerupert/walkin/internal/state"
)

// Backend is the slice of the API client used for notifications.
type Backend interface {
	Notifications(ctx context.Context, page, limit int) (*model.NotificationPage, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id int64) error
	UnreadCount(ctx context.Context) (int, error)
	NotificationSettings(ctx context.Context) (*model.NotificationSettings, error)
	UpdateNotificationSettings(ctx context.Context, s model.NotificationSettings) (*model.NotificationSettings, error)
	RegisterDevice(ctx context.Context, pushToken, platform string) error
	UnregisterDevice(ctx context.Context) error
}

// Platforms accepted by device registration.
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
)

type Service struct {
	backend Backend
	store   *state.Store
	logger  *slog.Logger
}

func NewService(backend Backend, store *state.Store, logger *slog.Logger) *Service {
	return &Service{
		backend: backend,
		store:   store,
		logger:  logger.With("component", "notification"),
	}
}

// List loads one page. The first page replaces the cached list; later pages
// are appended.
func (s *Service) List(ctx context.Context, page, limit int) (*model.NotificationPage, error) {
	p, err := s.backend.Notifications(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	items := p.Notifications
	if p.Page > 1 {
		items = append(s.store.State().Notifications.Items, items...)
	}
	s.store.Dispatch(state.NotificationsLoaded{Notifications: items})
	return p, nil
}

// MarkRead flips the local flag first, then confirms with the backend. If
// the backend refuses, the flag is put back.
func (s *Service) MarkRead(ctx context.Context, id int64) error {
	wasUnread := false
	for _, n := range s.store.State().Notifications.Items {
		if n.ID == id && !n.Read {
			wasUnread = true
		}
	}
	s.store.Dispatch(state.NotificationReadSet{ID: id, Read: true})

	if err := s.backend.MarkNotificationRead(ctx, id); err != nil {
		if wasUnread {
			s.store.Dispatch(state.NotificationReadSet{ID: id, Read: false})
		}
		return err
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context) error {
	if err := s.backend.MarkAllNotificationsRead(ctx); err != nil {
		return err
	}
	s.store.Dispatch(state.AllNotificationsRead{})
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.backend.DeleteNotification(ctx, id); err != nil {
		return err
	}
	s.store.Dispatch(state.NotificationRemoved{ID: id})
	return nil
}

// UnreadCount refreshes the badge count.
func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	n, err := s.backend.UnreadCount(ctx)
	if err != nil {
		return 0, err
	}
	s.store.Dispatch(state.UnreadCountLoaded{Count: n})
	return n, nil
}

func (s *Service) Settings(ctx context.Context) (*model.NotificationSettings, error) {
	set, err := s.backend.NotificationSettings(ctx)
	if err != nil {
		return nil, err
	}
	s.store.Dispatch(state.NotificationSettingsLoaded{Settings: *set})
	return set, nil
}

func (s *Service) UpdateSettings(ctx context.Context, set model.NotificationSettings) (*model.NotificationSettings, error) {
	if set.ReminderMinutesBefore < 0 {
		return nil, api.Invalid("reminderMinutesBefore", "Reminder time cannot be negative")
	}
	out, err := s.backend.UpdateNotificationSettings(ctx, set)
	if err != nil {
		return nil, err
	}
	s.store.Dispatch(state.NotificationSettingsLoaded{Settings: *out})
	return out, nil
}

// RegisterDevice hands the backend an opaque push token for this device.
func (s *Service) RegisterDevice(ctx context.Context, pushToken, platform string) error {
	pushToken = strings.TrimSpace(pushToken)
	if pushToken == "" {
		return api.Invalid("pushToken", "Push token is required")
	}
	platform = strings.ToLower(strings.TrimSpace(platform))
	switch platform {
	case PlatformIOS, PlatformAndroid, PlatformWeb:
	default:
		return api.Invalid("platform", "Platform must be ios, android or web")
	}
	if err := s.backend.RegisterDevice(ctx, pushToken, platform); err != nil {
		return err
	}
	s.logger.Info("device registered", "platform", platform)
	return nil
}

func (s *Service) UnregisterDevice(ctx context.Context) error {
	return s.backend.UnregisterDevice(ctx)
}
