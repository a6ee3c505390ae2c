package state

import (
	"slices"

	"github.com/dukerupert/walkin/internal/model"
)

type NotificationState struct {
	Items       []model.Notification
	UnreadCount int
	Settings    model.NotificationSettings
}

type NotificationsLoaded struct{ Notifications []model.Notification }

// NotificationAdded prepends a notification.
type NotificationAdded struct{ Notification model.Notification }

// NotificationReadSet sets the read flag of one notification. The unread
// count only moves when the flag actually changes.
type NotificationReadSet struct {
	ID   int64
	Read bool
}

type AllNotificationsRead struct{}
type NotificationRemoved struct{ ID int64 }
type UnreadCountLoaded struct{ Count int }
type NotificationSettingsLoaded struct{ Settings model.NotificationSettings }

func (NotificationsLoaded) Type() string        { return "notifications/loaded" }
func (NotificationAdded) Type() string          { return "notifications/added" }
func (NotificationReadSet) Type() string        { return "notifications/readSet" }
func (AllNotificationsRead) Type() string       { return "notifications/allRead" }
func (NotificationRemoved) Type() string        { return "notifications/removed" }
func (UnreadCountLoaded) Type() string          { return "notifications/unreadCountLoaded" }
func (NotificationSettingsLoaded) Type() string { return "notifications/settingsLoaded" }

func (a NotificationsLoaded) reduce(s *State) {
	s.Notifications.Items = slices.Clone(a.Notifications)
	s.Notifications.UnreadCount = countUnread(a.Notifications)
}

func (a NotificationAdded) reduce(s *State) {
	s.Notifications.Items = append([]model.Notification{a.Notification}, s.Notifications.Items...)
	if !a.Notification.Read {
		s.Notifications.UnreadCount++
	}
}

func (a NotificationReadSet) reduce(s *State) {
	for i := range s.Notifications.Items {
		n := &s.Notifications.Items[i]
		if n.ID != a.ID || n.Read == a.Read {
			continue
		}
		n.Read = a.Read
		if a.Read {
			s.Notifications.UnreadCount = max(0, s.Notifications.UnreadCount-1)
		} else {
			s.Notifications.UnreadCount++
		}
	}
}

func (AllNotificationsRead) reduce(s *State) {
	for i := range s.Notifications.Items {
		s.Notifications.Items[i].Read = true
	}
	s.Notifications.UnreadCount = 0
}

func (a NotificationRemoved) reduce(s *State) {
	for _, n := range s.Notifications.Items {
		if n.ID == a.ID && !n.Read {
			s.Notifications.UnreadCount = max(0, s.Notifications.UnreadCount-1)
		}
	}
	s.Notifications.Items = remove(s.Notifications.Items, a.ID, func(n model.Notification) int64 { return n.ID })
}

func (a UnreadCountLoaded) reduce(s *State)          { s.Notifications.UnreadCount = a.Count }
func (a NotificationSettingsLoaded) reduce(s *State) { s.Notifications.Settings = a.Settings }

func countUnread(items []model.Notification) int {
	n := 0
	for _, it := range items {
		if !it.Read {
			n++
		}
	}
	return n
}

// ThemeSet records the theme preference.
type ThemeSet struct{ Theme model.Theme }

func (ThemeSet) Type() string { return "theme/set" }

func (a ThemeSet) reduce(s *State) { s.Theme = a.Theme }
