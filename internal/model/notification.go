package model

const (
	NotifTypeAppointment   = "appointment"
	NotifTypeMemberRequest = "member_request"
	NotifTypeSystem        = "system"
	NotifTypeReminder      = "reminder"
)

type Notification struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`
	Read      bool       `json:"read"`
	CreatedAt *Timestamp `json:"createdAt,omitempty"`
}

type NotificationSettings struct {
	SMS                   bool `json:"sms"`
	Email                 bool `json:"email"`
	InApp                 bool `json:"inApp"`
	PushNotifications     bool `json:"pushNotifications"`
	EmailNotifications    bool `json:"emailNotifications"`
	AppointmentReminders  bool `json:"appointmentReminders"`
	AppointmentUpdates    bool `json:"appointmentUpdates"`
	OrganizationUpdates   bool `json:"organizationUpdates"`
	MarketingEmails       bool `json:"marketingEmails"`
	ReminderMinutesBefore int  `json:"reminderMinutesBefore"`
}

// DefaultNotificationSettings mirrors what a fresh account starts with.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		SMS:                   true,
		Email:                 true,
		InApp:                 true,
		PushNotifications:     true,
		EmailNotifications:    true,
		AppointmentReminders:  true,
		AppointmentUpdates:    true,
		OrganizationUpdates:   true,
		MarketingEmails:       false,
		ReminderMinutesBefore: 30,
	}
}

// NotificationPage is one page of GET /notifications.
type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	Page          int            `json:"page"`
	Limit         int            `json:"limit"`
	Total         int            `json:"total"`
}

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// ParseTheme returns the theme for s, or false for unknown values.
func ParseTheme(s string) (Theme, bool) {
	switch t := Theme(s); t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return t, true
	}
	return "", false
}
