package model

type VisitorLog struct {
	ID               int64      `json:"id"`
	AppointmentID    int64      `json:"appointmentId,omitempty"`
	ConfirmationCode string     `json:"confirmationCode"`
	VisitorName      string     `json:"visitorName"`
	VisitorEmail     string     `json:"visitorEmail,omitempty"`
	EmployeeName     string     `json:"employeeName,omitempty"`
	WalkedInAt       *Timestamp `json:"walkedInAt,omitempty"`
	WalkedOutAt      *Timestamp `json:"walkedOutAt,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	RecordedBy       string     `json:"recordedBy,omitempty"`
}

// VisitorStatus answers GET /visitor-logs/status/:code.
type VisitorStatus struct {
	ConfirmationCode string     `json:"confirmationCode,omitempty"`
	VisitorName      string     `json:"visitorName,omitempty"`
	IsInside         bool       `json:"isInside"`
	WalkedInAt       *Timestamp `json:"walkedInAt,omitempty"`
	WalkedOutAt      *Timestamp `json:"walkedOutAt,omitempty"`
}
