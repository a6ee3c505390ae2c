package model

import (
	"encoding/json"
	"strings"
)

type AppointmentStatus string

const (
	AppointmentPending    AppointmentStatus = "PENDING"
	AppointmentConfirmed  AppointmentStatus = "CONFIRMED"
	AppointmentCancelled  AppointmentStatus = "CANCELLED"
	AppointmentCompleted  AppointmentStatus = "COMPLETED"
	AppointmentInProgress AppointmentStatus = "IN_PROGRESS"
)

// NormalizeAppointmentStatus upper-cases and trims. The backend has been seen
// sending both "confirmed" and "CONFIRMED"; comparisons always go through
// this. "canceled" is folded into CANCELLED.
func NormalizeAppointmentStatus(s string) AppointmentStatus {
	st := AppointmentStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case "CANCELED":
		return AppointmentCancelled
	case "IN-PROGRESS", "INPROGRESS":
		return AppointmentInProgress
	}
	return st
}

func (s *AppointmentStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = NormalizeAppointmentStatus(raw)
	return nil
}

// Query renders the status the way list filters expect it.
func (s AppointmentStatus) Query() string {
	return strings.ToLower(string(s))
}

type Appointment struct {
	ID                 int64             `json:"id"`
	VisitorName        string            `json:"visitorName"`
	VisitorEmail       string            `json:"visitorEmail"`
	VisitorPhone       string            `json:"visitorPhone,omitempty"`
	EmployeeID         int64             `json:"employeeId"`
	EmployeeName       string            `json:"employeeName,omitempty"`
	Reason             string            `json:"reason"`
	PreferredTime      *Timestamp        `json:"preferredTime,omitempty"`
	ConfirmedTime      *Timestamp        `json:"confirmedTime,omitempty"`
	Status             AppointmentStatus `json:"status"`
	ConfirmationCode   string            `json:"confirmationCode,omitempty"`
	WalkedInAt         *Timestamp        `json:"walkedInAt,omitempty"`
	WalkedOutAt        *Timestamp        `json:"walkedOutAt,omitempty"`
	Notes              string            `json:"notes,omitempty"`
	RejectionReason    string            `json:"rejectionReason,omitempty"`
	CancellationReason string            `json:"cancellationReason,omitempty"`
	CreatedAt          *Timestamp        `json:"createdAt,omitempty"`
}

// IsInside reports whether the visitor has walked in and not yet out.
func (a *Appointment) IsInside() bool {
	return a.WalkedInAt != nil && !a.WalkedInAt.IsZero() &&
		(a.WalkedOutAt == nil || a.WalkedOutAt.IsZero())
}

// AppointmentRequest is the front-desk form for a new visit request.
type AppointmentRequest struct {
	VisitorName   string
	VisitorEmail  string
	VisitorPhone  string
	EmployeeID    int64
	Reason        string
	PreferredTime Timestamp
}

// AppointmentFilter narrows GET /appointments. Zero fields are omitted.
type AppointmentFilter struct {
	EmployeeID  int64
	Status      AppointmentStatus
	StartDate   string
	EndDate     string
	VisitorName string
	Date        string
}

type AppointmentStats struct {
	Period    string `json:"period,omitempty"`
	Total     int    `json:"total"`
	Pending   int    `json:"pending"`
	Confirmed int    `json:"confirmed"`
	Cancelled int    `json:"cancelled"`
	Completed int    `json:"completed"`
	Today     int    `json:"today,omitempty"`
}

type RespondAction string

const (
	RespondApprove RespondAction = "approve"
	RespondReject  RespondAction = "reject"
)
