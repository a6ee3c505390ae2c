package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dukerupert/walkin/internal/model"
)

var appointmentListKeys = []string{"appointments", "requests", "items"}

type appointmentRequestBody struct {
	VisitorName   string `json:"visitorName"`
	VisitorEmail  string `json:"visitorEmail"`
	VisitorPhone  string `json:"visitorPhone,omitempty"`
	EmployeeID    int64  `json:"employeeId"`
	Reason        string `json:"reason"`
	PreferredTime string `json:"preferredTime"`
}

func newAppointmentRequestBody(r model.AppointmentRequest) appointmentRequestBody {
	return appointmentRequestBody{
		VisitorName:   r.VisitorName,
		VisitorEmail:  r.VisitorEmail,
		VisitorPhone:  r.VisitorPhone,
		EmployeeID:    r.EmployeeID,
		Reason:        r.Reason,
		PreferredTime: model.FormatBackendTime(r.PreferredTime.Time),
	}
}

// CreateAppointment creates a confirmed appointment directly (admin flow).
func (c *Client) CreateAppointment(ctx context.Context, r model.AppointmentRequest) (*model.Appointment, error) {
	return c.appointment(ctx, request{method: http.MethodPost, path: "/appointments", body: newAppointmentRequestBody(r)})
}

// RequestAppointment submits a visit request for an employee to answer.
func (c *Client) RequestAppointment(ctx context.Context, r model.AppointmentRequest) (*model.Appointment, error) {
	return c.appointment(ctx, request{method: http.MethodPost, path: "/appointments/request", body: newAppointmentRequestBody(r)})
}

func (c *Client) Appointments(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error) {
	q := url.Values{}
	if f.EmployeeID != 0 {
		q.Set("employeeId", strconv.FormatInt(f.EmployeeID, 10))
	}
	if f.Status != "" {
		q.Set("status", f.Status.Query())
	}
	if f.StartDate != "" {
		q.Set("startDate", f.StartDate)
	}
	if f.EndDate != "" {
		q.Set("endDate", f.EndDate)
	}
	if f.VisitorName != "" {
		q.Set("visitorName", f.VisitorName)
	}
	if f.Date != "" {
		q.Set("date", f.Date)
	}
	return c.appointments(ctx, request{method: http.MethodGet, path: "/appointments", query: q})
}

// AppointmentRequests lists requests the user has made or can act on.
func (c *Client) AppointmentRequests(ctx context.Context) ([]model.Appointment, error) {
	return c.appointments(ctx, request{method: http.MethodGet, path: "/appointments/requests"})
}

// IncomingRequests lists requests addressed to the current employee.
func (c *Client) IncomingRequests(ctx context.Context) ([]model.Appointment, error) {
	return c.appointments(ctx, request{method: http.MethodGet, path: "/appointments/incoming"})
}

func (c *Client) Appointment(ctx context.Context, id int64) (*model.Appointment, error) {
	return c.appointment(ctx, request{method: http.MethodGet, path: idPath("/appointments/%d", id)})
}

// UpdateAppointment sends a partial update.
func (c *Client) UpdateAppointment(ctx context.Context, id int64, fields map[string]any) (*model.Appointment, error) {
	return c.appointment(ctx, request{method: http.MethodPut, path: idPath("/appointments/%d", id), body: fields})
}

func (c *Client) DeleteAppointment(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: idPath("/appointments/%d", id)}, nil)
}

// Response is the body of a respond call.
type Response struct {
	Action          model.RespondAction `json:"action"`
	RejectionReason string              `json:"rejectionReason,omitempty"`
	AlternateTime   string              `json:"alternateTime,omitempty"`
}

// RespondToAppointment answers an appointment by its id.
func (c *Client) RespondToAppointment(ctx context.Context, id int64, r Response) (*model.Appointment, error) {
	return c.appointment(ctx, request{method: http.MethodPut, path: idPath("/appointments/%d/respond", id), body: r})
}

// RespondToRequest answers a visit request by its request id.
func (c *Client) RespondToRequest(ctx context.Context, id int64, r Response) (*model.Appointment, error) {
	return c.appointment(ctx, request{method: http.MethodPut, path: idPath("/appointments/requests/%d/respond", id), body: r})
}

func (c *Client) CancelAppointment(ctx context.Context, id int64, reason string) (*model.Appointment, error) {
	body := map[string]string{"reason": reason}
	return c.appointment(ctx, request{method: http.MethodPut, path: idPath("/appointments/%d/cancel", id), body: body})
}

func (c *Client) RescheduleAppointment(ctx context.Context, id int64, newTime time.Time) (*model.Appointment, error) {
	body := map[string]string{"newTime": model.FormatBackendTime(newTime)}
	return c.appointment(ctx, request{method: http.MethodPut, path: idPath("/appointments/%d/reschedule", id), body: body})
}

func (c *Client) CompleteAppointment(ctx context.Context, id int64, notes string) (*model.Appointment, error) {
	body := map[string]string{"notes": notes}
	return c.appointment(ctx, request{method: http.MethodPut, path: idPath("/appointments/%d/complete", id), body: body})
}

func (c *Client) SearchAppointments(ctx context.Context, query string) ([]model.Appointment, error) {
	q := url.Values{"q": {query}}
	return c.appointments(ctx, request{method: http.MethodGet, path: "/appointments/search", query: q})
}

// AppointmentStats returns counts for period (week, month, ...).
func (c *Client) AppointmentStats(ctx context.Context, period string) (*model.AppointmentStats, error) {
	q := url.Values{}
	if period != "" {
		q.Set("period", period)
	}
	var stats model.AppointmentStats
	if err := c.do(ctx, request{method: http.MethodGet, path: "/appointments/stats", query: q}, &stats, "stats"); err != nil {
		return nil, err
	}
	if stats.Period == "" {
		stats.Period = period
	}
	return &stats, nil
}

func (c *Client) appointment(ctx context.Context, r request) (*model.Appointment, error) {
	var a model.Appointment
	if err := c.do(ctx, r, &a, "appointment"); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) appointments(ctx context.Context, r request) ([]model.Appointment, error) {
	var list []model.Appointment
	if err := c.do(ctx, r, &list, appointmentListKeys...); err != nil {
		return nil, err
	}
	return list, nil
}
