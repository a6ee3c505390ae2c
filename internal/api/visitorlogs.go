package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dukerupert/walkin/internal/model"
)

var visitorLogListKeys = []string{"logs", "visitorLogs", "items"}

type walkBody struct {
	ConfirmationCode string `json:"confirmationCode"`
	Notes            string `json:"notes,omitempty"`
}

// WalkIn records a visitor's arrival against a confirmation code.
func (c *Client) WalkIn(ctx context.Context, code, notes string) (*model.VisitorLog, error) {
	return c.visitorLog(ctx, request{method: http.MethodPost, path: "/visitor-logs/walk-in", body: walkBody{code, notes}})
}

// WalkOut records a visitor's departure against a confirmation code.
func (c *Client) WalkOut(ctx context.Context, code, notes string) (*model.VisitorLog, error) {
	return c.visitorLog(ctx, request{method: http.MethodPost, path: "/visitor-logs/walk-out", body: walkBody{code, notes}})
}

func (c *Client) TodayVisitorLogs(ctx context.Context) ([]model.VisitorLog, error) {
	return c.visitorLogs(ctx, request{method: http.MethodGet, path: "/visitor-logs/today"})
}

func (c *Client) VisitorLogs(ctx context.Context) ([]model.VisitorLog, error) {
	return c.visitorLogs(ctx, request{method: http.MethodGet, path: "/visitor-logs"})
}

// AppointmentByConfirmationCode resolves a confirmation code to its
// appointment.
func (c *Client) AppointmentByConfirmationCode(ctx context.Context, code string) (*model.Appointment, error) {
	return c.appointment(ctx, request{method: http.MethodGet, path: "/visitor-logs/confirmation/" + url.PathEscape(code)})
}

func (c *Client) VisitorLog(ctx context.Context, id int64) (*model.VisitorLog, error) {
	return c.visitorLog(ctx, request{method: http.MethodGet, path: idPath("/visitor-logs/%d", id)})
}

// VisitorStatus reports whether the visitor behind code is inside.
func (c *Client) VisitorStatus(ctx context.Context, code string) (*model.VisitorStatus, error) {
	var st model.VisitorStatus
	path := "/visitor-logs/status/" + url.PathEscape(code)
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &st); err != nil {
		return nil, err
	}
	if st.ConfirmationCode == "" {
		st.ConfirmationCode = code
	}
	return &st, nil
}

func (c *Client) visitorLog(ctx context.Context, r request) (*model.VisitorLog, error) {
	var l model.VisitorLog
	if err := c.do(ctx, r, &l, "log", "visitorLog"); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *Client) visitorLogs(ctx context.Context, r request) ([]model.VisitorLog, error) {
	var list []model.VisitorLog
	if err := c.do(ctx, r, &list, visitorLogListKeys...); err != nil {
		return nil, err
	}
	return list, nil
}
