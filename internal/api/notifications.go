package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dukerupert/walkin/internal/model"
)

// Notifications returns one page of notifications. page and limit default
// to 1 and 20.
func (c *Client) Notifications(ctx context.Context, page, limit int) (*model.NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	q := url.Values{"page": {strconv.Itoa(page)}, "limit": {strconv.Itoa(limit)}}
	raw, err := c.send(ctx, request{method: http.MethodGet, path: "/notifications", query: q})
	if err != nil {
		return nil, err
	}
	out := &model.NotificationPage{Page: page, Limit: limit}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &out.Notifications); err != nil {
			return nil, fmt.Errorf("decode notifications: %w", err)
		}
		out.Total = len(out.Notifications)
		return out, nil
	}
	if err := decode(raw, out); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return out, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodPut, path: idPath("/notifications/%d/read", id)}, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodPut, path: "/notifications/mark-all-read"}, nil)
}

func (c *Client) DeleteNotification(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: idPath("/notifications/%d", id)}, nil)
}

func (c *Client) NotificationSettings(ctx context.Context) (*model.NotificationSettings, error) {
	s := model.DefaultNotificationSettings()
	if err := c.do(ctx, request{method: http.MethodGet, path: "/notifications/settings"}, &s, "settings"); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) UpdateNotificationSettings(ctx context.Context, s model.NotificationSettings) (*model.NotificationSettings, error) {
	out := s
	if err := c.do(ctx, request{method: http.MethodPut, path: "/notifications/settings", body: s}, &out, "settings"); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterDevice registers a push token so the backend can reach this
// device.
func (c *Client) RegisterDevice(ctx context.Context, pushToken, platform string) error {
	body := map[string]string{"pushToken": pushToken, "platform": platform}
	return c.do(ctx, request{method: http.MethodPost, path: "/notifications/register-device", body: body}, nil)
}

func (c *Client) UnregisterDevice(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/notifications/unregister-device"}, nil)
}

// UnreadCount returns the number of unread notifications. The backend sends
// either {"count": n} or a bare number.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	raw, err := c.send(ctx, request{method: http.MethodGet, path: "/notifications/unread-count"})
	if err != nil {
		return 0, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return 0, fmt.Errorf("decode unread count: %w", err)
	}
	return body.Count, nil
}
