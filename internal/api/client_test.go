package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/walkin/internal/logging"
	"github.com/dukerupert/walkin/internal/model"
)

type memCredentials struct {
	mu      sync.Mutex
	sess    model.Session
	cleared int
}

func (m *memCredentials) Get() (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess, nil
}

func (m *memCredentials) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = model.Session{}
	m.cleared++
	return nil
}

func setupClient(t *testing.T, h http.HandlerFunc) (*Client, *memCredentials) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	creds := &memCredentials{sess: model.Session{AuthToken: "tok-1", RefreshToken: "ref-1"}}
	c := NewClient(Config{BaseURL: srv.URL + "/api/v1"}, creds, logging.Discard())
	return c, creds
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success":    success,
		"message":    message,
		"data":       data,
		"statusCode": status,
		"timestamp":  "2026-06-01T12:00:00Z",
	})
}

func TestMeUnwrapsEnvelopeAndSendsBearer(t *testing.T) {
	var gotAuth, gotPath, gotReqID string
	c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotReqID = r.Header.Get(requestIDHeader)
		writeEnvelope(w, http.StatusOK, true, "", map[string]any{
			"user": map[string]any{
				"id":                 7,
				"name":               "Ada",
				"role":               "ADMIN",
				"organizationId":     42,
				"organizationStatus": "approved",
			},
		})
	})

	u, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Errorf("authorization = %q, want %q", gotAuth, "Bearer tok-1")
	}
	if gotPath != "/api/v1/auth/me" {
		t.Errorf("path = %q, want /api/v1/auth/me", gotPath)
	}
	if gotReqID == "" {
		t.Error("expected a request id header")
	}
	if u.ID != 7 || u.Role != model.RoleAdmin {
		t.Errorf("user = %+v", u)
	}
	if u.OrganizationStatus != model.OrgStatusApproved {
		t.Errorf("organizationStatus = %q, want %q", u.OrganizationStatus, model.OrgStatusApproved)
	}
	if !u.HasOrganization() || *u.OrganizationID != 42 {
		t.Errorf("organizationId = %v, want 42", u.OrganizationID)
	}
}

func TestSuccessFalseOnHTTP200IsError(t *testing.T) {
	c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":false,"message":"Organization not found","statusCode":404}`)
	})

	_, err := c.OrganizationByCode(context.Background(), "ABCD12")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err is %T, want *Error", err)
	}
	if apiErr.UserMessage() != "Organization not found" {
		t.Errorf("message = %q", apiErr.UserMessage())
	}
}

func TestSuccessFalseWithoutStatusIsValidation(t *testing.T) {
	c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":false,"message":"Reason is required"}`)
	})

	_, err := c.RequestAppointment(context.Background(), model.AppointmentRequest{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrValidation},
		{http.StatusUnprocessableEntity, ErrValidation},
		{http.StatusUnauthorized, ErrAuth},
		{http.StatusForbidden, ErrPermission},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusConflict, ErrConflict},
		{http.StatusInternalServerError, ErrServer},
		{http.StatusBadGateway, ErrServer},
	}
	for _, tt := range tests {
		c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, tt.status, false, "", nil)
		})
		_, err := c.CurrentOrganization(context.Background())
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
	}
}

func TestDefaultMessages(t *testing.T) {
	c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "<html>oops</html>")
	})

	_, err := c.CurrentOrganization(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err is %T, want *Error", err)
	}
	if got := apiErr.UserMessage(); got != "Server error. Please try again later." {
		t.Errorf("message = %q", got)
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: url, Timeout: time.Second}, &memCredentials{}, logging.Discard())
	_, err := c.Me(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	var apiErr *Error
	errors.As(err, &apiErr)
	want := "Cannot connect to server. Please check your internet connection and server status."
	if apiErr.UserMessage() != want {
		t.Errorf("message = %q, want %q", apiErr.UserMessage(), want)
	}
}

func TestUnauthorizedClearsSessionAndNotifies(t *testing.T) {
	c, creds := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, false, "Token expired", nil)
	})
	var notified int
	c.OnUnauthorized(func() { notified++ })

	_, err := c.Appointments(context.Background(), model.AppointmentFilter{})
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("err = %v, want ErrAuth", err)
	}
	if creds.cleared != 1 {
		t.Errorf("cleared = %d, want 1", creds.cleared)
	}
	if notified != 1 {
		t.Errorf("notified = %d, want 1", notified)
	}
}

func TestLoginFailureDoesNotExpireSession(t *testing.T) {
	var gotAuth string
	c, creds := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeEnvelope(w, http.StatusUnauthorized, false, "Invalid credentials", nil)
	})
	c.OnUnauthorized(func() { t.Error("hook should not run for login") })

	_, err := c.Login(context.Background(), "a@b.co", "wrong")
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("err = %v, want ErrAuth", err)
	}
	if creds.cleared != 0 {
		t.Error("login 401 should not clear credentials")
	}
	if gotAuth != "" {
		t.Errorf("login sent authorization %q", gotAuth)
	}
}

func TestLogin(t *testing.T) {
	var body map[string]string
	c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		writeEnvelope(w, http.StatusOK, true, "Login successful", map[string]any{
			"token":        "new-tok",
			"refreshToken": "new-ref",
			"user":         map[string]any{"id": 3, "organizationStatus": "NO_ORGANIZATION"},
		})
	})

	res, err := c.Login(context.Background(), "a@b.co", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if body["email"] != "a@b.co" || body["password"] != "secret" {
		t.Errorf("body = %v", body)
	}
	if res.Token != "new-tok" || res.RefreshToken != "new-ref" {
		t.Errorf("tokens = %q / %q", res.Token, res.RefreshToken)
	}
	if res.User == nil || res.User.OrganizationStatus != model.OrgStatusNone {
		t.Errorf("user = %+v", res.User)
	}
}

func TestAppointmentsFilterQuery(t *testing.T) {
	var gotQuery string
	c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeEnvelope(w, http.StatusOK, true, "", map[string]any{
			"appointments": []map[string]any{
				{"id": 1, "status": "confirmed"},
				{"id": 2, "status": "CANCELED"},
			},
		})
	})

	list, err := c.Appointments(context.Background(), model.AppointmentFilter{
		EmployeeID: 9,
		Status:     model.AppointmentConfirmed,
		Date:       "2026-06-01",
	})
	if err != nil {
		t.Fatalf("appointments: %v", err)
	}
	for _, want := range []string{"employeeId=9", "status=confirmed", "date=2026-06-01"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].Status != model.AppointmentConfirmed || list[1].Status != model.AppointmentCancelled {
		t.Errorf("statuses = %q, %q", list[0].Status, list[1].Status)
	}
}

func TestRequestAppointmentBody(t *testing.T) {
	var body map[string]any
	c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		writeEnvelope(w, http.StatusCreated, true, "", map[string]any{"id": 5, "status": "PENDING"})
	})

	when := time.Date(2030, 3, 4, 9, 30, 0, 0, time.Local)
	a, err := c.RequestAppointment(context.Background(), model.AppointmentRequest{
		VisitorName:   "Grace",
		VisitorEmail:  "grace@example.com",
		EmployeeID:    12,
		Reason:        "Interview",
		PreferredTime: model.Timestamp{Time: when},
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if a.ID != 5 || a.Status != model.AppointmentPending {
		t.Errorf("appointment = %+v", a)
	}
	if body["preferredTime"] != "2030-03-04 09:30:00" {
		t.Errorf("preferredTime = %v", body["preferredTime"])
	}
	if body["employeeId"] != float64(12) {
		t.Errorf("employeeId = %v", body["employeeId"])
	}
}

func TestCreateOrganizationMultipart(t *testing.T) {
	var gotName, gotLogo string
	c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotName = r.FormValue("name")
		f, _, err := r.FormFile("logo")
		if err == nil {
			data, _ := io.ReadAll(f)
			gotLogo = string(data)
		}
		writeEnvelope(w, http.StatusCreated, true, "", map[string]any{
			"organization": map[string]any{"id": 1, "name": gotName, "code": "ABCD12"},
		})
	})

	org, err := c.CreateOrganization(context.Background(),
		model.OrganizationDetails{Name: "Acme", Address: "1 Main", Phone: "+15551234", Email: "a@acme.co"},
		&model.Logo{Filename: "logo.png", ContentType: "image/png", Data: []byte("png-bytes")},
	)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if gotName != "Acme" || gotLogo != "png-bytes" {
		t.Errorf("form name=%q logo=%q", gotName, gotLogo)
	}
	if org.Code != "ABCD12" {
		t.Errorf("code = %q", org.Code)
	}
}

func TestUnreadCountShapes(t *testing.T) {
	for _, payload := range []any{map[string]any{"count": 4}, 4} {
		c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusOK, true, "", payload)
		})
		n, err := c.UnreadCount(context.Background())
		if err != nil {
			t.Fatalf("unread count: %v", err)
		}
		if n != 4 {
			t.Errorf("count = %d, want 4 for payload %v", n, payload)
		}
	}
}

func TestNotificationsPage(t *testing.T) {
	var gotQuery string
	c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeEnvelope(w, http.StatusOK, true, "", []map[string]any{
			{"id": 1, "title": "Hi", "read": false},
		})
	})

	page, err := c.Notifications(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	if gotQuery != "limit=20&page=1" {
		t.Errorf("query = %q", gotQuery)
	}
	if len(page.Notifications) != 1 || page.Page != 1 || page.Limit != 20 {
		t.Errorf("page = %+v", page)
	}
}

func TestUnwrappedPayload(t *testing.T) {
	c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":1,"name":"Ada","role":"frontdesk"}]`)
	})

	members, err := c.Members(context.Background())
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 1 || members[0].Role != model.RoleFrontdesk {
		t.Errorf("members = %+v", members)
	}
}

func TestErrorIs(t *testing.T) {
	err := Invalid("visitorEmail", "Visitor email is required")
	if !errors.Is(err, ErrValidation) {
		t.Error("field error should match ErrValidation")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("field error should not match ErrNotFound")
	}
	if got := err.Error(); !strings.Contains(got, "visitorEmail: Visitor email is required") {
		t.Errorf("Error() = %q", got)
	}
}
