package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/walkin/internal/api"
	"github.com/dukerupert/walkin/internal/logging"
	"github.com/dukerupert/walkin/internal/model"
	"github.com/dukerupert/walkin/internal/state"
)

type fakeBackend struct {
	calls        []string
	byID         map[int64]model.Appointment
	requestErr   error
	incomingErr  error
	respondErr   error
	lastResponse api.Response
	lastFilter   model.AppointmentFilter
	lastFields   map[string]any
}

func newFakeBackend(appts ...model.Appointment) *fakeBackend {
	f := &fakeBackend{byID: map[int64]model.Appointment{}}
	for _, a := range appts {
		f.byID[a.ID] = a
	}
	return f
}

func (f *fakeBackend) record(name string) { f.calls = append(f.calls, name) }

func (f *fakeBackend) CreateAppointment(ctx context.Context, r model.AppointmentRequest) (*model.Appointment, error) {
	f.record("create")
	return &model.Appointment{ID: 100, VisitorName: r.VisitorName, Status: model.AppointmentConfirmed}, nil
}

func (f *fakeBackend) RequestAppointment(ctx context.Context, r model.AppointmentRequest) (*model.Appointment, error) {
	f.record("request")
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return &model.Appointment{ID: 101, VisitorName: r.VisitorName, Status: model.AppointmentPending}, nil
}

func (f *fakeBackend) Appointments(ctx context.Context, filter model.AppointmentFilter) ([]model.Appointment, error) {
	f.record("list")
	f.lastFilter = filter
	return []model.Appointment{{ID: 1}}, nil
}

func (f *fakeBackend) AppointmentRequests(ctx context.Context) ([]model.Appointment, error) {
	f.record("requests")
	return []model.Appointment{{ID: 2, Status: model.AppointmentPending}}, nil
}

func (f *fakeBackend) IncomingRequests(ctx context.Context) ([]model.Appointment, error) {
	f.record("incoming")
	if f.incomingErr != nil {
		return nil, f.incomingErr
	}
	return []model.Appointment{{ID: 3, Status: model.AppointmentPending}}, nil
}

func (f *fakeBackend) Appointment(ctx context.Context, id int64) (*model.Appointment, error) {
	f.record("get")
	a, ok := f.byID[id]
	if !ok {
		return nil, &api.Error{Kind: api.KindNotFound, Status: 404}
	}
	return &a, nil
}

func (f *fakeBackend) UpdateAppointment(ctx context.Context, id int64, fields map[string]any) (*model.Appointment, error) {
	f.record("update")
	f.lastFields = fields
	return nil, nil
}

func (f *fakeBackend) DeleteAppointment(ctx context.Context, id int64) error {
	f.record("delete")
	return nil
}

func (f *fakeBackend) RespondToRequest(ctx context.Context, id int64, r api.Response) (*model.Appointment, error) {
	f.record("respondRequest")
	f.lastResponse = r
	if f.respondErr != nil {
		return nil, f.respondErr
	}
	return nil, nil
}

func (f *fakeBackend) RespondToAppointment(ctx context.Context, id int64, r api.Response) (*model.Appointment, error) {
	f.record("respondAppointment")
	f.lastResponse = r
	return nil, nil
}

func (f *fakeBackend) CancelAppointment(ctx context.Context, id int64, reason string) (*model.Appointment, error) {
	f.record("cancel")
	return nil, nil
}

func (f *fakeBackend) RescheduleAppointment(ctx context.Context, id int64, newTime time.Time) (*model.Appointment, error) {
	f.record("reschedule")
	return nil, nil
}

func (f *fakeBackend) CompleteAppointment(ctx context.Context, id int64, notes string) (*model.Appointment, error) {
	f.record("complete")
	a := f.byID[id]
	a.Status = model.AppointmentCompleted
	a.Notes = notes
	return &a, nil
}

func (f *fakeBackend) SearchAppointments(ctx context.Context, q string) ([]model.Appointment, error) {
	f.record("search")
	return nil, nil
}

func (f *fakeBackend) AppointmentStats(ctx context.Context, period string) (*model.AppointmentStats, error) {
	f.record("stats:" + period)
	return &model.AppointmentStats{Period: period, Total: 3}, nil
}

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.Local)

func setupService(t *testing.T, role model.Role, b *fakeBackend) (*Service, *state.Store) {
	t.Helper()
	st := state.NewStore(logging.Discard())
	st.Dispatch(state.LoggedIn{User: &model.User{ID: 1, Role: role}})
	s := NewService(b, st, logging.Discard())
	s.now = func() time.Time { return fixedNow }
	return s, st
}

func fieldOf(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Field
	}
	return ""
}

func validRequest() model.AppointmentRequest {
	return model.AppointmentRequest{
		VisitorName:   "Grace Hopper",
		VisitorEmail:  "grace@example.com",
		VisitorPhone:  "+15551234",
		EmployeeID:    12,
		Reason:        "Interview",
		PreferredTime: model.Timestamp{Time: fixedNow.Add(time.Hour)},
	}
}

func TestCreateRequestRejectsPastTime(t *testing.T) {
	b := newFakeBackend()
	s, _ := setupService(t, model.RoleFrontdesk, b)

	req := validRequest()
	req.PreferredTime = model.Timestamp{Time: fixedNow.Add(-time.Second)}
	_, err := s.CreateRequest(context.Background(), req)
	if !errors.Is(err, api.ErrValidation) || fieldOf(err) != "preferredTime" {
		t.Fatalf("err = %v, want preferredTime validation error", err)
	}

	req.PreferredTime = model.Timestamp{Time: fixedNow}
	if _, err := s.CreateRequest(context.Background(), req); fieldOf(err) != "preferredTime" {
		t.Errorf("now: err = %v, want preferredTime validation error", err)
	}
	if len(b.calls) != 0 {
		t.Errorf("calls = %v, want none", b.calls)
	}
}

func TestValidateRequestFields(t *testing.T) {
	tests := []struct {
		mutate func(*model.AppointmentRequest)
		field  string
	}{
		{func(r *model.AppointmentRequest) { r.VisitorName = "" }, "visitorName"},
		{func(r *model.AppointmentRequest) { r.VisitorName = "G" }, "visitorName"},
		{func(r *model.AppointmentRequest) { r.VisitorEmail = "" }, "visitorEmail"},
		{func(r *model.AppointmentRequest) { r.VisitorEmail = "grace" }, "visitorEmail"},
		{func(r *model.AppointmentRequest) { r.VisitorPhone = "abc" }, "visitorPhone"},
		{func(r *model.AppointmentRequest) { r.Reason = "" }, "reason"},
		{func(r *model.AppointmentRequest) { r.PreferredTime = model.Timestamp{} }, "preferredTime"},
		{func(r *model.AppointmentRequest) { r.EmployeeID = 0 }, "employeeId"},
	}
	for _, tt := range tests {
		r := validRequest()
		tt.mutate(&r)
		if got := fieldOf(ValidateRequest(r, fixedNow)); got != tt.field {
			t.Errorf("field = %q, want %q", got, tt.field)
		}
	}
	if err := ValidateRequest(validRequest(), fixedNow); err != nil {
		t.Errorf("valid request: %v", err)
	}
}

func TestCreateRequestMapsBackendMessages(t *testing.T) {
	tests := []struct {
		message string
		field   string
	}{
		{"Employee ID is required", "employeeId"},
		{"Visitor name is required", "visitorName"},
		{"Visitor email is required", "visitorEmail"},
		{"Please provide a valid email address", "visitorEmail"},
		{"Reason is required", "reason"},
		{"Preferred time must be in the future", "preferredTime"},
		{"Something else", ""},
	}
	for _, tt := range tests {
		b := newFakeBackend()
		b.requestErr = &api.Error{Kind: api.KindValidation, Status: 400, Message: tt.message}
		s, _ := setupService(t, model.RoleFrontdesk, b)

		_, err := s.CreateRequest(context.Background(), validRequest())
		if !errors.Is(err, api.ErrValidation) {
			t.Fatalf("%q: err = %v", tt.message, err)
		}
		if got := fieldOf(err); got != tt.field {
			t.Errorf("%q: field = %q, want %q", tt.message, got, tt.field)
		}
	}
}

func TestCreateRequestStoresAppointment(t *testing.T) {
	b := newFakeBackend()
	s, st := setupService(t, model.RoleFrontdesk, b)

	a, err := s.CreateRequest(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if a.Status != model.AppointmentPending {
		t.Errorf("status = %q", a.Status)
	}
	if items := st.State().Appointments.Items; len(items) != 1 || items[0].ID != 101 {
		t.Errorf("items = %+v", items)
	}
}

func TestCreateRequestPermission(t *testing.T) {
	b := newFakeBackend()
	s, _ := setupService(t, model.RoleEmployee, b)
	if _, err := s.CreateRequest(context.Background(), validRequest()); !errors.Is(err, api.ErrPermission) {
		t.Errorf("err = %v, want ErrPermission", err)
	}
}

func TestRespondApprove(t *testing.T) {
	b := newFakeBackend(model.Appointment{ID: 5, Status: model.AppointmentPending})
	s, st := setupService(t, model.RoleEmployee, b)

	alt := fixedNow.Add(48 * time.Hour)
	a, err := s.Respond(context.Background(), 5, ResponseInput{Action: model.RespondApprove, AlternateTime: &alt})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if a.Status != model.AppointmentConfirmed {
		t.Errorf("status = %q, want CONFIRMED", a.Status)
	}
	if a.ConfirmedTime == nil || !a.ConfirmedTime.Equal(alt) {
		t.Errorf("confirmedTime = %v, want %v", a.ConfirmedTime, alt)
	}
	if b.lastResponse.AlternateTime != model.FormatBackendTime(alt) {
		t.Errorf("alternateTime = %q", b.lastResponse.AlternateTime)
	}
	if got := st.State().Appointments.Items[0].Status; got != model.AppointmentConfirmed {
		t.Errorf("cached status = %q", got)
	}
}

func TestRespondRejectRequiresReason(t *testing.T) {
	b := newFakeBackend(model.Appointment{ID: 5, Status: model.AppointmentPending})
	s, _ := setupService(t, model.RoleEmployee, b)

	if _, err := s.Respond(context.Background(), 5, ResponseInput{Action: model.RespondReject}); fieldOf(err) != "rejectionReason" {
		t.Fatalf("err = %v, want rejectionReason field error", err)
	}
	a, err := s.Respond(context.Background(), 5, ResponseInput{Action: model.RespondReject, RejectionReason: "Busy"})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if a.Status != model.AppointmentCancelled || a.RejectionReason != "Busy" {
		t.Errorf("appointment = %+v", a)
	}
}

func TestRespondFallsBackToAppointmentRoute(t *testing.T) {
	b := newFakeBackend(model.Appointment{ID: 5, Status: model.AppointmentPending})
	b.respondErr = &api.Error{Kind: api.KindNotFound, Status: 404}
	s, _ := setupService(t, model.RoleAdmin, b)

	if _, err := s.Respond(context.Background(), 5, ResponseInput{Action: model.RespondApprove}); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if last := b.calls[len(b.calls)-1]; last != "respondAppointment" {
		t.Errorf("calls = %v", b.calls)
	}
}

func TestTransitionsGuardedBeforeNetwork(t *testing.T) {
	b := newFakeBackend(
		model.Appointment{ID: 1, Status: model.AppointmentCompleted},
		model.Appointment{ID: 2, Status: model.AppointmentCancelled},
		model.Appointment{ID: 3, Status: model.AppointmentPending},
	)
	s, _ := setupService(t, model.RoleAdmin, b)
	ctx := context.Background()

	checks := []struct {
		name string
		run  func() error
	}{
		{"cancel completed", func() error { _, err := s.Cancel(ctx, 1, "x"); return err }},
		{"complete cancelled", func() error { _, err := s.Complete(ctx, 2, ""); return err }},
		{"reschedule pending", func() error { _, err := s.Reschedule(ctx, 3, fixedNow); return err }},
		{"complete pending", func() error { _, err := s.Complete(ctx, 3, ""); return err }},
		{"approve completed", func() error {
			_, err := s.Respond(ctx, 1, ResponseInput{Action: model.RespondApprove})
			return err
		}},
	}
	for _, c := range checks {
		if err := c.run(); !errors.Is(err, api.ErrConflict) {
			t.Errorf("%s: err = %v, want ErrConflict", c.name, err)
		}
	}
	for _, call := range b.calls {
		if call != "get" {
			t.Errorf("unexpected mutating call %q", call)
		}
	}
}

func TestCancelRescheduleComplete(t *testing.T) {
	b := newFakeBackend(model.Appointment{ID: 7, Status: model.AppointmentConfirmed})
	s, st := setupService(t, model.RoleAdmin, b)
	ctx := context.Background()

	if _, err := s.Cancel(ctx, 7, " "); fieldOf(err) != "reason" {
		t.Errorf("empty reason: err = %v", err)
	}
	if _, err := s.Reschedule(ctx, 7, time.Time{}); fieldOf(err) != "newTime" {
		t.Errorf("zero time: err = %v", err)
	}

	past := fixedNow.Add(-24 * time.Hour)
	a, err := s.Reschedule(ctx, 7, past)
	if err != nil {
		t.Fatalf("reschedule to past is deferred to the server: %v", err)
	}
	if a.Status != model.AppointmentConfirmed || !a.ConfirmedTime.Equal(past) {
		t.Errorf("rescheduled = %+v", a)
	}

	a, err = s.Complete(ctx, 7, "done")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if a.Status != model.AppointmentCompleted || a.Notes != "done" {
		t.Errorf("completed = %+v", a)
	}
	if got := st.State().Appointments.Items[0].Status; got != model.AppointmentCompleted {
		t.Errorf("cached status = %q", got)
	}

	if _, err := s.Cancel(ctx, 7, "late"); !errors.Is(err, api.ErrConflict) {
		t.Errorf("cancel after complete: err = %v, want ErrConflict", err)
	}
}

func TestIncomingFallsBack(t *testing.T) {
	b := newFakeBackend()
	b.incomingErr = &api.Error{Kind: api.KindNotFound, Status: 404}
	s, st := setupService(t, model.RoleEmployee, b)

	list, err := s.Incoming(context.Background())
	if err != nil {
		t.Fatalf("incoming: %v", err)
	}
	if len(list) != 1 || list[0].ID != 2 {
		t.Errorf("list = %+v", list)
	}
	if got := st.State().Appointments.Incoming; len(got) != 1 {
		t.Errorf("cached incoming = %+v", got)
	}
}

func TestTodayAndStats(t *testing.T) {
	b := newFakeBackend()
	s, st := setupService(t, model.RoleAdmin, b)

	if _, err := s.Today(context.Background()); err != nil {
		t.Fatalf("today: %v", err)
	}
	if b.lastFilter.Date != "2026-06-01" {
		t.Errorf("date = %q", b.lastFilter.Date)
	}

	stats, err := s.Stats(context.Background(), "")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Period != "week" || st.State().Appointments.Stats.Total != 3 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestUpdateEditsOpenAppointment(t *testing.T) {
	b := newFakeBackend(model.Appointment{ID: 8, Status: model.AppointmentPending, Reason: "old"})
	s, _ := setupService(t, model.RoleAdmin, b)

	if _, err := s.Update(context.Background(), 8, Changes{}); !errors.Is(err, api.ErrValidation) {
		t.Errorf("empty changes: err = %v", err)
	}
	a, err := s.Update(context.Background(), 8, Changes{Reason: "new"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if a.Reason != "new" || b.lastFields["reason"] != "new" {
		t.Errorf("appointment = %+v fields = %v", a, b.lastFields)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	b := newFakeBackend()
	s, _ := setupService(t, model.RoleAdmin, b)
	if _, err := s.Search(context.Background(), "  "); fieldOf(err) != "q" {
		t.Errorf("err = %v", err)
	}
}
