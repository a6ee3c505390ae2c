package appointment

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/walkin/internal/api"
	"github.com/dukerupert/walkin/internal/auth"
	"github.com/dukerupert/walkin/internal/model"
	"github.com/dukerupert/walkin/internal/state"
)

// Backend is the slice of the API client the appointment workflow uses.
type Backend interface {
	CreateAppointment(ctx context.Context, r model.AppointmentRequest) (*model.Appointment, error)
	RequestAppointment(ctx context.Context, r model.AppointmentRequest) (*model.Appointment, error)
	Appointments(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error)
	AppointmentRequests(ctx context.Context) ([]model.Appointment, error)
	IncomingRequests(ctx context.Context) ([]model.Appointment, error)
	Appointment(ctx context.Context, id int64) (*model.Appointment, error)
	UpdateAppointment(ctx context.Context, id int64, fields map[string]any) (*model.Appointment, error)
	DeleteAppointment(ctx context.Context, id int64) error
	RespondToRequest(ctx context.Context, id int64, r api.Response) (*model.Appointment, error)
	RespondToAppointment(ctx context.Context, id int64, r api.Response) (*model.Appointment, error)
	CancelAppointment(ctx context.Context, id int64, reason string) (*model.Appointment, error)
	RescheduleAppointment(ctx context.Context, id int64, newTime time.Time) (*model.Appointment, error)
	CompleteAppointment(ctx context.Context, id int64, notes string) (*model.Appointment, error)
	SearchAppointments(ctx context.Context, query string) ([]model.Appointment, error)
	AppointmentStats(ctx context.Context, period string) (*model.AppointmentStats, error)
}

// Service runs the appointment workflow against the backend and keeps the
// appointments slice current.
type Service struct {
	backend Backend
	store   *state.Store
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(backend Backend, store *state.Store, logger *slog.Logger) *Service {
	return &Service{
		backend: backend,
		store:   store,
		logger:  logger.With("component", "appointment"),
		now:     time.Now,
	}
}

// ResponseInput answers a pending request.
type ResponseInput struct {
	Action          model.RespondAction
	RejectionReason string
	AlternateTime   *time.Time
}

// Changes are editable appointment fields. Empty fields are left alone.
type Changes struct {
	VisitorName  string
	VisitorEmail string
	VisitorPhone string
	Reason       string
	Notes        string
}

// CreateRequest validates and submits a visit request. Backend validation
// messages are mapped onto form fields.
func (s *Service) CreateRequest(ctx context.Context, req model.AppointmentRequest) (*model.Appointment, error) {
	if err := s.require(auth.RequestAppointments); err != nil {
		return nil, err
	}
	req = trimRequest(req)
	if err := ValidateRequest(req, s.now()); err != nil {
		return nil, err
	}
	a, err := s.backend.RequestAppointment(ctx, req)
	if err != nil {
		return nil, MapFieldError(err)
	}
	s.store.Dispatch(state.AppointmentUpdated{Appointment: *a})
	s.logger.Info("appointment requested", "appointment_id", a.ID, "employee_id", req.EmployeeID)
	return a, nil
}

// Create books a confirmed appointment directly.
func (s *Service) Create(ctx context.Context, req model.AppointmentRequest) (*model.Appointment, error) {
	if err := s.require(auth.ManageAppointments); err != nil {
		return nil, err
	}
	req = trimRequest(req)
	if err := ValidateRequest(req, s.now()); err != nil {
		return nil, err
	}
	a, err := s.backend.CreateAppointment(ctx, req)
	if err != nil {
		return nil, MapFieldError(err)
	}
	s.store.Dispatch(state.AppointmentUpdated{Appointment: *a})
	return a, nil
}

// Respond approves or rejects a pending request. Approval may move the
// time to AlternateTime; rejection needs a reason.
func (s *Service) Respond(ctx context.Context, id int64, in ResponseInput) (*model.Appointment, error) {
	if err := s.require(auth.RespondToRequests); err != nil {
		return nil, err
	}
	var action Action
	switch in.Action {
	case model.RespondApprove:
		action = ActionApprove
	case model.RespondReject:
		action = ActionReject
		if strings.TrimSpace(in.RejectionReason) == "" {
			return nil, api.Invalid("rejectionReason", "Please provide a reason for rejection")
		}
	default:
		return nil, api.Invalid("action", "Action must be approve or reject")
	}

	cur, next, err := s.guard(ctx, id, action)
	if err != nil {
		return nil, err
	}

	body := api.Response{Action: in.Action, RejectionReason: strings.TrimSpace(in.RejectionReason)}
	if in.AlternateTime != nil && action == ActionApprove {
		body.AlternateTime = model.FormatBackendTime(*in.AlternateTime)
	}
	a, err := s.backend.RespondToRequest(ctx, id, body)
	if errors.Is(err, api.ErrNotFound) {
		// Older backends only answer on the appointment route.
		a, err = s.backend.RespondToAppointment(ctx, id, body)
	}
	if err != nil {
		return nil, err
	}
	return s.settle(cur, a, next, func(p *model.Appointment) {
		if action == ActionReject {
			p.RejectionReason = body.RejectionReason
		}
		if in.AlternateTime != nil && action == ActionApprove {
			p.ConfirmedTime = model.NewTimestamp(*in.AlternateTime)
		}
	}), nil
}

// Cancel cancels a pending or confirmed appointment.
func (s *Service) Cancel(ctx context.Context, id int64, reason string) (*model.Appointment, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, api.Invalid("reason", "Please provide a reason for cancellation")
	}
	cur, next, err := s.guard(ctx, id, ActionCancel)
	if err != nil {
		return nil, err
	}
	a, err := s.backend.CancelAppointment(ctx, id, reason)
	if err != nil {
		return nil, err
	}
	return s.settle(cur, a, next, func(p *model.Appointment) { p.CancellationReason = reason }), nil
}

// Reschedule moves a confirmed appointment. The new time is not checked
// against the clock here; the backend decides.
func (s *Service) Reschedule(ctx context.Context, id int64, newTime time.Time) (*model.Appointment, error) {
	if newTime.IsZero() {
		return nil, api.Invalid("newTime", "New time is required")
	}
	cur, next, err := s.guard(ctx, id, ActionReschedule)
	if err != nil {
		return nil, err
	}
	a, err := s.backend.RescheduleAppointment(ctx, id, newTime)
	if err != nil {
		return nil, err
	}
	return s.settle(cur, a, next, func(p *model.Appointment) { p.ConfirmedTime = model.NewTimestamp(newTime) }), nil
}

// Complete marks a confirmed appointment as done.
func (s *Service) Complete(ctx context.Context, id int64, notes string) (*model.Appointment, error) {
	cur, next, err := s.guard(ctx, id, ActionComplete)
	if err != nil {
		return nil, err
	}
	notes = strings.TrimSpace(notes)
	a, err := s.backend.CompleteAppointment(ctx, id, notes)
	if err != nil {
		return nil, err
	}
	return s.settle(cur, a, next, func(p *model.Appointment) {
		if notes != "" {
			p.Notes = notes
		}
	}), nil
}

// Update edits the visitor details of an appointment that is still open.
func (s *Service) Update(ctx context.Context, id int64, c Changes) (*model.Appointment, error) {
	if err := s.require(auth.ManageAppointments); err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if v := strings.TrimSpace(c.VisitorName); v != "" {
		if len(v) < 2 {
			return nil, api.Invalid("visitorName", "Visitor name must be at least 2 characters")
		}
		fields["visitorName"] = v
	}
	if v := strings.TrimSpace(c.VisitorEmail); v != "" {
		if !model.ValidEmail(v) {
			return nil, api.Invalid("visitorEmail", "Please enter a valid email")
		}
		fields["visitorEmail"] = v
	}
	if v := strings.TrimSpace(c.VisitorPhone); v != "" {
		if !model.ValidPhone(v) {
			return nil, api.Invalid("visitorPhone", "Please enter a valid phone number")
		}
		fields["visitorPhone"] = v
	}
	if v := strings.TrimSpace(c.Reason); v != "" {
		fields["reason"] = v
	}
	if v := strings.TrimSpace(c.Notes); v != "" {
		fields["notes"] = v
	}
	if len(fields) == 0 {
		return nil, api.Invalid("", "Nothing to update")
	}

	cur, next, err := s.guard(ctx, id, ActionEdit)
	if err != nil {
		return nil, err
	}
	a, err := s.backend.UpdateAppointment(ctx, id, fields)
	if err != nil {
		return nil, MapFieldError(err)
	}
	return s.settle(cur, a, next, func(p *model.Appointment) {
		if v, ok := fields["visitorName"].(string); ok {
			p.VisitorName = v
		}
		if v, ok := fields["visitorEmail"].(string); ok {
			p.VisitorEmail = v
		}
		if v, ok := fields["visitorPhone"].(string); ok {
			p.VisitorPhone = v
		}
		if v, ok := fields["reason"].(string); ok {
			p.Reason = v
		}
		if v, ok := fields["notes"].(string); ok {
			p.Notes = v
		}
	}), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.require(auth.ManageAppointments); err != nil {
		return err
	}
	if err := s.backend.DeleteAppointment(ctx, id); err != nil {
		return err
	}
	s.store.Dispatch(state.AppointmentRemoved{ID: id})
	return nil
}

// List loads appointments matching f.
func (s *Service) List(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error) {
	list, err := s.backend.Appointments(ctx, f)
	if err != nil {
		return nil, err
	}
	s.store.Dispatch(state.AppointmentsLoaded{Appointments: list})
	return list, nil
}

// Today loads appointments scheduled for the current local date.
func (s *Service) Today(ctx context.Context) ([]model.Appointment, error) {
	return s.List(ctx, model.AppointmentFilter{Date: s.now().Format("2006-01-02")})
}

func (s *Service) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	a, err := s.backend.Appointment(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store.Dispatch(state.AppointmentUpdated{Appointment: *a})
	return a, nil
}

// Requests loads the requests the user has submitted or can act on.
func (s *Service) Requests(ctx context.Context) ([]model.Appointment, error) {
	return s.backend.AppointmentRequests(ctx)
}

// Incoming loads requests waiting on the current employee. When the
// dedicated route fails the general request list is used instead.
func (s *Service) Incoming(ctx context.Context) ([]model.Appointment, error) {
	list, err := s.backend.IncomingRequests(ctx)
	if err != nil {
		s.logger.Warn("incoming requests, falling back to request list", "error", err)
		if list, err = s.backend.AppointmentRequests(ctx); err != nil {
			return nil, err
		}
	}
	s.store.Dispatch(state.IncomingLoaded{Appointments: list})
	return list, nil
}

func (s *Service) Search(ctx context.Context, query string) ([]model.Appointment, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, api.Invalid("q", "Search text is required")
	}
	return s.backend.SearchAppointments(ctx, query)
}

// Stats loads appointment counts for period, "week" when empty.
func (s *Service) Stats(ctx context.Context, period string) (*model.AppointmentStats, error) {
	if period == "" {
		period = "week"
	}
	stats, err := s.backend.AppointmentStats(ctx, period)
	if err != nil {
		return nil, err
	}
	s.store.Dispatch(state.StatsLoaded{Stats: stats})
	return stats, nil
}

// guard finds the appointment's current status, from the cache or the
// backend, and checks action against it before anything is sent.
func (s *Service) guard(ctx context.Context, id int64, action Action) (*model.Appointment, model.AppointmentStatus, error) {
	cur, err := s.current(ctx, id)
	if err != nil {
		return nil, "", err
	}
	next, err := Next(action, cur.Status)
	if err != nil {
		return nil, "", err
	}
	return cur, next, nil
}

func (s *Service) current(ctx context.Context, id int64) (*model.Appointment, error) {
	st := s.store.State()
	for _, list := range [][]model.Appointment{st.Appointments.Items, st.Appointments.Incoming} {
		for _, a := range list {
			if a.ID == id {
				return &a, nil
			}
		}
	}
	return s.backend.Appointment(ctx, id)
}

// settle records the outcome of a transition. When the backend returns the
// updated appointment it wins; otherwise the cached copy is patched.
func (s *Service) settle(cur, resp *model.Appointment, next model.AppointmentStatus, patch func(*model.Appointment)) *model.Appointment {
	out := resp
	if out == nil || out.ID == 0 {
		p := *cur
		p.Status = next
		patch(&p)
		out = &p
	}
	if out.Status == "" {
		out.Status = next
	}
	s.store.Dispatch(state.AppointmentUpdated{Appointment: *out})
	s.logger.Info("appointment updated", "appointment_id", out.ID, "status", out.Status)
	return out
}

func (s *Service) require(p auth.Permission) error {
	return auth.Require(s.store.State().Auth.User, p)
}
