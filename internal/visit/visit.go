package visit

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dukerupert/walkin/internal/api"
	"github.com/dukerupert/walkin/internal/auth"
	"github.com/dukerupert/walkin/internal/model"
	"github.com/dukerupert/walkin/internal/state"
)

// Backend is the slice of the API client used at the front desk.
type Backend interface {
	WalkIn(ctx context.Context, code, notes string) (*model.VisitorLog, error)
	WalkOut(ctx context.Context, code, notes string) (*model.VisitorLog, error)
	VisitorStatus(ctx context.Context, code string) (*model.VisitorStatus, error)
	TodayVisitorLogs(ctx context.Context) ([]model.VisitorLog, error)
	VisitorLogs(ctx context.Context) ([]model.VisitorLog, error)
	VisitorLog(ctx context.Context, id int64) (*model.VisitorLog, error)
	AppointmentByConfirmationCode(ctx context.Context, code string) (*model.Appointment, error)
}

// Gate says which front-desk actions to offer for a visitor. It is a UI
// hint only; the backend re-validates every walk-in and walk-out.
type Gate struct {
	WalkIn  bool
	WalkOut bool
	Reason  string
}

// GateFor derives the gate from a status lookup. A nil status (lookup not
// done or failed) offers walk-in only.
func GateFor(st *model.VisitorStatus) Gate {
	switch {
	case st == nil:
		return Gate{WalkIn: true, Reason: "Ready for walk-in"}
	case st.IsInside:
		return Gate{WalkOut: true, Reason: "Visitor is already inside"}
	default:
		return Gate{WalkIn: true, Reason: "Visitor is not inside"}
	}
}

// Service records visitor arrivals and departures by confirmation code.
type Service struct {
	backend Backend
	store   *state.Store
	logger  *slog.Logger
}

func NewService(backend Backend, store *state.Store, logger *slog.Logger) *Service {
	return &Service{
		backend: backend,
		store:   store,
		logger:  logger.With("component", "visit"),
	}
}

func validateCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", api.Invalid("confirmationCode", "Confirmation code is required")
	}
	return code, nil
}

// Status looks up whether the visitor behind code is inside and returns the
// gate for it.
func (s *Service) Status(ctx context.Context, code string) (*model.VisitorStatus, Gate, error) {
	code, err := validateCode(code)
	if err != nil {
		return nil, GateFor(nil), err
	}
	st, err := s.backend.VisitorStatus(ctx, code)
	if err != nil {
		return nil, GateFor(nil), err
	}
	return st, GateFor(st), nil
}

// WalkIn records an arrival. The backend rejects a visitor who is already
// inside.
func (s *Service) WalkIn(ctx context.Context, code, notes string) (*model.VisitorLog, error) {
	if err := s.require(); err != nil {
		return nil, err
	}
	code, err := validateCode(code)
	if err != nil {
		return nil, err
	}
	log, err := s.backend.WalkIn(ctx, code, strings.TrimSpace(notes))
	if err != nil {
		return nil, err
	}
	s.logger.Info("walk-in recorded", "confirmation_code", code)
	s.markAppointment(code, func(a *model.Appointment) {
		a.WalkedInAt = log.WalkedInAt
		a.WalkedOutAt = nil
	})
	return log, nil
}

// WalkOut records a departure. The backend rejects a visitor who is not
// inside.
func (s *Service) WalkOut(ctx context.Context, code, notes string) (*model.VisitorLog, error) {
	if err := s.require(); err != nil {
		return nil, err
	}
	code, err := validateCode(code)
	if err != nil {
		return nil, err
	}
	log, err := s.backend.WalkOut(ctx, code, strings.TrimSpace(notes))
	if err != nil {
		return nil, err
	}
	s.logger.Info("walk-out recorded", "confirmation_code", code)
	s.markAppointment(code, func(a *model.Appointment) {
		if a.WalkedInAt != nil {
			a.WalkedOutAt = log.WalkedOutAt
		}
	})
	return log, nil
}

func (s *Service) Today(ctx context.Context) ([]model.VisitorLog, error) {
	return s.backend.TodayVisitorLogs(ctx)
}

func (s *Service) All(ctx context.Context) ([]model.VisitorLog, error) {
	return s.backend.VisitorLogs(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*model.VisitorLog, error) {
	return s.backend.VisitorLog(ctx, id)
}

// Appointment resolves a confirmation code to its appointment.
func (s *Service) Appointment(ctx context.Context, code string) (*model.Appointment, error) {
	code, err := validateCode(code)
	if err != nil {
		return nil, err
	}
	return s.backend.AppointmentByConfirmationCode(ctx, code)
}

func (s *Service) require() error {
	return auth.Require(s.store.State().Auth.User, auth.RecordVisits)
}

// markAppointment patches the cached appointment carrying code, if any.
func (s *Service) markAppointment(code string, patch func(*model.Appointment)) {
	for _, a := range s.store.State().Appointments.Items {
		if a.ConfirmationCode == code {
			patch(&a)
			s.store.Dispatch(state.AppointmentUpdated{Appointment: a})
			return
		}
	}
}
