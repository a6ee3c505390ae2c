package state

import (
	"slices"

	"github.com/dukerupert/walkin/internal/model"
)

type AppointmentState struct {
	Items    []model.Appointment
	Incoming []model.Appointment
	Stats    *model.AppointmentStats
}

type AppointmentsLoaded struct{ Appointments []model.Appointment }
type IncomingLoaded struct{ Appointments []model.Appointment }
type StatsLoaded struct{ Stats *model.AppointmentStats }

// AppointmentUpdated patches one appointment by id in both lists. An
// appointment that is no longer pending leaves the incoming list.
type AppointmentUpdated struct{ Appointment model.Appointment }
type AppointmentRemoved struct{ ID int64 }

func (AppointmentsLoaded) Type() string { return "appointments/loaded" }
func (IncomingLoaded) Type() string     { return "appointments/incomingLoaded" }
func (StatsLoaded) Type() string        { return "appointments/statsLoaded" }
func (AppointmentUpdated) Type() string { return "appointments/updated" }
func (AppointmentRemoved) Type() string { return "appointments/removed" }

func appointmentID(a model.Appointment) int64 { return a.ID }

func (a AppointmentsLoaded) reduce(s *State) { s.Appointments.Items = slices.Clone(a.Appointments) }
func (a IncomingLoaded) reduce(s *State)     { s.Appointments.Incoming = slices.Clone(a.Appointments) }
func (a StatsLoaded) reduce(s *State)        { s.Appointments.Stats = a.Stats }

func (a AppointmentUpdated) reduce(s *State) {
	s.Appointments.Items = upsert(s.Appointments.Items, a.Appointment, appointmentID)
	if a.Appointment.Status == model.AppointmentPending {
		for i := range s.Appointments.Incoming {
			if s.Appointments.Incoming[i].ID == a.Appointment.ID {
				s.Appointments.Incoming[i] = a.Appointment
			}
		}
		return
	}
	s.Appointments.Incoming = remove(s.Appointments.Incoming, a.Appointment.ID, appointmentID)
}

func (a AppointmentRemoved) reduce(s *State) {
	s.Appointments.Items = remove(s.Appointments.Items, a.ID, appointmentID)
	s.Appointments.Incoming = remove(s.Appointments.Incoming, a.ID, appointmentID)
}
