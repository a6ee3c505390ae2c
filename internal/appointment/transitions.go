package appointment

import (
	"fmt"
	"strings"

	"github.com/dukerupert/walkin/internal/api"
	"github.com/dukerupert/walkin/internal/model"
)

// Action is a state-changing operation on an appointment.
type Action string

const (
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
	ActionCancel     Action = "cancel"
	ActionReschedule Action = "reschedule"
	ActionComplete   Action = "complete"
	ActionEdit       Action = "edit"
)

var transitionMap = map[Action][]model.AppointmentStatus{
	ActionApprove:    {model.AppointmentPending},
	ActionReject:     {model.AppointmentPending},
	ActionCancel:     {model.AppointmentPending, model.AppointmentConfirmed},
	ActionReschedule: {model.AppointmentConfirmed},
	ActionComplete:   {model.AppointmentConfirmed},
	ActionEdit:       {model.AppointmentPending, model.AppointmentConfirmed},
}

var resultStatus = map[Action]model.AppointmentStatus{
	ActionApprove:    model.AppointmentConfirmed,
	ActionReject:     model.AppointmentCancelled,
	ActionCancel:     model.AppointmentCancelled,
	ActionReschedule: model.AppointmentConfirmed,
	ActionComplete:   model.AppointmentCompleted,
}

// ValidTransition reports whether action may be applied to an appointment
// in status from.
func ValidTransition(action Action, from model.AppointmentStatus) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	from = model.NormalizeAppointmentStatus(string(from))
	for _, status := range allowed {
		if status == from {
			return true
		}
	}
	return false
}

// Next returns the status an appointment in from ends up in after action.
// Edits keep the current status.
func Next(action Action, from model.AppointmentStatus) (model.AppointmentStatus, error) {
	if !ValidTransition(action, from) {
		return "", &api.Error{
			Kind:    api.KindConflict,
			Message: fmt.Sprintf("Cannot %s an appointment that is %s.", action, strings.ToLower(string(from))),
		}
	}
	if to, ok := resultStatus[action]; ok {
		return to, nil
	}
	return model.NormalizeAppointmentStatus(string(from)), nil
}

// Terminal reports whether no action can move an appointment out of status.
func Terminal(status model.AppointmentStatus) bool {
	status = model.NormalizeAppointmentStatus(string(status))
	return status == model.AppointmentCancelled || status == model.AppointmentCompleted
}
