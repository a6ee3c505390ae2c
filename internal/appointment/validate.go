package appointment

import (
	"errors"
	"strings"
	"time"

	"github.com/dukerupert/walkin/internal/api"
	"github.com/dukerupert/walkin/internal/model"
)

// ValidateRequest checks a visit request form against now.
func ValidateRequest(r model.AppointmentRequest, now time.Time) error {
	switch {
	case r.VisitorName == "":
		return api.Invalid("visitorName", "Visitor name is required")
	case len(r.VisitorName) < 2:
		return api.Invalid("visitorName", "Visitor name must be at least 2 characters")
	case r.VisitorEmail == "":
		return api.Invalid("visitorEmail", "Email is required")
	case !model.ValidEmail(r.VisitorEmail):
		return api.Invalid("visitorEmail", "Please enter a valid email")
	case r.VisitorPhone != "" && !model.ValidPhone(r.VisitorPhone):
		return api.Invalid("visitorPhone", "Please enter a valid phone number")
	case r.Reason == "":
		return api.Invalid("reason", "Reason for visit is required")
	case r.PreferredTime.IsZero():
		return api.Invalid("preferredTime", "Preferred time is required")
	case !r.PreferredTime.After(now):
		return api.Invalid("preferredTime", "Preferred time must be in the future")
	case r.EmployeeID == 0:
		return api.Invalid("employeeId", "Please select an employee")
	}
	return nil
}

func trimRequest(r model.AppointmentRequest) model.AppointmentRequest {
	r.VisitorName = strings.TrimSpace(r.VisitorName)
	r.VisitorEmail = strings.TrimSpace(r.VisitorEmail)
	r.VisitorPhone = strings.TrimSpace(r.VisitorPhone)
	r.Reason = strings.TrimSpace(r.Reason)
	return r
}

// fieldMessages maps backend validation text to form fields, checked in
// order.
var fieldMessages = []struct {
	substr string
	field  string
}{
	{"Employee ID is required", "employeeId"},
	{"Visitor name is required", "visitorName"},
	{"Visitor email is required", "visitorEmail"},
	{"valid email", "visitorEmail"},
	{"Reason is required", "reason"},
	{"future", "preferredTime"},
}

// MapFieldError attaches a form field to a backend validation error whose
// message names one. Other errors pass through unchanged.
func MapFieldError(err error) error {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Field != "" || apiErr.Kind != api.KindValidation {
		return err
	}
	for _, fm := range fieldMessages {
		if strings.Contains(apiErr.Message, fm.substr) {
			mapped := *apiErr
			mapped.Field = fm.field
			return &mapped
		}
	}
	return err
}
