package api

import (
	"fmt"
	"net/http"
)

// Kind classifies a failed call.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindAuth       Kind = "auth"
	KindPermission Kind = "permission"
	KindServer     Kind = "server"
	KindTransport  Kind = "transport"
)

// Error is the single error type returned by the client and by the
// workflows' local validation. Field is set for form-level errors.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Field   string
	Err     error
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrPermission = &Error{Kind: KindPermission}
	ErrServer     = &Error{Kind: KindServer}
	ErrTransport  = &Error{Kind: KindTransport}
)

func (e *Error) Error() string {
	msg := e.UserMessage()
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message != "" || t.Field != "" || t.Status != 0 {
		return t == e
	}
	return t.Kind == e.Kind
}

// UserMessage is the text shown to the user: the server's message verbatim
// when there is one, otherwise a default for the kind.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Kind {
	case KindTransport:
		return "Cannot connect to server. Please check your internet connection and server status."
	case KindServer:
		return "Server error. Please try again later."
	case KindPermission:
		return "You do not have permission to perform this action."
	case KindAuth:
		return "Session expired. Please login again."
	case KindNotFound:
		return "The requested resource was not found."
	case KindConflict:
		return "The request conflicts with the current state."
	default:
		return "The request could not be processed."
	}
}

// Invalid builds a field-level validation error.
func Invalid(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// KindForStatus maps an HTTP status to an error kind.
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusForbidden:
		return KindPermission
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusTooManyRequests:
		return KindServer
	case status >= 500:
		return KindServer
	default:
		return KindValidation
	}
}
