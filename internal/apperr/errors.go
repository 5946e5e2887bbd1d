// Package apperr defines the domain error taxonomy and its mapping to HTTP
// status codes. Handlers translate these at the request boundary; services
// never touch http directly.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindConflict
	KindStateTransition
	KindTooManyDates
	KindAlreadyPaid
	KindAuth
	KindForbidden
	KindUpstream
)

type Error struct {
	Kind    Kind
	Message string
	Field   string // set for validation errors with field-level detail
	Err     error  // wrapped cause, not exposed to callers outside development
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func StateTransition(message string) *Error {
	return &Error{Kind: KindStateTransition, Message: message}
}

func TooManyDates(message string) *Error {
	return &Error{Kind: KindTooManyDates, Message: message}
}

func AlreadyPaid(message string) *Error {
	return &Error{Kind: KindAlreadyPaid, Message: message}
}

func Auth(message string) *Error {
	return &Error{Kind: KindAuth, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func Upstream(message string, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: cause}
}

// StatusCode maps a domain error to the HTTP status the boundary should emit.
// Unknown errors map to 500.
func StatusCode(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation, KindTooManyDates:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindStateTransition, KindAlreadyPaid:
		return http.StatusConflict
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
