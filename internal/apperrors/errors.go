package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound       Kind = "NOT_FOUND"
	KindDuplicate      Kind = "DUPLICATE"
	KindAuthentication Kind = "AUTHENTICATION_FAILED"
	KindToken          Kind = "INVALID_TOKEN"
	KindAccessDenied   Kind = "ACCESS_DENIED"
	KindBusinessLogic  Kind = "BUSINESS_RULE_VIOLATION"
	KindValidation     Kind = "VALIDATION_FAILED"
	KindInternal       Kind = "INTERNAL_ERROR"
)

// Error is the classified error returned by the service layer. Anything that
// is not an *Error is treated as KindInternal at the transport boundary.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches kind sentinels, so errors.Is(err, ErrNotFound) holds for any
// not-found error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

var (
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrDuplicate      = &Error{Kind: KindDuplicate}
	ErrAuthentication = &Error{Kind: KindAuthentication}
	ErrToken          = &Error{Kind: KindToken}
	ErrAccessDenied   = &Error{Kind: KindAccessDenied}
	ErrBusinessLogic  = &Error{Kind: KindBusinessLogic}
	ErrValidation     = &Error{Kind: KindValidation}
)

func NotFound(resource, field string, value interface{}) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found with %s: %v", resource, field, value),
	}
}

func Duplicate(message string) *Error {
	return &Error{Kind: KindDuplicate, Message: message}
}

func Authentication(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

func Token(message string, cause error) *Error {
	return &Error{Kind: KindToken, Message: message, Err: cause}
}

// AccessDenied reports an identity or ownership violation.
func AccessDenied(action, resource string) *Error {
	return &Error{
		Kind:    KindAccessDenied,
		Message: fmt.Sprintf("Access denied to %s %s", action, resource),
	}
}

// BusinessLogic reports a valid actor attempting an operation the domain
// rules forbid.
func BusinessLogic(operation, reason string) *Error {
	return &Error{
		Kind:    KindBusinessLogic,
		Message: fmt.Sprintf("Cannot %s: %s", operation, reason),
	}
}

func Validation(field, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Field:   field,
		Message: fmt.Sprintf("Validation failed for field '%s': %s", field, message),
	}
}

func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicate:
		return http.StatusConflict
	case KindAccessDenied:
		return http.StatusForbidden
	case KindAuthentication, KindToken:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindBusinessLogic:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
