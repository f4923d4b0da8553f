package apperrors

import (
	"errors"
	"time"
)

const internalMessage = "An unexpected error occurred"

// Response is the JSON envelope written for every failed request.
type Response struct {
	Success   bool        `json:"success"`
	Code      Kind        `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewResponse builds the envelope for err. Internal errors never expose their
// message to the client.
func NewResponse(err error) Response {
	resp := Response{Code: KindOf(err), Timestamp: time.Now().UTC()}

	var appErr *Error
	if !errors.As(err, &appErr) {
		resp.Message = internalMessage
		return resp
	}

	resp.Message = appErr.Error()
	if appErr.Field != "" {
		resp.Details = map[string]string{"field": appErr.Field}
	}
	return resp
}

// ValidationResponse reports a request body or query that failed to bind.
func ValidationResponse(details interface{}) Response {
	return Response{
		Code:      KindValidation,
		Message:   "Invalid request",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}
