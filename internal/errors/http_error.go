package errors

import (
	stderrors "errors"
	"net/http"
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code          int
	Slug          string
	Message       string
	CurrentStatus string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// Helper for common errors
var (
	ErrUnauthorized = func(msg string) *HTTPError {
		return &HTTPError{Code: http.StatusUnauthorized, Slug: "unauthorized", Message: msg}
	}
	ErrBadRequest = func(msg string) *HTTPError {
		return &HTTPError{Code: http.StatusBadRequest, Slug: "invalid_request", Message: msg}
	}
)

// ToHTTP maps service errors onto transport errors. Unknown errors become a 500 without leaking
// collaborator details.
func ToHTTP(err error) *HTTPError {
	var httpErr *HTTPError
	if stderrors.As(err, &httpErr) {
		return httpErr
	}
	var verr *ValidationError
	if stderrors.As(err, &verr) {
		return &HTTPError{Code: http.StatusBadRequest, Slug: "validation_failed", Message: verr.Error()}
	}
	var serr *StateError
	if stderrors.As(err, &serr) {
		return &HTTPError{
			Code:          http.StatusConflict,
			Slug:          "invalid_state",
			Message:       serr.Error(),
			CurrentStatus: serr.Current,
		}
	}
	switch {
	case stderrors.Is(err, ErrSlotUnavailable):
		return &HTTPError{Code: http.StatusConflict, Slug: "slot_unavailable", Message: ErrSlotUnavailable.Error()}
	case stderrors.Is(err, ErrNotFound):
		return &HTTPError{Code: http.StatusNotFound, Slug: "not_found", Message: "not found"}
	case stderrors.Is(err, ErrInvalidCredentials):
		return ErrUnauthorized(ErrInvalidCredentials.Error())
	case stderrors.Is(err, ErrForbidden):
		return &HTTPError{Code: http.StatusForbidden, Slug: "forbidden", Message: "forbidden"}
	}
	return &HTTPError{Code: http.StatusInternalServerError, Slug: "internal_error", Message: "internal error"}
}
