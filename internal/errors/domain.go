package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	ErrNotFound        = stderrors.New("not found")
	ErrForbidden       = stderrors.New("forbidden")
	ErrSlotUnavailable = stderrors.New("slot is not available for the requested time")
	// ErrStatusChanged is returned by stores when a guarded status update matched no row.
	ErrStatusChanged = stderrors.New("reservation status changed concurrently")
	// ErrDuplicateCode is returned by stores when a confirmation code is already taken.
	ErrDuplicateCode      = stderrors.New("confirmation code already in use")
	ErrInvalidCredentials = stderrors.New("invalid credentials")
)

// ValidationError rejects a request before any store access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// StateError reports an operation attempted from a status that does not allow it.
type StateError struct {
	Op      string
	Current string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s a reservation that is %s", e.Op, e.Current)
}
