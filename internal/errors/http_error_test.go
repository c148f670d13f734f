package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToHTTP(t *testing.T) {
	cases := []struct {
		err    error
		code   int
		slug   string
		status string
	}{
		{Invalid("end_time", "must be after start_time"), http.StatusBadRequest, "validation_failed", ""},
		{fmt.Errorf("create: %w", ErrSlotUnavailable), http.StatusConflict, "slot_unavailable", ""},
		{&StateError{Op: "check in", Current: "active"}, http.StatusConflict, "invalid_state", "active"},
		{fmt.Errorf("lookup: %w", ErrNotFound), http.StatusNotFound, "not_found", ""},
		{ErrForbidden, http.StatusForbidden, "forbidden", ""},
		{fmt.Errorf("dial tcp: connection refused"), http.StatusInternalServerError, "internal_error", ""},
		{ErrUnauthorized("missing token"), http.StatusUnauthorized, "unauthorized", ""},
	}
	for _, tc := range cases {
		got := ToHTTP(tc.err)
		assert.Equal(t, tc.code, got.Code, tc.err.Error())
		assert.Equal(t, tc.slug, got.Slug, tc.err.Error())
		assert.Equal(t, tc.status, got.CurrentStatus, tc.err.Error())
	}
}

func TestStateErrorMessage(t *testing.T) {
	err := &StateError{Op: "cancel", Current: "completed"}
	assert.Equal(t, "cannot cancel a reservation that is completed", err.Error())
}
