package service

import (
	"context"
	"fmt"
	"time"

	"smartpark/internal/entities"
	apperrors "smartpark/internal/errors"
)

// AvailabilityChecker answers slot availability from the reservation store. Callers that need
// the answer to hold until an insert must run it inside the store transaction that also holds
// the slot lock.
type AvailabilityChecker struct {
	store ReservationStore
	slots SlotDirectory
}

func NewAvailabilityChecker(store ReservationStore, slots SlotDirectory) *AvailabilityChecker {
	return &AvailabilityChecker{store: store, slots: slots}
}

func (a *AvailabilityChecker) IsAvailable(ctx context.Context, slotID string, start, end time.Time, excludeID string) (bool, error) {
	conflicts, err := a.store.FindOverlapping(ctx, slotID, start, end, excludeID)
	if err != nil {
		return false, fmt.Errorf("check availability: %w", err)
	}
	return len(conflicts) == 0, nil
}

// CheckAvailability reports availability for the API along with the blocking intervals.
func (a *AvailabilityChecker) CheckAvailability(ctx context.Context, slotID string, start, end time.Time) (entities.AvailabilityResponse, error) {
	if slotID == "" {
		return entities.AvailabilityResponse{}, apperrors.Invalid("slot_id", "is required")
	}
	if !start.Before(end) {
		return entities.AvailabilityResponse{}, apperrors.Invalid("end_time", "must be after start_time")
	}
	if _, err := a.slots.GetSlot(ctx, slotID); err != nil {
		return entities.AvailabilityResponse{}, err
	}

	conflicts, err := a.store.FindOverlapping(ctx, slotID, start, end, "")
	if err != nil {
		return entities.AvailabilityResponse{}, fmt.Errorf("check availability: %w", err)
	}
	resp := entities.AvailabilityResponse{
		SlotID:             slotID,
		RequestedStartTime: start,
		RequestedEndTime:   end,
		IsAvailable:        len(conflicts) == 0,
	}
	for _, c := range conflicts {
		resp.Conflicts = append(resp.Conflicts, entities.Interval{Start: c.StartTime, End: c.EndTime})
	}
	return resp, nil
}
