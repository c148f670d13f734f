// Package queue carries reservation lifecycle events to downstream consumers.
package queue

import (
	"context"
	"time"

	"smartpark/internal/db"
)

type EventType string

const (
	EventReservationConfirmed EventType = "reservation.confirmed"
	EventReservationCancelled EventType = "reservation.cancelled"
	EventReservationCheckedIn EventType = "reservation.checked_in"
	EventReservationCompleted EventType = "reservation.completed"
)

// ReservationEvent is self-contained so consumers never need to query the primary database.
type ReservationEvent struct {
	Type             EventType `json:"type"`
	ReservationID    string    `json:"reservation_id"`
	UserID           string    `json:"user_id"`
	SlotID           string    `json:"slot_id"`
	ConfirmationCode string    `json:"confirmation_code"`
	Status           string    `json:"status"`
	VehiclePlate     string    `json:"vehicle_plate,omitempty"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	TotalAmount      string    `json:"total_amount"`
	RefundAmount     string    `json:"refund_amount,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

func NewReservationEvent(t EventType, r db.Reservation, at time.Time) ReservationEvent {
	ev := ReservationEvent{
		Type:             t,
		ReservationID:    r.ID,
		UserID:           r.UserID,
		SlotID:           r.SlotID,
		ConfirmationCode: r.ConfirmationCode,
		Status:           r.Status.String(),
		VehiclePlate:     r.VehiclePlate,
		StartTime:        r.StartTime.UTC(),
		EndTime:          r.EndTime.UTC(),
		TotalAmount:      r.TotalAmount.StringFixed(2),
		OccurredAt:       at.UTC(),
	}
	if r.RefundAmount != nil {
		ev.RefundAmount = r.RefundAmount.StringFixed(2)
	}
	return ev
}

// Publisher delivers events. Callers treat failures as best effort.
type Publisher interface {
	Publish(ctx context.Context, ev ReservationEvent) error
	Close() error
}

// Handler processes one event on the consuming side.
type Handler func(ctx context.Context, ev ReservationEvent) error
