package entities

import (
	"time"

	"smartpark/internal/db"
)

// ReservationFilter narrows admin listings. Zero values mean "any".
type ReservationFilter struct {
	Date   time.Time
	Status db.ReservationStatus
	SlotID string
}

type ReservationsList struct {
	Total        int
	Reservations []db.Reservation
}
