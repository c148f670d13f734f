package db

import (
	"time"

	"github.com/shopspring/decimal"
)

type Location struct {
	ID             string
	Name           string
	TotalSlots     int
	AvailableSlots int
}

// AvailabilityPercentage is the share of free slots at the location, 0-100.
// A location with no configured slots reports 100 so demand pricing stays neutral.
func (l Location) AvailabilityPercentage() decimal.Decimal {
	if l.TotalSlots <= 0 {
		return decimal.NewFromInt(100)
	}
	return decimal.NewFromInt(int64(l.AvailableSlots)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(l.TotalSlots)))
}

type Slot struct {
	ID              string
	LocationID      string
	Label           string
	BaseHourlyRate  decimal.Decimal
	PriceMultiplier decimal.Decimal
	Active          bool
}

// EffectiveHourlyRate applies the slot multiplier to its base rate.
func (s Slot) EffectiveHourlyRate() decimal.Decimal {
	if s.PriceMultiplier.IsZero() {
		return s.BaseHourlyRate
	}
	return s.BaseHourlyRate.Mul(s.PriceMultiplier)
}

type Reservation struct {
	ID               string
	UserID           string
	SlotID           string
	StartTime        time.Time
	EndTime          time.Time
	ActualEntryTime  *time.Time
	ActualExitTime   *time.Time
	Status           ReservationStatus
	VehiclePlate     string
	VehicleClass     VehicleClass
	BaseAmount       decimal.Decimal
	DiscountAmount   decimal.Decimal
	SurchargeAmount  decimal.Decimal
	TotalAmount      decimal.Decimal
	RefundAmount     *decimal.Decimal
	RefundMethod     *RefundMethod
	RefundUpiID      *string
	CancelledAt      *time.Time
	ConfirmationCode string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PlannedHours is the booked duration in fractional hours.
func (r Reservation) PlannedHours() decimal.Decimal {
	return Hours(r.EndTime.Sub(r.StartTime))
}

// Overlaps reports whether r occupies any instant of [start, end).
// Touching boundaries do not overlap.
func (r Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && r.EndTime.After(start)
}

type Payment struct {
	ID            string
	UserID        string
	ReservationID *string
	Amount        decimal.Decimal
	Currency      string
	Method        string
	Status        PaymentStatus
	CreatedAt     time.Time
}

type Subscription struct {
	UserID    string
	Tier      Tier
	Status    string
	ExpiresAt *time.Time
}

// UserContact is the notification address book entry for a user.
type UserContact struct {
	UserID string
	Name   string
	Email  string
	Phone  string
}

// Hours converts a duration to fractional hours without going through float64.
func Hours(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d / time.Second)).Div(decimal.NewFromInt(3600))
}
