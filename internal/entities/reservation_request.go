package entities

import (
	"time"

	"github.com/shopspring/decimal"

	"smartpark/internal/db"
)

type CreateReservationRequest struct {
	UserID       string
	SlotID       string
	StartTime    time.Time
	EndTime      time.Time
	VehiclePlate string
	VehicleClass db.VehicleClass
	// ClientPrice, when set, is stored verbatim so the booking matches the price the client
	// calculator showed.
	ClientPrice *decimal.Decimal
}

type ReservationConfirmation struct {
	ReservationID    string
	ConfirmationCode string
	Status           db.ReservationStatus
	StartTime        time.Time
	EndTime          time.Time
	TotalAmount      decimal.Decimal
}

type CancelReservationRequest struct {
	ReservationID string
	UserID        string
	// RefundMethod falls back to the configured default when empty.
	RefundMethod db.RefundMethod
	RefundUpiID  string
}

type CancelResult struct {
	ReservationID   string
	RefundAmount    decimal.Decimal
	CancellationFee decimal.Decimal
	RefundMethod    db.RefundMethod
	CancelledAt     time.Time
}

type CheckInResult struct {
	ReservationID    string
	ConfirmationCode string
	Status           db.ReservationStatus
	ActualEntryTime  time.Time
}

type CheckOutResult struct {
	ReservationID    string
	ConfirmationCode string
	Status           db.ReservationStatus
	ActualExitTime   time.Time
	OverstayHours    decimal.Decimal
	OverstayCharge   decimal.Decimal
	SurchargeAmount  decimal.Decimal
	TotalAmount      decimal.Decimal
}
