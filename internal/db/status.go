package db

import "fmt"

type ReservationStatus string

const (
	StatusConfirmed ReservationStatus = "confirmed"
	StatusActive    ReservationStatus = "active"
	StatusCompleted ReservationStatus = "completed"
	StatusCancelled ReservationStatus = "cancelled"
)

func ParseReservationStatus(s string) (ReservationStatus, error) {
	st := ReservationStatus(s)
	if !st.IsValid() {
		return "", fmt.Errorf("unknown reservation status %q", s)
	}
	return st, nil
}

func (s ReservationStatus) IsValid() bool {
	switch s {
	case StatusConfirmed, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s ReservationStatus) String() string {
	return string(s)
}

// HoldsSlot reports whether a reservation in this status blocks its slot.
func (s ReservationStatus) HoldsSlot() bool {
	switch s {
	case StatusConfirmed, StatusActive:
		return true
	case StatusCompleted, StatusCancelled:
		return false
	}
	return false
}

func (s ReservationStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled:
		return true
	case StatusConfirmed, StatusActive:
		return false
	}
	return false
}

// Checked-in reservations cannot be cancelled.
func (s ReservationStatus) CanCancel() bool { return s == StatusConfirmed }

func (s ReservationStatus) CanCheckIn() bool { return s == StatusConfirmed }

func (s ReservationStatus) CanCheckOut() bool { return s == StatusActive }

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentRefunded PaymentStatus = "refunded"
)

type RefundMethod string

const (
	RefundOriginalPayment RefundMethod = "original_payment"
	RefundWallet          RefundMethod = "wallet"
	RefundUPI             RefundMethod = "upi"
)

func ParseRefundMethod(s string) (RefundMethod, error) {
	m := RefundMethod(s)
	switch m {
	case RefundOriginalPayment, RefundWallet, RefundUPI:
		return m, nil
	}
	return "", fmt.Errorf("unknown refund method %q", s)
}
