package api

import (
	"time"

	"github.com/shopspring/decimal"

	"smartpark/internal/db"
	"smartpark/internal/entities"
	"smartpark/internal/pricing"
)

// Availability
type AvailabilityRequest struct {
	SlotID    string    `json:"slot_id" validate:"required"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
}

type IntervalResponse struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type AvailabilityResponse struct {
	SlotID    string             `json:"slot_id"`
	StartTime time.Time          `json:"start_time"`
	EndTime   time.Time          `json:"end_time"`
	Available bool               `json:"available"`
	Conflicts []IntervalResponse `json:"conflicts"`
}

// Prices
type QuoteRequest struct {
	SlotID       string    `json:"slot_id" validate:"required"`
	StartTime    time.Time `json:"start_time" validate:"required"`
	EndTime      time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	VehicleClass string    `json:"vehicle_class" validate:"omitempty,max=32"`
}

type QuoteResponse struct {
	SlotID                   string                 `json:"slot_id"`
	Breakdown                pricing.PriceBreakdown `json:"breakdown"`
	SubscriptionTier         db.Tier                `json:"subscription_tier"`
	SubscriptionDiscountRate string                 `json:"subscription_discount_rate"`
	SubscriptionDiscount     string                 `json:"subscription_discount"`
	TotalAmount              string                 `json:"total_amount"`
}

// Reservation
type CreateReservationRequest struct {
	SlotID       string    `json:"slot_id" validate:"required"`
	StartTime    time.Time `json:"start_time" validate:"required"`
	EndTime      time.Time `json:"end_time" validate:"required"`
	VehiclePlate string    `json:"vehicle_plate" validate:"omitempty,max=16"`
	VehicleClass string    `json:"vehicle_class" validate:"omitempty,max=32"`
	// Price is the amount the client calculator showed; when present it is charged as-is.
	Price *decimal.Decimal `json:"price,omitempty"`
}

type CreateReservationResponse struct {
	ReservationID    string               `json:"reservation_id"`
	ConfirmationCode string               `json:"confirmation_code"`
	Status           db.ReservationStatus `json:"status"`
	StartTime        time.Time            `json:"start_time"`
	EndTime          time.Time            `json:"end_time"`
	TotalAmount      string               `json:"total_amount"`
	Message          string               `json:"message"`
}

type CancelReservationRequest struct {
	RefundMethod string `json:"refund_method" validate:"omitempty,oneof=original_payment wallet upi"`
	RefundUpiID  string `json:"refund_upi_id" validate:"required_if=RefundMethod upi,max=64"`
}

type CancelReservationResponse struct {
	ReservationID   string          `json:"reservation_id"`
	RefundAmount    string          `json:"refund_amount"`
	CancellationFee string          `json:"cancellation_fee"`
	RefundMethod    db.RefundMethod `json:"refund_method"`
	CancelledAt     time.Time       `json:"cancelled_at"`
}

type CheckInResponse struct {
	ReservationID    string               `json:"reservation_id"`
	ConfirmationCode string               `json:"confirmation_code"`
	Status           db.ReservationStatus `json:"status"`
	ActualEntryTime  time.Time            `json:"actual_entry_time"`
}

type CheckOutResponse struct {
	ReservationID    string               `json:"reservation_id"`
	ConfirmationCode string               `json:"confirmation_code"`
	Status           db.ReservationStatus `json:"status"`
	ActualExitTime   time.Time            `json:"actual_exit_time"`
	OverstayHours    string               `json:"overstay_hours"`
	OverstayCharge   string               `json:"overstay_charge"`
	SurchargeAmount  string               `json:"surcharge_amount"`
	TotalAmount      string               `json:"total_amount"`
}

type ReservationResponse struct {
	ID               string               `json:"id"`
	UserID           string               `json:"user_id"`
	SlotID           string               `json:"slot_id"`
	StartTime        time.Time            `json:"start_time"`
	EndTime          time.Time            `json:"end_time"`
	ActualEntryTime  *time.Time           `json:"actual_entry_time,omitempty"`
	ActualExitTime   *time.Time           `json:"actual_exit_time,omitempty"`
	Status           db.ReservationStatus `json:"status"`
	VehiclePlate     string               `json:"vehicle_plate,omitempty"`
	VehicleClass     db.VehicleClass      `json:"vehicle_class,omitempty"`
	BaseAmount       string               `json:"base_amount"`
	DiscountAmount   string               `json:"discount_amount"`
	SurchargeAmount  string               `json:"surcharge_amount"`
	TotalAmount      string               `json:"total_amount"`
	RefundAmount     *string              `json:"refund_amount,omitempty"`
	RefundMethod     *db.RefundMethod     `json:"refund_method,omitempty"`
	CancelledAt      *time.Time           `json:"cancelled_at,omitempty"`
	ConfirmationCode string               `json:"confirmation_code"`
	CreatedAt        time.Time            `json:"created_at"`
}

type ReservationsListResponse struct {
	Total        int                   `json:"total"`
	Reservations []ReservationResponse `json:"reservations"`
}

// Admin
type UpdateSpacesRequest struct {
	TotalSlots     int `json:"total_slots" validate:"gte=0"`
	AvailableSlots int `json:"available_slots" validate:"gte=0,ltefield=TotalSlots"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type ErrorResponse struct {
	Error         string `json:"error"`
	Code          string `json:"code"`
	CurrentStatus string `json:"current_status,omitempty"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toReservationResponse(r db.Reservation) ReservationResponse {
	out := ReservationResponse{
		ID:               r.ID,
		UserID:           r.UserID,
		SlotID:           r.SlotID,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		ActualEntryTime:  r.ActualEntryTime,
		ActualExitTime:   r.ActualExitTime,
		Status:           r.Status,
		VehiclePlate:     r.VehiclePlate,
		VehicleClass:     r.VehicleClass,
		BaseAmount:       money(r.BaseAmount),
		DiscountAmount:   money(r.DiscountAmount),
		SurchargeAmount:  money(r.SurchargeAmount),
		TotalAmount:      money(r.TotalAmount),
		RefundMethod:     r.RefundMethod,
		CancelledAt:      r.CancelledAt,
		ConfirmationCode: r.ConfirmationCode,
		CreatedAt:        r.CreatedAt,
	}
	if r.RefundAmount != nil {
		refund := money(*r.RefundAmount)
		out.RefundAmount = &refund
	}
	return out
}

func toReservationsList(rs []db.Reservation) ReservationsListResponse {
	out := ReservationsListResponse{Total: len(rs), Reservations: make([]ReservationResponse, 0, len(rs))}
	for _, r := range rs {
		out.Reservations = append(out.Reservations, toReservationResponse(r))
	}
	return out
}

func toAvailabilityResponse(a entities.AvailabilityResponse) AvailabilityResponse {
	out := AvailabilityResponse{
		SlotID:    a.SlotID,
		StartTime: a.RequestedStartTime,
		EndTime:   a.RequestedEndTime,
		Available: a.IsAvailable,
		Conflicts: make([]IntervalResponse, 0, len(a.Conflicts)),
	}
	for _, c := range a.Conflicts {
		out.Conflicts = append(out.Conflicts, IntervalResponse{StartTime: c.Start, EndTime: c.End})
	}
	return out
}
