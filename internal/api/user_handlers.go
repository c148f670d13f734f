package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"

	"smartpark/internal/auth"
	"smartpark/internal/db"
	"smartpark/internal/entities"
	apperrors "smartpark/internal/errors"
)

type ReservationService interface {
	CreateReservation(ctx context.Context, req entities.CreateReservationRequest) (entities.ReservationConfirmation, error)
	CancelReservation(ctx context.Context, req entities.CancelReservationRequest) (entities.CancelResult, error)
	CheckIn(ctx context.Context, code string) (entities.CheckInResult, error)
	CheckOut(ctx context.Context, code string) (entities.CheckOutResult, error)
	QuotePrice(ctx context.Context, req entities.PriceQuoteRequest) (entities.PriceQuote, error)
	GetReservationByCode(ctx context.Context, code string) (db.Reservation, error)
	ListUserReservations(ctx context.Context, userID string) ([]db.Reservation, error)
}

type AvailabilityService interface {
	CheckAvailability(ctx context.Context, slotID string, start, end time.Time) (entities.AvailabilityResponse, error)
}

type UserReservationHandler struct {
	reservations ReservationService
	availability AvailabilityService
}

func NewUserReservationHandler(svc ReservationService, availability AvailabilityService) *UserReservationHandler {
	return &UserReservationHandler{reservations: svc, availability: availability}
}

func (h *UserReservationHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req AvailabilityRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.availability.CheckAvailability(r.Context(), req.SlotID, req.StartTime, req.EndTime)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAvailabilityResponse(res))
}

func (h *UserReservationHandler) QuotePrice(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	vc, err := db.ParseVehicleClass(req.VehicleClass)
	if err != nil {
		writeError(w, r, apperrors.Invalid("vehicle_class", "%v", err))
		return
	}
	q, err := h.reservations.QuotePrice(r.Context(), entities.PriceQuoteRequest{
		SlotID:       req.SlotID,
		UserID:       auth.UserID(r.Context()),
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		VehicleClass: vc,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, QuoteResponse{
		SlotID:                   q.SlotID,
		Breakdown:                q.Breakdown,
		SubscriptionTier:         q.SubscriptionTier,
		SubscriptionDiscountRate: q.SubscriptionDiscountRate.String(),
		SubscriptionDiscount:     money(q.SubscriptionDiscount),
		TotalAmount:              money(q.TotalAmount),
	})
}

func (h *UserReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	vc, err := db.ParseVehicleClass(req.VehicleClass)
	if err != nil {
		writeError(w, r, apperrors.Invalid("vehicle_class", "%v", err))
		return
	}
	conf, err := h.reservations.CreateReservation(r.Context(), entities.CreateReservationRequest{
		UserID:       auth.UserID(r.Context()),
		SlotID:       req.SlotID,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		VehiclePlate: req.VehiclePlate,
		VehicleClass: vc,
		ClientPrice:  req.Price,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateReservationResponse{
		ReservationID:    conf.ReservationID,
		ConfirmationCode: conf.ConfirmationCode,
		Status:           conf.Status,
		StartTime:        conf.StartTime,
		EndTime:          conf.EndTime,
		TotalAmount:      money(conf.TotalAmount),
		Message:          "Reservation confirmed.",
	})
}

func (h *UserReservationHandler) ListMyReservations(w http.ResponseWriter, r *http.Request) {
	rs, err := h.reservations.ListUserReservations(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationsList(rs))
}

func (h *UserReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.ownedReservation(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

// ReservationQR renders the confirmation code as a PNG for the entry barcode reader.
func (h *UserReservationHandler) ReservationQR(w http.ResponseWriter, r *http.Request) {
	res, err := h.ownedReservation(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	png, err := qrcode.Encode(res.ConfirmationCode, qrcode.Medium, 256)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	_, _ = w.Write(png)
}

func (h *UserReservationHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	var req CancelReservationRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.reservations.CancelReservation(r.Context(), entities.CancelReservationRequest{
		ReservationID: mux.Vars(r)["id"],
		UserID:        auth.UserID(r.Context()),
		RefundMethod:  db.RefundMethod(req.RefundMethod),
		RefundUpiID:   req.RefundUpiID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CancelReservationResponse{
		ReservationID:   res.ReservationID,
		RefundAmount:    money(res.RefundAmount),
		CancellationFee: money(res.CancellationFee),
		RefundMethod:    res.RefundMethod,
		CancelledAt:     res.CancelledAt,
	})
}

func (h *UserReservationHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	res, err := h.reservations.CheckIn(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CheckInResponse{
		ReservationID:    res.ReservationID,
		ConfirmationCode: res.ConfirmationCode,
		Status:           res.Status,
		ActualEntryTime:  res.ActualEntryTime,
	})
}

func (h *UserReservationHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	res, err := h.reservations.CheckOut(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CheckOutResponse{
		ReservationID:    res.ReservationID,
		ConfirmationCode: res.ConfirmationCode,
		Status:           res.Status,
		ActualExitTime:   res.ActualExitTime,
		OverstayHours:    res.OverstayHours.StringFixed(2),
		OverstayCharge:   money(res.OverstayCharge),
		SurchargeAmount:  money(res.SurchargeAmount),
		TotalAmount:      money(res.TotalAmount),
	})
}

// ownedReservation loads the reservation named by the {code} path variable. Only its owner and
// admins may see it.
func (h *UserReservationHandler) ownedReservation(r *http.Request) (db.Reservation, error) {
	res, err := h.reservations.GetReservationByCode(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		return db.Reservation{}, err
	}
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return db.Reservation{}, apperrors.ErrForbidden
	}
	if claims.Role != auth.RoleAdmin && claims.Subject != res.UserID {
		return db.Reservation{}, apperrors.ErrForbidden
	}
	return res, nil
}
