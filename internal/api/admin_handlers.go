package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"smartpark/internal/db"
	"smartpark/internal/entities"
	apperrors "smartpark/internal/errors"
)

type AdminService interface {
	ListReservations(ctx context.Context, f entities.ReservationFilter) (entities.ReservationsList, error)
	UpdateLocationSpaces(ctx context.Context, locationID string, total, available int) error
}

type AdminHandler struct {
	service AdminService
	loc     *time.Location
}

// NewAdminHandler reads calendar dates in loc, the zone the pricing engine bills in.
func NewAdminHandler(svc AdminService, loc *time.Location) *AdminHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AdminHandler{service: svc, loc: loc}
}

func (h *AdminHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := entities.ReservationFilter{
		Status: db.ReservationStatus(q.Get("status")),
		SlotID: q.Get("slot_id"),
	}
	if date := q.Get("date"); date != "" {
		day, err := time.ParseInLocation("2006-01-02", date, h.loc)
		if err != nil {
			writeError(w, r, apperrors.Invalid("date", "must be YYYY-MM-DD"))
			return
		}
		filter.Date = day
	}

	list, err := h.service.ListReservations(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationsList(list.Reservations))
}

func (h *AdminHandler) UpdateLocationSpaces(w http.ResponseWriter, r *http.Request) {
	var req UpdateSpacesRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.service.UpdateLocationSpaces(r.Context(), id, req.TotalSlots, req.AvailableSlots); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Location spaces updated"})
}
