package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"smartpark/internal/auth"
)

type Handlers struct {
	Reservations *UserReservationHandler
	Admin        *AdminHandler
	AdminAuth    *AdminAuthHandler
}

// NewRouter wires the public, user and admin routes. limiter may be nil.
func NewRouter(h Handlers, mw *auth.Middleware, limiter *RateLimiter) *mux.Router {
	r := mux.NewRouter()
	if limiter != nil {
		r.Use(limiter.Limit)
	}

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	user := func(f http.HandlerFunc) http.Handler { return mw.RequireUser(f) }

	// Public endpoints
	r.HandleFunc("/api/availability", h.Reservations.CheckAvailability).Methods(http.MethodPost)
	r.Handle("/api/prices/quote", mw.OptionalUser(http.HandlerFunc(h.Reservations.QuotePrice))).Methods(http.MethodPost)
	r.HandleFunc("/admin/login", h.AdminAuth.Login).Methods(http.MethodPost)

	// User endpoints
	r.Handle("/api/reservations", user(h.Reservations.CreateReservation)).Methods(http.MethodPost)
	r.Handle("/api/reservations", user(h.Reservations.ListMyReservations)).Methods(http.MethodGet)
	r.Handle("/api/reservations/{code}", user(h.Reservations.GetReservation)).Methods(http.MethodGet)
	r.Handle("/api/reservations/{code}/qr", user(h.Reservations.ReservationQR)).Methods(http.MethodGet)
	r.Handle("/api/reservations/{id}/cancel", user(h.Reservations.CancelReservation)).Methods(http.MethodPost)
	r.Handle("/api/checkin/{code}", user(h.Reservations.CheckIn)).Methods(http.MethodPost)
	r.Handle("/api/checkout/{code}", user(h.Reservations.CheckOut)).Methods(http.MethodPost)

	// Admin endpoints (protected)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(mw.RequireAdmin)
	admin.HandleFunc("/reservations", h.Admin.ListReservations).Methods(http.MethodGet)
	admin.HandleFunc("/locations/{id}/spaces", h.Admin.UpdateLocationSpaces).Methods(http.MethodPut)

	return r
}
