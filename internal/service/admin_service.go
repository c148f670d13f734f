package service

import (
	"context"

	"smartpark/internal/db"
	"smartpark/internal/entities"
	apperrors "smartpark/internal/errors"
)

type AdminStore interface {
	ListReservations(ctx context.Context, f entities.ReservationFilter) ([]db.Reservation, error)
	UpdateLocationSpaces(ctx context.Context, locationID string, total, available int) error
}

type AdminService struct {
	repo AdminStore
}

func NewAdminService(repo AdminStore) *AdminService {
	return &AdminService{repo: repo}
}

func (s *AdminService) ListReservations(ctx context.Context, f entities.ReservationFilter) (entities.ReservationsList, error) {
	if f.Status != "" && !f.Status.IsValid() {
		return entities.ReservationsList{}, apperrors.Invalid("status", "unknown reservation status %q", f.Status)
	}
	reservations, err := s.repo.ListReservations(ctx, f)
	if err != nil {
		return entities.ReservationsList{}, err
	}
	return entities.ReservationsList{Total: len(reservations), Reservations: reservations}, nil
}

// UpdateLocationSpaces sets the occupancy counters that feed demand pricing.
func (s *AdminService) UpdateLocationSpaces(ctx context.Context, locationID string, total, available int) error {
	if total < 0 {
		return apperrors.Invalid("total_slots", "must not be negative")
	}
	if available < 0 || available > total {
		return apperrors.Invalid("available_slots", "must be between 0 and total_slots")
	}
	return s.repo.UpdateLocationSpaces(ctx, locationID, total, available)
}
