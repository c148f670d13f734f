package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"smartpark/internal/db"
	"smartpark/internal/entities"
	apperrors "smartpark/internal/errors"
)

type AdminRepository struct {
	DB *sql.DB
}

func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{DB: db}
}

// ListReservations returns reservations matching the filter, newest start first. A set Date
// selects reservations starting within the 24 hours that follow it.
func (r *AdminRepository) ListReservations(ctx context.Context, f entities.ReservationFilter) ([]db.Reservation, error) {
	query := `SELECT` + reservationColumns + `
FROM reservations
WHERE 1=1`
	args := []any{}
	idx := 1

	if !f.Date.IsZero() {
		query += " AND start_time >= $" + strconv.Itoa(idx) + " AND start_time < $" + strconv.Itoa(idx+1)
		args = append(args, f.Date, f.Date.Add(24*time.Hour))
		idx += 2
	}
	if f.Status != "" {
		query += " AND status = $" + strconv.Itoa(idx)
		args = append(args, string(f.Status))
		idx++
	}
	if f.SlotID != "" {
		query += " AND slot_id = $" + strconv.Itoa(idx)
		args = append(args, f.SlotID)
		idx++
	}
	query += " ORDER BY start_time DESC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return collectReservations(rows)
}

func (r *AdminRepository) UpdateLocationSpaces(ctx context.Context, locationID string, total, available int) error {
	result, err := r.DB.ExecContext(ctx, `
UPDATE locations
SET total_slots = $2,
	available_slots = $3
WHERE id = $1`, locationID, total, available)
	if err != nil {
		return fmt.Errorf("update location %s spaces: %w", locationID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update location %s spaces: %w", locationID, err)
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
