package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"smartpark/internal/db"
	apperrors "smartpark/internal/errors"
)

type SlotRepository struct {
	DB *sql.DB
}

func NewSlotRepository(db *sql.DB) *SlotRepository {
	return &SlotRepository{DB: db}
}

func (r *SlotRepository) GetSlot(ctx context.Context, id string) (db.Slot, error) {
	var s db.Slot
	err := conn(ctx, r.DB).QueryRowContext(ctx, `
SELECT id, location_id, label, base_hourly_rate, price_multiplier, active
FROM slots
WHERE id = $1`, id).Scan(&s.ID, &s.LocationID, &s.Label, &s.BaseHourlyRate, &s.PriceMultiplier, &s.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.Slot{}, apperrors.ErrNotFound
		}
		return db.Slot{}, fmt.Errorf("get slot %s: %w", id, err)
	}
	return s, nil
}

func (r *SlotRepository) GetLocation(ctx context.Context, id string) (db.Location, error) {
	var l db.Location
	err := conn(ctx, r.DB).QueryRowContext(ctx, `
SELECT id, name, total_slots, available_slots
FROM locations
WHERE id = $1`, id).Scan(&l.ID, &l.Name, &l.TotalSlots, &l.AvailableSlots)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.Location{}, apperrors.ErrNotFound
		}
		return db.Location{}, fmt.Errorf("get location %s: %w", id, err)
	}
	return l, nil
}
