package repository

import (
	"context"
	"database/sql"
	"fmt"

	"smartpark/internal/db"
	apperrors "smartpark/internal/errors"
)

type PaymentRepository struct {
	DB *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

// Create inserts a payment. A second payment for the same reservation is ignored.
func (r *PaymentRepository) Create(ctx context.Context, p db.Payment) error {
	const stmt = `
INSERT INTO payments (id, user_id, reservation_id, amount, currency, method, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (reservation_id) WHERE reservation_id IS NOT NULL DO NOTHING`
	var reservationID sql.NullString
	if p.ReservationID != nil {
		reservationID = sql.NullString{String: *p.ReservationID, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, stmt,
		p.ID, p.UserID, reservationID, p.Amount, p.Currency, p.Method, string(p.Status), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// MarkRefunded flips the reservation's pending payment to refunded.
func (r *PaymentRepository) MarkRefunded(ctx context.Context, reservationID string) error {
	result, err := r.DB.ExecContext(ctx, `
UPDATE payments SET status = 'refunded'
WHERE reservation_id = $1 AND status = 'pending'`, reservationID)
	if err != nil {
		return fmt.Errorf("refund payment for %s: %w", reservationID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("refund payment for %s: %w", reservationID, err)
	}
	if n == 0 {
		return fmt.Errorf("pending payment for %s: %w", reservationID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *PaymentRepository) GetByReservation(ctx context.Context, reservationID string) (db.Payment, error) {
	var (
		p      db.Payment
		resID  sql.NullString
		status string
	)
	err := r.DB.QueryRowContext(ctx, `
SELECT id, user_id, reservation_id, amount, currency, method, status, created_at
FROM payments
WHERE reservation_id = $1`, reservationID).
		Scan(&p.ID, &p.UserID, &resID, &p.Amount, &p.Currency, &p.Method, &status, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return db.Payment{}, apperrors.ErrNotFound
		}
		return db.Payment{}, fmt.Errorf("get payment for %s: %w", reservationID, err)
	}
	if resID.Valid {
		p.ReservationID = &resID.String
	}
	p.Status = db.PaymentStatus(status)
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}
