package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"smartpark/internal/db"
	apperrors "smartpark/internal/errors"
)

// slotLockClass namespaces the two-key advisory locks taken per slot.
const slotLockClass = 4271

const reservationColumns = `
	id, user_id, slot_id, start_time, end_time, actual_entry_time, actual_exit_time,
	status, vehicle_plate, vehicle_class, base_amount, discount_amount, surcharge_amount,
	total_amount, refund_amount, refund_method, refund_upi_id, cancelled_at,
	confirmation_code, created_at, updated_at`

type ReservationRepository struct {
	DB *sql.DB
}

func NewReservationRepository(db *sql.DB) *ReservationRepository {
	return &ReservationRepository{DB: db}
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.DB, fn)
}

// LockSlot takes a transaction-scoped advisory lock on the slot. It must run inside WithTx; the
// lock is released on commit or rollback.
func (r *ReservationRepository) LockSlot(ctx context.Context, slotID string) error {
	tx := txFromContext(ctx)
	if tx == nil {
		return errors.New("lock slot: no transaction in context")
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, hashtext($2))`, slotLockClass, slotID); err != nil {
		return fmt.Errorf("lock slot %s: %w", slotID, err)
	}
	return nil
}

// FindOverlapping returns confirmed or active reservations on the slot that intersect
// [start, end). excludeID, when set, is left out of the result.
func (r *ReservationRepository) FindOverlapping(ctx context.Context, slotID string, start, end time.Time, excludeID string) ([]db.Reservation, error) {
	query := `SELECT` + reservationColumns + `
FROM reservations
WHERE slot_id = $1
  AND status IN ('confirmed', 'active')
  AND start_time < $3
  AND end_time > $2
  AND ($4 = '' OR id <> $4)
ORDER BY start_time`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, slotID, start, end, excludeID)
	if err != nil {
		return nil, fmt.Errorf("find overlapping reservations: %w", err)
	}
	return collectReservations(rows)
}

func (r *ReservationRepository) Insert(ctx context.Context, res *db.Reservation) error {
	const stmt = `
INSERT INTO reservations (
	id, user_id, slot_id, start_time, end_time, status, vehicle_plate, vehicle_class,
	base_amount, discount_amount, surcharge_amount, total_amount, confirmation_code,
	created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := conn(ctx, r.DB).ExecContext(ctx, stmt,
		res.ID,
		res.UserID,
		res.SlotID,
		res.StartTime,
		res.EndTime,
		string(res.Status),
		res.VehiclePlate,
		string(res.VehicleClass),
		res.BaseAmount,
		res.DiscountAmount,
		res.SurchargeAmount,
		res.TotalAmount,
		res.ConfirmationCode,
		res.CreatedAt,
		res.UpdatedAt,
	)
	if err != nil {
		switch {
		case isExclusionViolation(err):
			return apperrors.ErrSlotUnavailable
		case isUniqueViolation(err) && constraintName(err) == "reservations_confirmation_code_key":
			return apperrors.ErrDuplicateCode
		case isForeignKeyViolation(err):
			return fmt.Errorf("slot %s: %w", res.SlotID, apperrors.ErrNotFound)
		}
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (db.Reservation, error) {
	return r.getOne(ctx, `SELECT`+reservationColumns+` FROM reservations WHERE id = $1`, id)
}

func (r *ReservationRepository) GetByCode(ctx context.Context, code string) (db.Reservation, error) {
	return r.getOne(ctx, `SELECT`+reservationColumns+` FROM reservations WHERE confirmation_code = $1`, code)
}

func (r *ReservationRepository) getOne(ctx context.Context, query string, arg string) (db.Reservation, error) {
	res, err := scanReservation(conn(ctx, r.DB).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.Reservation{}, apperrors.ErrNotFound
		}
		return db.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

func (r *ReservationRepository) ListByUser(ctx context.Context, userID string) ([]db.Reservation, error) {
	query := `SELECT` + reservationColumns + `
FROM reservations
WHERE user_id = $1
ORDER BY start_time DESC`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user reservations: %w", err)
	}
	return collectReservations(rows)
}

// MarkCancelled moves a confirmed reservation to cancelled. It returns ErrStatusChanged when the
// row is no longer confirmed.
func (r *ReservationRepository) MarkCancelled(ctx context.Context, id string, refund decimal.Decimal, method db.RefundMethod, upiID *string, at time.Time) error {
	const stmt = `
UPDATE reservations
SET status = 'cancelled',
	refund_amount = $2,
	refund_method = $3,
	refund_upi_id = $4,
	cancelled_at = $5,
	updated_at = $5
WHERE id = $1 AND status = 'confirmed'`
	var upi sql.NullString
	if upiID != nil {
		upi = sql.NullString{String: *upiID, Valid: true}
	}
	return r.guardedUpdate(ctx, "cancel", stmt, id, refund, string(method), upi, at)
}

func (r *ReservationRepository) MarkCheckedIn(ctx context.Context, id string, at time.Time) error {
	const stmt = `
UPDATE reservations
SET status = 'active', actual_entry_time = $2, updated_at = $2
WHERE id = $1 AND status = 'confirmed'`
	return r.guardedUpdate(ctx, "check in", stmt, id, at)
}

// MarkCompleted closes an active reservation. surcharge and total already include any overstay
// charge.
func (r *ReservationRepository) MarkCompleted(ctx context.Context, id string, exit time.Time, surcharge, total decimal.Decimal) error {
	const stmt = `
UPDATE reservations
SET status = 'completed',
	actual_exit_time = $2,
	surcharge_amount = $3,
	total_amount = $4,
	updated_at = $2
WHERE id = $1 AND status = 'active'`
	return r.guardedUpdate(ctx, "check out", stmt, id, exit, surcharge, total)
}

func (r *ReservationRepository) guardedUpdate(ctx context.Context, op, stmt string, args ...any) error {
	result, err := conn(ctx, r.DB).ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("%s reservation: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s reservation: rows affected: %w", op, err)
	}
	if n == 0 {
		return apperrors.ErrStatusChanged
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (db.Reservation, error) {
	var (
		res                    db.Reservation
		status, vehicleClass   string
		entry, exit, cancelled sql.NullTime
		refund                 decimal.NullDecimal
		refundMethod, upiID    sql.NullString
	)
	err := row.Scan(
		&res.ID, &res.UserID, &res.SlotID, &res.StartTime, &res.EndTime, &entry, &exit,
		&status, &res.VehiclePlate, &vehicleClass, &res.BaseAmount, &res.DiscountAmount, &res.SurchargeAmount,
		&res.TotalAmount, &refund, &refundMethod, &upiID, &cancelled,
		&res.ConfirmationCode, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return db.Reservation{}, err
	}

	res.Status = db.ReservationStatus(status)
	res.VehicleClass = db.VehicleClass(vehicleClass)
	res.StartTime = res.StartTime.UTC()
	res.EndTime = res.EndTime.UTC()
	res.CreatedAt = res.CreatedAt.UTC()
	res.UpdatedAt = res.UpdatedAt.UTC()
	res.ActualEntryTime = utcPtr(entry)
	res.ActualExitTime = utcPtr(exit)
	res.CancelledAt = utcPtr(cancelled)
	if refund.Valid {
		amount := refund.Decimal
		res.RefundAmount = &amount
	}
	if refundMethod.Valid {
		m := db.RefundMethod(refundMethod.String)
		res.RefundMethod = &m
	}
	if upiID.Valid {
		id := upiID.String
		res.RefundUpiID = &id
	}
	return res, nil
}

func collectReservations(rows *sql.Rows) ([]db.Reservation, error) {
	defer rows.Close()

	var out []db.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}
	return out, nil
}

func utcPtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
