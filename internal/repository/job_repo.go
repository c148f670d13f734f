package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/lib/pq"

	"smartpark/internal/db"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{DB: db}
}

// ReservationsMissingPayment finds reservations created before the cutoff that never got a
// payment row.
func (r *JobRepository) ReservationsMissingPayment(ctx context.Context, createdBefore time.Time, limit int) ([]db.Reservation, error) {
	query := `SELECT` + qualified("r", reservationColumns) + `
FROM reservations r
LEFT JOIN payments p ON p.reservation_id = r.id
WHERE p.id IS NULL AND r.created_at < $1
ORDER BY r.created_at
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, createdBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying reservations missing payment: %w", err)
	}
	return collectReservations(rows)
}

// CancelledWithPendingPayment returns ids of cancelled reservations whose payment was never
// marked refunded.
func (r *JobRepository) CancelledWithPendingPayment(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
SELECT r.id
FROM reservations r
JOIN payments p ON p.reservation_id = r.id
WHERE r.status = 'cancelled' AND p.status = 'pending'`)
	if err != nil {
		return nil, fmt.Errorf("error querying cancelled reservations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning reservation ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return ids, nil
}

func (r *JobRepository) MarkPaymentsRefunded(ctx context.Context, reservationIDs []string) (int64, error) {
	if len(reservationIDs) == 0 {
		return 0, nil
	}
	result, err := r.DB.ExecContext(ctx, `
UPDATE payments SET status = 'refunded'
WHERE status = 'pending' AND reservation_id = ANY($1)`, pq.Array(reservationIDs))
	if err != nil {
		return 0, fmt.Errorf("error updating payment statuses: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		log.Printf("Could not get rows affected: %v", err)
		return 0, nil
	}
	return n, nil
}

// qualified prefixes every column in a comma separated list with a table alias.
func qualified(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = " " + alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ",")
}
