package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"smartpark/internal/clock"
	"smartpark/internal/db"
)

type JobStore interface {
	ReservationsMissingPayment(ctx context.Context, createdBefore time.Time, limit int) ([]db.Reservation, error)
	CancelledWithPendingPayment(ctx context.Context) ([]string, error)
	MarkPaymentsRefunded(ctx context.Context, reservationIDs []string) (int64, error)
}

const (
	reconcileBatchSize = 200
	// Reservations younger than this may still be writing their payment.
	reconcileGrace = 2 * time.Minute
	jobTimeout     = 5 * time.Minute
)

// JobService backfills the payment ledger. Payment writes after a booking are best effort, so
// the ledger can lag the reservations table.
type JobService struct {
	repo     JobStore
	payments PaymentStore
	clock    clock.Clock
	currency string
	method   string
}

func NewJobService(repo JobStore, payments PaymentStore, currency, method string, clk clock.Clock) *JobService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &JobService{repo: repo, payments: payments, clock: clk, currency: currency, method: method}
}

// ReconcilePayments creates missing payment rows and marks payments of cancelled reservations
// as refunded.
func (s *JobService) ReconcilePayments(ctx context.Context) error {
	log.Println("Cron Job: reconciling payments...")

	missing, err := s.repo.ReservationsMissingPayment(ctx, s.clock.Now().Add(-reconcileGrace), reconcileBatchSize)
	if err != nil {
		return fmt.Errorf("cron job: failed to list reservations missing payment: %w", err)
	}
	created := 0
	for _, r := range missing {
		status := db.PaymentPending
		if r.Status == db.StatusCancelled {
			status = db.PaymentRefunded
		}
		reservationID := r.ID
		p := db.Payment{
			ID:            uuid.NewString(),
			UserID:        r.UserID,
			ReservationID: &reservationID,
			Amount:        r.TotalAmount,
			Currency:      s.currency,
			Method:        s.method,
			Status:        status,
			CreatedAt:     s.clock.Now(),
		}
		if err := s.payments.Create(ctx, p); err != nil {
			log.Printf("Cron Job: payment backfill for reservation %s failed: %v", r.ID, err)
			continue
		}
		created++
	}

	ids, err := s.repo.CancelledWithPendingPayment(ctx)
	if err != nil {
		return fmt.Errorf("cron job: failed to list cancelled reservations: %w", err)
	}
	refunded, err := s.repo.MarkPaymentsRefunded(ctx, ids)
	if err != nil {
		return fmt.Errorf("cron job: failed to mark payments refunded: %w", err)
	}

	log.Printf("Cron Job: backfilled %d payments, marked %d refunded", created, refunded)
	return nil
}

// Register schedules ReconcilePayments on c.
func (s *JobService) Register(c *cron.Cron, spec string) (cron.EntryID, error) {
	id, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := s.ReconcilePayments(ctx); err != nil {
			log.Printf("%v", err)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("schedule payment reconciliation %q: %w", spec, err)
	}
	return id, nil
}
