package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"smartpark/internal/db"
	"smartpark/internal/queue"
)

// ReservationStore is the authoritative reservation store. Implementations must make
// LockSlot+FindOverlapping+Insert atomic when run inside WithTx.
type ReservationStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockSlot(ctx context.Context, slotID string) error
	FindOverlapping(ctx context.Context, slotID string, start, end time.Time, excludeID string) ([]db.Reservation, error)
	Insert(ctx context.Context, r *db.Reservation) error
	GetByID(ctx context.Context, id string) (db.Reservation, error)
	GetByCode(ctx context.Context, code string) (db.Reservation, error)
	ListByUser(ctx context.Context, userID string) ([]db.Reservation, error)
	MarkCancelled(ctx context.Context, id string, refund decimal.Decimal, method db.RefundMethod, upiID *string, at time.Time) error
	MarkCheckedIn(ctx context.Context, id string, at time.Time) error
	MarkCompleted(ctx context.Context, id string, exit time.Time, surcharge, total decimal.Decimal) error
}

type PaymentStore interface {
	Create(ctx context.Context, p db.Payment) error
	MarkRefunded(ctx context.Context, reservationID string) error
}

type SlotDirectory interface {
	GetSlot(ctx context.Context, id string) (db.Slot, error)
	GetLocation(ctx context.Context, id string) (db.Location, error)
}

type SubscriptionStore interface {
	GetSubscription(ctx context.Context, userID string) (*db.Subscription, error)
}

type ContactStore interface {
	GetContact(ctx context.Context, userID string) (db.UserContact, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}
