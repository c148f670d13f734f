package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"smartpark/internal/db"
	apperrors "smartpark/internal/errors"
	"smartpark/internal/queue"
)

// memStore is an in-memory ReservationStore. It does not serialize transactions; admission
// atomicity comes from the service's slot locker.
type memStore struct {
	mu           sync.Mutex
	reservations map[string]db.Reservation
	inserts      int
	// beforeUpdate, when set, runs before a guarded update is evaluated.
	beforeUpdate func(id string)
}

func newMemStore(existing ...db.Reservation) *memStore {
	s := &memStore{reservations: make(map[string]db.Reservation)}
	for _, r := range existing {
		s.reservations[r.ID] = r
	}
	return s
}

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *memStore) LockSlot(context.Context, string) error { return nil }

func (s *memStore) FindOverlapping(_ context.Context, slotID string, start, end time.Time, excludeID string) ([]db.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []db.Reservation
	for _, r := range s.reservations {
		if r.SlotID != slotID || r.ID == excludeID || !r.Status.HoldsSlot() {
			continue
		}
		if r.Overlaps(start, end) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (s *memStore) Insert(_ context.Context, r *db.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.reservations {
		if existing.ConfirmationCode == r.ConfirmationCode {
			return apperrors.ErrDuplicateCode
		}
	}
	s.inserts++
	s.reservations[r.ID] = *r
	return nil
}

func (s *memStore) GetByID(_ context.Context, id string) (db.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return db.Reservation{}, apperrors.ErrNotFound
	}
	return r, nil
}

func (s *memStore) GetByCode(_ context.Context, code string) (db.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reservations {
		if r.ConfirmationCode == code {
			return r, nil
		}
	}
	return db.Reservation{}, apperrors.ErrNotFound
}

func (s *memStore) ListByUser(_ context.Context, userID string) ([]db.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []db.Reservation
	for _, r := range s.reservations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (s *memStore) guarded(id string, from db.ReservationStatus, apply func(r *db.Reservation)) error {
	if s.beforeUpdate != nil {
		s.beforeUpdate(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok || r.Status != from {
		return apperrors.ErrStatusChanged
	}
	apply(&r)
	s.reservations[id] = r
	return nil
}

func (s *memStore) MarkCancelled(_ context.Context, id string, refund decimal.Decimal, method db.RefundMethod, upiID *string, at time.Time) error {
	return s.guarded(id, db.StatusConfirmed, func(r *db.Reservation) {
		r.Status = db.StatusCancelled
		r.RefundAmount = &refund
		r.RefundMethod = &method
		r.RefundUpiID = upiID
		r.CancelledAt = &at
		r.UpdatedAt = at
	})
}

func (s *memStore) MarkCheckedIn(_ context.Context, id string, at time.Time) error {
	return s.guarded(id, db.StatusConfirmed, func(r *db.Reservation) {
		r.Status = db.StatusActive
		r.ActualEntryTime = &at
		r.UpdatedAt = at
	})
}

func (s *memStore) MarkCompleted(_ context.Context, id string, exit time.Time, surcharge, total decimal.Decimal) error {
	return s.guarded(id, db.StatusActive, func(r *db.Reservation) {
		r.Status = db.StatusCompleted
		r.ActualExitTime = &exit
		r.SurchargeAmount = surcharge
		r.TotalAmount = total
		r.UpdatedAt = exit
	})
}

// setStatus mutates a row behind the service's back.
func (s *memStore) setStatus(id string, st db.ReservationStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.reservations[id]
	r.Status = st
	s.reservations[id] = r
}

type fakePayments struct {
	mu        sync.Mutex
	created   []db.Payment
	refunded  []string
	createErr error
}

func (p *fakePayments) Create(_ context.Context, pay db.Payment) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return p.createErr
	}
	p.created = append(p.created, pay)
	return nil
}

func (p *fakePayments) MarkRefunded(_ context.Context, reservationID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refunded = append(p.refunded, reservationID)
	return nil
}

type fakeSlots struct {
	slots     map[string]db.Slot
	locations map[string]db.Location
}

func newFakeSlots(rate string, total, available int) *fakeSlots {
	return &fakeSlots{
		slots: map[string]db.Slot{
			"slot-1":   {ID: "slot-1", LocationID: "loc-1", Label: "A1", BaseHourlyRate: decimal.RequireFromString(rate), PriceMultiplier: decimal.NewFromInt(1), Active: true},
			"slot-off": {ID: "slot-off", LocationID: "loc-1", Label: "A2", BaseHourlyRate: decimal.RequireFromString(rate), Active: false},
		},
		locations: map[string]db.Location{
			"loc-1": {ID: "loc-1", Name: "Central", TotalSlots: total, AvailableSlots: available},
		},
	}
}

func (f *fakeSlots) GetSlot(_ context.Context, id string) (db.Slot, error) {
	s, ok := f.slots[id]
	if !ok {
		return db.Slot{}, apperrors.ErrNotFound
	}
	return s, nil
}

func (f *fakeSlots) GetLocation(_ context.Context, id string) (db.Location, error) {
	l, ok := f.locations[id]
	if !ok {
		return db.Location{}, apperrors.ErrNotFound
	}
	return l, nil
}

type fakeSubscriptions struct {
	subs  map[string]db.Subscription
	err   error
	calls int
}

func (f *fakeSubscriptions) GetSubscription(_ context.Context, userID string) (*db.Subscription, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.subs[userID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

type recordingEvents struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
}

func (r *recordingEvents) Publish(_ context.Context, ev queue.ReservationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingEvents) types() []queue.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]queue.EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type failingEvents struct{}

func (failingEvents) Publish(context.Context, queue.ReservationEvent) error {
	return errors.New("broker unavailable")
}
