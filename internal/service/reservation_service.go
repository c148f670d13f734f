package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"smartpark/internal/clock"
	"smartpark/internal/db"
	"smartpark/internal/entities"
	apperrors "smartpark/internal/errors"
	"smartpark/internal/lock"
	"smartpark/internal/pricing"
	"smartpark/internal/queue"
	"smartpark/internal/utils"
)

const (
	// Bookings may start slightly in the past to absorb client clock skew.
	pastStartTolerance = 24 * time.Hour
	minCancelNotice    = time.Hour
	maxCodeAttempts    = 5
)

var (
	cancellationFeeRate = decimal.RequireFromString("0.10")
	refundRate          = decimal.RequireFromString("0.90")
	overstayRate        = decimal.RequireFromString("1.5")
)

type ReservationService struct {
	store        ReservationStore
	payments     PaymentStore
	slots        SlotDirectory
	subs         SubscriptionLookup
	availability *AvailabilityChecker
	engine       *pricing.Engine
	locker       lock.SlotLocker
	events       EventPublisher
	clock        clock.Clock

	currency      string
	paymentMethod string
	defaultRefund db.RefundMethod

	newID   func() string
	newCode func() (string, error)
}

type Option func(*ReservationService)

func WithClock(c clock.Clock) Option {
	return func(s *ReservationService) { s.clock = c }
}

func WithLocker(l lock.SlotLocker) Option {
	return func(s *ReservationService) { s.locker = l }
}

func WithEvents(p EventPublisher) Option {
	return func(s *ReservationService) { s.events = p }
}

func WithPricingEngine(e *pricing.Engine) Option {
	return func(s *ReservationService) { s.engine = e }
}

// WithPaymentDefaults sets the currency and method written on new payment records.
func WithPaymentDefaults(currency, method string) Option {
	return func(s *ReservationService) {
		s.currency = currency
		s.paymentMethod = method
	}
}

func WithDefaultRefundMethod(m db.RefundMethod) Option {
	return func(s *ReservationService) { s.defaultRefund = m }
}

func NewReservationService(store ReservationStore, payments PaymentStore, slots SlotDirectory, subs SubscriptionLookup, opts ...Option) *ReservationService {
	s := &ReservationService{
		store:         store,
		payments:      payments,
		slots:         slots,
		subs:          subs,
		availability:  NewAvailabilityChecker(store, slots),
		engine:        pricing.NewEngine(),
		locker:        lock.NewLocalLocker(),
		clock:         clock.NewSystem(),
		currency:      "EUR",
		paymentMethod: "card",
		defaultRefund: db.RefundOriginalPayment,
		newID:         uuid.NewString,
		newCode:       utils.NewConfirmationCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ReservationService) Availability() *AvailabilityChecker { return s.availability }

func (s *ReservationService) CreateReservation(ctx context.Context, req entities.CreateReservationRequest) (entities.ReservationConfirmation, error) {
	if req.UserID == "" {
		return entities.ReservationConfirmation{}, apperrors.Invalid("user_id", "is required")
	}
	if req.SlotID == "" {
		return entities.ReservationConfirmation{}, apperrors.Invalid("slot_id", "is required")
	}
	if req.VehicleClass != db.VehicleClassNone && !req.VehicleClass.IsKnown() {
		return entities.ReservationConfirmation{}, apperrors.Invalid("vehicle_class", "unknown vehicle class %q", req.VehicleClass)
	}

	var sub *SubscriptionInfo
	if req.VehicleClass.IsPerformance() {
		info, err := s.subs.Lookup(ctx, req.UserID)
		if err != nil {
			return entities.ReservationConfirmation{}, err
		}
		if !s.subs.VehicleClassAllowed(info.Tier, req.VehicleClass) {
			return entities.ReservationConfirmation{}, apperrors.Invalid("vehicle_class",
				"%s parking is not included in the %s plan", req.VehicleClass, info.Tier)
		}
		sub = &info
	}

	now := s.clock.Now()
	if err := validateBookingInterval(req.StartTime, req.EndTime, now); err != nil {
		return entities.ReservationConfirmation{}, err
	}

	slot, err := s.activeSlot(ctx, req.SlotID)
	if err != nil {
		return entities.ReservationConfirmation{}, err
	}

	var amounts bookingAmounts
	if req.ClientPrice != nil {
		if req.ClientPrice.IsNegative() {
			return entities.ReservationConfirmation{}, apperrors.Invalid("price", "must not be negative")
		}
		amounts = clientAmounts(*req.ClientPrice)
	} else {
		if sub == nil {
			info, err := s.subs.Lookup(ctx, req.UserID)
			if err != nil {
				return entities.ReservationConfirmation{}, err
			}
			sub = &info
		}
		breakdown, err := s.price(ctx, slot, req.StartTime, req.EndTime, req.VehicleClass)
		if err != nil {
			return entities.ReservationConfirmation{}, err
		}
		amounts = engineAmounts(breakdown)
		amounts.applySubscription(s.subscriptionRate(*sub))
	}

	res := db.Reservation{
		ID:              s.newID(),
		UserID:          req.UserID,
		SlotID:          slot.ID,
		StartTime:       req.StartTime.UTC(),
		EndTime:         req.EndTime.UTC(),
		Status:          db.StatusConfirmed,
		VehiclePlate:    req.VehiclePlate,
		VehicleClass:    req.VehicleClass,
		BaseAmount:      amounts.base,
		DiscountAmount:  amounts.discount,
		SurchargeAmount: amounts.surcharge,
		TotalAmount:     amounts.total,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.admitWithFreshCode(ctx, &res); err != nil {
		return entities.ReservationConfirmation{}, err
	}

	// Past this point the reservation stands; side effects are best effort.
	s.recordPayment(ctx, res)
	s.publish(ctx, queue.EventReservationConfirmed, res)

	return entities.ReservationConfirmation{
		ReservationID:    res.ID,
		ConfirmationCode: res.ConfirmationCode,
		Status:           res.Status,
		StartTime:        res.StartTime,
		EndTime:          res.EndTime,
		TotalAmount:      res.TotalAmount,
	}, nil
}

func (s *ReservationService) admitWithFreshCode(ctx context.Context, res *db.Reservation) error {
	for attempt := 1; ; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return err
		}
		res.ConfirmationCode = code

		err = s.admit(ctx, res)
		if errors.Is(err, apperrors.ErrDuplicateCode) && attempt < maxCodeAttempts {
			continue
		}
		return err
	}
}

// admit holds the slot lock only around the availability re-check and the insert.
func (s *ReservationService) admit(ctx context.Context, res *db.Reservation) error {
	unlock, err := s.locker.Lock(ctx, res.SlotID)
	if err != nil {
		return fmt.Errorf("lock slot %s: %w", res.SlotID, err)
	}
	defer unlock()

	return s.store.WithTx(ctx, func(ctx context.Context) error {
		if err := s.store.LockSlot(ctx, res.SlotID); err != nil {
			return err
		}
		ok, err := s.availability.IsAvailable(ctx, res.SlotID, res.StartTime, res.EndTime, "")
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrSlotUnavailable
		}
		return s.store.Insert(ctx, res)
	})
}

func (s *ReservationService) recordPayment(ctx context.Context, res db.Reservation) {
	reservationID := res.ID
	p := db.Payment{
		ID:            s.newID(),
		UserID:        res.UserID,
		ReservationID: &reservationID,
		Amount:        res.TotalAmount,
		Currency:      s.currency,
		Method:        s.paymentMethod,
		Status:        db.PaymentPending,
		CreatedAt:     res.CreatedAt,
	}
	if err := s.payments.Create(context.WithoutCancel(ctx), p); err != nil {
		log.Printf("reservation %s: payment record failed: %v", res.ID, err)
	}
}

func (s *ReservationService) publish(ctx context.Context, t queue.EventType, res db.Reservation) {
	if s.events == nil {
		return
	}
	ev := queue.NewReservationEvent(t, res, s.clock.Now())
	if err := s.events.Publish(context.WithoutCancel(ctx), ev); err != nil {
		log.Printf("reservation %s: publish %s failed: %v", res.ID, t, err)
	}
}

func (s *ReservationService) CancelReservation(ctx context.Context, req entities.CancelReservationRequest) (entities.CancelResult, error) {
	method := req.RefundMethod
	if method == "" {
		method = s.defaultRefund
	}
	if _, err := db.ParseRefundMethod(string(method)); err != nil {
		return entities.CancelResult{}, apperrors.Invalid("refund_method", "%v", err)
	}
	var upiID *string
	if method == db.RefundUPI {
		if req.RefundUpiID == "" {
			return entities.CancelResult{}, apperrors.Invalid("refund_upi_id", "is required for upi refunds")
		}
		upiID = &req.RefundUpiID
	}

	res, err := s.store.GetByID(ctx, req.ReservationID)
	if err != nil {
		return entities.CancelResult{}, err
	}
	if res.UserID != req.UserID {
		return entities.CancelResult{}, apperrors.ErrForbidden
	}
	if !res.Status.CanCancel() {
		return entities.CancelResult{}, &apperrors.StateError{Op: "cancel", Current: res.Status.String()}
	}

	now := s.clock.Now()
	if res.StartTime.Sub(now) < minCancelNotice {
		return entities.CancelResult{}, apperrors.Invalid("start_time",
			"reservations can only be cancelled at least %s before they start", minCancelNotice)
	}

	fee := res.TotalAmount.Mul(cancellationFeeRate).Round(2)
	refund := res.TotalAmount.Mul(refundRate).Round(2)

	if err := s.store.MarkCancelled(ctx, res.ID, refund, method, upiID, now); err != nil {
		return entities.CancelResult{}, s.stateConflict(ctx, "cancel", res.ID, err)
	}

	res.Status = db.StatusCancelled
	res.RefundAmount = &refund
	res.RefundMethod = &method
	res.RefundUpiID = upiID
	res.CancelledAt = &now

	if err := s.payments.MarkRefunded(context.WithoutCancel(ctx), res.ID); err != nil {
		log.Printf("reservation %s: payment refund status failed: %v", res.ID, err)
	}
	s.publish(ctx, queue.EventReservationCancelled, res)

	return entities.CancelResult{
		ReservationID:   res.ID,
		RefundAmount:    refund,
		CancellationFee: fee,
		RefundMethod:    method,
		CancelledAt:     now,
	}, nil
}

func (s *ReservationService) CheckIn(ctx context.Context, code string) (entities.CheckInResult, error) {
	res, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return entities.CheckInResult{}, err
	}
	if !res.Status.CanCheckIn() {
		return entities.CheckInResult{}, &apperrors.StateError{Op: "check in", Current: res.Status.String()}
	}

	now := s.clock.Now()
	if err := s.store.MarkCheckedIn(ctx, res.ID, now); err != nil {
		return entities.CheckInResult{}, s.stateConflict(ctx, "check in", res.ID, err)
	}
	res.Status = db.StatusActive
	res.ActualEntryTime = &now
	s.publish(ctx, queue.EventReservationCheckedIn, res)

	return entities.CheckInResult{
		ReservationID:    res.ID,
		ConfirmationCode: res.ConfirmationCode,
		Status:           res.Status,
		ActualEntryTime:  now,
	}, nil
}

func (s *ReservationService) CheckOut(ctx context.Context, code string) (entities.CheckOutResult, error) {
	res, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return entities.CheckOutResult{}, err
	}
	if !res.Status.CanCheckOut() {
		return entities.CheckOutResult{}, &apperrors.StateError{Op: "check out", Current: res.Status.String()}
	}

	exit := s.clock.Now()
	overstayHours, charge := overstayCharge(res, exit)
	surcharge := res.SurchargeAmount.Add(charge)
	total := res.TotalAmount.Add(charge)

	if err := s.store.MarkCompleted(ctx, res.ID, exit, surcharge, total); err != nil {
		return entities.CheckOutResult{}, s.stateConflict(ctx, "check out", res.ID, err)
	}
	res.Status = db.StatusCompleted
	res.ActualExitTime = &exit
	res.SurchargeAmount = surcharge
	res.TotalAmount = total
	s.publish(ctx, queue.EventReservationCompleted, res)

	return entities.CheckOutResult{
		ReservationID:    res.ID,
		ConfirmationCode: res.ConfirmationCode,
		Status:           res.Status,
		ActualExitTime:   exit,
		OverstayHours:    overstayHours,
		OverstayCharge:   charge,
		SurchargeAmount:  surcharge,
		TotalAmount:      total,
	}, nil
}

// overstayCharge bills time past the scheduled end at 1.5x the booked hourly base rate.
func overstayCharge(res db.Reservation, exit time.Time) (hours, charge decimal.Decimal) {
	if !exit.After(res.EndTime) {
		return decimal.Zero, decimal.Zero
	}
	planned := res.PlannedHours()
	if !planned.IsPositive() {
		return decimal.Zero, decimal.Zero
	}
	hours = db.Hours(exit.Sub(res.EndTime))
	hourly := res.BaseAmount.Div(planned)
	return hours, hours.Mul(hourly).Mul(overstayRate).Round(2)
}

// stateConflict turns a lost status race into a StateError carrying the status that won.
func (s *ReservationService) stateConflict(ctx context.Context, op, id string, err error) error {
	if !errors.Is(err, apperrors.ErrStatusChanged) {
		return err
	}
	current, rerr := s.store.GetByID(ctx, id)
	if rerr != nil {
		return fmt.Errorf("%s reservation %s: re-read after conflict: %w", op, id, rerr)
	}
	return &apperrors.StateError{Op: op, Current: current.Status.String()}
}

// QuotePrice prices a prospective booking without reserving anything.
func (s *ReservationService) QuotePrice(ctx context.Context, req entities.PriceQuoteRequest) (entities.PriceQuote, error) {
	if req.SlotID == "" {
		return entities.PriceQuote{}, apperrors.Invalid("slot_id", "is required")
	}
	if !req.StartTime.Before(req.EndTime) {
		return entities.PriceQuote{}, apperrors.Invalid("end_time", "must be after start_time")
	}
	if req.VehicleClass != db.VehicleClassNone && !req.VehicleClass.IsKnown() {
		return entities.PriceQuote{}, apperrors.Invalid("vehicle_class", "unknown vehicle class %q", req.VehicleClass)
	}

	slot, err := s.slots.GetSlot(ctx, req.SlotID)
	if err != nil {
		return entities.PriceQuote{}, err
	}
	breakdown, err := s.price(ctx, slot, req.StartTime, req.EndTime, req.VehicleClass)
	if err != nil {
		return entities.PriceQuote{}, err
	}

	info := SubscriptionInfo{Tier: db.TierFree}
	if req.UserID != "" {
		if info, err = s.subs.Lookup(ctx, req.UserID); err != nil {
			return entities.PriceQuote{}, err
		}
	}
	amounts := engineAmounts(breakdown)
	rate := s.subscriptionRate(info)
	delta := amounts.applySubscription(rate)

	return entities.PriceQuote{
		SlotID:                   slot.ID,
		Breakdown:                breakdown,
		SubscriptionTier:         info.Tier,
		SubscriptionDiscountRate: rate,
		SubscriptionDiscount:     delta,
		TotalAmount:              amounts.total,
	}, nil
}

func (s *ReservationService) GetReservation(ctx context.Context, id string) (db.Reservation, error) {
	return s.store.GetByID(ctx, id)
}

func (s *ReservationService) GetReservationByCode(ctx context.Context, code string) (db.Reservation, error) {
	return s.store.GetByCode(ctx, code)
}

func (s *ReservationService) ListUserReservations(ctx context.Context, userID string) ([]db.Reservation, error) {
	if userID == "" {
		return nil, apperrors.Invalid("user_id", "is required")
	}
	return s.store.ListByUser(ctx, userID)
}

func (s *ReservationService) activeSlot(ctx context.Context, slotID string) (db.Slot, error) {
	slot, err := s.slots.GetSlot(ctx, slotID)
	if err != nil {
		return db.Slot{}, err
	}
	if !slot.Active {
		return db.Slot{}, apperrors.Invalid("slot_id", "slot %s is not accepting reservations", slotID)
	}
	return slot, nil
}

func (s *ReservationService) price(ctx context.Context, slot db.Slot, start, end time.Time, vc db.VehicleClass) (pricing.PriceBreakdown, error) {
	loc, err := s.slots.GetLocation(ctx, slot.LocationID)
	if err != nil {
		return pricing.PriceBreakdown{}, fmt.Errorf("location for slot %s: %w", slot.ID, err)
	}
	return s.engine.Calculate(pricing.PriceInput{
		HourlyRate:             slot.EffectiveHourlyRate(),
		DurationHours:          db.Hours(end.Sub(start)),
		StartTime:              start,
		VehicleClass:           vc,
		AvailabilityPercentage: loc.AvailabilityPercentage(),
	}), nil
}

func (s *ReservationService) subscriptionRate(info SubscriptionInfo) decimal.Decimal {
	if !info.IsActive || info.Tier == db.TierFree {
		return decimal.Zero
	}
	return s.subs.DiscountPercentage(info.Tier)
}

func validateBookingInterval(start, end, now time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperrors.Invalid("start_time", "start and end times are required")
	}
	if !start.Before(end) {
		return apperrors.Invalid("end_time", "must be after start_time")
	}
	if start.Before(now.Add(-pastStartTolerance)) {
		return apperrors.Invalid("start_time", "must not be more than %s in the past", pastStartTolerance)
	}
	return nil
}

type bookingAmounts struct {
	base, discount, surcharge, total decimal.Decimal
}

// clientAmounts stores a caller supplied price as-is.
func clientAmounts(price decimal.Decimal) bookingAmounts {
	p := price.Round(2)
	return bookingAmounts{base: p, discount: decimal.Zero, surcharge: decimal.Zero, total: p}
}

// engineAmounts splits the engine result so that total = base - discount + surcharge.
func engineAmounts(b pricing.PriceBreakdown) bookingAmounts {
	a := bookingAmounts{base: b.BaseAmount, discount: decimal.Zero, surcharge: decimal.Zero, total: b.FinalAmount}
	if b.FinalAmount.GreaterThanOrEqual(b.BaseAmount) {
		a.surcharge = b.FinalAmount.Sub(b.BaseAmount)
	} else {
		a.discount = b.BaseAmount.Sub(b.FinalAmount)
	}
	return a
}

// applySubscription takes the tier discount off the final total and returns the delta.
func (a *bookingAmounts) applySubscription(rate decimal.Decimal) decimal.Decimal {
	if !rate.IsPositive() {
		return decimal.Zero
	}
	delta := a.total.Mul(rate).Round(2)
	newTotal := a.total.Sub(delta)
	if newTotal.IsNegative() {
		newTotal = decimal.Zero
	}
	delta = a.total.Sub(newTotal)
	a.total = newTotal
	a.discount = a.discount.Add(delta)
	return delta
}
