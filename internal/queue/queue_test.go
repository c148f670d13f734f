package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartpark/internal/db"
)

func sampleReservation() db.Reservation {
	start := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	refund := decimal.RequireFromString("180")
	return db.Reservation{
		ID:               "res-1",
		UserID:           "user-1",
		SlotID:           "slot-9",
		ConfirmationCode: "PK-ABCDEFGHJK",
		Status:           db.StatusCancelled,
		VehiclePlate:     "MH12AB1234",
		StartTime:        start,
		EndTime:          start.Add(2 * time.Hour),
		TotalAmount:      decimal.RequireFromString("200"),
		RefundAmount:     &refund,
	}
}

func TestNewReservationEvent(t *testing.T) {
	now := time.Date(2025, 3, 4, 9, 0, 0, 0, time.FixedZone("X", 3600))
	ev := NewReservationEvent(EventReservationCancelled, sampleReservation(), now)

	assert.Equal(t, EventReservationCancelled, ev.Type)
	assert.Equal(t, "cancelled", ev.Status)
	assert.Equal(t, "200.00", ev.TotalAmount)
	assert.Equal(t, "180.00", ev.RefundAmount)
	assert.Equal(t, time.UTC, ev.OccurredAt.Location())

	r := sampleReservation()
	r.RefundAmount = nil
	assert.Empty(t, NewReservationEvent(EventReservationConfirmed, r, now).RefundAmount)
}

func TestKafkaPublisher_KeysBySlot(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "slot-9" {
			return errors.New("unexpected key " + string(key))
		}
		if msg.Topic != "reservations" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		return nil
	})

	p := newKafkaPublisher(producer, "reservations")
	ev := NewReservationEvent(EventReservationConfirmed, sampleReservation(), time.Now())
	require.NoError(t, p.Publish(context.Background(), ev))
	require.NoError(t, p.Close())
}

func TestKafkaPublisher_PropagatesFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := newKafkaPublisher(producer, "reservations")
	err := p.Publish(context.Background(), NewReservationEvent(EventReservationConfirmed, sampleReservation(), time.Now()))
	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	_ = p.Close()
}

func TestDirectPublisher_DeliversAsynchronously(t *testing.T) {
	got := make(chan ReservationEvent, 1)
	p := NewDirectPublisher(func(_ context.Context, ev ReservationEvent) error {
		got <- ev
		return nil
	})

	ev := NewReservationEvent(EventReservationConfirmed, sampleReservation(), time.Now())
	require.NoError(t, p.Publish(context.Background(), ev))

	select {
	case delivered := <-got:
		assert.Equal(t, ev, delivered)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ReservationEvent
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, ev ReservationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

func TestFanout_PublishesToAllAndJoinsErrors(t *testing.T) {
	ok := &recordingPublisher{}
	failing := &recordingPublisher{err: errors.New("broker down")}
	f := Fanout{failing, ok}

	err := f.Publish(context.Background(), NewReservationEvent(EventReservationCompleted, sampleReservation(), time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Len(t, ok.events, 1)
	assert.Len(t, failing.events, 1)
	assert.NoError(t, f.Close())
}

func TestReservationEvent_JSONShape(t *testing.T) {
	ev := NewReservationEvent(EventReservationConfirmed, sampleReservation(), time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC))
	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "reservation.confirmed", m["type"])
	assert.Equal(t, "PK-ABCDEFGHJK", m["confirmation_code"])
	assert.Equal(t, "2025-03-04T10:00:00Z", m["start_time"])
}
