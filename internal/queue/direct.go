package queue

import (
	"context"
	"errors"
	"log"
	"time"
)

// DirectPublisher hands events to an in-process handler on a fresh goroutine. It is used when
// no broker is configured.
type DirectPublisher struct {
	handler Handler
	timeout time.Duration
}

func NewDirectPublisher(h Handler) *DirectPublisher {
	return &DirectPublisher{handler: h, timeout: 30 * time.Second}
}

func (p *DirectPublisher) Publish(_ context.Context, ev ReservationEvent) error {
	if p.handler == nil {
		return nil
	}
	go func() {
		// Detached from the request: the response may already be written.
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.handler(ctx, ev); err != nil {
			log.Printf("event %s for reservation %s: handler failed: %v", ev.Type, ev.ReservationID, err)
		}
	}()
	return nil
}

func (p *DirectPublisher) Close() error { return nil }

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev ReservationEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
