// Package lock serializes reservation admission per parking slot.
package lock

import (
	"context"
	"sync"
)

// SlotLocker grants exclusive access to a slot for the duration of an availability re-check and
// insert. The returned unlock func is safe to call more than once.
type SlotLocker interface {
	Lock(ctx context.Context, slotID string) (unlock func(), err error)
}

// LocalLocker is an in-process SlotLocker keyed by slot id. Entries are dropped once no caller
// holds or waits on them.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slotEntry
}

type slotEntry struct {
	sem  chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slotEntry)}
}

func (l *LocalLocker) Lock(ctx context.Context, slotID string) (func(), error) {
	l.mu.Lock()
	e, ok := l.slots[slotID]
	if !ok {
		e = &slotEntry{sem: make(chan struct{}, 1)}
		l.slots[slotID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(slotID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.release(slotID, e)
		})
	}, nil
}

func (l *LocalLocker) release(slotID string, e *slotEntry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.slots, slotID)
	}
	l.mu.Unlock()
}

// held reports how many slots currently have holders or waiters.
func (l *LocalLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
