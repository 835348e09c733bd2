// Package inventory owns the live seat counters of event windows.  All
// mutation of available seats goes through SeatInventory, which
// serializes reserve/release per window so that concurrent bookings can
// never oversell a window.  Capacity shortfall is an expected outcome
// reported as a value, not a bug.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// CounterStore gives the inventory access to one window's seat
// counters.  The production implementation is the window repository;
// tests supply an in-memory fake.
type CounterStore interface {
	// SeatCounters reads the available and total seats of a window.
	SeatCounters(ctx context.Context, windowID uint64) (available, total int, err error)
	// SetAvailableSeats writes the available counter of a window.
	SetAvailableSeats(ctx context.Context, windowID uint64, available int) error
}

// ErrInvalidCount is returned when a reserve or release is requested
// with a non-positive seat count.
var ErrInvalidCount = errors.New("seat count must be positive")

// ErrCorrupt marks an internal-consistency failure: a release that
// would push a window past its total capacity.  It means the ledger's
// bookkeeping and the counter disagree, and must never be papered over
// with a clamp.
var ErrCorrupt = errors.New("seat accounting corrupt")

// CapacityError reports that a reservation could not be satisfied.
// Available carries the seats remaining at the time of the check so the
// caller can tell "sold out" apart from "only K left" and retry with a
// smaller request if it wants.
type CapacityError struct {
	Available int
	Requested int
}

func (e *CapacityError) Error() string {
	if e.SoldOut() {
		return "all tickets are filled for this window"
	}
	return fmt.Sprintf("only %d tickets are available, requested %d", e.Available, e.Requested)
}

// SoldOut reports whether the window had no seats left at all.
func (e *CapacityError) SoldOut() bool { return e.Available <= 0 }

// SeatInventory serializes seat-counter updates per window.  Each
// window gets its own lock, created on first use, so operations on
// different windows proceed fully in parallel while two reserves on the
// same window always observe each other's effect.
type SeatInventory struct {
	store CounterStore

	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

// New returns a SeatInventory over the given counter store.
func New(store CounterStore) *SeatInventory {
	if store == nil {
		panic("nil store passed to inventory.New")
	}
	return &SeatInventory{store: store, locks: make(map[uint64]*sync.Mutex)}
}

// lockFor returns the mutex for a window, creating it on first use.
// Locks are never evicted: the map is bounded by the number of windows
// ever booked, which grows far slower than booking traffic.
func (s *SeatInventory) lockFor(windowID uint64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[windowID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[windowID] = l
	}
	return l
}

// Reserve atomically takes count seats from a window.  When fewer than
// count seats remain nothing changes and a *CapacityError is returned
// carrying the actual remaining count.  The critical section holds only
// the counter read and write.
func (s *SeatInventory) Reserve(ctx context.Context, windowID uint64, count int) error {
	if count <= 0 {
		return ErrInvalidCount
	}
	l := s.lockFor(windowID)
	l.Lock()
	defer l.Unlock()

	available, _, err := s.store.SeatCounters(ctx, windowID)
	if err != nil {
		return err
	}
	if available < count {
		return &CapacityError{Available: available, Requested: count}
	}
	return s.store.SetAvailableSeats(ctx, windowID, available-count)
}

// Release atomically returns count seats to a window.  A release that
// would exceed the window's total capacity indicates a bookkeeping bug
// somewhere upstream and fails with ErrCorrupt, leaving the counter
// untouched.
func (s *SeatInventory) Release(ctx context.Context, windowID uint64, count int) error {
	if count <= 0 {
		return ErrInvalidCount
	}
	l := s.lockFor(windowID)
	l.Lock()
	defer l.Unlock()

	available, total, err := s.store.SeatCounters(ctx, windowID)
	if err != nil {
		return err
	}
	if available+count > total {
		return fmt.Errorf("%w: releasing %d seats on window %d would exceed capacity %d (available %d)",
			ErrCorrupt, count, windowID, total, available)
	}
	return s.store.SetAvailableSeats(ctx, windowID, available+count)
}
