package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-window-booking/internal/inventory"
	"github.com/iliyamo/event-window-booking/internal/model"
	"github.com/iliyamo/event-window-booking/internal/repository"
)

// memStore backs windows, seat counters and bookings in memory.  It
// satisfies WindowStore, BookingStore and inventory.CounterStore so the
// ledger can be wired to a real SeatInventory in tests.
type memStore struct {
	mu         sync.Mutex
	windows    map[uint64]model.EventWindow
	bookings   map[uint64]model.Booking
	nextID     uint64
	failCreate bool
}

func newMemStore() *memStore {
	return &memStore{
		windows:  make(map[uint64]model.EventWindow),
		bookings: make(map[uint64]model.Booking),
	}
}

func (m *memStore) addWindow(id, eventID uint64, available, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windows[id] = model.EventWindow{
		ID: id, EventID: eventID,
		StartTime: "09:00", EndTime: "12:00",
		TotalSeats: total, AvailableSeats: available,
	}
}

func (m *memStore) GetByID(_ context.Context, id uint64) (model.EventWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[id]
	if !ok {
		return model.EventWindow{}, repository.ErrWindowNotFound
	}
	return w, nil
}

func (m *memStore) SeatCounters(_ context.Context, windowID uint64) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[windowID]
	if !ok {
		return 0, 0, repository.ErrWindowNotFound
	}
	return w.AvailableSeats, w.TotalSeats, nil
}

func (m *memStore) SetAvailableSeats(_ context.Context, windowID uint64, available int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[windowID]
	if !ok {
		return repository.ErrWindowNotFound
	}
	w.AvailableSeats = available
	m.windows[windowID] = w
	return nil
}

func (m *memStore) available(windowID uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.windows[windowID].AvailableSeats
}

func (m *memStore) Create(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate {
		return errors.New("insert failed")
	}
	m.nextID++
	b.ID = m.nextID
	m.bookings[b.ID] = *b
	return nil
}

func (m *memStore) BookingByID(_ context.Context, id uint64) (model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return model.Booking{}, repository.ErrBookingNotFound
	}
	return b, nil
}

func (m *memStore) MarkCancelled(_ context.Context, id uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != model.BookingActive {
		return false, nil
	}
	b.Status = model.BookingCancelled
	m.bookings[id] = b
	return true, nil
}

func (m *memStore) ListByUser(_ context.Context, userID, eventID uint64) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Booking, 0)
	for id := uint64(1); id <= m.nextID; id++ {
		b, ok := m.bookings[id]
		if ok && b.UserID == userID && (eventID == 0 || b.EventID == eventID) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) ListByEvent(_ context.Context, eventID uint64) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Booking, 0)
	for id := uint64(1); id <= m.nextID; id++ {
		if b, ok := m.bookings[id]; ok && b.EventID == eventID {
			out = append(out, b)
		}
	}
	return out, nil
}

// bookingStore adapts memStore's BookingByID to the GetByID name the
// BookingStore interface uses, leaving GetByID free for WindowStore.
type bookingStore struct{ *memStore }

func (s bookingStore) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	return s.BookingByID(ctx, id)
}

func newLedger(m *memStore) *BookingLedger {
	return New(inventory.New(m), m, bookingStore{m})
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("reserves seats and records an active booking", func(t *testing.T) {
		m := newMemStore()
		m.addWindow(10, 1, 100, 100)
		l := newLedger(m)

		b, err := l.CreateBooking(ctx, 5, 1, 10, 4)
		require.NoError(t, err)
		assert.Equal(t, model.BookingActive, b.Status)
		assert.Equal(t, 4, b.TicketCount)
		assert.NotZero(t, b.ID)
		assert.Equal(t, 96, m.available(10))
	})

	t.Run("non-positive ticket count", func(t *testing.T) {
		m := newMemStore()
		m.addWindow(10, 1, 100, 100)
		l := newLedger(m)

		_, err := l.CreateBooking(ctx, 5, 1, 10, 0)
		assert.ErrorIs(t, err, ErrInvalidTicketCount)
		assert.Equal(t, 100, m.available(10))
	})

	t.Run("unknown window", func(t *testing.T) {
		m := newMemStore()
		l := newLedger(m)

		_, err := l.CreateBooking(ctx, 5, 1, 99, 2)
		assert.ErrorIs(t, err, repository.ErrWindowNotFound)
	})

	t.Run("window of another event", func(t *testing.T) {
		m := newMemStore()
		m.addWindow(10, 2, 100, 100)
		l := newLedger(m)

		_, err := l.CreateBooking(ctx, 5, 1, 10, 2)
		assert.ErrorIs(t, err, ErrWindowMismatch)
		assert.Equal(t, 100, m.available(10))
	})

	t.Run("capacity shortfall carries the remaining count", func(t *testing.T) {
		m := newMemStore()
		m.addWindow(10, 1, 3, 100)
		l := newLedger(m)

		_, err := l.CreateBooking(ctx, 5, 1, 10, 5)
		var capErr *inventory.CapacityError
		require.ErrorAs(t, err, &capErr)
		assert.Equal(t, 3, capErr.Available)
		assert.False(t, capErr.SoldOut())
		assert.Equal(t, 3, m.available(10), "failed booking must not consume seats")
	})

	t.Run("insert failure releases the reserved seats", func(t *testing.T) {
		m := newMemStore()
		m.addWindow(10, 1, 100, 100)
		m.failCreate = true
		l := newLedger(m)

		_, err := l.CreateBooking(ctx, 5, 1, 10, 4)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInconsistent)
		assert.Equal(t, 100, m.available(10), "compensation must return the seats")
		assert.Empty(t, m.bookings)
	})
}

// failingRelease wraps an Inventory and fails every Release, forcing
// the compensation path itself to fail.
type failingRelease struct{ Inventory }

func (f failingRelease) Release(context.Context, uint64, int) error {
	return errors.New("release failed")
}

func TestCreateBookingCompensationFailure(t *testing.T) {
	m := newMemStore()
	m.addWindow(10, 1, 100, 100)
	m.failCreate = true
	l := New(failingRelease{inventory.New(m)}, m, bookingStore{m})

	_, err := l.CreateBooking(context.Background(), 5, 1, 10, 4)
	assert.ErrorIs(t, err, ErrInconsistent)
}

// A release that fails after the status flip must surface loudly: the
// booking stays cancelled, the seats stay out, and the caller gets the
// consistency error instead of a silent success.
func TestCancelBookingReleaseFailure(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	m.addWindow(10, 1, 100, 100)
	// failingRelease delegates Reserve, so creating still works
	l := New(failingRelease{inventory.New(m)}, m, bookingStore{m})

	b, err := l.CreateBooking(ctx, 5, 1, 10, 4)
	require.NoError(t, err)

	_, err = l.CancelBooking(ctx, 5, b.ID)
	require.ErrorIs(t, err, ErrInconsistent)

	stored, err := bookingStore{m}.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, stored.Status)
	assert.Equal(t, 96, m.available(10), "seats were not returned and that must be visible")
}

func TestCancelBooking(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*memStore, *BookingLedger, model.Booking) {
		m := newMemStore()
		m.addWindow(10, 1, 100, 100)
		l := newLedger(m)
		b, err := l.CreateBooking(ctx, 5, 1, 10, 4)
		require.NoError(t, err)
		return m, l, b
	}

	t.Run("returns seats and flips status", func(t *testing.T) {
		m, l, b := setup(t)

		cancelled, err := l.CancelBooking(ctx, 5, b.ID)
		require.NoError(t, err)
		assert.Equal(t, model.BookingCancelled, cancelled.Status)
		assert.Equal(t, 100, m.available(10))
	})

	t.Run("only the owner may cancel", func(t *testing.T) {
		m, l, b := setup(t)

		_, err := l.CancelBooking(ctx, 6, b.ID)
		assert.ErrorIs(t, err, ErrNotOwner)
		assert.Equal(t, 96, m.available(10), "foreign cancel must not touch seats")
	})

	t.Run("second cancel is rejected and releases nothing", func(t *testing.T) {
		m, l, b := setup(t)

		_, err := l.CancelBooking(ctx, 5, b.ID)
		require.NoError(t, err)

		_, err = l.CancelBooking(ctx, 5, b.ID)
		assert.ErrorIs(t, err, ErrAlreadyCancelled)
		assert.Equal(t, 100, m.available(10), "seats must come back exactly once")
	})

	t.Run("unknown booking", func(t *testing.T) {
		_, l, _ := setup(t)

		_, err := l.CancelBooking(ctx, 5, 999)
		assert.ErrorIs(t, err, repository.ErrBookingNotFound)
	})
}

// TestConcurrentCancels races many cancels of one booking and checks
// that exactly one wins and the seats are released exactly once.
func TestConcurrentCancels(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	m.addWindow(10, 1, 100, 100)
	l := newLedger(m)

	b, err := l.CreateBooking(ctx, 5, 1, 10, 4)
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		wins int64
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.CancelBooking(context.Background(), 5, b.ID)
			if err == nil {
				atomic.AddInt64(&wins, 1)
				return
			}
			if !errors.Is(err, ErrAlreadyCancelled) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins, "exactly one cancel wins")
	assert.Equal(t, 100, m.available(10), "seats released exactly once")
}

// TestConcurrentLastSeats races bookings for the final seats of a
// window; the seats handed out must never exceed what was available.
func TestConcurrentLastSeats(t *testing.T) {
	const seatsLeft = 5

	m := newMemStore()
	m.addWindow(10, 1, seatsLeft, 100)
	l := newLedger(m)

	var (
		wg      sync.WaitGroup
		granted int64
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			_, err := l.CreateBooking(context.Background(), user, 1, 10, 2)
			if err == nil {
				atomic.AddInt64(&granted, 2)
				return
			}
			var capErr *inventory.CapacityError
			if !errors.As(err, &capErr) {
				t.Errorf("unexpected error: %v", err)
			}
		}(uint64(i + 1))
	}
	wg.Wait()

	assert.LessOrEqual(t, granted, int64(seatsLeft))
	assert.Equal(t, seatsLeft-int(granted), m.available(10))
}

func TestGetBooking(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	m.addWindow(10, 1, 100, 100)
	l := newLedger(m)

	b, err := l.CreateBooking(ctx, 5, 1, 10, 2)
	require.NoError(t, err)

	got, err := l.GetBooking(ctx, 5, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = l.GetBooking(ctx, 6, b.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestListBookings(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	m.addWindow(10, 1, 100, 100)
	m.addWindow(20, 2, 100, 100)
	l := newLedger(m)

	_, err := l.CreateBooking(ctx, 5, 1, 10, 2)
	require.NoError(t, err)
	b2, err := l.CreateBooking(ctx, 5, 2, 20, 3)
	require.NoError(t, err)
	_, err = l.CreateBooking(ctx, 6, 1, 10, 1)
	require.NoError(t, err)

	// cancelled bookings stay listed
	_, err = l.CancelBooking(ctx, 5, b2.ID)
	require.NoError(t, err)

	all, err := l.ListByUser(ctx, 5, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := l.ListByUser(ctx, 5, 2)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, model.BookingCancelled, one[0].Status)

	byEvent, err := l.ListByEvent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, byEvent, 2)
}
