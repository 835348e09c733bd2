// Package ledger coordinates the lifecycle of bookings: it pairs every
// booking row with a matching seat reservation and keeps the two in
// step, compensating the counter when persistence fails and returning
// seats when a booking is cancelled.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/event-window-booking/internal/model"
)

// Inventory is the seat-counter side of a booking.  Implemented by
// inventory.SeatInventory.
type Inventory interface {
	Reserve(ctx context.Context, windowID uint64, count int) error
	Release(ctx context.Context, windowID uint64, count int) error
}

// WindowStore resolves windows for validation.  Implemented by
// repository.WindowRepo.
type WindowStore interface {
	GetByID(ctx context.Context, id uint64) (model.EventWindow, error)
}

// BookingStore persists booking rows.  Implemented by
// repository.BookingRepo.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (model.Booking, error)
	MarkCancelled(ctx context.Context, id uint64) (bool, error)
	ListByUser(ctx context.Context, userID, eventID uint64) ([]model.Booking, error)
	ListByEvent(ctx context.Context, eventID uint64) ([]model.Booking, error)
}

var (
	// ErrInvalidTicketCount rejects bookings for zero or negative
	// tickets before any counter is touched.
	ErrInvalidTicketCount = errors.New("ticket count must be positive")

	// ErrWindowMismatch is returned when the requested window does not
	// belong to the requested event.
	ErrWindowMismatch = errors.New("window does not belong to this event")

	// ErrNotOwner is returned when a user tries to cancel a booking
	// they do not own.
	ErrNotOwner = errors.New("booking belongs to another user")

	// ErrAlreadyCancelled is returned when cancelling a booking that is
	// not active.  Cancellation is one-way and never repeats its seat
	// release.
	ErrAlreadyCancelled = errors.New("booking is already cancelled")

	// ErrInconsistent marks a failure that left seat counters and
	// booking rows out of step.  It is surfaced, never hidden, so the
	// operator can reconcile.
	ErrInconsistent = errors.New("booking ledger inconsistent")
)

// BookingLedger creates and cancels bookings, keeping the seat
// inventory and the booking rows consistent with each other.
type BookingLedger struct {
	inventory Inventory
	windows   WindowStore
	bookings  BookingStore
}

// New returns a BookingLedger over the given collaborators.
func New(inv Inventory, windows WindowStore, bookings BookingStore) *BookingLedger {
	if inv == nil || windows == nil || bookings == nil {
		panic("nil dependency passed to ledger.New")
	}
	return &BookingLedger{inventory: inv, windows: windows, bookings: bookings}
}

// CreateBooking reserves ticketCount seats on the window and records an
// active booking for the user.  The reservation happens first; if the
// booking row cannot be written afterwards the seats are released
// again so a failed create never leaks capacity.
func (l *BookingLedger) CreateBooking(ctx context.Context, userID, eventID, windowID uint64, ticketCount int) (model.Booking, error) {
	if ticketCount <= 0 {
		return model.Booking{}, ErrInvalidTicketCount
	}

	window, err := l.windows.GetByID(ctx, windowID)
	if err != nil {
		return model.Booking{}, err
	}
	if window.EventID != eventID {
		return model.Booking{}, ErrWindowMismatch
	}

	if err := l.inventory.Reserve(ctx, windowID, ticketCount); err != nil {
		return model.Booking{}, err
	}

	booking := model.Booking{
		EventID:     eventID,
		WindowID:    windowID,
		UserID:      userID,
		TicketCount: ticketCount,
		Status:      model.BookingActive,
	}
	if err := l.bookings.Create(ctx, &booking); err != nil {
		// Compensate on a context that survives caller cancellation,
		// otherwise the seats taken above would stay lost.
		release := context.WithoutCancel(ctx)
		if relErr := l.inventory.Release(release, windowID, ticketCount); relErr != nil {
			return model.Booking{}, fmt.Errorf("%w: booking insert failed (%v) and seat release failed: %v",
				ErrInconsistent, err, relErr)
		}
		return model.Booking{}, err
	}
	return booking, nil
}

// CancelBooking flips an active booking to cancelled and returns its
// seats to the window.  Only the owner may cancel.  The conditional
// status update guarantees that when two cancels race exactly one
// releases the seats.
func (l *BookingLedger) CancelBooking(ctx context.Context, userID, bookingID uint64) (model.Booking, error) {
	booking, err := l.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if booking.UserID != userID {
		return model.Booking{}, ErrNotOwner
	}
	if booking.Status != model.BookingActive {
		return model.Booking{}, ErrAlreadyCancelled
	}

	won, err := l.bookings.MarkCancelled(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if !won {
		// Someone else cancelled between our read and the update.
		return model.Booking{}, ErrAlreadyCancelled
	}

	release := context.WithoutCancel(ctx)
	if err := l.inventory.Release(release, booking.WindowID, booking.TicketCount); err != nil {
		// The row is cancelled but the seats did not come back.
		return model.Booking{}, fmt.Errorf("%w: booking %d cancelled but seat release failed: %v",
			ErrInconsistent, bookingID, err)
	}

	booking.Status = model.BookingCancelled
	return booking, nil
}

// GetBooking returns one booking if the user owns it.
func (l *BookingLedger) GetBooking(ctx context.Context, userID, bookingID uint64) (model.Booking, error) {
	booking, err := l.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if booking.UserID != userID {
		return model.Booking{}, ErrNotOwner
	}
	return booking, nil
}

// ListByUser returns a user's bookings, optionally narrowed to one
// event with a non-zero eventID.  Cancelled bookings are included.
func (l *BookingLedger) ListByUser(ctx context.Context, userID, eventID uint64) ([]model.Booking, error) {
	return l.bookings.ListByUser(ctx, userID, eventID)
}

// ListByEvent returns every booking of an event, cancelled ones
// included.
func (l *BookingLedger) ListByEvent(ctx context.Context, eventID uint64) ([]model.Booking, error) {
	return l.bookings.ListByEvent(ctx, eventID)
}
