package model

import "time"

// Booking status values.  A booking starts ACTIVE and may transition to
// CANCELLED exactly once; CANCELLED is terminal.  Cancelled bookings are
// never deleted so refund accounting and history survive cancellation.
const (
	BookingActive    = "ACTIVE"
	BookingCancelled = "CANCELLED"
)

// Booking records a user's ticket reservation against an event window.
// EventID is denormalized for query convenience; it always equals the
// window's event.
//
// Fields:
//  ID          – primary key identifier.
//  EventID     – event the window belongs to.
//  WindowID    – window the tickets are reserved on.
//  UserID      – booking owner; only the owner may cancel.
//  TicketCount – number of seats reserved, always positive.
//  Status      – BookingActive or BookingCancelled.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Booking struct {
	ID          uint64    // bookings.id
	EventID     uint64    // bookings.event_id
	WindowID    uint64    // bookings.window_id
	UserID      uint64    // bookings.user_id
	TicketCount int       // bookings.ticket_count
	Status      string    // bookings.status
	CreatedAt   time.Time // bookings.created_at
	UpdatedAt   time.Time // bookings.updated_at
}
