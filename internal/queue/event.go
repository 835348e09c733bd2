// Package queue defines message payloads exchanged over the message broker.
package queue

// Booking lifecycle actions carried in BookingEvent.Action.
const (
	ActionCreated   = "created"
	ActionCancelled = "cancelled"
)

// BookingEvent is published whenever a booking is created or
// cancelled.  It carries enough context for downstream consumers to
// log, notify, or feed analytics without querying the primary
// database.
type BookingEvent struct {
	Action      string `json:"action"`
	BookingID   uint64 `json:"booking_id"`
	UserID      uint64 `json:"user_id"`
	EventID     uint64 `json:"event_id"`
	EventName   string `json:"event_name"`
	WindowID    uint64 `json:"window_id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	TicketCount int    `json:"ticket_count"`
	OccurredAt  string `json:"occurred_at"`
}
