package model

import "time"

// EventWindow is a time slot within an event with a finite number of
// seats.  StartTime and EndTime are times of day in "HH:MM" form.
// TotalSeats is fixed at creation; AvailableSeats is the live counter
// owned exclusively by the seat inventory and always satisfies
// 0 <= AvailableSeats <= TotalSeats.
//
// Fields:
//  ID             – primary key identifier.
//  EventID        – owning event; many windows per event.
//  StartTime      – start of the window ("HH:MM"), strictly before EndTime.
//  EndTime        – end of the window ("HH:MM").
//  TotalSeats     – capacity of the window, immutable after creation.
//  AvailableSeats – seats not held by an active booking.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type EventWindow struct {
	ID             uint64    // event_windows.id
	EventID        uint64    // event_windows.event_id
	StartTime      string    // event_windows.start_time
	EndTime        string    // event_windows.end_time
	TotalSeats     int       // event_windows.total_seats
	AvailableSeats int       // event_windows.available_seats
	CreatedAt      time.Time // event_windows.created_at
	UpdatedAt      time.Time // event_windows.updated_at
}
