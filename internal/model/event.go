package model

import "time"

// Event is a bookable event published by an administrator.  An event
// carries one or more EventWindows, each with its own seat capacity.
// The owner is fixed at creation and never changes.
//
// Fields:
//  ID          – primary key identifier.
//  OwnerID     – user ID of the administrator who created the event.
//  Name        – short display name.
//  Description – free-form description.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Event struct {
	ID          uint64    // events.id
	OwnerID     uint64    // events.owner_id
	Name        string    // events.name
	Description string    // events.description
	CreatedAt   time.Time // events.created_at
	UpdatedAt   time.Time // events.updated_at
}
