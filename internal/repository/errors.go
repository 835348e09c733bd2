// Package repository implements MySQL-backed persistence for events,
// windows, bookings and users.  Sentinel errors defined here let the
// service and handler layers distinguish failure cases without leaking
// database details.
package repository

import "errors"

// ErrEventNotFound is returned when a referenced event does not exist.
var ErrEventNotFound = errors.New("event not found")

// ErrWindowNotFound is returned when a referenced event window does not
// exist.
var ErrWindowNotFound = errors.New("event window not found")

// ErrBookingNotFound is returned when a referenced booking does not
// exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrEmailExists is returned when registering with an email that is
// already taken.
var ErrEmailExists = errors.New("email already exists")
