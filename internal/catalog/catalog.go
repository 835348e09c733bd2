// Package catalog owns events and their windows: creation with
// validated schedules, metadata updates, reads and the explicit cascade
// delete.  It never touches the live seat counter beyond seeding
// available = total at window creation.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/event-window-booking/internal/model"
)

// EventStore persists events.  Implemented by repository.EventRepo.
type EventStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id uint64) (model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	UpdateMeta(ctx context.Context, id uint64, name, description string) error
	DeleteCascade(ctx context.Context, id uint64) error
}

// WindowStore persists event windows.  Implemented by
// repository.WindowRepo.
type WindowStore interface {
	Create(ctx context.Context, w *model.EventWindow) error
	CreateBulk(ctx context.Context, windows []model.EventWindow) error
	ListByEvent(ctx context.Context, eventID uint64) ([]model.EventWindow, error)
}

// Validation failures.  ErrInvalidWindow wraps the per-spec detail so
// handlers can map the whole family to one response class while keeping
// the message.
var (
	ErrNameRequired  = errors.New("event name is required")
	ErrNameTooLong   = errors.New("event name exceeds 255 characters")
	ErrNoWindows     = errors.New("at least one window is required")
	ErrInvalidWindow = errors.New("invalid window")
)

const timeLayout = "15:04"

// WindowSpec describes one window to create: times of day in "HH:MM"
// form and a positive seat capacity.
type WindowSpec struct {
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	TotalSeats int    `json:"total_seats"`
}

func (s WindowSpec) validate() error {
	start, err := time.Parse(timeLayout, strings.TrimSpace(s.StartTime))
	if err != nil {
		return fmt.Errorf("%w: start_time %q is not HH:MM", ErrInvalidWindow, s.StartTime)
	}
	end, err := time.Parse(timeLayout, strings.TrimSpace(s.EndTime))
	if err != nil {
		return fmt.Errorf("%w: end_time %q is not HH:MM", ErrInvalidWindow, s.EndTime)
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: start time %s should be less than end time %s",
			ErrInvalidWindow, s.StartTime, s.EndTime)
	}
	if s.TotalSeats <= 0 {
		return fmt.Errorf("%w: total_seats must be positive, got %d", ErrInvalidWindow, s.TotalSeats)
	}
	return nil
}

func (s WindowSpec) toWindow(eventID uint64) model.EventWindow {
	return model.EventWindow{
		EventID:        eventID,
		StartTime:      strings.TrimSpace(s.StartTime),
		EndTime:        strings.TrimSpace(s.EndTime),
		TotalSeats:     s.TotalSeats,
		AvailableSeats: s.TotalSeats, // every seat starts free
	}
}

// EventCatalog coordinates event and window persistence.
type EventCatalog struct {
	events  EventStore
	windows WindowStore
}

// New returns an EventCatalog over the given stores.
func New(events EventStore, windows WindowStore) *EventCatalog {
	if events == nil || windows == nil {
		panic("nil store passed to catalog.New")
	}
	return &EventCatalog{events: events, windows: windows}
}

func validateMeta(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	if len(name) > 255 {
		return ErrNameTooLong
	}
	return nil
}

// CreateEvent validates every window spec up front and then creates the
// event and all its windows in one transaction: either everything
// lands or nothing does.
func (c *EventCatalog) CreateEvent(ctx context.Context, ownerID uint64, name, description string, specs []WindowSpec) (model.Event, []model.EventWindow, error) {
	if err := validateMeta(name); err != nil {
		return model.Event{}, nil, err
	}
	if len(specs) == 0 {
		return model.Event{}, nil, ErrNoWindows
	}
	for _, s := range specs {
		if err := s.validate(); err != nil {
			return model.Event{}, nil, err
		}
	}

	event := model.Event{OwnerID: ownerID, Name: strings.TrimSpace(name), Description: description}
	err := c.events.WithTx(ctx, func(ctx context.Context) error {
		if err := c.events.Create(ctx, &event); err != nil {
			return err
		}
		windows := make([]model.EventWindow, 0, len(specs))
		for _, s := range specs {
			windows = append(windows, s.toWindow(event.ID))
		}
		return c.windows.CreateBulk(ctx, windows)
	})
	if err != nil {
		return model.Event{}, nil, err
	}

	windows, err := c.windows.ListByEvent(ctx, event.ID)
	if err != nil {
		return model.Event{}, nil, err
	}
	return event, windows, nil
}

// AddWindow validates and creates one additional window on an existing
// event.
func (c *EventCatalog) AddWindow(ctx context.Context, eventID uint64, spec WindowSpec) (model.EventWindow, error) {
	if err := spec.validate(); err != nil {
		return model.EventWindow{}, err
	}
	if _, err := c.events.GetByID(ctx, eventID); err != nil {
		return model.EventWindow{}, err
	}
	window := spec.toWindow(eventID)
	if err := c.windows.Create(ctx, &window); err != nil {
		return model.EventWindow{}, err
	}
	return window, nil
}

// UpdateEvent changes an event's name and description only.  Window
// data submitted alongside a metadata update is deliberately ignored,
// matching the established API behaviour; windows are edited through
// their own operations.
func (c *EventCatalog) UpdateEvent(ctx context.Context, eventID uint64, name, description string) (model.Event, error) {
	if err := validateMeta(name); err != nil {
		return model.Event{}, err
	}
	if err := c.events.UpdateMeta(ctx, eventID, strings.TrimSpace(name), description); err != nil {
		return model.Event{}, err
	}
	return c.events.GetByID(ctx, eventID)
}

// DeleteEvent removes the event with its windows and bookings as one
// unit.
func (c *EventCatalog) DeleteEvent(ctx context.Context, eventID uint64) error {
	return c.events.DeleteCascade(ctx, eventID)
}

// GetEvent returns one event.
func (c *EventCatalog) GetEvent(ctx context.Context, eventID uint64) (model.Event, error) {
	return c.events.GetByID(ctx, eventID)
}

// ListEvents returns all events.
func (c *EventCatalog) ListEvents(ctx context.Context) ([]model.Event, error) {
	return c.events.List(ctx)
}

// ListWindows returns the windows of an event, verifying the event
// exists first so an unknown ID is a 404 and not an empty list.
func (c *EventCatalog) ListWindows(ctx context.Context, eventID uint64) ([]model.EventWindow, error) {
	if _, err := c.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return c.windows.ListByEvent(ctx, eventID)
}
