package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-window-booking/internal/catalog"
	"github.com/iliyamo/event-window-booking/internal/model"
	"github.com/iliyamo/event-window-booking/internal/repository"
)

// eventCatalog is the slice of the catalog service the event endpoints
// need.  *catalog.EventCatalog implements it; tests swap in fakes.
type eventCatalog interface {
	CreateEvent(ctx context.Context, ownerID uint64, name, description string, specs []catalog.WindowSpec) (model.Event, []model.EventWindow, error)
	AddWindow(ctx context.Context, eventID uint64, spec catalog.WindowSpec) (model.EventWindow, error)
	UpdateEvent(ctx context.Context, eventID uint64, name, description string) (model.Event, error)
	DeleteEvent(ctx context.Context, eventID uint64) error
	GetEvent(ctx context.Context, eventID uint64) (model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	ListWindows(ctx context.Context, eventID uint64) ([]model.EventWindow, error)
}

// bookingReader serves the joined booking projections.  Implemented by
// *repository.BookingRepo.
type bookingReader interface {
	DetailByID(ctx context.Context, id uint64) (repository.BookingDetail, error)
	ListDetailsByUser(ctx context.Context, userID, eventID uint64) ([]repository.BookingDetail, error)
	ListDetailsByEvent(ctx context.Context, eventID uint64) ([]repository.BookingDetail, error)
}

// EventHandler serves the event and window management endpoints.
type EventHandler struct {
	Catalog  eventCatalog
	Bookings bookingReader
}

func NewEventHandler(cat eventCatalog, bookings bookingReader) *EventHandler {
	if cat == nil || bookings == nil {
		panic("nil dependency passed to NewEventHandler")
	}
	return &EventHandler{Catalog: cat, Bookings: bookings}
}

// ----- DTOs -----

type createEventReq struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Windows     []catalog.WindowSpec `json:"windows"`
}

type updateEventReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Window payloads submitted here are ignored; windows have their
	// own endpoints.
}

type eventResp struct {
	ID          uint64       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"created_at"`
	Windows     []windowResp `json:"windows,omitempty"`
}

type windowResp struct {
	ID             uint64 `json:"id"`
	EventID        uint64 `json:"event_id"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	TotalSeats     int    `json:"total_seats"`
	AvailableSeats int    `json:"available_seats"`
}

func toEventResp(e model.Event, windows []model.EventWindow) eventResp {
	resp := eventResp{ID: e.ID, Name: e.Name, Description: e.Description, CreatedAt: e.CreatedAt}
	for _, w := range windows {
		resp.Windows = append(resp.Windows, toWindowResp(w))
	}
	return resp
}

func toWindowResp(w model.EventWindow) windowResp {
	return windowResp{
		ID: w.ID, EventID: w.EventID,
		StartTime: w.StartTime, EndTime: w.EndTime,
		TotalSeats: w.TotalSeats, AvailableSeats: w.AvailableSeats,
	}
}

// Create makes an event together with all its windows in one shot.
func (h *EventHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	event, windows, err := h.Catalog.CreateEvent(ctx, uid, req.Name, req.Description, req.Windows)
	if err != nil {
		return eventError(c, err)
	}
	return c.JSON(http.StatusCreated, toEventResp(event, windows))
}

// Update changes event metadata only.
func (h *EventHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req updateEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	event, err := h.Catalog.UpdateEvent(ctx, id, req.Name, req.Description)
	if err != nil {
		return eventError(c, err)
	}
	return c.JSON(http.StatusOK, toEventResp(event, nil))
}

// Delete removes an event with its windows and bookings.
func (h *EventHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Catalog.DeleteEvent(ctx, id); err != nil {
		return eventError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "event deleted"})
}

// Get returns one event with its windows.
func (h *EventHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	event, err := h.Catalog.GetEvent(ctx, id)
	if err != nil {
		return eventError(c, err)
	}
	windows, err := h.Catalog.ListWindows(ctx, id)
	if err != nil {
		return eventError(c, err)
	}
	return c.JSON(http.StatusOK, toEventResp(event, windows))
}

// List returns all events.
func (h *EventHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Catalog.ListEvents(ctx)
	if err != nil {
		return eventError(c, err)
	}
	out := make([]eventResp, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResp(e, nil))
	}
	return c.JSON(http.StatusOK, echo.Map{"events": out})
}

// AddWindow appends one window to an existing event.
func (h *EventHandler) AddWindow(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var spec catalog.WindowSpec
	if err := c.Bind(&spec); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	window, err := h.Catalog.AddWindow(ctx, id, spec)
	if err != nil {
		return eventError(c, err)
	}
	return c.JSON(http.StatusCreated, toWindowResp(window))
}

// ListWindows returns the windows of an event with live availability.
func (h *EventHandler) ListWindows(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	windows, err := h.Catalog.ListWindows(ctx, id)
	if err != nil {
		return eventError(c, err)
	}
	out := make([]windowResp, 0, len(windows))
	for _, w := range windows {
		out = append(out, toWindowResp(w))
	}
	return c.JSON(http.StatusOK, echo.Map{"windows": out})
}

// ListBookings returns every booking of an event, for organizers.
func (h *EventHandler) ListBookings(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// verify the event exists so unknown IDs are 404, not empty lists
	if _, err := h.Catalog.GetEvent(ctx, id); err != nil {
		return eventError(c, err)
	}
	details, err := h.Bookings.ListDetailsByEvent(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": details})
}

// eventError maps catalog and repository errors onto HTTP responses.
func eventError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrEventNotFound),
		errors.Is(err, repository.ErrWindowNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, catalog.ErrNameRequired),
		errors.Is(err, catalog.ErrNameTooLong),
		errors.Is(err, catalog.ErrNoWindows),
		errors.Is(err, catalog.ErrInvalidWindow):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
