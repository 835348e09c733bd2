package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-window-booking/internal/inventory"
	"github.com/iliyamo/event-window-booking/internal/ledger"
	"github.com/iliyamo/event-window-booking/internal/model"
	"github.com/iliyamo/event-window-booking/internal/monitoring"
	"github.com/iliyamo/event-window-booking/internal/queue"
	"github.com/iliyamo/event-window-booking/internal/repository"
)

// bookingLedger is the slice of the ledger the booking endpoints need.
// *ledger.BookingLedger implements it; tests swap in fakes.
type bookingLedger interface {
	CreateBooking(ctx context.Context, userID, eventID, windowID uint64, ticketCount int) (model.Booking, error)
	CancelBooking(ctx context.Context, userID, bookingID uint64) (model.Booking, error)
	GetBooking(ctx context.Context, userID, bookingID uint64) (model.Booking, error)
}

// BookingHandler serves the booking endpoints.  Publish is best
// effort: queue failures are logged by the publisher and never fail
// the request.
type BookingHandler struct {
	Ledger   bookingLedger
	Bookings bookingReader
	Publish  func(ctx context.Context, ev queue.BookingEvent) error
}

func NewBookingHandler(l bookingLedger, bookings bookingReader, publish func(ctx context.Context, ev queue.BookingEvent) error) *BookingHandler {
	if l == nil || bookings == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Ledger: l, Bookings: bookings, Publish: publish}
}

// ----- DTOs -----

type createBookingReq struct {
	EventID     uint64 `json:"event_id"`
	WindowID    uint64 `json:"window_id"`
	TicketCount int    `json:"ticket_count"`
}

// Create books ticket_count seats on a window.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.EventID == 0 || req.WindowID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id and window_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	booking, err := h.Ledger.CreateBooking(ctx, uid, req.EventID, req.WindowID, req.TicketCount)
	if err != nil {
		return bookingError(c, err)
	}
	monitoring.BookingsCreated.Inc()

	detail, err := h.Bookings.DetailByID(ctx, booking.ID)
	if err != nil {
		// the booking exists; fall back to the bare record
		h.publishEvent(queue.ActionCreated, booking, repository.BookingDetail{})
		return c.JSON(http.StatusCreated, echo.Map{"booking_id": booking.ID, "status": booking.Status})
	}
	h.publishEvent(queue.ActionCreated, booking, detail)
	return c.JSON(http.StatusCreated, detail)
}

// Cancel cancels the caller's booking and frees its seats.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	booking, err := h.Ledger.CancelBooking(ctx, uid, id)
	if err != nil {
		return bookingError(c, err)
	}
	monitoring.BookingsCancelled.Inc()

	detail, derr := h.Bookings.DetailByID(ctx, booking.ID)
	if derr == nil {
		h.publishEvent(queue.ActionCancelled, booking, detail)
	} else {
		h.publishEvent(queue.ActionCancelled, booking, repository.BookingDetail{})
	}
	return c.JSON(http.StatusOK, echo.Map{"booking_id": booking.ID, "status": booking.Status})
}

// Get returns one of the caller's bookings with event and window
// context.
func (h *BookingHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// ownership check happens in the ledger
	if _, err := h.Ledger.GetBooking(ctx, uid, id); err != nil {
		return bookingError(c, err)
	}
	detail, err := h.Bookings.DetailByID(ctx, id)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// List returns the caller's bookings, optionally filtered with
// ?event_id=.
func (h *BookingHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var eventID uint64
	if s := c.QueryParam("event_id"); s != "" {
		eventID, err = strconv.ParseUint(s, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event_id"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	details, err := h.Bookings.ListDetailsByUser(ctx, uid, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": details})
}

func (h *BookingHandler) publishEvent(action string, b model.Booking, detail repository.BookingDetail) {
	if h.Publish == nil {
		return
	}
	ev := queue.BookingEvent{
		Action:      action,
		BookingID:   b.ID,
		UserID:      b.UserID,
		EventID:     b.EventID,
		WindowID:    b.WindowID,
		TicketCount: b.TicketCount,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if detail.ID != 0 {
		ev.EventName = detail.Event.Name
		ev.StartTime = detail.Window.StartTime
		ev.EndTime = detail.Window.EndTime
	}
	// fire and forget; the publisher logs its own failures
	go func() { _ = h.Publish(context.Background(), ev) }()
}

// bookingError maps ledger, inventory and repository errors onto HTTP
// responses.  Sold-out windows are 409, partial shortfalls 422 with
// the remaining count in the message.
func bookingError(c echo.Context, err error) error {
	var capErr *inventory.CapacityError
	switch {
	case errors.As(err, &capErr):
		if capErr.SoldOut() {
			monitoring.CapacityRejections.WithLabelValues("sold_out").Inc()
			return c.JSON(http.StatusConflict, echo.Map{"error": capErr.Error()})
		}
		monitoring.CapacityRejections.WithLabelValues("insufficient").Inc()
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":     capErr.Error(),
			"available": capErr.Available,
		})
	case errors.Is(err, ledger.ErrAlreadyCancelled):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, ledger.ErrNotOwner):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, ledger.ErrInvalidTicketCount),
		errors.Is(err, ledger.ErrWindowMismatch),
		errors.Is(err, inventory.ErrInvalidCount):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrBookingNotFound),
		errors.Is(err, repository.ErrWindowNotFound),
		errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
