package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-window-booking/internal/inventory"
	"github.com/iliyamo/event-window-booking/internal/ledger"
	"github.com/iliyamo/event-window-booking/internal/model"
	"github.com/iliyamo/event-window-booking/internal/queue"
	"github.com/iliyamo/event-window-booking/internal/repository"
)

// fakeLedger scripts ledger outcomes per test.
type fakeLedger struct {
	createFn func(userID, eventID, windowID uint64, count int) (model.Booking, error)
	cancelFn func(userID, bookingID uint64) (model.Booking, error)
	getFn    func(userID, bookingID uint64) (model.Booking, error)
}

func (f *fakeLedger) CreateBooking(_ context.Context, userID, eventID, windowID uint64, count int) (model.Booking, error) {
	return f.createFn(userID, eventID, windowID, count)
}
func (f *fakeLedger) CancelBooking(_ context.Context, userID, bookingID uint64) (model.Booking, error) {
	return f.cancelFn(userID, bookingID)
}
func (f *fakeLedger) GetBooking(_ context.Context, userID, bookingID uint64) (model.Booking, error) {
	return f.getFn(userID, bookingID)
}

// fakeBookingReader serves canned booking details.
type fakeBookingReader struct {
	details map[uint64]repository.BookingDetail
}

func (f *fakeBookingReader) DetailByID(_ context.Context, id uint64) (repository.BookingDetail, error) {
	d, ok := f.details[id]
	if !ok {
		return repository.BookingDetail{}, repository.ErrBookingNotFound
	}
	return d, nil
}
func (f *fakeBookingReader) ListDetailsByUser(_ context.Context, userID, eventID uint64) ([]repository.BookingDetail, error) {
	out := make([]repository.BookingDetail, 0)
	for _, d := range f.details {
		if d.User.ID == userID && (eventID == 0 || d.Event.ID == eventID) {
			out = append(out, d)
		}
	}
	return out, nil
}
func (f *fakeBookingReader) ListDetailsByEvent(_ context.Context, eventID uint64) ([]repository.BookingDetail, error) {
	out := make([]repository.BookingDetail, 0)
	for _, d := range f.details {
		if d.Event.ID == eventID {
			out = append(out, d)
		}
	}
	return out, nil
}

// publishRecorder captures published events for assertions.
type publishRecorder struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	done   chan struct{}
}

func newPublishRecorder() *publishRecorder {
	return &publishRecorder{done: make(chan struct{}, 1)}
}

func (p *publishRecorder) publish(_ context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	p.done <- struct{}{}
	return nil
}

func (p *publishRecorder) wait(t *testing.T) queue.BookingEvent {
	t.Helper()
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.events)
	return p.events[len(p.events)-1]
}

func doRequest(h echo.HandlerFunc, method, target, body string, userID uint64, setup func(echo.Context)) *httptest.ResponseRecorder {
	e := echo.New()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	if setup != nil {
		setup(c)
	}
	_ = h(c)
	return rec
}

func TestBookingCreate(t *testing.T) {
	detail := repository.BookingDetail{
		ID:          1,
		TicketCount: 2,
		Status:      model.BookingActive,
		Event:       repository.EventSummary{ID: 3, Name: "GopherCon"},
		Window:      repository.WindowSummary{ID: 7, StartTime: "09:00", EndTime: "12:00"},
		User:        repository.UserSummary{ID: 5, Email: "a@b.c"},
	}

	t.Run("created with detail and published event", func(t *testing.T) {
		rec := newPublishRecorder()
		h := NewBookingHandler(&fakeLedger{
			createFn: func(userID, eventID, windowID uint64, count int) (model.Booking, error) {
				assert.Equal(t, uint64(5), userID)
				return model.Booking{ID: 1, EventID: eventID, WindowID: windowID, UserID: userID, TicketCount: count, Status: model.BookingActive}, nil
			},
		}, &fakeBookingReader{details: map[uint64]repository.BookingDetail{1: detail}}, rec.publish)

		res := doRequest(h.Create, http.MethodPost, "/v1/bookings",
			`{"event_id":3,"window_id":7,"ticket_count":2}`, 5, nil)

		assert.Equal(t, http.StatusCreated, res.Code)
		assert.Contains(t, res.Body.String(), `"booking_id":1`)

		ev := rec.wait(t)
		assert.Equal(t, queue.ActionCreated, ev.Action)
		assert.Equal(t, "GopherCon", ev.EventName)
	})

	t.Run("sold out maps to 409", func(t *testing.T) {
		h := NewBookingHandler(&fakeLedger{
			createFn: func(_, _, _ uint64, _ int) (model.Booking, error) {
				return model.Booking{}, &inventory.CapacityError{Available: 0, Requested: 2}
			},
		}, &fakeBookingReader{}, nil)

		res := doRequest(h.Create, http.MethodPost, "/v1/bookings",
			`{"event_id":3,"window_id":7,"ticket_count":2}`, 5, nil)

		assert.Equal(t, http.StatusConflict, res.Code)
		assert.Contains(t, res.Body.String(), "all tickets are filled")
	})

	t.Run("partial shortfall maps to 422 with remaining count", func(t *testing.T) {
		h := NewBookingHandler(&fakeLedger{
			createFn: func(_, _, _ uint64, _ int) (model.Booking, error) {
				return model.Booking{}, &inventory.CapacityError{Available: 3, Requested: 5}
			},
		}, &fakeBookingReader{}, nil)

		res := doRequest(h.Create, http.MethodPost, "/v1/bookings",
			`{"event_id":3,"window_id":7,"ticket_count":5}`, 5, nil)

		assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
		assert.Contains(t, res.Body.String(), "only 3 tickets are available")
		assert.Contains(t, res.Body.String(), `"available":3`)
	})

	t.Run("unknown window maps to 404", func(t *testing.T) {
		h := NewBookingHandler(&fakeLedger{
			createFn: func(_, _, _ uint64, _ int) (model.Booking, error) {
				return model.Booking{}, repository.ErrWindowNotFound
			},
		}, &fakeBookingReader{}, nil)

		res := doRequest(h.Create, http.MethodPost, "/v1/bookings",
			`{"event_id":3,"window_id":7,"ticket_count":1}`, 5, nil)

		assert.Equal(t, http.StatusNotFound, res.Code)
	})

	t.Run("invalid ticket count maps to 400", func(t *testing.T) {
		h := NewBookingHandler(&fakeLedger{
			createFn: func(_, _, _ uint64, _ int) (model.Booking, error) {
				return model.Booking{}, ledger.ErrInvalidTicketCount
			},
		}, &fakeBookingReader{}, nil)

		res := doRequest(h.Create, http.MethodPost, "/v1/bookings",
			`{"event_id":3,"window_id":7,"ticket_count":0}`, 5, nil)

		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
}

func TestBookingCancel(t *testing.T) {
	withID := func(c echo.Context) {
		c.SetParamNames("id")
		c.SetParamValues("1")
	}

	t.Run("cancelled", func(t *testing.T) {
		h := NewBookingHandler(&fakeLedger{
			cancelFn: func(userID, bookingID uint64) (model.Booking, error) {
				return model.Booking{ID: bookingID, UserID: userID, Status: model.BookingCancelled}, nil
			},
		}, &fakeBookingReader{}, nil)

		res := doRequest(h.Cancel, http.MethodDelete, "/v1/bookings/1", "", 5, withID)

		assert.Equal(t, http.StatusOK, res.Code)
		assert.Contains(t, res.Body.String(), `"status":"CANCELLED"`)
	})

	t.Run("already cancelled maps to 409", func(t *testing.T) {
		h := NewBookingHandler(&fakeLedger{
			cancelFn: func(_, _ uint64) (model.Booking, error) {
				return model.Booking{}, ledger.ErrAlreadyCancelled
			},
		}, &fakeBookingReader{}, nil)

		res := doRequest(h.Cancel, http.MethodDelete, "/v1/bookings/1", "", 5, withID)
		assert.Equal(t, http.StatusConflict, res.Code)
	})

	t.Run("foreign booking maps to 403", func(t *testing.T) {
		h := NewBookingHandler(&fakeLedger{
			cancelFn: func(_, _ uint64) (model.Booking, error) {
				return model.Booking{}, ledger.ErrNotOwner
			},
		}, &fakeBookingReader{}, nil)

		res := doRequest(h.Cancel, http.MethodDelete, "/v1/bookings/1", "", 5, withID)
		assert.Equal(t, http.StatusForbidden, res.Code)
	})
}

func TestBookingList(t *testing.T) {
	details := map[uint64]repository.BookingDetail{
		1: {ID: 1, Event: repository.EventSummary{ID: 3}, User: repository.UserSummary{ID: 5}},
		2: {ID: 2, Event: repository.EventSummary{ID: 4}, User: repository.UserSummary{ID: 5}},
		3: {ID: 3, Event: repository.EventSummary{ID: 3}, User: repository.UserSummary{ID: 6}},
	}
	h := NewBookingHandler(&fakeLedger{}, &fakeBookingReader{details: details}, nil)

	res := doRequest(h.List, http.MethodGet, "/v1/bookings?event_id=3", "", 5, nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"booking_id":1`)
	assert.NotContains(t, res.Body.String(), `"booking_id":2`)
	assert.NotContains(t, res.Body.String(), `"booking_id":3`)
}
