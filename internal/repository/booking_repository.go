package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/event-window-booking/internal/model"
)

// BookingRepo persists bookings.  Status transitions go through
// MarkCancelled, which is conditional so that two concurrent cancels of
// the same booking can never both succeed.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// Create inserts a new booking and populates the generated ID and
// timestamps on the provided record.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	q := conn(ctx, r.db)
	res, err := q.ExecContext(ctx,
		"INSERT INTO bookings (event_id, window_id, user_id, ticket_count, status) VALUES (?,?,?,?,?)",
		b.EventID, b.WindowID, b.UserID, b.TicketCount, b.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return q.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM bookings WHERE id=?", b.ID).
		Scan(&b.CreatedAt, &b.UpdatedAt)
}

// GetByID fetches one booking.  Returns ErrBookingNotFound when no row
// exists.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	var b model.Booking
	err := conn(ctx, r.db).QueryRowContext(ctx,
		"SELECT id, event_id, window_id, user_id, ticket_count, status, created_at, updated_at FROM bookings WHERE id=?",
		id).Scan(&b.ID, &b.EventID, &b.WindowID, &b.UserID, &b.TicketCount, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, err
}

// MarkCancelled flips a booking from ACTIVE to CANCELLED.  Returns
// false when the booking was not active, so exactly one caller wins
// when cancels race.
func (r *BookingRepo) MarkCancelled(ctx context.Context, id uint64) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		"UPDATE bookings SET status=? WHERE id=? AND status=?",
		model.BookingCancelled, id, model.BookingActive)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByUser returns a user's bookings, cancelled ones included,
// ordered by creation time.  A non-zero eventID narrows the list to one
// event.
func (r *BookingRepo) ListByUser(ctx context.Context, userID, eventID uint64) ([]model.Booking, error) {
	query := "SELECT id, event_id, window_id, user_id, ticket_count, status, created_at, updated_at FROM bookings WHERE user_id=?"
	args := []any{userID}
	if eventID != 0 {
		query += " AND event_id=?"
		args = append(args, eventID)
	}
	query += " ORDER BY created_at, id"
	return r.list(ctx, query, args...)
}

// ListByEvent returns all bookings of an event, cancelled ones
// included, ordered by creation time.
func (r *BookingRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Booking, error) {
	return r.list(ctx,
		"SELECT id, event_id, window_id, user_id, ticket_count, status, created_at, updated_at FROM bookings WHERE event_id=? ORDER BY created_at, id",
		eventID)
}

func (r *BookingRepo) list(ctx context.Context, query string, args ...any) ([]model.Booking, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]model.Booking, 0)
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.EventID, &b.WindowID, &b.UserID, &b.TicketCount, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// EventSummary, WindowSummary and UserSummary shape the joined booking
// projections returned to API clients.
type EventSummary struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type WindowSummary struct {
	ID        uint64 `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type UserSummary struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
}

// BookingDetail is a booking joined with its event, window and owner
// for display.  Cancelled bookings are included in every listing so
// cancellation history stays visible.
type BookingDetail struct {
	ID          uint64        `json:"booking_id"`
	TicketCount int           `json:"ticket_count"`
	Status      string        `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	Event       EventSummary  `json:"event"`
	Window      WindowSummary `json:"window"`
	User        UserSummary   `json:"user"`
}

const bookingDetailQuery = `SELECT b.id, b.ticket_count, b.status, b.created_at,
       e.id, e.name,
       w.id, w.start_time, w.end_time,
       u.id, u.email
FROM bookings b
JOIN events e ON e.id = b.event_id
JOIN event_windows w ON w.id = b.window_id
JOIN users u ON u.id = b.user_id`

// DetailByID loads one booking with its event, window and owner
// summaries.  Returns ErrBookingNotFound when no row exists.
func (r *BookingRepo) DetailByID(ctx context.Context, id uint64) (BookingDetail, error) {
	var d BookingDetail
	err := conn(ctx, r.db).QueryRowContext(ctx, bookingDetailQuery+" WHERE b.id=?", id).Scan(
		&d.ID, &d.TicketCount, &d.Status, &d.CreatedAt,
		&d.Event.ID, &d.Event.Name,
		&d.Window.ID, &d.Window.StartTime, &d.Window.EndTime,
		&d.User.ID, &d.User.Email,
	)
	if err == sql.ErrNoRows {
		return BookingDetail{}, ErrBookingNotFound
	}
	return d, err
}

// ListDetailsByUser returns joined booking details for a user, oldest
// first.  A non-zero eventID narrows the list to one event.
func (r *BookingRepo) ListDetailsByUser(ctx context.Context, userID, eventID uint64) ([]BookingDetail, error) {
	query := bookingDetailQuery + " WHERE b.user_id=?"
	args := []any{userID}
	if eventID != 0 {
		query += " AND b.event_id=?"
		args = append(args, eventID)
	}
	query += " ORDER BY b.created_at, b.id"
	return r.listDetails(ctx, query, args...)
}

// ListDetailsByEvent returns joined booking details for every booking
// of an event, oldest first.
func (r *BookingRepo) ListDetailsByEvent(ctx context.Context, eventID uint64) ([]BookingDetail, error) {
	return r.listDetails(ctx, bookingDetailQuery+" WHERE b.event_id=? ORDER BY b.created_at, b.id", eventID)
}

func (r *BookingRepo) listDetails(ctx context.Context, query string, args ...any) ([]BookingDetail, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]BookingDetail, 0)
	for rows.Next() {
		var d BookingDetail
		if err := rows.Scan(
			&d.ID, &d.TicketCount, &d.Status, &d.CreatedAt,
			&d.Event.ID, &d.Event.Name,
			&d.Window.ID, &d.Window.StartTime, &d.Window.EndTime,
			&d.User.ID, &d.User.Email,
		); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
