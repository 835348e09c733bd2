package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/event-window-booking/internal/model"
)

// WindowRepo persists event windows.  Besides plain CRUD it exposes the
// narrow seat-counter accessors the inventory uses; nothing else in the
// codebase writes available_seats.
type WindowRepo struct {
	db *sql.DB
}

// NewWindowRepo returns a new WindowRepo bound to the given database.
func NewWindowRepo(db *sql.DB) *WindowRepo { return &WindowRepo{db: db} }

// Create inserts one window and populates the generated ID and
// timestamps on the provided record.
func (r *WindowRepo) Create(ctx context.Context, w *model.EventWindow) error {
	q := conn(ctx, r.db)
	res, err := q.ExecContext(ctx,
		"INSERT INTO event_windows (event_id, start_time, end_time, total_seats, available_seats) VALUES (?,?,?,?,?)",
		w.EventID, w.StartTime, w.EndTime, w.TotalSeats, w.AvailableSeats)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	w.ID = uint64(id)
	return q.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM event_windows WHERE id=?", w.ID).
		Scan(&w.CreatedAt, &w.UpdatedAt)
}

// CreateBulk inserts multiple windows in a single statement.  Passing
// an empty slice has no effect and returns nil.  The IDs of the passed
// records are not populated.
func (r *WindowRepo) CreateBulk(ctx context.Context, windows []model.EventWindow) error {
	if len(windows) == 0 {
		return nil
	}
	query := "INSERT INTO event_windows (event_id, start_time, end_time, total_seats, available_seats) VALUES "
	args := make([]any, 0, len(windows)*5)
	for i, w := range windows {
		if i > 0 {
			query += ","
		}
		query += "(?,?,?,?,?)"
		args = append(args, w.EventID, w.StartTime, w.EndTime, w.TotalSeats, w.AvailableSeats)
	}
	_, err := conn(ctx, r.db).ExecContext(ctx, query, args...)
	return err
}

// GetByID fetches one window.  Returns ErrWindowNotFound when no row
// exists.
func (r *WindowRepo) GetByID(ctx context.Context, id uint64) (model.EventWindow, error) {
	var w model.EventWindow
	err := conn(ctx, r.db).QueryRowContext(ctx,
		"SELECT id, event_id, start_time, end_time, total_seats, available_seats, created_at, updated_at FROM event_windows WHERE id=?",
		id).Scan(&w.ID, &w.EventID, &w.StartTime, &w.EndTime, &w.TotalSeats, &w.AvailableSeats, &w.CreatedAt, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.EventWindow{}, ErrWindowNotFound
	}
	return w, err
}

// ListByEvent returns all windows of an event ordered by start time.
func (r *WindowRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.EventWindow, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		"SELECT id, event_id, start_time, end_time, total_seats, available_seats, created_at, updated_at FROM event_windows WHERE event_id=? ORDER BY start_time, id",
		eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	windows := make([]model.EventWindow, 0)
	for rows.Next() {
		var w model.EventWindow
		if err := rows.Scan(&w.ID, &w.EventID, &w.StartTime, &w.EndTime, &w.TotalSeats, &w.AvailableSeats, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// SeatCounters reads a window's live seat counters.  Returns
// ErrWindowNotFound when the window does not exist.  Callers must hold
// the inventory's per-window lock for the read-check-write to be
// serialized.
func (r *WindowRepo) SeatCounters(ctx context.Context, windowID uint64) (available, total int, err error) {
	err = conn(ctx, r.db).QueryRowContext(ctx,
		"SELECT available_seats, total_seats FROM event_windows WHERE id=?",
		windowID).Scan(&available, &total)
	if err == sql.ErrNoRows {
		return 0, 0, ErrWindowNotFound
	}
	return available, total, err
}

// SetAvailableSeats writes a window's available counter.  Only the seat
// inventory may call this.
func (r *WindowRepo) SetAvailableSeats(ctx context.Context, windowID uint64, available int) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		"UPDATE event_windows SET available_seats=? WHERE id=?", available, windowID)
	return err
}
