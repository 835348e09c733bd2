package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/event-window-booking/internal/model"
)

// EventRepo provides CRUD operations for events.  Writes that must be
// atomic with window or booking writes run inside WithTx; the cascade
// delete is the only multi-table write owned by this repository.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// WithTx runs fn inside a transaction shared by every repository call
// made with the context fn receives.
func (r *EventRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.db, fn)
}

// Create inserts a new event and populates the generated ID and
// timestamps on the provided record.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	q := conn(ctx, r.db)
	res, err := q.ExecContext(ctx,
		"INSERT INTO events (owner_id, name, description) VALUES (?,?,?)",
		e.OwnerID, e.Name, e.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return q.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM events WHERE id=?", e.ID).
		Scan(&e.CreatedAt, &e.UpdatedAt)
}

// GetByID fetches one event.  Returns ErrEventNotFound when no row
// exists.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	var e model.Event
	err := conn(ctx, r.db).QueryRowContext(ctx,
		"SELECT id, owner_id, name, description, created_at, updated_at FROM events WHERE id=?",
		id).Scan(&e.ID, &e.OwnerID, &e.Name, &e.Description, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Event{}, ErrEventNotFound
	}
	return e, err
}

// List returns all events ordered by creation.
func (r *EventRepo) List(ctx context.Context) ([]model.Event, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		"SELECT id, owner_id, name, description, created_at, updated_at FROM events ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]model.Event, 0)
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Name, &e.Description, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// UpdateMeta updates name and description only.  Window and seat data
// are never touched here.  Returns ErrEventNotFound when the event does
// not exist.
func (r *EventRepo) UpdateMeta(ctx context.Context, id uint64, name, description string) error {
	q := conn(ctx, r.db)
	var exists uint64
	if err := q.QueryRowContext(ctx, "SELECT id FROM events WHERE id=?", id).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return ErrEventNotFound
		}
		return err
	}
	_, err := q.ExecContext(ctx,
		"UPDATE events SET name=?, description=? WHERE id=?", name, description, id)
	return err
}

// DeleteCascade removes an event together with its windows and
// bookings in one transaction, so a partial cascade can never leave
// orphaned bookings behind.  Returns ErrEventNotFound when the event
// does not exist.
func (r *EventRepo) DeleteCascade(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(ctx context.Context) error {
		q := conn(ctx, r.db)
		if _, err := q.ExecContext(ctx, "DELETE FROM bookings WHERE event_id=?", id); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, "DELETE FROM event_windows WHERE event_id=?", id); err != nil {
			return err
		}
		res, err := q.ExecContext(ctx, "DELETE FROM events WHERE id=?", id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrEventNotFound
		}
		return nil
	})
}
