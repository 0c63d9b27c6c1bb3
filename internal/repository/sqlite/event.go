package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/guestlist/internal/apperror"
	"github.com/sakif/guestlist/internal/model"
	"github.com/sakif/guestlist/internal/repository"
)

var _ repository.EventRepository = (*DB)(nil)

const eventColumns = `id, name, date, duration, description, user_id, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows, so one scan
// function serves GetEvent and ListEventsByUser.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*model.Event, error) {
	var (
		e           model.Event
		description sql.Null[string]
	)
	if err := row.Scan(
		&e.ID, &e.Name, &e.Date, &e.Duration, &description,
		&e.UserID, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Description = model.FromNull(description)
	return &e, nil
}

// CreateEvent inserts an event and fills in its ID and timestamps.
// Times are stored in UTC so that text ordering in SQLite matches time order.
func (db *DB) CreateEvent(ctx context.Context, event *model.Event) error {
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	event.Date = event.Date.UTC()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO events (name, date, duration, description, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.Name,
		event.Date,
		event.Duration,
		event.Description.Null(),
		event.UserID,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", event.UserID)
		}
		return fmt.Errorf("sqlite: creating event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading event id: %w", err)
	}
	event.ID = id
	return nil
}

// GetEvent retrieves a single event by its ID.
func (db *DB) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	event, err := scanEvent(db.conn.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("event", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting event %d: %w", id, err)
	}
	return event, nil
}

// ListEventsByUser returns the user's events, latest date first.
func (db *DB) ListEventsByUser(ctx context.Context, userID string) ([]model.Event, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE user_id = ? ORDER BY date DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing events: %w", err)
	}
	defer rows.Close()

	events := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning event row: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating events: %w", err)
	}

	return events, nil
}

// UpdateEvent writes the mutable fields of an event. The owner and creation
// time are immutable.
func (db *DB) UpdateEvent(ctx context.Context, event *model.Event) error {
	event.UpdatedAt = time.Now().UTC()
	event.Date = event.Date.UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE events
		 SET name = ?, date = ?, duration = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		event.Name,
		event.Date,
		event.Duration,
		event.Description.Null(),
		event.UpdatedAt,
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating event %d: %w", event.ID, err)
	}

	return expectOneRow(result, "event", event.ID)
}

// DeleteEvent removes an event. Its ticket types and guests go with it
// through ON DELETE CASCADE.
func (db *DB) DeleteEvent(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting event %d: %w", id, err)
	}

	return expectOneRow(result, "event", id)
}

// expectOneRow turns "zero rows affected" into a NotFound error.
func expectOneRow(result sql.Result, resource string, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound(resource, strconv.FormatInt(id, 10))
	}
	return nil
}
