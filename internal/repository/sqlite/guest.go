package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/guestlist/internal/apperror"
	"github.com/sakif/guestlist/internal/model"
	"github.com/sakif/guestlist/internal/repository"
)

var _ repository.GuestRepository = (*DB)(nil)

const guestColumns = `id, name, ticket_type_id, event_id, observations, entered, entry_time, created_at`

func scanGuest(row rowScanner) (*model.Guest, error) {
	var (
		g            model.Guest
		observations sql.Null[string]
		entryTime    sql.Null[time.Time]
	)
	if err := row.Scan(
		&g.ID, &g.Name, &g.TicketTypeID, &g.EventID, &observations,
		&g.Entered, &entryTime, &g.CreatedAt,
	); err != nil {
		return nil, err
	}
	g.Observations = model.FromNull(observations)
	g.EntryTime = model.FromNull(entryTime)
	return &g, nil
}

// CreateGuest inserts a guest that has not entered yet.
//
// The INSERT ... SELECT only produces a row when the ticket type exists,
// belongs to the guest's event, and still has room under its limit. Doing the
// capacity check inside the statement means two door operators adding the
// last seat at the same time cannot both succeed.
func (db *DB) CreateGuest(ctx context.Context, guest *model.Guest) error {
	guest.CreatedAt = time.Now().UTC()
	guest.Entered = false
	guest.EntryTime = model.None[time.Time]()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO guests (name, ticket_type_id, event_id, observations, entered, entry_time, created_at)
		 SELECT ?, tt.id, tt.event_id, ?, 0, NULL, ?
		 FROM ticket_types tt
		 WHERE tt.id = ? AND tt.event_id = ?
		   AND (tt.limit_count IS NULL
		        OR (SELECT COUNT(*) FROM guests g WHERE g.ticket_type_id = tt.id) < tt.limit_count)`,
		guest.Name,
		guest.Observations.Null(),
		guest.CreatedAt,
		guest.TicketTypeID,
		guest.EventID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating guest: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return db.explainRejectedTicketType(ctx, guest.TicketTypeID, guest.EventID)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading guest id: %w", err)
	}
	guest.ID = id
	return nil
}

// explainRejectedTicketType works out why a conditional guest write matched
// no ticket type: missing, wrong event, or full.
func (db *DB) explainRejectedTicketType(ctx context.Context, ticketTypeID, eventID int64) error {
	tt, err := db.GetTicketType(ctx, ticketTypeID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.ValidationFailed("ticketTypeId",
				fmt.Sprintf("ticket type %d does not exist", ticketTypeID))
		}
		return err
	}
	if tt.EventID != eventID {
		return apperror.ValidationFailed("ticketTypeId",
			fmt.Sprintf("ticket type %d belongs to another event", ticketTypeID))
	}
	return apperror.Conflict(fmt.Sprintf("ticket type %q is sold out", tt.Name))
}

// GetGuest retrieves a single guest by its ID.
func (db *DB) GetGuest(ctx context.Context, id int64) (*model.Guest, error) {
	g, err := scanGuest(db.conn.QueryRowContext(ctx,
		`SELECT `+guestColumns+` FROM guests WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("guest", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting guest %d: %w", id, err)
	}
	return g, nil
}

// ListGuests returns the guests of an event, newest first, narrowed by filter.
func (db *DB) ListGuests(ctx context.Context, eventID int64, filter model.GuestFilter) ([]model.Guest, error) {
	var (
		where = []string{"event_id = ?"}
		args  = []any{eventID}
	)
	if entered, ok := filter.Entered.Get(); ok {
		where = append(where, "entered = ?")
		args = append(args, entered)
	}
	if ticketTypeID, ok := filter.TicketTypeID.Get(); ok {
		where = append(where, "ticket_type_id = ?")
		args = append(args, ticketTypeID)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		// LIKE is case-insensitive for ASCII in SQLite. Wildcards typed by
		// the user are escaped so "50%" matches literally.
		where = append(where, `name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(q)+"%")
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+guestColumns+` FROM guests
		 WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY created_at DESC, id DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing guests: %w", err)
	}
	defer rows.Close()

	guests := make([]model.Guest, 0)
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning guest row: %w", err)
		}
		guests = append(guests, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating guests: %w", err)
	}

	return guests, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// UpdateGuest writes name, observations and ticket type. The check-in
// columns are never part of this statement.
//
// Moving a guest to another ticket type is subject to the same rules as
// creating one (same event, capacity left); staying on the current ticket
// type never counts against its limit.
func (db *DB) UpdateGuest(ctx context.Context, guest *model.Guest) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE guests
		 SET name = ?, observations = ?, ticket_type_id = ?
		 WHERE id = ?
		   AND EXISTS (
		     SELECT 1 FROM ticket_types tt
		     WHERE tt.id = ? AND tt.event_id = guests.event_id
		       AND (tt.limit_count IS NULL
		            OR tt.id = guests.ticket_type_id
		            OR (SELECT COUNT(*) FROM guests g WHERE g.ticket_type_id = tt.id) < tt.limit_count))`,
		guest.Name,
		guest.Observations.Null(),
		guest.TicketTypeID,
		guest.ID,
		guest.TicketTypeID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating guest %d: %w", guest.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		current, err := db.GetGuest(ctx, guest.ID)
		if err != nil {
			return err
		}
		return db.explainRejectedTicketType(ctx, guest.TicketTypeID, current.EventID)
	}
	return nil
}

// DeleteGuest permanently removes a guest.
func (db *DB) DeleteGuest(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM guests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting guest %d: %w", id, err)
	}

	return expectOneRow(result, "guest", id)
}

// CheckIn flips a guest from not entered to entered.
//
// The WHERE entered = 0 clause is the whole concurrency story: when two
// scanners submit the same guest, SQLite serialises the two UPDATEs, the first
// one matches the row and the second matches nothing. The loser is told the
// guest already entered and the stored entry time is the winner's.
func (db *DB) CheckIn(ctx context.Context, id int64, at time.Time) (*model.Guest, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE guests SET entered = 1, entry_time = ? WHERE id = ? AND entered = 0`,
		at.UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking in guest %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Distinguish "no such guest" from "already entered".
		if _, err := db.GetGuest(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperror.AlreadyEntered(strconv.FormatInt(id, 10))
	}

	return db.GetGuest(ctx, id)
}
