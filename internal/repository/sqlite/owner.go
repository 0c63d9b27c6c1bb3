package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/sakif/guestlist/internal/apperror"
	"github.com/sakif/guestlist/internal/repository"
)

var _ repository.OwnerRepository = (*DB)(nil)

// EventOwner resolves an event to its owning user.
func (db *DB) EventOwner(ctx context.Context, eventID int64) (*repository.Owner, error) {
	o := repository.Owner{EventID: eventID, TicketTypeEventID: eventID}
	err := db.conn.QueryRowContext(ctx,
		`SELECT user_id FROM events WHERE id = ?`, eventID,
	).Scan(&o.EventUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("event", strconv.FormatInt(eventID, 10))
		}
		return nil, fmt.Errorf("sqlite: resolving owner of event %d: %w", eventID, err)
	}
	return &o, nil
}

// TicketTypeOwner resolves a ticket type to its event and that event's owner
// in one indexed join.
func (db *DB) TicketTypeOwner(ctx context.Context, ticketTypeID int64) (*repository.Owner, error) {
	var o repository.Owner
	err := db.conn.QueryRowContext(ctx,
		`SELECT e.id, e.user_id
		 FROM ticket_types tt
		 JOIN events e ON e.id = tt.event_id
		 WHERE tt.id = ?`,
		ticketTypeID,
	).Scan(&o.EventID, &o.EventUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("ticket type", strconv.FormatInt(ticketTypeID, 10))
		}
		return nil, fmt.Errorf("sqlite: resolving owner of ticket type %d: %w", ticketTypeID, err)
	}
	o.TicketTypeEventID = o.EventID
	return &o, nil
}

// GuestOwner resolves a guest to its event and that event's owner. It also
// returns the event of the guest's ticket type so the caller can check that
// the two agree.
func (db *DB) GuestOwner(ctx context.Context, guestID int64) (*repository.Owner, error) {
	var o repository.Owner
	err := db.conn.QueryRowContext(ctx,
		`SELECT e.id, e.user_id, tt.event_id
		 FROM guests g
		 JOIN events e ON e.id = g.event_id
		 JOIN ticket_types tt ON tt.id = g.ticket_type_id
		 WHERE g.id = ?`,
		guestID,
	).Scan(&o.EventID, &o.EventUserID, &o.TicketTypeEventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("guest", strconv.FormatInt(guestID, 10))
		}
		return nil, fmt.Errorf("sqlite: resolving owner of guest %d: %w", guestID, err)
	}
	return &o, nil
}
