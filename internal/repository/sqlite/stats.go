package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/guestlist/internal/model"
	"github.com/sakif/guestlist/internal/repository"
)

var _ repository.StatsRepository = (*DB)(nil)

// EventStatsSnapshot reads the dashboard figures of one event inside a single
// transaction, so the totals, the per-ticket-type counts and the entry times
// all describe the same state of the guest list. Any failure aborts the whole
// read; callers never see half a snapshot.
func (db *DB) EventStatsSnapshot(ctx context.Context, eventID int64) (*model.StatsSnapshot, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: starting stats read: %w", err)
	}
	// Read-only: rolling back after a successful read is harmless.
	defer tx.Rollback()

	var snap model.StatsSnapshot

	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN entered = 1 THEN 1 ELSE 0 END), 0)
		 FROM guests WHERE event_id = ?`,
		eventID,
	).Scan(&snap.TotalGuests, &snap.EnteredGuests)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting guests of event %d: %w", eventID, err)
	}

	if snap.TicketTypeCounts, err = ticketTypeCounts(ctx, tx, eventID); err != nil {
		return nil, err
	}
	if snap.EntryTimes, err = entryTimes(ctx, tx, eventID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: finishing stats read: %w", err)
	}
	return &snap, nil
}

// ticketTypeCounts counts guests per ticket type. The LEFT JOIN keeps ticket
// types nobody holds yet, with a count of 0.
func ticketTypeCounts(ctx context.Context, tx *sql.Tx, eventID int64) ([]model.TicketTypeCount, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT tt.id, tt.name, COUNT(g.id)
		 FROM ticket_types tt
		 LEFT JOIN guests g ON g.ticket_type_id = tt.id AND g.event_id = tt.event_id
		 WHERE tt.event_id = ?
		 GROUP BY tt.id, tt.name
		 ORDER BY tt.id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting guests per ticket type: %w", err)
	}
	defer rows.Close()

	counts := make([]model.TicketTypeCount, 0)
	for rows.Next() {
		var c model.TicketTypeCount
		if err := rows.Scan(&c.TicketTypeID, &c.Name, &c.Count); err != nil {
			return nil, fmt.Errorf("sqlite: scanning ticket type count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating ticket type counts: %w", err)
	}
	return counts, nil
}

// entryTimes returns the entry time of every entered guest. Bucketing by hour
// happens in the service, in the event's configured time zone.
func entryTimes(ctx context.Context, tx *sql.Tx, eventID int64) ([]time.Time, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT entry_time FROM guests
		 WHERE event_id = ? AND entry_time IS NOT NULL
		 ORDER BY entry_time`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading entry times: %w", err)
	}
	defer rows.Close()

	times := make([]time.Time, 0)
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("sqlite: scanning entry time: %w", err)
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating entry times: %w", err)
	}
	return times, nil
}
