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

var _ repository.TicketTypeRepository = (*DB)(nil)

const ticketTypeColumns = `id, name, description, price, limit_count, event_id, created_at`

func scanTicketType(row rowScanner) (*model.TicketType, error) {
	var (
		tt          model.TicketType
		description sql.Null[string]
		price       sql.Null[float64]
		limit       sql.Null[int]
	)
	if err := row.Scan(
		&tt.ID, &tt.Name, &description, &price, &limit, &tt.EventID, &tt.CreatedAt,
	); err != nil {
		return nil, err
	}
	tt.Description = model.FromNull(description)
	tt.Price = model.FromNull(price)
	tt.Limit = model.FromNull(limit)
	return &tt, nil
}

// nullLimit converts the limit for writing. database/sql only accepts int64
// integers from a Valuer, so sql.Null[int] cannot be passed directly.
func nullLimit(limit model.Optional[int]) sql.NullInt64 {
	v, ok := limit.Get()
	return sql.NullInt64{Int64: int64(v), Valid: ok}
}

// CreateTicketType inserts a ticket type. A duplicate name within the same
// event is reported as a conflict.
func (db *DB) CreateTicketType(ctx context.Context, tt *model.TicketType) error {
	tt.CreatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO ticket_types (name, description, price, limit_count, event_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tt.Name,
		tt.Description.Null(),
		tt.Price.Null(),
		nullLimit(tt.Limit),
		tt.EventID,
		tt.CreatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return apperror.Conflict(fmt.Sprintf("ticket type %q already exists for this event", tt.Name))
		case isForeignKeyViolation(err):
			return apperror.NotFound("event", strconv.FormatInt(tt.EventID, 10))
		}
		return fmt.Errorf("sqlite: creating ticket type: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading ticket type id: %w", err)
	}
	tt.ID = id
	return nil
}

// GetTicketType retrieves a single ticket type by its ID.
func (db *DB) GetTicketType(ctx context.Context, id int64) (*model.TicketType, error) {
	tt, err := scanTicketType(db.conn.QueryRowContext(ctx,
		`SELECT `+ticketTypeColumns+` FROM ticket_types WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("ticket type", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting ticket type %d: %w", id, err)
	}
	return tt, nil
}

// ListTicketTypes returns the ticket types of an event in creation order.
func (db *DB) ListTicketTypes(ctx context.Context, eventID int64) ([]model.TicketType, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+ticketTypeColumns+` FROM ticket_types WHERE event_id = ? ORDER BY id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing ticket types: %w", err)
	}
	defer rows.Close()

	ticketTypes := make([]model.TicketType, 0)
	for rows.Next() {
		tt, err := scanTicketType(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning ticket type row: %w", err)
		}
		ticketTypes = append(ticketTypes, *tt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating ticket types: %w", err)
	}

	return ticketTypes, nil
}

// UpdateTicketType writes name, description, price and limit.
//
// A new limit below the number of guests already holding the ticket type is
// refused inside the same statement, so a concurrent guest insert cannot slip
// in between the check and the write.
func (db *DB) UpdateTicketType(ctx context.Context, tt *model.TicketType) error {
	limit := nullLimit(tt.Limit)

	result, err := db.conn.ExecContext(ctx,
		`UPDATE ticket_types
		 SET name = ?, description = ?, price = ?, limit_count = ?
		 WHERE id = ?
		   AND (? IS NULL OR ? >= (SELECT COUNT(*) FROM guests WHERE ticket_type_id = ?))`,
		tt.Name,
		tt.Description.Null(),
		tt.Price.Null(),
		limit,
		tt.ID,
		limit, limit, tt.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(fmt.Sprintf("ticket type %q already exists for this event", tt.Name))
		}
		return fmt.Errorf("sqlite: updating ticket type %d: %w", tt.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Either the row is gone or the limit check refused the write.
		if _, err := db.GetTicketType(ctx, tt.ID); err != nil {
			return err
		}
		return apperror.Conflict(fmt.Sprintf(
			"ticket type %q already has more guests than the new limit", tt.Name))
	}
	return nil
}

// DeleteTicketType removes a ticket type that no guest holds. The foreign key
// on guests.ticket_type_id refuses the delete otherwise, which is reported as
// a conflict.
func (db *DB) DeleteTicketType(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM ticket_types WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.Conflict("ticket type still has guests; move or delete them first")
		}
		return fmt.Errorf("sqlite: deleting ticket type %d: %w", id, err)
	}

	return expectOneRow(result, "ticket type", id)
}

// CountGuestsByTicketType returns how many guests hold the ticket type.
func (db *DB) CountGuestsByTicketType(ctx context.Context, ticketTypeID int64) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM guests WHERE ticket_type_id = ?`, ticketTypeID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting guests of ticket type %d: %w", ticketTypeID, err)
	}
	return n, nil
}
