package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/guestlist/internal/apperror"
	"github.com/sakif/guestlist/internal/model"
	"github.com/sakif/guestlist/internal/repository"
)

var _ repository.UserRepository = (*DB)(nil)

// Upsert inserts the organizer or refreshes the profile of the existing row
// with the same GitHub ID, then loads the ID and creation time of that row
// back into user.
//
// The internal ID must survive repeated logins because events reference it,
// so a conflict on github_id UPDATEs the row in place. REPLACE INTO would
// delete the row and cascade-delete the organizer's events.
func (db *DB) Upsert(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, github_id, login, email, display_name, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (github_id) DO UPDATE SET
		   login = excluded.login,
		   email = excluded.email,
		   display_name = excluded.display_name,
		   avatar_url = excluded.avatar_url,
		   updated_at = excluded.updated_at`,
		xid.New().String(),
		user.GitHubID,
		user.Login,
		user.Email,
		user.DisplayName,
		user.AvatarURL,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting user (githubID=%d): %w", user.GitHubID, err)
	}

	err = db.conn.QueryRowContext(ctx,
		`SELECT id, created_at FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: reading back user (githubID=%d): %w", user.GitHubID, err)
	}

	user.UpdatedAt = now
	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, github_id, login, email, display_name, avatar_url, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(
		&u.ID,
		&u.GitHubID,
		&u.Login,
		&u.Email,
		&u.DisplayName,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}
