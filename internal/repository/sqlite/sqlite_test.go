package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sakif/guestlist/internal/model"
)

// newTestDB returns a freshly migrated database in the test's temp dir.
//
// A file (rather than ":memory:") lets the pool hold several connections, so
// the concurrency tests exercise SQLite's real write serialisation.
// t.Cleanup closes it when the test finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser is a test helper that creates a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, githubID int64, login string) *model.User {
	t.Helper()
	user := &model.User{
		GitHubID:    githubID,
		Login:       login,
		Email:       login + "@example.com",
		DisplayName: login,
		AvatarURL:   "https://avatars.githubusercontent.com/u/123",
	}
	if err := db.Upsert(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestEvent(t *testing.T, db *DB, userID, name string) *model.Event {
	t.Helper()
	event := &model.Event{
		Name:     name,
		Date:     time.Now().Add(48 * time.Hour),
		Duration: 6,
		UserID:   userID,
	}
	if err := db.CreateEvent(context.Background(), event); err != nil {
		t.Fatalf("failed to create test event: %v", err)
	}
	return event
}

func createTestTicketType(t *testing.T, db *DB, eventID int64, name string, limit model.Optional[int]) *model.TicketType {
	t.Helper()
	tt := &model.TicketType{
		Name:    name,
		EventID: eventID,
		Limit:   limit,
	}
	if err := db.CreateTicketType(context.Background(), tt); err != nil {
		t.Fatalf("failed to create test ticket type: %v", err)
	}
	return tt
}

func createTestGuest(t *testing.T, db *DB, tt *model.TicketType, name string) *model.Guest {
	t.Helper()
	guest := &model.Guest{
		Name:         name,
		TicketTypeID: tt.ID,
		EventID:      tt.EventID,
	}
	if err := db.CreateGuest(context.Background(), guest); err != nil {
		t.Fatalf("failed to create test guest: %v", err)
	}
	return guest
}

func TestMigrateStatus_AllApplied(t *testing.T) {
	db := newTestDB(t)

	statuses, err := db.MigrateStatus(context.Background())
	if err != nil {
		t.Fatalf("MigrateStatus() error = %v", err)
	}
	if len(statuses) == 0 {
		t.Fatal("MigrateStatus() returned no migrations")
	}
	for _, s := range statuses {
		if !s.Applied {
			t.Errorf("migration %d (%s) not applied after New()", s.Version, s.Name)
		}
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := newTestDB(t)

	n, err := db.MigrateUp(context.Background())
	if err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}
	if n != 0 {
		t.Errorf("MigrateUp() on a migrated db ran %d migrations, want 0", n)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)

	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
