// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// A door check-in tool runs on one box next to the entrance more often than in
// a cluster. SQLite is an embedded database: it lives inside the Go binary as
// a single file, so there is no separate server to install or keep alive.
// Tests open a fresh database file in a temp dir per test.
//
// modernc.org/sqlite is a pure Go translation of the SQLite C code, so no C
// compiler is needed and cross-compilation keeps working.
//
// SCHEMA MIGRATIONS:
// The schema lives in migrations/*.sql, embedded into the binary and applied
// with goose. New() migrates to the latest version; the `migrate` CLI command
// exposes up/down/status for operators.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/sakif/guestlist/internal/repository"
)

//go:embed migrations/*.sql
var migrations embed.FS

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and implements every repository
// interface of the application.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and migrates it to the latest schema.
//
// dbPath examples:
//   - "data/guestlist.db"  → file-based database (persistent)
//   - ":memory:"           → in-memory database (tests)
//
// Connection-level settings go in the DSN so that every pooled connection
// gets them, not just the first one:
//   - foreign_keys(1): SQLite ignores REFERENCES clauses unless enabled, and
//     event deletion relies on ON DELETE CASCADE.
//   - busy_timeout: wait for a competing writer instead of failing at once.
//   - _time_format=sqlite: store times in a sortable SQLite-style layout.
func New(dbPath string) (*DB, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.MigrateUp(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Open connects to the database without touching the schema. The migrate
// command uses it so "status" and "down" see the schema as it is.
func Open(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is its own empty database, so the pool
	// must never grow past one.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers (stats dashboards) proceed while a check-in is being
	// written. It is a property of the database file, so one Exec is enough.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	return &DB{conn: conn}, nil
}

func dsn(dbPath string) string {
	params := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	if strings.Contains(dbPath, "?") {
		return dbPath + "&" + params
	}
	return dbPath + "?" + params
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// MigrationStatus describes one schema migration for the CLI.
type MigrationStatus struct {
	Version int64
	Name    string
	Applied bool
}

func (db *DB) provider() (*goose.Provider, error) {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading embedded migrations: %w", err)
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, db.conn, sub)
	if err != nil {
		return nil, fmt.Errorf("sqlite: creating migration provider: %w", err)
	}
	return p, nil
}

// MigrateUp applies every pending migration and returns how many ran.
func (db *DB) MigrateUp(ctx context.Context) (int, error) {
	p, err := db.provider()
	if err != nil {
		return 0, err
	}
	results, err := p.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("sqlite: migrating up: %w", err)
	}
	return len(results), nil
}

// MigrateDown rolls back the most recent migration. It reports false when
// there was nothing to roll back.
func (db *DB) MigrateDown(ctx context.Context) (bool, error) {
	p, err := db.provider()
	if err != nil {
		return false, err
	}
	if _, err := p.Down(ctx); err != nil {
		if errors.Is(err, goose.ErrNoNextVersion) {
			return false, nil
		}
		return false, fmt.Errorf("sqlite: migrating down: %w", err)
	}
	return true, nil
}

// MigrateStatus lists every known migration and whether it is applied.
func (db *DB) MigrateStatus(ctx context.Context) ([]MigrationStatus, error) {
	p, err := db.provider()
	if err != nil {
		return nil, err
	}
	statuses, err := p.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading migration status: %w", err)
	}

	out := make([]MigrationStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationStatus{
			Version: s.Source.Version,
			Name:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// The driver's error text is stable ("UNIQUE constraint failed: ...") and
// matching it avoids importing the driver's internal error codes.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation reports whether err is a FOREIGN KEY constraint failure.
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
