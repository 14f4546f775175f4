// Package sqlstore persists users, attendance and leave in Postgres (pgx) or
// SQLite. Queries use $N placeholders in ascending order so both drivers bind
// them positionally. Uniqueness is enforced by indexes and conditional
// inserts, never by a read before the write.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"attendance-portal/internal/apperr"
)

// Dialect selects the schema flavour.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// Store holds the connection shared by the repository views.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps an open database. Call Migrate before first use.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Users exposes the credential store view.
func (s *Store) Users() *Users { return &Users{db: s.db} }

// Attendance exposes the attendance repository view.
func (s *Store) Attendance() *Attendance { return &Attendance{db: s.db} }

// Leave exposes the leave repository view.
func (s *Store) Leave() *Leave { return &Leave{db: s.db} }

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close closes the connection.
func (s *Store) Close() error { return s.db.Close() }

// Migrate creates tables and unique indexes if they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	ts := "TIMESTAMPTZ"
	if s.dialect == SQLite {
		ts = "DATETIME"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id              TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			email           TEXT NOT NULL,
			password_hash   TEXT NOT NULL,
			role            TEXT NOT NULL,
			profile_picture TEXT NOT NULL DEFAULT '',
			created_at      ` + ts + ` NOT NULL,
			updated_at      ` + ts + ` NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email)`,
		`CREATE TABLE IF NOT EXISTS attendance_records (
			id         TEXT PRIMARY KEY,
			user_name  TEXT NOT NULL,
			user_email TEXT NOT NULL,
			mark_date  TEXT NOT NULL,
			mark_time  TEXT NOT NULL,
			created_at ` + ts + ` NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS attendance_email_date_key ON attendance_records (user_email, mark_date)`,
		`CREATE TABLE IF NOT EXISTS leave_requests (
			id         TEXT PRIMARY KEY,
			user_name  TEXT NOT NULL,
			user_email TEXT NOT NULL,
			from_date  TEXT NOT NULL,
			to_date    TEXT NOT NULL,
			reason     TEXT NOT NULL,
			status     TEXT NOT NULL,
			created_at ` + ts + ` NOT NULL,
			decided_at ` + ts + ` NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS leave_email_from_key ON leave_requests (user_email, from_date)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlstore.Migrate: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return isSQLiteUnique(err)
}

// affectedOne turns an Exec result that touched no row into NotFound.
func affectedOne(res sql.Result, err error, op string) error {
	if err != nil {
		return apperr.Store(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Store(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: record", apperr.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}
