package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// SQL driver names registered by the imports above.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

// DB wraps sql.DB opened with one of the supported drivers.
type DB struct {
	Client *sql.DB
	Driver string
}

// NewPostgres opens a Postgres pool through pgx with sane defaults.
func NewPostgres(ctx context.Context, connString string) (*DB, error) {
	db, err := sql.Open(DriverPostgres, connString)
	if err != nil {
		return nil, fmt.Errorf("store.NewPostgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return ping(ctx, &DB{Client: db, Driver: DriverPostgres})
}

// NewSQLite opens a WAL-mode SQLite file, creating its directory if needed.
func NewSQLite(ctx context.Context, path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store.NewSQLite: %w", err)
		}
	}
	db, err := sql.Open(DriverSQLite, path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store.NewSQLite: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	return ping(ctx, &DB{Client: db, Driver: DriverSQLite})
}

func ping(ctx context.Context, d *DB) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := d.Client.PingContext(ctx); err != nil {
		_ = d.Client.Close()
		return nil, fmt.Errorf("ping %s: %w", d.Driver, err)
	}
	return d, nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
