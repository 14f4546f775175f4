package store

import (
	"context"
	"fmt"

	"attendance-portal/internal/attendance"
	"attendance-portal/internal/config"
	"attendance-portal/internal/identity"
	"attendance-portal/internal/leave"
	"attendance-portal/internal/store/memstore"
	"attendance-portal/internal/store/mongostore"
	"attendance-portal/internal/store/sqlstore"
)

// Backend bundles the repositories of one configured engine.
type Backend struct {
	Name       string
	Users      identity.Store
	Attendance attendance.Repository
	Leave      leave.Repository
	engine     engine
}

type engine interface {
	Ping(context.Context) error
	Close() error
}

// Ping checks the engine is reachable.
func (b *Backend) Ping(ctx context.Context) error { return b.engine.Ping(ctx) }

// Close releases the engine's connections.
func (b *Backend) Close() error { return b.engine.Close() }

// Open connects the engine selected by cfg.Backend and prepares its schema.
func Open(ctx context.Context, cfg config.Store) (*Backend, error) {
	const op = "store.Open"

	switch cfg.Backend {
	case config.StoreMemory:
		s := memstore.New()
		return &Backend{Name: cfg.Backend, Users: s.Users(), Attendance: s.Attendance(), Leave: s.Leave(), engine: s}, nil

	case config.StorePostgres, config.StoreSQLite:
		var (
			db      *DB
			err     error
			dialect = sqlstore.Postgres
		)
		if cfg.Backend == config.StoreSQLite {
			db, err = NewSQLite(ctx, cfg.SQLitePath)
			dialect = sqlstore.SQLite
		} else {
			db, err = NewPostgres(ctx, cfg.DatabaseURL)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s := sqlstore.New(db.Client, dialect)
		if err := s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &Backend{Name: cfg.Backend, Users: s.Users(), Attendance: s.Attendance(), Leave: s.Leave(), engine: s}, nil

	case config.StoreMongo:
		s, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &Backend{Name: cfg.Backend, Users: s.Users(), Attendance: s.Attendance(), Leave: s.Leave(), engine: s}, nil

	default:
		return nil, fmt.Errorf("%s: unknown backend %q", op, cfg.Backend)
	}
}
