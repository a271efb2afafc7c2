// Package postgres persists save records in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/arpgcore/internal/config"
)

// Pool wraps a pgx connection pool with health-check and lifecycle methods.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects a pool sized by cfg and verifies it with a ping.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a connected Pool or a non-nil error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Pool{pool: pool}, nil
}

// Health checks that the database is reachable within the given timeout.
//
// Precondition: The pool must not be closed.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Close releases all pool resources.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool for use by repositories.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}

// Migrate applies migrations from dir to the database at dsn.
//
// steps > 0 applies that many up migrations, steps < 0 rolls back that many,
// and steps == 0 applies everything pending (or, with down set, rolls
// everything back).
// Postcondition: Returns the resulting schema version and whether any
// migration ran.
func Migrate(dsn, dir string, steps int, down bool) (version uint, changed bool, err error) {
	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return 0, false, fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	switch {
	case steps != 0:
		err = m.Steps(steps)
	case down:
		err = m.Down()
	default:
		err = m.Up()
	}
	changed = true
	if errors.Is(err, migrate.ErrNoChange) {
		changed, err = false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migrating: %w", err)
	}

	version, dirty, verr := m.Version()
	if errors.Is(verr, migrate.ErrNilVersion) {
		return 0, changed, nil
	}
	if verr != nil {
		return 0, changed, fmt.Errorf("reading schema version: %w", verr)
	}
	if dirty {
		return version, changed, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, changed, nil
}
