// Package db picks a repository adapter from the persistence URL scheme.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/jmoiron/sqlx"

	"github.com/bryanwahyu/launchlab/internal/domain/access"
	"github.com/bryanwahyu/launchlab/internal/domain/analysis"
	"github.com/bryanwahyu/launchlab/internal/infra/db/memory"
	"github.com/bryanwahyu/launchlab/internal/infra/db/mysql"
	"github.com/bryanwahyu/launchlab/internal/infra/db/postgres"
	"github.com/bryanwahyu/launchlab/internal/infra/db/sqlite"
)

// Store bundles the repositories of one backend.
type Store struct {
	Driver   string
	Analyses analysis.Repository
	Tokens   access.Repository

	migrate func(ctx context.Context) error
	ping    func(ctx context.Context) error
	close   func() error
}

// Open connects to the store named by rawURL. key is the store password and
// is ignored by sqlite:// and memory://.
func Open(ctx context.Context, rawURL, key string) (*Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse persistence url: %w", err)
	}
	switch u.Scheme {
	case "mysql":
		conn, err := mysql.Connect(ctx, mysql.DSN(u, key))
		if err != nil {
			return nil, fmt.Errorf("connect mysql: %w", err)
		}
		return sqlStore("mysql", conn, mysql.NewAnalysisRepository(conn), mysql.NewTokenRepository(conn),
			func(ctx context.Context) error { return mysql.Migrate(ctx, conn) }), nil
	case "postgres", "postgresql":
		conn, err := postgres.Connect(ctx, postgres.DSN(u, key))
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return sqlStore("postgres", conn, postgres.NewAnalysisRepository(conn), postgres.NewTokenRepository(conn),
			func(ctx context.Context) error { return postgres.Migrate(ctx, conn) }), nil
	case "sqlite":
		conn, err := sqlite.Open(ctx, u.Host+u.Path)
		if err != nil {
			return nil, err
		}
		return sqliteStore(conn), nil
	case "memory":
		return &Store{
			Driver:   "memory",
			Analyses: memory.NewAnalysisRepository(),
			Tokens:   memory.NewTokenRepository(),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported persistence scheme %q", u.Scheme)
	}
}

func sqlStore(driver string, conn *sql.DB, a analysis.Repository, t access.Repository, migrate func(context.Context) error) *Store {
	return &Store{
		Driver:   driver,
		Analyses: a,
		Tokens:   t,
		migrate:  migrate,
		ping:     conn.PingContext,
		close:    conn.Close,
	}
}

func sqliteStore(conn *sqlx.DB) *Store {
	return &Store{
		Driver:   "sqlite",
		Analyses: sqlite.NewAnalysisRepository(conn),
		Tokens:   sqlite.NewTokenRepository(conn),
		migrate:  func(ctx context.Context) error { return sqlite.Migrate(ctx, conn) },
		ping:     conn.PingContext,
		close:    conn.Close,
	}
}

// Migrate creates missing tables.
func (s *Store) Migrate(ctx context.Context) error {
	if s.migrate == nil {
		return nil
	}
	return s.migrate(ctx)
}

// Ping checks connectivity; always nil for the in-memory store.
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
