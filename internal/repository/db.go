// Package repository persists jobs and their files over database/sql.
// Two backends are supported: embedded SQLite for single-node deployments
// and PostgreSQL when DB_URL carries a postgres DSN.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Store owns the connection and knows which placeholder style the
// backend expects.
type Store struct {
	DB      *sql.DB
	Dialect string
	log     *slog.Logger
}

// Open picks the backend from the DSN: postgres:// and postgresql://
// go through pgx, anything else is treated as a SQLite file path.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		db      *sql.DB
		dialect string
		err     error
	)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialect = DialectPostgres
		db, err = sql.Open("pgx", dsn)
	} else {
		dialect = DialectSQLite
		db, err = sql.Open("sqlite", dsn+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(10000)")
	}
	if err != nil {
		logger.Error("db.open.failed", "dialect", dialect, "error", err)
		return nil, err
	}
	if dialect == DialectSQLite {
		// modernc serializes writes; one writer connection avoids
		// SQLITE_BUSY under concurrent job updates.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		logger.Error("db.ping.failed", "dialect", dialect, "error", err)
		_ = db.Close()
		return nil, err
	}

	logger.Info("db.open.ok", "dialect", dialect)
	return &Store{DB: db, Dialect: dialect, log: logger}, nil
}

func (s *Store) Close() error {
	s.log.Info("db.close")
	return s.DB.Close()
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id              TEXT PRIMARY KEY,
		status          TEXT NOT NULL,
		options         TEXT NOT NULL DEFAULT '{}',
		total_files     INTEGER NOT NULL DEFAULT 0,
		completed_files INTEGER NOT NULL DEFAULT 0,
		error           TEXT NOT NULL DEFAULT '',
		started_at      TEXT NOT NULL,
		completed_at    TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS job_files (
		id           TEXT PRIMARY KEY,
		job_id       TEXT NOT NULL REFERENCES jobs(id),
		filename     TEXT NOT NULL,
		source_path  TEXT NOT NULL,
		status       TEXT NOT NULL,
		error        TEXT NOT NULL DEFAULT '',
		plain_path   TEXT NOT NULL DEFAULT '',
		summary_path TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_job_files_job ON job_files(job_id)`,
}

// Migrate applies the schema. Statements are idempotent so this runs on
// every startup.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			s.log.Error("db.migrate.failed", "error", err)
			return fmt.Errorf("migrate: %w", err)
		}
	}
	s.log.Info("db.migrate.ok", "statements", len(migrations))
	return nil
}

// rebind converts ? placeholders to $1..$N for postgres. Queries are
// written in the sqlite style and rewritten here.
func (s *Store) rebind(query string) string {
	if s.Dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
