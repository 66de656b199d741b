// Package store is the durable relational state store: plans, assets, the
// queue, audit events, metric samples, scheduler cursors/leases, and alert
// state. Every table carries a JSON payload column for forward schema
// evolution, the same convention the teacher's per-database schema files use.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // pure-Go SQLite driver, no CGo
)

//go:embed schema.sql
var schemaSQL string

// Store wraps a single-file SQLite database with production PRAGMA settings
// and exposes the operations in spec §4.1.
type Store struct {
	conn *sql.DB
	path string
	log  zerolog.Logger
}

// Open creates the data directory if needed and opens the database with the
// WAL + NORMAL-synchronous PRAGMA profile the teacher's ProfileStandard
// uses — a balance of durability and throughput appropriate for a single
// always-on writer guarded by the scheduler lease.
func Open(path string, log zerolog.Logger) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve state db path: %w", err)
	}

	connStr := buildConnectionString(absPath)
	conn, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open state db: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(24 * time.Hour)
	conn.SetConnMaxIdleTime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping state db: %w", err)
	}

	return &Store{conn: conn, path: absPath, log: log.With().Str("component", "store").Logger()}, nil
}

func buildConnectionString(path string) string {
	var b strings.Builder
	b.WriteString(path)
	b.WriteString("?_pragma=journal_mode(WAL)")
	b.WriteString("&_pragma=synchronous(NORMAL)")
	b.WriteString("&_pragma=auto_vacuum(INCREMENTAL)")
	b.WriteString("&_pragma=foreign_keys(1)")
	b.WriteString("&_pragma=wal_autocheckpoint(1000)")
	b.WriteString("&_pragma=cache_size(-64000)")
	b.WriteString("&_pragma=busy_timeout(5000)")
	return b.String()
}

// Migrate applies the embedded schema. It is idempotent: re-running against
// an already-migrated database is a no-op, since every statement uses
// CREATE TABLE/INDEX IF NOT EXISTS.
func (s *Store) Migrate() error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	if _, err := tx.Exec(schemaSQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}

	// The singleton cursor row must exist so load/save never special-case
	// the zero-row case.
	_, err = s.conn.Exec(`INSERT OR IGNORE INTO scheduler_cursors (id) VALUES (1)`)
	if err != nil {
		return fmt.Errorf("failed to seed scheduler cursors row: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the absolute path to the database file.
func (s *Store) Path() string {
	return s.path
}

// Conn exposes the underlying *sql.DB for maintenance operations
// (GetStats, WALCheckpoint, Vacuum) that don't belong to any one table.
func (s *Store) Conn() *sql.DB {
	return s.conn
}

// withTransaction runs fn inside a transaction, rolling back on error or
// panic and committing otherwise. Mirrors the teacher's WithTransaction
// helper in internal/database/db.go.
func (s *Store) withTransaction(fn func(*sql.Tx) error) (err error) {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("transaction failed: %w (rollback also failed: %v)", err, rbErr)
			}
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(tx)
	return err
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
