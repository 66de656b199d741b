package store

import (
	"context"
	"fmt"
	"os"
)

// Stats reports database file size and page-level statistics, used by the
// nightly window's maintenance pass.
type Stats struct {
	SizeBytes     int64
	WALSizeBytes  int64
	PageCount     int64
	PageSize      int64
	FreelistCount int64
}

// GetStats reads file sizes from disk and page accounting from SQLite
// PRAGMAs.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}

	if fi, err := os.Stat(s.path); err == nil {
		stats.SizeBytes = fi.Size()
	}
	if fi, err := os.Stat(s.path + "-wal"); err == nil {
		stats.WALSizeBytes = fi.Size()
	}

	if err := s.conn.QueryRow("PRAGMA page_count").Scan(&stats.PageCount); err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}
	if err := s.conn.QueryRow("PRAGMA page_size").Scan(&stats.PageSize); err != nil {
		return nil, fmt.Errorf("failed to get page size: %w", err)
	}
	if err := s.conn.QueryRow("PRAGMA freelist_count").Scan(&stats.FreelistCount); err != nil {
		return nil, fmt.Errorf("failed to get freelist count: %w", err)
	}

	return stats, nil
}

// WALCheckpoint forces a checkpoint to keep the WAL file from growing
// unbounded between nightly maintenance passes. TRUNCATE also shrinks the
// WAL file back down, unlike PASSIVE/FULL/RESTART.
func (s *Store) WALCheckpoint(mode string) error {
	if mode == "" {
		mode = "TRUNCATE"
	}
	if _, err := s.conn.Exec(fmt.Sprintf("PRAGMA wal_checkpoint(%s)", mode)); err != nil {
		return fmt.Errorf("wal checkpoint failed: %w", err)
	}
	return nil
}

// Vacuum rebuilds the database file to reclaim space freed by retention
// deletes. Expensive; the nightly window is the only caller.
func (s *Store) Vacuum() error {
	if _, err := s.conn.Exec("VACUUM"); err != nil {
		return fmt.Errorf("vacuum failed: %w", err)
	}
	return nil
}

// HealthCheck pings the connection and runs a full integrity check. No
// request handler or scheduler window calls it.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var result string
	if err := s.conn.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

// VacuumInto performs the backup subsystem's online transactional
// snapshot: SQLite's VACUUM INTO writes a compacted, consistent copy of
// the live database to destPath without blocking concurrent readers.
func (s *Store) VacuumInto(destPath string) error {
	if _, err := s.conn.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("vacuum into %s failed: %w", destPath, err)
	}
	return nil
}
