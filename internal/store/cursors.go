package store

import (
	"database/sql"
	"fmt"

	"github.com/danvoulez/voulezvous-tv/internal/domain"
)

// LoadSchedulerCursors returns the singleton cursor row seeded by Migrate.
func (s *Store) LoadSchedulerCursors() (domain.SchedulerCursors, error) {
	var c domain.SchedulerCursors
	err := s.conn.QueryRow(`
		SELECT last_discovery_hour, last_commit_slot, last_nightly_date
		FROM scheduler_cursors WHERE id = 1
	`).Scan(&c.LastDiscoveryHour, &c.LastCommitSlot, &c.LastNightlyDate)
	if err != nil {
		return domain.SchedulerCursors{}, fmt.Errorf("failed to load scheduler cursors: %w", err)
	}
	return c, nil
}

// SaveSchedulerCursors overwrites the singleton cursor row.
func (s *Store) SaveSchedulerCursors(c domain.SchedulerCursors) error {
	return s.withTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			UPDATE scheduler_cursors
			SET last_discovery_hour = ?, last_commit_slot = ?, last_nightly_date = ?
			WHERE id = 1
		`, c.LastDiscoveryHour, c.LastCommitSlot, c.LastNightlyDate)
		if err != nil {
			return fmt.Errorf("failed to save scheduler cursors: %w", err)
		}
		return nil
	})
}
