package store

import (
	"database/sql"
	"fmt"
	"time"
)

// EnforceRetentionDays deletes audit events and metric samples older than
// days, in one transaction, and returns the number of rows removed.
func (s *Store) EnforceRetentionDays(days int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)
	var deleted int
	err := s.withTransaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM audit_events WHERE ts < ?`, cutoff)
		if err != nil {
			return fmt.Errorf("failed to enforce retention on audit_events: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to count deleted audit_events: %w", err)
		}
		deleted += int(n)

		res, err = tx.Exec(`DELETE FROM metric_samples WHERE ts < ?`, cutoff)
		if err != nil {
			return fmt.Errorf("failed to enforce retention on metric_samples: %w", err)
		}
		n, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to count deleted metric_samples: %w", err)
		}
		deleted += int(n)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
