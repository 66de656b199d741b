package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/danvoulez/voulezvous-tv/internal/domain"
)

// LoadAlertStates returns every tracked alert code's current state.
func (s *Store) LoadAlertStates() ([]domain.AlertStateRecord, error) {
	rows, err := s.conn.Query(`
		SELECT code, active, last_notified_at, updated_at FROM alert_states
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert states: %w", err)
	}
	defer rows.Close()

	var out []domain.AlertStateRecord
	for rows.Next() {
		var rec domain.AlertStateRecord
		var active int
		var lastNotified, updated string
		if err := rows.Scan(&rec.Code, &active, &lastNotified, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan alert state row: %w", err)
		}
		rec.Active = active != 0
		rec.LastNotifiedAt, _ = time.Parse(time.RFC3339, lastNotified)
		rec.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alert state rows: %w", err)
	}
	return out, nil
}

// UpsertAlertState writes the current active/notified state for one code.
func (s *Store) UpsertAlertState(rec domain.AlertStateRecord) error {
	return s.withTransaction(func(tx *sql.Tx) error {
		active := 0
		if rec.Active {
			active = 1
		}
		_, err := tx.Exec(`
			INSERT INTO alert_states (code, active, last_notified_at, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(code) DO UPDATE SET
				active = excluded.active,
				last_notified_at = excluded.last_notified_at,
				updated_at = excluded.updated_at
		`, rec.Code, active, rec.LastNotifiedAt.UTC().Format(time.RFC3339), nowRFC3339())
		if err != nil {
			return fmt.Errorf("failed to upsert alert state %s: %w", rec.Code, err)
		}
		return nil
	})
}
