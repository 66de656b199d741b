package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danvoulez/voulezvous-tv/internal/domain"
)

// ReplaceQueue atomically replaces the entire queue: delete-all then
// insert-all within one transaction. Readers never observe an empty queue
// concurrent with a write — they see either the prior queue in full or the
// new one in full.
func (s *Store) ReplaceQueue(entries []domain.QueueEntry) error {
	return s.withTransaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM queue_entries`); err != nil {
			return fmt.Errorf("failed to clear queue: %w", err)
		}
		for _, e := range entries {
			payload, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("failed to marshal queue entry %s: %w", e.EntryID, err)
			}
			_, err = tx.Exec(`
				INSERT INTO queue_entries (entry_id, asset_id, start_at, payload)
				VALUES (?, ?, ?, ?)
			`, e.EntryID, e.AssetID, e.StartAt.UTC().Format(time.RFC3339), string(payload))
			if err != nil {
				return fmt.Errorf("failed to insert queue entry %s: %w", e.EntryID, err)
			}
		}
		return nil
	})
}

// LoadQueue returns the current queue ordered by start_at ascending.
func (s *Store) LoadQueue() ([]domain.QueueEntry, error) {
	rows, err := s.conn.Query(`SELECT payload FROM queue_entries ORDER BY start_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue: %w", err)
	}
	defer rows.Close()

	var out []domain.QueueEntry
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan queue row: %w", err)
		}
		var e domain.QueueEntry
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return nil, fmt.Errorf("failed to decode queue payload: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue rows: %w", err)
	}
	return out, nil
}
