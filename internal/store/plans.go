package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danvoulez/voulezvous-tv/internal/domain"
)

// SavePlans transactionally upserts each plan keyed by plan_id, updating
// updated_at. A failure leaves every previously-stored row intact.
func (s *Store) SavePlans(items []domain.PlanItem) error {
	return s.withTransaction(func(tx *sql.Tx) error {
		for _, item := range items {
			payload, err := json.Marshal(item)
			if err != nil {
				return fmt.Errorf("failed to marshal plan %s: %w", item.PlanID, err)
			}
			_, err = tx.Exec(`
				INSERT INTO plans (plan_id, state, payload, updated_at)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(plan_id) DO UPDATE SET
					state = excluded.state,
					payload = excluded.payload,
					updated_at = excluded.updated_at
			`, item.PlanID, string(item.State), string(payload), nowRFC3339())
			if err != nil {
				return fmt.Errorf("failed to upsert plan %s: %w", item.PlanID, err)
			}
		}
		return nil
	})
}

// LoadAllPlans returns every persisted plan, regardless of state.
func (s *Store) LoadAllPlans() ([]domain.PlanItem, error) {
	rows, err := s.conn.Query(`SELECT payload FROM plans`)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()
	return scanPlanRows(rows)
}

// LoadPlansUpdatedBetween returns plans with updated_at in
// [startInclusive, endExclusive), ordered ascending by updated_at.
func (s *Store) LoadPlansUpdatedBetween(startInclusive, endExclusive time.Time) ([]domain.PlanItem, error) {
	rows, err := s.conn.Query(`
		SELECT payload FROM plans
		WHERE updated_at >= ? AND updated_at < ?
		ORDER BY updated_at ASC
	`, startInclusive.UTC().Format(time.RFC3339), endExclusive.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query plans by window: %w", err)
	}
	defer rows.Close()
	return scanPlanRows(rows)
}

func scanPlanRows(rows *sql.Rows) ([]domain.PlanItem, error) {
	var out []domain.PlanItem
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan plan row: %w", err)
		}
		var item domain.PlanItem
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return nil, fmt.Errorf("failed to decode plan payload: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plan rows: %w", err)
	}
	return out, nil
}
