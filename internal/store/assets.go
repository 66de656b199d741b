package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danvoulez/voulezvous-tv/internal/domain"
)

// SaveAssets transactionally upserts each asset keyed by asset_id.
func (s *Store) SaveAssets(items []domain.AssetItem) error {
	return s.withTransaction(func(tx *sql.Tx) error {
		for _, item := range items {
			payload, err := json.Marshal(item)
			if err != nil {
				return fmt.Errorf("failed to marshal asset %s: %w", item.AssetID, err)
			}
			_, err = tx.Exec(`
				INSERT INTO assets (asset_id, plan_id, qa_status, payload, updated_at)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(asset_id) DO UPDATE SET
					plan_id = excluded.plan_id,
					qa_status = excluded.qa_status,
					payload = excluded.payload,
					updated_at = excluded.updated_at
			`, item.AssetID, item.PlanID, string(item.QaStatus), string(payload), nowRFC3339())
			if err != nil {
				return fmt.Errorf("failed to upsert asset %s: %w", item.AssetID, err)
			}
		}
		return nil
	})
}

// LoadAllAssets returns every persisted asset.
func (s *Store) LoadAllAssets() ([]domain.AssetItem, error) {
	rows, err := s.conn.Query(`SELECT payload FROM assets`)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()
	return scanAssetRows(rows)
}

// LoadAssetsUpdatedBetween returns assets with updated_at in
// [startInclusive, endExclusive), ordered ascending.
func (s *Store) LoadAssetsUpdatedBetween(startInclusive, endExclusive time.Time) ([]domain.AssetItem, error) {
	rows, err := s.conn.Query(`
		SELECT payload FROM assets
		WHERE updated_at >= ? AND updated_at < ?
		ORDER BY updated_at ASC
	`, startInclusive.UTC().Format(time.RFC3339), endExclusive.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query assets by window: %w", err)
	}
	defer rows.Close()
	return scanAssetRows(rows)
}

func scanAssetRows(rows *sql.Rows) ([]domain.AssetItem, error) {
	var out []domain.AssetItem
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan asset row: %w", err)
		}
		var item domain.AssetItem
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return nil, fmt.Errorf("failed to decode asset payload: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate asset rows: %w", err)
	}
	return out, nil
}
