package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danvoulez/voulezvous-tv/internal/domain"
)

// SaveMetrics inserts a metrics sample with now() as its timestamp.
// Metric samples are append-only — there is no update path.
func (s *Store) SaveMetrics(sample domain.MetricsSample) error {
	sample.Timestamp = time.Now().UTC()
	payload, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics sample: %w", err)
	}
	_, err = s.conn.Exec(`
		INSERT INTO metric_samples (ts, payload) VALUES (?, ?)
	`, sample.Timestamp.Format(time.RFC3339), string(payload))
	if err != nil {
		return fmt.Errorf("failed to insert metrics sample: %w", err)
	}
	return nil
}

// LoadLatestMetrics returns the most recent sample, or nil if none exist.
func (s *Store) LoadLatestMetrics() (*domain.MetricsSample, error) {
	samples, err := s.LoadRecentMetrics(1)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, nil
	}
	return &samples[0], nil
}

// LoadRecentMetrics returns up to n samples, most recent first.
func (s *Store) LoadRecentMetrics(n int) ([]domain.MetricsSample, error) {
	rows, err := s.conn.Query(`
		SELECT payload FROM metric_samples ORDER BY ts DESC, id DESC LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent metrics: %w", err)
	}
	defer rows.Close()
	return scanMetricRows(rows)
}

// LoadMetricsBetween returns samples with ts in [startInclusive, endExclusive),
// ordered ascending.
func (s *Store) LoadMetricsBetween(startInclusive, endExclusive time.Time) ([]domain.MetricsSample, error) {
	rows, err := s.conn.Query(`
		SELECT payload FROM metric_samples
		WHERE ts >= ? AND ts < ?
		ORDER BY ts ASC
	`, startInclusive.UTC().Format(time.RFC3339), endExclusive.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics by window: %w", err)
	}
	defer rows.Close()
	return scanMetricRows(rows)
}

func scanMetricRows(rows *sql.Rows) ([]domain.MetricsSample, error) {
	var out []domain.MetricsSample
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan metrics row: %w", err)
		}
		var sample domain.MetricsSample
		if err := json.Unmarshal([]byte(payload), &sample); err != nil {
			return nil, fmt.Errorf("failed to decode metrics payload: %w", err)
		}
		out = append(out, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate metrics rows: %w", err)
	}
	return out, nil
}
