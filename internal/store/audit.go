package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/danvoulez/voulezvous-tv/internal/domain"
)

// AppendAudit inserts an audit event, idempotent on event_id
// (insert-or-replace): replaying the same event twice leaves one row.
func (s *Store) AppendAudit(event domain.AuditEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event %s: %w", event.EventID, err)
	}
	_, err = s.conn.Exec(`
		INSERT INTO audit_events (event_id, ts, module, action, reason_code, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO UPDATE SET
			ts = excluded.ts,
			module = excluded.module,
			action = excluded.action,
			reason_code = excluded.reason_code,
			payload = excluded.payload
	`, event.EventID, event.Timestamp.UTC().Format(time.RFC3339), event.Module, event.Action, event.ReasonCode, string(payload))
	if err != nil {
		return fmt.Errorf("failed to append audit event %s: %w", event.EventID, err)
	}
	return nil
}

// LoadAllAudits returns every audit event ordered by ts ascending.
func (s *Store) LoadAllAudits() ([]domain.AuditEvent, error) {
	rows, err := s.conn.Query(`SELECT payload FROM audit_events ORDER BY ts ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query audits: %w", err)
	}
	defer rows.Close()
	return scanAuditRows(rows)
}

// LoadAuditsBetween returns audits with ts in [startInclusive, endExclusive),
// ordered ascending.
func (s *Store) LoadAuditsBetween(startInclusive, endExclusive time.Time) ([]domain.AuditEvent, error) {
	rows, err := s.conn.Query(`
		SELECT payload FROM audit_events
		WHERE ts >= ? AND ts < ?
		ORDER BY ts ASC
	`, startInclusive.UTC().Format(time.RFC3339), endExclusive.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query audits by window: %w", err)
	}
	defer rows.Close()
	return scanAuditRows(rows)
}

// LoadRecentAudits returns audits with ts >= now - hours.
func (s *Store) LoadRecentAudits(hours int) ([]domain.AuditEvent, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour).Format(time.RFC3339)
	rows, err := s.conn.Query(`
		SELECT payload FROM audit_events WHERE ts >= ? ORDER BY ts ASC
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent audits: %w", err)
	}
	defer rows.Close()
	return scanAuditRows(rows)
}

// ExportAuditsJSON writes all audits as a pretty-printed JSON array to path
// and returns the count written.
func (s *Store) ExportAuditsJSON(path string) (int, error) {
	events, err := s.LoadAllAudits()
	if err != nil {
		return 0, fmt.Errorf("failed to load audits for export: %w", err)
	}

	raw, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to marshal audits for export: %w", err)
	}

	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return 0, fmt.Errorf("failed to write audit export %s: %w", path, err)
	}

	return len(events), nil
}

func scanAuditRows(rows *sql.Rows) ([]domain.AuditEvent, error) {
	var out []domain.AuditEvent
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		var e domain.AuditEvent
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return nil, fmt.Errorf("failed to decode audit payload: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit rows: %w", err)
	}
	return out, nil
}
