package store

import (
	"fmt"

	"github.com/danvoulez/voulezvous-tv/internal/domain"
)

// RecoveryState is everything the scheduler needs to rebuild its in-memory
// view of the world after a restart: every plan and asset regardless of
// state, the queue in playback order, and the full audit trail.
type RecoveryState struct {
	Plans  []domain.PlanItem
	Assets []domain.AssetItem
	Queue  []domain.QueueEntry
	Audits []domain.AuditEvent
}

// LoadRecovery loads the full recovery snapshot in one pass. There is no
// cross-table transaction here: plans/assets/queue/audits are each
// internally consistent, and boot recovery tolerates a snapshot taken
// across a few sequential reads rather than one atomic point in time.
func (s *Store) LoadRecovery() (RecoveryState, error) {
	plans, err := s.LoadAllPlans()
	if err != nil {
		return RecoveryState{}, fmt.Errorf("failed to load plans for recovery: %w", err)
	}
	assets, err := s.LoadAllAssets()
	if err != nil {
		return RecoveryState{}, fmt.Errorf("failed to load assets for recovery: %w", err)
	}
	queue, err := s.LoadQueue()
	if err != nil {
		return RecoveryState{}, fmt.Errorf("failed to load queue for recovery: %w", err)
	}
	audits, err := s.LoadAllAudits()
	if err != nil {
		return RecoveryState{}, fmt.Errorf("failed to load audits for recovery: %w", err)
	}
	return RecoveryState{Plans: plans, Assets: assets, Queue: queue, Audits: audits}, nil
}
