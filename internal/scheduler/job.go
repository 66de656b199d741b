package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/danvoulez/voulezvous-tv/internal/config"
	"github.com/danvoulez/voulezvous-tv/internal/domain"
	"github.com/danvoulez/voulezvous-tv/internal/store"
)

// Job is one scheduler window: discovery, commit, or nightly. Each reads
// and writes through Store, never touching the network or filesystem
// directly except through the collaborator contracts in internal/pipeline.
type Job interface {
	Name() string
	Run(ctx context.Context, now time.Time, card *config.OwnerCard) error
}

// Store is the subset of *store.Store every window needs.
type Store interface {
	LoadSchedulerCursors() (domain.SchedulerCursors, error)
	SaveSchedulerCursors(domain.SchedulerCursors) error
	AcquireSchedulerLock(lockName, owner string, ttlSecs int) (bool, error)
	ReleaseSchedulerLock(lockName, owner string) error

	LoadRecovery() (store.RecoveryState, error)
	LoadAllPlans() ([]domain.PlanItem, error)
	SavePlans(items []domain.PlanItem) error
	LoadQueue() ([]domain.QueueEntry, error)
	ReplaceQueue(entries []domain.QueueEntry) error
	LoadAllAudits() ([]domain.AuditEvent, error)
	AppendAudit(event domain.AuditEvent) error
	SaveAssets(items []domain.AssetItem) error
	SaveMetrics(sample domain.MetricsSample) error
	LoadLatestMetrics() (*domain.MetricsSample, error)

	ExportAuditsJSON(path string) (int, error)
	EnforceRetentionDays(days int) (int, error)
	GetStats() (*store.Stats, error)
	WALCheckpoint(mode string) error
	Vacuum() error
}

func newAudit(module, action, reasonCode string, now time.Time) domain.AuditEvent {
	return domain.AuditEvent{
		EventID:    uuid.NewString(),
		Timestamp:  now,
		Module:     module,
		Action:     action,
		ReasonCode: reasonCode,
	}
}
