package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/danvoulez/voulezvous-tv/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "vvtv-state.db")
	s, err := Open(dbPath, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAcquireSchedulerLock_ExclusiveBetweenOwners(t *testing.T) {
	s := newTestStore(t)

	ok, err := s.AcquireSchedulerLock("scheduler", "owner-a", 30)
	require.NoError(t, err)
	require.True(t, ok, "first acquire should succeed on an absent row")

	ok, err = s.AcquireSchedulerLock("scheduler", "owner-b", 30)
	require.NoError(t, err)
	require.False(t, ok, "a live lease held by another owner must not be stolen")

	ok, err = s.AcquireSchedulerLock("scheduler", "owner-a", 30)
	require.NoError(t, err)
	require.True(t, ok, "the current owner must be able to renew its own lease")
}

func TestAcquireSchedulerLock_ExpiredLeaseIsReclaimable(t *testing.T) {
	s := newTestStore(t)

	ok, err := s.AcquireSchedulerLock("scheduler", "owner-a", -1)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.AcquireSchedulerLock("scheduler", "owner-b", 30)
	require.NoError(t, err)
	require.True(t, ok, "an expired lease must be reclaimable by a new owner")
}

func TestReleaseSchedulerLock_NoopForNonOwner(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AcquireSchedulerLock("scheduler", "owner-a", 30)
	require.NoError(t, err)

	require.NoError(t, s.ReleaseSchedulerLock("scheduler", "owner-b"))

	ok, err := s.AcquireSchedulerLock("scheduler", "owner-b", 30)
	require.NoError(t, err)
	require.False(t, ok, "release by a non-owner must not have freed the lease")
}

func TestReplaceQueue_AtomicSwap(t *testing.T) {
	s := newTestStore(t)

	initial := []domain.QueueEntry{
		{EntryID: "q1", AssetID: "a1", StartAt: time.Now().UTC(), SlotType: domain.SlotMain},
	}
	require.NoError(t, s.ReplaceQueue(initial))

	loaded, err := s.LoadQueue()
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	replacement := []domain.QueueEntry{
		{EntryID: "q2", AssetID: "a2", StartAt: time.Now().UTC(), SlotType: domain.SlotMain},
		{EntryID: "q3", AssetID: "a3", StartAt: time.Now().UTC().Add(time.Minute), SlotType: domain.SlotReserve},
	}
	require.NoError(t, s.ReplaceQueue(replacement))

	loaded, err = s.LoadQueue()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	require.Equal(t, "q2", loaded[0].EntryID)
	require.Equal(t, "q3", loaded[1].EntryID)
}

func TestEnforceRetentionDays_RemovesOnlyOldRows(t *testing.T) {
	s := newTestStore(t)

	old := domain.AuditEvent{EventID: "old", Timestamp: time.Now().UTC().AddDate(0, 0, -40), Module: "discovery", Action: "admit", ReasonCode: "ok"}
	recent := domain.AuditEvent{EventID: "recent", Timestamp: time.Now().UTC(), Module: "discovery", Action: "admit", ReasonCode: "ok"}
	require.NoError(t, s.AppendAudit(old))
	require.NoError(t, s.AppendAudit(recent))

	deleted, err := s.EnforceRetentionDays(30)
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	remaining, err := s.LoadAllAudits()
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "recent", remaining[0].EventID)
}

func TestAppendAudit_IdempotentOnEventID(t *testing.T) {
	s := newTestStore(t)

	event := domain.AuditEvent{EventID: "e1", Timestamp: time.Now().UTC(), Module: "curator", Action: "swap", ReasonCode: "fallback"}
	require.NoError(t, s.AppendAudit(event))

	event.ReasonCode = "fallback_updated"
	require.NoError(t, s.AppendAudit(event))

	all, err := s.LoadAllAudits()
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "fallback_updated", all[0].ReasonCode)
}

func TestSaveAndLoadSchedulerCursors(t *testing.T) {
	s := newTestStore(t)

	cursors, err := s.LoadSchedulerCursors()
	require.NoError(t, err)
	require.Equal(t, "", cursors.LastDiscoveryHour)

	cursors.LastDiscoveryHour = "2026-07-30T14"
	require.NoError(t, s.SaveSchedulerCursors(cursors))

	reloaded, err := s.LoadSchedulerCursors()
	require.NoError(t, err)
	require.Equal(t, "2026-07-30T14", reloaded.LastDiscoveryHour)
}

func TestLoadReportDataBetween_FiltersByWindow(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveMetrics(domain.MetricsSample{BufferMinutes: 90}))

	start := time.Now().UTC().Add(-time.Hour)
	end := time.Now().UTC().Add(time.Hour)
	report, err := s.LoadReportDataBetween(start, end)
	require.NoError(t, err)
	require.Len(t, report.Metrics, 1)

	empty, err := s.LoadReportDataBetween(start.Add(-48*time.Hour), start.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, empty.Metrics, 0)
}
