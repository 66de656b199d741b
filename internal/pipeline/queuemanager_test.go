package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danvoulez/voulezvous-tv/internal/domain"
)

func passedAsset(id string, durationSec int) domain.AssetItem {
	return domain.AssetItem{AssetID: id, QaStatus: domain.QaPassed, DurationSec: durationSec}
}

func TestBuildQueue_UsesPassedAssetsWhenAvailable(t *testing.T) {
	now := time.Now()
	assets := []domain.AssetItem{passedAsset("a1", 600), passedAsset("a2", 600)}

	q := BuildQueue(now, assets, assets)
	require.Len(t, q.Entries, 2)
	assert.False(t, q.EmergencyTriggered)
	assert.Equal(t, 20.0, q.BufferMinutes)
	assert.True(t, q.Entries[1].StartAt.After(q.Entries[0].StartAt))
}

func TestBuildQueue_FallsBackToEmergencyPoolWhenNothingPassed(t *testing.T) {
	now := time.Now()
	rejected := []domain.AssetItem{{AssetID: "a1", QaStatus: domain.QaRejected, DurationSec: 600}}
	emergencyPool := []domain.AssetItem{{AssetID: "e1", QaStatus: domain.QaPending, DurationSec: 600}}

	q := BuildQueue(now, rejected, emergencyPool)
	require.Len(t, q.Entries, 1)
	assert.True(t, q.EmergencyTriggered)
	assert.Equal(t, domain.SlotEmergency, q.Entries[0].SlotType)
}

func TestAutoCurate_SwapsConsecutiveDuplicateAsset(t *testing.T) {
	entries := []domain.QueueEntry{
		{EntryID: "e1", AssetID: "a1"},
		{EntryID: "e2", AssetID: "a1"},
		{EntryID: "e3", AssetID: "a2"},
	}

	curated := AutoCurate(entries)
	assert.Equal(t, 1, curated.ActionsApplied)
	assert.NotEqual(t, curated.Entries[0].AssetID, curated.Entries[1].AssetID)
}

func TestAutoCurate_NoopWhenNoDuplicatesAdjacent(t *testing.T) {
	entries := []domain.QueueEntry{
		{EntryID: "e1", AssetID: "a1"},
		{EntryID: "e2", AssetID: "a2"},
	}
	curated := AutoCurate(entries)
	assert.Equal(t, 0, curated.ActionsApplied)
}
