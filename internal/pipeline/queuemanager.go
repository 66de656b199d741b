package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/danvoulez/voulezvous-tv/internal/domain"
)

// Queue is the build output: the ordered entries plus the derived health
// figures the commit window folds into its metrics sample.
type Queue struct {
	Entries            []domain.QueueEntry
	BufferMinutes      float64
	EmergencyTriggered bool
}

// BuildQueue lays out QA-passed assets back to back starting at now. If no
// asset passed QA, it falls back to the emergency pool — unfiltered, so
// the stream never goes dark even when everything freshly fetched failed
// QA — and flags the queue as having triggered emergency fallback.
func BuildQueue(now time.Time, assets, emergencyPool []domain.AssetItem) Queue {
	passed := filterPassed(assets)

	if len(passed) > 0 {
		entries := layout(now, passed, domain.SlotMain, 0)
		return Queue{
			Entries:       entries,
			BufferMinutes: bufferMinutes(passed),
		}
	}

	entries := layout(now, emergencyPool, domain.SlotEmergency, 1)
	return Queue{
		Entries:            entries,
		BufferMinutes:      bufferMinutes(emergencyPool),
		EmergencyTriggered: true,
	}
}

func filterPassed(assets []domain.AssetItem) []domain.AssetItem {
	out := make([]domain.AssetItem, 0, len(assets))
	for _, a := range assets {
		if a.QaStatus == domain.QaPassed {
			out = append(out, a)
		}
	}
	return out
}

func layout(start time.Time, assets []domain.AssetItem, slot domain.SlotType, fallbackLevel int) []domain.QueueEntry {
	entries := make([]domain.QueueEntry, 0, len(assets))
	cursor := start
	for _, a := range assets {
		entries = append(entries, domain.QueueEntry{
			EntryID:       "entry-" + uuid.NewString(),
			AssetID:       a.AssetID,
			StartAt:       cursor,
			SlotType:      slot,
			FallbackLevel: fallbackLevel,
		})
		cursor = cursor.Add(time.Duration(a.DurationSec) * time.Second)
	}
	return entries
}

func bufferMinutes(assets []domain.AssetItem) float64 {
	total := 0
	for _, a := range assets {
		total += a.DurationSec
	}
	return float64(total) / 60.0
}
