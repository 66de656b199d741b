package pipeline

import "github.com/danvoulez/voulezvous-tv/internal/domain"

// CuratedQueue is the result of AutoCurate: the (possibly reordered) queue
// plus how many swaps it performed.
type CuratedQueue struct {
	Entries        []domain.QueueEntry
	ActionsApplied int
}

// AutoCurate walks the queue and swaps any entry whose asset repeats the
// immediately preceding one with the next distinct upcoming entry, so the
// same asset never plays twice back to back when a distinct alternative
// exists later in the queue.
func AutoCurate(entries []domain.QueueEntry) CuratedQueue {
	queue := make([]domain.QueueEntry, len(entries))
	copy(queue, entries)

	actions := 0
	for i := 1; i < len(queue); i++ {
		if queue[i].AssetID != queue[i-1].AssetID {
			continue
		}
		swapIdx := firstDistinctAfter(queue, i, queue[i-1].AssetID)
		if swapIdx == -1 {
			continue
		}
		queue[i], queue[swapIdx] = queue[swapIdx], queue[i]
		actions++
	}

	return CuratedQueue{Entries: queue, ActionsApplied: actions}
}

func firstDistinctAfter(queue []domain.QueueEntry, from int, assetID string) int {
	for j := from + 1; j < len(queue); j++ {
		if queue[j].AssetID != assetID {
			return j
		}
	}
	return -1
}
