package pipeline

import "github.com/danvoulez/voulezvous-tv/internal/domain"

// CommitMetrics composes the commit-window metrics sample from the counts
// the window collected: total plans considered, assets actually fetched,
// assets that passed QA out of those prepared, and what the queue build
// reported about itself.
func CommitMetrics(queue Queue, plansCount, fetchedCount, passedCount, preparedCount, curatorActions int) domain.MetricsSample {
	return domain.MetricsSample{
		BufferMinutes:     queue.BufferMinutes,
		PlansCreated:      plansCount,
		PlansCommitted:    fetchedCount,
		QaPassRate:        ratio(passedCount, preparedCount),
		FallbackRate:      ratio(plansCount-fetchedCount, plansCount),
		CuratorActions:    curatorActions,
		StreamDisruptions: boolToInt(queue.EmergencyTriggered),
	}
}

// RecoveryMetrics recomputes a metrics sample from persisted state alone,
// using the fixed 10-minutes-per-entry buffer estimate since the original
// queue-build bookkeeping (per-asset duration) isn't persisted separately.
func RecoveryMetrics(queueLen int) domain.MetricsSample {
	return domain.MetricsSample{
		BufferMinutes: float64(queueLen) * 10,
	}
}

func ratio(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
