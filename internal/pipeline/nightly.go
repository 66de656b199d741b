package pipeline

import (
	"fmt"

	"github.com/danvoulez/voulezvous-tv/internal/config"
	"github.com/danvoulez/voulezvous-tv/internal/domain"
)

// Tune inspects the latest metrics sample against the owner card's
// buffer_critical_minutes and fixed QA (0.85) and fallback (0.30)
// thresholds, and returns a short action string describing what it would
// adjust, bounded by autotune.max_daily_adjustment_pct. It never mutates the card — the
// scheduler records the action as an audit reason_code; applying it is a
// separate, explicit control-plane decision.
func Tune(card *config.OwnerCard, metrics domain.MetricsSample) string {
	capPct := card.Autotune.MaxDailyAdjustmentPct

	switch {
	case metrics.BufferMinutes < float64(card.Buffer.BufferCriticalMinutes):
		return fmt.Sprintf("RAISE_BUFFER_TARGET_%dPCT", capPct)
	case metrics.QaPassRate < 0.85:
		return fmt.Sprintf("RELAX_QUALITY_THRESHOLD_%dPCT", capPct)
	case metrics.FallbackRate > 0.30:
		return fmt.Sprintf("WIDEN_COMMIT_LEAD_%dPCT", capPct)
	default:
		return "NO_ADJUSTMENT"
	}
}
