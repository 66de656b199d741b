package store

import (
	"fmt"
	"time"

	"github.com/danvoulez/voulezvous-tv/internal/domain"
)

// ReportData is the windowed slice of state backing a daily or weekly
// report: plans and assets touched in the window, the metric samples taken
// during it, and the audit trail explaining what happened.
type ReportData struct {
	WindowStart time.Time
	WindowEnd   time.Time
	Plans       []domain.PlanItem
	Assets      []domain.AssetItem
	Metrics     []domain.MetricsSample
	Audits      []domain.AuditEvent
}

// LoadReportDataBetween composes the four windowed loaders into one report
// window [startInclusive, endExclusive).
func (s *Store) LoadReportDataBetween(startInclusive, endExclusive time.Time) (ReportData, error) {
	plans, err := s.LoadPlansUpdatedBetween(startInclusive, endExclusive)
	if err != nil {
		return ReportData{}, fmt.Errorf("failed to load plans for report window: %w", err)
	}
	assets, err := s.LoadAssetsUpdatedBetween(startInclusive, endExclusive)
	if err != nil {
		return ReportData{}, fmt.Errorf("failed to load assets for report window: %w", err)
	}
	metrics, err := s.LoadMetricsBetween(startInclusive, endExclusive)
	if err != nil {
		return ReportData{}, fmt.Errorf("failed to load metrics for report window: %w", err)
	}
	audits, err := s.LoadAuditsBetween(startInclusive, endExclusive)
	if err != nil {
		return ReportData{}, fmt.Errorf("failed to load audits for report window: %w", err)
	}
	return ReportData{
		WindowStart: startInclusive,
		WindowEnd:   endExclusive,
		Plans:       plans,
		Assets:      assets,
		Metrics:     metrics,
		Audits:      audits,
	}, nil
}
