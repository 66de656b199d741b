package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/danvoulez/voulezvous-tv/internal/config"
	"github.com/danvoulez/voulezvous-tv/internal/pipeline"
)

const (
	auditRetentionDays = 90
	exportDir          = "runtime/exports"
)

// ReportPublisher is the control-agent seam the nightly window uses to
// push the day's and week's reports upstream. Best-effort, like the
// commit window's snapshot publish.
type ReportPublisher interface {
	DailyReport(ctx context.Context, date string, payload interface{}) error
	WeeklyReport(ctx context.Context, week string, payload interface{}) error
}

// NightlyWindow runs once daily at local hour 3: recompute metrics,
// autotune, export the audit trail, enforce retention, run maintenance,
// and publish reports upstream if a control agent is configured.
type NightlyWindow struct {
	store     Store
	publisher ReportPublisher
	log       zerolog.Logger
}

func NewNightlyWindow(store Store, publisher ReportPublisher, log zerolog.Logger) *NightlyWindow {
	return &NightlyWindow{store: store, publisher: publisher, log: log.With().Str("window", "nightly").Logger()}
}

func (w *NightlyWindow) Name() string { return "nightly" }

func (w *NightlyWindow) Run(ctx context.Context, now time.Time, card *config.OwnerCard) error {
	queue, err := w.store.LoadQueue()
	if err != nil {
		return err
	}

	sample := pipeline.RecoveryMetrics(len(queue))
	sample.Timestamp = now
	if err := w.store.SaveMetrics(sample); err != nil {
		return err
	}

	action := pipeline.Tune(card, sample)
	audit := newAudit("nightly", "autotune", action, now)
	if err := w.store.AppendAudit(audit); err != nil {
		return err
	}

	exportPath := fmt.Sprintf("%s/audit-%s.json", exportDir, DateKey(now))
	exported, err := w.store.ExportAuditsJSON(exportPath)
	if err != nil {
		w.log.Warn().Err(err).Msg("audit export failed, continuing nightly window")
	} else {
		w.log.Info().Int("count", exported).Str("path", exportPath).Msg("exported audit trail")
	}

	deleted, err := w.store.EnforceRetentionDays(auditRetentionDays)
	if err != nil {
		w.log.Warn().Err(err).Msg("retention enforcement failed, continuing nightly window")
	} else {
		w.log.Info().Int("rows_deleted", deleted).Msg("enforced retention")
	}

	w.runMaintenance()

	if w.publisher != nil {
		w.publishReports(ctx, now, sample)
	}

	w.log.Info().Str("autotune_action", action).Msg("nightly window complete")
	return nil
}

// runMaintenance checkpoints the WAL and vacuums the database. Neither
// failure is fatal to the nightly window — they're logged and retried the
// following night.
func (w *NightlyWindow) runMaintenance() {
	if stats, err := w.store.GetStats(); err != nil {
		w.log.Warn().Err(err).Msg("failed to read store stats")
	} else {
		w.log.Info().
			Int64("size_bytes", stats.SizeBytes).
			Int64("wal_size_bytes", stats.WALSizeBytes).
			Int64("freelist_count", stats.FreelistCount).
			Msg("store stats before maintenance")
	}

	if err := w.store.WALCheckpoint("TRUNCATE"); err != nil {
		w.log.Warn().Err(err).Msg("WAL checkpoint failed")
	}
	if err := w.store.Vacuum(); err != nil {
		w.log.Warn().Err(err).Msg("vacuum failed")
	}
}

func (w *NightlyWindow) publishReports(ctx context.Context, now time.Time, sample interface{}) {
	publishCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	dateStr := DateKey(now)
	if err := w.publisher.DailyReport(publishCtx, dateStr, sample); err != nil {
		w.log.Warn().Err(err).Msg("failed to publish daily report to control agent")
	}

	weekStr := isoWeekString(now)
	if err := w.publisher.WeeklyReport(publishCtx, weekStr, sample); err != nil {
		w.log.Warn().Err(err).Msg("failed to publish weekly report to control agent")
	}
}

// isoWeekString renders "YYYY-Www" for t, matching the control API's week
// query parameter format.
func isoWeekString(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}
