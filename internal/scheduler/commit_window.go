package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/danvoulez/voulezvous-tv/internal/config"
	"github.com/danvoulez/voulezvous-tv/internal/domain"
	"github.com/danvoulez/voulezvous-tv/internal/pipeline"
)

const playlistPath = "runtime/playlist/live.m3u8"

// SnapshotPublisher is the control-agent seam the commit window uses to
// push a status snapshot upstream. Publishing is best-effort: a failure is
// logged, never fatal to the window itself.
type SnapshotPublisher interface {
	Status(ctx context.Context, payload interface{}) error
}

// CommitWindow runs on the T-minus-4h cadence: reload plans (running a
// discovery window first if none are persisted yet), fetch, QA, build and
// curate the queue, render the playlist, and record a metrics sample.
type CommitWindow struct {
	store     Store
	discovery *DiscoveryWindow
	publisher SnapshotPublisher
	log       zerolog.Logger
}

func NewCommitWindow(store Store, discovery *DiscoveryWindow, publisher SnapshotPublisher, log zerolog.Logger) *CommitWindow {
	return &CommitWindow{store: store, discovery: discovery, publisher: publisher, log: log.With().Str("window", "commit").Logger()}
}

func (w *CommitWindow) Name() string { return "commit" }

func (w *CommitWindow) Run(ctx context.Context, now time.Time, card *config.OwnerCard) error {
	plans, err := w.store.LoadAllPlans()
	if err != nil {
		return err
	}

	if len(plans) == 0 {
		if err := w.discovery.Run(ctx, now, card); err != nil {
			return err
		}
		plans, err = w.store.LoadAllPlans()
		if err != nil {
			return err
		}
	}

	var scheduled, reserves []domain.PlanItem
	for _, p := range plans {
		switch p.State {
		case domain.PlanScheduled:
			scheduled = append(scheduled, p)
		case domain.PlanReserved:
			reserves = append(reserves, p)
		}
	}

	fetched := pipeline.CommitTMinus4h(card, now, scheduled, reserves, pipeline.FetchContext{})
	prepared := pipeline.ProcessPrep(fetched)
	if err := w.store.SaveAssets(prepared); err != nil {
		return err
	}

	passed := 0
	for _, a := range prepared {
		if a.QaStatus == domain.QaPassed {
			passed++
		}
	}

	queue := pipeline.BuildQueue(now, prepared, prepared)
	curated := pipeline.AutoCurate(queue.Entries)
	if err := w.store.ReplaceQueue(curated.Entries); err != nil {
		return err
	}

	if err := pipeline.RenderPlaylist(playlistPath, curated.Entries); err != nil {
		w.log.Warn().Err(err).Msg("failed to render playlist, queue was still persisted")
	}

	sample := pipeline.CommitMetrics(queue, len(plans), len(fetched), passed, len(prepared), curated.ActionsApplied)
	sample.Timestamp = now
	if err := w.store.SaveMetrics(sample); err != nil {
		return err
	}

	audit := newAudit("scheduler", "commit_window", "COMMIT_WINDOW_OK", now)
	if err := w.store.AppendAudit(audit); err != nil {
		return err
	}

	if w.publisher != nil {
		publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := w.publisher.Status(publishCtx, sample); err != nil {
			w.log.Warn().Err(err).Msg("failed to publish commit snapshot to control agent")
		}
		cancel()
	}

	w.log.Info().
		Int("plans", len(plans)).
		Int("fetched", len(fetched)).
		Int("passed", passed).
		Float64("buffer_minutes", sample.BufferMinutes).
		Bool("emergency", queue.EmergencyTriggered).
		Msg("commit window complete")

	return nil
}
