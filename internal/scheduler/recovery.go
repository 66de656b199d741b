package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/danvoulez/voulezvous-tv/internal/pipeline"
)

const recoveryPlaylistPath = "runtime/playlist/live.m3u8"

// runBootRecovery reloads every persisted plan/asset/queue/audit, re-renders
// the HLS playlist from the durable queue if one exists, recomputes a
// metrics sample from that queue, and audits the recovery. It runs exactly
// once per process, the first time this instance acquires the scheduler
// lease.
func runBootRecovery(store Store, now time.Time, log zerolog.Logger) error {
	recovery, err := store.LoadRecovery()
	if err != nil {
		return err
	}

	if len(recovery.Queue) > 0 && len(recovery.Assets) > 0 {
		if err := pipeline.RenderPlaylist(recoveryPlaylistPath, recovery.Queue); err != nil {
			log.Warn().Err(err).Msg("boot recovery failed to re-render playlist, continuing")
		}
	}

	sample := pipeline.RecoveryMetrics(len(recovery.Queue))
	sample.Timestamp = now
	if err := store.SaveMetrics(sample); err != nil {
		return err
	}

	audit := newAudit("scheduler", "boot_recovery", "RECOVERY_APPLIED", now)
	if err := store.AppendAudit(audit); err != nil {
		return err
	}

	log.Info().
		Int("plans", len(recovery.Plans)).
		Int("assets", len(recovery.Assets)).
		Int("queue_entries", len(recovery.Queue)).
		Float64("buffer_minutes", sample.BufferMinutes).
		Msg("boot recovery applied")

	return nil
}
