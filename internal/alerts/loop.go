package alerts

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/danvoulez/voulezvous-tv/internal/domain"
	"github.com/danvoulez/voulezvous-tv/internal/events"
)

const tickInterval = 60 * time.Second

// MetricsStore is the subset of *store.Store the evaluation loop reads
// from. Kept separate from StateStore so a caller wiring only the
// dispatcher doesn't have to satisfy the whole surface.
type MetricsStore interface {
	LoadRecentMetrics(n int) ([]domain.MetricsSample, error)
	LoadRecentAudits(hours int) ([]domain.AuditEvent, error)
}

// Loop runs Evaluate against the store every 60s and hands the actionable
// subset to a Dispatcher, mirroring the bus fan-out style the rest of the
// daemon uses to notify interested listeners of state changes.
type Loop struct {
	metrics    MetricsStore
	dispatcher *Dispatcher
	bus        *events.Bus
	thresholds Thresholds
	log        zerolog.Logger
}

func NewLoop(metrics MetricsStore, dispatcher *Dispatcher, bus *events.Bus, thresholds Thresholds, log zerolog.Logger) *Loop {
	return &Loop{
		metrics:    metrics,
		dispatcher: dispatcher,
		bus:        bus,
		thresholds: thresholds,
		log:        log.With().Str("component", "alerts.loop").Logger(),
	}
}

// Run blocks, evaluating on a 60s tick until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		if err := l.tick(ctx); err != nil {
			l.log.Error().Err(err).Msg("alert evaluation tick failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (l *Loop) tick(ctx context.Context) error {
	recent, err := l.metrics.LoadRecentMetrics(2)
	if err != nil {
		return err
	}
	if len(recent) == 0 {
		return nil
	}
	latest := recent[0]
	var prev domain.MetricsSample
	hasPrev := len(recent) > 1
	if hasPrev {
		prev = recent[1]
	}

	audits, err := l.metrics.LoadRecentAudits(24)
	if err != nil {
		return err
	}
	failCount := 0
	for _, a := range audits {
		if strings.Contains(a.ReasonCode, "DISCOVERY_FAILED_DOMAIN") {
			failCount++
		}
	}

	all := Evaluate(latest, hasPrev, prev, failCount, l.thresholds)
	actionable := Actionable(all)

	if l.bus != nil {
		for _, a := range actionable {
			l.bus.Emit(events.AlertRaised, "alerts", map[string]interface{}{
				"code": a.Code, "severity": string(a.Severity), "message": a.Message,
			})
		}
	}

	return l.dispatcher.Tick(ctx, time.Now().UTC(), actionable)
}
