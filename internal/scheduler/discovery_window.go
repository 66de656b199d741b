package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/danvoulez/voulezvous-tv/internal/config"
	"github.com/danvoulez/voulezvous-tv/internal/domain"
	"github.com/danvoulez/voulezvous-tv/internal/pipeline"
)

// DiscoverySource is the collaborator the discovery window polls for raw
// candidates before policy filtering. Its concrete implementation — the
// actual source feeds — lives outside this package; the window only
// depends on this seam so it's testable against a fixture.
type DiscoverySource interface {
	SeedInputs(ctx context.Context) ([]pipeline.DiscoveryInput, error)
}

// DiscoveryWindow runs hourly: seed raw candidates, filter and score them
// against the owner card, pack the day, and persist every resulting plan
// (scheduled and reserved alike).
type DiscoveryWindow struct {
	store  Store
	source DiscoverySource
	log    zerolog.Logger
}

func NewDiscoveryWindow(store Store, source DiscoverySource, log zerolog.Logger) *DiscoveryWindow {
	return &DiscoveryWindow{store: store, source: source, log: log.With().Str("window", "discovery").Logger()}
}

func (w *DiscoveryWindow) Name() string { return "discovery" }

func (w *DiscoveryWindow) Run(ctx context.Context, now time.Time, card *config.OwnerCard) error {
	inputs, err := w.source.SeedInputs(ctx)
	if err != nil {
		return err
	}

	accepted := pipeline.Discover(card, inputs)
	day := pipeline.BuildDay(card, accepted)

	all := make([]domain.PlanItem, 0, len(day.Scheduled)+len(day.Reserves))
	all = append(all, day.Scheduled...)
	all = append(all, day.Reserves...)
	if err := w.store.SavePlans(all); err != nil {
		return err
	}

	audit := newAudit("discovery", "discovery_window", "DISCOVERY_WINDOW_OK", now)
	if err := w.store.AppendAudit(audit); err != nil {
		return err
	}

	w.log.Info().
		Int("inputs", len(inputs)).
		Int("accepted", len(accepted)).
		Int("scheduled", len(day.Scheduled)).
		Int("reserves", len(day.Reserves)).
		Msg("discovery window complete")

	return nil
}
