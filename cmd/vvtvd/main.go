// Package main is the entry point for the VoulezVous TV autonomous
// programming daemon. It ingests short-form video candidates, plans and
// commits a day's programme against the owner card's editorial policy,
// renders a continuously updated HLS playlist, and measures and
// auto-tunes its own health — all under a single-writer scheduler lease.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/danvoulez/voulezvous-tv/internal/alerts"
	"github.com/danvoulez/voulezvous-tv/internal/api"
	"github.com/danvoulez/voulezvous-tv/internal/config"
	"github.com/danvoulez/voulezvous-tv/internal/controlagent"
	"github.com/danvoulez/voulezvous-tv/internal/events"
	"github.com/danvoulez/voulezvous-tv/internal/feedsource"
	"github.com/danvoulez/voulezvous-tv/internal/runtimestate"
	"github.com/danvoulez/voulezvous-tv/internal/scheduler"
	"github.com/danvoulez/voulezvous-tv/internal/store"
	"github.com/danvoulez/voulezvous-tv/pkg/logger"
)

func main() {
	var ownerCardFlag, stateDBFlag string
	flag.StringVar(&ownerCardFlag, "owner-card", "", "owner card path (overrides VVTV_OWNER_CARD)")
	flag.StringVar(&stateDBFlag, "state-db", "", "state database path (overrides VVTV_STATE_DB)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{Level: "info", Pretty: true}).Fatal().Err(err).Msg("failed to load configuration")
	}
	if ownerCardFlag != "" {
		cfg.OwnerCardPath = ownerCardFlag
	}
	if stateDBFlag != "" {
		cfg.StateDBPath = stateDBFlag
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	log.Info().Msg("starting vvtvd")

	card, err := config.LoadOwnerCard(cfg.OwnerCardPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.OwnerCardPath).Msg("failed to load owner card")
	}

	db, err := store.Open(cfg.StateDBPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open state store")
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate state store schema")
	}

	state := runtimestate.New(card)
	bus := events.NewBus(log)

	// snapshotPublisher/reportPublisher stay nil interfaces (not a typed-nil
	// *controlagent.Agent) when Cloudflare isn't configured, so the windows'
	// own "publisher != nil" best-effort checks work correctly.
	var snapshotPublisher scheduler.SnapshotPublisher
	var reportPublisher scheduler.ReportPublisher
	if cfg.CloudflareBaseURL != "" {
		agent := controlagent.New(controlagent.Config{
			BaseURL: cfg.CloudflareBaseURL,
			Token:   cfg.CloudflareToken,
			Secret:  cfg.CloudflareSecret,
		}, log)
		snapshotPublisher = agent
		reportPublisher = agent
		log.Info().Str("base_url", cfg.CloudflareBaseURL).Msg("control agent enabled")
	}

	discoverySource := feedsource.NewHTTPFeedSource(cfg.DiscoveryFeedURLs, log)
	discoveryWindow := scheduler.NewDiscoveryWindow(db, discoverySource, log)
	commitWindow := scheduler.NewCommitWindow(db, discoveryWindow, snapshotPublisher, log)
	nightlyWindow := scheduler.NewNightlyWindow(db, reportPublisher, log)

	loop := scheduler.NewLoop(scheduler.LoopConfig{
		Store:        db,
		CardFunc:     state.OwnerCard,
		Discovery:    discoveryWindow,
		Commit:       commitWindow,
		Nightly:      nightlyWindow,
		RunOnce:      cfg.RunOnce,
		ForceNightly: cfg.ForceNightly,
	}, log)

	srv := api.NewServer(cfg.ControlAddr, db, state, bus, cfg.OwnerCardPath, cfg.ControlToken, cfg.ControlSecret, cfg.HostDiskPath, log)
	srv.Start()
	log.Info().Str("addr", cfg.ControlAddr).Msg("control API started")

	dispatcher := alerts.NewDispatcher(db, cfg.AlertWebhookURL, cfg.AlertCooldownSecs, log)
	alertLoop := alerts.NewLoop(db, dispatcher, bus, alerts.Thresholds{
		QAMin:                  cfg.AlertQAMin,
		FallbackAbs:            cfg.AlertFallbackAbs,
		FallbackGrowthDelta:    cfg.AlertFallbackGrowth,
		DiscoveryFailThreshold: cfg.AlertDiscoveryFailCount,
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alertsDone := make(chan struct{})
	go func() {
		alertLoop.Run(ctx)
		close(alertsDone)
	}()
	log.Info().Msg("alert evaluation loop started")

	schedulerDone := make(chan struct{})
	go func() {
		if err := loop.Run(ctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("scheduler loop exited with error")
		}
		close(schedulerDone)
	}()
	log.Info().Msg("scheduler loop started")

	if cfg.RunOnce {
		<-schedulerDone
		cancel()
		<-alertsDone
		shutdown(srv, log)
		return
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received, stopping daemon")
	cancel()
	<-schedulerDone
	<-alertsDone
	shutdown(srv, log)
	log.Info().Msg("vvtvd stopped")
}

func shutdown(srv *api.Server, log zerolog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("control API forced to shutdown")
	}
}
