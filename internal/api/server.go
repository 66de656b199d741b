// Package api serves the control API: read-only status/reports/alerts/
// metrics endpoints, the signed control endpoints, and the live events
// websocket feed. It is a separate process-level component from the
// scheduler loop, sharing only the state store connection and the
// runtimestate flags.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/danvoulez/voulezvous-tv/internal/events"
	"github.com/danvoulez/voulezvous-tv/internal/runtimestate"
)

// DefaultAddr is the loopback-only bind address spec.md requires.
const DefaultAddr = "127.0.0.1:7070"

// Server wraps the chi router and the underlying http.Server for graceful
// shutdown.
type Server struct {
	httpServer *http.Server
	log        zerolog.Logger
}

// NewServer wires every route: the unauthenticated GET surface, the
// HMAC-gated POST /v1/control/* surface, and the websocket events feed.
func NewServer(addr string, store ReportStore, state *runtimestate.State, bus *events.Bus, ownerCardPath, controlToken, controlSecret, hostDiskPath string, log zerolog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}))

	h := NewHandlers(store, state, hostDiskPath, log)
	ctrl := NewControlHandlers(state, ownerCardPath)
	stream := NewEventsStreamHandler(bus, log)

	r.Get("/v1/status", h.HandleStatus)
	r.Get("/v1/reports/daily", h.HandleDailyReport)
	r.Get("/v1/reports/weekly", h.HandleWeeklyReport)
	r.Get("/v1/alerts", h.HandleAlerts)
	r.Get("/metrics", h.HandleMetrics)
	r.Get("/v1/events/stream", stream.ServeHTTP)

	r.Post("/v1/control/reload-owner-card", requireControlAuth(controlToken, controlSecret, ctrl.HandleReloadOwnerCard))
	r.Post("/v1/control/emergency-mode", requireControlAuth(controlToken, controlSecret, ctrl.HandleToggleEmergencyMode))
	r.Post("/v1/control/curator-mode", requireControlAuth(controlToken, controlSecret, ctrl.HandleSetCuratorMode))

	return &Server{
		httpServer: &http.Server{Addr: addr, Handler: r},
		log:        log.With().Str("component", "api.server").Logger(),
	}
}

// Start begins serving in the background. Bind errors other than a clean
// shutdown are logged, mirroring the graceful-shutdown pattern the rest of
// the daemon uses.
func (s *Server) Start() {
	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("control API listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("control API server stopped unexpectedly")
		}
	}()
}

// Stop shuts the server down within the given deadline.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
