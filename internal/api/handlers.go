package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/danvoulez/voulezvous-tv/internal/domain"
	"github.com/danvoulez/voulezvous-tv/internal/ops"
	"github.com/danvoulez/voulezvous-tv/internal/runtimestate"
	"github.com/danvoulez/voulezvous-tv/internal/store"
)

// ReportStore is the subset of *store.Store the report/status handlers
// need.
type ReportStore interface {
	LoadReportDataBetween(startInclusive, endExclusive time.Time) (store.ReportData, error)
	LoadLatestMetrics() (*domain.MetricsSample, error)
	LoadRecentMetrics(n int) ([]domain.MetricsSample, error)
	LoadAlertStates() ([]domain.AlertStateRecord, error)
}

// Handlers bundles the state store and shared runtime flags that every
// read endpoint needs.
type Handlers struct {
	store        ReportStore
	state        *runtimestate.State
	hostDiskPath string
	log          zerolog.Logger
}

func NewHandlers(store ReportStore, state *runtimestate.State, hostDiskPath string, log zerolog.Logger) *Handlers {
	return &Handlers{store: store, state: state, hostDiskPath: hostDiskPath, log: log.With().Str("component", "api.handlers").Logger()}
}

// StatusResponse is GET /v1/status's payload. Host is omitted whenever
// sampling fails — it's operator enrichment, never load-bearing.
type StatusResponse struct {
	State         string           `json:"state"`
	BufferMinutes float64          `json:"buffer_minutes"`
	Timestamp     time.Time        `json:"timestamp"`
	Host          *ops.HostMetrics `json:"host,omitempty"`
}

func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	latest, err := h.store.LoadLatestMetrics()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	state := "RUNNING"
	if h.state.EmergencyMode() {
		state = "EMERGENCY"
	}

	resp := StatusResponse{State: state, Timestamp: time.Now().UTC()}
	if latest != nil {
		resp.BufferMinutes = latest.BufferMinutes
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if host, err := ops.SampleHostMetrics(ctx, h.hostDiskPath); err != nil {
		h.log.Warn().Err(err).Msg("host metrics sampling failed, omitting from status response")
	} else {
		resp.Host = host
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// DailyReport summarizes one calendar day's pipeline activity. The exact
// shape isn't specified beyond "DailyReport" — this mirrors ReportData's
// window plus a few derived rollups a human reading the report would want.
type DailyReport struct {
	Date           string                 `json:"date"`
	PlansCreated   int                    `json:"plans_created"`
	PlansCommitted int                    `json:"plans_committed"`
	AssetsPrepared int                    `json:"assets_prepared"`
	QaPassRate     float64                `json:"qa_pass_rate"`
	FallbackRate   float64                `json:"fallback_rate"`
	CuratorActions int                    `json:"curator_actions"`
	Alerts         int                    `json:"alert_count"`
	Metrics        []domain.MetricsSample `json:"metrics"`
}

func (h *Handlers) HandleDailyReport(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	day, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", dateStr))
		return
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	data, err := h.store.LoadReportDataBetween(start, end)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.writeJSON(w, http.StatusOK, buildDailyReport(dateStr, data))
}

func buildDailyReport(dateStr string, data store.ReportData) DailyReport {
	report := DailyReport{Date: dateStr, Metrics: data.Metrics}
	committed := 0
	for _, p := range data.Plans {
		if p.State == domain.PlanCommitted {
			committed++
		}
	}
	report.PlansCreated = len(data.Plans)
	report.PlansCommitted = committed
	report.AssetsPrepared = len(data.Assets)

	if len(data.Metrics) > 0 {
		last := data.Metrics[len(data.Metrics)-1]
		report.QaPassRate = last.QaPassRate
		report.FallbackRate = last.FallbackRate
		report.CuratorActions = last.CuratorActions
	}
	for _, a := range data.Audits {
		if strings.Contains(a.ReasonCode, "ALERT") {
			report.Alerts++
		}
	}
	return report
}

// WeeklyReport aggregates seven DailyReport-equivalent days into one
// summary keyed by ISO week.
type WeeklyReport struct {
	Week            string  `json:"week"`
	PlansCreated    int     `json:"plans_created"`
	PlansCommitted  int     `json:"plans_committed"`
	AssetsPrepared  int     `json:"assets_prepared"`
	AvgQaPassRate   float64 `json:"avg_qa_pass_rate"`
	AvgFallbackRate float64 `json:"avg_fallback_rate"`
	CuratorActions  int     `json:"curator_actions"`
}

func (h *Handlers) HandleWeeklyReport(w http.ResponseWriter, r *http.Request) {
	weekStr := r.URL.Query().Get("week")
	start, end, err := isoWeekRange(weekStr)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	data, err := h.store.LoadReportDataBetween(start, end)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.writeJSON(w, http.StatusOK, buildWeeklyReport(weekStr, data))
}

func buildWeeklyReport(weekStr string, data store.ReportData) WeeklyReport {
	report := WeeklyReport{Week: weekStr}
	committed := 0
	for _, p := range data.Plans {
		if p.State == domain.PlanCommitted {
			committed++
		}
	}
	report.PlansCreated = len(data.Plans)
	report.PlansCommitted = committed
	report.AssetsPrepared = len(data.Assets)

	if len(data.Metrics) > 0 {
		var qaSum, fallbackSum float64
		for _, m := range data.Metrics {
			qaSum += m.QaPassRate
			fallbackSum += m.FallbackRate
			report.CuratorActions += m.CuratorActions
		}
		report.AvgQaPassRate = qaSum / float64(len(data.Metrics))
		report.AvgFallbackRate = fallbackSum / float64(len(data.Metrics))
	}
	return report
}

// isoWeekRange parses "YYYY-Www" (week in [1,53]) into the UTC
// [monday 00:00, next monday 00:00) window.
func isoWeekRange(weekStr string) (time.Time, time.Time, error) {
	parts := strings.SplitN(weekStr, "-W", 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid week %q, expected YYYY-Www", weekStr)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid week %q: bad year", weekStr)
	}
	week, err := strconv.Atoi(parts[1])
	if err != nil || week < 1 || week > 53 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid week %q: week must be in [1,53]", weekStr)
	}

	start := isoWeekStart(year, week)
	return start, start.AddDate(0, 0, 7), nil
}

func isoWeekStart(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := int(jan4.Weekday())
	if offset == 0 {
		offset = 7
	}
	week1Monday := jan4.AddDate(0, 0, -(offset - 1))
	return week1Monday.AddDate(0, 0, (week-1)*7)
}

func (h *Handlers) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	states, err := h.store.LoadAlertStates()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	type alertView struct {
		Code           string    `json:"code"`
		Active         bool      `json:"active"`
		LastNotifiedAt time.Time `json:"last_notified_at"`
	}
	views := make([]alertView, 0, len(states))
	for _, s := range states {
		if !s.Active {
			continue
		}
		views = append(views, alertView{Code: s.Code, Active: s.Active, LastNotifiedAt: s.LastNotifiedAt})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Code < views[j].Code })

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"count": len(views), "alerts": views})
}

func (h *Handlers) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	latest, err := h.store.LoadLatestMetrics()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	if latest == nil {
		return
	}

	gauges := []struct {
		name, help string
		value      float64
	}{
		{"vvtv_buffer_minutes", "Current on-air buffer in minutes", latest.BufferMinutes},
		{"vvtv_plans_created", "Plans created in the last commit window", float64(latest.PlansCreated)},
		{"vvtv_plans_committed", "Plans committed to assets in the last commit window", float64(latest.PlansCommitted)},
		{"vvtv_qa_pass_rate", "Fraction of prepared assets that passed QA", latest.QaPassRate},
		{"vvtv_fallback_rate", "Fraction of plans that fell back to reserves", latest.FallbackRate},
		{"vvtv_curator_actions", "Curator auto-fix actions applied", float64(latest.CuratorActions)},
		{"vvtv_stream_disruptions", "Stream disruptions observed", float64(latest.StreamDisruptions)},
	}

	var b strings.Builder
	for _, g := range gauges {
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s gauge\n%s %v\n", g.name, g.help, g.name, g.name, g.value)
	}
	w.Write([]byte(b.String()))
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}
