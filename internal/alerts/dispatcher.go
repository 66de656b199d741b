package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/danvoulez/voulezvous-tv/internal/domain"
)

// StateStore is the subset of the state store the dispatcher needs —
// satisfied by *store.Store.
type StateStore interface {
	LoadAlertStates() ([]domain.AlertStateRecord, error)
	UpsertAlertState(domain.AlertStateRecord) error
}

// Dispatcher tracks per-code alert state and POSTs transition webhooks;
// Loop calls its Tick on the 60s evaluation cadence. It is enabled only
// when a webhook URL is configured.
type Dispatcher struct {
	store      StateStore
	webhookURL string
	cooldown   time.Duration
	client     *http.Client
	log        zerolog.Logger
}

func NewDispatcher(store StateStore, webhookURL string, cooldownSecs int, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		store:      store,
		webhookURL: webhookURL,
		cooldown:   time.Duration(cooldownSecs) * time.Second,
		client:     &http.Client{Timeout: 10 * time.Second},
		log:        log.With().Str("component", "alerts.dispatcher").Logger(),
	}
}

// Enabled reports whether a webhook URL is configured.
func (d *Dispatcher) Enabled() bool {
	return d.webhookURL != ""
}

// Tick evaluates the actionable alert set against persisted state and
// fires notify/clear webhooks for every transition, per spec's dispatcher
// rule: notify iff newly active, or active with cooldown elapsed; clear
// for any previously-active code absent from the current set.
func (d *Dispatcher) Tick(ctx context.Context, now time.Time, actionable []domain.Alert) error {
	if !d.Enabled() {
		return nil
	}

	prevStates, err := d.store.LoadAlertStates()
	if err != nil {
		return fmt.Errorf("alerts: load states: %w", err)
	}
	prevByCode := make(map[string]domain.AlertStateRecord, len(prevStates))
	for _, s := range prevStates {
		prevByCode[s.Code] = s
	}

	activeNow := make(map[string]bool, len(actionable))
	for _, a := range actionable {
		activeNow[a.Code] = true
		prev, hadPrev := prevByCode[a.Code]
		newlyActive := !hadPrev || !prev.Active
		cooldownElapsed := hadPrev && prev.Active && now.Sub(prev.LastNotifiedAt) >= d.cooldown

		if newlyActive || cooldownElapsed {
			if err := d.post(ctx, map[string]interface{}{
				"event":     "alert",
				"code":      a.Code,
				"severity":  a.Severity,
				"message":   a.Message,
				"timestamp": now.UTC().Format(time.RFC3339),
			}); err != nil {
				d.log.Warn().Err(err).Str("code", a.Code).Msg("alert webhook post failed")
			}
			if err := d.store.UpsertAlertState(domain.AlertStateRecord{
				Code: a.Code, Active: true, LastNotifiedAt: now, UpdatedAt: now,
			}); err != nil {
				return fmt.Errorf("alerts: upsert state %s: %w", a.Code, err)
			}
		}
	}

	for code, prev := range prevByCode {
		if !prev.Active || activeNow[code] {
			continue
		}
		if err := d.post(ctx, map[string]interface{}{
			"event":     "alert_clear",
			"code":      code,
			"timestamp": now.UTC().Format(time.RFC3339),
		}); err != nil {
			d.log.Warn().Err(err).Str("code", code).Msg("alert_clear webhook post failed")
		}
		if err := d.store.UpsertAlertState(domain.AlertStateRecord{
			Code: code, Active: false, LastNotifiedAt: prev.LastNotifiedAt, UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("alerts: upsert clear state %s: %w", code, err)
		}
	}

	return nil
}

func (d *Dispatcher) post(ctx context.Context, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
