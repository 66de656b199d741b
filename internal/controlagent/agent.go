package controlagent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ErrCircuitOpen is returned when the breaker is open and a call fails
// fast without attempting any network I/O.
var ErrCircuitOpen = errors.New("controlagent: circuit open")

// Config wires an Agent to the cloud control plane. New does not check
// BaseURL; an Agent is built from whatever Config it is given.
type Config struct {
	BaseURL string
	Token   string
	Secret  string

	MaxRetries       int           // default 3
	BaseDelay        time.Duration // default 200ms
	FailureThreshold int           // default 5
	CircuitCooldown  time.Duration // default 60s
	RequestTimeout   time.Duration // default 10s
}

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 200 * time.Millisecond
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.CircuitCooldown <= 0 {
		c.CircuitCooldown = 60 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	return c
}

// Agent is the signed, retrying, circuit-broken RPC client the scheduler
// and nightly window use to reach the external cloud control plane.
type Agent struct {
	cfg     Config
	client  *http.Client
	breaker *breaker
	log     zerolog.Logger
}

func New(cfg Config, log zerolog.Logger) *Agent {
	cfg = cfg.withDefaults()
	return &Agent{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		breaker: newBreaker(cfg.FailureThreshold, cfg.CircuitCooldown),
		log:     log.With().Str("component", "controlagent").Logger(),
	}
}

// Status publishes the current runtime status to the cloud plane.
func (a *Agent) Status(ctx context.Context, payload interface{}) error {
	return a.call(ctx, http.MethodPost, "/v1/status", payload)
}

// DailyReport publishes the given date's daily report.
func (a *Agent) DailyReport(ctx context.Context, date string, payload interface{}) error {
	return a.call(ctx, http.MethodPost, fmt.Sprintf("/v1/reports/daily/%s", date), payload)
}

// WeeklyReport publishes the given ISO week's report.
func (a *Agent) WeeklyReport(ctx context.Context, week string, payload interface{}) error {
	return a.call(ctx, http.MethodPost, fmt.Sprintf("/v1/reports/weekly/%s", week), payload)
}

// ReloadOwnerCard asks the cloud plane to acknowledge an owner card reload.
func (a *Agent) ReloadOwnerCard(ctx context.Context) error {
	return a.call(ctx, http.MethodPost, "/v1/agent/reload-owner-card", nil)
}

// ToggleEmergencyMode reports an emergency-mode transition.
func (a *Agent) ToggleEmergencyMode(ctx context.Context, enabled bool) error {
	return a.call(ctx, http.MethodPost, "/v1/agent/emergency-mode", map[string]bool{"enabled": enabled})
}

// SetCuratorMode reports a curator-mode change.
func (a *Agent) SetCuratorMode(ctx context.Context, mode string) error {
	return a.call(ctx, http.MethodPost, "/v1/agent/curator-mode", map[string]string{"mode": mode})
}

// IngestStatus, IngestDaily, and IngestWeekly pull the cloud plane's own
// view back down and decode the JSON response into out.
func (a *Agent) IngestStatus(ctx context.Context, out interface{}) error {
	return a.get(ctx, "/v1/ingest/status", out)
}

func (a *Agent) IngestDaily(ctx context.Context, date string, out interface{}) error {
	return a.get(ctx, fmt.Sprintf("/v1/ingest/daily/%s", date), out)
}

func (a *Agent) IngestWeekly(ctx context.Context, week string, out interface{}) error {
	return a.get(ctx, fmt.Sprintf("/v1/ingest/weekly/%s", week), out)
}

func (a *Agent) call(ctx context.Context, method, path string, payload interface{}) error {
	_, err := a.doWithRetry(ctx, method, path, payload)
	return err
}

func (a *Agent) get(ctx context.Context, path string, out interface{}) error {
	body, err := a.doWithRetry(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// doWithRetry runs the bounded exponential-backoff loop in front of a
// single request attempt. It consults the breaker before every attempt
// (including the first) and records the outcome of each transient
// failure/success against it.
func (a *Agent) doWithRetry(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("controlagent: marshal payload: %w", err)
		}
	}

	var lastErr error
	for k := 0; k <= a.cfg.MaxRetries; k++ {
		if !a.breaker.allow(time.Now()) {
			return nil, ErrCircuitOpen
		}

		respBody, status, reqErr := a.attempt(ctx, method, path, body)
		if reqErr != nil && status >= 400 && !isTransientStatus(status) {
			return nil, reqErr
		}
		if reqErr == nil && !isTransientStatus(status) {
			a.breaker.recordSuccess()
			return respBody, nil
		}

		if reqErr != nil {
			lastErr = reqErr
		} else {
			lastErr = fmt.Errorf("controlagent: transient status %d", status)
		}
		a.breaker.recordFailure(time.Now())
		a.log.Warn().Err(lastErr).Int("attempt", k).Str("path", path).Msg("control agent call failed")

		if k == a.cfg.MaxRetries {
			break
		}
		delay := backoffFor(k, a.cfg.BaseDelay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("controlagent: exhausted retries: %w", lastErr)
}

// backoffFor implements base * 2^min(k,6).
func backoffFor(k int, base time.Duration) time.Duration {
	if k > 6 {
		k = 6
	}
	return base * time.Duration(1<<uint(k))
}

func isTransientStatus(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status <= 599)
}

func (a *Agent) attempt(ctx context.Context, method, path string, body []byte) ([]byte, int, error) {
	url := a.cfg.BaseURL + path
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	if a.cfg.Token != "" && a.cfg.Secret != "" {
		ts := time.Now().Unix()
		sig := Sign(a.cfg.Secret, method, path, ts, string(body))
		req.Header.Set("Authorization", "Bearer "+a.cfg.Token)
		req.Header.Set("x-vvtv-ts", fmt.Sprintf("%d", ts))
		req.Header.Set("x-vvtv-signature", sig)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if resp.StatusCode >= 400 && !isTransientStatus(resp.StatusCode) {
		return nil, resp.StatusCode, fmt.Errorf("controlagent: non-transient status %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, resp.StatusCode, nil
}
