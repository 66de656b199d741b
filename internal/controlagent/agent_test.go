package controlagent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func TestAgent_Status_SignsRequestHeaders(t *testing.T) {
	var capturedAuth, capturedTS, capturedSig string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedAuth = r.Header.Get("Authorization")
		capturedTS = r.Header.Get("x-vvtv-ts")
		capturedSig = r.Header.Get("x-vvtv-signature")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	agent := New(Config{BaseURL: server.URL, Token: "tok", Secret: "sec"}, testLogger())
	err := agent.Status(context.Background(), map[string]string{"state": "ok"})

	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", capturedAuth)
	assert.NotEmpty(t, capturedTS)
	assert.Len(t, capturedSig, 64)
}

func TestAgent_RetriesOnTransientStatusThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	agent := New(Config{BaseURL: server.URL, MaxRetries: 5, BaseDelay: time.Millisecond}, testLogger())
	err := agent.call(context.Background(), http.MethodPost, "/v1/status", nil)

	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestAgent_DoesNotRetryNonTransientStatus(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	agent := New(Config{BaseURL: server.URL, MaxRetries: 5, BaseDelay: time.Millisecond}, testLogger())
	err := agent.call(context.Background(), http.MethodPost, "/v1/status", nil)

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAgent_CircuitOpensAndFailsFastWithoutNetworkIO(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	agent := New(Config{
		BaseURL:          server.URL,
		MaxRetries:       0,
		BaseDelay:        time.Millisecond,
		FailureThreshold: 2,
		CircuitCooldown:  time.Minute,
	}, testLogger())

	_ = agent.call(context.Background(), http.MethodPost, "/v1/status", nil)
	_ = agent.call(context.Background(), http.MethodPost, "/v1/status", nil)
	before := atomic.LoadInt32(&calls)

	err := agent.call(context.Background(), http.MethodPost, "/v1/status", nil)
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, before, atomic.LoadInt32(&calls), "an open circuit must not perform network I/O")
}
