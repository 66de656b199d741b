package feedsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedInputs_AggregatesAcrossFeeds(t *testing.T) {
	feedA := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"source_url":"https://example-source-a.com/x","title":"clip a","duration_sec":60,"hd_confirmed":true}]`))
	}))
	defer feedA.Close()

	feedB := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"source_url":"https://example-source-b.com/y","source_domain":"example-source-b.com","duration_sec":45}]`))
	}))
	defer feedB.Close()

	src := NewHTTPFeedSource([]string{feedA.URL, feedB.URL}, zerolog.Nop())
	inputs, err := src.SeedInputs(context.Background())
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, "example-source-a.com", inputs[0].SourceDomain)
	assert.Equal(t, "example-source-b.com", inputs[1].SourceDomain)
}

func TestSeedInputs_SkipsFailingFeedsButKeepsGoodOnes(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"source_url":"https://example-source-a.com/x","duration_sec":30}]`))
	}))
	defer good.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	src := NewHTTPFeedSource([]string{good.URL, bad.URL}, zerolog.Nop())
	inputs, err := src.SeedInputs(context.Background())
	require.NoError(t, err)
	require.Len(t, inputs, 1)
}

func TestSeedInputs_FailsOnlyWhenEveryFeedFails(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	src := NewHTTPFeedSource([]string{bad.URL}, zerolog.Nop())
	_, err := src.SeedInputs(context.Background())
	assert.Error(t, err)
}

func TestSeedInputs_ReturnsNilWithNoFeedsConfigured(t *testing.T) {
	src := NewHTTPFeedSource(nil, zerolog.Nop())
	inputs, err := src.SeedInputs(context.Background())
	require.NoError(t, err)
	assert.Nil(t, inputs)
}
