// Package feedsource polls the configured external candidate feeds and
// turns their JSON payloads into pipeline.DiscoveryInput values for the
// discovery window. It is the one component in the daemon that reaches
// out to arbitrary third-party hosts, so a single slow or broken feed
// never blocks the others or fails the window.
package feedsource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/danvoulez/voulezvous-tv/internal/pipeline"
)

// feedItem is the wire shape each feed endpoint is expected to return: a
// JSON array of candidates. Fields mirror pipeline.DiscoveryInput; policy
// filtering and scoring happen downstream in Discovery.discover, not here.
type feedItem struct {
	SourceURL     string   `json:"source_url"`
	Title         string   `json:"title"`
	Tags          []string `json:"tags"`
	ThemeTags     []string `json:"theme_tags"`
	DurationSec   int      `json:"duration_sec"`
	SourceDomain  string   `json:"source_domain"`
	HDConfirmed   bool     `json:"hd_confirmed"`
	QualitySignal []string `json:"quality_signal"`
	VisualTags    []string `json:"visual_tags"`
}

// HTTPFeedSource implements scheduler.DiscoverySource by fetching a fixed
// list of feed URLs every discovery window. Each URL is independent: a
// failing or malformed feed is logged and skipped, never aborts the poll.
type HTTPFeedSource struct {
	urls   []string
	client *http.Client
	log    zerolog.Logger
}

// NewHTTPFeedSource builds a feed source over the given endpoint URLs. An
// empty list is valid — SeedInputs then returns no candidates, which is
// the correct behavior for a deployment with no feeds configured yet.
func NewHTTPFeedSource(urls []string, log zerolog.Logger) *HTTPFeedSource {
	return &HTTPFeedSource{
		urls:   urls,
		client: &http.Client{Timeout: 15 * time.Second},
		log:    log.With().Str("component", "feedsource").Logger(),
	}
}

// SeedInputs polls every configured feed and aggregates the results. It
// only returns an error if no feed could be reached at all; partial
// failure across a subset of feeds is logged and otherwise ignored so one
// broken upstream doesn't starve discovery of every other source.
func (s *HTTPFeedSource) SeedInputs(ctx context.Context) ([]pipeline.DiscoveryInput, error) {
	if len(s.urls) == 0 {
		return nil, nil
	}

	var inputs []pipeline.DiscoveryInput
	failures := 0
	now := time.Now().UTC()

	for _, url := range s.urls {
		items, err := s.fetchOne(ctx, url)
		if err != nil {
			failures++
			s.log.Warn().Err(err).Str("url", url).Msg("discovery feed fetch failed, skipping")
			continue
		}
		for _, it := range items {
			inputs = append(inputs, pipeline.DiscoveryInput{
				SourceURL:     it.SourceURL,
				Title:         it.Title,
				Tags:          it.Tags,
				ThemeTags:     it.ThemeTags,
				DurationSec:   it.DurationSec,
				SourceDomain:  normalizeDomain(it.SourceDomain, it.SourceURL),
				HDConfirmed:   it.HDConfirmed,
				QualitySignal: it.QualitySignal,
				VisualTags:    it.VisualTags,
				DiscoveredAt:  now,
			})
		}
	}

	if failures == len(s.urls) {
		return nil, fmt.Errorf("feedsource: all %d feeds failed", failures)
	}
	return inputs, nil
}

func (s *HTTPFeedSource) fetchOne(ctx context.Context, url string) ([]feedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var items []feedItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return items, nil
}

// normalizeDomain prefers an explicit source_domain field, falling back to
// deriving one from the URL's host when the feed omits it.
func normalizeDomain(domain, sourceURL string) string {
	if domain != "" {
		return strings.ToLower(domain)
	}
	rest := strings.TrimPrefix(strings.TrimPrefix(sourceURL, "https://"), "http://")
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.ToLower(rest)
}
