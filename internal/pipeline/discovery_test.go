package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danvoulez/voulezvous-tv/internal/config"
)

func testCard() *config.OwnerCard {
	return &config.OwnerCard{
		SchemaVersion: 1,
		Discovery: config.DiscoveryPolicy{
			AllowlistDomains:  []string{"example-source-a.com", "example-source-b.com"},
			BlacklistDomains:  []string{"blocked-source.com"},
			BlockedKeywords:   []string{"graphic"},
			RequireHD:         true,
			TargetDurationSec: 90,
			PreferredMoodTags: []string{"upbeat", "calm"},
		},
		Planning: config.PlanningPolicy{
			MaxConsecutiveSameTheme: 2,
			MinUniqueThemesPerBlock: 2,
		},
		Buffer: config.BufferPolicy{
			BufferTargetMinutes:   60,
			BufferCriticalMinutes: 20,
		},
		Commit: config.CommitPolicy{
			CommitLeadHours: 6,
			IntervalMinutes: 30,
		},
		Autotune: config.AutotunePolicy{MaxDailyAdjustmentPct: 10},
	}
}

func TestDiscover_AcceptsAllowlistedHDInputs(t *testing.T) {
	card := testCard()
	inputs := []DiscoveryInput{
		{SourceURL: "https://example-source-a.com/v1", Title: "Calm Waves", SourceDomain: "example-source-a.com", HDConfirmed: true, DurationSec: 90, DiscoveredAt: time.Now()},
		{SourceURL: "https://example-source-b.com/v2", Title: "City Lights", SourceDomain: "example-source-b.com", HDConfirmed: true, DurationSec: 85, DiscoveredAt: time.Now()},
	}

	accepted := Discover(card, inputs)
	require.Len(t, accepted, 2)
	for _, p := range accepted {
		assert.True(t, card.DomainAllowlisted(p.SourceDomain))
		assert.False(t, card.DomainBlacklisted(p.SourceDomain))
	}
}

func TestDiscover_RejectsNonAllowlistedDomain(t *testing.T) {
	card := testCard()
	inputs := []DiscoveryInput{
		{SourceURL: "https://random-site.com/v1", Title: "Whatever", SourceDomain: "random-site.com", HDConfirmed: true, DurationSec: 90, DiscoveredAt: time.Now()},
	}
	assert.Empty(t, Discover(card, inputs))
}

func TestDiscover_RejectsBlacklistedDomainEvenIfAllowlistedSuffix(t *testing.T) {
	card := testCard()
	card.Discovery.AllowlistDomains = append(card.Discovery.AllowlistDomains, "blocked-source.com")
	inputs := []DiscoveryInput{
		{SourceURL: "https://cdn.blocked-source.com/v1", Title: "Whatever", SourceDomain: "cdn.blocked-source.com", HDConfirmed: true, DurationSec: 90, DiscoveredAt: time.Now()},
	}
	assert.Empty(t, Discover(card, inputs))
}

func TestDiscover_RejectsBlockedKeyword(t *testing.T) {
	card := testCard()
	inputs := []DiscoveryInput{
		{SourceURL: "https://example-source-a.com/v1", Title: "Graphic Content Warning", SourceDomain: "example-source-a.com", HDConfirmed: true, DurationSec: 90, DiscoveredAt: time.Now()},
	}
	assert.Empty(t, Discover(card, inputs))
}

func TestDiscover_RejectsWithoutHDWhenRequired(t *testing.T) {
	card := testCard()
	inputs := []DiscoveryInput{
		{SourceURL: "https://example-source-a.com/v1", Title: "SD Clip", SourceDomain: "example-source-a.com", HDConfirmed: false, DurationSec: 90, DiscoveredAt: time.Now()},
	}
	assert.Empty(t, Discover(card, inputs))
}

func TestDiscover_SortsByScoreThenRecency(t *testing.T) {
	card := testCard()
	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	inputs := []DiscoveryInput{
		{SourceURL: "https://example-source-a.com/low", Title: "Low Score", SourceDomain: "example-source-a.com", HDConfirmed: true, DurationSec: 300, DiscoveredAt: older},
		{SourceURL: "https://example-source-a.com/high", Title: "High Score", SourceDomain: "example-source-a.com", HDConfirmed: true, DurationSec: 90, QualitySignal: []string{"4k", "stereo"}, Tags: []string{"upbeat", "calm"}, DiscoveredAt: newer},
	}

	accepted := Discover(card, inputs)
	require.Len(t, accepted, 2)
	assert.True(t, accepted[0].PolicyScore >= accepted[1].PolicyScore)
	assert.Equal(t, "High Score", accepted[0].Title)
}

func TestDiscoveryInvariant_AcceptedImpliesPolicyCompliant(t *testing.T) {
	card := testCard()
	inputs := []DiscoveryInput{
		{SourceURL: "a", Title: "ok", SourceDomain: "example-source-a.com", HDConfirmed: true, DurationSec: 90, DiscoveredAt: time.Now()},
		{SourceURL: "b", Title: "ok", SourceDomain: "not-allowed.com", HDConfirmed: true, DurationSec: 90, DiscoveredAt: time.Now()},
		{SourceURL: "c", Title: "graphic scene", SourceDomain: "example-source-a.com", HDConfirmed: true, DurationSec: 90, DiscoveredAt: time.Now()},
		{SourceURL: "d", Title: "ok", SourceDomain: "example-source-a.com", HDConfirmed: false, DurationSec: 90, DiscoveredAt: time.Now()},
	}

	accepted := Discover(card, inputs)
	for _, p := range accepted {
		assert.True(t, card.DomainAllowlisted(p.SourceDomain))
		assert.False(t, card.DomainBlacklisted(p.SourceDomain))
		assert.True(t, p.HDConfirmed)
	}
	assert.Len(t, accepted, 1)
}
