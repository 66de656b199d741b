// Package config loads and validates the Owner Card policy document and the
// process's environment-derived runtime configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// OwnerCard is the single declarative policy document governing discovery,
// scheduling, quality, curation, safety, and autotune behavior. It is loaded
// at boot, reloaded on a control signal, and never mutated in place —
// callers always replace the whole value.
type OwnerCard struct {
	SchemaVersion int `json:"schema_version"`

	Discovery DiscoveryPolicy `json:"discovery"`
	Planning  PlanningPolicy  `json:"planning"`
	Buffer    BufferPolicy    `json:"buffer"`
	Commit    CommitPolicy    `json:"commit"`
	Autotune  AutotunePolicy  `json:"autotune"`
}

// DiscoveryPolicy governs which candidates discovery accepts.
type DiscoveryPolicy struct {
	AllowlistDomains  []string `json:"allowlist_domains"`
	BlacklistDomains  []string `json:"blacklist_domains"`
	BlockedKeywords   []string `json:"blocked_keywords"`
	RequireHD         bool     `json:"require_hd"`
	TargetDurationSec int      `json:"target_duration_sec"`
	PreferredMoodTags []string `json:"preferred_mood_tags"`
}

// PlanningPolicy governs how the day's schedule is packed.
type PlanningPolicy struct {
	MaxConsecutiveSameTheme int `json:"max_consecutive_same_theme"`
	MinUniqueThemesPerBlock int `json:"min_unique_themes_per_block"`
}

// BufferPolicy governs the minimum/target on-air buffer.
type BufferPolicy struct {
	BufferTargetMinutes   int `json:"buffer_target_minutes"`
	BufferCriticalMinutes int `json:"buffer_critical_minutes"`
}

// CommitPolicy governs the T-minus commit window.
type CommitPolicy struct {
	CommitLeadHours int `json:"commit_lead_hours"`
	IntervalMinutes int `json:"interval_minutes"`
}

// AutotunePolicy bounds the nightly autotune job's daily adjustments.
type AutotunePolicy struct {
	MaxDailyAdjustmentPct int `json:"max_daily_adjustment_pct"`
}

// LoadOwnerCard reads and validates an Owner Card JSON document from path.
func LoadOwnerCard(path string) (*OwnerCard, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read owner card %s: %w", path, err)
	}

	var card OwnerCard
	if err := json.Unmarshal(raw, &card); err != nil {
		return nil, fmt.Errorf("failed to parse owner card %s: %w", path, err)
	}

	if err := card.Validate(); err != nil {
		return nil, fmt.Errorf("owner card %s failed validation: %w", path, err)
	}

	return &card, nil
}

// Validate checks every invariant from the data model. It returns the first
// violation found, with a reason specific enough to act on; config errors
// of this kind are fatal at startup.
func (c *OwnerCard) Validate() error {
	if c.SchemaVersion < 1 {
		return fmt.Errorf("schema_version must be >= 1, got %d", c.SchemaVersion)
	}

	if len(c.Discovery.AllowlistDomains) == 0 {
		return fmt.Errorf("allowlist_domains must be non-empty")
	}
	for _, d := range c.Discovery.AllowlistDomains {
		if strings.TrimSpace(d) == "" {
			return fmt.Errorf("allowlist_domains must not contain empty entries")
		}
	}

	if c.Buffer.BufferCriticalMinutes >= c.Buffer.BufferTargetMinutes {
		return fmt.Errorf("buffer_critical_minutes (%d) must be < buffer_target_minutes (%d)",
			c.Buffer.BufferCriticalMinutes, c.Buffer.BufferTargetMinutes)
	}

	if c.Autotune.MaxDailyAdjustmentPct > 20 {
		return fmt.Errorf("autotune.max_daily_adjustment_pct must be <= 20, got %d",
			c.Autotune.MaxDailyAdjustmentPct)
	}

	if c.Planning.MaxConsecutiveSameTheme < 1 {
		return fmt.Errorf("planning.max_consecutive_same_theme must be >= 1, got %d",
			c.Planning.MaxConsecutiveSameTheme)
	}

	if c.Commit.IntervalMinutes < 0 {
		return fmt.Errorf("commit.interval_minutes must be >= 0, got %d", c.Commit.IntervalMinutes)
	}

	return nil
}

// DomainAllowlisted reports whether domain is a suffix match of any
// allowlisted domain (e.g. "clips.example-source-a.com" matches
// "example-source-a.com").
func (c *OwnerCard) DomainAllowlisted(domain string) bool {
	return suffixMatchesAny(domain, c.Discovery.AllowlistDomains)
}

// DomainBlacklisted reports whether domain is a suffix match of any
// blacklisted domain.
func (c *OwnerCard) DomainBlacklisted(domain string) bool {
	return suffixMatchesAny(domain, c.Discovery.BlacklistDomains)
}

func suffixMatchesAny(domain string, candidates []string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	for _, c := range candidates {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if domain == c || strings.HasSuffix(domain, "."+c) {
			return true
		}
	}
	return false
}
