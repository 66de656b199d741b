// Package pipeline holds the pure, collaborator-contract transforms the
// scheduler invokes each window: discovery, planning, fetching, prep,
// queue build, curation, and nightly autotune. None of these touch the
// store or the network — they take immutable snapshots and return new
// values, which is what makes them trivially testable.
package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danvoulez/voulezvous-tv/internal/config"
	"github.com/danvoulez/voulezvous-tv/internal/domain"
)

// DiscoveryInput is one raw candidate surfaced by an external source feed,
// before any policy filtering has been applied.
type DiscoveryInput struct {
	SourceURL     string
	Title         string
	Tags          []string
	ThemeTags     []string
	DurationSec   int
	SourceDomain  string
	HDConfirmed   bool
	QualitySignal []string
	VisualTags    []string
	DiscoveredAt  time.Time
}

var qualityKeywords = []string{"4k", "1080", "stereo", "clean"}

// Discover filters inputs against the owner card's allowlist/blacklist/
// blocked-keyword/HD policy, scores the survivors, and returns them sorted
// by score descending, then discovered_at descending.
func Discover(card *config.OwnerCard, inputs []DiscoveryInput) []domain.PlanItem {
	accepted := make([]domain.PlanItem, 0, len(inputs))

	for _, in := range inputs {
		if !card.DomainAllowlisted(in.SourceDomain) {
			continue
		}
		if card.DomainBlacklisted(in.SourceDomain) {
			continue
		}
		if containsBlockedKeyword(in.Title, in.Tags, card.Discovery.BlockedKeywords) {
			continue
		}
		if card.Discovery.RequireHD && !in.HDConfirmed {
			continue
		}

		score := policyMatchScore(card, in)
		accepted = append(accepted, domain.PlanItem{
			PlanID:        "plan-" + uuid.NewString(),
			SourceURL:     in.SourceURL,
			Title:         in.Title,
			Tags:          in.Tags,
			ThemeTags:     in.ThemeTags,
			DurationSec:   in.DurationSec,
			DiscoveredAt:  in.DiscoveredAt,
			PolicyScore:   score,
			State:         domain.PlanCandidate,
			SourceDomain:  in.SourceDomain,
			HDConfirmed:   in.HDConfirmed,
			QualitySignal: in.QualitySignal,
			VisualTags:    in.VisualTags,
			CreatedAt:     in.DiscoveredAt,
			UpdatedAt:     in.DiscoveredAt,
		})
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		if accepted[i].PolicyScore != accepted[j].PolicyScore {
			return accepted[i].PolicyScore > accepted[j].PolicyScore
		}
		return accepted[i].DiscoveredAt.After(accepted[j].DiscoveredAt)
	})

	return accepted
}

// policyMatchScore starts at 0.5 and adds up to 0.2 for duration closeness,
// up to 0.16 for preferred-mood tag matches (0.08 each, two caps it), and up
// to 0.15 for quality-signal matches against "4k|1080|stereo|clean" (0.05
// each, three caps it).
func policyMatchScore(card *config.OwnerCard, in DiscoveryInput) float64 {
	score := 0.5
	score += durationClosenessBonus(in.DurationSec, card.Discovery.TargetDurationSec)
	score += moodTagBonus(in.Tags, card.Discovery.PreferredMoodTags)
	score += qualitySignalBonus(in.QualitySignal)
	return score
}

func durationClosenessBonus(actual, target int) float64 {
	if target <= 0 {
		return 0
	}
	diff := actual - target
	if diff < 0 {
		diff = -diff
	}
	closeness := 1.0 - float64(diff)/float64(target)
	if closeness < 0 {
		closeness = 0
	}
	return closeness * 0.2
}

func moodTagBonus(tags, preferredMoodTags []string) float64 {
	matches := 0
	for _, t := range tags {
		if containsFold(preferredMoodTags, t) {
			matches++
		}
	}
	bonus := float64(matches) * 0.08
	if bonus > 0.16 {
		bonus = 0.16
	}
	return bonus
}

func qualitySignalBonus(signals []string) float64 {
	matches := 0
	for _, s := range signals {
		lower := strings.ToLower(s)
		for _, kw := range qualityKeywords {
			if strings.Contains(lower, kw) {
				matches++
				break
			}
		}
	}
	bonus := float64(matches) * 0.05
	if bonus > 0.15 {
		bonus = 0.15
	}
	return bonus
}

func containsBlockedKeyword(title string, tags, blocked []string) bool {
	lowerTitle := strings.ToLower(title)
	for _, kw := range blocked {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(lowerTitle, kw) {
			return true
		}
		if containsFold(tags, kw) {
			return true
		}
	}
	return false
}

func containsFold(haystack []string, needle string) bool {
	needle = strings.ToLower(needle)
	for _, h := range haystack {
		if strings.ToLower(h) == needle {
			return true
		}
	}
	return false
}
