package pipeline

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/danvoulez/voulezvous-tv/internal/config"
	"github.com/danvoulez/voulezvous-tv/internal/domain"
)

const genericTheme = "generic"

// DayPlan is the split produced by BuildDay: scheduled items make the
// programme, reserves backfill the fetcher when scheduled items fall
// through.
type DayPlan struct {
	Scheduled []domain.PlanItem
	Reserves  []domain.PlanItem
}

// BuildDay deduplicates by source URL and normalized title, buckets the
// survivors by primary theme, and greedily picks the highest-scoring
// front-of-bucket item subject to a same-theme streak cap and a fairness
// bonus for under-represented themes. Everything not picked — including the
// whole generic bucket — becomes reserves.
func BuildDay(card *config.OwnerCard, plans []domain.PlanItem) DayPlan {
	deduped := dedupePlans(plans)
	buckets := bucketByTheme(deduped)

	// The generic bucket (no theme tag) never competes for a scheduled
	// slot — it always falls straight through to reserves.
	genericBucket := buckets[genericTheme]
	delete(buckets, genericTheme)

	var scheduled []domain.PlanItem
	recentThemes := make([]string, 0, card.Planning.MaxConsecutiveSameTheme+1)
	seenThemes := make(map[string]bool)
	var durations []float64

	for {
		streak := trailingStreak(recentThemes)
		theme, ok := bestEligibleBucket(buckets, card, seenThemes, durations, streak, card.Planning.MaxConsecutiveSameTheme)
		if !ok {
			break
		}

		bucket := buckets[theme]
		item := bucket[0]
		buckets[theme] = bucket[1:]
		if len(buckets[theme]) == 0 {
			delete(buckets, theme)
		}

		item.State = domain.PlanScheduled
		scheduled = append(scheduled, item)
		durations = append(durations, float64(item.DurationSec))
		seenThemes[theme] = true

		recentThemes = append(recentThemes, theme)
		if len(recentThemes) > card.Planning.MaxConsecutiveSameTheme {
			recentThemes = recentThemes[1:]
		}
	}

	reserves := make([]domain.PlanItem, 0, len(genericBucket))
	for _, item := range genericBucket {
		item.State = domain.PlanReserved
		reserves = append(reserves, item)
	}
	for _, bucket := range buckets {
		for _, item := range bucket {
			item.State = domain.PlanReserved
			reserves = append(reserves, item)
		}
	}
	sort.SliceStable(reserves, func(i, j int) bool {
		return reserves[i].PolicyScore > reserves[j].PolicyScore
	})

	return DayPlan{Scheduled: scheduled, Reserves: reserves}
}

// bestEligibleBucket scores every bucket's front item by fairness and
// returns the theme with the highest score, skipping any bucket whose
// theme is already at the streak cap. Ties break on theme name so the
// result is deterministic regardless of map iteration order.
func bestEligibleBucket(buckets map[string][]domain.PlanItem, card *config.OwnerCard, seenThemes map[string]bool, durations []float64, streak themeStreak, maxStreak int) (string, bool) {
	bestTheme := ""
	bestScore := 0.0
	found := false

	for theme, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		if streak.theme == theme && streak.count >= maxStreak {
			continue
		}

		score := fairnessScore(bucket[0], card, seenThemes, theme, durations)
		if !found || score > bestScore || (score == bestScore && theme < bestTheme) {
			bestTheme = theme
			bestScore = score
			found = true
		}
	}

	return bestTheme, found
}

type themeStreak struct {
	theme string
	count int
}

func trailingStreak(recentThemes []string) themeStreak {
	if len(recentThemes) == 0 {
		return themeStreak{}
	}
	last := recentThemes[len(recentThemes)-1]
	count := 0
	for i := len(recentThemes) - 1; i >= 0 && recentThemes[i] == last; i-- {
		count++
	}
	return themeStreak{theme: last, count: count}
}

// fairnessScore is policy_score*100, +30 when theme is not yet represented
// and fewer than min_unique_themes_per_block themes have been used, and a
// +/-10 nudge pulling the running average duration toward the target.
func fairnessScore(item domain.PlanItem, card *config.OwnerCard, seenThemes map[string]bool, theme string, durations []float64) float64 {
	score := item.PolicyScore * 100

	if !seenThemes[theme] && len(seenThemes) < card.Planning.MinUniqueThemesPerBlock {
		score += 30
	}

	if len(durations) > 0 {
		avg := stat.Mean(durations, nil)
		target := float64(card.Discovery.TargetDurationSec)
		pullsToward := (target-avg)*float64(item.DurationSec-int(avg)) > 0
		if pullsToward {
			score += 10
		} else {
			score -= 10
		}
	}

	return score
}

func bucketByTheme(plans []domain.PlanItem) map[string][]domain.PlanItem {
	buckets := make(map[string][]domain.PlanItem)
	for _, p := range plans {
		theme := primaryTheme(p.ThemeTags)
		buckets[theme] = append(buckets[theme], p)
	}
	for theme := range buckets {
		bucket := buckets[theme]
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].PolicyScore > bucket[j].PolicyScore
		})
		buckets[theme] = bucket
	}
	return buckets
}

func primaryTheme(themeTags []string) string {
	for _, t := range themeTags {
		if t != "" {
			return t
		}
	}
	return genericTheme
}

func dedupePlans(plans []domain.PlanItem) []domain.PlanItem {
	seenURL := make(map[string]bool)
	seenTitle := make(map[string]bool)
	out := make([]domain.PlanItem, 0, len(plans))

	for _, p := range plans {
		normalized := domain.NormalizedTitle(p.Title)
		if seenURL[p.SourceURL] || seenTitle[normalized] {
			continue
		}
		seenURL[p.SourceURL] = true
		seenTitle[normalized] = true
		out = append(out, p)
	}
	return out
}
