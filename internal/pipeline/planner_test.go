package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/danvoulez/voulezvous-tv/internal/domain"
)

func plan(id, url, title string, score float64, themes []string) domain.PlanItem {
	return domain.PlanItem{
		PlanID:       id,
		SourceURL:    url,
		Title:        title,
		ThemeTags:    themes,
		DurationSec:  90,
		PolicyScore:  score,
		DiscoveredAt: time.Now(),
	}
}

func TestBuildDay_DeduplicatesByURLAndNormalizedTitle(t *testing.T) {
	card := testCard()
	plans := []domain.PlanItem{
		plan("p1", "https://a.com/1", "Calm Waves", 0.9, []string{"calm"}),
		plan("p2", "https://a.com/1", "Different Title", 0.8, []string{"calm"}),
		plan("p3", "https://a.com/2", "calm waves", 0.7, []string{"energy"}),
	}

	day := BuildDay(card, plans)
	all := append(append([]domain.PlanItem{}, day.Scheduled...), day.Reserves...)
	assert.Len(t, all, 1, "duplicate URL and duplicate normalized title must both be dropped")
}

func TestBuildDay_GenericThemeAlwaysReserved(t *testing.T) {
	card := testCard()
	plans := []domain.PlanItem{
		plan("p1", "https://a.com/1", "No Theme", 0.95, nil),
	}

	day := BuildDay(card, plans)
	assert.Empty(t, day.Scheduled)
	assert.Len(t, day.Reserves, 1)
}

func TestBuildDay_NoStreakLongerThanMaxConsecutiveSameTheme(t *testing.T) {
	card := testCard()
	card.Planning.MaxConsecutiveSameTheme = 2

	var plans []domain.PlanItem
	for i := 0; i < 6; i++ {
		plans = append(plans, plan(
			"p"+string(rune('a'+i)),
			"https://a.com/"+string(rune('a'+i)),
			"Title "+string(rune('a'+i)),
			0.9-float64(i)*0.01,
			[]string{"calm"},
		))
	}
	for i := 0; i < 3; i++ {
		plans = append(plans, plan(
			"q"+string(rune('a'+i)),
			"https://b.com/"+string(rune('a'+i)),
			"Other "+string(rune('a'+i)),
			0.5,
			[]string{"energy"},
		))
	}

	day := BuildDay(card, plans)

	window := card.Planning.MaxConsecutiveSameTheme + 1
	for i := 0; i+window <= len(day.Scheduled); i++ {
		allSame := true
		first := primaryTheme(day.Scheduled[i].ThemeTags)
		for j := i; j < i+window; j++ {
			if primaryTheme(day.Scheduled[j].ThemeTags) != first {
				allSame = false
				break
			}
		}
		assert.False(t, allSame, "window starting at %d must not be all one theme", i)
	}
}

func TestBuildDay_NoSharedURLOrNormalizedTitleInScheduled(t *testing.T) {
	card := testCard()
	plans := []domain.PlanItem{
		plan("p1", "https://a.com/1", "Title One", 0.9, []string{"calm"}),
		plan("p2", "https://a.com/2", "Title Two", 0.8, []string{"energy"}),
	}

	day := BuildDay(card, plans)

	seenURL := map[string]bool{}
	seenTitle := map[string]bool{}
	for _, p := range day.Scheduled {
		assert.False(t, seenURL[p.SourceURL])
		assert.False(t, seenTitle[domain.NormalizedTitle(p.Title)])
		seenURL[p.SourceURL] = true
		seenTitle[domain.NormalizedTitle(p.Title)] = true
	}
}
