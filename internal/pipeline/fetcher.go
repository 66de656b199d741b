package pipeline

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danvoulez/voulezvous-tv/internal/config"
	"github.com/danvoulez/voulezvous-tv/internal/domain"
)

// FetchContext carries the transient facts the commit window has gathered
// about the outside world — right now, just which URLs recently failed.
type FetchContext struct {
	BrokenURLs map[string]bool
}

// CommitTMinus4h selects eligible scheduled items in order, backfilling
// from reserves (skipping plan IDs already used) until target_items is
// reached or both lists are exhausted. An item is eligible when it was
// discovered within commit_lead_hours of now and its URL isn't broken.
func CommitTMinus4h(card *config.OwnerCard, now time.Time, scheduled, reserves []domain.PlanItem, ctx FetchContext) []domain.AssetItem {
	targetItems := card.Buffer.BufferTargetMinutes / 10
	if targetItems < 1 {
		targetItems = 1
	}

	used := make(map[string]bool)
	var assets []domain.AssetItem

	for _, plan := range scheduled {
		if len(assets) >= targetItems {
			break
		}
		if !eligible(card, now, plan, ctx) {
			continue
		}
		used[plan.PlanID] = true
		assets = append(assets, newAsset(plan, now))
	}

	for _, plan := range reserves {
		if len(assets) >= targetItems {
			break
		}
		if used[plan.PlanID] {
			continue
		}
		if !eligible(card, now, plan, ctx) {
			continue
		}
		used[plan.PlanID] = true
		assets = append(assets, newAsset(plan, now))
	}

	return assets
}

func eligible(card *config.OwnerCard, now time.Time, plan domain.PlanItem, ctx FetchContext) bool {
	deadline := now.Add(time.Duration(card.Commit.CommitLeadHours) * time.Hour)
	if plan.DiscoveredAt.After(deadline) {
		return false
	}
	if ctx.BrokenURLs[plan.SourceURL] {
		return false
	}
	return true
}

func newAsset(plan domain.PlanItem, now time.Time) domain.AssetItem {
	resolution := domain.Resolution{Width: 1280, Height: 720}
	for _, tag := range plan.VisualTags {
		if strings.Contains(strings.ToLower(tag), "vertical") {
			resolution = domain.Resolution{Width: 720, Height: 1280}
			break
		}
	}

	return domain.AssetItem{
		AssetID:     "asset-" + uuid.NewString(),
		PlanID:      plan.PlanID,
		Resolution:  resolution,
		QaStatus:    domain.QaPending,
		DurationSec: plan.DurationSec,
		SourceURL:   plan.SourceURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
