package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danvoulez/voulezvous-tv/internal/config"
	"github.com/danvoulez/voulezvous-tv/internal/pipeline"
)

type fakeDiscoverySource struct {
	inputs []pipeline.DiscoveryInput
	err    error
}

func (f *fakeDiscoverySource) SeedInputs(ctx context.Context) ([]pipeline.DiscoveryInput, error) {
	return f.inputs, f.err
}

func testCard() *config.OwnerCard {
	return &config.OwnerCard{
		SchemaVersion: 1,
		Discovery: config.DiscoveryPolicy{
			AllowlistDomains:  []string{"example-source-a.com"},
			TargetDurationSec: 60,
		},
		Planning: config.PlanningPolicy{MaxConsecutiveSameTheme: 2, MinUniqueThemesPerBlock: 1},
		Buffer:   config.BufferPolicy{BufferTargetMinutes: 60, BufferCriticalMinutes: 20},
		Commit:   config.CommitPolicy{CommitLeadHours: 4, IntervalMinutes: 30},
		Autotune: config.AutotunePolicy{MaxDailyAdjustmentPct: 10},
	}
}

func TestDiscoveryWindow_PersistsScheduledAndReservePlans(t *testing.T) {
	fs := newFakeStore()
	source := &fakeDiscoverySource{inputs: []pipeline.DiscoveryInput{
		{SourceURL: "https://clips.example-source-a.com/1", Title: "Clip One", SourceDomain: "example-source-a.com", DurationSec: 60, ThemeTags: []string{"nature"}, DiscoveredAt: time.Now()},
		{SourceURL: "https://clips.example-source-a.com/2", Title: "Clip Two", SourceDomain: "example-source-a.com", DurationSec: 60, ThemeTags: []string{"nature"}, DiscoveredAt: time.Now()},
	}}
	win := NewDiscoveryWindow(fs, source, zerolog.Nop())

	require.NoError(t, win.Run(context.Background(), time.Now().UTC(), testCard()))

	assert.NotEmpty(t, fs.plans)
	require.Len(t, fs.audits, 1)
	assert.Equal(t, "DISCOVERY_WINDOW_OK", fs.audits[0].ReasonCode)
}

func TestDiscoveryWindow_PropagatesSourceError(t *testing.T) {
	fs := newFakeStore()
	source := &fakeDiscoverySource{err: assertError("source down")}
	win := NewDiscoveryWindow(fs, source, zerolog.Nop())

	err := win.Run(context.Background(), time.Now().UTC(), testCard())
	assert.Error(t, err)
	assert.Empty(t, fs.audits)
}
