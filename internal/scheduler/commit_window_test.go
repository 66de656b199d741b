package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danvoulez/voulezvous-tv/internal/domain"
	"github.com/danvoulez/voulezvous-tv/internal/pipeline"
)

type fakeSnapshotPublisher struct {
	calls int
	err   error
}

func (f *fakeSnapshotPublisher) Status(ctx context.Context, payload interface{}) error {
	f.calls++
	return f.err
}

func TestCommitWindow_RunsDiscoveryFirstWhenNoPlansPersisted(t *testing.T) {
	fs := newFakeStore()
	source := &fakeDiscoverySource{inputs: []pipeline.DiscoveryInput{
		{SourceURL: "https://clips.example-source-a.com/1", Title: "Clip", SourceDomain: "example-source-a.com", DurationSec: 60, DiscoveredAt: time.Now()},
	}}
	discovery := NewDiscoveryWindow(fs, source, zerolog.Nop())
	win := NewCommitWindow(fs, discovery, nil, zerolog.Nop())

	require.NoError(t, win.Run(context.Background(), time.Now().UTC(), testCard()))

	discoveryAudits := 0
	commitAudits := 0
	for _, a := range fs.audits {
		switch a.ReasonCode {
		case "DISCOVERY_WINDOW_OK":
			discoveryAudits++
		case "COMMIT_WINDOW_OK":
			commitAudits++
		}
	}
	assert.Equal(t, 1, discoveryAudits)
	assert.Equal(t, 1, commitAudits)
}

func TestCommitWindow_PublishesSnapshotBestEffort(t *testing.T) {
	fs := newFakeStore()
	fs.plans = []domain.PlanItem{{
		PlanID: "p1", State: domain.PlanScheduled, DurationSec: 60,
		DiscoveredAt: time.Now().Add(-time.Hour), SourceURL: "https://a/1",
	}}
	publisher := &fakeSnapshotPublisher{}
	discovery := NewDiscoveryWindow(fs, &fakeDiscoverySource{}, zerolog.Nop())
	win := NewCommitWindow(fs, discovery, publisher, zerolog.Nop())

	require.NoError(t, win.Run(context.Background(), time.Now().UTC(), testCard()))
	assert.Equal(t, 1, publisher.calls)
}

func TestCommitWindow_PublisherFailureDoesNotFailWindow(t *testing.T) {
	fs := newFakeStore()
	publisher := &fakeSnapshotPublisher{err: assertError("upstream unreachable")}
	discovery := NewDiscoveryWindow(fs, &fakeDiscoverySource{}, zerolog.Nop())
	win := NewCommitWindow(fs, discovery, publisher, zerolog.Nop())

	err := win.Run(context.Background(), time.Now().UTC(), testCard())
	assert.NoError(t, err)
	assert.Equal(t, 1, publisher.calls)
}
