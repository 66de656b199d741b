package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danvoulez/voulezvous-tv/internal/config"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestLoop(fs *fakeStore, now time.Time, runOnce, forceNightly bool) *Loop {
	card := testCard()
	discovery := NewDiscoveryWindow(fs, &fakeDiscoverySource{}, zerolog.Nop())
	commit := NewCommitWindow(fs, discovery, nil, zerolog.Nop())
	nightly := NewNightlyWindow(fs, nil, zerolog.Nop())

	return NewLoop(LoopConfig{
		Store:        fs,
		CardFunc:     func() *config.OwnerCard { return card },
		Discovery:    discovery,
		Commit:       commit,
		Nightly:      nightly,
		RunOnce:      runOnce,
		ForceNightly: forceNightly,
		Clock:        fixedClock{t: now},
	}, zerolog.Nop())
}

func TestLoop_SingleShotRunsDueWindowsAndReleasesLease(t *testing.T) {
	fs := newFakeStore()
	now := time.Date(2026, 7, 30, 3, 0, 0, 0, time.UTC)
	loop := newTestLoop(fs, now, true, true)

	require.NoError(t, loop.Run(context.Background()))

	reasonCodes := make(map[string]bool)
	for _, a := range fs.audits {
		reasonCodes[a.ReasonCode] = true
	}
	assert.True(t, reasonCodes["RECOVERY_APPLIED"])
	assert.True(t, reasonCodes["DISCOVERY_WINDOW_OK"])
	assert.True(t, reasonCodes["COMMIT_WINDOW_OK"])

	assert.Empty(t, fs.locks, "single-shot run must release the lease on exit")
}

func TestLoop_SecondTickDoesNotRerunBootRecovery(t *testing.T) {
	fs := newFakeStore()
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	loop := newTestLoop(fs, now, true, false)
	require.NoError(t, loop.Run(context.Background()))

	recoveryCount := func() int {
		n := 0
		for _, a := range fs.audits {
			if a.ReasonCode == "RECOVERY_APPLIED" {
				n++
			}
		}
		return n
	}
	require.Equal(t, 1, recoveryCount())

	require.NoError(t, loop.Run(context.Background()))
	assert.Equal(t, 1, recoveryCount())
}

func TestLoop_SkipsWindowsWhenOwnerCardUnavailable(t *testing.T) {
	fs := newFakeStore()
	loop := NewLoop(LoopConfig{
		Store:     fs,
		CardFunc:  func() *config.OwnerCard { return nil },
		Discovery: NewDiscoveryWindow(fs, &fakeDiscoverySource{}, zerolog.Nop()),
		Commit:    NewCommitWindow(fs, NewDiscoveryWindow(fs, &fakeDiscoverySource{}, zerolog.Nop()), nil, zerolog.Nop()),
		Nightly:   NewNightlyWindow(fs, nil, zerolog.Nop()),
		RunOnce:   true,
		Clock:     fixedClock{t: time.Now().UTC()},
	}, zerolog.Nop())

	require.NoError(t, loop.Run(context.Background()))
	for _, a := range fs.audits {
		assert.NotEqual(t, "DISCOVERY_WINDOW_OK", a.ReasonCode)
	}
}
