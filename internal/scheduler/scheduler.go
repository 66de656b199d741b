// Package scheduler drives the three cadences — hourly discovery, T-4h
// commit, and nightly autotune — under a single-writer lease, advancing a
// cursor per cadence so each time bucket runs at most once. It is the one
// long-running task in the process; the control API and alert dispatcher
// are separate components sharing only the state store and runtimestate.
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/danvoulez/voulezvous-tv/internal/config"
)

const (
	lockName     = "scheduler-main"
	lockTTLSecs  = 30
	standbySleep = 15 * time.Second
	tickSleep    = 15 * time.Second
)

// Clock abstracts time so tests can drive the loop deterministically.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Loop is the scheduler's single long-running task.
type Loop struct {
	store        Store
	card         func() *config.OwnerCard
	ownerID      string
	clock        Clock
	runOnce      bool
	forceNightly bool

	discovery *DiscoveryWindow
	commit    *CommitWindow
	nightly   *NightlyWindow

	bootRecoveryDone bool

	log zerolog.Logger
}

// LoopConfig bundles everything the loop needs to construct.
type LoopConfig struct {
	Store        Store
	CardFunc     func() *config.OwnerCard
	Discovery    *DiscoveryWindow
	Commit       *CommitWindow
	Nightly      *NightlyWindow
	RunOnce      bool
	ForceNightly bool
	Clock        Clock
}

// NewLoop constructs a scheduler loop with a fresh per-process instance ID,
// used as the scheduler lease's owner_id.
func NewLoop(cfg LoopConfig, log zerolog.Logger) *Loop {
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	return &Loop{
		store:        cfg.Store,
		card:         cfg.CardFunc,
		ownerID:      uuid.NewString(),
		clock:        clock,
		runOnce:      cfg.RunOnce,
		forceNightly: cfg.ForceNightly,
		discovery:    cfg.Discovery,
		commit:       cfg.Commit,
		nightly:      cfg.Nightly,
		log:          log.With().Str("component", "scheduler").Logger(),
	}
}

// Run blocks, ticking the loop until ctx is cancelled (or, in single-shot
// mode, until one successful tick completes).
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		acquired, err := l.store.AcquireSchedulerLock(lockName, l.ownerID, lockTTLSecs)
		if err != nil {
			l.log.Error().Err(err).Msg("failed to attempt scheduler lease acquisition")
			if !sleepOrDone(ctx, standbySleep) {
				return ctx.Err()
			}
			continue
		}
		if !acquired {
			l.log.Debug().Msg("scheduler lease held elsewhere, standing by")
			if !sleepOrDone(ctx, standbySleep) {
				return ctx.Err()
			}
			continue
		}

		if err := l.tick(ctx); err != nil {
			l.log.Error().Err(err).Msg("scheduler tick failed")
		}

		if l.runOnce {
			if err := l.store.ReleaseSchedulerLock(lockName, l.ownerID); err != nil {
				l.log.Warn().Err(err).Msg("failed to release scheduler lease on single-shot exit")
			}
			return nil
		}

		if !sleepOrDone(ctx, tickSleep) {
			return ctx.Err()
		}
	}
}

func (l *Loop) tick(ctx context.Context) error {
	now := l.clock.Now().UTC()
	nowLocal := now.Local()

	if !l.bootRecoveryDone {
		if err := runBootRecovery(l.store, now, l.log); err != nil {
			return err
		}
		l.bootRecoveryDone = true
	}

	cursors, err := l.store.LoadSchedulerCursors()
	if err != nil {
		return err
	}

	card := l.card()
	if card == nil {
		l.log.Warn().Msg("no owner card loaded, skipping this tick's windows")
		return nil
	}

	if DiscoveryDue(now, cursors) {
		if err := l.discovery.Run(ctx, now, card); err != nil {
			l.log.Error().Err(err).Msg("discovery window failed")
		} else {
			cursors.LastDiscoveryHour = HourKey(now)
		}
	}

	if CommitDue(now, card.Commit.IntervalMinutes, cursors) {
		if err := l.commit.Run(ctx, now, card); err != nil {
			l.log.Error().Err(err).Msg("commit window failed")
		} else {
			cursors.LastCommitSlot = CommitSlotKey(now, card.Commit.IntervalMinutes)
		}
	}

	if NightlyDue(nowLocal, cursors, l.forceNightly) {
		if err := l.nightly.Run(ctx, now, card); err != nil {
			l.log.Error().Err(err).Msg("nightly window failed")
		} else {
			cursors.LastNightlyDate = DateKey(nowLocal)
		}
	}

	return l.store.SaveSchedulerCursors(cursors)
}

// sleepOrDone sleeps for d or returns false early if ctx is cancelled.
func sleepOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
