// Package scheduler drives the three cadences — hourly discovery, T-4h
// commit, and nightly autotune — under a single-writer lease, advancing a
// cursor per cadence so each time bucket runs at most once.
package scheduler

import (
	"fmt"
	"time"

	"github.com/danvoulez/voulezvous-tv/internal/domain"
)

// HourKey is "YYYY-MM-DD-HH" in UTC — the discovery cadence bucket.
func HourKey(t time.Time) string {
	u := t.UTC()
	return u.Format("2006-01-02-15")
}

// CommitSlotKey is "YYYY-MM-DD-HH-SS" where SS is minute-of-hour divided by
// intervalMinutes (clamped to >= 1) — one bucket per commit interval.
func CommitSlotKey(t time.Time, intervalMinutes int) string {
	if intervalMinutes < 1 {
		intervalMinutes = 1
	}
	u := t.UTC()
	slot := u.Minute() / intervalMinutes
	return fmt.Sprintf("%s-%02d", u.Format("2006-01-02-15"), slot)
}

// DateKey is "YYYY-MM-DD" in the given (typically local) time.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// DiscoveryDue reports whether the current UTC hour bucket differs from
// the cursor's last recorded one.
func DiscoveryDue(now time.Time, cursors domain.SchedulerCursors) bool {
	return HourKey(now) != cursors.LastDiscoveryHour
}

// CommitDue reports whether the current commit-interval bucket differs
// from the cursor's last recorded one.
func CommitDue(now time.Time, intervalMinutes int, cursors domain.SchedulerCursors) bool {
	return CommitSlotKey(now, intervalMinutes) != cursors.LastCommitSlot
}

// NightlyDue reports whether nowLocal's date differs from the cursor's
// last nightly date and the local hour is 3, or forceNightly overrides it.
func NightlyDue(nowLocal time.Time, cursors domain.SchedulerCursors, forceNightly bool) bool {
	if forceNightly {
		return true
	}
	return DateKey(nowLocal) != cursors.LastNightlyDate && nowLocal.Hour() == 3
}
