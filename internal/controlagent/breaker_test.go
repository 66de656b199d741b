package controlagent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffFor_DoublesAndCapsAtK6(t *testing.T) {
	base := 100 * time.Millisecond
	assert.Equal(t, 100*time.Millisecond, backoffFor(0, base))
	assert.Equal(t, 200*time.Millisecond, backoffFor(1, base))
	assert.Equal(t, 400*time.Millisecond, backoffFor(2, base))
	assert.Equal(t, 6400*time.Millisecond, backoffFor(6, base))
	assert.Equal(t, 6400*time.Millisecond, backoffFor(7, base), "k beyond 6 must not keep doubling")
}

func TestBreaker_OpensAfterThresholdAndBlocksUntilCooldown(t *testing.T) {
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	b := newBreaker(3, 30*time.Second)

	assert.True(t, b.allow(now))
	b.recordFailure(now)
	b.recordFailure(now)
	assert.True(t, b.allow(now), "breaker must stay closed below threshold")

	b.recordFailure(now)
	assert.False(t, b.allow(now), "breaker must open exactly at threshold")

	assert.False(t, b.allow(now.Add(29*time.Second)))
	assert.True(t, b.allow(now.Add(30*time.Second)), "cooldown must expire exactly at open_until")
}

func TestBreaker_SuccessResetsCounter(t *testing.T) {
	now := time.Now()
	b := newBreaker(3, time.Minute)

	b.recordFailure(now)
	b.recordFailure(now)
	b.recordSuccess()
	b.recordFailure(now)
	assert.True(t, b.allow(now), "a prior success must reset the consecutive-failure count")
}
