package controlagent

import (
	"sync"
	"time"
)

// breaker is process-wide circuit-breaker state shared across every call
// the Agent makes — one open circuit stops all outbound RPCs, not just the
// one that tripped it.
type breaker struct {
	mu                  sync.Mutex
	consecutiveFailures int
	openUntil           time.Time
	failureThreshold    int
	cooldown            time.Duration
}

func newBreaker(failureThreshold int, cooldown time.Duration) *breaker {
	return &breaker{failureThreshold: failureThreshold, cooldown: cooldown}
}

// allow reports whether a call may proceed, given now. A closed or
// half-expired-cooldown breaker allows it; a breaker still inside its
// cooldown window fails fast.
func (b *breaker) allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !now.Before(b.openUntil)
}

func (b *breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFailures = 0
}

// recordFailure increments the counter and, on reaching the threshold,
// opens the circuit for cooldown and resets the counter.
func (b *breaker) recordFailure(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFailures++
	if b.consecutiveFailures >= b.failureThreshold {
		b.openUntil = now.Add(b.cooldown)
		b.consecutiveFailures = 0
	}
}
