package events

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestBus_SubscribeAndEmit(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var received *Event
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(1)

	bus.Subscribe(PlanCreated, func(e *Event) {
		mu.Lock()
		received = e
		mu.Unlock()
		wg.Done()
	})

	bus.Emit(PlanCreated, "discovery", map[string]interface{}{"plan_id": "p1"})
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, PlanCreated, received.Type)
	assert.Equal(t, "discovery", received.Module)
	assert.Equal(t, "p1", received.Data["plan_id"])
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var count1, count2 int
	var mu1, mu2 sync.Mutex
	var wg sync.WaitGroup
	wg.Add(2)

	bus.Subscribe(AssetReady, func(*Event) {
		mu1.Lock()
		count1++
		mu1.Unlock()
		wg.Done()
	})
	bus.Subscribe(AssetReady, func(*Event) {
		mu2.Lock()
		count2++
		mu2.Unlock()
		wg.Done()
	})

	bus.Emit(AssetReady, "prep", map[string]interface{}{})
	wg.Wait()

	assert.Equal(t, 1, count1)
	assert.Equal(t, 1, count2)
}

func TestBus_NoSubscribersDoesNotPanic(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	assert.NotPanics(t, func() {
		bus.Emit(AlertRaised, "evaluator", map[string]interface{}{})
	})
}

func TestBus_DifferentEventTypesIsolated(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var planCount, assetCount int
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(2)

	bus.Subscribe(PlanCreated, func(*Event) {
		mu.Lock()
		planCount++
		mu.Unlock()
		wg.Done()
	})
	bus.Subscribe(AssetReady, func(*Event) {
		mu.Lock()
		assetCount++
		mu.Unlock()
		wg.Done()
	})

	bus.Emit(PlanCreated, "discovery", map[string]interface{}{})
	bus.Emit(AssetReady, "prep", map[string]interface{}{})
	wg.Wait()

	assert.Equal(t, 1, planCount)
	assert.Equal(t, 1, assetCount)
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var callCount int
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(1)

	sub := bus.Subscribe(QueueReplaced, func(*Event) {
		mu.Lock()
		callCount++
		mu.Unlock()
		wg.Done()
	})

	bus.Emit(QueueReplaced, "queuemanager", map[string]interface{}{})
	wg.Wait()

	bus.Unsubscribe(sub)

	bus.Emit(QueueReplaced, "queuemanager", map[string]interface{}{})
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, callCount, "handler should not fire after unsubscribe")
}
