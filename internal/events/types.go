package events

import "time"

// EventType classifies what changed. New cadences and pipeline stages add
// new values here rather than overloading an existing one.
type EventType string

const (
	PlanCreated      EventType = "plan_created"
	PlanCommitted    EventType = "plan_committed"
	PlanDropped      EventType = "plan_dropped"
	AssetReady       EventType = "asset_ready"
	AssetRejected    EventType = "asset_rejected"
	QueueReplaced    EventType = "queue_replaced"
	CuratorAction    EventType = "curator_action"
	AlertRaised      EventType = "alert_raised"
	AlertCleared     EventType = "alert_cleared"
	SchedulerRunDone EventType = "scheduler_run_done"
)

// Event is one notification carried on the bus. Data is a small, JSON-able
// snapshot of what changed — enough for an audit sink or a live viewer,
// never the full entity.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"ts"`
	Module    string                 `json:"module"`
	Data      map[string]interface{} `json:"data"`
}

// AllEventTypes lists every known event type, in declaration order — used
// by subscribers (the websocket live feed) that want everything rather
// than one type.
func AllEventTypes() []EventType {
	return []EventType{
		PlanCreated, PlanCommitted, PlanDropped,
		AssetReady, AssetRejected,
		QueueReplaced, CuratorAction,
		AlertRaised, AlertCleared,
		SchedulerRunDone,
	}
}
