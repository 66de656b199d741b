// Package domain holds the shared data model persisted by the state store
// and passed between pipeline stages. Types here carry no behavior beyond
// small helpers; the store owns persistence and the pipeline package owns
// transforms.
package domain

import (
	"strings"
	"time"
)

// PlanState is the lifecycle state of a PlanItem. Transitions are monotone
// within a programming day: Candidate -> Scheduled|Reserved -> Committed|Dropped.
type PlanState string

const (
	PlanCandidate PlanState = "candidate"
	PlanReserved  PlanState = "reserved"
	PlanScheduled PlanState = "scheduled"
	PlanCommitted PlanState = "committed"
	PlanDropped   PlanState = "dropped"
)

// QaStatus is the quality-assurance verdict for an AssetItem.
type QaStatus string

const (
	QaPending  QaStatus = "pending"
	QaPassed   QaStatus = "passed"
	QaRejected QaStatus = "rejected"
)

// SlotType classifies a QueueEntry's role in the playlist.
type SlotType string

const (
	SlotMain      SlotType = "main"
	SlotReserve   SlotType = "reserve"
	SlotEmergency SlotType = "emergency"
)

// Resolution is a width/height pair in pixels.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// PlanItem is a candidate admitted by discovery, owned by the store.
type PlanItem struct {
	PlanID        string            `json:"plan_id"`
	SourceURL     string            `json:"source_url"`
	Title         string            `json:"title"`
	Tags          []string          `json:"tags"`
	ThemeTags     []string          `json:"theme_tags"`
	DurationSec   int               `json:"duration_sec"`
	DiscoveredAt  time.Time         `json:"discovered_at"`
	PolicyScore   float64           `json:"policy_match_score"`
	State         PlanState         `json:"state"`
	SourceDomain  string            `json:"source_domain"`
	HDConfirmed   bool              `json:"hd_confirmed"`
	QualitySignal []string          `json:"quality_signals"`
	VisualTags    []string          `json:"visual_tags"`
	Extra         map[string]string `json:"extra,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NormalizedTitle lowercases and trims the title for dedup comparisons.
// Deduplication by this value is the planner's responsibility; the helper
// lives here so both the planner and its tests share one definition.
func NormalizedTitle(title string) string {
	return normalizeWhitespace(title)
}

// AssetItem is a concrete, QA-evaluated media unit bound to a PlanItem.
type AssetItem struct {
	AssetID      string     `json:"asset_id"`
	PlanID       string     `json:"plan_id"`
	LocalPath    string     `json:"local_path"`
	Checksum     string     `json:"checksum"`
	Resolution   Resolution `json:"resolution"`
	LoudnessLUFS float64    `json:"loudness_lufs"`
	QaStatus     QaStatus   `json:"qa_status"`
	DurationSec  int        `json:"duration_sec"`
	SourceURL    string     `json:"source_url"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// QueueEntry is an ordered playback slot referring to an AssetItem.
type QueueEntry struct {
	EntryID         string    `json:"entry_id"`
	AssetID         string    `json:"asset_id"`
	StartAt         time.Time `json:"start_at"`
	SlotType        SlotType  `json:"slot_type"`
	FallbackLevel   int       `json:"fallback_level"`
	CurationTraceID string    `json:"curation_trace_id,omitempty"`
}

// AuditEvent is an append-only audit record.
type AuditEvent struct {
	EventID       string    `json:"event_id"`
	Timestamp     time.Time `json:"ts"`
	Module        string    `json:"module"`
	Action        string    `json:"action"`
	ReasonCode    string    `json:"reason_code"`
	DecisionScore *float64  `json:"decision_score,omitempty"`
	Before        string    `json:"before,omitempty"`
	After         string    `json:"after,omitempty"`
}

// MetricsSample is a time-stamped snapshot of pipeline health.
type MetricsSample struct {
	Timestamp         time.Time `json:"ts"`
	BufferMinutes     float64   `json:"buffer_minutes"`
	PlansCreated      int       `json:"plans_created"`
	PlansCommitted    int       `json:"plans_committed"`
	QaPassRate        float64   `json:"qa_pass_rate"`
	FallbackRate      float64   `json:"fallback_rate"`
	CuratorActions    int       `json:"curator_actions"`
	StreamDisruptions int       `json:"stream_disruptions"`
}

// SchedulerCursors is the singleton row recording the most recent
// successful run of each cadence.
type SchedulerCursors struct {
	LastDiscoveryHour string `json:"last_discovery_hour"`
	LastCommitSlot    string `json:"last_commit_slot"`
	LastNightlyDate   string `json:"last_nightly_date"`
}

// SchedulerLock is a named lease row granting single-writer authority.
type SchedulerLock struct {
	LockName   string    `json:"lock_name"`
	OwnerID    string    `json:"owner_id"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// AlertSeverity classifies how urgently an alert should be surfaced.
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityHigh     AlertSeverity = "high"
	SeverityMedium   AlertSeverity = "medium"
)

// AlertStateRecord tracks the active/notified state of one alert code.
type AlertStateRecord struct {
	Code           string    `json:"code"`
	Active         bool      `json:"active"`
	LastNotifiedAt time.Time `json:"last_notified_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Alert is an evaluator finding for one code at one point in time.
type Alert struct {
	Code     string        `json:"code"`
	Severity AlertSeverity `json:"severity"`
	Message  string        `json:"message"`
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
