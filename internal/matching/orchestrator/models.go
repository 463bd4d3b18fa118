// internal/matching/orchestrator/models.go
package orchestrator

import "time"

// State is the orchestrator run state. Transitions are strictly
// sequential; no state is re-entered within a run.
type State string

const (
	StateScheduled State = "scheduled"
	StateFiltering State = "filtering"
	StateScoring   State = "scoring"
	StateRanked    State = "ranked"
	StateWriting   State = "writing"
	StateNotifying State = "notifying"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// RunReport is the observable outcome of one matching run. Committed side
// effects listed here are never rolled back on failure; a retried run
// converges because every write is keyed and upsert-safe.
type RunReport struct {
	MissionID            string    `json:"missionId"`
	State                State     `json:"state"`
	FailureReason        string    `json:"failureReason,omitempty"`
	PoolSize             int       `json:"poolSize"`
	RankedCount          int       `json:"rankedCount"`
	ApplicationsCreated  int       `json:"applicationsCreated"`
	ApplicationFailures  int       `json:"applicationFailures"`
	NotificationsCreated int       `json:"notificationsCreated"`
	NotificationFailures int       `json:"notificationFailures"`
	StartedAt            time.Time `json:"startedAt"`
	DurationMs           int64     `json:"durationMs"`
}
