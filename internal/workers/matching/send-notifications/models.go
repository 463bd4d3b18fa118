// internal/workers/matching/send-notifications/models.go
package sendnotifications

import "nursematch-engine/internal/models"

// Delivery outcomes
const (
	OutcomeDelivered = "delivered"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped" // dedup hit or channel disabled
	OutcomeNoContact = "no_contact"
)

// Result reports one dispatcher invocation.
type Result struct {
	Notified []models.Notification `json:"notified"`
	Skipped  int                   `json:"skipped"`
	Failures []Failure             `json:"failures,omitempty"`
}

// Failure records a single candidate whose notification write failed.
// Delivery failures are not listed here: the record stands and delivery
// is retried by a later sweep.
type Failure struct {
	NurseID string `json:"nurseId"`
	Err     error  `json:"-"`
}
