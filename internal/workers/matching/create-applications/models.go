// internal/workers/matching/create-applications/models.go
package createapplications

import (
	"nursematch-engine/internal/models"
)

// Result reports one writer invocation. Failures are partial: a failed
// upsert for one candidate never aborts the rest.
type Result struct {
	Created  []models.Application `json:"created"`
	Skipped  int                  `json:"skipped"` // already-existing pairs
	Failures []Failure            `json:"failures,omitempty"`
}

// Failure records a single candidate whose application write failed.
type Failure struct {
	NurseID string `json:"nurseId"`
	Err     error  `json:"-"`
}
