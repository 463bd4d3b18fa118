// internal/workers/matching/fetch-candidates/models.go
package fetchcandidates

import "nursematch-engine/internal/models"

// Snapshot is the read-only input of one matching run: the mission row
// plus the candidate pool, both taken once per run.
type Snapshot struct {
	Mission    *models.Mission         `json:"mission"`
	Candidates []models.NurseCandidate `json:"candidates"`

	// Malformed counts candidate documents that could not be decoded and
	// were dropped from the pool.
	Malformed int `json:"malformed"`

	// FromCache is true when the pool was served from the Redis snapshot
	// cache instead of Elasticsearch.
	FromCache bool `json:"fromCache"`
}
