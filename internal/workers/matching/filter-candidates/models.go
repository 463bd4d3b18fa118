// internal/workers/matching/filter-candidates/models.go
package filtercandidates

import "nursematch-engine/internal/models"

// Result is the filtered pool plus per-reason drop counts.
type Result struct {
	Eligible []models.NurseCandidate `json:"eligible"`
	Dropped  map[string]int          `json:"dropped"`
}

// DroppedTotal sums the drop counts across reasons.
func (r *Result) DroppedTotal() int {
	total := 0
	for _, n := range r.Dropped {
		total += n
	}
	return total
}
