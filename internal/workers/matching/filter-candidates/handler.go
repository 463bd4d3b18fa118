// internal/workers/matching/filter-candidates/handler.go
package filtercandidates

import (
	"nursematch-engine/internal/common/geo"
	"nursematch-engine/internal/common/logger"
	"nursematch-engine/internal/common/metrics"
	"nursematch-engine/internal/models"
)

const TaskType = "filter-candidates"

// Exclusion reasons, reported per dropped candidate for metrics/audit.
const (
	ReasonUnavailable     = "unavailable"
	ReasonMissingLocation = "missing_location"
	ReasonTooFar          = "too_far"
	ReasonLowRating       = "low_rating"
	ReasonExcluded        = "excluded"
	ReasonWindowMismatch  = "window_mismatch"
	ReasonMalformed       = "malformed"
)

type Handler struct {
	logger logger.Logger
}

func NewHandler(log logger.Logger) *Handler {
	return &Handler{
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Filter applies the hard eligibility constraints ahead of scoring. It is
// total over the pool: malformed records are dropped and counted, never
// propagated as errors.
func (h *Handler) Filter(mission *models.Mission, pool []models.NurseCandidate) *Result {
	result := &Result{
		Dropped: make(map[string]int),
	}

	excluded := make(map[string]bool, len(mission.ExcludedNurseIDs))
	for _, id := range mission.ExcludedNurseIDs {
		excluded[id] = true
	}

	for i := range pool {
		candidate := &pool[i]

		reason, ok := h.check(mission, candidate, excluded)
		if !ok {
			result.Dropped[reason]++
			metrics.CandidatesFiltered.WithLabelValues(reason).Inc()
			continue
		}
		result.Eligible = append(result.Eligible, *candidate)
	}

	h.logger.Debug("candidate pool filtered", map[string]interface{}{
		"missionId": mission.ID,
		"poolSize":  len(pool),
		"eligible":  len(result.Eligible),
		"dropped":   result.Dropped,
	})

	return result
}

func (h *Handler) check(mission *models.Mission, candidate *models.NurseCandidate, excluded map[string]bool) (string, bool) {
	if candidate.ID == "" || candidate.Rating < 0 || candidate.Rating > models.MaxNurseRating {
		return ReasonMalformed, false
	}
	if !candidate.IsAvailable {
		return ReasonUnavailable, false
	}
	if candidate.Location == nil {
		return ReasonMissingLocation, false
	}
	if excluded[candidate.ID] {
		return ReasonExcluded, false
	}
	if candidate.Rating < mission.MinRating {
		return ReasonLowRating, false
	}
	if geo.DistanceKm(mission.Location, *candidate.Location) > mission.MaxDistanceKm {
		return ReasonTooFar, false
	}
	if !candidate.AvailableDuring(mission.StartDate, mission.EndDate) {
		return ReasonWindowMismatch, false
	}
	return "", true
}
