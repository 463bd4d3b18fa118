// internal/workers/matching/rank-candidates/handler.go
package rankcandidates

import (
	"sort"
	"time"

	"nursematch-engine/internal/common/logger"
	"nursematch-engine/internal/models"
	calculatematchscore "nursematch-engine/internal/workers/matching/calculate-match-score"
	filtercandidates "nursematch-engine/internal/workers/matching/filter-candidates"
)

const TaskType = "rank-candidates"

type Handler struct {
	filter  *filtercandidates.Handler
	scoring *calculatematchscore.Handler
	logger  logger.Logger
}

func NewHandler(filter *filtercandidates.Handler, scoring *calculatematchscore.Handler, log logger.Logger) *Handler {
	return &Handler{
		filter:  filter,
		scoring: scoring,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// ComputeRanking runs filter → score → qualification cut → sort → truncate
// with no side effects. Deterministic: the same mission and pool always
// yield the same ordered list, which is what makes idempotent re-runs and
// concurrent duplicate runs converge.
func (h *Handler) ComputeRanking(mission *models.Mission, pool []models.NurseCandidate) []models.MatchScore {
	start := time.Now()

	filtered := h.filter.Filter(mission, pool)

	// The rating rides on the scored entry, so a pool carrying duplicate
	// nurse ids still compares each entry against its own profile.
	type entry struct {
		score  models.MatchScore
		rating float64
	}
	entries := make([]entry, 0, len(filtered.Eligible))
	for i := range filtered.Eligible {
		candidate := &filtered.Eligible[i]
		score := h.scoring.Score(mission, candidate)
		if score.TotalScore < models.QualificationThreshold {
			continue
		}
		entries = append(entries, entry{score: score, rating: candidate.Rating})
	}

	// Total order: score desc, then distance asc, then rating desc, then
	// nurse id asc. Equal-score candidates always come out in the same
	// order across runs.
	sort.Slice(entries, func(i, j int) bool {
		a, b := &entries[i], &entries[j]
		if a.score.TotalScore != b.score.TotalScore {
			return a.score.TotalScore > b.score.TotalScore
		}
		if a.score.DistanceKm != b.score.DistanceKm {
			return a.score.DistanceKm < b.score.DistanceKm
		}
		if a.rating != b.rating {
			return a.rating > b.rating
		}
		return a.score.NurseID < b.score.NurseID
	})

	if len(entries) > mission.MaxCandidates {
		entries = entries[:mission.MaxCandidates]
	}

	ranked := make([]models.MatchScore, 0, len(entries))
	for i := range entries {
		ranked = append(ranked, entries[i].score)
	}

	h.logger.Info("ranking computed", map[string]interface{}{
		"missionId":  mission.ID,
		"poolSize":   len(pool),
		"eligible":   len(filtered.Eligible),
		"ranked":     len(ranked),
		"dropped":    filtered.DroppedTotal(),
		"durationMs": time.Since(start).Milliseconds(),
	})

	return ranked
}
