// internal/workers/matching/calculate-match-score/handler.go
package calculatematchscore

import (
	"fmt"
	"math"

	"nursematch-engine/internal/common/geo"
	"nursematch-engine/internal/common/logger"
	"nursematch-engine/internal/models"
)

const TaskType = "calculate-match-score"

// Sub-score weights. Exported so an operator-facing extension can retune
// or layer additive factors without touching the base formula.
const (
	SpecializationWeight  = 40.0
	ExperienceWeight      = 25.0
	RatingWeight          = 20.0
	DistanceWeight        = 15.0
	CertificationBonusMax = 5.0

	// ExperienceSaturationYears is where the experience ramp tops out.
	ExperienceSaturationYears = 10.0

	// MaxRating is the rating scale ceiling.
	MaxRating = 5.0
)

type Handler struct {
	logger logger.Logger
}

func NewHandler(log logger.Logger) *Handler {
	return &Handler{
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Score computes the deterministic match score for one (mission, nurse)
// pair. Candidates must already have passed the hard filter: the candidate
// has coordinates and lies within the mission's max distance.
func (h *Handler) Score(mission *models.Mission, candidate *models.NurseCandidate) models.MatchScore {
	score := models.MatchScore{NurseID: candidate.ID}

	if candidate.Location != nil {
		score.DistanceKm = geo.DistanceKm(mission.Location, *candidate.Location)
	}

	if candidate.HasSpecialization(mission.Specialization) {
		score.SpecializationScore = SpecializationWeight
		score.MatchingFactors = append(score.MatchingFactors, "Specialization match")
	}

	score.ExperienceScore = experienceScore(candidate.ExperienceYears)
	if score.ExperienceScore > 0 {
		score.MatchingFactors = append(score.MatchingFactors,
			fmt.Sprintf("%d years of experience", candidate.ExperienceYears))
	}

	score.RatingScore = ratingScore(candidate.Rating)
	if score.RatingScore > 0 {
		score.MatchingFactors = append(score.MatchingFactors,
			fmt.Sprintf("Rated %.1f/5", candidate.Rating))
	}

	score.DistanceScore = distanceScore(score.DistanceKm, mission.MaxDistanceKm)
	if score.DistanceScore > 0 {
		score.MatchingFactors = append(score.MatchingFactors,
			fmt.Sprintf("%.1f km away", score.DistanceKm))
	}

	if candidate.HasAnyCertification(mission.RequiredCertifications) {
		score.CertificationBonus = CertificationBonusMax
		score.MatchingFactors = append(score.MatchingFactors, "Extra qualifications")
	}

	total := score.SpecializationScore +
		score.ExperienceScore +
		score.RatingScore +
		score.DistanceScore +
		score.CertificationBonus
	score.TotalScore = clamp(total, 0, 100)

	return score
}

// experienceScore ramps linearly and saturates at ten years.
func experienceScore(years int) float64 {
	if years <= 0 {
		return 0
	}
	raw := float64(years) / ExperienceSaturationYears * ExperienceWeight
	return clamp(raw, 0, ExperienceWeight)
}

func ratingScore(rating float64) float64 {
	raw := rating / MaxRating * RatingWeight
	return clamp(raw, 0, RatingWeight)
}

// distanceScore decays linearly to zero at the max-distance boundary.
func distanceScore(distanceKm, maxDistanceKm float64) float64 {
	if maxDistanceKm <= 0 {
		return 0
	}
	raw := DistanceWeight * (1 - distanceKm/maxDistanceKm)
	return clamp(raw, 0, DistanceWeight)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
