// internal/models/match.go
package models

// Score thresholds shared across the matching pipeline.
const (
	// QualificationThreshold is the minimum total score at which a match
	// is offered at all (ranked and notified).
	QualificationThreshold = 60.0

	// AutoApplyThreshold is the minimum total score at which a provisional
	// application is created on the nurse's behalf.
	AutoApplyThreshold = 70.0
)

// MatchScore is the scored outcome for one (mission, nurse) pair. Scores
// are ephemeral: computed per run, logged, never stored.
type MatchScore struct {
	NurseID             string   `json:"nurseId"`
	SpecializationScore float64  `json:"specializationScore"` // 0..40
	ExperienceScore     float64  `json:"experienceScore"`     // 0..25
	RatingScore         float64  `json:"ratingScore"`         // 0..20
	DistanceScore       float64  `json:"distanceScore"`       // 0..15
	CertificationBonus  float64  `json:"certificationBonus"`  // 0..5
	TotalScore          float64  `json:"totalScore"`          // 0..100
	DistanceKm          float64  `json:"distanceKm"`
	MatchingFactors     []string `json:"matchingFactors"`
}

// UrgencyBucket derives the notification urgency from the total score.
func (s *MatchScore) UrgencyBucket() string {
	switch {
	case s.TotalScore > 80:
		return UrgencyHigh
	case s.TotalScore > 60:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}
