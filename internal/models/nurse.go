// internal/models/nurse.go
package models

import "time"

// MaxNurseRating is the ceiling of the nurse rating scale.
const MaxNurseRating = 5.0

// NurseCandidate is a read snapshot of a nurse profile as indexed for
// matching. The engine never mutates candidates.
type NurseCandidate struct {
	ID              string   `json:"id"`
	Specializations []string `json:"specializations"`
	ExperienceYears int      `json:"experienceYears"`
	Rating          float64  `json:"rating"` // 0..5
	Certifications  []string `json:"certifications"`

	// Location is nil when the nurse has not shared coordinates; such
	// candidates are excluded from ranking.
	Location *Coordinates `json:"location,omitempty"`

	IsAvailable bool `json:"isAvailable"`

	// Optional availability window. A nil bound is open-ended.
	AvailableFrom *time.Time `json:"availableFrom,omitempty"`
	AvailableTo   *time.Time `json:"availableTo,omitempty"`
}

// AvailableDuring reports whether the candidate's declared window overlaps
// [start, end). Candidates without a window are considered available for
// any dates.
func (n *NurseCandidate) AvailableDuring(start, end time.Time) bool {
	if n.AvailableFrom != nil && !n.AvailableFrom.Before(end) {
		return false
	}
	if n.AvailableTo != nil && !n.AvailableTo.After(start) {
		return false
	}
	return true
}

// HasSpecialization reports whether the candidate lists the given tag.
func (n *NurseCandidate) HasSpecialization(tag string) bool {
	for _, s := range n.Specializations {
		if s == tag {
			return true
		}
	}
	return false
}

// HasAnyCertification reports whether the candidate holds at least one of
// the given certifications. With an empty required set it reports whether
// the candidate holds any certification at all.
func (n *NurseCandidate) HasAnyCertification(required []string) bool {
	if len(required) == 0 {
		return len(n.Certifications) > 0
	}
	for _, want := range required {
		for _, have := range n.Certifications {
			if want == have {
				return true
			}
		}
	}
	return false
}
