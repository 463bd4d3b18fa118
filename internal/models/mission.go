// internal/models/mission.go
package models

import "time"

// Shift types
const (
	ShiftDay     = "day"
	ShiftNight   = "night"
	ShiftWeekend = "weekend"
)

// Urgency levels
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// Mission defaults applied when the posting establishment leaves them unset.
const (
	DefaultMaxCandidates = 10
	DefaultMaxDistanceKm = 50.0
	DefaultMinRating     = 3.0
)

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Mission is a short-term shift posted by an establishment. The matching
// engine treats missions as read-only snapshots; CRUD lives elsewhere.
type Mission struct {
	ID                      string      `json:"id"`
	EstablishmentID         string      `json:"establishmentId"`
	Title                   string      `json:"title"`
	Specialization          string      `json:"specialization"`
	RequiredExperienceYears int         `json:"requiredExperienceYears"`
	RequiredCertifications  []string    `json:"requiredCertifications"`
	Shift                   string      `json:"shift"`   // "day", "night", "weekend"
	Urgency                 string      `json:"urgency"` // "low", "medium", "high"
	StartDate               time.Time   `json:"startDate"`
	EndDate                 time.Time   `json:"endDate"`
	Location                Coordinates `json:"location"`
	HourlyRate              float64     `json:"hourlyRate"`
	MaxCandidates           int         `json:"maxCandidates"`
	MaxDistanceKm           float64     `json:"maxDistanceKm"`
	MinRating               float64     `json:"minRating"`

	// ExcludedNurseIDs carries the establishment's blacklist (declined or
	// blocked nurses), loaded alongside the mission row.
	ExcludedNurseIDs []string `json:"excludedNurseIds,omitempty"`
}

// ApplyDefaults fills unset tunables with marketplace defaults.
func (m *Mission) ApplyDefaults() {
	if m.MaxCandidates <= 0 {
		m.MaxCandidates = DefaultMaxCandidates
	}
	if m.MaxDistanceKm <= 0 {
		m.MaxDistanceKm = DefaultMaxDistanceKm
	}
	if m.MinRating <= 0 {
		m.MinRating = DefaultMinRating
	}
}
