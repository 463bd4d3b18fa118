// internal/models/notification.go
package models

import "time"

// Notification records that a nurse should be told about a matching
// mission. Unique per (missionId, nurseId); the record means "should be
// delivered", not "was delivered" — delivery itself is best-effort.
type Notification struct {
	ID            string    `json:"id"`
	MissionID     string    `json:"missionId"`
	NurseID       string    `json:"nurseId"`
	Score         float64   `json:"score"`
	DistanceKm    float64   `json:"distanceKm"`
	UrgencyBucket string    `json:"urgencyBucket"` // "high", "medium", "low"
	CreatedAt     time.Time `json:"createdAt"`
}
