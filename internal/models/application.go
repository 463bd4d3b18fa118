// internal/models/application.go
package models

import "time"

// Application statuses
const (
	ApplicationStatusPending  = "pending"
	ApplicationStatusAccepted = "accepted"
	ApplicationStatusRejected = "rejected"
)

// SourceAutoMatched marks applications created by the matching engine
// rather than by the nurse.
const SourceAutoMatched = "auto-matched"

// Application is a provisional application created for high-confidence
// matches. Unique per (missionId, nurseId); creating a second one for the
// same pair is a no-op. After creation the record is owned by the
// application-response workflow.
type Application struct {
	ID           string    `json:"id"`
	MissionID    string    `json:"missionId"`
	NurseID      string    `json:"nurseId"`
	Source       string    `json:"source"` // "auto-matched"
	Status       string    `json:"status"` // "pending", "accepted", "rejected"
	AIMatchScore float64   `json:"aiMatchScore"`
	CreatedAt    time.Time `json:"createdAt"`
}
