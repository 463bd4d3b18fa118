// internal/workers/matching/create-applications/handler.go
package createapplications

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"nursematch-engine/internal/common/errors"
	"nursematch-engine/internal/common/logger"
	"nursematch-engine/internal/common/metrics"
	"nursematch-engine/internal/models"

	"github.com/google/uuid"
)

const TaskType = "create-applications"

type Handler struct {
	db     *sql.DB
	logger logger.Logger
}

func NewHandler(db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute creates provisional applications for every ranked match at or
// above the auto-apply threshold. The insert is keyed on (missionId,
// nurseId): an existing pair — from a prior run or a manual application —
// is a no-op, which makes the writer safe to invoke any number of times
// for the same mission.
func (h *Handler) Execute(ctx context.Context, mission *models.Mission, ranked []models.MatchScore) *Result {
	result := &Result{}

	for i := range ranked {
		match := &ranked[i]
		if match.TotalScore < models.AutoApplyThreshold {
			continue
		}

		app, created, err := h.upsert(ctx, mission.ID, match)
		if err != nil {
			result.Failures = append(result.Failures, Failure{NurseID: match.NurseID, Err: err})
			h.logger.Error("application upsert failed", map[string]interface{}{
				"missionId": mission.ID,
				"nurseId":   match.NurseID,
				"error":     err.Error(),
			})
			continue
		}
		if !created {
			result.Skipped++
			continue
		}

		metrics.ApplicationsCreated.Inc()
		result.Created = append(result.Created, *app)
		h.writeAuditEntry(ctx, app, match)
	}

	h.logger.Info("auto applications written", map[string]interface{}{
		"missionId": mission.ID,
		"created":   len(result.Created),
		"skipped":   result.Skipped,
		"failed":    len(result.Failures),
	})

	return result
}

func (h *Handler) upsert(ctx context.Context, missionID string, match *models.MatchScore) (*models.Application, bool, error) {
	app := &models.Application{
		ID:           uuid.New().String(),
		MissionID:    missionID,
		NurseID:      match.NurseID,
		Source:       models.SourceAutoMatched,
		Status:       models.ApplicationStatusPending,
		AIMatchScore: match.TotalScore,
		CreatedAt:    time.Now().UTC(),
	}

	res, err := h.db.ExecContext(ctx, `
		INSERT INTO applications (
			id, mission_id, nurse_id, source, status, ai_match_score, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (mission_id, nurse_id) DO NOTHING`,
		app.ID, app.MissionID, app.NurseID, app.Source, app.Status,
		app.AIMatchScore, app.CreatedAt,
	)
	if err != nil {
		return nil, false, errors.NewApplicationUpsertFailedError(missionID, match.NurseID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		// Driver without RowsAffected support: treat the write as new.
		return app, true, nil
	}
	return app, rows > 0, nil
}

// writeAuditEntry is non-critical: a failed audit insert is logged and the
// application stands.
func (h *Handler) writeAuditEntry(ctx context.Context, app *models.Application, match *models.MatchScore) {
	details, err := json.Marshal(map[string]interface{}{
		"missionId":       app.MissionID,
		"nurseId":         app.NurseID,
		"score":           match.TotalScore,
		"matchingFactors": match.MatchingFactors,
	})
	if err != nil {
		details = []byte("{}")
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"application_auto_created", "application", app.ID, details, app.CreatedAt,
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"applicationId": app.ID,
			"error":         err.Error(),
		})
	}
}
