// internal/workers/matching/create-applications/handler_test.go
package createapplications

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"nursematch-engine/internal/common/logger"
	"nursematch-engine/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return db, mock
}

func createTestMission() *models.Mission {
	return &models.Mission{
		ID:              "mission-123",
		EstablishmentID: "est-1",
		Specialization:  "urgences",
	}
}

func match(nurseID string, total float64) models.MatchScore {
	return models.MatchScore{
		NurseID:         nurseID,
		TotalScore:      total,
		MatchingFactors: []string{"Specialization match"},
	}
}

func TestHandler_Execute_CreatesAboveThreshold(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	handler := NewHandler(db, logger.NewNoOpLogger())

	mock.ExpectExec(`INSERT INTO applications`).
		WithArgs(sqlmock.AnyArg(), "mission-123", "nurse-high", models.SourceAutoMatched,
			models.ApplicationStatusPending, 85.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	ranked := []models.MatchScore{
		match("nurse-high", 85.0),
		match("nurse-qualified-only", 65.0),
	}

	result := handler.Execute(context.Background(), createTestMission(), ranked)

	assert.Len(t, result.Created, 1)
	assert.Equal(t, "nurse-high", result.Created[0].NurseID)
	assert.Equal(t, models.ApplicationStatusPending, result.Created[0].Status)
	assert.Equal(t, models.SourceAutoMatched, result.Created[0].Source)
	assert.Zero(t, result.Skipped)
	assert.Empty(t, result.Failures)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_ExistingPairIsNoOp(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	handler := NewHandler(db, logger.NewNoOpLogger())

	// ON CONFLICT DO NOTHING reports zero rows affected for the existing
	// pair, so no application and no audit entry come out of the run.
	mock.ExpectExec(`INSERT INTO applications`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ranked := []models.MatchScore{match("nurse-dup", 92.0)}

	result := handler.Execute(context.Background(), createTestMission(), ranked)

	assert.Empty(t, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, result.Failures)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_PartialFailureContinues(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	handler := NewHandler(db, logger.NewNoOpLogger())

	mock.ExpectExec(`INSERT INTO applications`).
		WillReturnError(fmt.Errorf("connection reset"))
	mock.ExpectExec(`INSERT INTO applications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	ranked := []models.MatchScore{
		match("nurse-broken", 88.0),
		match("nurse-fine", 75.0),
	}

	result := handler.Execute(context.Background(), createTestMission(), ranked)

	assert.Len(t, result.Created, 1)
	assert.Equal(t, "nurse-fine", result.Created[0].NurseID)
	assert.Len(t, result.Failures, 1)
	assert.Equal(t, "nurse-broken", result.Failures[0].NurseID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_AuditFailureIsNonCritical(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	handler := NewHandler(db, logger.NewNoOpLogger())

	mock.ExpectExec(`INSERT INTO applications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnError(fmt.Errorf("audit table locked"))

	ranked := []models.MatchScore{match("nurse-1", 90.0)}

	result := handler.Execute(context.Background(), createTestMission(), ranked)

	assert.Len(t, result.Created, 1)
	assert.Empty(t, result.Failures)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_NothingAboveThreshold(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	handler := NewHandler(db, logger.NewNoOpLogger())

	ranked := []models.MatchScore{
		match("nurse-1", 69.9),
		match("nurse-2", 60.0),
	}

	result := handler.Execute(context.Background(), createTestMission(), ranked)

	assert.Empty(t, result.Created)
	assert.Zero(t, result.Skipped)
	assert.Empty(t, result.Failures)
	assert.NoError(t, mock.ExpectationsWereMet())
}
