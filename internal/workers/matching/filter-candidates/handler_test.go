// internal/workers/matching/filter-candidates/handler_test.go
package filtercandidates

import (
	"testing"
	"time"

	"nursematch-engine/internal/common/logger"
	"nursematch-engine/internal/models"

	"github.com/stretchr/testify/assert"
)

func createTestMission() *models.Mission {
	return &models.Mission{
		ID:               "mission-123",
		Specialization:   "urgences",
		Location:         models.Coordinates{Lat: 45.7640, Lng: 4.8357},
		MaxDistanceKm:    50,
		MinRating:        3.0,
		StartDate:        time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC),
		EndDate:          time.Date(2026, 9, 5, 20, 0, 0, 0, time.UTC),
		ExcludedNurseIDs: []string{"nurse-blocked"},
	}
}

func eligibleCandidate(id string) models.NurseCandidate {
	return models.NurseCandidate{
		ID:          id,
		Rating:      4.0,
		IsAvailable: true,
		Location:    &models.Coordinates{Lat: 45.7719, Lng: 4.8902},
	}
}

func TestHandler_Filter_ExclusionReasons(t *testing.T) {
	handler := NewHandler(logger.NewNoOpLogger())
	mission := createTestMission()

	windowEnd := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		candidate models.NurseCandidate
		reason    string
	}{
		{
			name: "unavailable",
			candidate: func() models.NurseCandidate {
				c := eligibleCandidate("nurse-1")
				c.IsAvailable = false
				return c
			}(),
			reason: ReasonUnavailable,
		},
		{
			name: "missing location",
			candidate: func() models.NurseCandidate {
				c := eligibleCandidate("nurse-2")
				c.Location = nil
				return c
			}(),
			reason: ReasonMissingLocation,
		},
		{
			name: "too far",
			candidate: func() models.NurseCandidate {
				c := eligibleCandidate("nurse-3")
				c.Location = &models.Coordinates{Lat: 48.8566, Lng: 2.3522}
				return c
			}(),
			reason: ReasonTooFar,
		},
		{
			name: "low rating",
			candidate: func() models.NurseCandidate {
				c := eligibleCandidate("nurse-4")
				c.Rating = 2.5
				return c
			}(),
			reason: ReasonLowRating,
		},
		{
			name:      "establishment blacklist",
			candidate: eligibleCandidate("nurse-blocked"),
			reason:    ReasonExcluded,
		},
		{
			name: "availability window ends before mission",
			candidate: func() models.NurseCandidate {
				c := eligibleCandidate("nurse-5")
				c.AvailableTo = &windowEnd
				return c
			}(),
			reason: ReasonWindowMismatch,
		},
		{
			name: "missing id",
			candidate: func() models.NurseCandidate {
				c := eligibleCandidate("")
				return c
			}(),
			reason: ReasonMalformed,
		},
		{
			name: "rating out of scale",
			candidate: func() models.NurseCandidate {
				c := eligibleCandidate("nurse-6")
				c.Rating = 7.2
				return c
			}(),
			reason: ReasonMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := handler.Filter(mission, []models.NurseCandidate{tt.candidate})

			assert.Empty(t, result.Eligible)
			assert.Equal(t, 1, result.Dropped[tt.reason])
			assert.Equal(t, 1, result.DroppedTotal())
		})
	}
}

func TestHandler_Filter_KeepsEligible(t *testing.T) {
	handler := NewHandler(logger.NewNoOpLogger())
	mission := createTestMission()

	pool := []models.NurseCandidate{
		eligibleCandidate("nurse-1"),
		eligibleCandidate("nurse-2"),
	}

	result := handler.Filter(mission, pool)

	assert.Len(t, result.Eligible, 2)
	assert.Zero(t, result.DroppedTotal())
}

func TestHandler_Filter_MixedPoolIsTotal(t *testing.T) {
	handler := NewHandler(logger.NewNoOpLogger())
	mission := createTestMission()

	broken := eligibleCandidate("")
	unavailable := eligibleCandidate("nurse-off")
	unavailable.IsAvailable = false

	pool := []models.NurseCandidate{
		eligibleCandidate("nurse-ok-1"),
		broken,
		unavailable,
		eligibleCandidate("nurse-ok-2"),
	}

	result := handler.Filter(mission, pool)

	assert.Len(t, result.Eligible, 2)
	assert.Equal(t, 1, result.Dropped[ReasonMalformed])
	assert.Equal(t, 1, result.Dropped[ReasonUnavailable])
	assert.Equal(t, "nurse-ok-1", result.Eligible[0].ID)
	assert.Equal(t, "nurse-ok-2", result.Eligible[1].ID)
}

func TestHandler_Filter_OpenEndedWindow(t *testing.T) {
	handler := NewHandler(logger.NewNoOpLogger())
	mission := createTestMission()

	// A candidate with no declared window is available for any dates.
	c := eligibleCandidate("nurse-open")
	result := handler.Filter(mission, []models.NurseCandidate{c})
	assert.Len(t, result.Eligible, 1)

	// A window that starts before the mission ends and ends after it
	// starts overlaps, even partially.
	from := mission.StartDate.Add(-24 * time.Hour)
	to := mission.StartDate.Add(12 * time.Hour)
	partial := eligibleCandidate("nurse-partial")
	partial.AvailableFrom = &from
	partial.AvailableTo = &to

	result = handler.Filter(mission, []models.NurseCandidate{partial})
	assert.Len(t, result.Eligible, 1)
}
