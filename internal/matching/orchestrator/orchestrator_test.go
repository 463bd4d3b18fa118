// internal/matching/orchestrator/orchestrator_test.go
package orchestrator

import (
	"context"
	"fmt"
	"testing"
	"time"

	stderrors "nursematch-engine/internal/common/errors"
	"nursematch-engine/internal/common/logger"
	"nursematch-engine/internal/models"
	createapplications "nursematch-engine/internal/workers/matching/create-applications"
	fetchcandidates "nursematch-engine/internal/workers/matching/fetch-candidates"
	sendnotifications "nursematch-engine/internal/workers/matching/send-notifications"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Stage Fakes
// ==========================

type fakeSnapshotter struct {
	snapshot *fetchcandidates.Snapshot
	err      error
}

func (f *fakeSnapshotter) Execute(ctx context.Context, missionID string) (*fetchcandidates.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot, nil
}

type fakeRanker struct {
	ranked []models.MatchScore
	calls  int
}

func (f *fakeRanker) ComputeRanking(mission *models.Mission, pool []models.NurseCandidate) []models.MatchScore {
	f.calls++
	return f.ranked
}

type fakeWriter struct {
	result *createapplications.Result
	calls  int
}

func (f *fakeWriter) Execute(ctx context.Context, mission *models.Mission, ranked []models.MatchScore) *createapplications.Result {
	f.calls++
	return f.result
}

type fakeDispatcher struct {
	result    *sendnotifications.Result
	calls     int
	lastForce bool
}

func (f *fakeDispatcher) Execute(ctx context.Context, mission *models.Mission, ranked []models.MatchScore, force bool) *sendnotifications.Result {
	f.calls++
	f.lastForce = force
	return f.result
}

type fakeStatusStore struct {
	saved []*RunReport
}

func (f *fakeStatusStore) Save(ctx context.Context, report *RunReport) {
	f.saved = append(f.saved, report)
}

// ==========================
// Helpers
// ==========================

func testConfig() *Config {
	return &Config{
		StepTimeout: 5 * time.Second,
		StatusTTL:   time.Hour,
	}
}

func testSnapshot(poolSize int) *fetchcandidates.Snapshot {
	pool := make([]models.NurseCandidate, poolSize)
	for i := range pool {
		pool[i] = models.NurseCandidate{ID: fmt.Sprintf("nurse-%d", i)}
	}
	return &fetchcandidates.Snapshot{
		Mission:    &models.Mission{ID: "mission-123", MaxCandidates: 10},
		Candidates: pool,
	}
}

func rankedMatches(ids ...string) []models.MatchScore {
	out := make([]models.MatchScore, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.MatchScore{NurseID: id, TotalScore: 85})
	}
	return out
}

func newOrchestrator(
	snapshots Snapshotter,
	ranker Ranker,
	writer ApplicationWriter,
	dispatcher NotificationDispatcher,
	status StatusStore,
) *Orchestrator {
	return New(testConfig(), snapshots, ranker, writer, dispatcher, status, nil, logger.NewNoOpLogger())
}

// ==========================
// Tests
// ==========================

func TestOrchestrator_Run_HappyPath(t *testing.T) {
	snapshots := &fakeSnapshotter{snapshot: testSnapshot(5)}
	ranker := &fakeRanker{ranked: rankedMatches("n1", "n2")}
	writer := &fakeWriter{result: &createapplications.Result{
		Created: []models.Application{{NurseID: "n1"}, {NurseID: "n2"}},
	}}
	dispatcher := &fakeDispatcher{result: &sendnotifications.Result{
		Notified: []models.Notification{{NurseID: "n1"}, {NurseID: "n2"}},
	}}
	status := &fakeStatusStore{}

	orch := newOrchestrator(snapshots, ranker, writer, dispatcher, status)
	report := orch.Run(context.Background(), "mission-123", false)

	assert.Equal(t, StateCompleted, report.State)
	assert.Equal(t, 5, report.PoolSize)
	assert.Equal(t, 2, report.RankedCount)
	assert.Equal(t, 2, report.ApplicationsCreated)
	assert.Equal(t, 2, report.NotificationsCreated)
	assert.Empty(t, report.FailureReason)
	assert.Equal(t, 1, writer.calls)
	assert.Equal(t, 1, dispatcher.calls)
	assert.False(t, dispatcher.lastForce)

	// The final report lands in the status store exactly once.
	assert.Len(t, status.saved, 1)
	assert.Equal(t, StateCompleted, status.saved[0].State)
}

func TestOrchestrator_Run_MissionNotFoundCompletesWithZeroMatches(t *testing.T) {
	snapshots := &fakeSnapshotter{err: stderrors.NewMissionNotFoundError("mission-ghost")}
	ranker := &fakeRanker{}
	writer := &fakeWriter{}
	dispatcher := &fakeDispatcher{}
	status := &fakeStatusStore{}

	orch := newOrchestrator(snapshots, ranker, writer, dispatcher, status)
	report := orch.Run(context.Background(), "mission-ghost", false)

	assert.Equal(t, StateCompleted, report.State)
	assert.Zero(t, report.PoolSize)
	assert.Zero(t, report.RankedCount)
	assert.Zero(t, ranker.calls)
	assert.Zero(t, writer.calls)
	assert.Zero(t, dispatcher.calls)
}

func TestOrchestrator_Run_SnapshotFailureFailsRun(t *testing.T) {
	snapshots := &fakeSnapshotter{err: stderrors.NewMissionFetchFailedError(fmt.Errorf("pg down"))}
	writer := &fakeWriter{}
	dispatcher := &fakeDispatcher{}
	status := &fakeStatusStore{}

	orch := newOrchestrator(snapshots, &fakeRanker{}, writer, dispatcher, status)
	report := orch.Run(context.Background(), "mission-123", false)

	assert.Equal(t, StateFailed, report.State)
	assert.NotEmpty(t, report.FailureReason)
	assert.Zero(t, writer.calls)
	assert.Zero(t, dispatcher.calls)
	assert.Len(t, status.saved, 1)
	assert.Equal(t, StateFailed, status.saved[0].State)
}

func TestOrchestrator_Run_EmptyRankingCompletesWithoutWrites(t *testing.T) {
	snapshots := &fakeSnapshotter{snapshot: testSnapshot(3)}
	ranker := &fakeRanker{ranked: nil}
	writer := &fakeWriter{}
	dispatcher := &fakeDispatcher{}

	orch := newOrchestrator(snapshots, ranker, writer, dispatcher, &fakeStatusStore{})
	report := orch.Run(context.Background(), "mission-123", false)

	assert.Equal(t, StateCompleted, report.State)
	assert.Equal(t, 3, report.PoolSize)
	assert.Zero(t, report.RankedCount)
	assert.Zero(t, writer.calls)
	assert.Zero(t, dispatcher.calls)
}

func TestOrchestrator_Run_PartialApplicationFailuresDoNotGateNotifications(t *testing.T) {
	snapshots := &fakeSnapshotter{snapshot: testSnapshot(4)}
	ranker := &fakeRanker{ranked: rankedMatches("n1", "n2")}
	writer := &fakeWriter{result: &createapplications.Result{
		Created: []models.Application{{NurseID: "n1"}},
		Failures: []createapplications.Failure{
			{NurseID: "n2", Err: fmt.Errorf("deadlock")},
		},
	}}
	dispatcher := &fakeDispatcher{result: &sendnotifications.Result{
		Notified: []models.Notification{{NurseID: "n1"}, {NurseID: "n2"}},
	}}

	orch := newOrchestrator(snapshots, ranker, writer, dispatcher, &fakeStatusStore{})
	report := orch.Run(context.Background(), "mission-123", false)

	// One write landed, one failed: the run stays completed and the
	// notification stage still gets its turn.
	assert.Equal(t, StateCompleted, report.State)
	assert.Equal(t, 1, report.ApplicationFailures)
	assert.Equal(t, 1, report.ApplicationsCreated)
	assert.Equal(t, 1, dispatcher.calls)
	assert.Equal(t, 2, report.NotificationsCreated)
}

func TestOrchestrator_Run_ApplicationOutageFailsRun(t *testing.T) {
	snapshots := &fakeSnapshotter{snapshot: testSnapshot(4)}
	ranker := &fakeRanker{ranked: rankedMatches("n1", "n2")}
	// Not a single write landed: that is an outage, not a partial failure.
	writer := &fakeWriter{result: &createapplications.Result{
		Failures: []createapplications.Failure{
			{NurseID: "n1", Err: fmt.Errorf("pg down")},
			{NurseID: "n2", Err: fmt.Errorf("pg down")},
		},
	}}
	dispatcher := &fakeDispatcher{}
	status := &fakeStatusStore{}

	orch := newOrchestrator(snapshots, ranker, writer, dispatcher, status)
	report := orch.Run(context.Background(), "mission-123", false)

	assert.Equal(t, StateFailed, report.State)
	assert.NotEmpty(t, report.FailureReason)
	assert.Zero(t, dispatcher.calls)
	assert.Len(t, status.saved, 1)
	assert.Equal(t, StateFailed, status.saved[0].State)
}

func TestOrchestrator_Run_NotificationOutageFailsRun(t *testing.T) {
	snapshots := &fakeSnapshotter{snapshot: testSnapshot(4)}
	ranker := &fakeRanker{ranked: rankedMatches("n1", "n2")}
	writer := &fakeWriter{result: &createapplications.Result{
		Created: []models.Application{{NurseID: "n1"}, {NurseID: "n2"}},
	}}
	dispatcher := &fakeDispatcher{result: &sendnotifications.Result{
		Failures: []sendnotifications.Failure{
			{NurseID: "n1", Err: fmt.Errorf("ses throttled")},
			{NurseID: "n2", Err: fmt.Errorf("ses throttled")},
		},
	}}

	orch := newOrchestrator(snapshots, ranker, writer, dispatcher, &fakeStatusStore{})
	report := orch.Run(context.Background(), "mission-123", false)

	assert.Equal(t, StateFailed, report.State)
	assert.NotEmpty(t, report.FailureReason)
	// The application stage finished before the outage and its counts stay
	// on the report.
	assert.Equal(t, 2, report.ApplicationsCreated)
	assert.Equal(t, 2, report.NotificationFailures)
	assert.Zero(t, report.NotificationsCreated)
}

// stalledWriter blocks until the step context expires, then reports every
// write as failed, the way a wedged database connection surfaces.
type stalledWriter struct {
	calls int
}

func (s *stalledWriter) Execute(ctx context.Context, mission *models.Mission, ranked []models.MatchScore) *createapplications.Result {
	s.calls++
	<-ctx.Done()
	result := &createapplications.Result{}
	for _, m := range ranked {
		result.Failures = append(result.Failures,
			createapplications.Failure{NurseID: m.NurseID, Err: ctx.Err()})
	}
	return result
}

func TestOrchestrator_Run_ApplicationStepTimeoutFailsRun(t *testing.T) {
	snapshots := &fakeSnapshotter{snapshot: testSnapshot(4)}
	ranker := &fakeRanker{ranked: rankedMatches("n1", "n2")}
	writer := &stalledWriter{}
	dispatcher := &fakeDispatcher{}
	status := &fakeStatusStore{}

	cfg := &Config{StepTimeout: 50 * time.Millisecond, StatusTTL: time.Hour}
	orch := New(cfg, snapshots, ranker, writer, dispatcher, status, nil, logger.NewNoOpLogger())

	report := orch.Run(context.Background(), "mission-123", false)

	assert.Equal(t, StateFailed, report.State)
	assert.Contains(t, report.FailureReason, "applications")
	assert.Equal(t, 1, writer.calls)
	assert.Zero(t, dispatcher.calls)
	assert.Len(t, status.saved, 1)
	assert.Equal(t, StateFailed, status.saved[0].State)
}

func TestOrchestrator_Run_ForcePropagatesToDispatcher(t *testing.T) {
	snapshots := &fakeSnapshotter{snapshot: testSnapshot(2)}
	ranker := &fakeRanker{ranked: rankedMatches("n1")}
	writer := &fakeWriter{result: &createapplications.Result{}}
	dispatcher := &fakeDispatcher{result: &sendnotifications.Result{}}

	orch := newOrchestrator(snapshots, ranker, writer, dispatcher, &fakeStatusStore{})
	orch.Run(context.Background(), "mission-123", true)

	assert.True(t, dispatcher.lastForce)
}

func TestOrchestrator_Run_RepeatedRunsProduceSameReport(t *testing.T) {
	snapshots := &fakeSnapshotter{snapshot: testSnapshot(5)}
	ranker := &fakeRanker{ranked: rankedMatches("n1", "n2", "n3")}
	// Second and later runs hit existing rows: nothing newly created.
	writer := &fakeWriter{result: &createapplications.Result{Skipped: 3}}
	dispatcher := &fakeDispatcher{result: &sendnotifications.Result{Skipped: 3}}

	orch := newOrchestrator(snapshots, ranker, writer, dispatcher, &fakeStatusStore{})

	first := orch.Run(context.Background(), "mission-123", false)
	second := orch.Run(context.Background(), "mission-123", false)

	assert.Equal(t, StateCompleted, first.State)
	assert.Equal(t, StateCompleted, second.State)
	assert.Equal(t, first.RankedCount, second.RankedCount)
	assert.Zero(t, second.ApplicationsCreated)
	assert.Zero(t, second.NotificationsCreated)
}
