// internal/matching/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"time"

	"nursematch-engine/internal/common/dispatch"
	"nursematch-engine/internal/common/errors"
	"nursematch-engine/internal/common/logger"
	"nursematch-engine/internal/common/metrics"
	"nursematch-engine/internal/common/observability"
	"nursematch-engine/internal/models"
	createapplications "nursematch-engine/internal/workers/matching/create-applications"
	fetchcandidates "nursematch-engine/internal/workers/matching/fetch-candidates"
	sendnotifications "nursematch-engine/internal/workers/matching/send-notifications"
)

// Snapshotter loads the read snapshot (mission + pool) for one run.
type Snapshotter interface {
	Execute(ctx context.Context, missionID string) (*fetchcandidates.Snapshot, error)
}

// Ranker produces the ordered, bounded match list without side effects.
type Ranker interface {
	ComputeRanking(mission *models.Mission, pool []models.NurseCandidate) []models.MatchScore
}

// ApplicationWriter persists provisional applications for auto-apply
// matches, collecting partial failures.
type ApplicationWriter interface {
	Execute(ctx context.Context, mission *models.Mission, ranked []models.MatchScore) *createapplications.Result
}

// NotificationDispatcher persists and best-effort-delivers notifications.
type NotificationDispatcher interface {
	Execute(ctx context.Context, mission *models.Mission, ranked []models.MatchScore, force bool) *sendnotifications.Result
}

// StatusStore keeps the last run report per mission, with TTL eviction.
type StatusStore interface {
	Save(ctx context.Context, report *RunReport)
}

// Orchestrator sequences one matching run: snapshot → rank → write
// applications → dispatch notifications. It owns failure isolation: a
// notification failure never rolls back applications, and nothing here
// ever propagates back to the mission-creation request path.
type Orchestrator struct {
	config        *Config
	snapshots     Snapshotter
	ranker        Ranker
	applications  ApplicationWriter
	notifications NotificationDispatcher
	status        StatusStore
	obs           *observability.Observability
	logger        logger.Logger
}

func New(
	config *Config,
	snapshots Snapshotter,
	ranker Ranker,
	applications ApplicationWriter,
	notifications NotificationDispatcher,
	status StatusStore,
	obs *observability.Observability,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		config:        config,
		snapshots:     snapshots,
		ranker:        ranker,
		applications:  applications,
		notifications: notifications,
		status:        status,
		obs:           obs,
		logger:        log.WithFields(map[string]interface{}{"component": "orchestrator"}),
	}
}

// Handle consumes one queued matching task. Implements dispatch.TaskHandler.
func (o *Orchestrator) Handle(ctx context.Context, task dispatch.Task) {
	report := o.Run(ctx, task.MissionID, task.Force)

	metrics.MatchingRunsCompleted.WithLabelValues(string(report.State)).Inc()
	metrics.MatchingRunDuration.Observe(float64(report.DurationMs) / 1000)
	if o.obs != nil {
		o.obs.RecordRun(ctx, string(report.State))
		o.obs.RecordRunDuration(ctx, time.Duration(report.DurationMs)*time.Millisecond, string(report.State))
	}
}

// Run executes the full pipeline for one mission and returns the report.
// Safe to invoke more than once for the same mission: every write is
// keyed on (missionId, nurseId) and upserts are no-ops on conflict.
func (o *Orchestrator) Run(ctx context.Context, missionID string, force bool) *RunReport {
	report := &RunReport{
		MissionID: missionID,
		State:     StateScheduled,
		StartedAt: time.Now().UTC(),
	}
	defer func() {
		report.DurationMs = time.Since(report.StartedAt).Milliseconds()
		if o.status != nil {
			o.status.Save(ctx, report)
		}
	}()

	log := o.logger.WithFields(map[string]interface{}{"missionId": missionID})
	log.Info("matching run started", nil)

	// Filtering covers the snapshot fetch: the pool is prefiltered at the
	// source and hard-filtered in memory right after.
	report.State = StateFiltering
	stepCtx, cancel := context.WithTimeout(ctx, o.config.StepTimeout)
	snapshot, err := o.snapshots.Execute(stepCtx, missionID)
	cancel()
	if err != nil {
		// A missing mission is an input error: zero matches, not a
		// failed run.
		if errors.CodeOf(err) == errors.ErrCodeMissionNotFound {
			log.Warn("mission not found, completing with zero matches", nil)
			report.State = StateCompleted
			return report
		}
		o.fail(report, log, "snapshot", err)
		return report
	}
	report.PoolSize = len(snapshot.Candidates)

	// Scoring and ranking are pure in-memory computation; the ranked list
	// is fully materialized before any write begins, so applications and
	// notifications in this run always see the same ordering.
	report.State = StateScoring
	ranked := o.ranker.ComputeRanking(snapshot.Mission, snapshot.Candidates)
	report.State = StateRanked
	report.RankedCount = len(ranked)

	if len(ranked) == 0 {
		log.Info("no qualified candidates", map[string]interface{}{
			"poolSize": report.PoolSize,
		})
		report.State = StateCompleted
		return report
	}

	report.State = StateWriting
	stepCtx, cancel = context.WithTimeout(ctx, o.config.StepTimeout)
	appResult := o.applications.Execute(stepCtx, snapshot.Mission, ranked)
	stepErr := stepCtx.Err()
	cancel()
	report.ApplicationsCreated = len(appResult.Created)
	report.ApplicationFailures = len(appResult.Failures)

	// A stage that failed as a whole is terminal: a timed-out step, or an
	// outage where not a single write landed, must surface as Failed so a
	// later retry is visibly needed. Scattered per-candidate failures with
	// other writes succeeding stay on the completed path.
	if len(appResult.Failures) > 0 {
		if stepErr != nil {
			o.fail(report, log, "applications", errors.NewStepTimeoutError("applications", stepErr))
			return report
		}
		if len(appResult.Created)+appResult.Skipped == 0 {
			o.fail(report, log, "applications", appResult.Failures[0].Err)
			return report
		}
	}

	// Partial application failures do not gate notifications: the two
	// side-effect stages are independent and individually idempotent.
	report.State = StateNotifying
	stepCtx, cancel = context.WithTimeout(ctx, o.config.StepTimeout)
	notifyResult := o.notifications.Execute(stepCtx, snapshot.Mission, ranked, force)
	stepErr = stepCtx.Err()
	cancel()
	report.NotificationsCreated = len(notifyResult.Notified)
	report.NotificationFailures = len(notifyResult.Failures)

	if len(notifyResult.Failures) > 0 {
		if stepErr != nil {
			o.fail(report, log, "notifications", errors.NewStepTimeoutError("notifications", stepErr))
			return report
		}
		if len(notifyResult.Notified)+notifyResult.Skipped == 0 {
			o.fail(report, log, "notifications", notifyResult.Failures[0].Err)
			return report
		}
	}

	report.State = StateCompleted
	log.Info("matching run completed", map[string]interface{}{
		"poolSize":      report.PoolSize,
		"ranked":        report.RankedCount,
		"applications":  report.ApplicationsCreated,
		"notifications": report.NotificationsCreated,
	})

	return report
}

// fail marks the run terminal without touching committed side effects.
func (o *Orchestrator) fail(report *RunReport, log logger.Logger, step string, err error) {
	report.State = StateFailed
	report.FailureReason = err.Error()
	log.Error("matching run failed", map[string]interface{}{
		"step":  step,
		"error": err.Error(),
	})
}
