// internal/matching/engine.go
package matching

import (
	"context"

	"nursematch-engine/internal/common/dispatch"
	"nursematch-engine/internal/common/logger"
	"nursematch-engine/internal/matching/orchestrator"
)

// Engine is the public entry point of the matching pipeline. Triggering
// is fire-and-forget with logged failure: the caller gets back-pressure
// errors immediately but never waits for a run to finish.
type Engine struct {
	queue  *dispatch.Queue
	status *orchestrator.RedisStatusStore
	logger logger.Logger
}

func NewEngine(queue *dispatch.Queue, status *orchestrator.RedisStatusStore, log logger.Logger) *Engine {
	return &Engine{
		queue:  queue,
		status: status,
		logger: log.WithFields(map[string]interface{}{"component": "engine"}),
	}
}

// TriggerMatching schedules a matching run for a freshly created mission.
// Returns only queue back-pressure errors; everything downstream is
// asynchronous and observable via RunStatus.
func (e *Engine) TriggerMatching(missionID string) error {
	return e.trigger(missionID, false)
}

// RetriggerMatching schedules a run that re-notifies nurses already
// notified for this mission.
func (e *Engine) RetriggerMatching(missionID string) error {
	return e.trigger(missionID, true)
}

func (e *Engine) trigger(missionID string, force bool) error {
	err := e.queue.Enqueue(dispatch.Task{MissionID: missionID, Force: force})
	if err != nil {
		e.logger.Error("trigger rejected", map[string]interface{}{
			"missionId": missionID,
			"error":     err.Error(),
		})
		return err
	}
	e.logger.Info("matching scheduled", map[string]interface{}{
		"missionId": missionID,
		"force":     force,
	})
	return nil
}

// RunStatus returns the last run report for a mission, nil when unknown.
func (e *Engine) RunStatus(ctx context.Context, missionID string) (*orchestrator.RunReport, error) {
	return e.status.Get(ctx, missionID)
}

// QueueDepth exposes current back-pressure for health reporting.
func (e *Engine) QueueDepth() int {
	return e.queue.Depth()
}
