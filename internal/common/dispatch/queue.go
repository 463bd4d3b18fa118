// internal/common/dispatch/queue.go
package dispatch

import (
	"context"
	"sync"

	"nursematch-engine/internal/common/errors"
	"nursematch-engine/internal/common/logger"
	"nursematch-engine/internal/common/metrics"
)

// Task is one unit of matching work: run the pipeline for a mission.
type Task struct {
	MissionID string
	// Force re-notifies nurses already notified for this mission.
	Force bool
}

// TaskHandler consumes tasks pulled off the queue.
type TaskHandler interface {
	Handle(ctx context.Context, task Task)
}

// Queue is a bounded in-process work queue consumed by a fixed pool of
// workers. Enqueueing never blocks: a full queue rejects the task so
// back-pressure stays visible to the caller instead of stalling the
// mission-creation path.
type Queue struct {
	tasks   chan Task
	handler TaskHandler
	workers int
	logger  logger.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	started bool
	closed  bool
}

func NewQueue(size, workers int, handler TaskHandler, log logger.Logger) *Queue {
	if size < 1 {
		size = 1
	}
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		tasks:   make(chan Task, size),
		handler: handler,
		workers: workers,
		logger:  log.WithFields(map[string]interface{}{"component": "dispatch"}),
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Start launches the worker pool. Safe to call once.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.run(i)
	}
	q.logger.Info("dispatch queue started", map[string]interface{}{
		"workers":   q.workers,
		"queueSize": cap(q.tasks),
	})
}

func (q *Queue) run(id int) {
	defer q.wg.Done()
	for {
		select {
		case task, ok := <-q.tasks:
			if !ok {
				return
			}
			// Cancellation means the stop deadline passed: abandon the
			// backlog instead of working it off.
			select {
			case <-q.baseCtx.Done():
				return
			default:
			}
			metrics.MatchingQueueDepth.Set(float64(len(q.tasks)))
			q.handler.Handle(q.baseCtx, task)
		case <-q.baseCtx.Done():
			return
		}
	}
}

// Enqueue schedules a matching task. It fails fast with a QUEUE_FULL error
// when the buffer is exhausted.
func (q *Queue) Enqueue(task Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errors.NewQueueFullError(task.MissionID)
	}

	select {
	case q.tasks <- task:
		metrics.MatchingQueueDepth.Set(float64(len(q.tasks)))
		return nil
	default:
		metrics.MatchingQueueRejected.Inc()
		q.logger.Warn("queue full, task rejected", map[string]interface{}{
			"missionId": task.MissionID,
		})
		return errors.NewQueueFullError(task.MissionID)
	}
}

// Depth reports the number of queued tasks.
func (q *Queue) Depth() int {
	return len(q.tasks)
}

// Stop closes the queue and drains the backlog, bounded by ctx. Past the
// deadline the remaining backlog is abandoned, not worked off.
func (q *Queue) Stop(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		q.logger.Info("dispatch queue drained", nil)
	case <-ctx.Done():
		q.cancel()
		q.logger.Warn("dispatch queue stop deadline exceeded, abandoning backlog", map[string]interface{}{
			"remaining": len(q.tasks),
		})
	}
}
