// internal/matching/orchestrator/status.go
package orchestrator

import (
	"context"
	"encoding/json"
	"time"

	"nursematch-engine/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// RedisStatusStore keeps the last run report per mission in Redis with
// TTL eviction. It replaces ad-hoc process-wide state maps: reports
// survive restarts and expire on their own.
type RedisStatusStore struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisStatusStore(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisStatusStore {
	return &RedisStatusStore{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "status-store"}),
	}
}

func statusKey(missionID string) string {
	return "match:status:" + missionID
}

// Save stores the report. Best-effort: a store failure is logged, the run
// outcome is unaffected.
func (s *RedisStatusStore) Save(ctx context.Context, report *RunReport) {
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, statusKey(report.MissionID), data, s.ttl).Err(); err != nil {
		s.logger.Warn("status save failed", map[string]interface{}{
			"missionId": report.MissionID,
			"error":     err.Error(),
		})
	}
}

// Get returns the last run report for a mission, or nil when none is
// recorded (expired or never run).
func (s *RedisStatusStore) Get(ctx context.Context, missionID string) (*RunReport, error) {
	val, err := s.client.Get(ctx, statusKey(missionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var report RunReport
	if err := json.Unmarshal([]byte(val), &report); err != nil {
		return nil, err
	}
	return &report, nil
}
