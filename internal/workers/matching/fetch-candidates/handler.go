// internal/workers/matching/fetch-candidates/handler.go
package fetchcandidates

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"nursematch-engine/internal/common/errors"
	"nursematch-engine/internal/common/logger"
	"nursematch-engine/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

const TaskType = "fetch-candidates"

type Handler struct {
	config *Config
	db     *sql.DB
	es     *elasticsearch.Client
	redis  *redis.Client
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, es *elasticsearch.Client, rdb *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		es:     es,
		redis:  rdb,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute loads the mission row and the candidate pool as a single
// read snapshot for one matching run.
func (h *Handler) Execute(ctx context.Context, missionID string) (*Snapshot, error) {
	mission, err := h.getMission(ctx, missionID)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{Mission: mission}

	if cached, ok := h.getCachedPool(ctx, missionID); ok {
		snapshot.Candidates = cached
		snapshot.FromCache = true
		return snapshot, nil
	}

	candidates, malformed, err := h.searchCandidates(ctx, mission)
	if err != nil {
		return nil, errors.NewCandidateFetchFailedError(err)
	}
	snapshot.Candidates = candidates
	snapshot.Malformed = malformed

	h.cachePool(ctx, missionID, candidates)

	h.logger.Info("candidate pool fetched", map[string]interface{}{
		"missionId": missionID,
		"poolSize":  len(candidates),
		"malformed": malformed,
	})

	return snapshot, nil
}

func (h *Handler) getMission(ctx context.Context, missionID string) (*models.Mission, error) {
	row := h.db.QueryRowContext(ctx, `
		SELECT m.id, m.establishment_id, m.title, m.specialization,
		       m.required_experience_years, m.required_certifications,
		       m.shift, m.urgency, m.start_date, m.end_date,
		       m.latitude, m.longitude, m.hourly_rate,
		       m.max_candidates, m.max_distance_km, m.min_rating,
		       COALESCE(e.excluded_nurse_ids, '{}')
		FROM missions m
		LEFT JOIN establishment_exclusions e ON e.establishment_id = m.establishment_id
		WHERE m.id = $1`, missionID)

	var m models.Mission
	var certs, excluded []string
	err := row.Scan(
		&m.ID, &m.EstablishmentID, &m.Title, &m.Specialization,
		&m.RequiredExperienceYears, pq.Array(&certs),
		&m.Shift, &m.Urgency, &m.StartDate, &m.EndDate,
		&m.Location.Lat, &m.Location.Lng, &m.HourlyRate,
		&m.MaxCandidates, &m.MaxDistanceKm, &m.MinRating,
		pq.Array(&excluded),
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewMissionNotFoundError(missionID)
	}
	if err != nil {
		return nil, errors.NewMissionFetchFailedError(err)
	}

	m.RequiredCertifications = certs
	m.ExcludedNurseIDs = excluded
	m.ApplyDefaults()
	return &m, nil
}

// searchCandidates queries the nurse index with cheap prefilters: must be
// flagged available and within the mission's geo radius. The hard filter
// re-checks everything on the decoded snapshot; this query only bounds the
// pool.
func (h *Handler) searchCandidates(ctx context.Context, mission *models.Mission) ([]models.NurseCandidate, int, error) {
	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{
						"term": map[string]interface{}{"isAvailable": true},
					},
					map[string]interface{}{
						"geo_distance": map[string]interface{}{
							"distance": fmt.Sprintf("%.0fkm", mission.MaxDistanceKm),
							"location": map[string]interface{}{
								"lat": mission.Location.Lat,
								"lon": mission.Location.Lng,
							},
						},
					},
				},
			},
		},
	}

	body, _ := json.Marshal(queryBody)
	size := h.config.CandidateLimit

	req := esapi.SearchRequest{
		Index: []string{h.config.NurseIndex},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}

	res, err := req.Do(ctx, h.es)
	if err != nil {
		return nil, 0, fmt.Errorf("candidate search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, fmt.Errorf("candidate search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string          `json:"_id"`
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, 0, fmt.Errorf("decode search response: %w", err)
	}

	candidates := make([]models.NurseCandidate, 0, len(parsed.Hits.Hits))
	malformed := 0
	for _, hit := range parsed.Hits.Hits {
		var candidate models.NurseCandidate
		if err := json.Unmarshal(hit.Source, &candidate); err != nil {
			malformed++
			h.logger.Warn("malformed candidate document dropped", map[string]interface{}{
				"documentId": hit.ID,
				"error":      err.Error(),
			})
			continue
		}
		if candidate.ID == "" {
			candidate.ID = hit.ID
		}
		candidates = append(candidates, candidate)
	}

	return candidates, malformed, nil
}

func poolCacheKey(missionID string) string {
	return "nurse:pool:" + missionID
}

func (h *Handler) getCachedPool(ctx context.Context, missionID string) ([]models.NurseCandidate, bool) {
	val, err := h.redis.Get(ctx, poolCacheKey(missionID)).Result()
	if err != nil {
		return nil, false
	}
	var candidates []models.NurseCandidate
	if err := json.Unmarshal([]byte(val), &candidates); err != nil {
		return nil, false
	}
	return candidates, true
}

func (h *Handler) cachePool(ctx context.Context, missionID string, candidates []models.NurseCandidate) {
	data, err := json.Marshal(candidates)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, poolCacheKey(missionID), data, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("pool cache write failed", map[string]interface{}{
			"missionId": missionID,
			"error":     err.Error(),
		})
	}
}
