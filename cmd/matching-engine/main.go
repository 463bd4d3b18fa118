// cmd/matching-engine/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"nursematch-engine/internal/common/aws"
	"nursematch-engine/internal/common/config"
	"nursematch-engine/internal/common/database"
	"nursematch-engine/internal/common/dispatch"
	"nursematch-engine/internal/common/logger"
	"nursematch-engine/internal/common/observability"
	"nursematch-engine/internal/common/validation"
	"nursematch-engine/internal/matching"
	"nursematch-engine/internal/matching/orchestrator"

	calculatematchscore "nursematch-engine/internal/workers/matching/calculate-match-score"
	createapplications "nursematch-engine/internal/workers/matching/create-applications"
	fetchcandidates "nursematch-engine/internal/workers/matching/fetch-candidates"
	filtercandidates "nursematch-engine/internal/workers/matching/filter-candidates"
	rankcandidates "nursematch-engine/internal/workers/matching/rank-candidates"
	sendnotifications "nursematch-engine/internal/workers/matching/send-notifications"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting matching engine...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("matching-engine")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Delivery Channels ---
	var sesClient sendnotifications.SESService
	var snsClient sendnotifications.SNSService
	if cfg.Notifications.Email.Enabled {
		client, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		sesClient = client
	}
	if cfg.Notifications.SMS.Enabled {
		client, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		snsClient = client
	}
	zapLog.Info("Delivery channels initialized",
		zap.Bool("email", cfg.Notifications.Email.Enabled),
		zap.Bool("sms", cfg.Notifications.SMS.Enabled),
	)

	// --- Assemble Pipeline Stages ---
	snapshots := fetchcandidates.NewHandler(
		&fetchcandidates.Config{
			NurseIndex:     cfg.Database.Elasticsearch.NurseIndex,
			CandidateLimit: cfg.Matching.CandidateLimit,
			CacheTTL:       config.GetSeconds(cfg.Matching.SnapshotCacheTTL),
		},
		pg.DB, esClient.Client, redis.Client, log,
	)

	filtering := filtercandidates.NewHandler(log)
	scoring := calculatematchscore.NewHandler(log)
	ranking := rankcandidates.NewHandler(filtering, scoring, log)

	applications := createapplications.NewHandler(pg.DB, log)

	notifications := sendnotifications.NewHandler(
		&sendnotifications.Config{
			EmailEnabled: cfg.Notifications.Email.Enabled,
			SMSEnabled:   cfg.Notifications.SMS.Enabled,
			FromEmail:    cfg.Notifications.Email.FromEmail,
			DedupTTL:     config.GetSeconds(cfg.Matching.DedupTTL),
			Timeout:      config.GetDuration(cfg.Matching.StepTimeout),
		},
		pg.DB, redis.Client, sesClient, snsClient, log,
	)

	statusStore := orchestrator.NewRedisStatusStore(redis.Client, 24*time.Hour, log)

	orch := orchestrator.New(
		&orchestrator.Config{
			StepTimeout: config.GetDuration(cfg.Matching.StepTimeout),
			StatusTTL:   24 * time.Hour,
		},
		snapshots, ranking, applications, notifications, statusStore, obs, log,
	)

	queue := dispatch.NewQueue(cfg.Dispatch.QueueSize, cfg.Dispatch.Workers, orch, log)
	queue.Start()
	zapLog.Info("Dispatch queue started",
		zap.Int("workers", cfg.Dispatch.Workers),
		zap.Int("queueSize", cfg.Dispatch.QueueSize),
	)

	engine := matching.NewEngine(queue, statusStore, log)

	// --- HTTP Server (trigger + status + health + metrics) ---
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/missions/{id}/match", func(w http.ResponseWriter, r *http.Request) {
		missionID := r.PathValue("id")
		if missionID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing mission id"})
			return
		}

		force := false
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
			return
		}
		if len(body) > 0 {
			var payload map[string]interface{}
			if err := json.Unmarshal(body, &payload); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
				return
			}
			if err := validation.ValidateTriggerPayload(payload); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			if f, ok := payload["force"].(bool); ok {
				force = f
			}
		}

		var triggerErr error
		if force {
			triggerErr = engine.RetriggerMatching(missionID)
		} else {
			triggerErr = engine.TriggerMatching(missionID)
		}
		if triggerErr != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error":     "matching queue is full, retry later",
				"missionId": missionID,
			})
			return
		}

		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"missionId": missionID,
			"status":    "scheduled",
			"force":     force,
		})
	})

	mux.HandleFunc("GET /v1/missions/{id}/match-status", func(w http.ResponseWriter, r *http.Request) {
		missionID := r.PathValue("id")
		report, err := engine.RunStatus(r.Context(), missionID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "status lookup failed"})
			return
		}
		if report == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error":     "no run recorded for this mission",
				"missionId": missionID,
			})
			return
		}
		writeJSON(w, http.StatusOK, report)
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":     "healthy",
			"queueDepth": engine.QueueDepth(),
			"time":       time.Now().Format(time.RFC3339),
		})
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: mux,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining queue...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}

	queue.Stop(shutdownCtx)

	zapLog.Info("Matching engine stopped gracefully")
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
