// internal/workers/matching/send-notifications/handler.go
package sendnotifications

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nursematch-engine/internal/common/errors"
	"nursematch-engine/internal/common/logger"
	"nursematch-engine/internal/common/metrics"
	"nursematch-engine/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const TaskType = "send-notifications"

// Interfaces for mocking the delivery channels.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config    *Config
	db        *sql.DB
	redis     *redis.Client
	sesClient SESService
	snsClient SNSService
	logger    logger.Logger
}

func NewHandler(config *Config, db *sql.DB, rdb *redis.Client, sesClient SESService, snsClient SNSService, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		db:        db,
		redis:     rdb,
		sesClient: sesClient,
		snsClient: snsClient,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute emits one notification per ranked match — qualification is
// enough to notify, the auto-apply bar is not required. The notification
// row is keyed on (missionId, nurseId) so repeated runs are no-ops, and a
// Redis delivery-attempt key keeps retried runs from re-pushing the same
// pair unless the trigger asks for it explicitly.
func (h *Handler) Execute(ctx context.Context, mission *models.Mission, ranked []models.MatchScore, force bool) *Result {
	result := &Result{}

	for i := range ranked {
		match := &ranked[i]

		notification, created, err := h.upsert(ctx, mission.ID, match)
		if err != nil {
			result.Failures = append(result.Failures, Failure{NurseID: match.NurseID, Err: err})
			h.logger.Error("notification upsert failed", map[string]interface{}{
				"missionId": mission.ID,
				"nurseId":   match.NurseID,
				"error":     err.Error(),
			})
			continue
		}
		if created {
			result.Notified = append(result.Notified, *notification)
		}

		if !force {
			fresh, err := h.claimDeliveryAttempt(ctx, mission.ID, match.NurseID)
			if err != nil {
				// Dedup store down: deliver anyway, the upsert above
				// already guarantees a single logical notification.
				h.logger.Warn("dedup check failed, delivering anyway", map[string]interface{}{
					"missionId": mission.ID,
					"nurseId":   match.NurseID,
					"error":     err.Error(),
				})
			} else if !fresh {
				result.Skipped++
				metrics.NotificationsDispatched.WithLabelValues(OutcomeSkipped).Inc()
				continue
			}
		}

		outcome := h.deliver(ctx, mission, notification)
		metrics.NotificationsDispatched.WithLabelValues(outcome).Inc()
	}

	h.logger.Info("notifications dispatched", map[string]interface{}{
		"missionId": mission.ID,
		"notified":  len(result.Notified),
		"skipped":   result.Skipped,
		"failed":    len(result.Failures),
	})

	return result
}

func (h *Handler) upsert(ctx context.Context, missionID string, match *models.MatchScore) (*models.Notification, bool, error) {
	notification := &models.Notification{
		ID:            uuid.New().String(),
		MissionID:     missionID,
		NurseID:       match.NurseID,
		Score:         match.TotalScore,
		DistanceKm:    match.DistanceKm,
		UrgencyBucket: match.UrgencyBucket(),
		CreatedAt:     time.Now().UTC(),
	}

	res, err := h.db.ExecContext(ctx, `
		INSERT INTO notifications (
			id, mission_id, nurse_id, score, distance_km, urgency_bucket, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (mission_id, nurse_id) DO NOTHING`,
		notification.ID, notification.MissionID, notification.NurseID,
		notification.Score, notification.DistanceKm,
		notification.UrgencyBucket, notification.CreatedAt,
	)
	if err != nil {
		return nil, false, errors.NewNotificationUpsertFailedError(missionID, match.NurseID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return notification, true, nil
	}
	return notification, rows > 0, nil
}

// claimDeliveryAttempt reserves the (mission, nurse) delivery slot. It
// returns false when another run already claimed it.
func (h *Handler) claimDeliveryAttempt(ctx context.Context, missionID, nurseID string) (bool, error) {
	key := fmt.Sprintf("notify:sent:%s:%s", missionID, nurseID)
	ok, err := h.redis.SetNX(ctx, key, 1, h.config.DedupTTL).Result()
	if err != nil {
		return false, errors.NewDedupCheckFailedError(err)
	}
	return ok, nil
}

// deliver pushes the notification over the enabled channels. Best-effort:
// failures are logged and the persisted record stands.
func (h *Handler) deliver(ctx context.Context, mission *models.Mission, notification *models.Notification) string {
	email, phone, err := h.getNurseContact(ctx, notification.NurseID)
	if err != nil {
		h.logger.Warn("nurse contact not found", map[string]interface{}{
			"nurseId": notification.NurseID,
		})
		return OutcomeNoContact
	}

	subject := fmt.Sprintf("New mission: %s", mission.Title)
	body := fmt.Sprintf(
		"A %s shift matching your profile is available %.1f km from you (match score %.0f). Open the app to apply.",
		mission.Shift, notification.DistanceKm, notification.Score,
	)

	delivered := false

	if h.config.EmailEnabled && email != "" {
		if err := h.sendEmail(ctx, email, subject, body); err != nil {
			h.logger.Error("email delivery failed", map[string]interface{}{
				"nurseId": notification.NurseID,
				"error":   errors.NewNotificationSendFailedError("email", err).Error(),
			})
		} else {
			delivered = true
		}
	}

	if h.config.SMSEnabled && phone != "" && notification.UrgencyBucket == models.UrgencyHigh {
		if err := h.sendSMS(ctx, phone, body); err != nil {
			h.logger.Error("sms delivery failed", map[string]interface{}{
				"nurseId": notification.NurseID,
				"error":   errors.NewNotificationSendFailedError("sms", err).Error(),
			})
		} else {
			delivered = true
		}
	}

	if delivered {
		return OutcomeDelivered
	}
	return OutcomeFailed
}

func (h *Handler) getNurseContact(ctx context.Context, nurseID string) (string, string, error) {
	var email, phone string
	err := h.db.QueryRowContext(ctx,
		`SELECT email, phone FROM nurses WHERE id = $1`, nurseID,
	).Scan(&email, &phone)
	return email, phone, err
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}
