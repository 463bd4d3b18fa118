// Package errors provides standardized error handling for the matching engine.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeMissionNotFound      ErrorCode = "MISSION_NOT_FOUND"
	ErrCodeMissionFetchFailed   ErrorCode = "MISSION_FETCH_FAILED"
	ErrCodeCandidateFetchFailed ErrorCode = "CANDIDATE_FETCH_FAILED"
	ErrCodeCandidateMalformed   ErrorCode = "CANDIDATE_MALFORMED"

	ErrCodeApplicationUpsertFailed  ErrorCode = "APPLICATION_UPSERT_FAILED"
	ErrCodeNotificationUpsertFailed ErrorCode = "NOTIFICATION_UPSERT_FAILED"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeDedupCheckFailed         ErrorCode = "DEDUP_CHECK_FAILED"

	ErrCodeQueueFull    ErrorCode = "QUEUE_FULL"
	ErrCodeStepTimeout  ErrorCode = "STEP_TIMEOUT"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// IsRetryable reports whether the wrapped failure is transient.
func IsRetryable(err error) bool {
	if se, ok := err.(*StandardError); ok {
		return se.Retryable
	}
	return false
}

// CodeOf extracts the error code, or empty for foreign errors.
func CodeOf(err error) ErrorCode {
	if se, ok := err.(*StandardError); ok {
		return se.Code
	}
	return ""
}

// ==========================
// 2. Error Constructors
// ==========================

// NewMissionNotFoundError creates a non-retryable lookup error. A missing
// mission is treated as "zero matches" by the orchestrator, never as a
// fatal failure of the trigger path.
func NewMissionNotFoundError(missionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissionNotFound,
		Message:   "Mission not found",
		Details:   fmt.Sprintf("missionId: %s", missionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissionFetchFailedError creates a retryable persistence error.
func NewMissionFetchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissionFetchFailed,
		Message:   "Database error while loading mission",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCandidateFetchFailedError creates a retryable search error.
func NewCandidateFetchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCandidateFetchFailed,
		Message:   "Candidate pool retrieval failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewApplicationUpsertFailedError creates a retryable write error for a
// single (mission, nurse) pair.
func NewApplicationUpsertFailedError(missionID, nurseID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeApplicationUpsertFailed,
		Message:   "Application upsert failed",
		Details:   err.Error(),
		Retryable: true,
		Metadata: map[string]interface{}{
			"missionId": missionID,
			"nurseId":   nurseID,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationUpsertFailedError creates a retryable write error for a
// single (mission, nurse) pair.
func NewNotificationUpsertFailedError(missionID, nurseID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationUpsertFailed,
		Message:   "Notification upsert failed",
		Details:   err.Error(),
		Retryable: true,
		Metadata: map[string]interface{}{
			"missionId": missionID,
			"nurseId":   nurseID,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError marks a best-effort delivery failure.
// Non-retryable inside the run: the notification record is already
// persisted and a later delivery sweep owns retries.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   fmt.Sprintf("Delivery over %s failed", channel),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDedupCheckFailedError creates a retryable Redis error.
func NewDedupCheckFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDedupCheckFailed,
		Message:   "Delivery dedup check failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueueFullError reports back-pressure on the dispatch queue.
func NewQueueFullError(missionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueueFull,
		Message:   "Matching queue is full",
		Details:   fmt.Sprintf("missionId: %s", missionID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStepTimeoutError marks a timed-out pipeline step.
func NewStepTimeoutError(step string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStepTimeout,
		Message:   fmt.Sprintf("Step %s timed out", step),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError creates a non-retryable validation error.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
