package model

import "time"

// TaskStatus describes the externally-owned task lifecycle. Only the
// transitions this pipeline drives are listed exhaustively; other states
// (pending, assigned, ...) belong to the task tracker.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusVerified  TaskStatus = "verified"
	TaskStatusRejected  TaskStatus = "rejected"
)

// Task is the externally-tracked unit of work this pipeline attests to.
// The verification fields are write-once: once VerificationResult is
// non-nil it must never be overwritten.
type Task struct {
	ID                     string     `json:"id"`
	Status                 TaskStatus `json:"status"`
	CompletedAt            *time.Time `json:"completed_at,omitempty"`
	VerificationResult     *bool      `json:"verification_result,omitempty"`
	VerificationReportHash *string    `json:"verification_report_hash,omitempty"`
	VerificationTimestamp  *time.Time `json:"verification_timestamp,omitempty"`
	VerificationTx         *string    `json:"verification_tx,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// Verified reports whether a terminal verification state has been recorded.
func (t *Task) Verified() bool {
	return t != nil && t.VerificationResult != nil
}
