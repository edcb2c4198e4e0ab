package repository

import (
	"context"
	"errors"

	"github.com/DF-AutoPilot/droneforce-functions/internal/model"
)

// ErrVerificationConflict is returned by RecordVerification when the
// task already holds a verification result. The caller must treat this
// as "another run won" and never retry the write.
var ErrVerificationConflict = errors.New("task already holds a verification result")

// VerificationUpdate carries the terminal verification fields written
// in a single conditional update.
type VerificationUpdate struct {
	Result        bool
	ReportHash    string
	TransactionID string
}

// TaskRepository defines read and conditional-write access to tasks.
// Task lifecycle ownership stays with the external tracker; this
// pipeline only reads tasks and records terminal verification state.
type TaskRepository interface {
	// FindByID returns a task by id. Returns sql.ErrNoRows when absent.
	FindByID(ctx context.Context, id string) (*model.Task, error)

	// FindLatestCompleted returns the single most-recently-completed
	// task (status = completed, completed_at descending, limit 1).
	// Returns sql.ErrNoRows when no completed task exists.
	FindLatestCompleted(ctx context.Context) (*model.Task, error)

	// RecordVerification atomically writes the terminal verification
	// fields, guarded on verification_result being currently absent.
	// Status becomes verified or rejected per upd.Result and the
	// verification timestamp is assigned by the database. Returns
	// ErrVerificationConflict if the guard fails.
	RecordVerification(ctx context.Context, id string, upd VerificationUpdate) error
}

// ProvenanceRepository defines append-only access to file provenance
// records. No update or delete operations exist by design.
type ProvenanceRepository interface {
	// Insert stores a new provenance record and returns the stored row
	// (with DB-assigned id and created_at).
	Insert(ctx context.Context, rec *model.FileProvenanceRecord) (*model.FileProvenanceRecord, error)

	// List returns a paginated list of provenance records, newest first.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.FileProvenanceRecord], error)
}
