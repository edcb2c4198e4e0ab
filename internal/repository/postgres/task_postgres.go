package postgres

import (
	"context"
	"database/sql"

	"github.com/DF-AutoPilot/droneforce-functions/internal/model"
	"github.com/DF-AutoPilot/droneforce-functions/internal/repository"
)

// TaskPostgres is a PostgreSQL implementation of repository.TaskRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type TaskPostgres struct {
	db *sql.DB
}

// NewTaskPostgres creates a new TaskPostgres repository.
func NewTaskPostgres(db *sql.DB) *TaskPostgres {
	return &TaskPostgres{db: db}
}

var _ repository.TaskRepository = (*TaskPostgres)(nil)

const taskColumns = `id, status, completed_at, verification_result, verification_report_hash, verification_timestamp, verification_tx, created_at, updated_at`

func scanTask(row *sql.Row) (*model.Task, error) {
	var t model.Task
	if err := row.Scan(
		&t.ID,
		&t.Status,
		&t.CompletedAt,
		&t.VerificationResult,
		&t.VerificationReportHash,
		&t.VerificationTimestamp,
		&t.VerificationTx,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

// FindByID fetches a single task by its ID.
func (r *TaskPostgres) FindByID(ctx context.Context, id string) (*model.Task, error) {
	const q = `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE id = $1
	`
	return scanTask(r.db.QueryRowContext(ctx, q, id))
}

// FindLatestCompleted returns the most recently completed task, if any.
func (r *TaskPostgres) FindLatestCompleted(ctx context.Context) (*model.Task, error) {
	const q = `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE status = 'completed'
		ORDER BY completed_at DESC
		LIMIT 1
	`
	return scanTask(r.db.QueryRowContext(ctx, q))
}

// RecordVerification performs the write-once compare-and-set: the
// update only applies while verification_result is still NULL, so
// concurrent orchestrations serialize to at most one winner.
func (r *TaskPostgres) RecordVerification(ctx context.Context, id string, upd repository.VerificationUpdate) error {
	const q = `
		UPDATE tasks
		SET status = CASE WHEN $2 THEN 'verified' ELSE 'rejected' END,
			verification_result = $2,
			verification_report_hash = $3,
			verification_timestamp = now(),
			verification_tx = $4,
			updated_at = now()
		WHERE id = $1 AND verification_result IS NULL
	`
	res, err := r.db.ExecContext(ctx, q, id, upd.Result, upd.ReportHash, upd.TransactionID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrVerificationConflict
	}
	return nil
}
