// Package verification drives a single upload's verification to its
// terminal state: either recorded on the ledger and the task store, or
// rejected with a reason. The ordering of gates makes the operation
// idempotent under redelivery.
package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DF-AutoPilot/droneforce-functions/internal/ledger"
	"github.com/DF-AutoPilot/droneforce-functions/internal/metrics"
	"github.com/DF-AutoPilot/droneforce-functions/internal/model"
	"github.com/DF-AutoPilot/droneforce-functions/internal/repository"
)

// Input names the task to verify and the evidence backing the decision.
type Input struct {
	TaskID     string
	ReportHash string
	Decision   model.Decision
}

// Orchestrator settles a verification decision for a task exactly once.
type Orchestrator interface {
	// Verify runs the gate sequence and returns the outcome. A non-nil
	// error signals an infrastructure failure where the caller should
	// retry the whole operation; business rejections come back inside
	// the outcome with a nil error.
	Verify(ctx context.Context, in Input) (model.VerificationOutcome, error)
}

type orchestrator struct {
	tasks   repository.TaskRepository
	ledger  ledger.Client
	metrics *metrics.Pipeline
}

// New constructs an Orchestrator. metrics may be nil.
func New(tasks repository.TaskRepository, lc ledger.Client, m *metrics.Pipeline) Orchestrator {
	return &orchestrator{tasks: tasks, ledger: lc, metrics: m}
}

func (o *orchestrator) Verify(ctx context.Context, in Input) (model.VerificationOutcome, error) {
	task, err := o.tasks.FindByID(ctx, in.TaskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return o.rejected("task not found"), nil
		}
		return model.VerificationOutcome{}, fmt.Errorf("load task %s: %w", in.TaskID, err)
	}

	// Idempotent short-circuit: a task that already carries a result is
	// never re-settled, regardless of how the event reached us again.
	if task.Verified() {
		return o.rejected("already verified"), nil
	}

	if task.Status != model.TaskStatusCompleted {
		return o.rejected("task not completed"), nil
	}

	// The task row is untouched until settlement succeeds, so a failed
	// or crashed settlement leaves the event safe to redeliver.
	tx, err := o.ledger.Settle(ctx, task.ID, in.Decision.Passed, in.ReportHash)
	if err != nil {
		return o.rejected(fmt.Sprintf("settlement failed: %v", err)), nil
	}

	err = o.tasks.RecordVerification(ctx, task.ID, repository.VerificationUpdate{
		Result:        in.Decision.Passed,
		ReportHash:    in.ReportHash,
		TransactionID: tx,
	})
	if errors.Is(err, repository.ErrVerificationConflict) {
		// A concurrent run settled first. Its write stands.
		return o.rejected("already verified"), nil
	}
	if err != nil {
		return model.VerificationOutcome{}, fmt.Errorf("record verification for %s: %w", task.ID, err)
	}

	o.metrics.ObserveOutcome("recorded")
	msg := "verification recorded"
	if !in.Decision.Passed {
		msg = fmt.Sprintf("verification recorded as failed: %s", in.Decision.Reason)
	}
	return model.VerificationOutcome{Success: true, Message: msg, TransactionID: &tx}, nil
}

func (o *orchestrator) rejected(msg string) model.VerificationOutcome {
	o.metrics.ObserveOutcome("rejected")
	return model.VerificationOutcome{Success: false, Message: msg}
}
