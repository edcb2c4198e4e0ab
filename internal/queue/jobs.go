// Package queue defines the asynq jobs exchanged between the webhook
// receiver and the pipeline worker.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/DF-AutoPilot/droneforce-functions/internal/pipeline"
)

const (
	// LogFinalizedTask is scheduled each time the bucket notifies a
	// finalized object under the log prefix.
	LogFinalizedTask = "log:finalized"
)

// Client enqueues pipeline jobs.
type Client struct {
	inner *asynq.Client
}

// NewClient wraps an asynq client.
func NewClient(inner *asynq.Client) *Client {
	return &Client{inner: inner}
}

// EnqueueFinalized enqueues a verification job for a finalized object.
// The task id is derived from the object location so duplicate webhook
// deliveries collapse while the first job is still queued; delivery
// stays at-least-once overall and the pipeline tolerates that.
func (c *Client) EnqueueFinalized(ctx context.Context, ev pipeline.ObjectEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(LogFinalizedTask, data)
	_, err = c.inner.EnqueueContext(ctx, task,
		asynq.MaxRetry(5),
		asynq.TaskID(fmt.Sprintf("%s:%s/%s", LogFinalizedTask, ev.Bucket, ev.Path)),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue finalized task: %w", err)
	}
	return nil
}
