// Package worker plugs the verification pipeline into the asynq
// consumer loop.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/DF-AutoPilot/droneforce-functions/internal/pipeline"
	"github.com/DF-AutoPilot/droneforce-functions/internal/queue"
)

// Processor handles queued pipeline jobs.
type Processor struct {
	pipeline *pipeline.Pipeline
}

// NewProcessor constructs a worker processor.
func NewProcessor(p *pipeline.Pipeline) *Processor {
	return &Processor{pipeline: p}
}

// Handler registers the finalized-object job handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.LogFinalizedTask, p.handleFinalized)
	return mux
}

// handleFinalized runs the pipeline for one event. A returned error
// triggers asynq redelivery; business rejections are terminal and only
// logged.
func (p *Processor) handleFinalized(ctx context.Context, task *asynq.Task) error {
	var ev pipeline.ObjectEvent
	if err := json.Unmarshal(task.Payload(), &ev); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	outcome, err := p.pipeline.HandleFinalizedObject(ctx, ev)
	if err != nil {
		logJSON(map[string]any{
			"component": "worker",
			"event":     "pipeline_retryable_failure",
			"level":     "error",
			"file_path": ev.Path,
			"error":     err.Error(),
		})
		return err
	}

	entry := map[string]any{
		"component": "worker",
		"event":     "pipeline_outcome",
		"level":     "info",
		"file_path": ev.Path,
		"success":   outcome.Success,
		"message":   outcome.Message,
	}
	if outcome.TransactionID != nil {
		entry["transaction_id"] = *outcome.TransactionID
	}
	logJSON(entry)
	return nil
}

func logJSON(data map[string]any) {
	data["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal worker log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
