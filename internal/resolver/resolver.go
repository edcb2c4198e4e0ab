// Package resolver maps an uploaded log object to the logical task it
// attests to.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/DF-AutoPilot/droneforce-functions/internal/metrics"
	"github.com/DF-AutoPilot/droneforce-functions/internal/repository"
)

// ErrTaskUnresolved is returned when no task id could be determined.
// Query failures against the task store are wrapped into this same
// error: callers must treat "not found" and "could not look up"
// identically — the upload cannot be verified either way.
var ErrTaskUnresolved = errors.New("task id unresolved")

// taskTokenPattern captures the first task-<alphanumeric> token in an
// object path, e.g. "logs/task-A1B2/flight.bin" resolves to "A1B2".
var taskTokenPattern = regexp.MustCompile(`task-([a-zA-Z0-9]+)`)

// Metadata carries producer-supplied side metadata from the upload.
type Metadata struct {
	TaskID string
}

// Resolver determines which task an uploaded object belongs to.
type Resolver interface {
	Resolve(ctx context.Context, filePath string, meta Metadata) (string, error)
}

type taskResolver struct {
	tasks   repository.TaskRepository
	metrics *metrics.Pipeline
}

// New constructs a Resolver backed by the task repository. metrics may
// be nil.
func New(tasks repository.TaskRepository, m *metrics.Pipeline) Resolver {
	return &taskResolver{tasks: tasks, metrics: m}
}

// Resolve applies the resolution order, first match wins:
//  1. explicit metadata task id, returned verbatim (no existence check)
//  2. first task-<alphanumeric> token in the file path
//  3. the single most-recently-completed task
//
// Step 3 is a deliberately weak heuristic for uploaders that cannot tag
// the task explicitly: under concurrent task completion it can
// misattribute the upload. Every use is logged and counted so it never
// becomes a silent dependency.
func (r *taskResolver) Resolve(ctx context.Context, filePath string, meta Metadata) (string, error) {
	if meta.TaskID != "" {
		return meta.TaskID, nil
	}

	if m := taskTokenPattern.FindStringSubmatch(filePath); m != nil {
		return m[1], nil
	}

	task, err := r.tasks.FindLatestCompleted(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: latest-completed lookup: %v", ErrTaskUnresolved, err)
	}

	r.metrics.ObserveResolverFallback()
	logJSON(map[string]any{
		"component": "resolver",
		"event":     "fallback_resolution",
		"level":     "warn",
		"msg":       "resolved via latest-completed heuristic; unsafe under concurrent completions",
		"file_path": filePath,
		"task_id":   task.ID,
	})
	return task.ID, nil
}

func logJSON(data map[string]any) {
	data["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal resolver log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
