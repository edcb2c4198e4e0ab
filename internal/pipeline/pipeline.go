// Package pipeline processes one finalized log object end to end:
// download, digest, provenance, then verification settlement.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"strings"
	"time"

	"github.com/DF-AutoPilot/droneforce-functions/internal/digest"
	"github.com/DF-AutoPilot/droneforce-functions/internal/metrics"
	"github.com/DF-AutoPilot/droneforce-functions/internal/model"
	"github.com/DF-AutoPilot/droneforce-functions/internal/repository"
	"github.com/DF-AutoPilot/droneforce-functions/internal/resolver"
	"github.com/DF-AutoPilot/droneforce-functions/internal/storage"
	"github.com/DF-AutoPilot/droneforce-functions/internal/verification"
)

// ObjectEvent describes a finalized object as delivered by the bucket
// notification webhook. Metadata holds producer-supplied object
// metadata with lowercased keys.
type ObjectEvent struct {
	Bucket      string            `json:"bucket"`
	Path        string            `json:"path"`
	ContentType string            `json:"content_type"`
	SizeBytes   int64             `json:"size_bytes"`
	UploadedAt  time.Time         `json:"uploaded_at"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// metadataTaskKey is the object metadata key carrying an explicit task
// id (x-amz-meta-taskid on the wire).
const metadataTaskKey = "taskid"

// DecisionFunc judges the downloaded log and produces the verification
// decision. The orchestration is agnostic to how the judgement is made.
type DecisionFunc func(ctx context.Context, localPath string, ev ObjectEvent) model.Decision

// AcceptAll passes every log unconditionally. Placeholder until real
// flight-log analysis lands.
func AcceptAll(_ context.Context, _ string, _ ObjectEvent) model.Decision {
	return model.Pass()
}

// Pipeline runs the verification flow for finalized objects.
type Pipeline struct {
	store      storage.Storage
	provenance repository.ProvenanceRepository
	resolver   resolver.Resolver
	verifier   verification.Orchestrator
	decide     DecisionFunc
	metrics    *metrics.Pipeline

	logPrefix string
	tempDir   string
	now       func() time.Time
}

// Option tweaks pipeline construction.
type Option func(*Pipeline)

// WithLogPrefix overrides the object-key prefix that selects log
// uploads. Defaults to "logs/".
func WithLogPrefix(prefix string) Option {
	return func(p *Pipeline) { p.logPrefix = prefix }
}

// WithTempDir overrides the directory for downloaded copies. Defaults
// to the OS temp dir.
func WithTempDir(dir string) Option {
	return func(p *Pipeline) { p.tempDir = dir }
}

// WithDecisionFunc overrides the verification judgement. Defaults to
// AcceptAll.
func WithDecisionFunc(fn DecisionFunc) Option {
	return func(p *Pipeline) { p.decide = fn }
}

// New constructs a Pipeline. metrics may be nil.
func New(
	store storage.Storage,
	provenance repository.ProvenanceRepository,
	res resolver.Resolver,
	verifier verification.Orchestrator,
	m *metrics.Pipeline,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		store:      store,
		provenance: provenance,
		resolver:   res,
		verifier:   verifier,
		decide:     AcceptAll,
		metrics:    m,
		logPrefix:  "logs/",
		tempDir:    os.TempDir(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// HandleFinalizedObject runs the full flow for one finalized object.
// A non-nil error means the step that failed is infrastructure and the
// event should be redelivered; business rejections come back inside
// the outcome with a nil error. The provenance record is written
// before any verification gate runs, so every matching upload leaves
// an audit entry even when verification is rejected.
func (p *Pipeline) HandleFinalizedObject(ctx context.Context, ev ObjectEvent) (model.VerificationOutcome, error) {
	if !strings.HasPrefix(ev.Path, p.logPrefix) {
		p.metrics.ObserveOutcome("skipped")
		return model.VerificationOutcome{
			Success: true,
			Message: fmt.Sprintf("ignored: object outside %s", p.logPrefix),
		}, nil
	}

	localPath, err := p.store.DownloadToFile(ctx, ev.Path, p.tempDir)
	if err != nil {
		p.metrics.ObserveOutcome("error")
		return model.VerificationOutcome{}, fmt.Errorf("download %s: %w", ev.Path, err)
	}
	defer func() {
		if rmErr := os.Remove(localPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			p.logWarn("temp_cleanup_failed", ev.Path, rmErr)
		}
	}()

	hash, err := digest.ComputeFile(localPath)
	if err != nil {
		p.metrics.ObserveOutcome("error")
		return model.VerificationOutcome{}, fmt.Errorf("digest %s: %w", ev.Path, err)
	}

	processed := p.now().UTC()
	if processed.Before(ev.UploadedAt) {
		// Clock skew between producer and pipeline must not yield a
		// record that claims processing preceded the upload.
		processed = ev.UploadedAt
	}
	if _, err := p.provenance.Insert(ctx, &model.FileProvenanceRecord{
		FileName:           path.Base(ev.Path),
		FilePath:           ev.Path,
		ContentType:        ev.ContentType,
		SizeBytes:          ev.SizeBytes,
		UploadTimestamp:    ev.UploadedAt,
		ProcessedTimestamp: processed,
		SHA256Hash:         hash,
	}); err != nil {
		p.metrics.ObserveOutcome("error")
		return model.VerificationOutcome{}, fmt.Errorf("record provenance for %s: %w", ev.Path, err)
	}

	// Tagging the source object is an annotation, not a record. Failure
	// never blocks verification.
	if err := p.store.SetObjectTags(ctx, ev.Path, map[string]string{"sha256Hash": hash}); err != nil {
		p.logWarn("object_tagging_failed", ev.Path, err)
	}

	taskID, err := p.resolver.Resolve(ctx, ev.Path, resolver.Metadata{TaskID: ev.Metadata[metadataTaskKey]})
	if err != nil {
		p.metrics.ObserveOutcome("rejected")
		return model.VerificationOutcome{Success: false, Message: "task id unresolved"}, nil
	}

	return p.verifier.Verify(ctx, verification.Input{
		TaskID:     taskID,
		ReportHash: hash,
		Decision:   p.decide(ctx, localPath, ev),
	})
}

func (p *Pipeline) logWarn(event, filePath string, err error) {
	b, mErr := json.Marshal(map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"component": "pipeline",
		"event":     event,
		"level":     "warn",
		"file_path": filePath,
		"error":     err.Error(),
	})
	if mErr != nil {
		log.Printf("failed to marshal pipeline log: %v", mErr)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
