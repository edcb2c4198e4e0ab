package handler

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/DF-AutoPilot/droneforce-functions/internal/pipeline"
)

// Enqueuer schedules pipeline jobs for finalized objects.
type Enqueuer interface {
	EnqueueFinalized(ctx context.Context, ev pipeline.ObjectEvent) error
}

// bucketNotification is the MinIO/S3 bucket notification payload.
type bucketNotification struct {
	Records []notificationRecord `json:"Records"`
}

type notificationRecord struct {
	EventName string `json:"eventName"`
	EventTime string `json:"eventTime"`
	S3        struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key          string            `json:"key"`
			Size         int64             `json:"size"`
			ContentType  string            `json:"contentType"`
			UserMetadata map[string]string `json:"userMetadata"`
		} `json:"object"`
	} `json:"s3"`
}

const userMetadataPrefix = "x-amz-meta-"

// objectEvent converts a notification record into a pipeline event.
// Object keys arrive URL-encoded; user metadata keys are normalized to
// their bare lowercase form ("X-Amz-Meta-Taskid" becomes "taskid").
func (r notificationRecord) objectEvent() (pipeline.ObjectEvent, error) {
	key, err := url.QueryUnescape(r.S3.Object.Key)
	if err != nil {
		return pipeline.ObjectEvent{}, err
	}

	uploaded, err := time.Parse(time.RFC3339, r.EventTime)
	if err != nil {
		uploaded = time.Now().UTC()
	}

	var meta map[string]string
	for k, v := range r.S3.Object.UserMetadata {
		lk := strings.TrimPrefix(strings.ToLower(k), userMetadataPrefix)
		if meta == nil {
			meta = make(map[string]string)
		}
		meta[lk] = v
	}

	return pipeline.ObjectEvent{
		Bucket:      r.S3.Bucket.Name,
		Path:        key,
		ContentType: r.S3.Object.ContentType,
		SizeBytes:   r.S3.Object.Size,
		UploadedAt:  uploaded,
		Metadata:    meta,
	}, nil
}

// ObjectFinalizedWebhook receives bucket notifications and enqueues a
// pipeline job per created object. Non-create events are ignored so
// the bucket can be configured with a broad event selection.
func ObjectFinalizedWebhook(enq Enqueuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var payload bucketNotification
		if err := c.BodyParser(&payload); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAYLOAD", "malformed notification payload")
		}

		enqueued := 0
		for _, rec := range payload.Records {
			if !strings.HasPrefix(rec.EventName, "s3:ObjectCreated") {
				continue
			}
			ev, err := rec.objectEvent()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_PAYLOAD", "malformed object key")
			}
			if err := enq.EnqueueFinalized(c.UserContext(), ev); err != nil {
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
			enqueued++
		}

		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"enqueued": enqueued})
	}
}
