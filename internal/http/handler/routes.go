package handler

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/DF-AutoPilot/droneforce-functions/internal/repository"
	"github.com/DF-AutoPilot/droneforce-functions/internal/storage"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin; the pipeline itself runs in the worker.
func RegisterRoutes(app *fiber.App, db *sql.DB, tasks repository.TaskRepository, provenance repository.ProvenanceRepository, store storage.Storage, enq Enqueuer) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Post("/webhooks/minio", ObjectFinalizedWebhook(enq))

	app.Get("/provenance", ListProvenance(provenance))
	app.Get("/tasks/:id", GetTask(tasks))
	app.Get("/logs/url", PresignLogURL(store))
}

// HealthCheck reports readiness, gated on database connectivity.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain liveness check with no dependencies.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListProvenance returns provenance records, newest first, with
// limit/offset pagination.
func ListProvenance(repo repository.ProvenanceRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := repo.List(c.UserContext(), repository.PageQuery{Limit: limit, Offset: offset})
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"items": res.Items, "total": res.Total})
	}
}

// logURLExpiry bounds how long a presigned log download link stays valid.
const logURLExpiry = 15 * time.Minute

// PresignLogURL returns a short-lived download URL for a stored log
// object, confirming the object exists first.
func PresignLogURL(store storage.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Query("path")
		if key == "" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PATH", "path query parameter is required")
		}

		if _, err := store.Stat(c.UserContext(), key); err != nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "object not found")
		}

		u, err := store.PresignGet(c.UserContext(), key, logURLExpiry)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"url": u, "expires_in_sec": int(logURLExpiry.Seconds())})
	}
}

// GetTask returns a task with its verification state.
func GetTask(repo repository.TaskRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		task, err := repo.FindByID(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "task not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(task)
	}
}
