package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/hibiken/asynq"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DF-AutoPilot/droneforce-functions/internal/config"
	"github.com/DF-AutoPilot/droneforce-functions/internal/database"
	"github.com/DF-AutoPilot/droneforce-functions/internal/database/migration"
	handlers "github.com/DF-AutoPilot/droneforce-functions/internal/http/handler"
	"github.com/DF-AutoPilot/droneforce-functions/internal/http/middleware"
	"github.com/DF-AutoPilot/droneforce-functions/internal/otel"
	"github.com/DF-AutoPilot/droneforce-functions/internal/queue"
	"github.com/DF-AutoPilot/droneforce-functions/internal/repository/postgres"
	"github.com/DF-AutoPilot/droneforce-functions/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()

	// Tracing is best-effort: a missing collector degrades to no-op.
	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Printf("tracing disabled: %v", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracing(shutdownCtx)
		}()
	}

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Initialize repositories
	taskRepo := postgres.NewTaskPostgres(db)
	provenanceRepo := postgres.NewProvenancePostgres(db)

	// asynq client for enqueuing pipeline jobs consumed by cmd/worker
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()
	jobs := queue.NewClient(asynqClient)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	reg := prometheus.NewRegistry()
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected repositories and queue client
	handlers.RegisterRoutes(app, db, taskRepo, provenanceRepo, objStore, jobs)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
