package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DF-AutoPilot/droneforce-functions/internal/config"
	"github.com/DF-AutoPilot/droneforce-functions/internal/database"
	"github.com/DF-AutoPilot/droneforce-functions/internal/database/migration"
	"github.com/DF-AutoPilot/droneforce-functions/internal/ledger"
	"github.com/DF-AutoPilot/droneforce-functions/internal/metrics"
	"github.com/DF-AutoPilot/droneforce-functions/internal/pipeline"
	"github.com/DF-AutoPilot/droneforce-functions/internal/repository/postgres"
	"github.com/DF-AutoPilot/droneforce-functions/internal/resolver"
	"github.com/DF-AutoPilot/droneforce-functions/internal/storage"
	"github.com/DF-AutoPilot/droneforce-functions/internal/verification"
	"github.com/DF-AutoPilot/droneforce-functions/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	taskRepo := postgres.NewTaskPostgres(db)
	provenanceRepo := postgres.NewProvenancePostgres(db)

	pipelineMetrics, err := metrics.NewPipeline(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register pipeline metrics: %v", err)
	}

	// Scrape endpoint for the pipeline counters.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.Pipeline.MetricsAddr, mux); err != nil {
			log.Printf("metrics listener stopped: %v", err)
		}
	}()

	ledgerClient, err := ledger.NewFromConfig(cfg.Ledger)
	if err != nil {
		log.Fatalf("failed to initialize ledger client: %v", err)
	}

	p := pipeline.New(
		objStore,
		provenanceRepo,
		resolver.New(taskRepo, pipelineMetrics),
		verification.New(taskRepo, ledgerClient, pipelineMetrics),
		pipelineMetrics,
		pipeline.WithLogPrefix(cfg.Pipeline.LogPrefix),
		pipeline.WithTempDir(cfg.Pipeline.TempDir),
	)

	server := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, asynq.Config{
		Concurrency: cfg.Pipeline.Concurrency,
	})
	processor := worker.NewProcessor(p)
	mux := processor.Handler()

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	if err := server.Run(mux); err != nil {
		log.Printf("worker stopped: %v", err)
		os.Exit(1)
	}
}
