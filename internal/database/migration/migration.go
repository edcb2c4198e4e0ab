package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_tasks",
		SQL: `CREATE TABLE IF NOT EXISTS tasks (
  id                       TEXT        PRIMARY KEY,
  status                   TEXT        NOT NULL,
  completed_at             TIMESTAMPTZ,
  verification_result      BOOLEAN,
  verification_report_hash TEXT,
  verification_timestamp   TIMESTAMPTZ,
  verification_tx          TEXT,
  created_at               TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at               TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_tasks_status_completed_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_tasks_status_completed_at ON tasks (status, completed_at DESC);`,
	},
	{
		Name: "create_table_file_provenance",
		SQL: `CREATE TABLE IF NOT EXISTS file_provenance (
  id                  UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  file_name           TEXT        NOT NULL,
  file_path           TEXT        NOT NULL,
  content_type        TEXT        NOT NULL,
  size_bytes          BIGINT      NOT NULL CHECK (size_bytes >= 0),
  upload_timestamp    TIMESTAMPTZ NOT NULL,
  processed_timestamp TIMESTAMPTZ NOT NULL,
  sha256_hash         CHAR(64)    NOT NULL,
  created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_file_provenance_file_path",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_file_provenance_file_path ON file_provenance (file_path);`,
	},
	{
		Name: "create_index_file_provenance_sha256_hash",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_file_provenance_sha256_hash ON file_provenance (sha256_hash);`,
	},
}

// EnsureMigrated checks if the 'tasks' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.tasks') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
