package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	// Save current env and restore later
	origHost := os.Getenv("DB_HOST")
	defer os.Setenv("DB_HOST", origHost)

	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_MAX_OPEN_CONNS", "20")
	os.Setenv("MINIO_USE_SSL", "true")
	os.Setenv("LEDGER_MODE", "signed")
	os.Setenv("PIPELINE_LOG_PREFIX", "drone-logs/")
	defer func() {
		os.Unsetenv("DB_MAX_OPEN_CONNS")
		os.Unsetenv("MINIO_USE_SSL")
		os.Unsetenv("LEDGER_MODE")
		os.Unsetenv("PIPELINE_LOG_PREFIX")
	}()

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "signed", cfg.Ledger.Mode)
	assert.Equal(t, "drone-logs/", cfg.Pipeline.LogPrefix)
}

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("LEDGER_MODE")
	os.Unsetenv("LEDGER_VALIDATOR_KEY")
	os.Unsetenv("PIPELINE_LOG_PREFIX")

	cfg := Load()

	assert.Equal(t, "mock", cfg.Ledger.Mode)
	assert.Empty(t, cfg.Ledger.ValidatorKey, "validator key must not have a default")
	assert.Equal(t, "logs/", cfg.Pipeline.LogPrefix)
	assert.Equal(t, ":9091", cfg.Pipeline.MetricsAddr)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}
