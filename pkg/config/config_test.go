package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "insight-service", cfg.ServiceName)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, "5432", cfg.DB.Port)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 24, cfg.JWT.ExpirationHours)
	assert.Equal(t, 10*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 256*1024, cfg.Ingest.ChunkThresholdBytes)
	assert.Equal(t, 30*time.Second, cfg.Ingest.PollInterval)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_EXPIRATION_HOURS", "2")
	t.Setenv("LLM_TIMEOUT", "3s")
	t.Setenv("INGEST_BATCH_SIZE", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 2, cfg.JWT.ExpirationHours)
	assert.Equal(t, 3*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 50, cfg.Ingest.BatchSize)
}

func TestGetDSN(t *testing.T) {
	cfg := DBConfig{
		Host: "localhost", Port: "5432", User: "postgres",
		Password: "secret", DBName: "insight_service", SSLMode: "disable",
	}
	dsn := cfg.GetDSN()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "dbname=insight_service")
	assert.Contains(t, dsn, "sslmode=disable")
}
