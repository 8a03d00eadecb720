package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("WORKER_CONCURRENCY", "")
	t.Setenv("TURN_LOCK_TTL", "")
	t.Setenv("WORKER_METRICS_ADDR", "")
	require.NoError(t, os.Unsetenv("WORKER_METRICS_ADDR"))

	cfg := Load()
	assert.Equal(t, "sqlite:mentor_chat.db", cfg.DBDSN)
	assert.Equal(t, 2, cfg.WorkerConcurrency)
	assert.Equal(t, 10*time.Minute, cfg.TurnLockTTL)
	assert.Equal(t, ":9091", cfg.WorkerMetricsAddr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "500")
	t.Setenv("TURN_LOCK_TTL", "30s")
	t.Setenv("OPENROUTER_FALLBACK_MODEL", "")
	t.Setenv("RATE_LIMIT_BURST", "nope")
	t.Setenv("WORKER_METRICS_ADDR", "")

	cfg := Load()
	assert.Equal(t, 50, cfg.WorkerConcurrency)
	assert.Equal(t, 30*time.Second, cfg.TurnLockTTL)
	assert.Empty(t, cfg.OpenRouterFallbackModel, "explicitly empty disables the fallback")
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Empty(t, cfg.WorkerMetricsAddr, "explicitly empty turns the worker's metrics off")
}
