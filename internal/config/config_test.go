package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "redis", cfg.SessionBackend)
	assert.Equal(t, "redis", cfg.QueueBackend)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
	assert.NotEmpty(t, cfg.AccountsDBURL)
	assert.NotEmpty(t, cfg.StudentsDBURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("SESSION_BACKEND", "memory")
	t.Setenv("RATE_LIMIT_PER_MIN", "10")

	cfg := Load()

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "9999", cfg.HTTPPort)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "memory", cfg.SessionBackend)
	assert.Equal(t, 10, cfg.RateLimitPerMin)
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("SESSION_TTL", "not-a-duration")
	t.Setenv("RATE_LIMIT_PER_MIN", "lots")

	cfg := Load()

	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
}
