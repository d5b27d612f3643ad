package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV", "test")
	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "file", cfg.StoreBackend)
	assert.Equal(t, 5, cfg.RateLimit.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "none", cfg.EventsBackend)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOGIN_WINDOW", "1m")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("SEED_ON_START", "yes")
	t.Setenv("JWT_SECRET", "  secret  ")

	cfg := LoadConfig()
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.True(t, cfg.Database.UseSSL)
	assert.True(t, cfg.SeedOnStart)
	assert.Equal(t, "secret", cfg.JWTSecret)
}
