package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_USER", "visits")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("AUTH_PASSWORD", "myeversmile")
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "fieldvisits", cfg.DBName)
	assert.Equal(t, 300*time.Millisecond, cfg.DraftDebounce)
	assert.Equal(t, RecoveryBackendFile, cfg.RecoveryBackend)
	assert.Equal(t, 365*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "noreply@door2door.com", cfg.FromEmail)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_AllowedOrigins(t *testing.T) {
	setRequired(t)
	t.Setenv("ALLOWED_ORIGINS", "https://visits.example.com, ,http://localhost:5173")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://visits.example.com", "http://localhost:5173"}, cfg.AllowedOrigins)
}

func TestLoad_RequiresSecrets(t *testing.T) {
	t.Setenv("DB_USER", "visits")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("AUTH_PASSWORD", "")

	_, err := Load()
	assert.ErrorContains(t, err, "AUTH_PASSWORD")

	t.Setenv("AUTH_PASSWORD", "pw")
	t.Setenv("SESSION_SECRET", "short")
	_, err = Load()
	assert.ErrorContains(t, err, "SESSION_SECRET")
}

func TestLoad_RejectsUnknownRecoveryBackend(t *testing.T) {
	setRequired(t)
	t.Setenv("RECOVERY_BACKEND", "localstorage")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadClient_NeedsNothing(t *testing.T) {
	t.Setenv("DB_USER", "")
	t.Setenv("API_BASE_URL", "http://visits.internal:9000")
	t.Setenv("RECOVERY_BACKEND", RecoveryBackendMemory)

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "http://visits.internal:9000", cfg.APIBaseURL)
}

func TestConfig_SubViews(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_PORT", "6543")
	t.Setenv("REDIS_PORT", "not-a-port")
	t.Setenv("NOTIFICATION_EMAIL", "ops@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6543, cfg.Database().Port)
	assert.Equal(t, 6379, cfg.Cache().Port, "falls back on unparsable port")
	assert.Equal(t, cfg.WorkerConcurrency, cfg.Queue().Concurrency)
	assert.Equal(t, "ops@example.com", cfg.Mail().To)
	assert.Contains(t, cfg.GetDatabaseURL(), "port=6543")
}
