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

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "shopcore_search", cfg.MongoDB)
	assert.Equal(t, time.Hour, cfg.SyncInterval)
	assert.False(t, cfg.IsDevelopment())
	assert.False(t, cfg.MailEnabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_USER", "mailer")
	t.Setenv("SYNC_INTERVAL", "15m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.True(t, cfg.MailEnabled())
	assert.Equal(t, 15*time.Minute, cfg.SyncInterval)
}
