package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.BindAddr)
	assert.Equal(t, "/ws", cfg.WSPath)
	assert.Equal(t, 2*time.Second, cfg.PersistDebounce)
	assert.Equal(t, 30*time.Second, cfg.IdleTimeout)
	assert.Equal(t, 256, cfg.MailboxCapacity)
	assert.False(t, cfg.EnableFileStorage)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load("/nonexistent/siphonophore.yaml")
	assert.Error(t, err)
}

func TestLoadEnvOverridesFlatKeys(t *testing.T) {
	t.Setenv("SIPHONOPHORE_BIND_ADDR", ":9090")
	t.Setenv("SIPHONOPHORE_ENABLE_FILE_STORAGE", "true")
	t.Setenv("SIPHONOPHORE_MAILBOX_CAPACITY", "512")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.BindAddr)
	assert.True(t, cfg.EnableFileStorage)
	assert.Equal(t, 512, cfg.MailboxCapacity)
	assert.Equal(t, "/ws", cfg.WSPath, "unrelated keys stay at their default")
}
