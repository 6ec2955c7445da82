package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.BackendURL)
	assert.Equal(t, "artstore.db", c.LocalStatePath)
	assert.Equal(t, 5*time.Second, c.BootstrapTimeout)
	assert.Equal(t, 5*time.Second, c.GuardMaxWait)
	assert.Equal(t, uint64(3), c.SignUpRetries)
	assert.Equal(t, time.Second, c.SignUpRetryDelay)
	assert.Equal(t, 30*time.Second, c.RefreshLead)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "http://127.0.0.1:8080", cfg.BackendURL)
	assert.Equal(t, 5*time.Second, cfg.GuardMaxWait)
}
