package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"backend_url":         "https://api.example.com",
		"anon_key":            "public-anon-key",
		"local_state_path":    "state.db",
		"guard_max_wait":      "10s",
		"sign_up_retries":     5,
		"sign_up_retry_delay": "2s",
	})

	t.Run("loads from flags", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "https://api.example.com", cfg.BackendURL)
		assert.Equal(t, "public-anon-key", cfg.AnonKey)
		assert.Equal(t, "state.db", cfg.LocalStatePath)
		assert.Equal(t, 10*time.Second, cfg.GuardMaxWait)
		assert.Equal(t, uint64(5), cfg.SignUpRetries)
		assert.Equal(t, 2*time.Second, cfg.SignUpRetryDelay)
	})

	t.Run("missing keys keep earlier values", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{BootstrapTimeout: 7 * time.Second, RefreshLead: time.Minute}
		parseJson(cfg)

		assert.Equal(t, 7*time.Second, cfg.BootstrapTimeout)
		assert.Equal(t, time.Minute, cfg.RefreshLead)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			BackendURL:   "http://defaults:1234",
			GuardMaxWait: 42 * time.Second,
		}
		parseJson(cfg)

		assert.Equal(t, "http://defaults:1234", cfg.BackendURL)
		assert.Equal(t, 42*time.Second, cfg.GuardMaxWait)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
