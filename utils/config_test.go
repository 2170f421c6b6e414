package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocketBaseURL(t *testing.T) {
	cases := []struct {
		cfg  APIConfig
		want string
	}{
		{APIConfig{BaseURL: "http://localhost:8000"}, "ws://localhost:8000"},
		{APIConfig{BaseURL: "https://api.aimed.dev/"}, "wss://api.aimed.dev"},
		{APIConfig{BaseURL: "https://api.aimed.dev", WSBaseURL: "wss://voice.aimed.dev/"}, "wss://voice.aimed.dev"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.cfg.WebSocketBaseURL())
	}
}

func TestChunkIntervalDefaultsToOneSecond(t *testing.T) {
	assert.Equal(t, time.Second, AudioConfig{}.ChunkInterval())
	assert.Equal(t, 250*time.Millisecond, AudioConfig{ChunkIntervalMS: 250}.ChunkInterval())
}

func TestApplyEnvOverridesNonEmptyValues(t *testing.T) {
	cfg := DefaultConfig()
	env := map[string]string{
		EnvAPIBaseURL: " https://api.aimed.dev ",
		EnvLogLevel:   "debug",
		EnvWSBaseURL:  "",
	}
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "https://api.aimed.dev", cfg.API.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Empty(t, cfg.API.WSBaseURL)
	assert.Equal(t, "./data/profile.db", cfg.Data.DBPath)
}

func TestSaveThenLoadConfig(t *testing.T) {
	t.Setenv(EnvAPIBaseURL, "")
	t.Setenv(EnvDBPath, "")

	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.UI.Theme = "dark"
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "dark", loaded.UI.Theme)
	assert.Equal(t, "http://localhost:8000", loaded.API.BaseURL)
	assert.True(t, filepath.IsAbs(loaded.Data.DBPath))
}

func TestLoadConfigRequiresBaseURL(t *testing.T) {
	t.Setenv(EnvAPIBaseURL, "")

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ui":{"theme":"light"}}`), 0644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "api.base_url")
}
