package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("server:\n  port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "1.0.0", cfg.Server.Version)
	assert.Equal(t, 30*time.Second, cfg.Cache.SystemInfoTTL)
	assert.Equal(t, 20, cfg.Assistant.MaxFiles)
	assert.Equal(t, []string{"Desktop", "Documents"}, cfg.Assistant.SafeFolders)
	assert.Equal(t, 3, cfg.Providers.YouTube.MaxResults)
	assert.Equal(t, 8*time.Second, cfg.Providers.Timeout)
}

func TestParseExpandsEnv(t *testing.T) {
	t.Setenv("MAC_TEST_OPENAI_KEY", "sk-test")

	cfg, err := Parse([]byte(`
providers:
  timeout: 5s
  openai:
    enabled: true
    apiKey: ${MAC_TEST_OPENAI_KEY}
`))
	require.NoError(t, err)

	assert.True(t, cfg.Providers.OpenAI.Enabled)
	assert.Equal(t, "sk-test", cfg.Providers.OpenAI.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Providers.Timeout)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"port", "server:\n  port: 70000\n"},
		{"tts volume", "voice:\n  tts:\n    volume: 1.5\n"},
		{"youtube results", "providers:\n  youtube:\n    maxResults: 50\n"},
		{"empty app", "apps:\n  notepad: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api-server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("assistant:\n  user: Ada\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Ada", cfg.Assistant.User)
}

func TestShippedConfigsParse(t *testing.T) {
	for _, name := range []string{"api-server.yaml", "assistant.yaml"} {
		cfg, err := LoadConfig(filepath.Join("..", "..", "configs", name))
		require.NoError(t, err, name)
		assert.Equal(t, 12*time.Second, cfg.Providers.FallbackBudget, name)
		assert.True(t, cfg.Providers.DuckDuckGo.Enabled, name)
	}
}
