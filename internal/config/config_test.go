package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, int64(10*1024*1024), cfg.Extractor.MaxUploadSize)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, 60, cfg.Bot.PollTimeout)
	assert.Equal(t, 120*time.Second, cfg.LLM.Timeout)
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 8080
  host: "127.0.0.1"
llm:
  provider: "claude"
  model: "claude-sonnet-4-20250514"
storage:
  backend: "redis"
  redis:
    url: "redis://cache:6379"
    db: 2
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "claude", cfg.LLM.Provider)
	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, "redis://cache:6379", cfg.Storage.Redis.URL)
	assert.Equal(t, 2, cfg.Storage.Redis.DB)
	// Unset values keep their defaults
	assert.Equal(t, 8192, cfg.LLM.MaxTokens)
}

func TestLoadConfigExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "123:abc")

	path := writeConfigFile(t, `
bot:
  token: "${TEST_BOT_TOKEN}"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Bot.Token)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("LLM_PROVIDER", "claude")
	t.Setenv("LLM_MODEL", "claude-sonnet-4-20250514")
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("LLM_TIMEOUT", "45s")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "claude", cfg.LLM.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.LLM.Model)
	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
}

func TestLoadConfigProviderKeyFallback(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-secret")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "gemini-secret", cfg.LLM.APIKey)
}

func TestLoadConfigExplicitKeyWins(t *testing.T) {
	t.Setenv("LLM_API_KEY", "explicit-secret")
	t.Setenv("GEMINI_API_KEY", "gemini-secret")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "explicit-secret", cfg.LLM.APIKey)
}

func TestLoadConfigRejectsUnknownProvider(t *testing.T) {
	path := writeConfigFile(t, `
llm:
  provider: "gpt4"
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	path := writeConfigFile(t, `
storage:
  backend: "s3"
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
