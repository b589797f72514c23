package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
redis_url: redis://cache:6380
session: kitchen
dataset_dir: /srv/datasets
gemini:
  model: gemini-2.0-pro
  api_key_env: MY_KEY
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "redis://cache:6380", cfg.RedisURL)
	assert.Equal(t, "kitchen", cfg.Session)
	assert.Equal(t, "/srv/datasets", cfg.DatasetDir)
	assert.Equal(t, "gemini-2.0-pro", cfg.Gemini.Model)
	assert.Equal(t, "MY_KEY", cfg.Gemini.APIKeyEnv)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, "default", cfg.Session)
	assert.Equal(t, "datasets", cfg.DatasetDir)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, "GEMINI_API_KEY", cfg.Gemini.APIKeyEnv)
}

func TestLoadCorruptFileFails(t *testing.T) {
	path := writeConfig(t, "redis_url: [not: valid")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BARISTA_REDIS_URL", "redis://override:6379")
	t.Setenv("BARISTA_SESSION", "override-session")

	path := writeConfig(t, "redis_url: redis://file:6379\nsession: file-session\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "redis://override:6379", cfg.RedisURL)
	assert.Equal(t, "override-session", cfg.Session)
}

func TestAPIKeyComesFromEnv(t *testing.T) {
	t.Setenv("MY_TEST_KEY", "secret")

	cfg := &Config{Gemini: &GeminiConfig{APIKeyEnv: "MY_TEST_KEY"}}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "secret", cfg.APIKey())
}
