package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfigFile writes a config file with secure permissions under a fake
// home directory and returns its path.
func writeConfigFile(t *testing.T, home, content string) string {
	t.Helper()

	dir := filepath.Join(home, ".config", "chatd")
	require.NoError(t, os.MkdirAll(dir, 0700))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadWithFile(t *testing.T) {
	t.Run("applies defaults when no file exists", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		t.Setenv("OPENAI_API_KEY", "test-key")

		cfg, err := LoadWithFile("")
		require.NoError(t, err)

		assert.Equal(t, 8000, cfg.Server.Port)
		assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.DefaultModel)
		assert.Equal(t, 1000, cfg.OpenAI.MaxTokens)
		assert.InDelta(t, 0.7, cfg.OpenAI.Temperature, 0.001)
		assert.Equal(t, 10, cfg.Chat.MaxHistory)
		assert.Equal(t, 256, cfg.Chat.PersistQueueSize)
		assert.Equal(t, "json", cfg.Logging.Format)
		assert.False(t, cfg.Tracing.Enabled)
	})

	t.Run("loads values from yaml file", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Setenv("OPENAI_API_KEY", "test-key")

		path := writeConfigFile(t, home, `
server:
  http_port: 9000
chat:
  max_history: 5
openai:
  default_model: gpt-4
`)

		cfg, err := LoadWithFile(path)
		require.NoError(t, err)

		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, 5, cfg.Chat.MaxHistory)
		assert.Equal(t, "gpt-4", cfg.OpenAI.DefaultModel)
	})

	t.Run("environment overrides yaml", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Setenv("OPENAI_API_KEY", "test-key")
		t.Setenv("SERVER_HTTP_PORT", "9100")

		path := writeConfigFile(t, home, `
server:
  http_port: 9000
`)

		cfg, err := LoadWithFile(path)
		require.NoError(t, err)
		assert.Equal(t, 9100, cfg.Server.Port)
	})

	t.Run("rejects missing api key", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		t.Setenv("OPENAI_API_KEY", "")

		_, err := LoadWithFile("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "api_key")
	})

	t.Run("rejects world-readable config file", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Setenv("OPENAI_API_KEY", "test-key")

		dir := filepath.Join(home, ".config", "chatd")
		require.NoError(t, os.MkdirAll(dir, 0700))
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  http_port: 9000\n"), 0644))

		_, err := LoadWithFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "permissions")
	})

	t.Run("rejects config path outside allowed directories", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Setenv("OPENAI_API_KEY", "test-key")

		_, err := LoadWithFile("/tmp/evil-config.yaml")
		require.Error(t, err)
	})

	t.Run("rejects invalid temperature from environment", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		t.Setenv("OPENAI_API_KEY", "test-key")
		t.Setenv("OPENAI_TEMPERATURE", "3.5")

		_, err := LoadWithFile("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "temperature")
	})
}
