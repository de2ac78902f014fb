package application

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.Model)
	assert.Equal(t, Duration(120*time.Second), cfg.RequestTimeout)
	assert.Equal(t, 0.3, cfg.Temperatures.Relevance)
	assert.Equal(t, 0.2, cfg.Temperatures.Generation)
	assert.Equal(t, 0.1, cfg.Temperatures.Judging)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
provider: anthropic
model: claude-3-5-haiku-latest
dataset_path: data/set.json
reports_dir: out
sample_size: 5
request_timeout: 30s
rate_limit_rps: 2.5
temperatures:
  judging: 0.05
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.Model)
	assert.Equal(t, 5, cfg.SampleSize)
	assert.Equal(t, Duration(30*time.Second), cfg.RequestTimeout)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, 0.05, cfg.Temperatures.Judging)
	// Untouched sections keep their defaults.
	assert.Equal(t, 0.2, cfg.Temperatures.Generation)
}

func TestLoadConfigRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t, `
provider: cohere
model: command-r
dataset_path: data/set.json
reports_dir: out
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "Provider")
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, `request_timeout: soon`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid duration")
}

func TestAPIKeyFromEnvironment(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "anthropic"

	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := cfg.APIKey()
	require.Error(t, err)
	assert.ErrorContains(t, err, "ANTHROPIC_API_KEY")

	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	key, err := cfg.APIKey()
	require.NoError(t, err)
	assert.Equal(t, "sk-test", key)
}

func TestGeminiSharesGoogleCredential(t *testing.T) {
	cfg := DefaultConfig()
	t.Setenv("GEMINI_API_KEY", "g-test")

	for _, provider := range []string{"gemini", "google"} {
		cfg.Provider = provider
		key, err := cfg.APIKey()
		require.NoError(t, err)
		assert.Equal(t, "g-test", key)
	}
}
