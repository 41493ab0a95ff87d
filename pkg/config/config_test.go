package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigIgnoresFileAPIKeys(t *testing.T) {
	home := t.TempDir()
	setHomeEnv(t, home)
	clearEnv(t)

	writeConfig(t, filepath.Join(home, ".taskgate", "config.yaml"),
		"api_keys:\n  anthropic: file-ant\n  openai: file-openai\n")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.AnthropicAPIKey)
	assert.Empty(t, cfg.OpenAIAPIKey)
	assert.Empty(t, cfg.GoogleAPIKey)
	assert.Empty(t, cfg.DeepSeekAPIKey)
}

func TestConfigUsesEnvAPIKeys(t *testing.T) {
	home := t.TempDir()
	setHomeEnv(t, home)
	clearEnv(t)

	t.Setenv("ANTHROPIC_API_KEY", "env-ant")
	t.Setenv("OPENAI_API_KEY", "env-openai")
	t.Setenv("GOOGLE_API_KEY", "env-google")
	t.Setenv("DEEPSEEK_API_KEY", "env-deepseek")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env-ant", cfg.AnthropicAPIKey)
	assert.Equal(t, "env-openai", cfg.OpenAIAPIKey)
	assert.Equal(t, "env-google", cfg.GoogleAPIKey)
	assert.Equal(t, "env-deepseek", cfg.DeepSeekAPIKey)

	for _, name := range []string{"anthropic", "openai", "google", "deepseek", "mock"} {
		assert.True(t, cfg.HasBackend(name), "HasBackend(%q)", name)
	}
	assert.False(t, cfg.HasBackend("carrier-pigeon"))
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	home := t.TempDir()
	setHomeEnv(t, home)
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30, *cfg.Router.LowBoundary)
	assert.Equal(t, 60, *cfg.Router.HighBoundary)
	assert.Equal(t, 30000, cfg.Delegate.TimeoutMs)
	assert.Equal(t, 1, *cfg.Delegate.MaxRetries)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "none", cfg.Tracing.Exporter)
	assert.Equal(t, filepath.Join(home, ".taskgate"), cfg.ConfigDir)
	require.NotNil(t, cfg.Models)
	assert.True(t, cfg.Models.IsAlias("fast"))
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "taskgate.yaml")
	writeConfig(t, path, `router:
  low_boundary: 0
  high_boundary: 45
delegate:
  backend: deepseek
  model: cheap
  timeout_ms: 5000
  max_retries: 0
  backoff_ms: 250
scorer:
  type_weights:
    analysis: 35
  keywords: [deploy, rollback]
log:
  level: debug
  format: json
metrics:
  addr: ":9090"
tracing:
  exporter: stdout
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	// Explicit zeros survive defaulting.
	assert.Equal(t, 0, *cfg.Router.LowBoundary)
	assert.Equal(t, 45, *cfg.Router.HighBoundary)
	assert.Equal(t, 0, *cfg.Delegate.MaxRetries)

	assert.Equal(t, 5000, cfg.Delegate.TimeoutMs)
	assert.Equal(t, 250, cfg.Delegate.BackoffMs)
	assert.Equal(t, "deepseek-chat", cfg.Model())
	assert.Equal(t, 35.0, cfg.Scorer.TypeWeights["analysis"])
	assert.Len(t, cfg.Scorer.Keywords, 2)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.Equal(t, "stdout", cfg.Tracing.Exporter)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "taskgate.yaml")
	writeConfig(t, path, "delegate:\n  backend: openai\n  timeout_ms: 5000\nlog:\n  level: warn\n")

	t.Setenv("TASKGATE_BACKEND", "mock")
	t.Setenv("TASKGATE_TIMEOUT_MS", "1200")
	t.Setenv("TASKGATE_MAX_RETRIES", "3")
	t.Setenv("TASKGATE_LOW_BOUNDARY", "10")
	t.Setenv("TASKGATE_LOG_LEVEL", "error")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.Delegate.Backend)
	assert.Equal(t, 1200, cfg.Delegate.TimeoutMs)
	assert.Equal(t, 3, *cfg.Delegate.MaxRetries)
	assert.Equal(t, 10, *cfg.Router.LowBoundary)
	assert.Equal(t, 60, *cfg.Router.HighBoundary)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestEnvIgnoresNonNumeric(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "taskgate.yaml")
	writeConfig(t, path, "delegate:\n  timeout_ms: 700\n")
	t.Setenv("TASKGATE_TIMEOUT_MS", "soon")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 700, cfg.Delegate.TimeoutMs)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeConfig(t, path, "router: [unclosed\n")
	_, err = LoadFile(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GOOGLE_API_KEY", "DEEPSEEK_API_KEY",
		"TASKGATE_BACKEND", "TASKGATE_MODEL", "TASKGATE_TIMEOUT_MS", "TASKGATE_MAX_RETRIES",
		"TASKGATE_LOW_BOUNDARY", "TASKGATE_HIGH_BOUNDARY", "TASKGATE_LOG_LEVEL",
		"TASKGATE_LOG_FORMAT", "TASKGATE_METRICS_ADDR", "TASKGATE_TRACE_EXPORTER",
	} {
		t.Setenv(key, "")
	}
}

func setHomeEnv(t *testing.T, home string) {
	t.Helper()
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}
}
