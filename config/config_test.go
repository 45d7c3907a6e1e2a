package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.HTTP.Timeout())
	assert.Equal(t, 3, cfg.HTTP.MaxAttempts)
	assert.Equal(t, time.Second, cfg.HTTP.RetryWait())
	assert.NotEmpty(t, cfg.HTTP.UserAgent)
	assert.Equal(t, 5, cfg.Download.Concurrency)
	assert.Equal(t, 500*time.Millisecond, cfg.Download.Politeness())
	assert.Equal(t, "downloads", cfg.Download.OutputDir)
	assert.Equal(t, "sites.yaml", cfg.Download.RulesFile)
	assert.True(t, cfg.Logging.Development)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  timeout_seconds: 30
  max_attempts: 5
download:
  concurrency: 2
  output_dir: archive
logging:
  development: false
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout())
	assert.Equal(t, 5, cfg.HTTP.MaxAttempts)
	assert.Equal(t, 2, cfg.Download.Concurrency)
	assert.Equal(t, "archive", cfg.Download.OutputDir)
	assert.False(t, cfg.Logging.Development)
	// Untouched keys keep their defaults.
	assert.Equal(t, 500*time.Millisecond, cfg.Download.Politeness())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("NOVELDL_DOWNLOAD_CONCURRENCY", "9")
	t.Setenv("NOVELDL_HTTP_TIMEOUT_SECONDS", "20")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Download.Concurrency)
	assert.Equal(t, 20*time.Second, cfg.HTTP.Timeout())
}

func TestZeroRetryWaitAccepted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  retry_wait_seconds: 0
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.HTTP.RetryWait())
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("NOVELDL_DOWNLOAD_CONCURRENCY", "0")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "download.concurrency")
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http.timeout_seconds")
	assert.Contains(t, err.Error(), "http.max_attempts")
	assert.Contains(t, err.Error(), "download.concurrency")
	assert.Contains(t, err.Error(), "download.output_dir")
}
