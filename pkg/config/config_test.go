package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, int64(10*1024*1024), cfg.Imports.MaxFileSizeBytes)
	assert.Equal(t, []string{".xlsx", ".xls"}, cfg.Imports.AllowedExtensions)
	assert.Equal(t, "http://localhost:3000", cfg.Upstream.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Progress.CacheTTL)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("UPSTREAM_API_URL", "https://progreso.example.com/")
	t.Setenv("IMPORT_VALIDATION_DELAY", "2s")
	t.Setenv("IMPORT_MAX_FILE_SIZE", "1024")
	t.Setenv("PROGRESS_CACHE_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://progreso.example.com", cfg.Upstream.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Imports.ValidationDelay)
	assert.Equal(t, int64(1024), cfg.Imports.MaxFileSizeBytes)
	assert.True(t, cfg.Progress.CacheEnabled)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 3*time.Second, parseDuration("3s", time.Minute))
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a , ,b "))
}
