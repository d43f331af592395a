package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTablePrefix(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		override string
		want     string
	}{
		{name: "prod", env: "prod", want: "prod_"},
		{name: "test", env: "test", want: "test_"},
		{name: "dev", env: "dev", want: "dev_"},
		{name: "unknown falls back to dev", env: "staging", want: "dev_"},
		{name: "explicit override wins", env: "prod", override: "custom_", want: "custom_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TABLE_PREFIX", tt.override)
			assert.Equal(t, tt.want, getTablePrefix(tt.env))
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "PORT", "CASCADE_WORKERS", "CACHE_TTL", "STORAGE_BACKEND", "TABLE_PREFIX"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.StorageBackend)
	assert.Equal(t, "dev_", cfg.TablePrefix)
	assert.Equal(t, 4, cfg.CascadeWorkers)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
}

func TestLoadParsesNumbersAndDurations(t *testing.T) {
	t.Setenv("CASCADE_WORKERS", "8")
	t.Setenv("CASCADE_POLL_INTERVAL", "250ms")
	t.Setenv("CASCADE_MAX_ATTEMPTS", "not-a-number")

	cfg := Load()

	assert.Equal(t, 8, cfg.CascadeWorkers)
	assert.Equal(t, 250*time.Millisecond, cfg.CascadePollInterval)
	assert.Equal(t, 10, cfg.CascadeMaxAttempts)
}

func TestSetupLogFileRotates(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"server-2020-01-01T00-00-00.log", "server-2020-01-02T00-00-00.log", "server-2020-01-03T00-00-00.log"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	f, err := SetupLogFile(dir, 2)
	require.NoError(t, err)
	defer f.Close()

	files, err := filepath.Glob(filepath.Join(dir, "server-*.log"))
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.NotContains(t, files, filepath.Join(dir, "server-2020-01-01T00-00-00.log"))
}
