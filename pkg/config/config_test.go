package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/differo/differo/pkg/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	// Test loading with no config file (should use defaults).
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	// Check default values.
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, config.DefaultScopeWorkers, cfg.Scope.Workers)
	assert.Equal(t, config.DefaultScopeBufferSize, cfg.Scope.BufferSize)
	assert.Equal(t, config.DefaultSpineFuelRatio, cfg.Spine.FuelRatio)
	assert.Equal(t, config.DefaultBatcherMergeThreshold, cfg.Batcher.MergeThreshold)
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Parallel()

	// Create a temporary config file.
	configContent := `
server:
  port: 9000
  host: "127.0.0.1"

scope:
  workers: 12
  buffer_size: 4096

spine:
  fuel_ratio: 5

snapshot:
  directory: "/tmp/test-snapshots"
`

	tmpDir := t.TempDir()

	tmpFile, err := os.CreateTemp(tmpDir, "test-config-*.yaml")
	require.NoError(t, err)

	_, writeErr := tmpFile.WriteString(configContent)
	require.NoError(t, writeErr)

	tmpFile.Close()

	// Load config from file.
	cfg, loadErr := config.LoadConfig(tmpFile.Name())
	require.NoError(t, loadErr)

	// Check custom values.
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 12, cfg.Scope.Workers)
	assert.Equal(t, 4096, cfg.Scope.BufferSize)
	assert.Equal(t, 5, cfg.Spine.FuelRatio)
	assert.Equal(t, "/tmp/test-snapshots", cfg.Snapshot.Directory)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	// Set environment variables.
	t.Setenv("DIFFERO_SERVER_PORT", "9090")
	t.Setenv("DIFFERO_SCOPE_WORKERS", "16")
	t.Setenv("DIFFERO_SNAPSHOT_DIRECTORY", "/tmp/env-snapshots")

	// Load config (should pick up environment variables).
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	// Check environment variable values.
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 16, cfg.Scope.Workers)
	assert.Equal(t, "/tmp/env-snapshots", cfg.Snapshot.Directory)
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	// Test valid configuration.
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Test that loading with all defaults passes validation.
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Positive(t, cfg.Scope.Workers)
	assert.Positive(t, cfg.Scope.BufferSize)
	assert.Positive(t, cfg.Spine.FuelRatio)
	assert.Positive(t, cfg.Batcher.MergeThreshold)
}

func TestTimeDurationParsing(t *testing.T) {
	t.Parallel()

	// Test that time durations are parsed correctly.
	configContent := `
server:
  read_timeout: "15s"
  write_timeout: "30s"
  idle_timeout: "2m"

snapshot:
  max_age: "48h"
`

	tmpDir := t.TempDir()

	tmpFile, err := os.CreateTemp(tmpDir, "test-duration-*.yaml")
	require.NoError(t, err)

	_, writeErr := tmpFile.WriteString(configContent)
	require.NoError(t, writeErr)

	tmpFile.Close()

	cfg, loadErr := config.LoadConfig(tmpFile.Name())
	require.NoError(t, loadErr)

	// Check time durations.
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Server.IdleTimeout)
	assert.Equal(t, 48*time.Hour, cfg.Snapshot.MaxAge)
}
