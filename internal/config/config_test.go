package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/markpostal/kiln-watch/internal/config"
	"github.com/markpostal/kiln-watch/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "kilnwatch.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
http_port = 8080
broadcast_port = 24000
simulate = true
devices = 5
simulate_interval = "2s"
hours = 6
ramp_interval = "30m"
queue_timeout = "1s"
pacing_delay = "100ms"
log_level = "debug"
archive = true
archive_db = "/path/to/archive.db"
redis_addr = "localhost:6379"
`)

	// Set environment variable to point to the test config file
	t.Setenv("KILNWATCH_CONFIG", configPath)

	cfg, err := config.Load(config.WithArgs())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort, "Expected HTTPPort 8080")
	assert.Equal(t, 24000, cfg.BroadcastPort, "Expected BroadcastPort 24000")
	assert.True(t, cfg.Simulate, "Expected Simulate true")
	assert.Equal(t, 5, cfg.Devices, "Expected Devices 5")
	assert.Equal(t, 2*time.Second, cfg.SimulateInterval)
	assert.Equal(t, 6, cfg.Hours)
	assert.Equal(t, 30*time.Minute, cfg.RampInterval)
	assert.Equal(t, time.Second, cfg.QueueTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.PacingDelay)
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel debug")
	assert.True(t, cfg.Archive, "Expected Archive true")
	assert.Equal(t, "/path/to/archive.db", cfg.ArchiveDB)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoadDefaults(t *testing.T) {
	// Ensure no config file is used
	t.Setenv("KILNWATCH_CONFIG", "")

	cfg, err := config.Load(config.WithArgs())
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, config.DefaultHTTPPort, cfg.HTTPPort)
	assert.Equal(t, config.DefaultBroadcastPort, cfg.BroadcastPort)
	assert.False(t, cfg.Simulate)
	assert.Equal(t, config.DefaultDevices, cfg.Devices)
	assert.Equal(t, config.DefaultSimulateInterval, cfg.SimulateInterval)
	assert.Equal(t, config.DefaultHours, cfg.Hours)
	assert.Equal(t, config.DefaultRampInterval, cfg.RampInterval)
	assert.Equal(t, config.DefaultQueueTimeout, cfg.QueueTimeout)
	assert.Zero(t, cfg.PacingDelay, "Expected pacing disabled by default")
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.False(t, cfg.Archive)
	assert.Equal(t, config.DefaultArchiveBatchSize, cfg.ArchiveBatchSize)
	assert.Equal(t, config.DefaultArchiveBatchTimeout, cfg.ArchiveBatchTimeout)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, config.DefaultPublishInterval, cfg.PublishInterval)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	configPath := writeConfig(t, `
This is not a valid TOML file
`)
	t.Setenv("KILNWATCH_CONFIG", configPath)

	_, err := config.Load(config.WithArgs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read configuration")
	assert.Equal(t, errors.ErrReadConfig, errors.CodeOf(err))
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := config.Load(
		config.WithArgs(),
		config.WithConfigFile(filepath.Join(t.TempDir(), "missing.toml")),
	)
	require.Error(t, err)
	assert.Equal(t, errors.ErrReadConfig, errors.CodeOf(err))
}

func TestInvalidLogLevel(t *testing.T) {
	configPath := writeConfig(t, `
log_level = "invalid"
`)
	t.Setenv("KILNWATCH_CONFIG", configPath)

	_, err := config.Load(config.WithArgs())
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidLogLevel, errors.CodeOf(err))
}

func TestInvalidPort(t *testing.T) {
	t.Setenv("KILNWATCH_CONFIG", "")

	_, err := config.Load(config.WithArgs("--http-port", "70000"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidPort, errors.CodeOf(err))
}

func TestInvalidInterval(t *testing.T) {
	configPath := writeConfig(t, `
queue_timeout = "0s"
`)
	t.Setenv("KILNWATCH_CONFIG", configPath)

	_, err := config.Load(config.WithArgs())
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidInterval, errors.CodeOf(err))
}

func TestLogLevelFlag(t *testing.T) {
	t.Setenv("KILNWATCH_CONFIG", "")

	cfg, err := config.Load(config.WithArgs("--log-level", "debug"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel to be set by flag")
}

func TestDebugFlagOverridesFile(t *testing.T) {
	configPath := writeConfig(t, `
log_level = "error"
`)
	t.Setenv("KILNWATCH_CONFIG", configPath)

	cfg, err := config.Load(config.WithArgs("-d"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestPrecedence(t *testing.T) {
	configPath := writeConfig(t, `
http_port = 8080
broadcast_port = 24000
devices = 4
`)
	t.Setenv("KILNWATCH_CONFIG", configPath)
	t.Setenv("KILNWATCH_BROADCAST_PORT", "25000")
	t.Setenv("KILNWATCH_DEVICES", "6")

	cfg, err := config.Load(config.WithArgs("-s", "-b", "26000"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort, "file beats default")
	assert.Equal(t, 6, cfg.Devices, "env beats file")
	assert.Equal(t, 26000, cfg.BroadcastPort, "flag beats env")
	assert.True(t, cfg.Simulate)
}

func TestEnvPrefix(t *testing.T) {
	t.Setenv("KILNWATCH_CONFIG", "")
	t.Setenv("KILN_HTTP_PORT", "9090")

	cfg, err := config.Load(config.WithArgs(), config.WithEnvPrefix("kiln"))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
}

func TestUnknownFlag(t *testing.T) {
	t.Setenv("KILNWATCH_CONFIG", "")

	_, err := config.Load(config.WithArgs("--no-such-flag"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrParseFlags, errors.CodeOf(err))
}
