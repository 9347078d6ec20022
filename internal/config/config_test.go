package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultWebPort, cfg.WebPort)
	assert.Equal(t, "differential", cfg.Robot.Model)
	assert.Equal(t, DefaultControlPeriod, cfg.ControlPeriod())
	assert.Equal(t, DefaultWatchdogPeriod, cfg.WatchdogPeriod())
	assert.Equal(t, DefaultStallTimeout, cfg.StallTimeout())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nav.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"
web_port = "9000"

[robot]
model = "holonomic"
radius_m = 0.45
max_speed_mps = 1.2

[nav]
control_period_ms = 20
watchdog_period_ms = 400
stall_timeout_ms = 1500
max_blocked_retries = 5
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "9000", cfg.WebPort)
	assert.Equal(t, "holonomic", cfg.Robot.Model)
	assert.Equal(t, 0.45, cfg.Robot.Radius)
	assert.Equal(t, 20*time.Millisecond, cfg.ControlPeriod())
	assert.Equal(t, 400*time.Millisecond, cfg.WatchdogPeriod())
	assert.Equal(t, 1500*time.Millisecond, cfg.StallTimeout())
	assert.Equal(t, 5, cfg.Nav.MaxBlockedTries)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nav.toml")
	require.NoError(t, os.WriteFile(path, []byte(`web_port = "9000"`), 0o644))
	t.Setenv("NAV_WEB_PORT", "9900")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9900", cfg.WebPort)
}

func TestLoad_MissingNamedFile(t *testing.T) {
	_, err := Load("/does/not/exist.toml")
	assert.Error(t, err)
}
