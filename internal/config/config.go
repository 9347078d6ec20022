// Package config provides configuration for the navigation commands.
// Settings come from an optional TOML file with environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default settings.
const (
	DefaultWebPort        = "8750"
	DefaultLogLevel       = "info"
	DefaultControlPeriod  = 50 * time.Millisecond
	DefaultWatchdogPeriod = time.Second
	DefaultStallTimeout   = 3 * time.Second
	DefaultMaxSpeed       = 0.5 // m/s
	DefaultRobotRadius    = 0.3 // m
)

// Config holds the settings for the simulator and dashboard commands.
type Config struct {
	LogLevel string `toml:"log_level"`
	WebPort  string `toml:"web_port"`

	Robot struct {
		Model    string  `toml:"model"` // differential|ackermann|holonomic
		Radius   float64 `toml:"radius_m"`
		MaxSpeed float64 `toml:"max_speed_mps"`
	} `toml:"robot"`

	Nav struct {
		ControlPeriodMs  int64 `toml:"control_period_ms"`
		WatchdogPeriodMs int64 `toml:"watchdog_period_ms"`
		StallTimeoutMs   int64 `toml:"stall_timeout_ms"`
		MaxBlockedTries  int   `toml:"max_blocked_retries"`
	} `toml:"nav"`
}

// Load reads path (if non-empty) and applies env overrides and defaults.
// A missing file with an empty path is not an error; a named file that does
// not exist is.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("NAV_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("NAV_WEB_PORT"); v != "" {
		c.WebPort = v
	}
	if v := os.Getenv("NAV_ROBOT_MODEL"); v != "" {
		c.Robot.Model = v
	}
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.WebPort == "" {
		c.WebPort = DefaultWebPort
	}
	if c.Robot.Model == "" {
		c.Robot.Model = "differential"
	}
	if c.Robot.Radius <= 0 {
		c.Robot.Radius = DefaultRobotRadius
	}
	if c.Robot.MaxSpeed <= 0 {
		c.Robot.MaxSpeed = DefaultMaxSpeed
	}
	if c.Nav.ControlPeriodMs <= 0 {
		c.Nav.ControlPeriodMs = DefaultControlPeriod.Milliseconds()
	}
	if c.Nav.WatchdogPeriodMs <= 0 {
		c.Nav.WatchdogPeriodMs = DefaultWatchdogPeriod.Milliseconds()
	}
	if c.Nav.StallTimeoutMs <= 0 {
		c.Nav.StallTimeoutMs = DefaultStallTimeout.Milliseconds()
	}
}

// ControlPeriod returns the control loop period as a duration.
func (c *Config) ControlPeriod() time.Duration {
	return time.Duration(c.Nav.ControlPeriodMs) * time.Millisecond
}

// WatchdogPeriod returns the watchdog period as a duration.
func (c *Config) WatchdogPeriod() time.Duration {
	return time.Duration(c.Nav.WatchdogPeriodMs) * time.Millisecond
}

// StallTimeout returns the stall window as a duration.
func (c *Config) StallTimeout() time.Duration {
	return time.Duration(c.Nav.StallTimeoutMs) * time.Millisecond
}
