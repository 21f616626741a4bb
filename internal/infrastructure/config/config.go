package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all helper configuration.
type Config struct {
	Terminal TerminalConfig
	Timing   TimingConfig
	Logging  LogConfig
	Metrics  MetricsConfig
}

// TerminalConfig holds channel and PTY settings.
type TerminalConfig struct {
	ControlFD  int    `envconfig:"PTY_HELPER_CONTROL_FD" default:"3"`
	BufferSize int    `envconfig:"PTY_HELPER_BUFFER_SIZE" default:"16384"`
	Term       string `envconfig:"PTY_HELPER_TERM" default:"xterm-256color"`
}

// TimingConfig bounds the loop, drain and shutdown waits.
type TimingConfig struct {
	PollInterval time.Duration `envconfig:"PTY_HELPER_POLL_INTERVAL" default:"100ms"`
	DrainInitial time.Duration `envconfig:"PTY_HELPER_DRAIN_INITIAL" default:"50ms"`
	DrainStep    time.Duration `envconfig:"PTY_HELPER_DRAIN_STEP" default:"10ms"`
	KillGrace    time.Duration `envconfig:"PTY_HELPER_KILL_GRACE" default:"100ms"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level defaults to warn, or debug in development mode.
	Level       string `envconfig:"PTY_HELPER_LOG_LEVEL"`
	Development bool   `envconfig:"PTY_HELPER_LOG_DEV" default:"false"`
	Path        string `envconfig:"PTY_HELPER_LOG_PATH" default:"stderr"`
}

// MetricsConfig holds metrics export configuration.
type MetricsConfig struct {
	// TextfilePath receives a Prometheus text exposition on exit when set.
	TextfilePath string `envconfig:"PTY_HELPER_METRICS_FILE"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Terminal: TerminalConfig{
			ControlFD:  3,
			BufferSize: 16384,
			Term:       "xterm-256color",
		},
		Timing: TimingConfig{
			PollInterval: 100 * time.Millisecond,
			DrainInitial: 50 * time.Millisecond,
			DrainStep:    10 * time.Millisecond,
			KillGrace:    100 * time.Millisecond,
		},
		Logging: LogConfig{
			Development: false,
			Path:        "stderr",
		},
	}
}

// Validate rejects settings the helper cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Terminal.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("buffer size must be positive, got %d", c.Terminal.BufferSize))
	}
	if c.Terminal.ControlFD >= 0 && c.Terminal.ControlFD <= 2 {
		errs = append(errs, fmt.Errorf("control fd %d collides with a standard stream", c.Terminal.ControlFD))
	}
	timings := map[string]time.Duration{
		"poll interval": c.Timing.PollInterval,
		"drain initial": c.Timing.DrainInitial,
		"drain step":    c.Timing.DrainStep,
		"kill grace":    c.Timing.KillGrace,
	}
	// Waits are handed to poll(2) in whole milliseconds.
	for name, d := range timings {
		if d < time.Millisecond {
			errs = append(errs, fmt.Errorf("%s must be at least 1ms, got %s", name, d))
		}
	}
	// fd 1 carries terminal output.
	if c.Logging.Path == "stdout" || c.Logging.Path == "/dev/stdout" {
		errs = append(errs, errors.New("log path cannot be stdout"))
	}
	return errors.Join(errs...)
}
