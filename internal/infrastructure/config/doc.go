// Package config provides 12-factor configuration for the PTY helper.
//
// Configuration is loaded from environment variables with defaults that match
// the helper's historical behavior. The command line carries only the
// positional program arguments, so every tunable lives here.
//
// Configuration Sections:
//   - Terminal: control descriptor, I/O buffer size, default TERM
//   - Timing: loop poll interval, drain waits, SIGTERM grace period
//   - Logging: level, encoder, sink (never stdout)
//   - Metrics: optional Prometheus textfile written on exit
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("polling every %s\n", cfg.Timing.PollInterval)
//
// Environment Variables:
//   - PTY_HELPER_CONTROL_FD, PTY_HELPER_BUFFER_SIZE, PTY_HELPER_TERM
//   - PTY_HELPER_POLL_INTERVAL, PTY_HELPER_DRAIN_INITIAL, PTY_HELPER_DRAIN_STEP, PTY_HELPER_KILL_GRACE
//   - PTY_HELPER_LOG_LEVEL, PTY_HELPER_LOG_DEV, PTY_HELPER_LOG_PATH
//   - PTY_HELPER_METRICS_FILE
package config
