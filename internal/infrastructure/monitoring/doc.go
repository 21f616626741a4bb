/*
Package monitoring collects per-session Prometheus metrics.

# Overview

The helper is short-lived and exposes no listener, so metrics are kept in a
private registry and written once, on exit, in the Prometheus text format.
Point a node_exporter textfile collector at the output directory to scrape
them.

# Metrics

- pty_helper_input_bytes_total: bytes forwarded from input to the terminal
- pty_helper_output_bytes_total: bytes forwarded from the terminal to output
- pty_helper_resizes_total: resize frames applied
- pty_helper_control_frames_ignored_total: malformed or unknown control frames
- pty_helper_stops_total{reason}: why the forwarding loop ended
- pty_helper_exit_code: exit status reported by the helper
- pty_helper_session_duration_seconds: time from launch to exit

# Usage

	metrics := monitoring.NewSessionMetrics(sessionID)
	sess := terminal.NewSession(terminal.Options{Metrics: metrics})
	...
	metrics.WriteTextfile("/var/lib/node_exporter/pty-helper.prom")
*/
package monitoring
