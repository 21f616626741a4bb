// Package logging provides structured logging using uber/zap.
//
// The helper's stdout carries raw terminal bytes, so every logger built here
// writes to stderr or a file. Two encoders are available:
//   - Production: JSON output for the hosting server to collect
//   - Development: Colored console output for humans
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Warn("Resize failed", zap.Error(err))
package logging
