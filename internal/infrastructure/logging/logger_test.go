package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsStdout(t *testing.T) {
	cfg := DefaultConfig()
	for _, path := range []string{"stdout", "/dev/stdout"} {
		cfg.OutputPaths = []string{path}
		_, err := New(cfg)
		assert.Error(t, err, path)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "loud"

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestSessionLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "helper.log")

	logger, err := New(Config{Level: "debug", OutputPaths: []string{path}})
	require.NoError(t, err)

	logger.Session("sess_test").Info("Child started")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"session":"sess_test"`)
	assert.Contains(t, string(data), `"message":"Child started"`)
}

func TestDefaultsUseStderr(t *testing.T) {
	assert.Equal(t, []string{"stderr"}, DefaultConfig().OutputPaths)
	assert.Equal(t, []string{"stderr"}, DevelopmentConfig().OutputPaths)
	assert.NotNil(t, NewDefault())
}

func TestDevelopmentConsoleOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.log")
	cfg := DevelopmentConfig()
	cfg.OutputPaths = []string{path}

	logger, err := New(cfg)
	require.NoError(t, err)

	logger.Debug("Resized terminal")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Resized terminal")
	assert.Contains(t, string(data), "DEBUG")
	assert.NotContains(t, string(data), `"message"`)
}

func TestProductionDropsDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prod.log")
	cfg := DefaultConfig()
	cfg.OutputPaths = []string{path}

	logger, err := New(cfg)
	require.NoError(t, err)

	logger.Debug("Resized terminal")
	logger.Warn("Resize failed")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Resized terminal")
	assert.Contains(t, string(data), `"message":"Resize failed"`)
}
