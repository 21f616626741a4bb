package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GriffinCanCode/AgentOS/ptyhelper/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/ptyhelper/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/ptyhelper/internal/providers/terminal"
	"github.com/GriffinCanCode/AgentOS/ptyhelper/internal/shared/id"
	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDimension(t *testing.T) {
	tests := []struct {
		in   string
		want uint16
	}{
		{in: "80", want: 80},
		{in: "0", want: 0},
		{in: "  24", want: 24},
		{in: "120abc", want: 120},
		{in: "abc", want: 0},
		{in: "", want: 0},
		{in: "-5", want: 0},
		{in: "65535", want: 65535},
		{in: "65536", want: 0},
		{in: "99999999999999999999", want: 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, parseDimension(tt.in))
		})
	}
}

func TestParseArgs(t *testing.T) {
	inv, err := ParseArgs([]string{"/bin/zsh", "/home/user", "132", "43", "-l", "-i"})
	require.NoError(t, err)

	assert.Equal(t, "/bin/zsh", inv.Program)
	assert.Equal(t, "/home/user", inv.Dir)
	assert.Equal(t, terminal.Winsize{Cols: 132, Rows: 43}, inv.Size)
	assert.Equal(t, []string{"-l", "-i"}, inv.Args)

	inv, err = ParseArgs([]string{"/bin/sh", "", "x", "24"})
	require.NoError(t, err)
	assert.Empty(t, inv.Args)
	assert.Equal(t, terminal.Winsize{Cols: 0, Rows: 24}, inv.Size)

	_, err = ParseArgs([]string{"/bin/sh", "/tmp", "80"})
	assert.ErrorIs(t, err, ErrUsage)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 127, ExitCode(fmt.Errorf("%w: not found", terminal.ErrExec)))
	assert.Equal(t, 1, ExitCode(fmt.Errorf("%w: no pty", terminal.ErrSetup)))
	assert.Equal(t, 1, ExitCode(errors.New("anything else")))
}

func TestLoggerConfig(t *testing.T) {
	tests := []struct {
		name string
		in   config.LogConfig
		want logging.Config
	}{
		{
			name: "production defaults",
			in:   config.LogConfig{Path: "stderr"},
			want: logging.Config{Level: "warn", OutputPaths: []string{"stderr"}},
		},
		{
			name: "development raises verbosity",
			in:   config.LogConfig{Development: true, Path: "stderr"},
			want: logging.Config{Level: "debug", Development: true, OutputPaths: []string{"stderr"}},
		},
		{
			name: "explicit level wins",
			in:   config.LogConfig{Level: "error", Development: true, Path: "/tmp/helper.log"},
			want: logging.Config{Level: "error", Development: true, OutputPaths: []string{"/tmp/helper.log"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, loggerConfig(tt.in))
		})
	}
}

func requirePTY(t *testing.T) {
	t.Helper()
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pseudo-terminals unavailable: %v", err)
	}
	ptmx.Close()
	tty.Close()
}

// pipes returns runner streams backed by pipes plus the read side of the
// output. The input writer is closed only on cleanup.
func pipes(t *testing.T) (Streams, *os.File, *os.File) {
	t.Helper()
	inR, inW, err := os.Pipe()
	require.NoError(t, err)
	outR, outW, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		inR.Close()
		inW.Close()
		outR.Close()
	})
	return Streams{Input: int(inR.Fd()), Output: int(outW.Fd())}, outR, outW
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Terminal.ControlFD = -1
	cfg.Metrics.TextfilePath = filepath.Join(t.TempDir(), "pty-helper.prom")
	return cfg
}

func TestRunnerRunsProgram(t *testing.T) {
	requirePTY(t)
	cfg := testConfig(t)
	streams, outR, outW := pipes(t)

	r := NewRunnerWithStreams(cfg, streams)
	assert.True(t, strings.HasPrefix(r.SessionID().String(), id.SessionPrefix+"_"))

	code := r.Run(Invocation{
		Program: "/bin/sh",
		Args:    []string{"-c", "echo hello; exit 5"},
		Size:    terminal.Winsize{Cols: 80, Rows: 24},
	})
	assert.Equal(t, 5, code)

	require.NoError(t, outW.Close())
	data, err := io.ReadAll(outR)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")

	summary, err := r.Metrics().Summary()
	require.NoError(t, err)
	assert.Equal(t, float64(len(data)), summary.OutputBytes)

	exported, err := os.ReadFile(cfg.Metrics.TextfilePath)
	require.NoError(t, err)
	assert.Contains(t, string(exported), "pty_helper_exit_code")
	assert.Contains(t, string(exported), r.SessionID().String())
}

func TestRunnerExecFailure(t *testing.T) {
	requirePTY(t)
	cfg := testConfig(t)
	streams, outR, outW := pipes(t)

	r := NewRunnerWithStreams(cfg, streams)
	code := r.Run(Invocation{
		Program: "/nonexistent/shell",
		Size:    terminal.Winsize{Cols: 80, Rows: 24},
	})
	assert.Equal(t, terminal.ExitExecFailure, code)

	require.NoError(t, outW.Close())
	data, err := io.ReadAll(outR)
	require.NoError(t, err)
	assert.Contains(t, string(data), "exec:")

	exported, err := os.ReadFile(cfg.Metrics.TextfilePath)
	require.NoError(t, err)
	assert.Contains(t, string(exported), "pty_helper_exit_code")
}
