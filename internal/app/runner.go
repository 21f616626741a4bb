package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/AgentOS/ptyhelper/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/ptyhelper/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/ptyhelper/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/ptyhelper/internal/providers/terminal"
	"github.com/GriffinCanCode/AgentOS/ptyhelper/internal/shared/id"
	"go.uber.org/zap"
)

// Usage is printed when the positional arguments are incomplete.
const Usage = "Usage: pty-helper <shell> <cwd> <cols> <rows> [args...]"

// ErrUsage is returned by ParseArgs for fewer than four arguments.
var ErrUsage = errors.New("missing arguments")

// Invocation is one parsed command line.
type Invocation struct {
	Program string
	Dir     string
	Size    terminal.Winsize
	Args    []string
}

// ParseArgs reads program, cwd, cols and rows followed by the program's own
// arguments, which are passed through untouched.
func ParseArgs(args []string) (Invocation, error) {
	if len(args) < 4 {
		return Invocation{}, fmt.Errorf("%w: got %d, want at least 4", ErrUsage, len(args))
	}
	return Invocation{
		Program: args[0],
		Dir:     args[1],
		Size: terminal.Winsize{
			Cols: parseDimension(args[2]),
			Rows: parseDimension(args[3]),
		},
		Args: append([]string(nil), args[4:]...),
	}, nil
}

// parseDimension reads a leading decimal number the way atoi does: leading
// blanks are skipped and parsing stops at the first non-digit. Anything that
// does not fit a window dimension is 0.
func parseDimension(s string) uint16 {
	s = strings.TrimLeft(s, " \t\n")
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.ParseUint(s[:end], 10, 16)
	if err != nil {
		return 0
	}
	return uint16(n)
}

// ExitCode maps a launch error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, terminal.ErrExec):
		return terminal.ExitExecFailure
	default:
		return terminal.ExitSetupFailure
	}
}

// Streams are the descriptors bridged to the child.
type Streams struct {
	Input  int
	Output int
}

// Runner executes one invocation.
type Runner struct {
	cfg       *config.Config
	streams   Streams
	sessionID id.SessionID
	logger    *zap.Logger
	metrics   *monitoring.SessionMetrics
	base      *logging.Logger
}

// NewRunner builds a runner on the process's stdin and stdout.
func NewRunner(cfg *config.Config) *Runner {
	return NewRunnerWithStreams(cfg, Streams{Input: 0, Output: 1})
}

// NewRunnerWithStreams builds a runner on arbitrary descriptors.
func NewRunnerWithStreams(cfg *config.Config, streams Streams) *Runner {
	if cfg == nil {
		cfg = config.Default()
	}

	base, err := logging.New(loggerConfig(cfg.Logging))
	if err != nil {
		base = logging.NewDefault()
	}

	sessionID := id.NewSessionID()
	return &Runner{
		cfg:       cfg,
		streams:   streams,
		sessionID: sessionID,
		logger:    base.Session(sessionID.String()),
		metrics:   monitoring.NewSessionMetrics(sessionID.String()),
		base:      base,
	}
}

// loggerConfig starts from the production or development preset and applies
// the configured level and sink on top.
func loggerConfig(c config.LogConfig) logging.Config {
	lc := logging.DefaultConfig()
	if c.Development {
		lc = logging.DevelopmentConfig()
	}
	if c.Level != "" {
		lc.Level = c.Level
	}
	if c.Path != "" {
		lc.OutputPaths = []string{c.Path}
	}
	return lc
}

// SessionID returns the ID used in logs and metrics.
func (r *Runner) SessionID() id.SessionID {
	return r.sessionID
}

// Metrics returns the session metrics.
func (r *Runner) Metrics() *monitoring.SessionMetrics {
	return r.metrics
}

// Run hosts the program and returns the helper's exit status.
func (r *Runner) Run(inv Invocation) int {
	defer r.base.Sync()

	sess := terminal.NewSession(terminal.Options{
		Launch: terminal.LaunchOptions{
			Program: inv.Program,
			Dir:     inv.Dir,
			Args:    inv.Args,
			Size:    inv.Size,
			Term:    r.cfg.Terminal.Term,
		},
		Input:   r.streams.Input,
		Output:  r.streams.Output,
		Control: r.cfg.Terminal.ControlFD,
		Timings: terminal.Timings{
			PollInterval: r.cfg.Timing.PollInterval,
			DrainInitial: r.cfg.Timing.DrainInitial,
			DrainStep:    r.cfg.Timing.DrainStep,
			KillGrace:    r.cfg.Timing.KillGrace,
		},
		BufferSize: r.cfg.Terminal.BufferSize,
		Logger:     r.logger,
		Metrics:    r.metrics,
	})

	if err := sess.Start(); err != nil {
		code := ExitCode(err)
		r.logger.Error("Failed to start program",
			zap.String("program", inv.Program),
			zap.Int("exit_code", code),
			zap.Error(err),
		)
		r.metrics.SetExitCode(code)
		r.export()
		return code
	}

	code, err := sess.Run()
	if err != nil {
		r.logger.Warn("Session cleanup failed", zap.Error(err))
	}

	if summary, err := r.metrics.Summary(); err == nil {
		r.logger.Info("Session finished",
			zap.Int("exit_code", code),
			zap.Stringer("stop_reason", sess.StopReason()),
			zap.Float64("input_bytes", summary.InputBytes),
			zap.Float64("output_bytes", summary.OutputBytes),
			zap.Float64("resizes", summary.Resizes),
		)
	}
	r.export()
	return code
}

func (r *Runner) export() {
	path := r.cfg.Metrics.TextfilePath
	if path == "" {
		return
	}
	if err := r.metrics.WriteTextfile(path); err != nil {
		r.logger.Warn("Failed to export metrics", zap.String("path", path), zap.Error(err))
	}
}
