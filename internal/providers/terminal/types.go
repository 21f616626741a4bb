package terminal

import (
	"errors"
	"time"
)

// Exit codes reported by the helper when the child's own status is unavailable.
const (
	// ExitSetupFailure is returned when the PTY could not be created and no child exists.
	ExitSetupFailure = 1
	// ExitExecFailure is returned when the target program could not be started.
	ExitExecFailure = 127

	signalExitBase = 128
)

var (
	// ErrSetup wraps failures that happen before any child process exists.
	ErrSetup = errors.New("terminal setup failed")
	// ErrExec wraps failures to locate or execute the target program.
	ErrExec = errors.New("program could not be started")
)

// Winsize is a terminal size in character cells.
type Winsize struct {
	Cols uint16 `json:"cols"`
	Rows uint16 `json:"rows"`
}

// StopReason records why the multiplexer loop ended.
type StopReason int

const (
	StopChildExited StopReason = iota
	StopInputClosed
	StopInputFailed
	StopTerminalClosed
	StopWriteFailed
	StopPollFailed
)

// String returns the string representation of the reason
func (r StopReason) String() string {
	switch r {
	case StopChildExited:
		return "child_exited"
	case StopInputClosed:
		return "input_closed"
	case StopInputFailed:
		return "input_failed"
	case StopTerminalClosed:
		return "terminal_closed"
	case StopWriteFailed:
		return "write_failed"
	case StopPollFailed:
		return "poll_failed"
	default:
		return "unknown"
	}
}

// Timings bounds every wait the session performs.
type Timings struct {
	// PollInterval bounds each readiness wait of the main loop so the
	// exit flag is re-checked even when no channel is ready.
	PollInterval time.Duration
	// DrainInitial is the first wait for leftover terminal output.
	DrainInitial time.Duration
	// DrainStep is used for every subsequent drain wait.
	DrainStep time.Duration
	// KillGrace separates SIGTERM from SIGKILL during shutdown.
	KillGrace time.Duration
}

// DefaultTimings returns the timings used when none are configured.
func DefaultTimings() Timings {
	return Timings{
		PollInterval: 100 * time.Millisecond,
		DrainInitial: 50 * time.Millisecond,
		DrainStep:    10 * time.Millisecond,
		KillGrace:    100 * time.Millisecond,
	}
}

func (t Timings) withDefaults() Timings {
	def := DefaultTimings()
	if t.PollInterval <= 0 {
		t.PollInterval = def.PollInterval
	}
	if t.DrainInitial <= 0 {
		t.DrainInitial = def.DrainInitial
	}
	if t.DrainStep <= 0 {
		t.DrainStep = def.DrainStep
	}
	if t.KillGrace <= 0 {
		t.KillGrace = def.KillGrace
	}
	return t
}

// Recorder receives session counters. Implementations must be cheap; they
// are called from the main loop on every forwarded buffer.
type Recorder interface {
	AddInputBytes(n int)
	AddOutputBytes(n int)
	IncResize()
	IncControlIgnored()
	ObserveStop(reason StopReason)
	SetExitCode(code int)
}

type nopRecorder struct{}

func (nopRecorder) AddInputBytes(int)      {}
func (nopRecorder) AddOutputBytes(int)     {}
func (nopRecorder) IncResize()             {}
func (nopRecorder) IncControlIgnored()     {}
func (nopRecorder) ObserveStop(StopReason) {}
func (nopRecorder) SetExitCode(int)        {}
