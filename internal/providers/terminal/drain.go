package terminal

import (
	"errors"
	"time"

	"github.com/GriffinCanCode/AgentOS/ptyhelper/internal/infrastructure/resilience"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Drain forwards output still buffered in the PTY after the loop stopped.
// Each wait for readiness gets DrainInitial the first time and DrainStep
// afterwards; draining ends on a timeout with nothing ready, end-of-stream,
// or an error. It returns the number of bytes forwarded.
func Drain(masterFd, output int, buf []byte, timings Timings, metrics Recorder) int {
	timings = timings.withDefaults()
	if metrics == nil {
		metrics = nopRecorder{}
	}

	total := 0
	pfd := []unix.PollFd{{Fd: int32(masterFd), Events: unix.POLLIN}}
	backoff := resilience.Backoff{Initial: timings.DrainInitial, Step: timings.DrainStep}

	backoff.Do(func(wait time.Duration) bool {
		if !pollReadable(pfd, wait) {
			return false
		}
		n, err := readRetry(masterFd, buf)
		if err != nil || n <= 0 {
			return false
		}
		if err := writeAll(output, buf[:n], timings); err != nil {
			return false
		}
		metrics.AddOutputBytes(n)
		total += n
		return true
	})
	return total
}

// pollReadable waits up to wait for pfd to report any event. EINTR restarts
// the wait with the full budget, which is acceptable for these short waits.
func pollReadable(pfd []unix.PollFd, wait time.Duration) bool {
	for {
		n, err := unix.Poll(pfd, int(wait.Milliseconds()))
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return err == nil && n > 0
	}
}

func readRetry(fd int, buf []byte) (int, error) {
	for {
		n, err := unix.Read(fd, buf)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return n, err
	}
}

// Shutdown makes sure the child is gone and returns its exit status. If the
// monitor has not recorded an exit, the child gets SIGTERM, then SIGKILL
// after the grace period, and is reaped synchronously.
func Shutdown(child *Child, monitor *Monitor, state *ExitState, timings Timings, logger *zap.Logger) int {
	timings = timings.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	monitor.Stop()
	// The loop may have stopped on a terminal read error before SIGCHLD
	// was processed.
	if monitor.Check() {
		return state.Code()
	}

	stage, err := resilience.Escalate(monitor.Check, timings.KillGrace/20,
		resilience.Stage{
			Name:   "terminate",
			Action: func() error { return child.Signal(unix.SIGTERM) },
			Grace:  timings.KillGrace,
		},
		resilience.Stage{
			Name:   "kill",
			Action: func() error { return child.Signal(unix.SIGKILL) },
		},
	)
	if err != nil {
		logger.Debug("Signal delivery failed", zap.Error(err))
	}

	code := monitor.Reap(signalExitBase + int(unix.SIGKILL))
	logger.Debug("Child stopped",
		zap.Int("pid", child.Pid),
		zap.String("stage", stage),
		zap.Int("exit_code", code),
	)
	return code
}
