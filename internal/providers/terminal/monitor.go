package terminal

import (
	"errors"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"
)

// ExitState holds the child's exit status. The zero value means running.
// Record succeeds once; every later call is a no-op, so concurrent
// notifications cannot overwrite the first recorded status.
type ExitState struct {
	// 0 while running, otherwise exit code + 1
	v atomic.Int64
}

// Record stores code if no status has been recorded yet and reports
// whether this call performed the transition.
func (s *ExitState) Record(code int) bool {
	return s.v.CompareAndSwap(0, int64(code)+1)
}

// Exited reports whether a status has been recorded.
func (s *ExitState) Exited() bool {
	return s.v.Load() != 0
}

// Code returns the recorded exit status, or -1 while the child is running.
func (s *ExitState) Code() int {
	return int(s.v.Load() - 1)
}

// translateStatus maps a wait status to the helper's exit code convention.
// ok is false for states that are not terminal (stopped, continued).
func translateStatus(ws unix.WaitStatus) (code int, ok bool) {
	switch {
	case ws.Exited():
		return ws.ExitStatus(), true
	case ws.Signaled():
		return signalExitBase + int(ws.Signal()), true
	default:
		return 0, false
	}
}

// Monitor reaps one child process on SIGCHLD and records its exit status.
// It never waits on any other PID.
type Monitor struct {
	state *ExitState
	pid   atomic.Int64
	sigs  chan os.Signal
	done  chan struct{}
	wg    sync.WaitGroup

	stopOnce sync.Once
}

// NewMonitor subscribes to SIGCHLD. It must be created before the child is
// started so an early exit is not missed.
func NewMonitor(state *ExitState) *Monitor {
	m := &Monitor{
		state: state,
		sigs:  make(chan os.Signal, 1),
		done:  make(chan struct{}),
	}
	signal.Notify(m.sigs, syscall.SIGCHLD)
	return m
}

// Watch starts observing pid.
func (m *Monitor) Watch(pid int) {
	m.pid.Store(int64(pid))
	m.wg.Add(1)
	go m.loop()
}

func (m *Monitor) loop() {
	defer m.wg.Done()

	// The child may have exited before Watch was called.
	m.Check()
	for {
		select {
		case <-m.done:
			return
		case <-m.sigs:
			m.Check()
		}
	}
}

// Check performs a non-blocking status check on the child and records the
// exit status if it has terminated. It reports whether the child is known to
// have exited. It only calls wait4 and touches atomics.
func (m *Monitor) Check() bool {
	if m.state.Exited() {
		return true
	}
	pid := int(m.pid.Load())
	if pid <= 0 {
		return false
	}

	var ws unix.WaitStatus
	for {
		wpid, err := unix.Wait4(pid, &ws, unix.WNOHANG, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil || wpid != pid {
			return m.state.Exited()
		}
		break
	}
	if code, ok := translateStatus(ws); ok {
		m.state.Record(code)
	}
	return m.state.Exited()
}

// Stop unsubscribes from SIGCHLD and waits for the notification goroutine
// to exit. After Stop returns the caller is the only reaper of the child.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		signal.Stop(m.sigs)
		close(m.done)
	})
	m.wg.Wait()
}

// Reap blocks until the child is reaped and records its status. It must only
// be called after Stop. If the child was already reaped elsewhere, fallback
// is recorded instead.
func (m *Monitor) Reap(fallback int) int {
	if m.state.Exited() {
		return m.state.Code()
	}

	pid := int(m.pid.Load())
	var ws unix.WaitStatus
	for {
		_, err := unix.Wait4(pid, &ws, 0, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			m.state.Record(fallback)
			return m.state.Code()
		}
		if code, ok := translateStatus(ws); ok {
			m.state.Record(code)
			return m.state.Code()
		}
	}
}
