package terminal

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Options configures a Session.
type Options struct {
	Launch LaunchOptions

	// Input, Output and Control are descriptor numbers. Control < 0, or a
	// descriptor that is not open, disables resize support.
	Input   int
	Output  int
	Control int

	Timings    Timings
	BufferSize int

	Logger  *zap.Logger
	Metrics Recorder
}

// Session is the single child, its PTY and the channels bridged to it.
type Session struct {
	opts    Options
	logger  *zap.Logger
	metrics Recorder

	state   ExitState
	monitor *Monitor
	child   *Child
	mux     *Multiplexer

	inputFlags int
	startedAt  time.Time
	stopReason StopReason
}

// NewSession validates the channel descriptors and returns an unstarted
// session.
func NewSession(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = nopRecorder{}
	}
	opts.Timings = opts.Timings.withDefaults()
	if opts.Control >= 0 && !descriptorOpen(opts.Control) {
		opts.Logger.Debug("Control channel not present", zap.Int("fd", opts.Control))
		opts.Control = -1
	}

	return &Session{
		opts:       opts,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		inputFlags: -1,
	}
}

// Start launches the child. On error no child is running.
func (s *Session) Start() error {
	// Subscribe before the fork so a fast exit is not lost.
	s.monitor = NewMonitor(&s.state)
	// The control channel is ours; the child must not inherit it.
	if s.opts.Control >= 0 {
		unix.CloseOnExec(s.opts.Control)
	}

	child, err := Launch(s.opts.Launch, s.logger)
	if err != nil {
		s.monitor.Stop()
		if errors.Is(err, ErrExec) {
			// Surface the failure where a terminal user will see it.
			msg := fmt.Sprintf("exec: %v\r\n", err)
			_ = writeAll(s.opts.Output, []byte(msg), s.opts.Timings)
		}
		return err
	}
	s.child = child
	s.startedAt = time.Now()
	s.monitor.Watch(child.Pid)

	if flags, err := unix.FcntlInt(uintptr(s.opts.Input), unix.F_GETFL, 0); err == nil {
		s.inputFlags = flags
	}
	if err := setNonblock(s.opts.Input, s.opts.Control); err != nil {
		s.logger.Warn("Failed to make channels non-blocking", zap.Error(err))
	}

	s.mux = NewMultiplexer(child, &s.state, s.opts.Input, s.opts.Output, s.opts.Control,
		s.opts.Timings, s.opts.BufferSize, s.logger, s.metrics)
	return nil
}

// Run bridges the channels until the loop stops, drains remaining output,
// closes the PTY, stops the child if needed and returns its exit status.
func (s *Session) Run() (int, error) {
	if s.child == nil {
		return ExitSetupFailure, fmt.Errorf("%w: session not started", ErrSetup)
	}

	s.stopReason = s.mux.Run()
	s.metrics.ObserveStop(s.stopReason)
	s.logger.Debug("Loop stopped", zap.Stringer("reason", s.stopReason))

	drained := Drain(s.child.masterFd, s.opts.Output, s.mux.buf, s.opts.Timings, s.metrics)
	if drained > 0 {
		s.logger.Debug("Drained terminal output", zap.Int("bytes", drained))
	}

	closeErr := s.close()
	code := Shutdown(s.child, s.monitor, &s.state, s.opts.Timings, s.logger)
	s.metrics.SetExitCode(code)

	s.logger.Debug("Session finished",
		zap.Int("exit_code", code),
		zap.Duration("duration", time.Since(s.startedAt)),
	)
	return code, closeErr
}

// StopReason returns why the loop ended. Valid after Run.
func (s *Session) StopReason() StopReason {
	return s.stopReason
}

// Child returns the launched child, or nil before Start.
func (s *Session) Child() *Child {
	return s.child
}

// ExitState exposes the child's exit state.
func (s *Session) ExitState() *ExitState {
	return &s.state
}

func (s *Session) close() error {
	var err error
	if cerr := s.child.Master.Close(); cerr != nil {
		err = multierr.Append(err, fmt.Errorf("close pty master: %w", cerr))
	}
	if s.inputFlags >= 0 {
		if _, ferr := unix.FcntlInt(uintptr(s.opts.Input), unix.F_SETFL, s.inputFlags); ferr != nil {
			err = multierr.Append(err, fmt.Errorf("restore input flags: %w", ferr))
		}
	}
	return err
}

func descriptorOpen(fd int) bool {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	return err == nil
}

func setNonblock(fds ...int) error {
	var err error
	for _, fd := range fds {
		if fd < 0 {
			continue
		}
		err = multierr.Append(err, unix.SetNonblock(fd, true))
	}
	return err
}
