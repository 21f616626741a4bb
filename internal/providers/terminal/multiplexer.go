package terminal

import (
	"errors"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// watch is the set of channels the loop waits on.
type watch uint8

const (
	watchInput watch = 1 << iota
	watchTerminal
	watchControl
)

// controlBufSize leaves room for several queued frames per read.
const controlBufSize = 64

const (
	readableEvents = unix.POLLIN | unix.POLLHUP | unix.POLLERR
	pollBroken     = unix.POLLNVAL
)

// Multiplexer moves bytes between the input channel, the PTY master and the
// output channel, and feeds the control channel into the resize decoder.
// It runs on a single goroutine and owns the master descriptor.
type Multiplexer struct {
	child   *Child
	state   *ExitState
	input   int
	output  int
	control int

	timings Timings
	buf     []byte
	ctlBuf  []byte
	active  watch

	logger  *zap.Logger
	metrics Recorder
}

// NewMultiplexer prepares a loop for child. control < 0 disables resize
// support.
func NewMultiplexer(child *Child, state *ExitState, input, output, control int, timings Timings, bufSize int, logger *zap.Logger, metrics Recorder) *Multiplexer {
	if bufSize <= 0 {
		bufSize = 16384
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}

	m := &Multiplexer{
		child:   child,
		state:   state,
		input:   input,
		output:  output,
		control: control,
		timings: timings.withDefaults(),
		buf:     make([]byte, bufSize),
		ctlBuf:  make([]byte, controlBufSize),
		active:  watchInput | watchTerminal,
		logger:  logger,
		metrics: metrics,
	}
	if control >= 0 {
		m.active |= watchControl
	}
	return m
}

// ControlOpen reports whether the control channel is still being polled.
func (m *Multiplexer) ControlOpen() bool {
	return m.active&watchControl != 0
}

// Run loops until the child exits, the input reaches end-of-stream, or a
// channel fails. The exit flag is only observed between iterations.
func (m *Multiplexer) Run() StopReason {
	timeout := int(m.timings.PollInterval.Milliseconds())
	fds := make([]unix.PollFd, 0, 3)
	kinds := make([]watch, 0, 3)

	for {
		if m.state.Exited() {
			return StopChildExited
		}

		fds, kinds = m.pollSet(fds[:0], kinds[:0])
		n, err := unix.Poll(fds, timeout)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			m.logger.Warn("Poll failed", zap.Error(err))
			return StopPollFailed
		}
		if n == 0 {
			continue
		}

		for i, pfd := range fds {
			if pfd.Revents == 0 {
				continue
			}
			var (
				reason StopReason
				stop   bool
			)
			switch kinds[i] {
			case watchInput:
				reason, stop = m.forwardInput(pfd.Revents)
			case watchTerminal:
				reason, stop = m.forwardOutput(pfd.Revents)
			case watchControl:
				m.readControl(pfd.Revents)
			}
			if stop {
				return reason
			}
		}
	}
}

func (m *Multiplexer) pollSet(fds []unix.PollFd, kinds []watch) ([]unix.PollFd, []watch) {
	add := func(w watch, fd int) {
		if m.active&w == 0 {
			return
		}
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
		kinds = append(kinds, w)
	}
	add(watchInput, m.input)
	add(watchTerminal, m.child.masterFd)
	add(watchControl, m.control)
	return fds, kinds
}

func (m *Multiplexer) forwardInput(revents int16) (StopReason, bool) {
	if revents&pollBroken != 0 {
		return StopInputFailed, true
	}
	if revents&readableEvents == 0 {
		return 0, false
	}

	n, err := unix.Read(m.input, m.buf)
	switch {
	case err != nil:
		if retryable(err) {
			return 0, false
		}
		m.logger.Debug("Input read failed", zap.Error(err))
		return StopInputFailed, true
	case n == 0:
		return StopInputClosed, true
	}

	if err := writeAll(m.child.masterFd, m.buf[:n], m.timings); err != nil {
		m.logger.Debug("Write to terminal failed", zap.Error(err))
		return StopWriteFailed, true
	}
	m.metrics.AddInputBytes(n)
	return 0, false
}

func (m *Multiplexer) forwardOutput(revents int16) (StopReason, bool) {
	if revents&pollBroken != 0 {
		return StopTerminalClosed, true
	}

	n, err := unix.Read(m.child.masterFd, m.buf)
	if err != nil {
		if retryable(err) {
			return 0, false
		}
		// EIO once the slave side has no more openers.
		m.logger.Debug("Terminal read ended", zap.Error(err))
		return StopTerminalClosed, true
	}
	if n == 0 {
		return StopTerminalClosed, true
	}

	if err := writeAll(m.output, m.buf[:n], m.timings); err != nil {
		m.logger.Debug("Write to output failed", zap.Error(err))
		return StopWriteFailed, true
	}
	m.metrics.AddOutputBytes(n)
	return 0, false
}

func (m *Multiplexer) readControl(revents int16) {
	if revents&pollBroken != 0 {
		m.closeControl(unix.EBADF)
		return
	}

	n, err := unix.Read(m.control, m.ctlBuf)
	if err != nil {
		if !retryable(err) {
			m.closeControl(err)
		}
		return
	}
	if n == 0 {
		m.closeControl(io.EOF)
		return
	}

	frames, ignored := DecodeControl(m.ctlBuf[:n])
	for i := 0; i < ignored; i++ {
		m.metrics.IncControlIgnored()
	}
	for _, f := range frames {
		if err := m.child.Resize(f.Size); err != nil {
			m.logger.Warn("Resize failed", zap.Error(err))
			continue
		}
		m.metrics.IncResize()
		m.logger.Debug("Resized terminal",
			zap.Uint16("cols", f.Size.Cols),
			zap.Uint16("rows", f.Size.Rows),
		)
	}
}

// closeControl stops polling the control channel. Losing it only disables
// resizing.
func (m *Multiplexer) closeControl(cause error) {
	m.active &^= watchControl
	m.logger.Debug("Control channel closed", zap.Error(cause))
}

func retryable(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR)
}

// writeAll writes p to fd, retrying short writes, EINTR and EAGAIN until
// everything is written or a hard error occurs. EAGAIN waits for POLLOUT
// instead of spinning.
func writeAll(fd int, p []byte, timings Timings) error {
	timeout := int(timings.PollInterval.Milliseconds())
	for len(p) > 0 {
		n, err := unix.Write(fd, p)
		if n > 0 {
			p = p[n:]
		}
		switch {
		case err == nil:
			if n == 0 {
				return io.ErrShortWrite
			}
		case errors.Is(err, unix.EINTR):
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EWOULDBLOCK):
			waitWritable(fd, timeout)
		default:
			return err
		}
	}
	return nil
}

func waitWritable(fd, timeout int) {
	pfd := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}
	for {
		_, err := unix.Poll(pfd, timeout)
		if !errors.Is(err, unix.EINTR) {
			return
		}
	}
}
