package terminal

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/creack/pty"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// LaunchOptions describes the program to run inside the PTY.
type LaunchOptions struct {
	Program string
	Dir     string
	Args    []string
	Size    Winsize
	// Env defaults to the helper's environment when nil.
	Env []string
	// Term is exported as TERM when the environment does not set one.
	Term string
}

// Child is a running program attached to the master side of a PTY.
type Child struct {
	Pid    int
	Master *os.File

	masterFd int
	size     Winsize
}

// Size returns the last window size applied to the PTY.
func (c *Child) Size() Winsize {
	return c.size
}

// Launch opens a PTY pair and starts the program with the slave side as its
// controlling terminal. PTY failures wrap ErrSetup; lookup or exec failures
// wrap ErrExec.
func Launch(opts LaunchOptions, logger *zap.Logger) (*Child, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open pty: %v", ErrSetup, err)
	}
	// The slave belongs to the child once it has started.
	defer tty.Close()

	if err := pty.Setsize(ptmx, &pty.Winsize{Cols: opts.Size.Cols, Rows: opts.Size.Rows}); err != nil {
		ptmx.Close()
		return nil, fmt.Errorf("%w: set initial size: %v", ErrSetup, err)
	}

	cmd := exec.Command(opts.Program, opts.Args...)
	cmd.Dir = resolveDir(opts.Dir, logger)
	cmd.Env = buildEnv(opts.Env, opts.Term)
	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
	}

	if err := cmd.Start(); err != nil {
		ptmx.Close()
		return nil, fmt.Errorf("%w: %v", ErrExec, err)
	}

	// Fd switches the descriptor to blocking mode, so take it once and
	// flip it back.
	fd := int(ptmx.Fd())
	if err := unix.SetNonblock(fd, true); err != nil {
		logger.Warn("Failed to make pty master non-blocking", zap.Error(err))
	}

	logger.Debug("Child started",
		zap.Int("pid", cmd.Process.Pid),
		zap.String("program", opts.Program),
		zap.String("tty", tty.Name()),
		zap.Uint16("cols", opts.Size.Cols),
		zap.Uint16("rows", opts.Size.Rows),
	)

	return &Child{
		Pid:      cmd.Process.Pid,
		Master:   ptmx,
		masterFd: fd,
		size:     opts.Size,
	}, nil
}

// resolveDir keeps the working directory change best-effort: a directory that
// cannot be entered is logged and the child inherits the helper's cwd.
func resolveDir(dir string, logger *zap.Logger) string {
	if dir == "" {
		return ""
	}
	info, err := os.Stat(dir)
	if err == nil && !info.IsDir() {
		err = fmt.Errorf("not a directory")
	}
	if err == nil {
		err = unix.Access(dir, unix.X_OK)
	}
	if err != nil {
		logger.Warn("Working directory unavailable, inheriting current directory",
			zap.String("dir", dir),
			zap.Error(err),
		)
		return ""
	}
	return dir
}

func buildEnv(env []string, term string) []string {
	if env == nil {
		env = os.Environ()
	}
	if term == "" {
		return env
	}
	for _, kv := range env {
		if strings.HasPrefix(kv, "TERM=") {
			return env
		}
	}
	out := make([]string, 0, len(env)+1)
	out = append(out, env...)
	return append(out, "TERM="+term)
}

// Resize applies ws to the PTY and notifies the child's process group with
// SIGWINCH in the same step.
func (c *Child) Resize(ws Winsize) error {
	// Not pty.Setsize: it goes through Master.Fd(), which puts the master back in blocking mode.
	err := unix.IoctlSetWinsize(c.masterFd, unix.TIOCSWINSZ, &unix.Winsize{
		Row: ws.Rows,
		Col: ws.Cols,
	})
	if err != nil {
		return fmt.Errorf("set window size: %w", err)
	}
	c.size = ws

	// The child leads its own session, so its pid is also its process group.
	if err := unix.Kill(-c.Pid, unix.SIGWINCH); err != nil {
		if err := unix.Kill(c.Pid, unix.SIGWINCH); err != nil {
			return fmt.Errorf("notify window change: %w", err)
		}
	}
	return nil
}

// Signal delivers sig to the child process.
func (c *Child) Signal(sig unix.Signal) error {
	return unix.Kill(c.Pid, sig)
}
