package terminal

import (
	"os/exec"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestExitStateRecordsOnce(t *testing.T) {
	var s ExitState

	assert.False(t, s.Exited())
	assert.Equal(t, -1, s.Code())

	assert.True(t, s.Record(0))
	assert.False(t, s.Record(137))

	assert.True(t, s.Exited())
	assert.Equal(t, 0, s.Code())
}

func TestExitStateConcurrentRecord(t *testing.T) {
	var (
		s    ExitState
		wins atomic.Int32
		wg   sync.WaitGroup
	)

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(code int) {
			defer wg.Done()
			if s.Record(code) {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.True(t, s.Exited())
}

func TestTranslateStatus(t *testing.T) {
	tests := []struct {
		name   string
		status unix.WaitStatus
		want   int
		ok     bool
	}{
		{name: "exit 0", status: 0, want: 0, ok: true},
		{name: "exit 3", status: 3 << 8, want: 3, ok: true},
		{name: "killed", status: unix.WaitStatus(unix.SIGKILL), want: 137, ok: true},
		{name: "terminated", status: unix.WaitStatus(unix.SIGTERM), want: 143, ok: true},
		{name: "stopped", status: unix.WaitStatus(unix.SIGSTOP)<<8 | 0x7f, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := translateStatus(tt.status)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, code)
			}
		})
	}
}

// startWatched starts a shell command under a fresh Monitor. The command is
// never waited on through exec.Cmd; the monitor is its only reaper.
func startWatched(t *testing.T, script string) (*Monitor, *ExitState, *exec.Cmd) {
	t.Helper()

	state := &ExitState{}
	m := NewMonitor(state)
	t.Cleanup(m.Stop)

	cmd := exec.Command("/bin/sh", "-c", script)
	require.NoError(t, cmd.Start())
	m.Watch(cmd.Process.Pid)
	return m, state, cmd
}

func TestMonitorRecordsExitCode(t *testing.T) {
	_, state, _ := startWatched(t, "exit 3")

	require.Eventually(t, state.Exited, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 3, state.Code())
}

func TestMonitorTranslatesSignal(t *testing.T) {
	_, state, _ := startWatched(t, "kill -9 $$")

	require.Eventually(t, state.Exited, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 137, state.Code())
}

func TestMonitorIgnoresOtherChildren(t *testing.T) {
	_, state, cmd := startWatched(t, "sleep 5")
	t.Cleanup(func() { _ = cmd.Process.Kill() })

	other := exec.Command("/bin/sh", "-c", "exit 9")
	require.NoError(t, other.Start())
	// Only other.Wait may reap the unrelated child.
	require.NoError(t, func() error {
		err := other.Wait()
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 9 {
			return nil
		}
		return err
	}())

	assert.False(t, state.Exited())
}

func TestMonitorReapAfterStop(t *testing.T) {
	m, state, cmd := startWatched(t, "sleep 5")

	m.Stop()
	require.NoError(t, cmd.Process.Signal(unix.SIGKILL))

	assert.Equal(t, 137, m.Reap(1))
	assert.Equal(t, 137, state.Code())
	// A second recording never overwrites the first.
	assert.False(t, state.Record(0))
	assert.Equal(t, 137, m.Reap(1))
}
