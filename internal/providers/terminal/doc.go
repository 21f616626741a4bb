// Package terminal hosts a single interactive program on a pseudo-terminal
// and bridges it to three descriptors owned by the invoking process.
//
// Channels:
//   - input (fd 0): bytes forwarded to the PTY master
//   - output (fd 1): bytes read from the PTY master
//   - control (fd 3, optional): 5-byte resize frames
//
// Control frame:
//
//	[0x01][cols uint16 LE][rows uint16 LE]
//
// Architecture:
//   - Launch opens the PTY pair and starts the program as a session leader
//     with the slave as its controlling terminal
//   - Monitor reaps the child on SIGCHLD and records its exit status once
//   - Multiplexer polls the channels with a bounded timeout on a single
//     goroutine and forwards bytes, retrying short and would-block writes
//   - Drain flushes output still buffered after the loop stops, then
//     Shutdown escalates SIGTERM to SIGKILL if the child is still alive
//
// Exit status:
//   - the child's own exit code when it exits normally
//   - 128 + signal number when it is killed by a signal
//   - 127 when the program cannot be started
//   - 1 when the PTY cannot be created
//
// Example Usage:
//
//	sess := terminal.NewSession(terminal.Options{
//		Launch:  terminal.LaunchOptions{Program: "/bin/bash", Size: terminal.Winsize{Cols: 80, Rows: 24}},
//		Input:   0,
//		Output:  1,
//		Control: 3,
//	})
//	if err := sess.Start(); err != nil {
//		return err
//	}
//	code, _ := sess.Run()
package terminal
