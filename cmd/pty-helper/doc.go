// Package main is the entry point for pty-helper.
//
// pty-helper runs one interactive program on a pseudo-terminal for a
// terminal-hosting server that cannot allocate PTYs itself. The server
// spawns the helper, writes keystrokes to its stdin, reads terminal output
// from its stdout and sends resize frames on fd 3.
//
// Usage:
//
//	pty-helper <shell> <cwd> <cols> <rows> [args...]
//
//	# Login shell in the user's home, 120x40
//	pty-helper /bin/bash "$HOME" 120 40 -l
//
// Control protocol (fd 3):
//
//	[0x01][cols uint16 LE][rows uint16 LE]   resize
//
// Exit status:
//   - the program's exit code, or 128+signal when it was killed
//   - 127 when the program could not be started
//   - 1 on usage errors or PTY allocation failure
//
// Configuration:
//   - Environment variables (PTY_HELPER_*), see internal/infrastructure/config
package main
