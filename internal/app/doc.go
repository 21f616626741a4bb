// Package app wires configuration, logging, metrics and the terminal session
// into one helper invocation.
//
// Key Components:
//   - Invocation: the positional arguments (program, cwd, cols, rows, args)
//   - Runner: builds the session from config and returns the exit status
//   - ExitCode: maps launch errors to the helper's exit status convention
//
// Example Usage:
//
//	inv, err := app.ParseArgs(os.Args[1:])
//	if err != nil {
//	    os.Exit(1)
//	}
//	os.Exit(app.NewRunner(config.LoadOrDefault()).Run(inv))
package app
