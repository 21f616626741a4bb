package main

import (
	"fmt"
	"io"
	"os"

	"github.com/GriffinCanCode/AgentOS/ptyhelper/internal/app"
	"github.com/GriffinCanCode/AgentOS/ptyhelper/internal/infrastructure/config"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stderr, func(inv app.Invocation) int {
		return app.NewRunner(config.LoadOrDefault()).Run(inv)
	}))
}

// execute parses args and hands the invocation to run. It returns the
// process exit status.
func execute(args []string, stderr io.Writer, run func(app.Invocation) int) int {
	code := 0
	cmd := newRootCmd(&code, run)
	cmd.SetArgs(args)
	cmd.SetErr(stderr)
	cmd.SetOut(stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderr, app.Usage)
		return 1
	}
	return code
}

func newRootCmd(code *int, run func(app.Invocation) int) *cobra.Command {
	return &cobra.Command{
		Use:   "pty-helper <shell> <cwd> <cols> <rows> [args...]",
		Short: "Run an interactive program on a pseudo-terminal",
		Long: `pty-helper runs one program on a pseudo-terminal and proxies raw bytes:
stdin to the terminal, the terminal to stdout, and resize frames from fd 3.
It exits with the program's exit status.`,
		Args: cobra.MinimumNArgs(4),
		// Everything after <rows> belongs to the program, including flags.
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := app.ParseArgs(args)
			if err != nil {
				return err
			}
			*code = run(inv)
			return nil
		},
	}
}
