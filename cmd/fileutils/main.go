package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fileutils/internal/exitcodes"
	"fileutils/internal/safety"
)

// exitError carries the process exit code for err
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error {
	return &exitError{code: exitcodes.Usage, err: err}
}

func exitCode(err error) int {
	var ee *exitError
	switch {
	case err == nil:
		return exitcodes.Success
	case errors.As(err, &ee):
		return ee.code
	case errors.Is(err, safety.ErrProtectedPath),
		errors.Is(err, safety.ErrOutsideAllowed),
		errors.Is(err, safety.ErrSymlinkEscape):
		return exitcodes.SafetyViolation
	default:
		return exitcodes.RuntimeError
	}
}

// positional wraps an argument validator so its failures exit with the usage code
func positional(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(command *cobra.Command, args []string) error {
		if err := check(command, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "fileutils",
		Short:         "Create, copy, move, delete and clear files and directory trees",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, _ []string) error {
			return command.Help()
		},
	}
	root.CompletionOptions.HiddenDefaultCmd = true
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", os.Getenv("FILEUTILS_CONFIG"), "Path to configuration file")

	root.AddCommand(
		newPathCommand(),
		newMkdirCommand(opts),
		newTouchCommand(opts),
		newRmCommand(opts),
		newClearCommand(opts),
		newCpCommand(opts),
		newMvCommand(opts),
		newSizeCommand(opts),
		newCatCommand(),
		newDaemonCommand(opts),
	)
	return root
}

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
