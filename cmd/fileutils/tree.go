package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fileutils/internal/treeops"
)

func newMkdirCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a directory and any missing parents",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(command *cobra.Command, args []string) error {
			return withEnvironment(opts, func(env *environment) error {
				dir, err := env.engine.CreateDirectory(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(command.OutOrStdout(), dir)
				return nil
			})
		},
	}
}

func newTouchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "touch <path>",
		Short: "Create an empty file unless it already exists",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(command *cobra.Command, args []string) error {
			return withEnvironment(opts, func(env *environment) error {
				file, err := env.engine.CreateFile(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(command.OutOrStdout(), file)
				return nil
			})
		},
	}
}

func newRmCommand(opts *rootOptions) *cobra.Command {
	var bestEffort bool

	command := &cobra.Command{
		Use:   "rm <path>...",
		Short: "Remove files and directory trees",
		Long: `Remove files and directory trees. Missing paths are not an error.

By default removal stops at the first entry that cannot be removed. With
--best-effort every removable entry is removed and only a failure to remove
the path itself is reported.`,
		Args: positional(cobra.MinimumNArgs(1)),
		RunE: func(_ *cobra.Command, args []string) error {
			return withEnvironment(opts, func(env *environment) error {
				var errs []error
				for _, path := range args {
					var err error
					if bestEffort {
						err = env.engine.Purge(path)
					} else {
						err = env.engine.Delete(path)
					}
					if err != nil {
						errs = append(errs, err)
					}
				}
				return errors.Join(errs...)
			})
		},
	}
	command.Flags().BoolVar(&bestEffort, "best-effort", false, "Keep going past entries that cannot be removed")
	return command
}

func newClearCommand(opts *rootOptions) *cobra.Command {
	var (
		maxAge  time.Duration
		all     bool
		exclude []string
	)

	command := &cobra.Command{
		Use:   "clear <dir>",
		Short: "Remove old entries, or all entries, below a directory",
		Long: `Remove entries below a directory that were last modified more than
--max-age ago, or every entry with --all. The directory itself is kept.
Directories that still hold entries are left in place.`,
		Args: positional(cobra.ExactArgs(1)),
		RunE: func(command *cobra.Command, args []string) error {
			if all == (maxAge > 0) {
				return usageError(errors.New("exactly one of --max-age or --all is required"))
			}
			return withEnvironment(opts, func(env *environment) error {
				clearOpts := []treeops.ClearOption{treeops.WithExclude(exclude...)}
				var (
					n   int
					err error
				)
				if all {
					n, err = env.engine.ClearAll(args[0], clearOpts...)
				} else {
					n, err = env.engine.ClearExpired(args[0], maxAge, clearOpts...)
				}
				fmt.Fprintf(command.OutOrStdout(), "removed %d entries\n", n)
				return err
			})
		},
	}

	flags := command.Flags()
	flags.DurationVar(&maxAge, "max-age", 0, "Remove entries older than this (e.g. 72h)")
	flags.BoolVar(&all, "all", false, "Remove every entry regardless of age")
	flags.StringSliceVar(&exclude, "exclude", nil, "Glob patterns, relative to the directory, to keep (repeatable)")
	return command
}
