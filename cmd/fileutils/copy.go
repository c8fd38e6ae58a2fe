package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newCpCommand(opts *rootOptions) *cobra.Command {
	var appendMode, progress bool

	command := &cobra.Command{
		Use:   "cp <src> <dst>",
		Short: "Copy a file, creating the destination's parent directories",
		Args:  positional(cobra.ExactArgs(2)),
		RunE: func(command *cobra.Command, args []string) error {
			return withEnvironment(opts, func(env *environment) error {
				src, dst := args[0], args[1]
				if !progress {
					if appendMode {
						return env.engine.AppendFile(src, dst)
					}
					return env.engine.CopyFile(src, dst)
				}

				f, err := os.Open(src)
				if err != nil {
					return err
				}
				info, err := f.Stat()
				if err != nil {
					f.Close()
					return err
				}
				// CopyWithProgress closes f
				return env.engine.CopyWithProgress(f, dst, info.Size(), progressPrinter(command.ErrOrStderr(), info.Size()), appendMode)
			})
		},
	}

	flags := command.Flags()
	flags.BoolVar(&appendMode, "append", false, "Append to the destination instead of replacing it")
	flags.BoolVar(&progress, "progress", false, "Report progress on stderr")
	return command
}

func progressPrinter(w io.Writer, total int64) func(chunk, remaining int64) {
	return func(_, remaining int64) {
		done := total - remaining
		pct := 100.0
		if total > 0 {
			pct = float64(done) * 100 / float64(total)
		}
		fmt.Fprintf(w, "\r%s / %s (%.0f%%)", humanize.IBytes(uint64(done)), humanize.IBytes(uint64(total)), pct)
		if remaining == 0 {
			fmt.Fprintln(w)
		}
	}
}

func newMvCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <src> <dst>",
		Short: "Move a file, copying across devices when a rename is not possible",
		Args:  positional(cobra.ExactArgs(2)),
		RunE: func(_ *cobra.Command, args []string) error {
			return withEnvironment(opts, func(env *environment) error {
				return env.engine.Move(args[0], args[1])
			})
		},
	}
}
