package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"fileutils/internal/pathparse"
	"fileutils/internal/textio"
	"fileutils/internal/treeops"
)

func newPathCommand() *cobra.Command {
	var detect bool

	command := &cobra.Command{
		Use:   "path <path>...",
		Short: "Print the parent, name, stem and extension of paths",
		Args:  positional(cobra.MinimumNArgs(1)),
		RunE: func(command *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(command.OutOrStdout(), 0, 0, 2, ' ', 0)
			header := "PATH\tPARENT\tNAME\tSTEM\tEXTENSION"
			if detect {
				header += "\tTYPE"
			}
			fmt.Fprintln(w, header)

			for _, p := range args {
				c := pathparse.Parse(p)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s", p, c.Parent, c.Name, c.Stem, c.Extension)
				if detect {
					kind := "-"
					if treeops.IsFile(p) {
						if mt, err := textio.Detect(p); err == nil {
							kind = mt
						}
					} else if treeops.IsDir(p) {
						kind = "directory"
					}
					fmt.Fprintf(w, "\t%s", kind)
				}
				fmt.Fprintln(w)
			}
			return w.Flush()
		},
	}
	command.Flags().BoolVar(&detect, "detect", false, "Also print the content type of existing files")
	return command
}

func newSizeCommand(opts *rootOptions) *cobra.Command {
	var raw bool

	command := &cobra.Command{
		Use:   "size <path>",
		Short: "Print the size of a file or the total size of a directory tree",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(command *cobra.Command, args []string) error {
			return withEnvironment(opts, func(env *environment) error {
				stats, err := env.engine.TreeSize(args[0])
				if err != nil {
					return err
				}
				out := command.OutOrStdout()
				size := humanize.IBytes(uint64(stats.Bytes))
				if raw {
					size = fmt.Sprintf("%d", stats.Bytes)
				}
				if env.engine.IsDir(args[0]) {
					fmt.Fprintf(out, "%s\t%s files, %s directories\n", size,
						humanize.Comma(stats.Files), humanize.Comma(stats.Dirs))
					return nil
				}
				fmt.Fprintln(out, size)
				return nil
			})
		},
	}
	command.Flags().BoolVar(&raw, "bytes", false, "Print sizes in bytes")
	return command
}

func newCatCommand() *cobra.Command {
	var charset string

	command := &cobra.Command{
		Use:   "cat <file>",
		Short: "Print a text file decoded from a charset, with CRLF line endings",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(command *cobra.Command, args []string) error {
			text, err := textio.ReadFile(args[0], charset)
			if err != nil {
				return err
			}
			fmt.Fprint(command.OutOrStdout(), text)
			if text != "" {
				fmt.Fprint(command.OutOrStdout(), "\r\n")
			}
			return nil
		},
	}
	command.Flags().StringVar(&charset, "charset", "utf-8", `Source charset, or "auto" to detect it`)
	return command
}
