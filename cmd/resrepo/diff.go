package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"resrepo/internal/diff"
)

func newDiffCommand(a *app) *cobra.Command {
	var (
		src      sourceFlags
		delta    bool
		ctxLines int
		maxBytes int
	)
	cmd := &cobra.Command{
		Use:   "diff <old-library> <new-library>",
		Short: "Compare two libraries",
		Long: `Print a unified diff of the dumps of two libraries, or with --delta the
item keys that were added, removed or changed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			old, err := a.open(args[0], src)
			if err != nil {
				return err
			}
			cur, err := a.open(args[1], src)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if delta {
				printDelta(out, diff.BuildDelta(old, cur))
				return nil
			}
			body, _ := diff.Repositories(old, cur, diff.Options{MaxBytes: maxBytes, Context: ctxLines})
			if body == "" {
				fmt.Fprintln(out, "No differences.")
				return nil
			}
			printPatch(out, body)
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().BoolVar(&delta, "delta", false, "list changed item keys instead of a patch")
	cmd.Flags().IntVar(&ctxLines, "context", 3, "context lines in unified hunks")
	cmd.Flags().IntVar(&maxBytes, "max-bytes", 0, "omit the patch when both dumps exceed this size (0 = no limit)")
	return cmd
}

func printPatch(w io.Writer, body string) {
	add := color.New(color.FgGreen)
	del := color.New(color.FgRed)
	hunk := color.New(color.FgCyan)
	head := color.New(color.Bold)
	for _, line := range strings.SplitAfter(body, "\n") {
		switch {
		case line == "":
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			head.Fprint(w, line)
		case strings.HasPrefix(line, "@@"):
			hunk.Fprint(w, line)
		case strings.HasPrefix(line, "+"):
			add.Fprint(w, line)
		case strings.HasPrefix(line, "-"):
			del.Fprint(w, line)
		default:
			fmt.Fprint(w, line)
		}
	}
}

func printDelta(w io.Writer, d diff.Delta) {
	if d.Empty() {
		fmt.Fprintln(w, "No differences.")
		return
	}
	sections := []struct {
		mark string
		c    *color.Color
		keys []diff.Key
	}{
		{"+", color.New(color.FgGreen), d.Added},
		{"-", color.New(color.FgRed), d.Removed},
		{"~", color.New(color.FgYellow), d.Changed},
	}
	for _, s := range sections {
		for _, k := range s.keys {
			s.c.Fprintf(w, "%s %s\n", s.mark, k)
		}
	}
	fmt.Fprintf(w, "%d added, %d removed, %d changed\n", len(d.Added), len(d.Removed), len(d.Changed))
}
