package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"resrepo/internal/repo"
	"resrepo/internal/resource"
)

func newLoadCommand(a *app) *cobra.Command {
	var src sourceFlags
	cmd := &cobra.Command{
		Use:   "load <library>",
		Short: "Load a library and print a summary",
		Long: `Load the resources of a library directory or archive. A valid snapshot
is used when present; otherwise the sources are parsed and a new snapshot
is written in the background.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open(args[0], src)
			if err != nil {
				return err
			}
			summary(cmd.OutOrStdout(), r)
			return nil
		},
	}
	src.register(cmd)
	return cmd
}

// summary prints the library identity and item counts per type.
func summary(w io.Writer, r *repo.Repository) {
	title := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)

	title.Fprintf(w, "Loaded %s\n", r.LibraryName())
	fmt.Fprintf(w, "  source:    %s\n", r.SourceLocation())
	fmt.Fprintf(w, "  namespace: %s\n", r.Namespace())
	pkg := r.PackageName()
	if pkg == "" {
		pkg = "(unknown)"
	}
	fmt.Fprintf(w, "  package:   %s\n", pkg)

	public := 0
	for _, t := range resource.Types() {
		public += len(r.PublicItems(r.Namespace(), t))
	}
	fmt.Fprintf(w, "  items:     %d (public %d)\n", r.Len(), public)

	for _, t := range resource.Types() {
		names := r.Names(t)
		if len(names) == 0 {
			continue
		}
		n := 0
		for _, name := range names {
			n += len(r.Items(r.Namespace(), t, name))
		}
		dim.Fprintf(w, "    %-12s %d\n", t, n)
	}
}
