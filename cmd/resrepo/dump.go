package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"resrepo/internal/dump"
	"resrepo/internal/graph"
)

func newDumpCommand(a *app) *cobra.Command {
	var (
		src    sourceFlags
		output string
		styles bool
	)
	cmd := &cobra.Command{
		Use:   "dump <library>",
		Short: "Print every item of a library",
		Long: `Print one line per item, sorted by type, name and configuration, with
variant payloads indented below. --styles prints the style inheritance graph
as JSON instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open(args[0], src)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			if styles {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(graph.StyleParents(r))
			}
			if err := dump.Write(w, r); err != nil {
				return fmt.Errorf("dump: %w", err)
			}
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().BoolVar(&styles, "styles", false, "print the style inheritance graph as JSON")
	return cmd
}
