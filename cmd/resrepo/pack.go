package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"resrepo/internal/library"
	"resrepo/internal/pack"
)

func newPackCommand(a *app) *cobra.Command {
	var (
		src    sourceFlags
		output string
		maxAPI int
	)
	cmd := &cobra.Command{
		Use:   "pack <library>",
		Short: "Write a prebuilt snapshot bundle",
		Long: `Write a zip holding a snapshot of every configuration (` + pack.FullEntry + `)
and one without locale-specific configurations (` + pack.NoLocaleEntry + `).
The header matches what load expects for the same library, so the bundle can
be passed to --prebuilt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("max-api") {
				maxAPI = a.cfg.Pack.MaxAPI
			}
			if maxAPI < 0 {
				return fmt.Errorf("--max-api must be >= 0, got %d", maxAPI)
			}
			r, err := a.open(args[0], src)
			if err != nil {
				return err
			}
			h, _, err := library.CacheHeader(args[0], library.CachingData{CodeVersion: a.cfg.Cache.CodeVersion})
			if err != nil {
				return err
			}
			out, err := filepath.Abs(output)
			if err != nil {
				return err
			}
			man, err := pack.WriteFile(cmd.Context(), out, r, h, pack.Options{MaxAPI: maxAPI, Logger: a.log})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			color.New(color.FgGreen, color.Bold).Fprintf(w, "Wrote %s\n", out)
			for _, e := range man.Entries {
				fmt.Fprintf(w, "  %-24s items=%d configs=%d bytes=%d\n", e.Name, e.Items, e.Configurations, e.Bytes)
			}
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "bundle path")
	cmd.Flags().IntVar(&maxAPI, "max-api", 0, "drop configurations above this API level (0 = keep all; default pack.max_api)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
