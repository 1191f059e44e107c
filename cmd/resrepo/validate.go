package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"resrepo/internal/validate"
)

func newValidateCommand(a *app) *cobra.Command {
	var src sourceFlags
	cmd := &cobra.Command{
		Use:   "validate <library>",
		Short: "Report definitions that would break a build",
		Long: `Check a library for duplicate definitions, malformed plurals, style
inheritance cycles, and malformed styleables. Exits non-zero when issues are
found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open(args[0], src)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			issues := validate.Issues(r)
			if len(issues) == 0 {
				color.New(color.FgGreen).Fprintf(w, "OK: %d items, no issues\n", r.Len())
				return nil
			}
			bad := color.New(color.FgRed)
			for _, msg := range issues {
				bad.Fprintf(w, "  %s\n", msg)
			}
			// Teardown is skipped on error; let a pending cache write finish.
			_ = a.saves.Wait()
			return fmt.Errorf("%d issue(s) found", len(issues))
		},
	}
	src.register(cmd)
	return cmd
}
