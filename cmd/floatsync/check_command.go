package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"floatsync/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify directories, predicates, and remote credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := preflight.RunAll(cmd.Context(), ctx.configValue())

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "OK"
				if !r.Passed {
					status = "FAIL"
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderTable(out, []string{"Check", "Status", "Detail"}, rows, nil))

			if failed := preflight.Failed(results); len(failed) > 0 {
				return preflightError(failed)
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}
