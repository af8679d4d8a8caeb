package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"floatsync/internal/cleanup"
)

func (rt *runtime) prune(ctx context.Context, dryRun bool) cleanup.Result {
	pruner := cleanup.NewPruner(rt.history, cleanup.Options{
		LibraryDir: rt.cfg.Paths.LibraryDir,
		Logger:     rt.logger,
		DryRun:     dryRun,
	})
	return pruner.Prune(ctx, rt.cfg.Subscriptions)
}

func newPruneCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove videos older than their channel's retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, runCtx, err := ctx.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			result := rt.prune(runCtx, dryRun)
			out := cmd.OutOrStdout()
			if len(result.Items) == 0 {
				fmt.Fprintln(out, "Nothing to prune")
			} else {
				rows := make([][]string, 0, len(result.Items))
				for _, item := range result.Items {
					rows = append(rows, []string{
						item.Channel,
						item.Record.Title,
						item.Record.ReleaseDate.Local().Format(time.DateOnly),
						strconv.Itoa(len(item.Files)),
					})
				}
				fmt.Fprint(out, renderTable(out, []string{"Channel", "Title", "Released", "Files"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))
			}
			if dryRun {
				fmt.Fprintf(out, "Dry run: %d item(s) would be removed\n", len(result.Items))
			} else {
				fmt.Fprintf(out, "Removed %d file(s) for %d item(s)\n", result.FilesRemoved, len(result.Items))
			}

			if len(result.Errors) > 0 {
				errs := make([]error, 0, len(result.Errors))
				for _, e := range result.Errors {
					if e.Path != "" {
						errs = append(errs, fmt.Errorf("%s: %w", e.Path, e.Error))
					} else {
						errs = append(errs, e.Error)
					}
				}
				return fmt.Errorf("prune finished with %d error(s): %w", len(errs), errors.Join(errs...))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report expired items without removing anything")
	return cmd
}
