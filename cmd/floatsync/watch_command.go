package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"floatsync/internal/logging"
	"floatsync/internal/preflight"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var prune bool
	var diagnostic bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run discovery on the configured interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx.diagnostic = diagnostic
			rt, runCtx, err := ctx.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if failed := preflight.Failed(preflight.RunAll(runCtx, rt.cfg)); len(failed) > 0 {
				return preflightError(failed)
			}

			interval := time.Duration(rt.cfg.Watch.IntervalMinutes) * time.Minute
			rt.logger.Info("watch started",
				logging.String(logging.FieldEventType, "watch_started"),
				logging.Duration("interval", interval),
				logging.Int("subscriptions", len(rt.cfg.Subscriptions)),
			)
			return rt.watch(runCtx, interval, prune)
		},
	}

	cmd.Flags().BoolVar(&prune, "prune", true, "Apply channel retention after each pass")
	cmd.Flags().BoolVar(&diagnostic, "diagnostic", false, "Also write a debug-level JSON log to floatsync-debug.log")
	return cmd
}

// watch repeats discovery until ctx is cancelled. Failed passes are logged
// and retried on the next tick.
func (rt *runtime) watch(ctx context.Context, interval time.Duration, prune bool) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		report, err := rt.discover(ctx, "")
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			logging.ErrorWithContext(rt.logger, "discovery pass failed", "watch_pass_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "retrying on the next interval"),
			)
		default:
			rt.logger.Info("discovery pass complete",
				logging.String(logging.FieldEventType, "watch_pass_complete"),
				logging.Int("new_items", len(report.NewItems)),
				logging.Int("failed", report.summary.Failed()),
			)
		}

		if prune && ctx.Err() == nil {
			result := rt.prune(ctx, false)
			if len(result.Items) > 0 || len(result.Errors) > 0 {
				rt.logger.Info("retention pass complete",
					logging.String(logging.FieldEventType, "watch_prune_complete"),
					logging.Int("expired", len(result.Items)),
					logging.Int("files_removed", result.FilesRemoved),
					logging.Int("errors", len(result.Errors)),
				)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func preflightError(failed []preflight.Result) error {
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
}
