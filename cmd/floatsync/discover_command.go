package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"floatsync/internal/library"
	"floatsync/internal/logging"
	"floatsync/internal/subscription"
)

type creatorReport struct {
	CreatorID     string `json:"creator_id"`
	Plan          string `json:"plan,omitempty"`
	Items         int    `json:"items"`
	NewItems      int    `json:"new_items"`
	PostsExamined int    `json:"posts_examined"`
	RetentionStop bool   `json:"retention_stop"`
	DurationMS    int64  `json:"duration_ms"`
	Error         string `json:"error,omitempty"`
}

type discoveryReport struct {
	RunID    string              `json:"run_id"`
	Creators []creatorReport     `json:"creators"`
	NewItems []subscription.Item `json:"new_items"`

	summary subscription.Summary
}

// discover runs one pass and records yielded items. Items already in history
// are not reported as new.
func (rt *runtime) discover(ctx context.Context, creatorID string) (*discoveryReport, error) {
	subs, err := rt.subscriptions(creatorID)
	if err != nil {
		return nil, err
	}

	report := &discoveryReport{RunID: rt.runID, NewItems: []subscription.Item{}}
	fresh := make(map[string]int)
	sink := subscription.SinkFunc(func(ctx context.Context, item subscription.Item) error {
		_, created, err := rt.history.Record(ctx, item)
		if err != nil {
			return err
		}
		if created {
			report.NewItems = append(report.NewItems, item)
			fresh[item.CreatorID]++
		}
		return nil
	})

	report.summary = subscription.NewRunner(subs, sink, rt.logger).Run(ctx)
	for _, result := range report.summary.Results {
		entry := creatorReport{
			CreatorID:     result.CreatorID,
			Plan:          result.Plan,
			Items:         len(result.Items),
			NewItems:      fresh[result.CreatorID],
			PostsExamined: result.PostsExamined,
			RetentionStop: result.RetentionStop,
			DurationMS:    result.Duration.Milliseconds(),
		}
		if result.Err != nil {
			entry.Error = result.Err.Error()
		}
		report.Creators = append(report.Creators, entry)
	}

	if len(report.NewItems) > 0 {
		refreshers := library.FromConfig(rt.cfg, rt.http)
		if err := library.RefreshAll(ctx, refreshers, rt.logger); err != nil {
			logging.WarnWithContext(rt.logger, "library refresh failed", "library_refresh_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "new items appear after the next library scan"),
			)
		}
	}
	return report, nil
}

func newDiscoverCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var creator string

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Run one discovery pass over the configured subscriptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, runCtx, err := ctx.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			report, err := rt.discover(runCtx, creator)
			if err != nil {
				return err
			}
			if jsonOut {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				printDiscovery(cmd, report)
			}
			if failed := report.summary.Failed(); failed > 0 {
				return fmt.Errorf("%d of %d subscriptions failed: %w", failed, len(report.summary.Results), report.summary.Err())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the pass report as JSON")
	cmd.Flags().StringVar(&creator, "creator", "", "Only discover for this creator id")
	return cmd
}

func printDiscovery(cmd *cobra.Command, report *discoveryReport) {
	out := cmd.OutOrStdout()
	if len(report.NewItems) == 0 {
		fmt.Fprintln(out, "No new items")
	} else {
		fmt.Fprint(out, renderItemTable(out, report.NewItems))
	}
	fmt.Fprintf(out, "%d new item(s) across %d subscription(s)\n", len(report.NewItems), len(report.Creators))
	for _, entry := range report.Creators {
		if entry.Error != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", entry.CreatorID, entry.Error)
		}
	}
}

func renderItemTable(out io.Writer, items []subscription.Item) string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.CreatorID,
			item.ChannelTitle,
			item.Title,
			item.ReleaseDate.Local().Format(time.DateTime),
			item.AttachmentID,
		})
	}
	return renderTable(out, []string{"Creator", "Channel", "Title", "Released", "Attachment"}, rows, nil)
}
