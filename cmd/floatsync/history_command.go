package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"floatsync/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var filter history.Filter

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded items, newest release first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, runCtx, err := ctx.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			records, err := rt.history.List(runCtx, filter)
			if err != nil {
				return err
			}
			if jsonOut {
				if records == nil {
					records = []history.Record{}
				}
				return writeJSON(cmd, records)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No recorded items")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.CreatorID,
					rec.ChannelTitle,
					rec.Title,
					rec.ReleaseDate.Local().Format(time.DateTime),
					rec.AttachmentID,
				})
			}
			fmt.Fprint(out, renderTable(out, []string{"Creator", "Channel", "Title", "Released", "Attachment"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output records as JSON")
	cmd.Flags().StringVar(&filter.CreatorID, "creator", "", "Only list items for this creator id")
	cmd.Flags().StringVar(&filter.ChannelTitle, "channel", "", "Only list items routed to this channel")
	return cmd
}
