package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"floatsync/internal/services"
	"floatsync/internal/subscription"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var creator string
	var record bool

	cmd := &cobra.Command{
		Use:   "classify <post-id>",
		Short: "Fetch one post and route its attachments to channels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, runCtx, err := ctx.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			content, err := rt.client.Content(runCtx, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			post := content.BlogPost()
			if strings.TrimSpace(creator) == "" {
				creator = post.Creator.ID
			}
			if strings.TrimSpace(creator) == "" {
				return services.Wrap(services.ErrValidation, "cli", "classify",
					fmt.Sprintf("post %s has no creator id; pass --creator", post.ID), nil)
			}
			subs, err := rt.subscriptions(creator)
			if err != nil {
				return err
			}

			items, err := subs[0].ClassifyOne(runCtx, post).Collect(runCtx)
			if err != nil {
				return err
			}
			if record {
				for _, item := range items {
					if _, _, err := rt.history.Record(runCtx, item); err != nil {
						return err
					}
				}
			}
			if items == nil {
				items = []subscription.Item{}
			}

			if jsonOut {
				return writeJSON(cmd, items)
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintf(out, "Post %s matched no channel\n", post.ID)
				return nil
			}
			fmt.Fprint(out, renderItemTable(out, items))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output matched items as JSON")
	cmd.Flags().StringVar(&creator, "creator", "", "Classify against this creator instead of the post owner")
	cmd.Flags().BoolVar(&record, "record", true, "Record matched items in history")
	return cmd
}
