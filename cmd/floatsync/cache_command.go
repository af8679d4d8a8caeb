package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"floatsync/internal/ttlcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the response cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached responses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, runCtx, err := ctx.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			entries, err := rt.cache.List(runCtx)
			if err != nil {
				return err
			}
			if jsonOut {
				if entries == nil {
					entries = []ttlcache.Entry{}
				}
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No cache entries")
				return nil
			}
			now := time.Now()
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				state := "stale"
				if entry.Fresh(now) {
					state = "fresh"
				}
				rows = append(rows, []string{
					entry.Namespace,
					entry.Subject,
					string(entry.Params),
					humanize.RelTime(entry.FetchedAt, now, "ago", "from now"),
					humanize.RelTime(entry.ExpiresAt(), now, "ago", "from now"),
					state,
				})
			}
			fmt.Fprint(out, renderTable(out, []string{"Namespace", "Subject", "Params", "Fetched", "Expires", "State"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output entries as JSON")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var namespace string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, runCtx, err := ctx.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			removed, err := rt.cache.Clear(runCtx, namespace)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache entr%s\n", removed, plural(removed, "y", "ies"))
			return nil
		},
	}

	cmd.Flags().StringVar(&namespace, "namespace", "", "Only clear this namespace (posts or attachments)")
	return cmd
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, runCtx, err := ctx.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			removed, err := ttlcache.PruneStore(runCtx, rt.cache, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d expired cache entr%s\n", removed, plural(removed, "y", "ies"))
			return nil
		},
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
