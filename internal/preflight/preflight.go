package preflight

import (
	"context"

	"floatsync/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if cfg.Paths.LibraryDir != "" {
		results = append(results, CheckDirectoryAccess("Library directory", cfg.Paths.LibraryDir))
	}

	results = append(results, CheckPredicates(cfg.Subscriptions))
	results = append(results, CheckFloatplane(ctx, cfg.Floatplane.BaseURL, cfg.Floatplane.SailsSID, cfg.Floatplane.UserAgent))

	if cfg.Jellyfin.Enabled {
		results = append(results, CheckJellyfin(ctx, cfg.Jellyfin.URL, cfg.Jellyfin.APIKey))
	}
	if cfg.Plex.Enabled {
		results = append(results, CheckPlex(ctx, cfg.Plex.URL, cfg.Plex.Token))
	}
	return results
}
