package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"floatsync/internal/config"
	"floatsync/internal/logging"
	"floatsync/internal/services"
)

const userAgent = "floatsync"

// HTTPDoer describes the HTTP client used by the refreshers.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Refresher triggers a library scan on one media server.
type Refresher interface {
	Name() string
	Refresh(ctx context.Context) error
}

// FromConfig returns a refresher for every enabled integration.
func FromConfig(cfg *config.Config, client HTTPDoer) []Refresher {
	if cfg == nil {
		return nil
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	var out []Refresher
	if cfg.Jellyfin.Enabled && cfg.Jellyfin.URL != "" && cfg.Jellyfin.APIKey != "" {
		out = append(out, NewJellyfin(cfg.Jellyfin.URL, cfg.Jellyfin.APIKey, client))
	}
	if cfg.Plex.Enabled && cfg.Plex.URL != "" && cfg.Plex.Token != "" {
		out = append(out, NewPlex(cfg.Plex.URL, cfg.Plex.Token, cfg.Plex.Sections, client))
	}
	return out
}

// RefreshAll runs every refresher. Failures are logged and joined; one
// failing server does not stop the others.
func RefreshAll(ctx context.Context, refreshers []Refresher, logger *slog.Logger) error {
	logger = logging.NewComponentLogger(logger, "library")
	var errs []error
	for _, r := range refreshers {
		start := time.Now()
		if err := r.Refresh(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
			logging.WarnWithContext(logger, "library refresh failed", "library_refresh_failed",
				logging.String("server", r.Name()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the media server url and credentials"),
				logging.String(logging.FieldImpact, "new items appear after the next scheduled scan"),
			)
			continue
		}
		logger.Info("library refreshed",
			logging.String(logging.FieldEventType, "library_refresh"),
			logging.String("server", r.Name()),
			logging.Duration("duration", time.Since(start)),
		)
	}
	return errors.Join(errs...)
}

func do(client HTTPDoer, req *http.Request, server string) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)
	resp, err := client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, server, req.URL.Path, "request failed", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		marker := services.ErrTransient
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			marker = services.ErrConfiguration
		}
		return nil, services.Wrap(marker, server, req.URL.Path,
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	return resp, nil
}
