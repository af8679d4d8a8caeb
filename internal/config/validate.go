package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Predicate expressions are
// checked separately by the predicate engine since compiling them needs the
// expression grammar.
func (c *Config) Validate() error {
	if err := c.validateFloatplane(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateIntegrations(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateSubscriptions(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateFloatplane() error {
	fp := c.Floatplane
	if !strings.HasPrefix(fp.BaseURL, "http://") && !strings.HasPrefix(fp.BaseURL, "https://") {
		return fmt.Errorf("floatplane.base_url must be an http(s) URL, got %q", fp.BaseURL)
	}
	if fp.VideosToSearch < 0 {
		return errors.New("floatplane.videos_to_search must be >= 0")
	}
	if fp.RequestsPerSecond <= 0 {
		return errors.New("floatplane.requests_per_second must be positive")
	}
	if fp.PostCacheTTLMinutes <= 0 {
		return errors.New("floatplane.post_cache_ttl_minutes must be positive")
	}
	if fp.AttachmentCacheTTLMinutes <= 0 {
		return errors.New("floatplane.attachment_cache_ttl_minutes must be positive")
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case CacheBackendSQLite, CacheBackendJSON:
		return nil
	default:
		return fmt.Errorf("cache.backend must be %q or %q, got %q", CacheBackendSQLite, CacheBackendJSON, c.Cache.Backend)
	}
}

func (c *Config) validateWatch() error {
	if c.Watch.IntervalMinutes <= 0 {
		return errors.New("watch.interval_minutes must be positive")
	}
	return nil
}

func (c *Config) validateIntegrations() error {
	if c.Jellyfin.Enabled {
		if c.Jellyfin.URL == "" {
			return errors.New("jellyfin.url must be set when jellyfin.enabled is true")
		}
		if c.Jellyfin.APIKey == "" {
			return errors.New("jellyfin.api_key must be set when jellyfin.enabled is true")
		}
	}
	if c.Plex.Enabled {
		if c.Plex.URL == "" {
			return errors.New("plex.url must be set when plex.enabled is true")
		}
		if c.Plex.Token == "" {
			return errors.New("plex.token must be set when plex.enabled is true")
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func (c *Config) validateSubscriptions() error {
	seen := make(map[string]struct{}, len(c.Subscriptions))
	for i, sub := range c.Subscriptions {
		if sub.CreatorID == "" {
			return fmt.Errorf("subscriptions[%d].creator_id must be set", i)
		}
		if _, dup := seen[sub.CreatorID]; dup {
			return fmt.Errorf("subscriptions[%d]: duplicate creator_id %q", i, sub.CreatorID)
		}
		seen[sub.CreatorID] = struct{}{}
		for j, ch := range sub.Channels {
			if ch.Title == "" {
				return fmt.Errorf("subscriptions[%d].channels[%d].title must be set", i, j)
			}
			if ch.DaysToKeepVideos != nil && *ch.DaysToKeepVideos < 0 {
				return fmt.Errorf("subscriptions[%d].channels[%d].days_to_keep_videos must be >= 0", i, j)
			}
		}
	}
	return nil
}
