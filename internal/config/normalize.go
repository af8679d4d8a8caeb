package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFloatplane()
	c.normalizeCache()
	c.normalizeIntegrations()
	c.normalizeLogging()
	c.normalizeSubscriptions()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFloatplane() {
	if value, ok := os.LookupEnv(EnvSailsSID); ok && strings.TrimSpace(value) != "" {
		c.Floatplane.SailsSID = value
	}
	c.Floatplane.SailsSID = strings.TrimSpace(c.Floatplane.SailsSID)
	c.Floatplane.BaseURL = strings.TrimRight(strings.TrimSpace(c.Floatplane.BaseURL), "/")
	if c.Floatplane.BaseURL == "" {
		c.Floatplane.BaseURL = defaultBaseURL
	}
	c.Floatplane.UserAgent = strings.TrimSpace(c.Floatplane.UserAgent)
	if c.Floatplane.UserAgent == "" {
		c.Floatplane.UserAgent = defaultUserAgent
	}
	if c.Floatplane.RequestTimeoutSeconds <= 0 {
		c.Floatplane.RequestTimeoutSeconds = defaultRequestTimeout
	}
}

func (c *Config) normalizeCache() {
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheBackendSQLite
	}
}

func (c *Config) normalizeIntegrations() {
	c.Jellyfin.URL = strings.TrimRight(strings.TrimSpace(c.Jellyfin.URL), "/")
	c.Jellyfin.APIKey = strings.TrimSpace(c.Jellyfin.APIKey)
	c.Plex.URL = strings.TrimRight(strings.TrimSpace(c.Plex.URL), "/")
	c.Plex.Token = strings.TrimSpace(c.Plex.Token)
	sections := c.Plex.Sections[:0]
	for _, section := range c.Plex.Sections {
		if trimmed := strings.TrimSpace(section); trimmed != "" {
			sections = append(sections, trimmed)
		}
	}
	c.Plex.Sections = sections
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) normalizeSubscriptions() {
	for i := range c.Subscriptions {
		sub := &c.Subscriptions[i]
		sub.CreatorID = strings.TrimSpace(sub.CreatorID)
		sub.Plan = strings.TrimSpace(sub.Plan)
		for j := range sub.Channels {
			ch := &sub.Channels[j]
			ch.Title = strings.TrimSpace(ch.Title)
			ch.Predicate = strings.TrimSpace(ch.Predicate)
		}
	}
}
