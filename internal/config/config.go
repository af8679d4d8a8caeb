package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
	LibraryDir string `toml:"library_dir"`
}

// Floatplane contains remote API settings and discovery limits.
type Floatplane struct {
	BaseURL                   string  `toml:"base_url"`
	SailsSID                  string  `toml:"sails_sid"`
	UserAgent                 string  `toml:"user_agent"`
	VideosToSearch            int     `toml:"videos_to_search"`
	RequestsPerSecond         float64 `toml:"requests_per_second"`
	RequestTimeoutSeconds     int     `toml:"request_timeout_seconds"`
	PostCacheTTLMinutes       int     `toml:"post_cache_ttl_minutes"`
	AttachmentCacheTTLMinutes int     `toml:"attachment_cache_ttl_minutes"`
}

// Cache selects the durable store behind the response caches.
type Cache struct {
	Backend string `toml:"backend"`
}

// Extras contains optional title handling.
type Extras struct {
	StripSubchannelPrefix bool `toml:"strip_subchannel_prefix"`
}

// Watch contains configuration for the repeating discovery loop.
type Watch struct {
	IntervalMinutes int `toml:"interval_minutes"`
}

// Jellyfin contains configuration for Jellyfin Media Server integration.
type Jellyfin struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
	APIKey  string `toml:"api_key"`
}

// Plex contains configuration for Plex Media Server integration.
type Plex struct {
	Enabled  bool     `toml:"enabled"`
	URL      string   `toml:"url"`
	Token    string   `toml:"token"`
	Sections []string `toml:"sections"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Channel routes matching attachments into a destination. A nil
// DaysToKeepVideos means the channel keeps everything.
type Channel struct {
	Title            string `toml:"title"`
	Predicate        string `toml:"predicate"`
	DaysToKeepVideos *int   `toml:"days_to_keep_videos,omitempty"`
	Skip             bool   `toml:"skip"`
}

// Subscription is one followed creator and its ordered channel list. Channel
// order is significant: the first matching channel wins.
type Subscription struct {
	CreatorID string    `toml:"creator_id"`
	Plan      string    `toml:"plan"`
	Channels  []Channel `toml:"channels"`
}

// Config encapsulates all configuration values for floatsync.
//
// Configuration sections by subsystem:
//   - Paths: state, log, and library directories
//   - Floatplane: API endpoint, session cookie, rate and cache limits
//   - Cache: durable store backend for cached responses
//   - Extras: title post-processing
//   - Watch: discovery loop interval
//   - Jellyfin / Plex: library refresh after discovery
//   - Logging: log format, level, and retention
//   - Subscriptions: creators and their channels
type Config struct {
	Paths         Paths          `toml:"paths"`
	Floatplane    Floatplane     `toml:"floatplane"`
	Cache         Cache          `toml:"cache"`
	Extras        Extras         `toml:"extras"`
	Watch         Watch          `toml:"watch"`
	Jellyfin      Jellyfin       `toml:"jellyfin"`
	Plex          Plex           `toml:"plex"`
	Logging       Logging        `toml:"logging"`
	Subscriptions []Subscription `toml:"subscriptions"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("floatsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. LibraryDir is
// created on a best-effort basis so discovery can run while external storage
// is offline.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.LibraryDir) != "" {
		_ = os.MkdirAll(c.Paths.LibraryDir, 0o755)
	}
	return nil
}

// CachePath returns the durable cache location for the configured backend.
func (c *Config) CachePath() string {
	if c.Cache.Backend == CacheBackendJSON {
		return filepath.Join(c.Paths.StateDir, "cache.json")
	}
	return filepath.Join(c.Paths.StateDir, "cache.db")
}

// HistoryPath returns the database recording discovered items.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath returns the single-writer lock file guarding the state directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "floatsync.lock")
}

// Subscription returns the subscription for creatorID.
func (c *Config) Subscription(creatorID string) (Subscription, bool) {
	for _, sub := range c.Subscriptions {
		if sub.CreatorID == creatorID {
			return sub, true
		}
	}
	return Subscription{}, false
}

// HasRetention reports whether the channel prunes old videos.
func (ch Channel) HasRetention() bool {
	return ch.DaysToKeepVideos != nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
