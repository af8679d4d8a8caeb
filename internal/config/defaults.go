package config

const (
	defaultConfigPath = "~/.config/floatsync/config.toml"

	defaultStateDir   = "~/.local/share/floatsync"
	defaultLogDir     = "~/.local/share/floatsync/logs"
	defaultLibraryDir = "~/Videos/Floatplane"

	defaultBaseURL        = "https://www.floatplane.com"
	defaultUserAgent      = "floatsync/1.0 (+https://github.com/floatsync/floatsync)"
	defaultVideosToSearch = 5
	defaultRequestsPerSec = 2
	defaultRequestTimeout = 30
	defaultPostCacheTTL   = 60
	// Attachment metadata rarely changes once published.
	defaultAttachmentCacheTTL = 24 * 60

	defaultWatchInterval = 5
	defaultRetentionDays = 30

	// CacheBackendSQLite stores cache entries in a sqlite database.
	CacheBackendSQLite = "sqlite"
	// CacheBackendJSON stores cache entries in a single JSON document.
	CacheBackendJSON = "json"

	// EnvSailsSID overrides floatplane.sails_sid.
	EnvSailsSID = "FLOATPLANE_SAILS_SID"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
			LibraryDir: defaultLibraryDir,
		},
		Floatplane: Floatplane{
			BaseURL:                   defaultBaseURL,
			UserAgent:                 defaultUserAgent,
			VideosToSearch:            defaultVideosToSearch,
			RequestsPerSecond:         defaultRequestsPerSec,
			RequestTimeoutSeconds:     defaultRequestTimeout,
			PostCacheTTLMinutes:       defaultPostCacheTTL,
			AttachmentCacheTTLMinutes: defaultAttachmentCacheTTL,
		},
		Cache:  Cache{Backend: CacheBackendSQLite},
		Extras: Extras{StripSubchannelPrefix: true},
		Watch:  Watch{IntervalMinutes: defaultWatchInterval},
		Logging: Logging{
			Format:        "console",
			Level:         "info",
			RetentionDays: defaultRetentionDays,
		},
	}
}
