package testsupport

import (
	"path/filepath"
	"testing"

	"floatsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Directories are not created; call cfg.EnsureDirectories when a test needs them.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.LibraryDir = filepath.Join(base, "library")
	cfgVal.Floatplane.SailsSID = "test-sid"
	cfgVal.Floatplane.RequestsPerSecond = 1000
	cfgVal.Logging.RetentionDays = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithFloatplaneURL points the config at a fake Floatplane server.
func WithFloatplaneURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Floatplane.BaseURL = url
	}
}

// WithSubscriptions replaces the configured subscriptions.
func WithSubscriptions(subs ...config.Subscription) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Subscriptions = subs
	}
}

// WithCacheBackend selects the cache store backend.
func WithCacheBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.Backend = backend
	}
}

// WithVideosToSearch sets the discovery depth.
func WithVideosToSearch(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Floatplane.VideosToSearch = n
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
