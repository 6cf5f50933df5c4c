package testsupport

import (
	"path/filepath"
	"testing"

	"wadindex/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config whose scan root and cache file live in unique
// temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ScanRoot = filepath.Join(base, "wads")
	cfg.Paths.CacheFile = filepath.Join(base, "cache", "wadindex_cache.json")
	cfg.Paths.LogDir = ""

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithCacheDisabled turns the persistent cache off.
func WithCacheDisabled() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Cache.Enabled = false
	}
}

// WithLogDir sets the log directory.
func WithLogDir(dir string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.LogDir = dir
	}
}
