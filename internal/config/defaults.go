package config

import (
	"os"
	"path/filepath"
)

const (
	defaultConfigPath   = "~/.config/wadindex/config.toml"
	projectConfigName   = "wadindex.toml"
	defaultScanRoot     = "."
	defaultCacheName    = "wadindex_cache.json"
	defaultIdentity     = "sha256"
	defaultMaxMemberMiB = 512
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
)

// DefaultCacheFile is the well-known cache location in the system temp directory.
func DefaultCacheFile() string {
	return filepath.Join(os.TempDir(), defaultCacheName)
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScanRoot:  defaultScanRoot,
			CacheFile: DefaultCacheFile(),
		},
		Cache: Cache{
			Enabled:  true,
			Identity: defaultIdentity,
		},
		Scan: Scan{
			MaxMemberMiB: defaultMaxMemberMiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
