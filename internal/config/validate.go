package config

import (
	"errors"
	"fmt"
	"math"

	"wadindex/internal/identity"
)

// maxMemberMiB is the largest limit whose byte count fits in an int64.
const maxMemberMiB = math.MaxInt64 >> 20

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Paths.ScanRoot == "" {
		return errors.New("paths.scan_root must be set")
	}
	if c.Paths.CacheFile == "" {
		return errors.New("paths.cache_file must be set")
	}
	if _, err := identity.Parse(c.Cache.Identity); err != nil {
		return fmt.Errorf("cache.identity: %w", err)
	}
	if c.Scan.MaxMemberMiB < 0 || c.Scan.MaxMemberMiB > maxMemberMiB {
		return fmt.Errorf("scan.max_member_mib must be between 0 and %d, got %d", maxMemberMiB, c.Scan.MaxMemberMiB)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
