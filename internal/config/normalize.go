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
	c.Cache.Identity = strings.ToLower(strings.TrimSpace(c.Cache.Identity))
	if c.Cache.Identity == "" {
		c.Cache.Identity = defaultIdentity
	}
	if c.Scan.MaxMemberMiB == 0 {
		c.Scan.MaxMemberMiB = defaultMaxMemberMiB
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("WADINDEX_SCAN_ROOT"); ok && strings.TrimSpace(value) != "" {
		c.Paths.ScanRoot = value
	}
	if value, ok := os.LookupEnv("WADINDEX_CACHE_FILE"); ok && strings.TrimSpace(value) != "" {
		c.Paths.CacheFile = value
	}

	if strings.TrimSpace(c.Paths.ScanRoot) == "" {
		c.Paths.ScanRoot = defaultScanRoot
	}
	if strings.TrimSpace(c.Paths.CacheFile) == "" {
		c.Paths.CacheFile = DefaultCacheFile()
	}

	var err error
	if c.Paths.ScanRoot, err = ExpandPath(c.Paths.ScanRoot); err != nil {
		return fmt.Errorf("paths.scan_root: %w", err)
	}
	if c.Paths.CacheFile, err = ExpandPath(c.Paths.CacheFile); err != nil {
		return fmt.Errorf("paths.cache_file: %w", err)
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
