package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"wadindex/internal/config"
	"wadindex/internal/identity"
	"wadindex/internal/index"
	"wadindex/internal/logging"
	"wadindex/internal/wadcache"
)

type commandContext struct {
	configFlag    *string
	dirFlag       *string
	relativeToExe *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, dirFlag *string, relativeToExe *bool) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		dirFlag:       dirFlag,
		relativeToExe: relativeToExe,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := c.applyRootOverrides(cfg); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// applyRootOverrides lets --dir or --relative-to-exe replace the configured
// scan root. The two flags are mutually exclusive.
func (c *commandContext) applyRootOverrides(cfg *config.Config) error {
	if c.dirFlag != nil && strings.TrimSpace(*c.dirFlag) != "" {
		dir, err := config.ExpandPath(strings.TrimSpace(*c.dirFlag))
		if err != nil {
			return fmt.Errorf("resolve --dir: %w", err)
		}
		cfg.Paths.ScanRoot = dir
		return nil
	}
	if c.relativeToExe != nil && *c.relativeToExe {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("locate executable: %w", err)
		}
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		cfg.Paths.ScanRoot = filepath.Dir(exe)
	}
	return nil
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg, uuid.NewString())
	})
	return c.logger, c.loggerErr
}

// cacheStore returns the configured cache store, or nil when caching is
// disabled.
func (c *commandContext) cacheStore() (*wadcache.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	return wadcache.NewStore(cfg.Paths.CacheFile, logger), nil
}

func (c *commandContext) newIndex() (*index.Index, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	strategy, err := identity.Parse(cfg.Cache.Identity)
	if err != nil {
		return nil, err
	}
	store, err := c.cacheStore()
	if err != nil {
		return nil, err
	}

	opts := []index.Option{
		index.WithRoot(cfg.Paths.ScanRoot),
		index.WithStrategy(strategy),
		index.WithLogger(logger),
		index.WithStrict(cfg.Scan.Strict),
		index.WithMaxMemberBytes(cfg.MaxMemberBytes()),
	}
	if store == nil {
		return index.New(nil, opts...), nil
	}
	return index.New(store, opts...), nil
}

// skipConfigLoad marks commands that load or write configuration themselves.
const skipConfigLoad = "skipConfigLoad"

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipConfigLoad] == "true" {
			return true
		}
	}
	return false
}
