package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"wadindex/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the wadindex configuration file",
	}
	cmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(ctx))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var target string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented sample configuration",
		Annotations: map[string]string{skipConfigLoad: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := writeSampleConfig(target, overwrite)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", path)
			fmt.Fprintln(cmd.OutOrStdout(), "Set paths.scan_root to your WAD directory, then run wadindex scan.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&target, "path", "p", "", "Where to write the file (default: user config directory)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

// writeSampleConfig resolves target (or the default location) and writes the
// sample there, refusing to clobber an existing file unless overwrite is set.
func writeSampleConfig(target string, overwrite bool) (string, error) {
	var path string
	var err error
	if target = strings.TrimSpace(target); target == "" {
		path, err = config.DefaultConfigPath()
	} else {
		path, err = config.ExpandPath(target)
	}
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}

	if !overwrite {
		_, statErr := os.Stat(path)
		switch {
		case statErr == nil:
			return "", fmt.Errorf("%s already exists (pass --overwrite to replace it)", path)
		case !errors.Is(statErr, fs.ErrNotExist):
			return "", fmt.Errorf("inspect %s: %w", path, statErr)
		}
	}

	if err := config.CreateSample(path); err != nil {
		return "", fmt.Errorf("write sample config: %w", err)
	}
	return path, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Load the configuration and report the effective paths",
		Annotations: map[string]string{skipConfigLoad: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			source := path
			if !exists {
				source = path + " (missing, defaults were used)"
			}
			cache := "disabled"
			if cfg.Cache.Enabled {
				cache = fmt.Sprintf("%s (identity %s)", cfg.Paths.CacheFile, cfg.Cache.Identity)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderFields([][2]string{
				{"Config", source},
				{"Scan root", cfg.Paths.ScanRoot},
				{"Cache", cache},
				{"Strict scan", yesNo(cfg.Scan.Strict)},
				{"Log level", cfg.Logging.Level},
			}))
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration valid")
			return nil
		},
	}
}
