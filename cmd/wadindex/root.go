package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag, dirFlag string
	var relativeToExe bool
	ctx := newCommandContext(&configFlag, &dirFlag, &relativeToExe)

	root := &cobra.Command{
		Use:   "wadindex",
		Short: "Index Doom WAD, zip and pk3 archives",
		Long: `wadindex scans a directory tree for .wad, .zip and .pk3 files, reads the
title, base game and compatibility level each one declares, and keeps the
results in a cache keyed by file identity so unchanged archives are never
parsed twice.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	flags.StringVar(&dirFlag, "dir", "", "Directory to scan (overrides paths.scan_root)")
	flags.BoolVar(&relativeToExe, "relative-to-exe", false, "Scan the directory holding the wadindex binary")
	root.MarkFlagsMutuallyExclusive("dir", "relative-to-exe")

	root.AddCommand(
		newScanCommand(ctx),
		newAddCommand(ctx),
		newShowCommand(ctx),
		newWatchCommand(ctx),
		newCacheCommand(ctx),
		newCheckCommand(ctx),
		newConfigCommand(ctx),
	)
	return root
}
