package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"wadindex/internal/fileutil"
	"wadindex/internal/index"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var importFile bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Add a single WAD, zip or pk3 file to the cache without a full rescan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			info, err := os.Stat(absPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("file does not exist: %s", absPath)
				}
				return fmt.Errorf("inspect file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", absPath)
			}
			if !index.IsCandidate(absPath) {
				return fmt.Errorf("add %s: %w", absPath, index.ErrUnsupportedExtension)
			}

			ix, err := ctx.newIndex()
			if err != nil {
				return err
			}

			target := absPath
			if importFile {
				target, err = fileutil.ImportFile(absPath, ix.Root())
				if err != nil {
					return err
				}
			}

			ix.Load()
			entry, err := ix.AddFile(cmd.Context(), target)
			if err != nil {
				return err
			}
			_ = ix.Persist(cmd.Context())

			if asJSON {
				return writeJSON(cmd, entry)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", entry.Record.DisplayName(), entry.Path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&importFile, "import", false, "Copy the file into the scan root before adding it")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
