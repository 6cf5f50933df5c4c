package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var baseOnly bool

	cmd := &cobra.Command{
		Use:     "scan",
		Aliases: []string{"list"},
		Short:   "Scan the WAD directory and list every archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := ctx.newIndex()
			if err != nil {
				return err
			}

			done := statusLine(cmd.ErrOrStderr(), "Loading WADs...")
			err = ix.Run(cmd.Context())
			done()
			if err != nil {
				return err
			}

			entries := ix.Wads()
			if baseOnly {
				entries = ix.BaseAssets()
			}

			if asJSON {
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No WAD files found under %s\n", ix.Root())
				return nil
			}
			fmt.Fprintln(out, renderEntries(entries, ix.Root()))
			stats := ix.Stats()
			fmt.Fprintf(out, "%d files (%d cached, %d parsed, %d skipped, %d evicted)\n",
				len(entries), stats.Hits, stats.Misses, stats.Skipped, stats.Evicted)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&baseOnly, "base", false, "Only list base assets (IWADs)")
	return cmd
}
