package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wadindex/internal/index"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show the metadata extracted for a WAD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := ctx.newIndex()
			if err != nil {
				return err
			}
			if err := ix.Run(cmd.Context()); err != nil {
				return err
			}

			matches := ix.Lookup(args[0])
			if len(matches) == 0 {
				return fmt.Errorf("no WAD named %q under %s", args[0], ix.Root())
			}
			if asJSON {
				return writeJSON(cmd, matches)
			}

			out := cmd.OutOrStdout()
			for i, entry := range matches {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprint(out, describeEntry(entry))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func describeEntry(entry index.FileEntry) string {
	var b strings.Builder
	line := func(label, value string) {
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(&b, "%-14s %s\n", label+":", value)
	}
	rec := entry.Record
	line("Name", rec.Name)
	line("Title", rec.Title)
	line("Base asset", yesNo(rec.IsBaseAsset))
	line("Requires", rec.BaseAssetName)
	line("Compat level", rec.CompatLevel)
	line("Compat hint", rec.CompatHint)
	line("Path", entry.Path)
	line("Modified", entry.LastModified.Local().Format("2006-01-02 15:04:05"))
	line("Cache key", entry.Key)
	return b.String()
}
