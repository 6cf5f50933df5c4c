package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"wadindex/internal/index"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// statusLine prints a transient message on terminals and returns a func that
// erases it. On other writers it does nothing.
func statusLine(w io.Writer, msg string) func() {
	if !isTerminal(w) {
		return func() {}
	}
	fmt.Fprint(w, msg)
	return func() {
		fmt.Fprint(w, "\r"+strings.Repeat(" ", len(msg))+"\r")
	}
}

var entryColumns = []column{
	{title: "Name"},
	{title: "Base"},
	{title: "Compat"},
	{title: "Path"},
	{title: "Modified", right: true},
}

func renderEntries(entries []index.FileEntry, root string) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Record.DisplayName(),
			baseAssetLabel(e),
			compatLabel(e),
			relPath(root, e.Path),
			e.LastModified.Local().Format("2006-01-02 15:04"),
		})
	}
	return renderTable(entryColumns, rows)
}

func baseAssetLabel(e index.FileEntry) string {
	switch {
	case e.Record.IsBaseAsset:
		return "base (" + e.Record.BaseAssetName + ")"
	case e.Record.BaseAssetName != "":
		return e.Record.BaseAssetName
	default:
		return "-"
	}
}

func compatLabel(e index.FileEntry) string {
	switch {
	case e.Record.CompatLevel != "":
		return "complevel " + e.Record.CompatLevel
	case e.Record.CompatHint != "":
		return e.Record.CompatHint
	default:
		return "-"
	}
}

func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
