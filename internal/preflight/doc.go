// Package preflight checks that the directories wadindex reads and writes are
// usable before a scan starts. The CLI "wadindex check" command prints the
// results.
package preflight
