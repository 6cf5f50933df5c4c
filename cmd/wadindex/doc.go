// Package main hosts the wadindex CLI entrypoint and command graph.
//
// Every command resolves configuration once through commandContext, which
// applies the --config, --dir and --relative-to-exe flags and builds the
// session logger. Scanning, caching and watching live in the internal
// packages; commands here only wire them together and render results.
package main
