// Package logging assembles structured slog loggers and formatting helpers
// used across wadindex.
//
// It owns the console and JSON handlers, level and output plumbing, and the
// attribute helpers that keep warnings shaped as cause + impact + next step.
// A no-op logger is provided for tests and for library code constructed
// without one.
package logging
