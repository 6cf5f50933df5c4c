package index

import (
	"log/slog"

	"wadindex/internal/identity"
)

// Option configures an Index.
type Option func(*Index)

// WithRoot sets the directory walked by Scan. Default: the working directory.
func WithRoot(root string) Option {
	return func(ix *Index) {
		ix.root = root
	}
}

// WithStrategy selects how cache keys are derived. Default: identity.Content.
func WithStrategy(s identity.Strategy) Option {
	return func(ix *Index) {
		if s != nil {
			ix.strategy = s
		}
	}
}

// WithLogger sets the logger used for scan diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) {
		ix.logger = logger
	}
}

// WithStrict makes Scan abort on the first file that cannot be opened or
// parsed instead of skipping it.
func WithStrict(strict bool) Option {
	return func(ix *Index) {
		ix.strict = strict
	}
}

// WithMaxMemberBytes caps the decompressed size of a WAD member read from a
// zip container. Zero disables the cap.
func WithMaxMemberBytes(n int64) Option {
	return func(ix *Index) {
		ix.maxMemberBytes = n
	}
}
