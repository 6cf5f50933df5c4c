// Package wad reads the Doom-engine WAD container: a 12-byte header naming
// the container kind and directory location, followed by a directory of
// 16-byte records (offset, size, NUL-padded 8-byte name).
//
// The package is read-only. It validates the directory against the file size
// so callers can treat any lump it returns as addressable.
package wad
