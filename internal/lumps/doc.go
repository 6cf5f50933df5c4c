// Package lumps gives the metadata extractor one way to read named members
// from either container kind: lumps of a WAD file or entries of a zip/pk3
// archive. It also owns zip opening, which registers zstd decompression for
// archives produced by newer packers.
package lumps
