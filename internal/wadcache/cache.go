package wadcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"wadindex/internal/logging"
	"wadindex/internal/wadmeta"
)

// Version is the on-disk schema version written by Save.
const Version = 1

const lockRetryDelay = 50 * time.Millisecond

// File is the serialized cache document.
type File struct {
	Version int                       `json:"version"`
	Entries map[string]wadmeta.Record `json:"entries"`
}

// Store reads and writes the cache file at a fixed path.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a store for path. Nothing is read until Load.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logging.NewComponentLogger(logger, "wadcache"),
	}
}

// Path returns the cache file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the cached entries. A missing, empty, unreadable, malformed or
// version-mismatched file yields an empty map; Load never fails.
func (s *Store) Load() map[string]wadmeta.Record {
	entries := make(map[string]wadmeta.Record)
	if s.path == "" {
		return entries
	}

	doc, err := s.read()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Debug("no cache file, starting empty", logging.String(logging.FieldPath, s.path))
		return entries
	case errors.Is(err, errEmpty):
		s.logger.Debug("cache file is empty, starting empty", logging.String(logging.FieldPath, s.path))
		return entries
	case err != nil:
		logging.WarnWithContext(s.logger, "failed to load wad cache", "wadcache_load_failed",
			logging.String(logging.FieldPath, s.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the file will be rewritten on the next save"),
			logging.String(logging.FieldImpact, "every archive is parsed again this run"))
		return entries
	}

	if doc.Version != Version {
		s.logger.Info("discarding cache with incompatible version",
			logging.String(logging.FieldEventType, "wadcache_version_mismatch"),
			logging.String(logging.FieldPath, s.path),
			logging.Int("found_version", doc.Version),
			logging.Int("want_version", Version))
		return entries
	}

	for key, record := range doc.Entries {
		entries[key] = record
	}
	s.logger.Debug("loaded wad cache",
		logging.String(logging.FieldPath, s.path),
		logging.Int("entry_count", len(entries)))
	return entries
}

// Save replaces the cache file with entries. Writers from other processes are
// serialized through the lock file; the content is swapped in by rename.
func (s *Store) Save(ctx context.Context, entries map[string]wadmeta.Record) error {
	if s.path == "" {
		return nil
	}
	if entries == nil {
		entries = map[string]wadmeta.Record{}
	}

	data, err := json.MarshalIndent(File{Version: Version, Entries: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	lock := flock.New(s.path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock cache: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock cache: %s is held by another process", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	s.logger.Debug("saved wad cache",
		logging.String(logging.FieldPath, s.path),
		logging.Int("entry_count", len(entries)))
	return nil
}

// Clear removes the cache file. A missing file is not an error.
func (s *Store) Clear() error {
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove cache: %w", err)
	}
	return nil
}

// Status summarizes the cache file on disk.
type Status struct {
	Path       string `json:"path"`
	Exists     bool   `json:"exists"`
	SizeBytes  int64  `json:"size_bytes"`
	Version    int    `json:"version"`
	Compatible bool   `json:"compatible"`
	Entries    int    `json:"entries"`
	// Problem describes why the file would be discarded, if it would be.
	Problem string `json:"problem,omitempty"`
}

// Stat inspects the cache file without modifying it.
func (s *Store) Stat() Status {
	status := Status{Path: s.path}
	if s.path == "" {
		status.Problem = "cache path not configured"
		return status
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			status.Problem = err.Error()
		}
		return status
	}
	status.Exists = true
	status.SizeBytes = info.Size()

	doc, err := s.read()
	if err != nil {
		status.Problem = err.Error()
		return status
	}
	status.Version = doc.Version
	status.Entries = len(doc.Entries)
	status.Compatible = doc.Version == Version
	if !status.Compatible {
		status.Problem = fmt.Sprintf("version %d, want %d", doc.Version, Version)
	}
	return status
}

var errEmpty = errors.New("cache file is empty")

func (s *Store) read() (File, error) {
	var doc File
	data, err := os.ReadFile(s.path)
	if err != nil {
		return doc, err
	}
	if len(data) == 0 {
		return doc, errEmpty
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parse cache file: %w", err)
	}
	return doc, nil
}
