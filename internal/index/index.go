package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"wadindex/internal/identity"
	"wadindex/internal/logging"
	"wadindex/internal/wadmeta"
)

// ErrUnsupportedExtension is returned by AddFile for paths that are neither
// WAD files nor zip containers.
var ErrUnsupportedExtension = errors.New("unsupported file extension")

// Store persists cache entries between runs.
type Store interface {
	Load() map[string]wadmeta.Record
	Save(ctx context.Context, entries map[string]wadmeta.Record) error
}

// FileEntry is one file on disk together with its metadata.
type FileEntry struct {
	Path         string         `json:"path"`
	Key          string         `json:"cache_key"`
	LastModified time.Time      `json:"last_modified"`
	Record       wadmeta.Record `json:"record"`
}

// Stats counts what the index did since it was created.
type Stats struct {
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
	Evicted int `json:"evicted"`
	Skipped int `json:"skipped"`
}

// Index maps the files under a root to cached metadata records.
type Index struct {
	store          Store
	root           string
	strategy       identity.Strategy
	logger         *slog.Logger
	strict         bool
	maxMemberBytes int64

	loaded  bool
	dirty   bool
	entries map[string]wadmeta.Record
	files   map[string]FileEntry
	// added holds paths incorporated through AddFile; they survive a rescan
	// even when they live outside the root.
	added map[string]struct{}
	stats Stats
}

// New creates an index backed by store. A nil store keeps the cache in memory
// only.
func New(store Store, opts ...Option) *Index {
	ix := &Index{
		store:    store,
		root:     ".",
		strategy: identity.Content{},
		entries:  make(map[string]wadmeta.Record),
		files:    make(map[string]FileEntry),
		added:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(ix)
	}
	ix.logger = logging.NewComponentLogger(ix.logger, "index")
	return ix
}

// Root returns the configured scan root.
func (ix *Index) Root() string {
	return ix.root
}

// Load replaces the in-memory cache with the store's content.
func (ix *Index) Load() {
	var entries map[string]wadmeta.Record
	if ix.store != nil {
		entries = ix.store.Load()
	}
	if entries == nil {
		entries = make(map[string]wadmeta.Record)
	}
	ix.entries = entries
	ix.dirty = false
	ix.loaded = true
	ix.logger.Debug("cache loaded", logging.Int("entry_count", len(entries)))
}

func (ix *Index) ensureLoaded() {
	if !ix.loaded {
		ix.Load()
	}
}

// Persist saves the cache when it changed since the last load or save. A
// failed save leaves the index dirty and usable.
func (ix *Index) Persist(ctx context.Context) error {
	if !ix.dirty || ix.store == nil {
		return nil
	}
	if err := ix.store.Save(ctx, ix.entries); err != nil {
		logging.WarnWithContext(ix.logger, "failed to save wad cache", "cache_save_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the cache file and its lock"),
			logging.String(logging.FieldImpact, "unchanged archives will be parsed again next run"))
		return fmt.Errorf("persist cache: %w", err)
	}
	ix.dirty = false
	return nil
}

// Run performs a complete Load, Scan and Persist cycle. Only scan failures
// are returned; a failed save is logged by Persist.
func (ix *Index) Run(ctx context.Context) error {
	ix.Load()
	if err := ix.Scan(ctx); err != nil {
		return err
	}
	_ = ix.Persist(ctx)
	return nil
}

// AddFile resolves one file outside a bulk scan and adds it to the listing,
// replacing any entry already held for the same path.
func (ix *Index) AddFile(ctx context.Context, path string) (FileEntry, error) {
	if !IsCandidate(path) {
		return FileEntry{}, fmt.Errorf("add %s: %w", path, ErrUnsupportedExtension)
	}
	if err := ctx.Err(); err != nil {
		return FileEntry{}, err
	}
	ix.ensureLoaded()

	abs, err := filepath.Abs(path)
	if err != nil {
		return FileEntry{}, fmt.Errorf("resolve path: %w", err)
	}
	entry, err := ix.resolve(abs)
	if err != nil {
		return FileEntry{}, err
	}

	previous, existed := ix.files[abs]
	ix.files[abs] = entry
	ix.added[abs] = struct{}{}
	if existed && previous.Key != entry.Key {
		ix.evictIfUnused(previous.Key)
	}
	return entry, nil
}

// Forget drops path from the listing. Its cache entry goes too unless
// another listed file shares the key.
func (ix *Index) Forget(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	entry, ok := ix.files[abs]
	if !ok {
		return false
	}
	delete(ix.files, abs)
	delete(ix.added, abs)
	ix.evictIfUnused(entry.Key)
	return true
}

func (ix *Index) evictIfUnused(key string) {
	for _, f := range ix.files {
		if f.Key == key {
			return
		}
	}
	if _, ok := ix.entries[key]; ok {
		delete(ix.entries, key)
		ix.dirty = true
		ix.stats.Evicted++
	}
}

// Wads returns the listed files, most recently modified first.
func (ix *Index) Wads() []FileEntry {
	out := make([]FileEntry, 0, len(ix.files))
	for _, f := range ix.files {
		out = append(out, f)
	}
	sortEntries(out)
	return out
}

// BaseAssets returns the listed files recognised as base assets.
func (ix *Index) BaseAssets() []FileEntry {
	var out []FileEntry
	for _, f := range ix.files {
		if f.Record.IsBaseAsset {
			out = append(out, f)
		}
	}
	sortEntries(out)
	return out
}

// Lookup finds files whose record name or file name equals name, ignoring
// case. "doom2" and "DOOM2.WAD" both match doom2.wad.
func (ix *Index) Lookup(name string) []FileEntry {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	var out []FileEntry
	for _, f := range ix.files {
		if strings.EqualFold(f.Record.Name, name) || strings.EqualFold(filepath.Base(f.Path), name) {
			out = append(out, f)
		}
	}
	sortEntries(out)
	return out
}

func sortEntries(entries []FileEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].LastModified.Equal(entries[j].LastModified) {
			return entries[i].LastModified.After(entries[j].LastModified)
		}
		return entries[i].Path < entries[j].Path
	})
}

// CacheKeys returns the keys held in the in-memory cache, sorted.
func (ix *Index) CacheKeys() []string {
	keys := make([]string, 0, len(ix.entries))
	for key := range ix.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Dirty reports whether the cache changed since it was loaded or saved.
func (ix *Index) Dirty() bool { return ix.dirty }

// Len returns the number of listed files.
func (ix *Index) Len() int { return len(ix.files) }

// Stats returns the running counters.
func (ix *Index) Stats() Stats { return ix.stats }

// IsCandidate reports whether path has an extension the index handles.
func IsCandidate(path string) bool {
	_, ok := containerKinds[lowerExt(path)]
	return ok
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func lowerExt(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

func sortedPaths(paths map[string]struct{}) []string {
	out := make([]string, 0, len(paths))
	for path := range paths {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}
