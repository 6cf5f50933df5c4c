package index

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"wadindex/internal/identity"
	"wadindex/internal/logging"
	"wadindex/internal/lumps"
	"wadindex/internal/wad"
	"wadindex/internal/wadmeta"
)

type containerKind int

const (
	kindBare containerKind = iota
	kindZip
)

var containerKinds = map[string]containerKind{
	".wad": kindBare,
	".zip": kindZip,
	".pk3": kindZip,
}

// Scan walks the root, resolves every candidate file and evicts cache entries
// no longer backed by a file. The listing is replaced only when the scan
// completes.
func (ix *Index) Scan(ctx context.Context) error {
	ix.ensureLoaded()
	started := time.Now()

	root, err := filepath.Abs(ix.root)
	if err != nil {
		return fmt.Errorf("resolve scan root: %w", err)
	}
	paths, err := ix.discover(ctx, root)
	if err != nil {
		return err
	}
	for path := range ix.added {
		if _, seen := paths[path]; seen {
			continue
		}
		if fileExists(path) {
			paths[path] = struct{}{}
		} else {
			delete(ix.added, path)
		}
	}

	before := ix.stats
	files := make(map[string]FileEntry, len(paths))
	for _, path := range sortedPaths(paths) {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry, err := ix.resolve(path)
		if err != nil {
			if ix.strict {
				return err
			}
			ix.stats.Skipped++
			logging.WarnWithContext(ix.logger, "skipping unreadable archive", "archive_skipped",
				logging.String(logging.FieldPath, path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the file is a valid WAD or zip archive"),
				logging.String(logging.FieldImpact, "the file is not listed until it parses"))
			continue
		}
		files[path] = entry
	}
	ix.files = files
	evicted := ix.reconcile()

	ix.logger.Info("scan complete",
		logging.String("root", root),
		logging.Int("files", len(files)),
		logging.Int("hits", ix.stats.Hits-before.Hits),
		logging.Int("misses", ix.stats.Misses-before.Misses),
		logging.Int("skipped", ix.stats.Skipped-before.Skipped),
		logging.Int("evicted", evicted),
		logging.Duration("elapsed", time.Since(started)))
	return nil
}

func (ix *Index) discover(ctx context.Context, root string) (map[string]struct{}, error) {
	paths := make(map[string]struct{})
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			logging.WarnWithContext(ix.logger, "skipping unreadable directory entry", "scan_entry_unreadable",
				logging.String(logging.FieldPath, path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check directory permissions"),
				logging.String(logging.FieldImpact, "archives below this path are not listed"))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsCandidate(path) {
			return nil
		}
		paths[path] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return paths, nil
}

// reconcile drops cached keys that no listed file uses.
func (ix *Index) reconcile() int {
	live := make(map[string]struct{}, len(ix.files))
	for _, f := range ix.files {
		live[f.Key] = struct{}{}
	}
	evicted := 0
	for key := range ix.entries {
		if _, ok := live[key]; ok {
			continue
		}
		delete(ix.entries, key)
		evicted++
		ix.logger.Debug("evicted stale cache entry", logging.String(logging.FieldCacheKey, key))
	}
	if evicted > 0 {
		ix.dirty = true
		ix.stats.Evicted += evicted
	}
	return evicted
}

// resolve computes the key of path and returns its entry, extracting
// metadata only on a cache miss.
func (ix *Index) resolve(path string) (FileEntry, error) {
	key, info, err := identity.FileKey(ix.strategy, path)
	if err != nil {
		return FileEntry{}, fmt.Errorf("identify %s: %w", path, err)
	}
	entry := FileEntry{Path: path, Key: key, LastModified: info.ModTime()}

	if record, ok := ix.entries[key]; ok {
		ix.stats.Hits++
		entry.Record = record
		return entry, nil
	}

	record, err := ix.extract(path, info.Size())
	if err != nil {
		return FileEntry{}, err
	}
	ix.entries[key] = record
	ix.dirty = true
	ix.stats.Misses++
	ix.logger.Debug("parsed archive",
		logging.String(logging.FieldPath, path),
		logging.String(logging.FieldCacheKey, key))
	entry.Record = record
	return entry, nil
}

func (ix *Index) extract(path string, size int64) (wadmeta.Record, error) {
	builder := wadmeta.NewBuilder(path)
	switch containerKinds[lowerExt(path)] {
	case kindZip:
		if err := ix.extractZip(builder, path); err != nil {
			return wadmeta.Record{}, err
		}
	default:
		if err := extractBare(builder, path, size); err != nil {
			return wadmeta.Record{}, err
		}
	}
	return builder.Build(), nil
}

func extractBare(builder *wadmeta.Builder, path string, size int64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	parsed, err := wad.Open(f, size)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	builder.Add(lumps.FromWad(parsed))
	return nil
}

func (ix *Index) extractZip(builder *wadmeta.Builder, path string) error {
	rc, err := lumps.OpenZip(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer rc.Close()

	builder.Add(lumps.FromZip(&rc.Reader))
	for _, member := range lumps.InnerWads(&rc.Reader) {
		parsed, err := lumps.ReadInnerWad(member, ix.maxMemberBytes)
		if err != nil {
			hint := "the member is not a valid WAD"
			if errors.Is(err, lumps.ErrMemberTooLarge) {
				hint = "raise scan.max_member_mib to read larger members"
			}
			logging.WarnWithContext(ix.logger, "skipping wad member", "wad_member_skipped",
				logging.String(logging.FieldPath, path),
				logging.String("member", member.Name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, hint),
				logging.String(logging.FieldImpact, "metadata from this member is ignored"))
			continue
		}
		builder.Add(lumps.FromWad(parsed))
	}
	return nil
}
