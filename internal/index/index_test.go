package index_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wadindex/internal/identity"
	"wadindex/internal/index"
	"wadindex/internal/testsupport"
	"wadindex/internal/wad"
	"wadindex/internal/wadcache"
	"wadindex/internal/wadmeta"
)

type memStore struct {
	entries map[string]wadmeta.Record
	saves   int
	err     error
}

func (m *memStore) Load() map[string]wadmeta.Record {
	out := make(map[string]wadmeta.Record, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}

func (m *memStore) Save(_ context.Context, entries map[string]wadmeta.Record) error {
	if m.err != nil {
		return m.err
	}
	m.entries = make(map[string]wadmeta.Record, len(entries))
	for k, v := range entries {
		m.entries[k] = v
	}
	m.saves++
	return nil
}

var fixedTime = time.Date(2023, 11, 2, 8, 30, 0, 0, time.UTC)

func TestAddFileRejectsUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "readme.txt")
	testsupport.WriteFile(t, path, 10)

	ix := index.New(&memStore{}, index.WithRoot(dir))
	_, err := ix.AddFile(context.Background(), path)
	if !errors.Is(err, index.ErrUnsupportedExtension) {
		t.Fatalf("expected ErrUnsupportedExtension, got %v", err)
	}
	if ix.Dirty() || ix.Len() != 0 {
		t.Fatal("rejected file must not change the index")
	}
}

func TestAddFilePopulatesEntryAndMarksDirty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sunlust.wad")
	testsupport.WriteWad(t, path, testsupport.Lump{Name: "WADINFO", Data: "Title: Sunlust\nGame: Doom II\n"})

	ix := index.New(&memStore{}, index.WithRoot(dir))
	entry, err := ix.AddFile(context.Background(), path)
	if err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if entry.Record.Name != "sunlust" || entry.Record.Title != "Sunlust" || entry.Record.BaseAssetName != "DOOM2.WAD" {
		t.Fatalf("unexpected record %+v", entry.Record)
	}
	if entry.Path != path || entry.Key == "" || entry.LastModified.IsZero() {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if !ix.Dirty() || ix.Len() != 1 {
		t.Fatalf("dirty=%v len=%d", ix.Dirty(), ix.Len())
	}
}

func TestCacheHitSkipsExtraction(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mod.wad")
	testsupport.WriteWad(t, path, testsupport.Lump{Name: "WADINFO", Data: "Title: First\n"})
	testsupport.Touch(t, path, fixedTime)

	store := &memStore{}
	first := index.New(store, index.WithRoot(dir), index.WithStrategy(identity.ModTime{}))
	if err := first.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if store.saves != 1 {
		t.Fatalf("expected one save, got %d", store.saves)
	}

	// New content behind the same name and timestamp: the cached record must
	// be returned as-is.
	testsupport.WriteWad(t, path, testsupport.Lump{Name: "WADINFO", Data: "Title: Second\n"})
	testsupport.Touch(t, path, fixedTime)

	second := index.New(store, index.WithRoot(dir), index.WithStrategy(identity.ModTime{}))
	if err := second.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	wads := second.Wads()
	if len(wads) != 1 || wads[0].Record.Title != "First" {
		t.Fatalf("expected cached record, got %+v", wads)
	}
	if stats := second.Stats(); stats.Hits != 1 || stats.Misses != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if second.Dirty() || store.saves != 1 {
		t.Fatalf("unchanged cache must not be saved again (dirty=%v saves=%d)", second.Dirty(), store.saves)
	}
}

func TestContentIdentitySharesRecordAcrossCopies(t *testing.T) {
	dir := t.TempDir()
	lump := testsupport.Lump{Name: "WADINFO", Data: "Title: Copy\n"}
	testsupport.WriteWad(t, filepath.Join(dir, "a", "copy.wad"), lump)
	testsupport.WriteWad(t, filepath.Join(dir, "b", "copy.wad"), lump)

	ix := index.New(&memStore{}, index.WithRoot(dir))
	if err := ix.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if ix.Len() != 2 || len(ix.CacheKeys()) != 1 {
		t.Fatalf("len=%d keys=%v", ix.Len(), ix.CacheKeys())
	}
	if stats := ix.Stats(); stats.Misses != 1 || stats.Hits != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	// Changed bytes produce a new key even with the old timestamp.
	changed := filepath.Join(dir, "b", "copy.wad")
	info, err := os.Stat(changed)
	if err != nil {
		t.Fatal(err)
	}
	testsupport.WriteWad(t, changed, testsupport.Lump{Name: "WADINFO", Data: "Title: Edited\n"})
	testsupport.Touch(t, changed, info.ModTime())
	if err := ix.Scan(context.Background()); err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if got := ix.Lookup("copy"); len(got) != 2 || got[0].Record.Title == got[1].Record.Title {
		t.Fatalf("expected distinct records after edit, got %+v", got)
	}
}

func TestScanEvictsStaleEntries(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteWad(t, filepath.Join(dir, "kept.wad"))
	store := &memStore{entries: map[string]wadmeta.Record{
		"gone.wad:20200101000000": {Name: "gone"},
	}}

	ix := index.New(store, index.WithRoot(dir), index.WithStrategy(identity.ModTime{}))
	if err := ix.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := store.entries["gone.wad:20200101000000"]; ok {
		t.Fatal("stale entry survived reconciliation")
	}
	if len(store.entries) != 1 {
		t.Fatalf("expected only the kept file, got %v", store.entries)
	}
	if ix.Stats().Evicted != 1 {
		t.Fatalf("unexpected stats %+v", ix.Stats())
	}

	if err := os.Remove(filepath.Join(dir, "kept.wad")); err != nil {
		t.Fatal(err)
	}
	if err := ix.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(store.entries) != 0 || ix.Len() != 0 {
		t.Fatalf("deleted file still cached: %v", store.entries)
	}
}

func TestCompatLevelAndGamePrecedence(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteWad(t, filepath.Join(dir, "eviternity.wad"),
		testsupport.Lump{Name: "COMPLVL", Data: "11"},
		testsupport.Lump{Name: "WADINFO", Data: "Game: Doom II\nAdvanced engine needed: Boom\n"},
	)

	ix := index.New(nil, index.WithRoot(dir))
	if err := ix.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	record := ix.Wads()[0].Record
	if record.CompatLevel != "11" || record.BaseAssetName != "DOOM2.WAD" || record.CompatHint != "" {
		t.Fatalf("unexpected record %+v", record)
	}
}

func TestBaseAssetDetectedByFilename(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteWad(t, filepath.Join(dir, "DooM2.wad"))
	testsupport.WriteWad(t, filepath.Join(dir, "addon.wad"), testsupport.Lump{Name: "WADINFO", Data: "Game: Some Custom Total Conversion\n"})

	ix := index.New(nil, index.WithRoot(dir))
	if err := ix.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	bases := ix.BaseAssets()
	if len(bases) != 1 || !bases[0].Record.IsBaseAsset || bases[0].Record.BaseAssetName != "DOOM2.WAD" {
		t.Fatalf("unexpected base assets %+v", bases)
	}
	addon := ix.Lookup("addon.WAD")
	if len(addon) != 1 || addon[0].Record.BaseAssetName != "" {
		t.Fatalf("unknown game must leave base asset unset: %+v", addon)
	}
}

func TestZipContainerFeedsOwnLumpsThenInnerWads(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteZip(t, filepath.Join(dir, "Pack.PK3"),
		testsupport.ZipMember{Name: "WADINFO", Data: []byte("Title: Outer Title\n")},
		testsupport.ZipMember{Name: "maps/a.wad", Zstd: true, Data: testsupport.WadBytes("PWAD",
			testsupport.Lump{Name: "COMPLVL", Data: "9"},
			testsupport.Lump{Name: "WADINFO", Data: "Title: Inner A\n"},
		)},
		testsupport.ZipMember{Name: "maps/b.WAD", Data: testsupport.WadBytes("PWAD",
			testsupport.Lump{Name: "GAMEINFO", Data: "iwad = \"heretic\"\n"},
		)},
		testsupport.ZipMember{Name: "readme.txt", Data: []byte("Title: Not a lump source\n")},
	)

	ix := index.New(nil, index.WithRoot(dir))
	if err := ix.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	wads := ix.Wads()
	if len(wads) != 1 {
		t.Fatalf("expected one container, got %+v", wads)
	}
	record := wads[0].Record
	if record.Name != "Pack" || record.Title != "Outer Title" || record.CompatLevel != "9" || record.BaseAssetName != "HERETIC.WAD" {
		t.Fatalf("unexpected record %+v", record)
	}
}

func TestOversizedMemberIsSkipped(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteZip(t, filepath.Join(dir, "big.zip"),
		testsupport.ZipMember{Name: "big.wad", Data: testsupport.WadBytes("PWAD",
			testsupport.Lump{Name: "WADINFO", Data: "Title: Too Big To Read\n"},
		)},
	)

	ix := index.New(nil, index.WithRoot(dir), index.WithMaxMemberBytes(16))
	if err := ix.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	record := ix.Wads()[0].Record
	if record.Name != "big" || record.Title != "" {
		t.Fatalf("oversized member should be ignored: %+v", record)
	}
}

func TestCorruptContainerSkippedUnlessStrict(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteWad(t, filepath.Join(dir, "good.wad"))
	if err := os.WriteFile(filepath.Join(dir, "broken.wad"), []byte("not a wad at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.zip"), []byte("not a zip either"), 0o644); err != nil {
		t.Fatal(err)
	}

	ix := index.New(nil, index.WithRoot(dir))
	if err := ix.Scan(context.Background()); err != nil {
		t.Fatalf("lenient scan failed: %v", err)
	}
	if ix.Len() != 1 || len(ix.CacheKeys()) != 1 || ix.Stats().Skipped != 2 {
		t.Fatalf("len=%d keys=%v stats=%+v", ix.Len(), ix.CacheKeys(), ix.Stats())
	}

	if err := os.Remove(filepath.Join(dir, "broken.zip")); err != nil {
		t.Fatal(err)
	}
	strict := index.New(nil, index.WithRoot(dir), index.WithStrict(true))
	err := strict.Scan(context.Background())
	if !errors.Is(err, wad.ErrInvalidWad) {
		t.Fatalf("strict scan should fail with ErrInvalidWad, got %v", err)
	}
}

func TestScanMatchesExtensionsCaseInsensitively(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteWad(t, filepath.Join(dir, "UPPER.WAD"))
	testsupport.WriteZip(t, filepath.Join(dir, "nested", "deep", "mixed.Zip"))
	testsupport.WriteFile(t, filepath.Join(dir, "notes.txt"), 8)
	testsupport.WriteFile(t, filepath.Join(dir, "wad"), 8)

	ix := index.New(nil, index.WithRoot(dir))
	if err := ix.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if ix.Len() != 2 {
		t.Fatalf("expected 2 candidates, got %+v", ix.Wads())
	}
}

func TestWadsSortedByModificationTime(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"old.wad", "new.wad", "mid.wad"} {
		path := filepath.Join(dir, name)
		testsupport.WriteWad(t, path)
		offsets := []time.Duration{-3 * time.Hour, 0, -time.Hour}
		testsupport.Touch(t, path, fixedTime.Add(offsets[i]))
	}

	ix := index.New(nil, index.WithRoot(dir))
	if err := ix.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	wads := ix.Wads()
	got := []string{wads[0].Record.Name, wads[1].Record.Name, wads[2].Record.Name}
	want := []string{"new", "mid", "old"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestForgetEvictsUnsharedKeys(t *testing.T) {
	dir := t.TempDir()
	shared := testsupport.Lump{Name: "WADINFO", Data: "Title: Shared\n"}
	first := filepath.Join(dir, "x", "same.wad")
	second := filepath.Join(dir, "y", "same.wad")
	testsupport.WriteWad(t, first, shared)
	testsupport.WriteWad(t, second, shared)

	ix := index.New(nil, index.WithRoot(dir))
	if err := ix.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !ix.Forget(first) {
		t.Fatal("Forget should report a listed path")
	}
	if len(ix.CacheKeys()) != 1 {
		t.Fatal("shared key must survive while another file uses it")
	}
	if !ix.Forget(second) || len(ix.CacheKeys()) != 0 {
		t.Fatalf("last user gone, keys=%v", ix.CacheKeys())
	}
	if ix.Forget(second) {
		t.Fatal("Forget on an unlisted path should report false")
	}
}

func TestAddFileOutsideRootSurvivesRescan(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(t.TempDir(), "download.wad")
	testsupport.WriteWad(t, outside)

	ix := index.New(nil, index.WithRoot(root))
	if _, err := ix.AddFile(context.Background(), outside); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if err := ix.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if ix.Len() != 1 || len(ix.CacheKeys()) != 1 {
		t.Fatalf("added file lost on rescan: %+v", ix.Wads())
	}
}

func TestPersistFailureIsReportedButRunSucceeds(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteWad(t, filepath.Join(dir, "a.wad"))
	store := &memStore{err: errors.New("disk full")}

	ix := index.New(store, index.WithRoot(dir))
	if err := ix.Run(context.Background()); err != nil {
		t.Fatalf("Run should tolerate save failures: %v", err)
	}
	if !ix.Dirty() {
		t.Fatal("failed save must leave the index dirty")
	}
	if err := ix.Persist(context.Background()); err == nil {
		t.Fatal("Persist should return the save error")
	}
	if ix.Len() != 1 {
		t.Fatal("index must stay usable after a failed save")
	}
}

func TestRunWithFileStore(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteWad(t, filepath.Join(dir, "plutonia.wad"))
	cachePath := filepath.Join(t.TempDir(), "cache.json")

	first := index.New(wadcache.NewStore(cachePath, nil), index.WithRoot(dir))
	if err := first.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	second := index.New(wadcache.NewStore(cachePath, nil), index.WithRoot(dir))
	if err := second.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats := second.Stats(); stats.Hits != 1 || stats.Misses != 0 {
		t.Fatalf("second run should be served from the cache file: %+v", stats)
	}
	if bases := second.BaseAssets(); len(bases) != 1 || bases[0].Record.BaseAssetName != "PLUTONIA.WAD" {
		t.Fatalf("unexpected base assets %+v", bases)
	}
}

func TestScanMissingRootFails(t *testing.T) {
	ix := index.New(nil, index.WithRoot(filepath.Join(t.TempDir(), "missing")))
	if err := ix.Scan(context.Background()); err == nil {
		t.Fatal("expected error for missing root")
	}
}
