package wadcache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"wadindex/internal/wadmeta"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "nested", "cache.json")
	store := NewStore(cachePath, nil)

	entries := map[string]wadmeta.Record{
		"doom2.wad:20240101000000": {Name: "doom2", IsBaseAsset: true, BaseAssetName: "DOOM2.WAD"},
		"sigil.wad:20240101000000": {Name: "sigil", Title: "SIGIL", CompatHint: "Boom"},
	}
	if err := store.Save(context.Background(), entries); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := NewStore(cachePath, nil).Load()
	if len(loaded) != len(entries) {
		t.Fatalf("loaded %d entries, want %d", len(loaded), len(entries))
	}
	for key, want := range entries {
		if got := loaded[key]; got != want {
			t.Errorf("entry %s = %+v, want %+v", key, got, want)
		}
	}

	if _, err := os.Stat(cachePath + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file should not remain after save, stat err=%v", err)
	}
}

func TestSaveOverwritesPreviousContent(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	store := NewStore(cachePath, nil)
	ctx := context.Background()

	if err := store.Save(ctx, map[string]wadmeta.Record{"a.wad:1": {Name: "a"}}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, map[string]wadmeta.Record{"b.wad:1": {Name: "b"}}); err != nil {
		t.Fatal(err)
	}

	loaded := store.Load()
	if _, ok := loaded["a.wad:1"]; ok {
		t.Error("stale entry survived overwrite")
	}
	if loaded["b.wad:1"].Name != "b" {
		t.Errorf("missing new entry: %+v", loaded)
	}
}

func TestLoadDegradesToEmpty(t *testing.T) {
	tests := []struct {
		name    string
		content *string
	}{
		{name: "missing"},
		{name: "zero length", content: ptr("")},
		{name: "malformed", content: ptr("{not json")},
		{name: "version mismatch", content: ptr(`{"version": 99, "entries": {"a.wad:1": {"name": "a"}}}`)},
		{name: "version absent", content: ptr(`{"entries": {"a.wad:1": {"name": "a"}}}`)},
		{name: "wrong shape", content: ptr(`[1, 2, 3]`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cachePath := filepath.Join(t.TempDir(), "cache.json")
			if tt.content != nil {
				if err := os.WriteFile(cachePath, []byte(*tt.content), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			loaded := NewStore(cachePath, nil).Load()
			if loaded == nil || len(loaded) != 0 {
				t.Fatalf("expected empty non-nil map, got %#v", loaded)
			}
		})
	}
}

func TestLoadEmptyEntries(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(cachePath, []byte(`{"version": 1, "entries": null}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if loaded := NewStore(cachePath, nil).Load(); loaded == nil || len(loaded) != 0 {
		t.Fatalf("expected empty map, got %#v", loaded)
	}
}

func TestClearAndStat(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	store := NewStore(cachePath, nil)

	if status := store.Stat(); status.Exists || status.Problem != "" {
		t.Fatalf("unexpected status for missing file: %+v", status)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear on missing file: %v", err)
	}

	if err := store.Save(context.Background(), map[string]wadmeta.Record{"a.wad:1": {Name: "a"}}); err != nil {
		t.Fatal(err)
	}
	status := store.Stat()
	if !status.Exists || !status.Compatible || status.Entries != 1 || status.Version != Version || status.SizeBytes == 0 {
		t.Fatalf("unexpected status: %+v", status)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := os.Stat(cachePath); !os.IsNotExist(err) {
		t.Fatalf("cache file should be gone, stat err=%v", err)
	}
}

func TestStatReportsIncompatibleVersion(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(cachePath, []byte(`{"version": 0, "entries": {}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	status := NewStore(cachePath, nil).Stat()
	if status.Compatible || status.Problem == "" {
		t.Fatalf("expected incompatible status, got %+v", status)
	}
}

func TestSaveFailsWhileAnotherWriterHoldsTheLock(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	store := NewStore(cachePath, nil)
	if err := store.Save(context.Background(), map[string]wadmeta.Record{"a.wad:1": {Name: "a"}}); err != nil {
		t.Fatal(err)
	}

	other := flock.New(cachePath + ".lock")
	if ok, err := other.TryLock(); err != nil || !ok {
		t.Fatalf("acquire competing lock: ok=%v err=%v", ok, err)
	}
	defer func() { _ = other.Unlock() }()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := store.Save(ctx, map[string]wadmeta.Record{"b.wad:1": {Name: "b"}}); err == nil {
		t.Fatal("expected Save to fail while the lock is held")
	}

	loaded := store.Load()
	if _, ok := loaded["a.wad:1"]; !ok || len(loaded) != 1 {
		t.Fatalf("cache changed despite failed save: %+v", loaded)
	}
}

func TestEmptyPathIsNoop(t *testing.T) {
	store := NewStore("", nil)
	if err := store.Save(context.Background(), map[string]wadmeta.Record{"a.wad:1": {}}); err != nil {
		t.Fatalf("Save with empty path: %v", err)
	}
	if got := store.Load(); len(got) != 0 {
		t.Fatalf("Load with empty path returned %v", got)
	}
}

func ptr(s string) *string { return &s }
