package lumps_test

import (
	"errors"
	"path/filepath"
	"testing"

	"wadindex/internal/lumps"
	"wadindex/internal/testsupport"
	"wadindex/internal/wad"
)

func TestWadSourceReadsLumpText(t *testing.T) {
	f, err := wad.OpenBytes(testsupport.WadBytes("PWAD",
		testsupport.Lump{Name: "WADINFO", Data: "\xEF\xBB\xBFTitle: Sunder"},
		testsupport.Lump{Name: "GAMEINFO", Data: "startuptitle = \"Caf\xe9\""},
	))
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	src := lumps.FromWad(f)

	got, ok := src.TryRead("WADINFO")
	if !ok || got != "Title: Sunder" {
		t.Fatalf("WADINFO = %q, %v", got, ok)
	}
	got, ok = src.TryRead("GAMEINFO")
	if !ok || got != "startuptitle = \"Café\"" {
		t.Fatalf("GAMEINFO = %q, %v (expected Windows-1252 decoding)", got, ok)
	}
	if _, ok := src.TryRead("COMPLVL"); ok {
		t.Fatal("missing lump should report not found")
	}
}

func TestZipSourceExactNamesAndZstd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pack.pk3")
	testsupport.WriteZip(t, path,
		testsupport.ZipMember{Name: "COMPLVL", Data: []byte("21")},
		testsupport.ZipMember{Name: "GAMEINFO", Data: []byte("iwad = doom2"), Zstd: true},
		testsupport.ZipMember{Name: "maps/WADINFO", Data: []byte("Title: nested")},
	)

	rc, err := lumps.OpenZip(path)
	if err != nil {
		t.Fatalf("OpenZip: %v", err)
	}
	defer rc.Close()

	src := lumps.FromZip(&rc.Reader)
	if got, ok := src.TryRead("COMPLVL"); !ok || got != "21" {
		t.Fatalf("COMPLVL = %q, %v", got, ok)
	}
	if got, ok := src.TryRead("GAMEINFO"); !ok || got != "iwad = doom2" {
		t.Fatalf("GAMEINFO = %q, %v", got, ok)
	}
	if _, ok := src.TryRead("WADINFO"); ok {
		t.Fatal("nested entry must not match a bare name")
	}
	if _, ok := src.TryRead("complvl"); ok {
		t.Fatal("zip lookup must be exact")
	}
}

func TestInnerWadsKeepsDirectoryOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.zip")
	first := testsupport.WadBytes("PWAD", testsupport.Lump{Name: "COMPLVL", Data: "9"})
	second := testsupport.WadBytes("PWAD", testsupport.Lump{Name: "COMPLVL", Data: "11"})
	testsupport.WriteZip(t, path,
		testsupport.ZipMember{Name: "readme.txt", Data: []byte("hello")},
		testsupport.ZipMember{Name: "b/SECOND.WAD", Data: second},
		testsupport.ZipMember{Name: "a/first.wad", Data: first},
	)

	rc, err := lumps.OpenZip(path)
	if err != nil {
		t.Fatalf("OpenZip: %v", err)
	}
	defer rc.Close()

	inner := lumps.InnerWads(&rc.Reader)
	if len(inner) != 2 {
		t.Fatalf("inner wads = %d, want 2", len(inner))
	}
	if inner[0].Name != "b/SECOND.WAD" || inner[1].Name != "a/first.wad" {
		t.Fatalf("unexpected order: %s, %s", inner[0].Name, inner[1].Name)
	}

	f, err := lumps.ReadInnerWad(inner[0], 0)
	if err != nil {
		t.Fatalf("ReadInnerWad: %v", err)
	}
	if got, ok := lumps.FromWad(f).TryRead("COMPLVL"); !ok || got != "11" {
		t.Fatalf("COMPLVL = %q, %v", got, ok)
	}

	if _, err := lumps.ReadInnerWad(inner[1], 4); !errors.Is(err, lumps.ErrMemberTooLarge) {
		t.Fatalf("err = %v, want ErrMemberTooLarge", err)
	}
}
