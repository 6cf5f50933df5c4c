package testsupport

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

// Lump is a named member of a generated WAD fixture.
type Lump struct {
	Name string
	Data string
}

// ZipMember is a named entry of a generated zip fixture. Zstd selects the
// zstd compression method instead of deflate.
type ZipMember struct {
	Name string
	Data []byte
	Zstd bool
}

// WadBytes encodes lumps as a WAD container with the given identification
// (IWAD or PWAD). Names longer than eight bytes are truncated.
func WadBytes(kind string, lumps ...Lump) []byte {
	var body bytes.Buffer
	type record struct {
		offset int32
		size   int32
		name   [8]byte
	}
	records := make([]record, 0, len(lumps))
	for _, lump := range lumps {
		rec := record{offset: int32(12 + body.Len()), size: int32(len(lump.Data))}
		copy(rec.name[:], lump.Name)
		records = append(records, rec)
		body.WriteString(lump.Data)
	}

	var out bytes.Buffer
	out.WriteString(kind)
	_ = binary.Write(&out, binary.LittleEndian, int32(len(records)))
	_ = binary.Write(&out, binary.LittleEndian, int32(12+body.Len()))
	out.Write(body.Bytes())
	for _, rec := range records {
		_ = binary.Write(&out, binary.LittleEndian, rec.offset)
		_ = binary.Write(&out, binary.LittleEndian, rec.size)
		out.Write(rec.name[:])
	}
	return out.Bytes()
}

// WriteWad writes a PWAD fixture to path, creating parent directories.
func WriteWad(t testing.TB, path string, lumps ...Lump) {
	t.Helper()
	writeBytes(t, path, WadBytes("PWAD", lumps...))
}

// WriteZip writes a zip fixture with members in the given order.
func WriteZip(t testing.TB, path string, members ...ZipMember) {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zstd.ZipMethodWinZip, zstd.ZipCompressor())
	for _, member := range members {
		method := zip.Deflate
		if member.Zstd {
			method = zstd.ZipMethodWinZip
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: member.Name, Method: method})
		if err != nil {
			t.Fatalf("create zip member %s: %v", member.Name, err)
		}
		if _, err := w.Write(member.Data); err != nil {
			t.Fatalf("write zip member %s: %v", member.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip %s: %v", path, err)
	}
	writeBytes(t, path, buf.Bytes())
}

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	writeBytes(t, path, bytes.Repeat([]byte{0x42}, int(size)))
}

// Touch sets the modification time of path.
func Touch(t testing.TB, path string, mtime time.Time) {
	t.Helper()
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func writeBytes(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Chdir changes the working directory to dir and restores the previous one
// when the test finishes (stand-in for testing.T.Chdir on Go < 1.24).
func Chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
