package lumps

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"

	"wadindex/internal/wad"
)

// ErrMemberTooLarge is returned by ReadInnerWad when a member exceeds the limit.
var ErrMemberTooLarge = errors.New("zip member exceeds size limit")

// OpenZip opens a zip container from disk with zstd support registered.
// The caller must close the returned ReadCloser.
func OpenZip(name string) (*zip.ReadCloser, error) {
	rc, err := zip.OpenReader(name)
	if err != nil {
		return nil, err
	}
	registerDecompressors(&rc.Reader)
	return rc, nil
}

func registerDecompressors(zr *zip.Reader) {
	zr.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())
	zr.RegisterDecompressor(zstd.ZipMethodPKWare, zstd.ZipDecompressor())
}

// InnerWads returns the members whose base name carries a .wad extension, in
// zip directory order.
func InnerWads(zr *zip.Reader) []*zip.File {
	var out []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if strings.EqualFold(path.Ext(f.Name), ".wad") {
			out = append(out, f)
		}
	}
	return out
}

// ReadInnerWad decompresses a member into memory and opens it as a WAD.
// A limit <= 0 disables the size check.
func ReadInnerWad(f *zip.File, limit int64) (*wad.File, error) {
	if limit > 0 && f.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("%s: %w (%d > %d bytes)", f.Name, ErrMemberTooLarge, f.UncompressedSize64, limit)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open member %s: %w", f.Name, err)
	}
	defer rc.Close()

	reader := io.Reader(rc)
	if limit > 0 {
		reader = io.LimitReader(rc, limit+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read member %s: %w", f.Name, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%s: %w", f.Name, ErrMemberTooLarge)
	}
	parsed, err := wad.OpenBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse member %s: %w", f.Name, err)
	}
	return parsed, nil
}
