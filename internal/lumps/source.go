package lumps

import (
	"bytes"
	"io"
	"unicode/utf8"

	"github.com/klauspost/compress/zip"
	"golang.org/x/text/encoding/charmap"

	"wadindex/internal/wad"
)

// Source exposes read-only access to named members of a container.
// A missing member is reported as ok=false, never as an error.
type Source interface {
	TryRead(name string) (string, bool)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(name string) (string, bool)

// TryRead implements Source.
func (f SourceFunc) TryRead(name string) (string, bool) { return f(name) }

type wadSource struct {
	file *wad.File
}

// FromWad returns a Source over the lumps of a WAD container.
func FromWad(f *wad.File) Source {
	return wadSource{file: f}
}

func (s wadSource) TryRead(name string) (string, bool) {
	if s.file == nil {
		return "", false
	}
	lump, ok := s.file.Lookup(name)
	if !ok {
		return "", false
	}
	body, err := s.file.ReadLump(lump)
	if err != nil {
		return "", false
	}
	return decodeText(body), true
}

type zipSource struct {
	reader *zip.Reader
}

// FromZip returns a Source over the entries of a zip archive. Entry names
// must match exactly, including any directory prefix.
func FromZip(r *zip.Reader) Source {
	return zipSource{reader: r}
}

func (s zipSource) TryRead(name string) (string, bool) {
	if s.reader == nil {
		return "", false
	}
	for _, f := range s.reader.File {
		if f.Name != name || f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", false
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", false
		}
		return decodeText(body), true
	}
	return "", false
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText turns lump bytes into text. Valid UTF-8 is used as-is; anything
// else is treated as Windows-1252, which covers the text files shipped with
// most older releases.
func decodeText(body []byte) string {
	body = bytes.TrimPrefix(body, utf8BOM)
	if utf8.Valid(body) {
		return string(body)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(body)
	if err != nil {
		return string(bytes.ToValidUTF8(body, []byte("�")))
	}
	return string(decoded)
}
