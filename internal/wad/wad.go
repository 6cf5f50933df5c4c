package wad

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	headerSize    = 12
	directorySize = 16
	nameSize      = 8
)

// ErrInvalidWad reports a container whose header or directory cannot be trusted.
var ErrInvalidWad = errors.New("invalid wad")

// Kind identifies the container flavour stored in the header magic.
type Kind string

const (
	KindIWAD Kind = "IWAD"
	KindPWAD Kind = "PWAD"
)

// Lump is one directory record.
type Lump struct {
	Name   string
	Offset int64
	Size   int64
}

// File is an opened WAD container. It holds the directory in memory and reads
// lump bodies on demand from the underlying ReaderAt.
type File struct {
	r     io.ReaderAt
	size  int64
	kind  Kind
	lumps []Lump
}

// Open parses the header and directory of a WAD container of the given size.
func Open(r io.ReaderAt, size int64) (*File, error) {
	if size < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrInvalidWad, size)
	}

	var header [headerSize]byte
	if _, err := r.ReadAt(header[:], 0); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	kind := Kind(header[:4])
	if kind != KindIWAD && kind != KindPWAD {
		return nil, fmt.Errorf("%w: unknown identification %q", ErrInvalidWad, string(header[:4]))
	}

	count := int64(int32(binary.LittleEndian.Uint32(header[4:8])))
	dirOffset := int64(int32(binary.LittleEndian.Uint32(header[8:12])))
	if count < 0 || dirOffset < 0 {
		return nil, fmt.Errorf("%w: negative directory fields", ErrInvalidWad)
	}
	if dirOffset+count*directorySize > size {
		return nil, fmt.Errorf("%w: directory of %d entries at %d exceeds %d bytes", ErrInvalidWad, count, dirOffset, size)
	}

	dir := make([]byte, count*directorySize)
	if len(dir) > 0 {
		if _, err := r.ReadAt(dir, dirOffset); err != nil {
			return nil, fmt.Errorf("read directory: %w", err)
		}
	}

	lumps := make([]Lump, 0, count)
	for i := int64(0); i < count; i++ {
		rec := dir[i*directorySize : (i+1)*directorySize]
		lump := Lump{
			Offset: int64(int32(binary.LittleEndian.Uint32(rec[0:4]))),
			Size:   int64(int32(binary.LittleEndian.Uint32(rec[4:8]))),
			Name:   lumpName(rec[8:16]),
		}
		if lump.Offset < 0 || lump.Size < 0 || lump.Offset+lump.Size > size {
			return nil, fmt.Errorf("%w: lump %q out of bounds", ErrInvalidWad, lump.Name)
		}
		lumps = append(lumps, lump)
	}

	return &File{r: r, size: size, kind: kind, lumps: lumps}, nil
}

// OpenBytes parses a WAD container held in memory.
func OpenBytes(data []byte) (*File, error) {
	return Open(bytes.NewReader(data), int64(len(data)))
}

// Kind returns the header identification.
func (f *File) Kind() Kind { return f.kind }

// Lumps returns a copy of the directory in on-disk order.
func (f *File) Lumps() []Lump {
	out := make([]Lump, len(f.lumps))
	copy(out, f.lumps)
	return out
}

// Lookup finds the first directory entry whose name equals name exactly.
func (f *File) Lookup(name string) (Lump, bool) {
	for _, lump := range f.lumps {
		if lump.Name == name {
			return lump, true
		}
	}
	return Lump{}, false
}

// ReadLump returns the body of a lump taken from this file's directory.
func (f *File) ReadLump(lump Lump) ([]byte, error) {
	if lump.Size == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, lump.Size)
	n, err := f.r.ReadAt(buf, lump.Offset)
	if err != nil && !(errors.Is(err, io.EOF) && int64(n) == lump.Size) {
		return nil, fmt.Errorf("read lump %q: %w", lump.Name, err)
	}
	return buf, nil
}

// lumpName trims the NUL padding of a fixed-width directory name.
func lumpName(raw []byte) string {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return string(raw)
}
