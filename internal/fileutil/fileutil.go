// Package fileutil copies downloaded archives into the scan root.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	digest "github.com/opencontainers/go-digest"
)

// CopyFileVerified streams src to dst and re-reads dst to confirm it carries
// the same SHA-256 digest and size. Removes dst on mismatch.
func CopyFileVerified(src, dst string) (digest.Digest, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = out.Close()
	}()

	digester := digest.SHA256.Digester()
	written, err := io.Copy(io.MultiWriter(out, digester.Hash()), in)
	if err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	want := digester.Digest()

	if err := verify(dst, want, written); err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return want, nil
}

func verify(path string, want digest.Digest, size int64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	verifier := want.Verifier()
	read, err := io.Copy(verifier, f)
	if err != nil {
		return err
	}
	if read != size {
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", size, read)
	}
	if !verifier.Verified() {
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return nil
}

// ImportFile copies src into dir under its own base name. An existing file
// with that name is never overwritten. The copy lands under a temporary name
// first so a scanner never sees a partial archive.
func ImportFile(src, dir string) (string, error) {
	dst := filepath.Join(dir, filepath.Base(src))
	if _, err := os.Stat(dst); err == nil {
		return "", fmt.Errorf("import %s: %w", dst, fs.ErrExist)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("import %s: %w", dst, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create destination: %w", err)
	}

	part := dst + ".part"
	if _, err := CopyFileVerified(src, part); err != nil {
		return "", fmt.Errorf("copy %s: %w", src, err)
	}
	if err := os.Rename(part, dst); err != nil {
		_ = os.Remove(part)
		return "", fmt.Errorf("rename %s: %w", part, err)
	}
	return dst, nil
}
