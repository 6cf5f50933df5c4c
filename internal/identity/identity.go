package identity

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	digest "github.com/opencontainers/go-digest"
)

const (
	// NameContent keys files by name and SHA-256 of their bytes.
	NameContent = "sha256"
	// NameModTime keys files by name and modification time.
	NameModTime = "mtime"

	modTimeLayout = "20060102150405"
)

// Key joins a file name and an identity token into a cache key.
func Key(fileName, token string) string {
	return filepath.Base(fileName) + ":" + token
}

// Strategy derives the identity token of a file on disk.
type Strategy interface {
	Name() string
	Token(path string, info fs.FileInfo) (string, error)
}

// ModTime identifies files by their modification time at one-second
// resolution in UTC. It never reads file content, so an edit that preserves
// the timestamp goes unnoticed and a touch forces a re-parse.
type ModTime struct{}

func (ModTime) Name() string { return NameModTime }

func (ModTime) Token(_ string, info fs.FileInfo) (string, error) {
	if info == nil {
		return "", fmt.Errorf("mtime identity: missing file info")
	}
	return info.ModTime().UTC().Format(modTimeLayout), nil
}

// Content identifies files by a SHA-256 digest of their bytes. Every file is
// read in full once per scan, but any byte-level change is detected no matter
// what happened to the timestamp.
type Content struct{}

func (Content) Name() string { return NameContent }

func (Content) Token(path string, _ fs.FileInfo) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for hashing: %w", err)
	}
	defer f.Close()

	d, err := digest.SHA256.FromReader(f)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return d.String(), nil
}

// Parse resolves a configured strategy name. An empty name selects Content.
func Parse(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameContent:
		return Content{}, nil
	case NameModTime:
		return ModTime{}, nil
	default:
		return nil, fmt.Errorf("unknown identity strategy %q (want %q or %q)", name, NameContent, NameModTime)
	}
}

// FileKey stats path and computes its key under s.
func FileKey(s Strategy, path string) (string, fs.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, err
	}
	token, err := s.Token(path, info)
	if err != nil {
		return "", nil, err
	}
	return Key(path, token), info, nil
}
