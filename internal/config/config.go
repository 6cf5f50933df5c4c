package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	ScanRoot  string `toml:"scan_root"`
	CacheFile string `toml:"cache_file"`
	LogDir    string `toml:"log_dir"`
}

// Cache controls the persistent metadata cache.
type Cache struct {
	Enabled  bool   `toml:"enabled"`
	Identity string `toml:"identity"` // "sha256" or "mtime"
}

// Scan controls directory scanning and container parsing.
type Scan struct {
	// Strict aborts a scan on the first container that cannot be opened
	// instead of skipping it with a warning.
	Strict bool `toml:"strict"`
	// MaxMemberMiB bounds the size of a .wad member read out of a zip.
	MaxMemberMiB int `toml:"max_member_mib"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for wadindex.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Cache   Cache   `toml:"cache"`
	Scan    Scan    `toml:"scan"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the per-user configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath(defaultConfigPath)
}

// Load reads the configuration at path, or searches the per-user location and
// then ./wadindex.toml when path is empty. Missing files yield defaults. The
// returned config is normalized and validated; the string and bool report the
// file that was (or would have been) read and whether it existed.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// locate picks the first existing candidate. When none exists the first
// candidate is reported so callers can say where a file would be read from.
func locate(explicit string) (string, bool, error) {
	var candidates []string
	if strings.TrimSpace(explicit) != "" {
		p, err := ExpandPath(explicit)
		if err != nil {
			return "", false, err
		}
		candidates = []string{p}
	} else {
		user, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		project, err := ExpandPath(projectConfigName)
		if err != nil {
			return "", false, err
		}
		candidates = []string{user, project}
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		switch {
		case err == nil && !info.IsDir():
			return candidate, true, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", false, fmt.Errorf("stat config %s: %w", candidate, err)
		}
	}
	return candidates[0], false, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(cfg)
	var decodeErr *toml.DecodeError
	var strictErr *toml.StrictMissingError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &decodeErr):
		row, col := decodeErr.Position()
		return fmt.Errorf("parse config %s:%d:%d: %w", path, row, col, err)
	case errors.As(err, &strictErr):
		return fmt.Errorf("parse config %s: unknown settings\n%s", path, strictErr.String())
	default:
		return fmt.Errorf("parse config %s: %w", path, err)
	}
}

// MaxMemberBytes converts the configured member limit to bytes.
func (c *Config) MaxMemberBytes() int64 {
	return int64(c.Scan.MaxMemberMiB) << 20
}

// ExpandPath trims value, expands environment variables and a leading ~, and
// makes the result absolute. An empty value stays empty.
func ExpandPath(value string) (string, error) {
	value = os.ExpandEnv(strings.TrimSpace(value))
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") || strings.HasPrefix(value, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, value[1:])
	}
	absolute, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", value, err)
	}
	return absolute, nil
}

// CreateSample writes the commented sample configuration to path, creating
// parent directories.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
