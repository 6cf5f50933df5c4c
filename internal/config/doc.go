// Package config loads and validates wadindex configuration.
//
// Configuration is TOML. Lookup order is an explicit path, then
// ~/.config/wadindex/config.toml, then ./wadindex.toml; when no file exists
// the defaults apply. Paths are expanded (~, environment variables) and made
// absolute, and WADINDEX_SCAN_ROOT / WADINDEX_CACHE_FILE override the file.
package config
