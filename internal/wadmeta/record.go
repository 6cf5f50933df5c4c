package wadmeta

import (
	"path/filepath"
	"strings"
)

// Record is the metadata extracted for one asset file. Optional fields are
// empty when no source supplied them.
type Record struct {
	Name          string `json:"name"`
	Title         string `json:"title,omitempty"`
	IsBaseAsset   bool   `json:"is_base_asset,omitempty"`
	BaseAssetName string `json:"base_asset_name,omitempty"`
	CompatLevel   string `json:"compat_level,omitempty"`
	CompatHint    string `json:"compat_hint,omitempty"`
}

// DisplayName prefers the declared title over the file-derived name.
func (r Record) DisplayName() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

const wadExt = ".WAD"

// knownBaseAssets lists the commercial and shareware IWADs recognised by
// filename, keyed by their canonical upper-case form.
var knownBaseAssets = map[string]struct{}{
	"DOOM1.WAD":    {},
	"DOOM.WAD":     {},
	"DOOM2.WAD":    {},
	"TNT.WAD":      {},
	"PLUTONIA.WAD": {},
	"HERETIC1.WAD": {},
	"HERETIC.WAD":  {},
	"HEXEN.WAD":    {},
	"HEXDD.WAD":    {},
	"STRIFE0.WAD":  {},
	"STRIFE1.WAD":  {},
	"VOICES.WAD":   {},
}

// CanonicalBaseAsset returns the canonical name of a known base asset
// filename, ignoring case and any directory part.
func CanonicalBaseAsset(fileName string) (string, bool) {
	canonical := strings.ToUpper(filepath.Base(fileName))
	if _, ok := knownBaseAssets[canonical]; ok {
		return canonical, true
	}
	return "", false
}

// IsKnownBaseAsset reports whether fileName is on the base asset allow-list.
func IsKnownBaseAsset(fileName string) bool {
	_, ok := CanonicalBaseAsset(fileName)
	return ok
}

func withWadExt(name string) string {
	if strings.HasSuffix(name, wadExt) {
		return name
	}
	return name + wadExt
}
