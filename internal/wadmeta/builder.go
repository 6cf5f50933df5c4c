package wadmeta

import (
	"path/filepath"
	"regexp"
	"strings"

	"wadindex/internal/lumps"
)

const (
	lumpCompLevel = "COMPLVL"
	lumpGameInfo  = "GAMEINFO"
	lumpWadInfo   = "WADINFO"
)

var (
	gameInfoTitlePattern = regexp.MustCompile(`(?im)^startuptitle\s*=\s*(.+)$`)
	gameInfoIwadPattern  = regexp.MustCompile(`(?im)^iwad\s*=\s*(.+)$`)
	wadInfoTitlePattern  = regexp.MustCompile(`(?im)^Title\s*:\s*(.+)$`)
	wadInfoEnginePattern = regexp.MustCompile(`(?im)^Advanced\s+engine\s+needed\s*:\s*(.+)$`)
	wadInfoGamePattern   = regexp.MustCompile(`(?im)^Game\s*:\s*(.+)$`)
)

// Builder accumulates a Record from any number of lump sources. Every field
// is first-writer-wins: once set, later sources cannot change it.
type Builder struct {
	rec Record
}

// NewBuilder seeds a record from the file path: the name without extension
// and, for allow-listed filenames, the base asset flag and canonical name.
func NewBuilder(path string) *Builder {
	base := filepath.Base(path)
	b := &Builder{rec: Record{Name: strings.TrimSuffix(base, filepath.Ext(base))}}
	if canonical, ok := CanonicalBaseAsset(base); ok {
		b.rec.IsBaseAsset = true
		b.rec.BaseAssetName = canonical
	}
	return b
}

// Add extracts whatever the source provides. Missing lumps and unparseable
// content leave fields untouched.
func (b *Builder) Add(src lumps.Source) *Builder {
	if src == nil {
		return b
	}
	if b.rec.CompatLevel == "" {
		if value, ok := src.TryRead(lumpCompLevel); ok {
			setIfAbsent(&b.rec.CompatLevel, strings.TrimSpace(value))
		}
	}
	if lump, ok := src.TryRead(lumpGameInfo); ok {
		b.parseGameInfo(lump)
	}
	if lump, ok := src.TryRead(lumpWadInfo); ok {
		b.parseWadInfo(lump)
	}
	return b
}

// Build returns the finished record.
func (b *Builder) Build() Record {
	return b.rec
}

func (b *Builder) parseWadInfo(lump string) {
	if b.rec.Title == "" {
		if title, ok := extractValue(wadInfoTitlePattern, lump); ok {
			setIfAbsent(&b.rec.Title, title)
		}
	}

	if b.rec.CompatLevel == "" && b.rec.CompatHint == "" {
		if hint, ok := extractValue(wadInfoEnginePattern, lump); ok {
			setIfAbsent(&b.rec.CompatHint, hint)
		}
	}

	if b.rec.BaseAssetName == "" {
		if game, ok := extractValue(wadInfoGamePattern, lump); ok {
			setIfAbsent(&b.rec.BaseAssetName, baseAssetFromGame(game))
		}
	}
}

func (b *Builder) parseGameInfo(lump string) {
	if b.rec.Title == "" {
		if title, ok := extractValue(gameInfoTitlePattern, lump); ok {
			setIfAbsent(&b.rec.Title, title)
		}
	}

	if b.rec.BaseAssetName == "" {
		if iwad, ok := extractValue(gameInfoIwadPattern, lump); ok {
			setIfAbsent(&b.rec.BaseAssetName, withWadExt(strings.ToUpper(iwad)))
		}
	}
}

// baseAssetFromGame maps the free-text Game: line of a WADINFO file to a
// known base asset. Unknown games map to "".
func baseAssetFromGame(game string) string {
	switch {
	case strings.Contains(strings.ToLower(game), "ultimate doom"):
		return "DOOM.WAD"
	case strings.EqualFold(game, "Doom II"):
		return "DOOM2.WAD"
	}
	name := withWadExt(strings.ToUpper(strings.ReplaceAll(game, " ", "")))
	if canonical, ok := CanonicalBaseAsset(name); ok {
		return canonical
	}
	return ""
}

func extractValue(pattern *regexp.Regexp, lump string) (string, bool) {
	m := pattern.FindStringSubmatch(lump)
	if m == nil {
		return "", false
	}
	value := strings.Trim(strings.TrimSpace(m[1]), `"`)
	if strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}

// setIfAbsent assigns value to an empty field. Empty values never count.
func setIfAbsent(field *string, value string) {
	if *field != "" || value == "" {
		return
	}
	*field = value
}
