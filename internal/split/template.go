package split

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrBadTemplate is returned for a chunk template without exactly one
// integer verb.
var ErrBadTemplate = errors.New("chunk template must contain exactly one integer verb")

// compressionSuffixes are stripped from input names when deriving chunk names.
var compressionSuffixes = []string{".gz", ".zip", ".bz2", ".xz", ".Z"}

// ValidateTemplate checks that t renders one chunk ordinal: exactly one %d
// verb, optionally with flags and a width. "%%" is a literal percent.
func ValidateTemplate(t string) error {
	verbs := 0
	for i := 0; i < len(t); i++ {
		if t[i] != '%' {
			continue
		}
		i++
		if i < len(t) && t[i] == '%' {
			continue
		}
		for i < len(t) && strings.IndexByte("+-# 0", t[i]) >= 0 {
			i++
		}
		for i < len(t) && t[i] >= '0' && t[i] <= '9' {
			i++
		}
		if i >= len(t) || t[i] != 'd' {
			return fmt.Errorf("%w: %q", ErrBadTemplate, t)
		}
		verbs++
	}
	if verbs != 1 {
		return fmt.Errorf("%w: %q has %d", ErrBadTemplate, t, verbs)
	}
	return nil
}

// TemplateFor derives a chunk template from an input path:
// <outDir>/<base>.%05d<ext>, with any compression suffix dropped.
func TemplateFor(input, outDir string) string {
	name := stripCompression(filepath.Base(input))
	ext := filepath.Ext(name)
	stem := strings.ReplaceAll(strings.TrimSuffix(name, ext), "%", "%%")
	ext = strings.ReplaceAll(ext, "%", "%%")
	return filepath.Join(outDir, stem+".%05d"+ext)
}

// StatsPathFor derives the stats file path for an input:
// <outDir>/<base><ext>.chunk_stats$.
func StatsPathFor(input, outDir string) string {
	return filepath.Join(outDir, stripCompression(filepath.Base(input))+".chunk_stats$")
}

// ScaleChunkSize converts a pre-sampling chunk size into the number of
// accepted records per chunk for proportion p. The result is at least 1.
func ScaleChunkSize(size int64, p float64) int64 {
	return max(1, int64(p*float64(size)+0.5))
}

func stripCompression(name string) string {
	for _, suffix := range compressionSuffixes {
		if trimmed, ok := strings.CutSuffix(name, suffix); ok && trimmed != "" {
			return trimmed
		}
	}
	return name
}
