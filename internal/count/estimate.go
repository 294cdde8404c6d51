package count

import (
	"errors"
	"math"

	"github.com/AgResearch/tardis/internal/sniff"
)

// Estimation constants.
const (
	// CorrectionThreshold is the file size from which compressed inputs get
	// the empirical correction.
	CorrectionThreshold = 100_000_000
	bytesPerGB          = 1_000_000_000

	minAdjustment = 0.8
	maxAdjustment = 1.0
)

// ErrEmptyPreview is returned when the preview artifact has no bytes to
// extrapolate from.
var ErrEmptyPreview = errors.New("preview artifact is empty")

// Inputs are the measurements an estimate is made from.
type Inputs struct {
	Sampled     int64 // records written to the preview
	Exhausted   bool  // the whole file was consumed while sampling
	Format      sniff.Format
	FileSize    int64 // bytes of the original file
	PreviewSize int64 // bytes of the preview artifact
}

// Estimate extrapolates a record count from a preview sample. When the
// sample consumed the whole file the sampled count is exact and returned
// as is.
func Estimate(in Inputs) (int64, error) {
	if in.Exhausted {
		return in.Sampled, nil
	}
	if in.PreviewSize <= 0 {
		return 0, ErrEmptyPreview
	}

	raw := float64(in.Sampled) * float64(in.FileSize) / float64(in.PreviewSize)
	if in.FileSize < CorrectionThreshold || !in.Format.Compressed() {
		return round(raw), nil
	}
	return round(Adjustment(float64(in.FileSize)/bytesPerGB) * raw), nil
}

// Adjustment is the correction factor for a compressed file of x GB.
//
// The cubic was fitted to a small calibration set of large compressed
// FASTQ files and is kept unchanged so estimates stay comparable with
// earlier runs. It can be replaced wholesale; the clamp bounds its effect
// to [0.8, 1.0].
func Adjustment(x float64) float64 {
	adj := 0.001*x*x*x - 0.0256*x*x + 0.1717*x + 0.6475
	return math.Max(minAdjustment, math.Min(maxAdjustment, adj))
}

// round adds one half and truncates.
func round(v float64) int64 {
	return int64(v + 0.5)
}
