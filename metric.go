package pyjamaz

import (
	"fmt"
	"math"
)

// diff computes the perceptual distance between a baseline and a candidate
// PixelBuffer under the requested metric. Lower is always more similar;
// MetricNone always reports 0.0 (the quality gate is disabled).
func diff(baseline, candidate *PixelBuffer, metric Metric) (float64, error) {
	if baseline == nil || candidate == nil {
		return 0, fmt.Errorf("%w: nil buffer passed to diff", ErrInvalidImage)
	}
	if baseline.Width != candidate.Width || baseline.Height != candidate.Height {
		return 0, fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch,
			baseline.Width, baseline.Height, candidate.Width, candidate.Height)
	}

	switch metric {
	case MetricNone:
		return 0, nil
	case MetricDSSIM:
		return dssim(baseline, candidate), nil
	case MetricSSIMULACRA2:
		return ssimulacra2Distance(baseline, candidate), nil
	case MetricButteraugli:
		return 0, fmt.Errorf("%w: butteraugli", ErrUnsupported)
	default:
		return 0, fmt.Errorf("%w: unknown metric %d", ErrComputeFailed, int(metric))
	}
}

// dssim converts the teacher's windowed SSIM into the structural-dissimilarity
// scale: 0 means identical, rising toward 1 (SSIM of -1) as images diverge.
func dssim(a, b *PixelBuffer) float64 {
	ssim := SSIMFast(a.ToNRGBA(), b.ToNRGBA())
	d := (1 - ssim) / 2
	if d < 0 {
		return 0
	}
	return d
}

// ssimulacra2Distance approximates an SSIMULACRA2-style distance. A true
// SSIMULACRA2 implementation works in an XYB color space across six scales;
// lacking a groundable reference for that here, this reuses the teacher's
// MSSSIM (multi-scale SSIM) as the 0-100 "score" input to the same
// score-to-distance conversion SSIMULACRA2 itself defines:
//
//	distance = exp((100 - score) / 20) * 1e-4
//
// so a MaxDiff tuned against real SSIMULACRA2 output stays in the right
// ballpark against this approximation.
func ssimulacra2Distance(a, b *PixelBuffer) float64 {
	msssim := MSSSIM(a.ToNRGBA(), b.ToNRGBA())
	score := msssim * 100
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return math.Exp((100-score)/20) * 1e-4
}
