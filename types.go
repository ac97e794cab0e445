// Package pyjamaz implements a perceptually-guided batch image optimizer.
// Given one or more input images and a set of size/quality constraints, it
// produces the smallest byte output that still satisfies a perceptual
// quality ceiling, chosen across JPEG, PNG, WebP and AVIF candidates.
//
// Pyjamaz — picks the smallest coat that still fits.
//
// The engine decodes an image once, explores a {format}×{quality} candidate
// space under two coupled constraints (byte budget, perceptual distance),
// uses a bounded binary search per format to converge on the budget, and
// always keeps the original file as a non-upscale safety net.
package pyjamaz

import (
	"fmt"
	"math"
	"time"
)

// Version is the library version.
const Version = "1.0.0"

// Format is the closed set of output codecs the optimizer can target.
type Format int

const (
	// FormatUnknown marks an undetected or unsupported container.
	FormatUnknown Format = iota
	FormatJPEG
	FormatPNG
	FormatWebP
	FormatAVIF
)

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	case FormatWebP:
		return "webp"
	case FormatAVIF:
		return "avif"
	default:
		return "unknown"
	}
}

// preference ranks formats for the selector's exact-size tie-break:
// AVIF > WebP > JPEG > PNG > unknown. Higher is better.
func (f Format) preference() int {
	switch f {
	case FormatAVIF:
		return 4
	case FormatWebP:
		return 3
	case FormatJPEG:
		return 2
	case FormatPNG:
		return 1
	default:
		return 0
	}
}

// Metric is the closed set of perceptual-distance functions the quality
// gate can be evaluated under.
type Metric int

const (
	// MetricNone disables the quality gate entirely (diff always 0.0).
	MetricNone Metric = iota
	MetricDSSIM
	MetricSSIMULACRA2
	// MetricButteraugli is a spec-level stub: it always returns
	// ErrUnsupported rather than silently unlocking the quality gate.
	MetricButteraugli
)

func (m Metric) String() string {
	switch m {
	case MetricDSSIM:
		return "dssim"
	case MetricSSIMULACRA2:
		return "ssimulacra2"
	case MetricButteraugli:
		return "butteraugli"
	default:
		return "none"
	}
}

// RecommendedThreshold returns the threshold this metric is commonly paired
// with (dssim 0.01, ssimulacra2-as-distance ≈0.002, none +Inf).
func (m Metric) RecommendedThreshold() float64 {
	switch m {
	case MetricDSSIM:
		return 0.01
	case MetricSSIMULACRA2:
		return 0.002
	default:
		return math.Inf(1)
	}
}

// Orientation describes an EXIF orientation tag value (1..8).
type Orientation int

const (
	OrientNormal      Orientation = 1
	OrientFlipH       Orientation = 2
	OrientRotate180   Orientation = 3
	OrientFlipV       Orientation = 4
	OrientTranspose   Orientation = 5
	OrientRotate90CW  Orientation = 6
	OrientTransverse  Orientation = 7
	OrientRotate270CW Orientation = 8
)

// ImageMetadata describes what the decode layer learned about the source
// file before pixels were normalized into a PixelBuffer.
type ImageMetadata struct {
	Format          Format
	OriginalWidth   int
	OriginalHeight  int
	HasAlpha        bool
	EXIFOrientation Orientation
	ICCProfile      []byte
}

// TransformParams groups the optional pre-encode pixel transforms a Job may
// request: resize, sharpening, ICC handling, and EXIF orientation mode.
type TransformParams struct {
	// MaxWidth/MaxHeight constrain the output while preserving aspect
	// ratio. 0 means no constraint.
	MaxWidth, MaxHeight int
	// Sharpen is an unsharp-mask strength in [0,1]; 0 disables it.
	Sharpen float64
	// StripICC drops any embedded ICC profile before encoding.
	StripICC bool
	// AutoOrient defaults to true via DefaultJob. LoadImage applies EXIF
	// orientation correction during decode unconditionally and does not
	// read this field.
	AutoOrient bool
}

// Job describes one image's optimization request.
type Job struct {
	InputPath  string
	OutputPath string

	// MaxBytes is the hard byte ceiling. Unset (nil) disables the
	// binary search entirely and falls back to each format's default
	// quality.
	MaxBytes *uint32
	// MaxDiff is the perceptual-distance ceiling, interpreted under
	// Metric. Unset (nil), or Metric == MetricNone, disables the
	// quality gate.
	MaxDiff *float64

	// Formats is the ordered list of candidate formats to generate.
	// Must be non-empty.
	Formats []Format

	Metric      Metric
	Concurrency int

	Transform TransformParams

	SearchOptions SearchOptions
}

// DefaultJob returns a Job with sane defaults: no budget, no quality gate,
// auto-orient enabled, one worker.
func DefaultJob(inputPath, outputPath string) Job {
	return Job{
		InputPath:     inputPath,
		OutputPath:    outputPath,
		Formats:       []Format{FormatJPEG, FormatPNG},
		Metric:        MetricNone,
		Concurrency:   1,
		Transform:     TransformParams{AutoOrient: true},
		SearchOptions: DefaultSearchOptions(),
	}
}

// Candidate is one encoded-byte result produced by one (format, quality)
// choice for a single input image.
type Candidate struct {
	Format           Format
	Data             []byte
	FileSize         int64
	Quality          int
	DiffScore        float64
	PassedConstraint bool
	EncodingTime     time.Duration
}

// clone returns an independent deep copy of the candidate, used by the
// selector when it hands a winner back to the caller (spec requires the
// winner's lifetime be independent of the rest of the candidate slice).
func (c *Candidate) clone() *Candidate {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Data = append([]byte(nil), c.Data...)
	return &cp
}

// Timings records the per-phase duration breakdown for one image.
type Timings struct {
	Decode  time.Duration
	Encode  time.Duration
	Metrics time.Duration
	Total   time.Duration
}

// Result is the outcome of optimizing a single image.
type Result struct {
	Selected      *Candidate
	AllCandidates []Candidate
	Timings       Timings
	Warnings      []string
	Success       bool
	// OriginalSize is the source file's byte size, recorded for savings
	// reporting in batch summaries.
	OriginalSize int64
}

// ManifestEntry is the collaborator-facing serialization shape named in
// spec.md §6. The core never writes this to disk; cmd/pyjamaz does.
type ManifestEntry struct {
	Input      string           `json:"input"`
	Output     string           `json:"output"`
	Bytes      int64            `json:"bytes"`
	Format     string           `json:"format"`
	DiffMetric string           `json:"diff_metric"`
	DiffValue  float64          `json:"diff_value"`
	BudgetBytes *uint32         `json:"budget_bytes,omitempty"`
	MaxDiff    *float64         `json:"max_diff,omitempty"`
	Passed     bool             `json:"passed"`
	Alternates []AlternateEntry `json:"alternates"`
	TimingsMS  TimingsMS        `json:"timings_ms"`
	Warnings   []string         `json:"warnings"`
}

// AlternateEntry describes one non-winning candidate in a ManifestEntry.
type AlternateEntry struct {
	Format Format `json:"format"`
	Bytes  int64  `json:"bytes"`
	Diff   float64 `json:"diff"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
}

// TimingsMS is Timings converted to float milliseconds for serialization.
type TimingsMS struct {
	Decode      float64 `json:"decode"`
	Transform   float64 `json:"transform"`
	EncodeTotal float64 `json:"encode_total"`
	Metrics     float64 `json:"metrics"`
}

// ToManifestEntry converts a Result for one job into its manifest shape.
func (r *Result) ToManifestEntry(job Job) ManifestEntry {
	entry := ManifestEntry{
		Input:       job.InputPath,
		Output:      job.OutputPath,
		BudgetBytes: job.MaxBytes,
		MaxDiff:     job.MaxDiff,
		DiffMetric:  job.Metric.String(),
		Passed:      r.Success,
		Warnings:    r.Warnings,
		TimingsMS: TimingsMS{
			Decode:      r.Timings.Decode.Seconds() * 1000,
			EncodeTotal: r.Timings.Encode.Seconds() * 1000,
			Metrics:     r.Timings.Metrics.Seconds() * 1000,
		},
	}
	if r.Selected != nil {
		entry.Bytes = r.Selected.FileSize
		entry.Format = r.Selected.Format.String()
		entry.DiffValue = r.Selected.DiffScore
	}
	for _, c := range r.AllCandidates {
		if r.Selected != nil && c.Format == r.Selected.Format && c.FileSize == r.Selected.FileSize {
			continue
		}
		entry.Alternates = append(entry.Alternates, AlternateEntry{
			Format: c.Format,
			Bytes:  c.FileSize,
			Diff:   c.DiffScore,
			Passed: c.PassedConstraint,
		})
	}
	return entry
}

// String returns a human-readable one-line summary, in the teacher's
// Result.String() style.
func (r *Result) String() string {
	if r.Selected == nil {
		return fmt.Sprintf("pyjamaz: no candidate satisfied constraints (%d attempted, %d warnings)",
			len(r.AllCandidates), len(r.Warnings))
	}
	return fmt.Sprintf(
		"pyjamaz: %s | %s | quality=%d | diff=%.4f | decode=%s encode=%s total=%s",
		r.Selected.Format, humanBytes(r.Selected.FileSize), r.Selected.Quality,
		r.Selected.DiffScore, r.Timings.Decode, r.Timings.Encode, r.Timings.Total,
	)
}
