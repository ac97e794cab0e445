package pyjamaz

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Optimize runs the full pipeline for a single Job: decode, transform,
// per-format candidate generation, baseline injection, selection, and (if
// Job.OutputPath is set) writing the winner to disk. This is the single
// entry point every other layer — CLI, batch — is built on (spec.md §4.7).
func Optimize(ctx context.Context, job Job) (*Result, error) {
	if len(job.Formats) == 0 {
		return nil, fmt.Errorf("%w: Job.Formats must be non-empty", ErrInvalidImage)
	}
	if job.InputPath == "" {
		return nil, fmt.Errorf("%w: Job.InputPath is required", ErrInvalidImage)
	}

	totalStart := time.Now()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	decodeStart := time.Now()
	buf, meta, err := LoadImage(job.InputPath)
	if err != nil {
		return nil, err
	}
	decodeTime := time.Since(decodeStart)

	originalData, err := os.ReadFile(job.InputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: re-read %q for baseline: %v", ErrLoadFailed, job.InputPath, err)
	}

	transformStart := time.Now()
	buf, err = applyTransform(buf, job.Transform)
	if err != nil {
		return nil, err
	}
	if job.Transform.StripICC {
		meta.ICCProfile = nil
	}
	transformTime := time.Since(transformStart)

	encodeStart := time.Now()
	candidates, warnings := generateCandidates(buf, job)
	candidates = append(candidates, injectBaseline(originalData, meta.Format, job))
	encodeTime := time.Since(encodeStart) + transformTime

	selected, success := selectCandidate(candidates)

	result := &Result{
		Selected:      selected,
		AllCandidates: candidates,
		Warnings:      warnings,
		Success:       success,
		OriginalSize:  int64(len(originalData)),
		Timings: Timings{
			Decode:  decodeTime,
			Encode:  encodeTime,
			Metrics: 0, // folded into Encode: diff scoring happens alongside each candidate's encode.
			Total:   time.Since(totalStart),
		},
	}

	if selected != nil && job.OutputPath != "" {
		if err := os.WriteFile(job.OutputPath, selected.Data, 0o644); err != nil {
			return result, fmt.Errorf("%w: write %q: %v", ErrEncodeFailed, job.OutputPath, err)
		}
	}

	return result, nil
}

// applyTransform runs the optional pre-encode pixel transforms a Job may
// request, in the order auto-orient (already applied during decode),
// resize, then sharpen.
func applyTransform(buf *PixelBuffer, t TransformParams) (*PixelBuffer, error) {
	img := buf.ToNRGBA()

	if t.MaxWidth > 0 || t.MaxHeight > 0 {
		img = smartResize(img, t.MaxWidth, t.MaxHeight)
	}

	if t.Sharpen > 0 {
		img = Sharpen(img, t.Sharpen)
	}

	return FromNRGBA(img)
}
