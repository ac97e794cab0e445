package pyjamaz

import (
	"fmt"
	"time"
)

// generateCandidate produces one Candidate for a single format, per
// spec.md §4.5. When job.MaxBytes is set, it drives encode via the bounded
// binary search; otherwise it encodes once at the format's conventional
// default quality. When job.Metric is not MetricNone, the perceptual diff
// against baseline is computed last, after the byte size has converged,
// since the search itself only needs file size to steer toward budget.
//
// An encode failure or a diff failure for this format is returned as an
// error, never as a zero-value Candidate — callers fold that into a warning
// and move on to the next format, per the "encoder failure degrades
// gracefully" policy. A candidate whose diff could not be computed is
// therefore never scored 0 against the quality gate.
func generateCandidate(baseline *PixelBuffer, format Format, job Job) (*Candidate, []string, error) {
	if baseline == nil {
		return nil, nil, fmt.Errorf("%w: nil baseline", ErrInvalidImage)
	}

	start := time.Now()
	var warnings []string

	if baseline.HasAlpha() && !supportsAlpha(format) && !isOpaque(baseline.ToNRGBA()) {
		return nil, nil, fmt.Errorf("%w: %s cannot carry this image's alpha channel", ErrUnsupportedFormat, format)
	}

	var data []byte
	var quality int

	if job.MaxBytes != nil && format != FormatPNG {
		encode := func(q int) (*Candidate, error) {
			d, err := encodeFormat(baseline, format, q)
			if err != nil {
				return nil, err
			}
			return &Candidate{Format: format, Data: d, FileSize: int64(len(d)), Quality: q}, nil
		}

		best, w, err := binarySearchQuality(encode, *job.MaxBytes, job.SearchOptions)
		warnings = append(warnings, w...)
		if err != nil {
			return nil, warnings, err
		}
		data = best.Data
		quality = best.Quality
	} else {
		quality = defaultQuality(format)
		d, err := encodeFormat(baseline, format, quality)
		if err != nil {
			return nil, warnings, fmt.Errorf("%w: %s: %v", ErrEncodeFailed, format, err)
		}
		data = d
	}

	cand := &Candidate{
		Format:       format,
		Data:         data,
		FileSize:     int64(len(data)),
		Quality:      quality,
		EncodingTime: time.Since(start),
	}

	if job.Metric != MetricNone {
		decoded, err := decodeFormat(data, format)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: could not re-decode candidate for diff scoring: %v", format, err))
		} else {
			d, err := diff(baseline, decoded, job.Metric)
			if err != nil {
				return nil, warnings, fmt.Errorf("diff computation failed: %w", err)
			}
			cand.DiffScore = d
		}
	}

	cand.PassedConstraint = candidatePasses(cand, job)

	return cand, warnings, nil
}

// candidatePasses evaluates a candidate against the job's byte-budget and
// quality-gate constraints. A constraint that was never set (nil, or
// MetricNone) is treated as always-satisfied.
func candidatePasses(c *Candidate, job Job) bool {
	if job.MaxBytes != nil && c.FileSize > int64(*job.MaxBytes) {
		return false
	}
	if job.MaxDiff != nil && job.Metric != MetricNone && c.DiffScore > *job.MaxDiff {
		return false
	}
	return true
}

// generateCandidates runs generateCandidate for every requested format,
// bounded by job.Concurrency workers. Formats that fail to encode produce a
// warning instead of aborting the whole job — spec.md's "always keep the
// original as a safety net" guarantee means a total format failure is still
// recoverable by the baseline candidate injected in orchestrator.go.
func generateCandidates(baseline *PixelBuffer, job Job) ([]Candidate, []string) {
	formats := job.Formats
	if len(formats) == 0 {
		formats = []Format{recommendFormat(baseline.ToNRGBA())}
	}

	workers := job.Concurrency
	if workers <= 0 {
		workers = 1
	}
	if workers > len(formats) {
		workers = len(formats)
	}

	type outcome struct {
		cand     *Candidate
		warnings []string
		err      error
	}
	results := make([]outcome, len(formats))

	workCh := make(chan int, len(formats))
	for i := range formats {
		workCh <- i
	}
	close(workCh)

	done := make(chan struct{}, workers)
	for w := 0; w < workers; w++ {
		go func() {
			for idx := range workCh {
				cand, warnings, err := generateCandidate(baseline, formats[idx], job)
				results[idx] = outcome{cand: cand, warnings: warnings, err: err}
			}
			done <- struct{}{}
		}()
	}
	for w := 0; w < workers; w++ {
		<-done
	}

	var candidates []Candidate
	var warnings []string
	for i, r := range results {
		warnings = append(warnings, r.warnings...)
		if r.err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", formats[i], r.err))
			continue
		}
		candidates = append(candidates, *r.cand)
	}
	return candidates, warnings
}
