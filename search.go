package pyjamaz

import (
	"strconv"
	"time"
)

// SearchOptions tunes the per-format binary search that drives candidates
// toward a byte budget (spec.md §4.4).
type SearchOptions struct {
	// MinQuality/MaxQuality bound the search range. Defaults 1..100.
	MinQuality, MaxQuality int
	// MaxIterations bounds the binary search loop; never exceeds the
	// package-wide MaxIterations safety constant.
	MaxIterations int
	// Tolerance is a fraction of the target byte budget: once a candidate
	// lands at-or-under budget and within Tolerance·budget of it, the
	// search stops early rather than spending more iterations refining.
	Tolerance float64
	// MaxEncodeTimeMS warns (without aborting) when a single encode
	// attempt takes longer than this many milliseconds. 0 disables the check.
	MaxEncodeTimeMS int64
	// StrictBudget turns "no candidate ever met the byte budget" into a
	// hard ErrBudgetNotMet failure instead of returning the closest miss
	// with a warning.
	StrictBudget bool
}

// DefaultSearchOptions returns quality bounds of [1,100], the maximum
// allowed iteration count, a 1% convergence tolerance, and a lenient
// (non-strict) budget policy, per spec.md §4.4.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		MinQuality:    1,
		MaxQuality:    100,
		MaxIterations: MaxIterations,
		Tolerance:     0.01,
	}
}

// isBetterCandidate reports whether candidate a should be preferred over
// candidate b for a fixed byte budget. The rule, generalized from the
// teacher's single-format betterFit comparator to the full cross-format
// candidate set:
//
//  1. A candidate at-or-under budget always beats one over budget.
//  2. Among two under-budget candidates, the larger (closer to using the
//     full budget) wins — it is presumed to carry more visual detail.
//  3. Among two over-budget candidates, the smaller (closer to budget)
//     wins.
//  4. On an exact tie in FileSize, format preference breaks the tie
//     (AVIF > WebP > JPEG > PNG).
func isBetterCandidate(a, b *Candidate, budget uint32) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}

	aOver := a.FileSize > int64(budget)
	bOver := b.FileSize > int64(budget)

	if aOver != bOver {
		return !aOver
	}

	if a.FileSize != b.FileSize {
		if !aOver {
			return a.FileSize > b.FileSize
		}
		return a.FileSize < b.FileSize
	}

	return a.Format.preference() > b.Format.preference()
}

// searchEncoder is the per-format closure the binary search drives: encode
// at the given quality and report the resulting byte size. Encoding
// failures are returned as errors, never as a zero-size candidate.
type searchEncoder func(quality int) (*Candidate, error)

// binarySearchQuality drives encode toward budget using a bounded binary
// search over the quality range in opts. It always returns the best
// candidate observed, even when no attempt landed at-or-under budget —
// callers apply the constraint filter afterward, unless opts.StrictBudget
// demands a hard failure (see below).
//
// Invariant: the loop runs at most opts.MaxIterations times, and
// opts.MaxIterations is itself clamped to MaxIterations, so this function
// always terminates.
func binarySearchQuality(encode searchEncoder, budget uint32, opts SearchOptions) (*Candidate, []string, error) {
	lo, hi := opts.MinQuality, opts.MaxQuality
	if lo < 1 {
		lo = 1
	}
	if hi > 100 {
		hi = 100
	}
	if lo > hi {
		lo, hi = hi, lo
	}

	maxIter := opts.MaxIterations
	if maxIter <= 0 || maxIter > MaxIterations {
		maxIter = MaxIterations
	}

	var best *Candidate
	var warnings []string
	var lastErr error

	for i := 0; i < maxIter && lo <= hi; i++ {
		mid := lo + (hi-lo)/2

		iterStart := time.Now()
		cand, err := encode(mid)
		elapsed := time.Since(iterStart)
		if opts.MaxEncodeTimeMS > 0 && elapsed.Milliseconds() > opts.MaxEncodeTimeMS {
			warnings = append(warnings, "encode at quality "+strconv.Itoa(mid)+" took "+elapsed.String()+
				", exceeding max_encode_time_ms="+strconv.FormatInt(opts.MaxEncodeTimeMS, 10))
		}

		if err != nil {
			lastErr = err
			warnings = append(warnings, "encode failed at quality "+strconv.Itoa(mid)+": "+err.Error())
			// Treat an encode failure at this quality as "too big": push
			// the search toward lower quality so it keeps making
			// progress rather than looping on the same midpoint.
			hi = mid - 1
			continue
		}

		if isBetterCandidate(cand, best, budget) {
			best = cand
		}

		if cand.FileSize <= int64(budget) {
			// Under budget: try higher quality for more detail.
			lo = mid + 1

			// Tolerance-based early convergence: stop once we're close
			// enough to the budget rather than spending more iterations.
			if opts.Tolerance > 0 {
				target := int64(budget)
				if float64(target-cand.FileSize) <= opts.Tolerance*float64(target) {
					break
				}
			}
		} else {
			hi = mid - 1
		}
	}

	if best == nil {
		if lastErr != nil {
			return nil, warnings, lastErr
		}
		return nil, warnings, ErrEncodeFailed
	}

	if opts.StrictBudget && best.FileSize > int64(budget) {
		return nil, warnings, ErrBudgetNotMet
	}

	return best, warnings, nil
}
