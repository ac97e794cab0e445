package pyjamaz

import (
	"errors"
	"testing"
)

func TestIsBetterCandidateUnderBudgetPrefersLarger(t *testing.T) {
	small := &Candidate{FileSize: 1000}
	big := &Candidate{FileSize: 4000}
	budget := uint32(5000)

	if !isBetterCandidate(big, small, budget) {
		t.Fatal("larger under-budget candidate should be preferred")
	}
	if isBetterCandidate(small, big, budget) {
		t.Fatal("smaller under-budget candidate should not be preferred over a larger one")
	}
}

func TestIsBetterCandidateOverBudgetPrefersSmaller(t *testing.T) {
	barelyOver := &Candidate{FileSize: 5100}
	wayOver := &Candidate{FileSize: 9000}
	budget := uint32(5000)

	if !isBetterCandidate(barelyOver, wayOver, budget) {
		t.Fatal("smaller over-budget candidate should be preferred")
	}
}

func TestIsBetterCandidateUnderBeatsOver(t *testing.T) {
	under := &Candidate{FileSize: 4000}
	over := &Candidate{FileSize: 6000}
	budget := uint32(5000)

	if !isBetterCandidate(under, over, budget) {
		t.Fatal("an at-or-under-budget candidate should always beat an over-budget one")
	}
}

func TestIsBetterCandidateTieBreaksOnFormatPreference(t *testing.T) {
	avif := &Candidate{FileSize: 1000, Format: FormatAVIF}
	jpeg := &Candidate{FileSize: 1000, Format: FormatJPEG}
	budget := uint32(5000)

	if !isBetterCandidate(avif, jpeg, budget) {
		t.Fatal("AVIF should be preferred over JPEG on an exact file-size tie")
	}
}

func TestIsBetterCandidateNilHandling(t *testing.T) {
	c := &Candidate{FileSize: 1000}
	if isBetterCandidate(nil, c, 5000) {
		t.Fatal("a nil candidate should never be preferred")
	}
	if !isBetterCandidate(c, nil, 5000) {
		t.Fatal("any real candidate should be preferred over a nil one")
	}
}

func TestBinarySearchQualityConvergesUnderBudget(t *testing.T) {
	buf := mustFromNRGBA(t, makeTestImage(256, 256))
	budget := uint32(8000)

	encode := func(quality int) (*Candidate, error) {
		data, err := encodeFormat(buf, FormatJPEG, quality)
		if err != nil {
			return nil, err
		}
		return &Candidate{Format: FormatJPEG, Data: data, FileSize: int64(len(data)), Quality: quality}, nil
	}

	best, _, err := binarySearchQuality(encode, budget, DefaultSearchOptions())
	if err != nil {
		t.Fatalf("binarySearchQuality failed: %v", err)
	}
	if best == nil {
		t.Fatal("expected a non-nil best candidate")
	}
	if best.Quality < 1 || best.Quality > 100 {
		t.Fatalf("quality out of range: %d", best.Quality)
	}
}

func TestBinarySearchQualityAllEncodesFail(t *testing.T) {
	encode := func(quality int) (*Candidate, error) {
		return nil, ErrEncodeFailed
	}

	_, warnings, err := binarySearchQuality(encode, 1000, DefaultSearchOptions())
	if err == nil {
		t.Fatal("expected an error when every encode attempt fails")
	}
	if !errors.Is(err, ErrEncodeFailed) {
		t.Fatalf("expected ErrEncodeFailed, got %v", err)
	}
	if len(warnings) == 0 {
		t.Fatal("expected at least one warning recorded for the failed attempts")
	}
}

func TestBinarySearchQualityRespectsIterationBound(t *testing.T) {
	calls := 0
	encode := func(quality int) (*Candidate, error) {
		calls++
		return &Candidate{Format: FormatJPEG, FileSize: 500, Quality: quality}, nil
	}

	opts := SearchOptions{MinQuality: 1, MaxQuality: 100, MaxIterations: 1000}
	if _, _, err := binarySearchQuality(encode, 1000, opts); err != nil {
		t.Fatalf("binarySearchQuality failed: %v", err)
	}
	if calls > MaxIterations {
		t.Fatalf("expected at most %d encode calls, got %d", MaxIterations, calls)
	}
}
