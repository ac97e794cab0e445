package pyjamaz

import "testing"

func TestSelectCandidatePrefersSmallestPassing(t *testing.T) {
	candidates := []Candidate{
		{Format: FormatJPEG, FileSize: 5000, PassedConstraint: true},
		{Format: FormatWebP, FileSize: 3000, PassedConstraint: true},
		{Format: FormatPNG, FileSize: 20000, PassedConstraint: false},
	}

	best, ok := selectCandidate(candidates)
	if !ok {
		t.Fatal("expected a passing candidate to be found")
	}
	if best.Format != FormatWebP {
		t.Fatalf("expected the smallest passing candidate (WebP), got %v", best.Format)
	}
}

func TestSelectCandidateTieBreaksOnFormatPreference(t *testing.T) {
	candidates := []Candidate{
		{Format: FormatJPEG, FileSize: 3000, PassedConstraint: true},
		{Format: FormatAVIF, FileSize: 3000, PassedConstraint: true},
	}

	best, ok := selectCandidate(candidates)
	if !ok {
		t.Fatal("expected a passing candidate")
	}
	if best.Format != FormatAVIF {
		t.Fatalf("expected AVIF to win the tie, got %v", best.Format)
	}
}

func TestSelectCandidateNoneWhenNothingPasses(t *testing.T) {
	candidates := []Candidate{
		{Format: FormatJPEG, FileSize: 5000, PassedConstraint: false},
		{Format: FormatWebP, FileSize: 1500, PassedConstraint: false},
	}

	best, ok := selectCandidate(candidates)
	if ok {
		t.Fatal("expected ok=false when no candidate passes")
	}
	if best != nil {
		t.Fatalf("expected a nil winner when nothing passes constraints, got %+v", best)
	}
}

func TestSelectCandidateEmptyInput(t *testing.T) {
	best, ok := selectCandidate(nil)
	if best != nil || ok {
		t.Fatal("expected (nil, false) for an empty candidate slice")
	}
}

func TestSelectCandidateReturnsIndependentClone(t *testing.T) {
	candidates := []Candidate{
		{Format: FormatJPEG, Data: []byte{1, 2, 3}, FileSize: 3, PassedConstraint: true},
	}

	best, ok := selectCandidate(candidates)
	if !ok {
		t.Fatal("expected a passing candidate")
	}
	best.Data[0] = 99
	if candidates[0].Data[0] == 99 {
		t.Fatal("selectCandidate should return a clone, not an alias into the input slice")
	}
}

func TestInjectBaselineSetsSentinelQuality(t *testing.T) {
	job := DefaultJob("in.jpg", "out.jpg")
	original := []byte{0xFF, 0xD8, 0xFF, 0, 0, 0}

	c := injectBaseline(original, FormatJPEG, job)
	if c.Quality != 100 {
		t.Fatalf("expected sentinel quality 100, got %d", c.Quality)
	}
	if c.DiffScore != 0 {
		t.Fatalf("baseline diff score should always be 0, got %f", c.DiffScore)
	}
	if c.FileSize != int64(len(original)) {
		t.Fatalf("baseline file size mismatch: got %d want %d", c.FileSize, len(original))
	}
}

func TestInjectBaselineRespectsByteBudget(t *testing.T) {
	job := DefaultJob("in.jpg", "out.jpg")
	budget := uint32(3)
	job.MaxBytes = &budget

	c := injectBaseline([]byte{1, 2, 3, 4, 5}, FormatJPEG, job)
	if c.PassedConstraint {
		t.Fatal("a baseline larger than the budget should not pass the constraint")
	}
}
