package pyjamaz

import (
	"context"
	"testing"
)

func TestSummarizeCountsSuccessAndFailure(t *testing.T) {
	results := []BatchResult{
		{
			Result: &Result{
				Success:      true,
				OriginalSize: 10000,
				Selected:     &Candidate{FileSize: 4000, DiffScore: 0.01},
			},
		},
		{Err: ErrLoadFailed},
		{
			Result: &Result{Success: false, OriginalSize: 5000, Selected: &Candidate{FileSize: 6000}},
		},
	}

	summary := Summarize(results)
	if summary.Total != 3 {
		t.Fatalf("expected Total=3, got %d", summary.Total)
	}
	if summary.Succeeded != 1 {
		t.Fatalf("expected Succeeded=1, got %d", summary.Succeeded)
	}
	if summary.Failed != 2 {
		t.Fatalf("expected Failed=2, got %d", summary.Failed)
	}
	if summary.TotalSaved != 6000 {
		t.Fatalf("expected TotalSaved=6000, got %d", summary.TotalSaved)
	}
}

func TestSummarizeStringIsNonEmpty(t *testing.T) {
	summary := Summarize(nil)
	if summary.String() == "" {
		t.Fatal("expected a non-empty summary string even for zero results")
	}
}

func TestOptimizeBatchEmptyInput(t *testing.T) {
	results := OptimizeBatch(context.Background(), nil, BatchOptions{})
	if results != nil {
		t.Fatalf("expected nil results for an empty job slice, got %v", results)
	}
}

func TestOptimizeBatchPreservesOrderAndReportsErrors(t *testing.T) {
	jobs := []Job{
		DefaultJob("testdata/does-not-exist-1.jpg", ""),
		DefaultJob("testdata/does-not-exist-2.jpg", ""),
	}

	results := OptimizeBatch(context.Background(), jobs, BatchOptions{Workers: 2})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Index != i {
			t.Fatalf("result %d has Index %d, results must preserve input order", i, r.Index)
		}
		if r.Err == nil {
			t.Fatalf("expected an error for a missing input file at index %d", i)
		}
	}
}

func TestOptimizeBatchReportsProgress(t *testing.T) {
	jobs := []Job{
		DefaultJob("testdata/does-not-exist.jpg", ""),
	}

	var completedCalls []int
	OptimizeBatch(context.Background(), jobs, BatchOptions{
		OnItem: func(completed, total int) {
			completedCalls = append(completedCalls, completed)
		},
	})

	if len(completedCalls) != 1 {
		t.Fatalf("expected OnItem to be called once, got %d calls", len(completedCalls))
	}
}
