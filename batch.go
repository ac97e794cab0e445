package pyjamaz

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
)

// BatchResult holds the outcome for a single Job within a batch run.
type BatchResult struct {
	// Job is the original request.
	Job Job
	// Result is the optimization result. It is nil when Optimize fails
	// before selection; when only writing the output file fails, both
	// Result and Err are set.
	Result *Result
	// Err is any error that occurred.
	Err error
	// Index is the position in the original input slice.
	Index int
}

// BatchOptions configures batch optimization behavior.
type BatchOptions struct {
	// Workers is the number of concurrent jobs in flight. 0 = runtime.NumCPU().
	// This governs the batch-level pool; Job.Concurrency separately
	// governs the per-image per-format pool.
	Workers int
	// OnItem is called after each item completes (for progress reporting).
	// It receives the count completed so far and the total count.
	OnItem func(completed, total int)
	// Logger, if set, receives one structured log line per completed Job.
	Logger *logrus.Logger
}

// OptimizeBatch runs Optimize over every job concurrently using a worker
// pool bounded by batchOpts.Workers, with results returned in the same
// order as the input slice. The context can be used to cancel the whole
// batch; in-flight jobs finish but no new ones start.
//
// Per spec.md's concurrency model, no mutable state is shared across
// images — each worker owns its own Job end to end.
func OptimizeBatch(ctx context.Context, jobs []Job, batchOpts BatchOptions) []BatchResult {
	if len(jobs) == 0 {
		return nil
	}
	if len(jobs) > MaxInputFiles {
		jobs = jobs[:MaxInputFiles]
	}

	workers := batchOpts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	results := make([]BatchResult, len(jobs))
	workCh := make(chan int, len(jobs))
	var wg sync.WaitGroup
	var completed int
	var completedMu sync.Mutex

	for i := range jobs {
		workCh <- i
	}
	close(workCh)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workCh {
				select {
				case <-ctx.Done():
					results[idx] = BatchResult{Job: jobs[idx], Err: ctx.Err(), Index: idx}
					continue
				default:
				}

				job := jobs[idx]
				result, err := Optimize(ctx, job)
				results[idx] = BatchResult{Job: job, Result: result, Err: err, Index: idx}

				if batchOpts.Logger != nil {
					logResult(batchOpts.Logger.WithField("job_index", idx), job, result, err)
				}

				if batchOpts.OnItem != nil {
					completedMu.Lock()
					completed++
					c := completed
					completedMu.Unlock()
					batchOpts.OnItem(c, len(jobs))
				}
			}
		}()
	}

	wg.Wait()
	return results
}

// BatchSummary provides aggregate statistics for a batch run.
type BatchSummary struct {
	Total        int
	Succeeded    int
	Failed       int
	TotalSaved   int64
	AvgDiff      float64
	WorstExit    ExitCode
}

// Summarize computes aggregate statistics from batch results.
func Summarize(results []BatchResult) BatchSummary {
	s := BatchSummary{Total: len(results)}
	var diffSum float64
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
			s.WorstExit = worseExit(s.WorstExit, ClassifyError(r.Err))
			continue
		}
		if r.Result == nil {
			s.Failed++
			s.WorstExit = worseExit(s.WorstExit, ExitBudgetUnmet)
			continue
		}
		if !r.Result.Success {
			s.Failed++
			s.WorstExit = worseExit(s.WorstExit, ClassifyFailure(r.Result.AllCandidates, r.Job))
			continue
		}
		s.Succeeded++
		s.TotalSaved += r.Result.OriginalSize - r.Result.Selected.FileSize
		diffSum += r.Result.Selected.DiffScore
	}
	if s.Succeeded > 0 {
		s.AvgDiff = diffSum / float64(s.Succeeded)
	}
	return s
}

// String returns a human-readable batch summary.
func (s BatchSummary) String() string {
	return fmt.Sprintf(
		"batch: %d/%d succeeded | %s saved | avg diff: %.4f",
		s.Succeeded, s.Total, humanBytes(s.TotalSaved), s.AvgDiff,
	)
}
