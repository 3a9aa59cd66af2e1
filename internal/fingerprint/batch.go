package fingerprint

import (
	"context"
	"sync"
)

// BatchResult is the outcome of fingerprinting one photo in a batch. Exactly
// one of Print/Err is meaningful.
type BatchResult struct {
	Path  string
	Print Fingerprint
	Err   error
}

// ComputeBatch fingerprints every path on a bounded worker pool and returns
// the results in the original input order, regardless of which worker
// finished first. Group assignment downstream is order-dependent, so the
// order must be reproducible.
//
// Individual failures (unreadable or undecodable files) are reported in the
// corresponding BatchResult, never as a batch-wide error. If ctx is cancelled
// mid-batch, photos that have not started yet carry the context error.
func ComputeBatch(ctx context.Context, paths []string, concurrency int, onProgress func(done, total int)) []BatchResult {
	if concurrency <= 0 {
		concurrency = 1
	}

	type indexed struct {
		index  int
		result BatchResult
	}

	resultsChan := make(chan indexed, len(paths))
	semaphore := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	var progressMu sync.Mutex
	done := 0
	reportProgress := func() {
		if onProgress == nil {
			return
		}
		progressMu.Lock()
		done++
		current := done
		progressMu.Unlock()
		onProgress(current, len(paths))
	}

	for i, path := range paths {
		wg.Add(1)
		go func(idx int, p string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if err := ctx.Err(); err != nil {
				resultsChan <- indexed{index: idx, result: BatchResult{Path: p, Err: err}}
				reportProgress()
				return
			}

			fp, err := Generate(p)
			resultsChan <- indexed{index: idx, result: BatchResult{Path: p, Print: fp, Err: err}}
			reportProgress()
		}(i, path)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	results := make([]BatchResult, len(paths))
	for r := range resultsChan {
		results[r.index] = r.result
	}
	return results
}
