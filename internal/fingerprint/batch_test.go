package fingerprint

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func TestComputeBatchPreservesOrder(t *testing.T) {
	// Fingerprints must come back in input order regardless of which worker
	// finishes first, so compare against sequential generation
	paths := []string{
		writeTempJPEG(t, createHorizontalGradient(80, 60, true)),
		writeTempJPEG(t, createHorizontalGradient(80, 60, false)),
		writeTempJPEG(t, createGradientImage(80, 60)),
		writeTempJPEG(t, createGradientImage(120, 40)),
	}

	want := make([]Fingerprint, len(paths))
	for i, p := range paths {
		print, err := Generate(p)
		if err != nil {
			t.Fatalf("Generate(%s) failed: %v", p, err)
		}
		want[i] = print
	}

	for _, concurrency := range []int{1, 2, 8} {
		results := ComputeBatch(context.Background(), paths, concurrency, nil)

		if len(results) != len(paths) {
			t.Fatalf("concurrency %d: expected %d results, got %d", concurrency, len(paths), len(results))
		}
		for i, r := range results {
			if r.Err != nil {
				t.Fatalf("concurrency %d: unexpected error for %s: %v", concurrency, r.Path, r.Err)
			}
			if r.Path != paths[i] {
				t.Errorf("concurrency %d: result %d has path %s, want %s", concurrency, i, r.Path, paths[i])
			}
			if r.Print != want[i] {
				t.Errorf("concurrency %d: result %d = %s, want %s", concurrency, i, r.Print.Hex(), want[i].Hex())
			}
		}
	}
}

func TestComputeBatchIsolatesFailures(t *testing.T) {
	good := writeTempJPEG(t, createGradientImage(50, 50))
	missing := filepath.Join(t.TempDir(), "missing.jpg")

	results := ComputeBatch(context.Background(), []string{good, missing, good}, 2, nil)

	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("readable photos should succeed: %v, %v", results[0].Err, results[2].Err)
	}

	var readErr *ImageReadError
	if !errors.As(results[1].Err, &readErr) {
		t.Errorf("expected *ImageReadError for missing file, got %v", results[1].Err)
	}
}

func TestComputeBatchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	paths := []string{
		writeTempJPEG(t, createGradientImage(50, 50)),
		writeTempJPEG(t, createGradientImage(60, 60)),
	}

	results := ComputeBatch(ctx, paths, 1, nil)

	for i, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("result %d: expected context.Canceled, got %v", i, r.Err)
		}
	}
}

func TestComputeBatchReportsProgress(t *testing.T) {
	paths := []string{
		writeTempJPEG(t, createGradientImage(50, 50)),
		writeTempJPEG(t, createGradientImage(60, 60)),
		writeTempJPEG(t, createGradientImage(70, 70)),
	}

	var calls atomic.Int32
	ComputeBatch(context.Background(), paths, 2, func(done, total int) {
		calls.Add(1)
		if total != len(paths) {
			t.Errorf("expected total %d, got %d", len(paths), total)
		}
		if done < 1 || done > total {
			t.Errorf("done %d out of range", done)
		}
	})

	if got := int(calls.Load()); got != len(paths) {
		t.Errorf("expected %d progress calls, got %d", len(paths), got)
	}
}

func TestComputeBatchEmpty(t *testing.T) {
	results := ComputeBatch(context.Background(), nil, 4, nil)
	if len(results) != 0 {
		t.Errorf("expected no results for empty batch, got %d", len(results))
	}
}
