// Package grouper orchestrates one upload batch end to end: fingerprint the
// photos on a worker pool, then hand the ordered fingerprints to the
// clustering engine.
package grouper

import (
	"context"

	"github.com/kozaktomas/listing-builder/internal/constants"
	"github.com/kozaktomas/listing-builder/internal/fingerprint"
	"github.com/kozaktomas/listing-builder/internal/grouping"
)

// Options configures one grouping pass.
type Options struct {
	Strategy    grouping.Strategy
	Threshold   float64
	Concurrency int                   // parallel fingerprint workers, default 5
	OnProgress  func(done, total int) // optional fingerprinting progress callback
}

// SkippedPhoto records a photo that was excluded from the batch because its
// file could not be read or decoded.
type SkippedPhoto struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

// Result is the outcome of one grouping pass.
type Result struct {
	Groups  []grouping.PhotoGroup
	Skipped []SkippedPhoto
}

// GroupPhotosByItem partitions the photos at the given paths into groups, one
// per physical item. Paths are fingerprinted concurrently but clustered in
// their original order, so the result is reproducible for a given batch and
// options. Photos that fail to decode are skipped and reported, never fatal
// to the batch; a cancelled context aborts the pass.
func GroupPhotosByItem(ctx context.Context, paths []string, opts Options) (*Result, error) {
	if opts.Strategy == "" {
		opts.Strategy = grouping.StrategyGreedy
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = constants.DefaultConcurrency
	}

	results := fingerprint.ComputeBatch(ctx, paths, opts.Concurrency, opts.OnProgress)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := make([]grouping.Entry, 0, len(results))
	var skipped []SkippedPhoto
	for _, r := range results {
		if r.Err != nil {
			skipped = append(skipped, SkippedPhoto{Path: r.Path, Err: r.Err})
			continue
		}
		entries = append(entries, grouping.Entry{Path: r.Path, Print: r.Print})
	}

	groups, err := grouping.GroupPhotos(entries, opts.Threshold, opts.Strategy)
	if err != nil {
		return nil, err
	}

	return &Result{Groups: groups, Skipped: skipped}, nil
}
