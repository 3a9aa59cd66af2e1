// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Clustering thresholds
const (
	// DefaultGreedyThreshold is the default minimum similarity to the group
	// seed for greedy single-linkage clustering
	DefaultGreedyThreshold = 0.75

	// DefaultAverageThreshold is the default minimum average similarity to all
	// current group members for average-linkage clustering
	DefaultAverageThreshold = 0.70
)

// Confidence model
const (
	// MatchedGroupConfidence is assigned by the greedy strategy to groups
	// where at least two photos matched
	MatchedGroupConfidence = 0.85

	// SingletonConfidence is assigned to groups holding a single photo,
	// where no similarity evidence exists either way
	SingletonConfidence = 0.5

	// CorrectionPenalty discounts confidence after a manual merge or split;
	// a hand-corrected group is never more trusted than its sources
	CorrectionPenalty = 0.9
)

// Processing constants
const (
	// DefaultConcurrency is the default number of parallel workers for
	// fingerprint computation
	DefaultConcurrency = 5
)
