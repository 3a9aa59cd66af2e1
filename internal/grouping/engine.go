package grouping

import (
	"errors"
	"fmt"
	"math"

	"github.com/kozaktomas/listing-builder/internal/constants"
	"github.com/kozaktomas/listing-builder/internal/fingerprint"
)

// Strategy selects the clustering algorithm.
type Strategy string

const (
	// StrategyGreedy grows each group by comparing candidates against the
	// group's seed photo only (single linkage).
	StrategyGreedy Strategy = "greedy"

	// StrategyAverage grows each group by comparing candidates against the
	// average similarity to every current member (average linkage). The check
	// is re-evaluated as the group grows.
	StrategyAverage Strategy = "average"
)

// ErrInvalidThreshold is returned when the similarity threshold falls outside
// [0,1]. Thresholds are never silently clamped.
var ErrInvalidThreshold = errors.New("threshold must be between 0 and 1")

// ErrUnknownStrategy is returned for a strategy value other than greedy or
// average.
var ErrUnknownStrategy = errors.New("unknown clustering strategy")

// ParseStrategy converts a user-supplied strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyGreedy, StrategyAverage:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// DefaultThreshold returns the built-in similarity threshold for a strategy.
func DefaultThreshold(s Strategy) float64 {
	if s == StrategyAverage {
		return constants.DefaultAverageThreshold
	}
	return constants.DefaultGreedyThreshold
}

// GroupPhotos partitions the entries into groups of visually similar photos.
// Entries are processed strictly in input order: the first unassigned photo
// seeds a new group, candidates join in input order, and groups are emitted
// in the order their seeds were encountered. That makes the result
// reproducible for a given batch, threshold and strategy.
//
// Both strategies share this seed-and-grow loop and differ only in the
// acceptance test and the confidence formula.
func GroupPhotos(entries []Entry, threshold float64, strategy Strategy) ([]PhotoGroup, error) {
	if threshold < 0 || threshold > 1 || math.IsNaN(threshold) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}

	switch strategy {
	case StrategyGreedy:
		return groupGreedy(entries, threshold)
	case StrategyAverage:
		return groupAverage(entries, threshold)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// groupGreedy implements greedy single-linkage clustering: every remaining
// unassigned photo that is similar enough to the seed joins the seed's group.
func groupGreedy(entries []Entry, threshold float64) ([]PhotoGroup, error) {
	groups := []PhotoGroup{}
	assigned := make([]bool, len(entries))

	for i := range entries {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		members := []int{i}

		for j := i + 1; j < len(entries); j++ {
			if assigned[j] {
				continue
			}
			sim, err := fingerprint.Similarity(entries[i].Print, entries[j].Print)
			if err != nil {
				return nil, fmt.Errorf("comparing %s and %s: %w", entries[i].Path, entries[j].Path, err)
			}
			if sim >= threshold {
				assigned[j] = true
				members = append(members, j)
			}
		}

		confidence := constants.SingletonConfidence
		if len(members) > 1 {
			confidence = constants.MatchedGroupConfidence
		}
		groups = append(groups, newGroup(len(groups)+1, members, entries, confidence))
	}

	return groups, nil
}

// groupAverage implements average-linkage clustering over a precomputed
// pairwise similarity matrix. A candidate joins when its average similarity
// to all current members clears the threshold; because members added earlier
// change the average, the acceptance test is evaluated against the group as
// it stands when the candidate is considered.
func groupAverage(entries []Entry, threshold float64) ([]PhotoGroup, error) {
	matrix, err := similarityMatrix(entries)
	if err != nil {
		return nil, err
	}

	groups := []PhotoGroup{}
	assigned := make([]bool, len(entries))

	for i := range entries {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		members := []int{i}

		for j := i + 1; j < len(entries); j++ {
			if assigned[j] {
				continue
			}
			var sum float64
			for _, m := range members {
				sum += matrix[j][m]
			}
			if sum/float64(len(members)) >= threshold {
				assigned[j] = true
				members = append(members, j)
			}
		}

		groups = append(groups, newGroup(len(groups)+1, members, entries, cohesion(members, matrix)))
	}

	return groups, nil
}

// similarityMatrix precomputes pairwise similarities for the whole batch.
func similarityMatrix(entries []Entry) ([][]float64, error) {
	matrix := make([][]float64, len(entries))
	for i := range entries {
		matrix[i] = make([]float64, len(entries))
		matrix[i][i] = 1
	}
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			sim, err := fingerprint.Similarity(entries[i].Print, entries[j].Print)
			if err != nil {
				return nil, fmt.Errorf("comparing %s and %s: %w", entries[i].Path, entries[j].Path, err)
			}
			matrix[i][j] = sim
			matrix[j][i] = sim
		}
	}
	return matrix, nil
}

// cohesion is the mean pairwise similarity among the group's members,
// excluding self-pairs. Singletons have no pairs and fall back to the
// singleton confidence.
func cohesion(members []int, matrix [][]float64) float64 {
	if len(members) < 2 {
		return constants.SingletonConfidence
	}
	var sum float64
	pairs := 0
	for a := 0; a < len(members); a++ {
		for b := a + 1; b < len(members); b++ {
			sum += matrix[members[a]][members[b]]
			pairs++
		}
	}
	return sum / float64(pairs)
}

// newGroup builds a group from member indexes. Members are already in input
// order, so the seed photo becomes the primary photo.
func newGroup(seq int, members []int, entries []Entry, confidence float64) PhotoGroup {
	photos := make([]string, len(members))
	for i, m := range members {
		photos[i] = entries[m].Path
	}
	return PhotoGroup{
		ID:           fmt.Sprintf("group-%d", seq),
		Photos:       photos,
		PrimaryPhoto: photos[0],
		Confidence:   confidence,
	}
}
