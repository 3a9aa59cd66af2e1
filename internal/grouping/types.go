// Package grouping partitions a fingerprinted photo batch into groups, one
// group per physical item, and applies user corrections (merge, split) to the
// result without breaking the partition invariant.
package grouping

import (
	"errors"
	"fmt"

	"github.com/kozaktomas/listing-builder/internal/fingerprint"
)

var (
	// ErrGroupNotFound is returned when a correction names a group id that is
	// not part of the group set.
	ErrGroupNotFound = errors.New("group not found")

	// ErrPhotoNotFound is returned by a split when the photo is not a member
	// of the group. No mutation is performed.
	ErrPhotoNotFound = errors.New("photo not found in group")

	// ErrLastPhoto is returned by a split that would empty the group. Groups
	// must always hold at least one photo; the caller should merge or discard
	// the group instead.
	ErrLastPhoto = errors.New("cannot split the only photo out of a group")
)

// Entry pairs a photo path with its fingerprint for one grouping pass.
type Entry struct {
	Path  string
	Print fingerprint.Fingerprint
}

// PhotoGroup is one listing candidate: the photos believed to show the same
// physical item. The first photo is the primary (cover) photo.
type PhotoGroup struct {
	ID           string   `json:"id"`
	Photos       []string `json:"photos"`
	PrimaryPhoto string   `json:"primary_photo"`
	Confidence   float64  `json:"confidence"`
}

// Validate checks the structural invariants of a single group: photos are
// non-empty and unique, and the primary photo is the first photo.
func (g PhotoGroup) Validate() error {
	if len(g.Photos) == 0 {
		return fmt.Errorf("group %s has no photos", g.ID)
	}
	if g.PrimaryPhoto != g.Photos[0] {
		return fmt.Errorf("group %s: primary photo %q is not the first photo %q", g.ID, g.PrimaryPhoto, g.Photos[0])
	}
	seen := make(map[string]struct{}, len(g.Photos))
	for _, p := range g.Photos {
		if _, ok := seen[p]; ok {
			return fmt.Errorf("group %s: duplicate photo %q", g.ID, p)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// ValidatePartition checks that groups form an exact partition of the input
// photos: every input path appears in exactly one group and no group holds a
// path outside the input.
func ValidatePartition(groups []PhotoGroup, inputs []string) error {
	want := make(map[string]struct{}, len(inputs))
	for _, p := range inputs {
		want[p] = struct{}{}
	}

	seen := make(map[string]string, len(inputs)) // path -> group id
	for _, g := range groups {
		if err := g.Validate(); err != nil {
			return err
		}
		for _, p := range g.Photos {
			if owner, ok := seen[p]; ok {
				return fmt.Errorf("photo %q appears in groups %s and %s", p, owner, g.ID)
			}
			if _, ok := want[p]; !ok {
				return fmt.Errorf("group %s holds photo %q that is not part of the batch", g.ID, p)
			}
			seen[p] = g.ID
		}
	}

	for _, p := range inputs {
		if _, ok := seen[p]; !ok {
			return fmt.Errorf("photo %q is not assigned to any group", p)
		}
	}
	return nil
}

// Photos returns all photo paths across groups, in group order.
func Photos(groups []PhotoGroup) []string {
	var paths []string
	for _, g := range groups {
		paths = append(paths, g.Photos...)
	}
	return paths
}
