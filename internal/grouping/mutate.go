package grouping

import (
	"fmt"
	"slices"

	"github.com/kozaktomas/listing-builder/internal/constants"
)

// MergeGroups combines two groups into one: g2's photos are appended after
// g1's, g1 keeps its id and primary photo, and the merged confidence is the
// lower of the two discounted by the correction penalty. The inputs are not
// modified; the caller owns replacing both groups with the result in the
// group set.
func MergeGroups(g1, g2 PhotoGroup) PhotoGroup {
	photos := make([]string, 0, len(g1.Photos)+len(g2.Photos))
	photos = append(photos, g1.Photos...)
	photos = append(photos, g2.Photos...)

	return PhotoGroup{
		ID:           g1.ID,
		Photos:       photos,
		PrimaryPhoto: g1.PrimaryPhoto,
		Confidence:   min(g1.Confidence, g2.Confidence) * constants.CorrectionPenalty,
	}
}

// SplitPhotoFromGroup removes one photo from a group into a new singleton
// group. The source group keeps its id with a discounted confidence; if the
// removed photo was the primary photo, the next remaining photo takes over.
// The new group derives its id from the source and starts at the singleton
// confidence.
//
// Splitting a photo that is not in the group fails with ErrPhotoNotFound, and
// splitting the last photo fails with ErrLastPhoto. Neither performs any
// mutation; the inputs are never modified.
func SplitPhotoFromGroup(g PhotoGroup, photoPath string) (updated PhotoGroup, split PhotoGroup, err error) {
	idx := slices.Index(g.Photos, photoPath)
	if idx < 0 {
		return PhotoGroup{}, PhotoGroup{}, fmt.Errorf("%w: %q in group %s", ErrPhotoNotFound, photoPath, g.ID)
	}
	if len(g.Photos) == 1 {
		return PhotoGroup{}, PhotoGroup{}, fmt.Errorf("%w: group %s", ErrLastPhoto, g.ID)
	}

	remaining := make([]string, 0, len(g.Photos)-1)
	remaining = append(remaining, g.Photos[:idx]...)
	remaining = append(remaining, g.Photos[idx+1:]...)

	updated = PhotoGroup{
		ID:           g.ID,
		Photos:       remaining,
		PrimaryPhoto: remaining[0],
		Confidence:   g.Confidence * constants.CorrectionPenalty,
	}
	split = PhotoGroup{
		ID:           g.ID + "-split",
		Photos:       []string{photoPath},
		PrimaryPhoto: photoPath,
		Confidence:   constants.SingletonConfidence,
	}
	return updated, split, nil
}
