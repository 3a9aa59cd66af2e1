package grouping

import (
	"fmt"
	"sync"
)

// Store holds the group set for one upload batch and applies user
// corrections. Corrections are serialized (one in flight at a time) and
// atomic: the candidate group set is validated against the partition
// invariant before it replaces the current one, so a failed correction never
// leaves partial state behind.
type Store struct {
	mu     sync.Mutex
	inputs []string
	groups []PhotoGroup
}

// NewStore creates a store over an initial group set, typically the output of
// GroupPhotos. The photos present across the groups define the partition
// domain for all later corrections.
func NewStore(groups []PhotoGroup) *Store {
	return &Store{
		inputs: Photos(groups),
		groups: slicesClone(groups),
	}
}

// Groups returns a snapshot of the current group set.
func (s *Store) Groups() []PhotoGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slicesClone(s.groups)
}

// Merge merges the group with id otherID into the group with id id. The
// merged group takes the first group's position; the second group is removed.
func (s *Store) Merge(id, otherID string) (PhotoGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexOf(id)
	if err != nil {
		return PhotoGroup{}, err
	}
	j, err := s.indexOf(otherID)
	if err != nil {
		return PhotoGroup{}, err
	}
	if i == j {
		return PhotoGroup{}, fmt.Errorf("cannot merge group %s with itself", id)
	}

	merged := MergeGroups(s.groups[i], s.groups[j])

	next := make([]PhotoGroup, 0, len(s.groups)-1)
	for k, g := range s.groups {
		switch k {
		case i:
			next = append(next, merged)
		case j:
			// dropped
		default:
			next = append(next, g)
		}
	}

	if err := ValidatePartition(next, s.inputs); err != nil {
		return PhotoGroup{}, fmt.Errorf("merge would break the batch partition: %w", err)
	}
	s.groups = next
	return merged, nil
}

// Split moves one photo out of a group into a new singleton group, inserted
// right after its source so related listing candidates stay adjacent.
func (s *Store) Split(id, photoPath string) (updated PhotoGroup, split PhotoGroup, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexOf(id)
	if err != nil {
		return PhotoGroup{}, PhotoGroup{}, err
	}

	updated, split, err = SplitPhotoFromGroup(s.groups[i], photoPath)
	if err != nil {
		return PhotoGroup{}, PhotoGroup{}, err
	}
	split.ID = s.uniqueID(split.ID)

	next := make([]PhotoGroup, 0, len(s.groups)+1)
	next = append(next, s.groups[:i]...)
	next = append(next, updated, split)
	next = append(next, s.groups[i+1:]...)

	if err := ValidatePartition(next, s.inputs); err != nil {
		return PhotoGroup{}, PhotoGroup{}, fmt.Errorf("split would break the batch partition: %w", err)
	}
	s.groups = next
	return updated, split, nil
}

// indexOf finds a group by id. Callers must hold the lock.
func (s *Store) indexOf(id string) (int, error) {
	for i, g := range s.groups {
		if g.ID == id {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrGroupNotFound, id)
}

// uniqueID disambiguates derived ids when the same group is split more than
// once. Callers must hold the lock.
func (s *Store) uniqueID(id string) string {
	taken := make(map[string]struct{}, len(s.groups))
	for _, g := range s.groups {
		taken[g.ID] = struct{}{}
	}
	if _, ok := taken[id]; !ok {
		return id
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", id, n)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

// slicesClone deep-copies a group slice so snapshots do not alias store
// state.
func slicesClone(groups []PhotoGroup) []PhotoGroup {
	out := make([]PhotoGroup, len(groups))
	for i, g := range groups {
		g.Photos = append([]string(nil), g.Photos...)
		out[i] = g
	}
	return out
}
