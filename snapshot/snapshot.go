package snapshot

import (
	"sort"

	"github.com/google/uuid"

	"memscan/scantype"
)

// Snapshot is an ordered set of disjoint candidate regions together
// with aggregate counts and a linear element index. Regions are sorted
// ascending by base address; base element indices are a prefix sum over
// per-region element counts, so any element of the snapshot can be
// located by binary search.
type Snapshot struct {
	ID   uuid.UUID
	Name string

	regions   []*Region
	alignment scantype.Alignment

	byteCount    uint64
	elementCount uint64
}

// New creates a snapshot from the given regions, sorting them by base
// address. Counts and element indices are not valid until
// RecomputeIndex runs for a concrete type and alignment.
func New(name string, alignment scantype.Alignment, regions []*Region) *Snapshot {
	s := &Snapshot{
		ID:        uuid.New(),
		Name:      name,
		alignment: alignment,
		regions:   regions,
	}
	sort.SliceStable(s.regions, func(i, j int) bool {
		return s.regions[i].BaseAddress() < s.regions[j].BaseAddress()
	})
	return s
}

// Regions returns the snapshot's regions in address order
func (s *Snapshot) Regions() []*Region { return s.regions }

// RegionCount returns the number of candidate regions
func (s *Snapshot) RegionCount() int { return len(s.regions) }

// ByteCount returns the total candidate bytes, valid after RecomputeIndex
func (s *Snapshot) ByteCount() uint64 { return s.byteCount }

// ElementCount returns the total candidate elements, valid after
// RecomputeIndex
func (s *Snapshot) ElementCount() uint64 { return s.elementCount }

// Alignment returns the snapshot's alignment setting
func (s *Snapshot) Alignment() scantype.Alignment { return s.alignment }

// SetAlignment records a new alignment for the snapshot. Buffers are
// untouched; only the element iteration stride changes.
func (s *Snapshot) SetAlignment(a scantype.Alignment) { s.alignment = a }

// ResolveAlignment resolves the requested alignment against the scan
// type, records it, and returns the concrete stride
func (s *Snapshot) ResolveAlignment(requested scantype.Alignment, t scantype.Type) int {
	s.alignment = requested
	return requested.Resolve(t)
}

// Groups returns the distinct ReadGroups referenced by the snapshot's
// regions, in first-reference order
func (s *Snapshot) Groups() []*ReadGroup {
	seen := make(map[*ReadGroup]struct{}, len(s.regions))
	var groups []*ReadGroup
	for _, r := range s.regions {
		if _, ok := seen[r.group]; ok {
			continue
		}
		seen[r.group] = struct{}{}
		groups = append(groups, r.group)
	}
	return groups
}

// RecomputeIndex rebuilds the aggregate counts and assigns each
// region's base element index as a prefix sum over element counts for
// the given element size and stride
func (s *Snapshot) RecomputeIndex(elementSize, align int) {
	s.byteCount = 0
	s.elementCount = 0
	for _, r := range s.regions {
		r.baseElementIndex = s.elementCount
		s.byteCount += uint64(r.Size)
		s.elementCount += uint64(r.ElementCount(elementSize, align))
	}
}

// RegionContaining binary-searches for the region whose element index
// range contains the given linear element index. Returns nil when the
// index is out of range. Valid only after RecomputeIndex.
func (s *Snapshot) RegionContaining(elementIndex uint64) *Region {
	if elementIndex >= s.elementCount {
		return nil
	}
	i := sort.Search(len(s.regions), func(i int) bool {
		return s.regions[i].baseElementIndex > elementIndex
	})
	if i == 0 {
		return nil
	}
	return s.regions[i-1]
}

// ElementAddress returns the absolute address of the element at the
// given linear index for the given stride, or false when out of range
func (s *Snapshot) ElementAddress(elementIndex uint64, align int) (uint64, bool) {
	r := s.RegionContaining(elementIndex)
	if r == nil {
		return 0, false
	}
	return r.BaseAddress() + (elementIndex-r.baseElementIndex)*uint64(align), true
}
