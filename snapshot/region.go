package snapshot

import "fmt"

// Region is a slice of a ReadGroup that is still a scan candidate.
// Regions are views: they own no bytes and may overlap arbitrarily with
// the group's alignment grid, so a region can be mis-aligned relative
// to its group.
type Region struct {
	group            *ReadGroup
	OffsetInGroup    int
	Size             int
	baseElementIndex uint64
}

// NewRegion creates a candidate region covering size bytes starting at
// offset within group
func NewRegion(group *ReadGroup, offset, size int) *Region {
	return &Region{group: group, OffsetInGroup: offset, Size: size}
}

// Group returns the ReadGroup this region views into
func (r *Region) Group() *ReadGroup { return r.group }

// BaseAddress is the absolute target address of the region's first byte
func (r *Region) BaseAddress() uint64 {
	return r.group.BaseAddress + uint64(r.OffsetInGroup)
}

// BaseElementIndex is the linear index of the region's first element
// within the enclosing snapshot, assigned by RecomputeIndex
func (r *Region) BaseElementIndex() uint64 { return r.baseElementIndex }

// ElementCount returns how many elements of the given size fit in the
// region when stepping by align bytes
func (r *Region) ElementCount(elementSize, align int) int {
	n := (r.Size - elementSize + align) / align
	if n < 0 {
		return 0
	}
	return n
}

// CurrentBytes returns the current sample window starting at the
// region, including the group's safety padding tail
func (r *Region) CurrentBytes() []byte {
	return r.group.Current()[r.OffsetInGroup:]
}

// PreviousBytes returns the previous sample window starting at the
// region, nil if the group has no previous generation
func (r *Region) PreviousBytes() []byte {
	prev := r.group.Previous()
	if prev == nil {
		return nil
	}
	return prev[r.OffsetInGroup:]
}

func (r *Region) String() string {
	return fmt.Sprintf("region 0x%X+%d", r.BaseAddress(), r.Size)
}
