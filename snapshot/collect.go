package snapshot

import "memscan/scantype"

// MappedRange describes one entry of an OS memory map as seen by the
// front-end that enumerated it. The core never parses /proc or calls
// VirtualQueryEx itself; it only consumes this shape.
type MappedRange struct {
	Base     uint64
	Size     int
	Readable bool
}

// Collect builds the initial snapshot for a scan session: one
// ReadGroup and one full-width Region per readable mapped range.
// Non-readable and empty ranges are skipped.
func Collect(name string, alignment scantype.Alignment, ranges []MappedRange) *Snapshot {
	regions := make([]*Region, 0, len(ranges))
	for _, mr := range ranges {
		if !mr.Readable || mr.Size <= 0 {
			continue
		}
		group := NewReadGroup(mr.Base, mr.Size, alignment)
		regions = append(regions, NewRegion(group, 0, mr.Size))
	}
	return New(name, alignment, regions)
}
