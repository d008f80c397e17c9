package scanner

import "memscan/snapshot"

// runLengthEncoder compacts a left-to-right stream of per-element
// pass/fail outcomes over one parent region into surviving subregions.
// Batches only ever grow the open run; a run is emitted when the first
// failing element closes it, so adjacent passing runs coalesce across
// vector rows for free.
type runLengthEncoder struct {
	parent      *snapshot.Region
	elementSize int
	stride      int

	resultRegions      []*snapshot.Region
	runLengthElements  int
	runStartByteOffset int
}

func newRunLengthEncoder(parent *snapshot.Region, elementSize, stride int) *runLengthEncoder {
	return &runLengthEncoder{
		parent:      parent,
		elementSize: elementSize,
		stride:      stride,
	}
}

// encodeBatch extends the open run by nBytes of passing results,
// one element per stride
func (e *runLengthEncoder) encodeBatch(nBytes int) {
	e.runLengthElements += nBytes / e.stride
}

// finalizeCurrentEncode closes the open run, emitting a region when it
// holds any elements, then skips nBytes of failing results. The
// emitted size covers every element start plus the final element's
// tail bytes, clamped to the parent.
func (e *runLengthEncoder) finalizeCurrentEncode(nBytes int) {
	if e.runLengthElements > 0 {
		runBytes := e.runLengthElements * e.stride
		size := runBytes + e.elementSize - e.stride
		if tail := e.parent.Size - e.runStartByteOffset; size > tail {
			size = tail
		}
		e.resultRegions = append(e.resultRegions, snapshot.NewRegion(
			e.parent.Group(),
			e.parent.OffsetInGroup+e.runStartByteOffset,
			size,
		))
		e.runStartByteOffset += runBytes
		e.runLengthElements = 0
	}
	e.runStartByteOffset += nBytes
}

// gatherCollectedRegions closes any open run and returns the survivors
func (e *runLengthEncoder) gatherCollectedRegions() []*snapshot.Region {
	e.finalizeCurrentEncode(0)
	return e.resultRegions
}
