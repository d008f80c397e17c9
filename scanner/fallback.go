package scanner

import "memscan/snapshot"

// scanRegionScalar walks the region element by element. It serves
// regions smaller than a vector row, sparse strides where the stride
// exceeds the element size, and opaque byte array scans. Because it
// shares the compiled loads and predicates with the vector path, the
// surviving regions are bit-identical.
func scanRegionScalar(region *snapshot.Region, prog *Program, elements int, stop func() bool) ([]*snapshot.Region, bool) {
	cur := region.CurrentBytes()
	prev := region.PreviousBytes()
	if prev == nil {
		prev = cur
	}

	eval := prog.NewPointFunc()
	encoder := newRunLengthEncoder(region, prog.size, prog.align)

	for i := 0; i < elements; i++ {
		if stop != nil && i&4095 == 0 && stop() {
			return nil, true
		}
		off := i * prog.align
		if eval(cur[off:], prev[off:]) {
			encoder.encodeBatch(prog.align)
		} else {
			encoder.finalizeCurrentEncode(prog.align)
		}
	}

	return encoder.gatherCollectedRegions(), false
}
