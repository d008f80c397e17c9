package scanner

import "memscan/snapshot"

// ScanRegion filters one parent region through a compiled program and
// returns the surviving subregions in ascending address order. The
// aborted flag is set when the stop poll tripped mid-region; partial
// results are discarded by the caller.
//
// Regions whose group cannot provide the previous generation yield
// zero survivors under a relative tree without being scanned at all.
func ScanRegion(region *snapshot.Region, prog *Program, stop func() bool) (survivors []*snapshot.Region, aborted bool) {
	group := region.Group()
	if !group.HasCurrent() {
		return nil, false
	}
	if prog.relative && !group.CanCompare() {
		return nil, false
	}

	elements := region.ElementCount(prog.size, prog.align)
	if elements <= 0 {
		return nil, false
	}

	// sparse strides, byte arrays and tiny regions go element by
	// element; the result is bit-identical to the vector path
	if prog.typ.Kind.IsNumeric() && prog.align <= prog.size && region.Size >= prog.width {
		return scanRegionVector(region, prog, elements, stop)
	}
	return scanRegionScalar(region, prog, elements, stop)
}

// scanRegionVector is the SIMD inner loop. Each iteration evaluates
// one vector row of width bytes at every alignment shift, packing the
// per-shift lane flags into one accumulator byte per element slot:
// bit a of the flag byte holds the outcome for the element starting
// a*stride bytes into the slot.
func scanRegionVector(region *snapshot.Region, prog *Program, elements int, stop func() bool) ([]*snapshot.Region, bool) {
	region.Group().ResizeForSafeReading(prog.width)

	cur := region.CurrentBytes()
	prev := region.PreviousBytes()
	if prev == nil {
		// absolute trees never read the previous generation; alias it
		// so the kernels' loads stay in bounds
		prev = cur
	}

	width, size, stride := prog.width, prog.size, prog.align
	scansPerVector := size / stride
	allPass := byte(1<<scansPerVector) - 1
	validBytes := elements * stride

	eval := prog.NewKernel()
	acc := make([]byte, width)
	results := make([]byte, width)
	encoder := newRunLengthEncoder(region, size, stride)

	row := 0
	for off := 0; off < validBytes; off += width {
		if stop != nil && row&63 == 0 && stop() {
			return nil, true
		}
		row++

		for i := range acc {
			acc[i] = 0
		}
		for a := 0; a < scansPerVector; a++ {
			eval(cur[off+a*stride:], prev[off+a*stride:], results)
			bit := byte(1) << a
			for i := range acc {
				acc[i] |= results[i] & bit
			}
		}

		if off+width <= validBytes {
			if uniform(acc, allPass) {
				encoder.encodeBatch(width)
				continue
			}
			if uniform(acc, 0) {
				encoder.finalizeCurrentEncode(width)
				continue
			}
		}

		// mixed row: walk the flag byte of each element slot
		for slot := 0; slot < width; slot += size {
			flags := acc[slot]
			for a := 0; a < scansPerVector; a++ {
				if off+slot+a*stride >= validBytes {
					break
				}
				if flags&(1<<a) != 0 {
					encoder.encodeBatch(stride)
				} else {
					encoder.finalizeCurrentEncode(stride)
				}
			}
		}
	}

	return encoder.gatherCollectedRegions(), false
}

// uniform reports whether every byte of the mask equals v
func uniform(mask []byte, v byte) bool {
	for _, b := range mask {
		if b != v {
			return false
		}
	}
	return true
}
