// Package scanner holds the vectorized inner loop of the engine: the
// per-constraint-tree compare kernels, the run length encoder that
// turns pass/fail streams back into regions, and the per-region scan
// drivers. Kernels process one vector row of W bytes at a time, where
// W is probed from the CPU at startup.
package scanner

import (
	"fmt"

	"memscan/scantype"
)

var vectorWidth = probeVectorWidth()

// VectorWidth returns the vector row width in bytes chosen for this
// CPU. The scan algorithm is correct for any width that is a multiple
// of 8 and at least as large as the biggest element size.
func VectorWidth() int {
	return vectorWidth
}

// SetVectorWidth overrides the probed width that VectorWidth reports
// for the rest of the process. Only 16, 32 and 64 are accepted.
func SetVectorWidth(w int) error {
	if err := checkWidth(w); err != nil {
		return err
	}
	vectorWidth = w
	return nil
}

func checkWidth(w int) error {
	switch w {
	case 16, 32, 64:
		return nil
	}
	return fmt.Errorf("%w: vector width %d", scantype.ErrInvalidArguments, w)
}
