//go:build amd64

package scanner

import "golang.org/x/sys/cpu"

// probeVectorWidth picks the widest row the CPU can compare in one
// register: 64 bytes with AVX-512, 32 with AVX2, 16 with baseline SSE2
func probeVectorWidth() int {
	switch {
	case cpu.X86.HasAVX512F && cpu.X86.HasAVX512BW:
		return 64
	case cpu.X86.HasAVX2:
		return 32
	default:
		return 16
	}
}
