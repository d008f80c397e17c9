package scanner

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"memscan/constraint"
	"memscan/scantype"
)

// kernel fills out[0:width] with per-lane flags for the elements read
// from cur (and prev, for relative kinds) at the slice start: every
// byte of a passing lane is 0xFF, every byte of a failing lane 0x00.
// Leaf kernels are pure and hold no scratch; kernels for interior
// nodes, built by NewKernel, capture a scratch mask, so each goroutine
// builds its own.
type kernel func(cur, prev, out []byte)

// pointFunc evaluates the constraint for the single element at the
// start of cur/prev. It is built from the same loads and predicates as
// the vector kernel, so the scalar fallback is bit-identical.
type pointFunc func(cur, prev []byte) bool

// lane covers the ten numeric primitives a vector lane can hold
type lane interface {
	~uint8 | ~int8 | ~uint16 | ~int16 | ~uint32 | ~int32 |
		~uint64 | ~int64 | ~float32 | ~float64
}

// Program is a constraint tree compiled for one (type, endianness,
// width) combination. All kind and type dispatch is resolved here,
// once, before the scan touches any memory; the hot loop only calls
// closures.
type Program struct {
	typ      scantype.Type
	width    int
	size     int
	align    int
	relative bool
	root     *compiledNode
}

type compiledNode struct {
	op          constraint.Op
	leaf        bool
	vec         kernel
	pt          pointFunc
	left, right *compiledNode
}

// Compile validates the tree against the scan type and builds its
// compare kernels for the given vector width and element stride
func Compile(c constraint.Constraint, t scantype.Type, align scantype.Alignment, width int) (*Program, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: empty constraint tree", scantype.ErrInvalidArguments)
	}
	if err := c.Validate(t); err != nil {
		return nil, err
	}
	if err := align.Validate(); err != nil {
		return nil, err
	}
	if err := checkWidth(width); err != nil {
		return nil, err
	}

	p := &Program{
		typ:      t,
		width:    width,
		size:     t.Size(),
		align:    align.Resolve(t),
		relative: c.Relative(),
	}
	root, err := p.compileNode(c)
	if err != nil {
		return nil, err
	}
	p.root = root
	return p, nil
}

// Type returns the scan type the program was compiled for
func (p *Program) Type() scantype.Type { return p.typ }

// Width returns the vector row width in bytes
func (p *Program) Width() int { return p.width }

// ElementSize returns the element width in bytes
func (p *Program) ElementSize() int { return p.size }

// Stride returns the resolved element stride in bytes
func (p *Program) Stride() int { return p.align }

// Relative reports whether the tree reads the previous generation
func (p *Program) Relative() bool { return p.relative }

func (p *Program) compileNode(c constraint.Constraint) (*compiledNode, error) {
	switch n := c.(type) {
	case *constraint.Scan:
		vec, pt, err := compileLeaf(n, p.typ, p.width)
		if err != nil {
			return nil, err
		}
		return &compiledNode{leaf: true, vec: vec, pt: pt}, nil
	case *constraint.Operation:
		left, err := p.compileNode(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := p.compileNode(n.Right)
		if err != nil {
			return nil, err
		}
		return &compiledNode{op: n.Op, left: left, right: right}, nil
	}
	return nil, fmt.Errorf("%w: unknown constraint node %T", scantype.ErrInvalidArguments, c)
}

// NewKernel builds a vector evaluator for the whole tree with private
// scratch masks, one per worker goroutine. Returns nil for programs
// that only support pointwise evaluation (byte array types).
func (p *Program) NewKernel() kernel {
	if p.typ.Kind == scantype.Bytes {
		return nil
	}
	return p.buildKernel(p.root)
}

func (p *Program) buildKernel(n *compiledNode) kernel {
	if n.leaf {
		return n.vec
	}
	left := p.buildKernel(n.left)
	right := p.buildKernel(n.right)
	scratch := make([]byte, p.width)

	switch n.op {
	case constraint.AND:
		return func(cur, prev, out []byte) {
			left(cur, prev, out)
			if allZero(out) {
				return
			}
			right(cur, prev, scratch)
			for i := range out {
				out[i] &= scratch[i]
			}
		}
	case constraint.OR:
		return func(cur, prev, out []byte) {
			left(cur, prev, out)
			if allOnes(out) {
				return
			}
			right(cur, prev, scratch)
			for i := range out {
				out[i] |= scratch[i]
			}
		}
	default: // XOR evaluates both sides unconditionally
		return func(cur, prev, out []byte) {
			left(cur, prev, out)
			right(cur, prev, scratch)
			for i := range out {
				out[i] ^= scratch[i]
			}
		}
	}
}

// NewPointFunc builds a pointwise evaluator for the whole tree
func (p *Program) NewPointFunc() pointFunc {
	return buildPoint(p.root)
}

func buildPoint(n *compiledNode) pointFunc {
	if n.leaf {
		return n.pt
	}
	left := buildPoint(n.left)
	right := buildPoint(n.right)
	switch n.op {
	case constraint.AND:
		return func(cur, prev []byte) bool { return left(cur, prev) && right(cur, prev) }
	case constraint.OR:
		return func(cur, prev []byte) bool { return left(cur, prev) || right(cur, prev) }
	default:
		return func(cur, prev []byte) bool { return left(cur, prev) != right(cur, prev) }
	}
}

// compileLeaf resolves one leaf's kind/type/endian dispatch into a
// vector kernel and a pointwise twin
func compileLeaf(leaf *constraint.Scan, t scantype.Type, width int) (kernel, pointFunc, error) {
	if t.Kind == scantype.Bytes {
		pt, err := compileBytesLeaf(leaf, t)
		return nil, pt, err
	}

	size := t.Size()

	// byte equality kinds ignore the numeric type entirely
	switch leaf.Kind {
	case constraint.Unchanged:
		vec, pt := byteCompareLeaf(size, width, false)
		return vec, pt, nil
	case constraint.Changed:
		vec, pt := byteCompareLeaf(size, width, true)
		return vec, pt, nil
	}

	be := t.Endian == scantype.Big
	switch t.Kind {
	case scantype.U8:
		return numericLeaf(leaf, loadU8, leaf.Value.U8, size, width)
	case scantype.I8:
		return numericLeaf(leaf, loadI8, leaf.Value.I8, size, width)
	case scantype.U16:
		return numericLeaf(leaf, pick(be, loadU16be, loadU16le), leaf.Value.U16, size, width)
	case scantype.I16:
		return numericLeaf(leaf, pick(be, loadI16be, loadI16le), leaf.Value.I16, size, width)
	case scantype.U32:
		return numericLeaf(leaf, pick(be, loadU32be, loadU32le), leaf.Value.U32, size, width)
	case scantype.I32:
		return numericLeaf(leaf, pick(be, loadI32be, loadI32le), leaf.Value.I32, size, width)
	case scantype.U64:
		return numericLeaf(leaf, pick(be, loadU64be, loadU64le), leaf.Value.U64, size, width)
	case scantype.I64:
		return numericLeaf(leaf, pick(be, loadI64be, loadI64le), leaf.Value.I64, size, width)
	case scantype.F32:
		return numericLeaf(leaf, pick(be, loadF32be, loadF32le), leaf.Value.F32, size, width)
	case scantype.F64:
		return numericLeaf(leaf, pick(be, loadF64be, loadF64le), leaf.Value.F64, size, width)
	}
	return nil, nil, fmt.Errorf("%w: %s", scantype.ErrUnsupportedType, t)
}

// numericLeaf binds a typed load and the leaf's immediate into a
// per-lane predicate, then wraps it as kernel and point function.
// Integer deltas wrap; float comparisons follow IEEE-754, so NaN fails
// every ordered compare and NeQ(NaN) holds by negation.
func numericLeaf[T lane](leaf *constraint.Scan, load func([]byte) T, immOf func() T, size, width int) (kernel, pointFunc, error) {
	var imm T
	if leaf.HasValue {
		imm = immOf()
	}

	var pred func(c, p T) bool
	switch leaf.Kind {
	case constraint.Eq:
		pred = func(c, _ T) bool { return c == imm }
	case constraint.NeQ:
		pred = func(c, _ T) bool { return c != imm }
	case constraint.Gt:
		pred = func(c, _ T) bool { return c > imm }
	case constraint.Ge:
		pred = func(c, _ T) bool { return c >= imm }
	case constraint.Lt:
		pred = func(c, _ T) bool { return c < imm }
	case constraint.Le:
		pred = func(c, _ T) bool { return c <= imm }
	case constraint.Increased:
		pred = func(c, p T) bool { return c > p }
	case constraint.Decreased:
		pred = func(c, p T) bool { return c < p }
	case constraint.IncreasedBy:
		pred = func(c, p T) bool { return c == p+imm }
	case constraint.DecreasedBy:
		pred = func(c, p T) bool { return c == p-imm }
	default:
		return nil, nil, fmt.Errorf("%w: %s", scantype.ErrUnsupportedType, leaf.Kind)
	}

	vec := func(cur, prev, out []byte) {
		for i := 0; i < width; i += size {
			setLane(out[i:i+size], pred(load(cur[i:]), load(prev[i:])))
		}
	}
	pt := func(cur, prev []byte) bool {
		return pred(load(cur), load(prev))
	}
	return vec, pt, nil
}

// byteCompareLeaf compares the raw lane bytes of the two generations,
// which is deliberately not a typed compare: a NaN float lane is
// Unchanged when its bit pattern is, and byte order never matters
func byteCompareLeaf(size, width int, negate bool) (kernel, pointFunc) {
	vec := func(cur, prev, out []byte) {
		for i := 0; i < width; i += size {
			setLane(out[i:i+size], bytes.Equal(cur[i:i+size], prev[i:i+size]) != negate)
		}
	}
	pt := func(cur, prev []byte) bool {
		return bytes.Equal(cur[:size], prev[:size]) != negate
	}
	return vec, pt
}

// compileBytesLeaf builds the pointwise evaluator for opaque byte
// array scans. Ordered kinds were rejected by Validate.
func compileBytesLeaf(leaf *constraint.Scan, t scantype.Type) (pointFunc, error) {
	n := t.ByteLen
	switch leaf.Kind {
	case constraint.Eq:
		pattern := leaf.Value.Bytes()
		return func(cur, _ []byte) bool { return bytes.Equal(cur[:n], pattern) }, nil
	case constraint.NeQ:
		pattern := leaf.Value.Bytes()
		return func(cur, _ []byte) bool { return !bytes.Equal(cur[:n], pattern) }, nil
	case constraint.Unchanged:
		return func(cur, prev []byte) bool { return bytes.Equal(cur[:n], prev[:n]) }, nil
	case constraint.Changed:
		return func(cur, prev []byte) bool { return !bytes.Equal(cur[:n], prev[:n]) }, nil
	}
	return nil, fmt.Errorf("%w: %s on %s", scantype.ErrUnsupportedType, leaf.Kind, t)
}

func pick[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}

// setLane writes the uniform pass/fail flag across one lane
func setLane(lane []byte, pass bool) {
	fill := byte(0)
	if pass {
		fill = 0xFF
	}
	for i := range lane {
		lane[i] = fill
	}
}

// allZero reports whether every byte of the mask is clear. Masks are
// a multiple of 8 bytes wide, so word loads are exact.
func allZero(mask []byte) bool {
	for i := 0; i < len(mask); i += 8 {
		if binary.LittleEndian.Uint64(mask[i:]) != 0 {
			return false
		}
	}
	return true
}

// allOnes reports whether every byte of the mask is set
func allOnes(mask []byte) bool {
	for i := 0; i < len(mask); i += 8 {
		if binary.LittleEndian.Uint64(mask[i:]) != ^uint64(0) {
			return false
		}
	}
	return true
}

// typed lane loads; the big-endian variants byte-reverse before the
// typed compare

func loadU8(b []byte) uint8  { return b[0] }
func loadI8(b []byte) int8   { return int8(b[0]) }
func loadU16le(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }
func loadU16be(b []byte) uint16 { return binary.BigEndian.Uint16(b) }
func loadI16le(b []byte) int16  { return int16(binary.LittleEndian.Uint16(b)) }
func loadI16be(b []byte) int16  { return int16(binary.BigEndian.Uint16(b)) }
func loadU32le(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func loadU32be(b []byte) uint32 { return binary.BigEndian.Uint32(b) }
func loadI32le(b []byte) int32  { return int32(binary.LittleEndian.Uint32(b)) }
func loadI32be(b []byte) int32  { return int32(binary.BigEndian.Uint32(b)) }
func loadU64le(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }
func loadU64be(b []byte) uint64 { return binary.BigEndian.Uint64(b) }
func loadI64le(b []byte) int64  { return int64(binary.LittleEndian.Uint64(b)) }
func loadI64be(b []byte) int64  { return int64(binary.BigEndian.Uint64(b)) }
func loadF32le(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) }
func loadF32be(b []byte) float32 { return math.Float32frombits(binary.BigEndian.Uint32(b)) }
func loadF64le(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) }
func loadF64be(b []byte) float64 { return math.Float64frombits(binary.BigEndian.Uint64(b)) }
