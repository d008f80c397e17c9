package scantype

import (
	"errors"
	"fmt"
)

// ErrInvalidArguments reports a malformed scan parameter: an unknown
// type name, an alignment outside {auto,1,2,4,8}, or a constraint value
// whose type does not match the scan type.
var ErrInvalidArguments = errors.New("invalid arguments")

// ErrUnsupportedType reports a constraint kind that cannot be applied
// to the requested scan type, such as IncreasedBy on a byte array.
var ErrUnsupportedType = errors.New("unsupported type")

// Alignment is the byte stride between consecutive elements within a
// region. AlignAuto resolves from the scan type.
type Alignment int

const AlignAuto Alignment = 0

// Validate checks the alignment is auto or a supported power of two
func (a Alignment) Validate() error {
	switch a {
	case AlignAuto, 1, 2, 4, 8:
		return nil
	}
	return fmt.Errorf("%w: alignment %d", ErrInvalidArguments, int(a))
}

// Resolve returns the concrete element stride for the given type.
// Auto resolves to min(size, 8) for numerics and is forced to 1 for
// byte arrays, which match at every offset.
func (a Alignment) Resolve(t Type) int {
	if t.Kind == Bytes {
		return 1
	}
	if a == AlignAuto {
		size := t.Size()
		if size > 8 {
			return 8
		}
		return size
	}
	return int(a)
}

func (a Alignment) String() string {
	if a == AlignAuto {
		return "auto"
	}
	return fmt.Sprintf("%d", int(a))
}
