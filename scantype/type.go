package scantype

import (
	"fmt"
	"strconv"
	"strings"
)

// Endian selects the byte order a value is interpreted with.
// Buffers always hold raw target bytes; big-endian types are
// byte-reversed on read.
type Endian uint8

const (
	Little Endian = iota
	Big
)

func (e Endian) String() string {
	if e == Big {
		return "be"
	}
	return "le"
}

// Type is a scannable value type: a primitive kind plus byte order,
// or an opaque byte array with an explicit length.
type Type struct {
	Kind   Kind
	Endian Endian
	// ByteLen is the array length for Bytes and ignored otherwise
	ByteLen int
}

// Size returns the width in bytes of one element of this type
func (t Type) Size() int {
	if t.Kind == Bytes {
		return t.ByteLen
	}
	return t.Kind.Size()
}

func (t Type) String() string {
	if t.Kind == Bytes {
		return fmt.Sprintf("bytes[%d]", t.ByteLen)
	}
	if t.Kind.Size() == 1 {
		// single byte types have no byte order
		return t.Kind.String()
	}
	return t.Kind.String() + t.Endian.String()
}

// Validate checks that the type is well formed
func (t Type) Validate() error {
	if t.Kind == Bytes {
		if t.ByteLen <= 0 {
			return fmt.Errorf("%w: byte array length %d", ErrInvalidArguments, t.ByteLen)
		}
		return nil
	}
	if t.Kind.Size() == 0 {
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidArguments, t.Kind)
	}
	return nil
}

var kindNames = map[string]Kind{
	"u8": U8, "i8": I8,
	"u16": U16, "i16": I16,
	"u32": U32, "i32": I32,
	"u64": U64, "i64": I64,
	"f32": F32, "f64": F64,
}

// ParseType parses type names like "i32", "i32le", "u64be", "f32",
// and "bytes[16]". A missing byte order suffix means little endian.
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	if rest, ok := strings.CutPrefix(s, "bytes["); ok {
		num, ok := strings.CutSuffix(rest, "]")
		if !ok {
			return Type{}, fmt.Errorf("%w: malformed type %q", ErrInvalidArguments, s)
		}
		n, err := strconv.Atoi(num)
		if err != nil || n <= 0 {
			return Type{}, fmt.Errorf("%w: byte array length %q", ErrInvalidArguments, num)
		}
		return Type{Kind: Bytes, ByteLen: n}, nil
	}

	endian := Little
	if base, ok := strings.CutSuffix(s, "be"); ok {
		endian = Big
		s = base
	} else if base, ok := strings.CutSuffix(s, "le"); ok {
		s = base
	}

	kind, ok := kindNames[s]
	if !ok {
		return Type{}, fmt.Errorf("%w: unknown type %q", ErrInvalidArguments, s)
	}
	return Type{Kind: kind, Endian: endian}, nil
}
