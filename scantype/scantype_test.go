package scantype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	cases := []struct {
		in   string
		want Type
	}{
		{"u8", Type{Kind: U8}},
		{"i32", Type{Kind: I32}},
		{"i32le", Type{Kind: I32}},
		{"i32be", Type{Kind: I32, Endian: Big}},
		{"U64BE", Type{Kind: U64, Endian: Big}},
		{"f32", Type{Kind: F32}},
		{"f64le", Type{Kind: F64}},
		{"bytes[16]", Type{Kind: Bytes, ByteLen: 16}},
	}
	for _, tc := range cases {
		got, err := ParseType(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "i33", "bytes[]", "bytes[0]", "bytes[x]", "float"} {
		_, err := ParseType(bad)
		require.ErrorIs(t, err, ErrInvalidArguments, bad)
	}
}

func TestAlignmentResolve(t *testing.T) {
	require.Equal(t, 4, AlignAuto.Resolve(Type{Kind: I32}))
	require.Equal(t, 8, AlignAuto.Resolve(Type{Kind: F64}))
	require.Equal(t, 1, AlignAuto.Resolve(Type{Kind: U8}))
	require.Equal(t, 1, AlignAuto.Resolve(Type{Kind: Bytes, ByteLen: 32}))
	require.Equal(t, 1, Alignment(4).Resolve(Type{Kind: Bytes, ByteLen: 32}))
	require.Equal(t, 2, Alignment(2).Resolve(Type{Kind: I64}))

	require.NoError(t, Alignment(8).Validate())
	require.NoError(t, AlignAuto.Validate())
	require.ErrorIs(t, Alignment(3).Validate(), ErrInvalidArguments)
	require.ErrorIs(t, Alignment(-1).Validate(), ErrInvalidArguments)
}

func TestParseValueRanges(t *testing.T) {
	v, err := ParseValue(Type{Kind: I8}, "-128")
	require.NoError(t, err)
	require.Equal(t, int8(-128), v.I8())

	_, err = ParseValue(Type{Kind: I8}, "128")
	require.ErrorIs(t, err, ErrInvalidArguments)

	v, err = ParseValue(Type{Kind: U16}, "0xFFFF")
	require.NoError(t, err)
	require.Equal(t, uint16(0xFFFF), v.U16())

	v, err = ParseValue(Type{Kind: F32}, "1.5")
	require.NoError(t, err)
	require.Equal(t, float32(1.5), v.F32())

	v, err = ParseValue(Type{Kind: Bytes, ByteLen: 4}, "DE AD BE EF")
	require.NoError(t, err)
	require.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, v.Bytes())
}

func TestValueCompatible(t *testing.T) {
	require.NoError(t, FromUint64(U32, 7).Compatible(Type{Kind: U32}))
	require.ErrorIs(t,
		FromUint64(U32, 7).Compatible(Type{Kind: I32}),
		ErrInvalidArguments)
	require.ErrorIs(t,
		FromBytes([]byte{1, 2}).Compatible(Type{Kind: Bytes, ByteLen: 3}),
		ErrInvalidArguments)
}
