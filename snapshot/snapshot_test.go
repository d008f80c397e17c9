package snapshot

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"memscan/scantype"
)

func fullReader(data []byte) ByteReader {
	return func(addr uint64, buf []byte) (int, error) {
		return copy(buf, data), nil
	}
}

func TestReadAllRotatesGenerations(t *testing.T) {
	group := NewReadGroup(0x1000, 4, 1)
	require.False(t, group.HasCurrent())
	require.False(t, group.CanCompare())

	require.NoError(t, group.ReadAll(fullReader([]byte{1, 2, 3, 4})))
	require.True(t, group.HasCurrent())
	require.False(t, group.CanCompare(), "no previous generation after first read")

	require.NoError(t, group.ReadAll(fullReader([]byte{5, 6, 7, 8})))
	require.True(t, group.CanCompare())
	require.Equal(t, []byte{5, 6, 7, 8}, group.Current()[:4])
	require.Equal(t, []byte{1, 2, 3, 4}, group.Previous()[:4])
}

func TestShortReadDisablesComparison(t *testing.T) {
	group := NewReadGroup(0x1000, 4, 1)
	require.NoError(t, group.ReadAll(fullReader([]byte{1, 2, 3, 4})))

	short := func(addr uint64, buf []byte) (int, error) {
		buf[0] = 9
		return 1, nil
	}
	require.NoError(t, group.ReadAll(short))
	require.False(t, group.CanCompare())
	require.Equal(t, []byte{9, 0, 0, 0}, group.Current()[:4], "tail zero filled")

	// a later complete read restores comparability
	require.NoError(t, group.ReadAll(fullReader([]byte{1, 2, 3, 4})))
	require.True(t, group.CanCompare())
}

func TestUnmappedReadTolerated(t *testing.T) {
	group := NewReadGroup(0x1000, 4, 1)
	err := group.ReadAll(func(addr uint64, buf []byte) (int, error) {
		return 0, ErrAddressNotMapped
	})
	require.NoError(t, err)
	require.False(t, group.CanCompare())
}

func TestReaderErrorSurfacesAsReadFailed(t *testing.T) {
	group := NewReadGroup(0x1000, 4, 1)
	err := group.ReadAll(func(addr uint64, buf []byte) (int, error) {
		return 0, errBoom
	})
	require.ErrorIs(t, err, ErrReadFailed)
}

var errBoom = &readerError{"boom"}

type readerError struct{ msg string }

func (e *readerError) Error() string { return e.msg }

func TestResizeForSafeReading(t *testing.T) {
	group := NewReadGroup(0x1000, 10, 1)
	require.NoError(t, group.ReadAll(fullReader([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})))

	group.ResizeForSafeReading(16)
	require.Equal(t, 10, group.Size, "logical size unchanged")
	require.Len(t, group.Current(), 26)
	for _, b := range group.Current()[10:] {
		require.Zero(t, b, "padding is deterministic zero")
	}

	// shrinking is a no-op
	group.ResizeForSafeReading(8)
	require.Len(t, group.Current(), 26)
}

func TestElementCountMatchesNaiveWalk(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("element count equals naive byte stepping", prop.ForAll(
		func(size int, elementSize int, alignChoice int) bool {
			align := []int{1, 2, 4, 8}[alignChoice]
			group := NewReadGroup(0x1000, size, scantype.Alignment(align))
			region := NewRegion(group, 0, size)

			naive := 0
			for off := 0; off+elementSize <= size; off += align {
				naive++
			}
			return region.ElementCount(elementSize, align) == naive
		},
		gen.IntRange(0, 512),
		gen.OneConstOf(1, 2, 4, 8),
		gen.IntRange(0, 3),
	))

	properties.TestingRun(t)
}

func buildIndexedSnapshot(t *testing.T, sizes []int, elementSize, align int) *Snapshot {
	t.Helper()
	regions := make([]*Region, 0, len(sizes))
	base := uint64(0x1000)
	for _, size := range sizes {
		group := NewReadGroup(base, size, scantype.Alignment(align))
		regions = append(regions, NewRegion(group, 0, size))
		base += uint64(size) + 0x100
	}
	snap := New("test", scantype.Alignment(align), regions)
	snap.RecomputeIndex(elementSize, align)
	return snap
}

func TestBinarySearchFindsEveryElement(t *testing.T) {
	snap := buildIndexedSnapshot(t, []int{16, 7, 64, 3, 129}, 4, 2)

	var walked uint64
	for _, region := range snap.Regions() {
		count := region.ElementCount(4, 2)
		for i := 0; i < count; i++ {
			idx := region.BaseElementIndex() + uint64(i)
			require.Same(t, region, snap.RegionContaining(idx), "element %d", idx)

			addr, ok := snap.ElementAddress(idx, 2)
			require.True(t, ok)
			require.Equal(t, region.BaseAddress()+uint64(i*2), addr)
			walked++
		}
	}
	require.Equal(t, snap.ElementCount(), walked)
	require.Nil(t, snap.RegionContaining(snap.ElementCount()))
}

func TestRecomputeIndexAggregates(t *testing.T) {
	snap := buildIndexedSnapshot(t, []int{16, 8}, 4, 4)
	require.Equal(t, 2, snap.RegionCount())
	require.Equal(t, uint64(24), snap.ByteCount())
	require.Equal(t, uint64(4+2), snap.ElementCount())
}

func TestSnapshotSortsRegions(t *testing.T) {
	gLow := NewReadGroup(0x1000, 8, 1)
	gHigh := NewReadGroup(0x9000, 8, 1)
	snap := New("order", 1, []*Region{
		NewRegion(gHigh, 0, 8),
		NewRegion(gLow, 0, 8),
	})
	require.Equal(t, uint64(0x1000), snap.Regions()[0].BaseAddress())
	require.Equal(t, uint64(0x9000), snap.Regions()[1].BaseAddress())
}

func TestGroupsDeduplicates(t *testing.T) {
	group := NewReadGroup(0x1000, 64, 1)
	snap := New("dedup", 1, []*Region{
		NewRegion(group, 0, 16),
		NewRegion(group, 32, 16),
	})
	require.Len(t, snap.Groups(), 1)
}

func TestCollectSkipsUnreadable(t *testing.T) {
	snap := Collect("Initial", scantype.AlignAuto, []MappedRange{
		{Base: 0x1000, Size: 64, Readable: true},
		{Base: 0x2000, Size: 64, Readable: false},
		{Base: 0x3000, Size: 0, Readable: true},
		{Base: 0x4000, Size: 32, Readable: true},
	})
	require.Equal(t, 2, snap.RegionCount())
	require.Equal(t, uint64(0x1000), snap.Regions()[0].BaseAddress())
	require.Equal(t, uint64(0x4000), snap.Regions()[1].BaseAddress())
}

func TestStackUndo(t *testing.T) {
	stack := &Stack{}
	require.Nil(t, stack.Current())
	require.Nil(t, stack.Pop())

	first := New("first", 1, nil)
	second := New("second", 1, nil)
	stack.Push(first)
	stack.Push(second)

	require.Equal(t, 2, stack.Depth())
	require.Same(t, second, stack.Current())
	require.Same(t, second, stack.Pop())
	require.Same(t, first, stack.Current())
}
