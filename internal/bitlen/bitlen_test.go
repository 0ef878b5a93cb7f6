package bitlen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcatCombinesEveryPair(t *testing.T) {
	a := FromSlice([]uint64{8, 16})
	b := Singleton(8)
	got := Concat(a, b)
	assert.Equal(t, []uint64{16, 24}, got.Lengths())
}

func TestConcatEmptyIsEmpty(t *testing.T) {
	got := Concat(Set{}, Singleton(8))
	assert.True(t, got.IsEmpty())
}

func TestUnionDeduplicatesAndSorts(t *testing.T) {
	a := FromSlice([]uint64{24, 8})
	b := FromSlice([]uint64{8, 16})
	got := Union(a, b)
	assert.Equal(t, []uint64{8, 16, 24}, got.Lengths())
}

func TestConcatAllIdentityIsZero(t *testing.T) {
	got := ConcatAll()
	assert.Equal(t, []uint64{0}, got.Lengths())
}

func TestUnifyOverVariableArray(t *testing.T) {
	// saturated uint8[<=3]: tag width ceil(log2(4))=2 bits, plus 0..3
	// elements of 8 bits each.
	tag := Singleton(2)
	elem := Singleton(8)
	body := UnifyOver(3, func(k int) Set { return ConcatAll(repeatN(elem, k)...) })
	got := Concat(tag, body)
	assert.Equal(t, []uint64{2, 10, 18, 26}, got.Lengths())
}

func repeatN(s Set, k int) []Set {
	out := make([]Set, k)
	for i := range out {
		out[i] = s
	}
	return out
}

func TestMaxAndMin(t *testing.T) {
	s := FromSlice([]uint64{3, 7, 5})
	assert.Equal(t, uint64(7), s.Max())
	assert.Equal(t, uint64(3), s.Min())
}

func TestMaxPanicsOnEmpty(t *testing.T) {
	assert.Panics(t, func() { Set{}.Max() })
}

func TestIsAlignedAt(t *testing.T) {
	aligned := FromSlice([]uint64{8, 16, 24})
	misaligned := FromSlice([]uint64{8, 13})
	assert.True(t, aligned.IsAlignedAt(8))
	assert.False(t, misaligned.IsAlignedAt(8))
	require.True(t, aligned.IsAlignedAt(0))
}

func TestEqual(t *testing.T) {
	a := FromSlice([]uint64{8, 16})
	b := FromSlice([]uint64{16, 8})
	c := FromSlice([]uint64{8, 24})
	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
}
