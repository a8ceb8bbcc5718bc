package allocator

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateDeterministic(t *testing.T) {
	a := New(4, 4096)

	idx, ok := a.Allocate()
	require.True(t, ok)
	assert.Equal(t, uint32(0), idx)

	idx, ok = a.Allocate()
	require.True(t, ok)
	assert.Equal(t, uint32(1), idx)
}

func TestAllocateExhaustion(t *testing.T) {
	a := New(2, 4096)
	_, ok := a.Allocate()
	require.True(t, ok)
	_, ok = a.Allocate()
	require.True(t, ok)

	_, ok = a.Allocate()
	assert.False(t, ok)
	assert.Equal(t, 2, a.UsedBlocks())
	assert.Equal(t, 0, a.FreeBlocks())
}

func TestFreeThenReallocateLowestIndex(t *testing.T) {
	a := New(3, 4096)
	a.Allocate() // 0
	a.Allocate() // 1
	a.Allocate() // 2

	require.True(t, a.Free(1))

	idx, ok := a.Allocate()
	require.True(t, ok)
	assert.Equal(t, uint32(1), idx)
}

func TestFreeAlreadyFreeIsNoOp(t *testing.T) {
	a := New(2, 4096)
	assert.True(t, a.Free(0))
	assert.True(t, a.Free(0))
	assert.Equal(t, 2, a.FreeBlocks())
}

func TestFreeOutOfRange(t *testing.T) {
	a := New(2, 4096)
	assert.False(t, a.Free(5))
}

func TestUsedPlusFreeInvariant(t *testing.T) {
	a := New(10, 512)
	for i := 0; i < 5; i++ {
		a.Allocate()
	}
	a.Free(2)
	assert.Equal(t, a.TotalBlocks(), a.UsedBlocks()+a.FreeBlocks())
}

func TestSerializationRoundTrip(t *testing.T) {
	a := New(17, 4096) // not a multiple of 8, exercises padding
	a.Allocate()
	a.Allocate()
	a.Free(0)

	var buf bytes.Buffer
	_, err := a.WriteTo(&buf)
	require.NoError(t, err)

	reloaded, err := ReadFrom(&buf)
	require.NoError(t, err)

	assert.Equal(t, a.TotalBlocks(), reloaded.TotalBlocks())
	assert.Equal(t, a.BlockSize(), reloaded.BlockSize())
	for i := 0; i < a.TotalBlocks(); i++ {
		assert.Equal(t, a.IsFree(uint32(i)), reloaded.IsFree(uint32(i)), "bit %d", i)
	}
}
