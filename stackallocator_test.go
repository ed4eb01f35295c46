package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackAllocSliceWithinCapacityBumpsIndex(t *testing.T) {
	alloc := NewStackAllocator(1024)
	s := stackAllocSlice[int64](alloc, 4)
	require.Len(t, s, 4)
	s[0], s[3] = 7, 9
	assert.Equal(t, int64(7), s[0])
	assert.Equal(t, int64(9), s[3])
	assert.Equal(t, 1, alloc.OutstandingAllocations())
}

func TestStackAllocSliceZeroLengthReturnsNil(t *testing.T) {
	alloc := NewStackAllocator(1024)
	s := stackAllocSlice[int64](alloc, 0)
	assert.Nil(t, s)
	assert.Equal(t, 0, alloc.OutstandingAllocations())
}

func TestStackAllocatorFreeIsLifo(t *testing.T) {
	alloc := NewStackAllocator(1024)
	a := stackAllocSlice[int32](alloc, 2)
	b := stackAllocSlice[int32](alloc, 2)
	require.Equal(t, 2, alloc.OutstandingAllocations())

	stackFreeSlice(alloc, b)
	assert.Equal(t, 1, alloc.OutstandingAllocations())
	stackFreeSlice(alloc, a)
	assert.Equal(t, 0, alloc.OutstandingAllocations())
}

func TestStackAllocatorFreeWithNothingOutstandingPanics(t *testing.T) {
	alloc := NewStackAllocator(1024)
	assert.Panics(t, func() { alloc.free() })
}

func TestStackAllocatorOverCapacityFallsBackToMalloc(t *testing.T) {
	alloc := NewStackAllocator(8)
	s := stackAllocSlice[int64](alloc, 10)
	require.Len(t, s, 10)
	s[9] = 42
	assert.Equal(t, int64(42), s[9])
	stackFreeSlice(alloc, s)
	assert.Equal(t, 0, alloc.OutstandingAllocations())
}

func TestStackAllocatorResetClearsAllOutstanding(t *testing.T) {
	alloc := NewStackAllocator(1024)
	stackAllocSlice[int64](alloc, 4)
	stackAllocSlice[int64](alloc, 4)
	alloc.Reset()
	assert.Equal(t, 0, alloc.OutstandingAllocations())
}
