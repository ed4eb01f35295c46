package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaAllocateAndAt(t *testing.T) {
	a := newArena[int]()
	id := a.allocate(42)
	v, err := a.at(id)
	require.NoError(t, err)
	assert.Equal(t, 42, *v)
	assert.Equal(t, 1, a.count())
}

func TestArenaFreeListReuse(t *testing.T) {
	a := newArena[string]()
	id1 := a.allocate("a")
	id2 := a.allocate("b")
	a.freeID(id1)
	assert.Equal(t, 1, a.count())

	id3 := a.allocate("c")
	assert.Equal(t, id1.index, id3.index, "freed slot should be reused")
	assert.NotEqual(t, id1.gen, id3.gen, "generation must bump on reuse")
	assert.Equal(t, 2, a.count())

	_, err := a.at(id1)
	assert.Error(t, err, "stale id must fail after its slot is reused")

	v2, err := a.at(id2)
	require.NoError(t, err)
	assert.Equal(t, "b", *v2)
}

func TestArenaOutOfRange(t *testing.T) {
	a := newArena[int]()
	_, err := a.at(arenaIndex{index: 7, gen: 1})
	assert.Error(t, err)
}

func TestArenaClear(t *testing.T) {
	a := newArena[int]()
	a.allocate(1)
	a.allocate(2)
	a.clear()
	assert.Equal(t, 0, a.count())
	assert.Equal(t, 0, len(a.slots))
}

func TestArenaEachSkipsFreed(t *testing.T) {
	a := newArena[int]()
	id1 := a.allocate(10)
	a.allocate(20)
	a.freeID(id1)

	seen := map[int]bool{}
	a.each(func(idx uint32, value *int) {
		seen[*value] = true
	})
	assert.False(t, seen[10])
	assert.True(t, seen[20])
}

func TestArenaMustAtPanicsOnInvalid(t *testing.T) {
	a := newArena[int]()
	assert.Panics(t, func() {
		a.mustAt(arenaIndex{index: 99})
	})
}

func TestArenaContains(t *testing.T) {
	a := newArena[int]()
	id := a.allocate(1)
	assert.True(t, a.contains(id))
	a.freeID(id)
	assert.False(t, a.contains(id))
}
