package physics

// arenaIndex packs a dense slot index and a generation counter into one
// value. The generation is bumped on every Free so a stale id captured
// before a slot was reused fails at(id) with ErrOutOfRange instead of
// silently aliasing onto whatever got allocated into the recycled slot.
type arenaIndex struct {
	index uint32
	gen   uint32
}

func (a arenaIndex) valid() bool {
	return a != arenaIndex{}
}

// arena is a dense, id-indexed store with free-list reuse (§4.1). Values
// are never relocated: Free marks a slot free and pushes it onto the
// free-list; Allocate pops the free-list before appending. used = size -
// len(free) is tracked directly rather than recomputed.
type arena[T any] struct {
	slots []arenaSlot[T]
	free  []uint32
	used  int
}

type arenaSlot[T any] struct {
	value    T
	gen      uint32
	occupied bool
}

func newArena[T any]() *arena[T] {
	return &arena[T]{}
}

// allocate reuses a free slot if one exists, else appends a new one.
func (a *arena[T]) allocate(value T) arenaIndex {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		slot := &a.slots[idx]
		slot.value = value
		slot.occupied = true
		a.used++
		return arenaIndex{index: idx, gen: slot.gen}
	}
	idx := uint32(len(a.slots))
	a.slots = append(a.slots, arenaSlot[T]{value: value, gen: 1, occupied: true})
	a.used++
	return arenaIndex{index: idx, gen: 1}
}

// free marks id's slot free. Freeing an id twice, or an id that was never
// valid, is a programmer error and panics (idempotent-safe only once per
// id, per §4.1).
func (a *arena[T]) freeID(id arenaIndex) {
	slot := a.mustSlot(id)
	var zero T
	slot.value = zero
	slot.occupied = false
	slot.gen++
	a.free = append(a.free, id.index)
	a.used--
}

// at bounds- and generation-checks id, returning ErrOutOfRange on failure.
func (a *arena[T]) at(id arenaIndex) (*T, error) {
	if int(id.index) >= len(a.slots) {
		return nil, outOfRange("arena index %d out of range (size %d)", id.index, len(a.slots))
	}
	slot := &a.slots[id.index]
	if !slot.occupied || slot.gen != id.gen {
		return nil, outOfRange("arena index %d is stale or freed", id.index)
	}
	return &slot.value, nil
}

// mustAt panics if id is invalid; used on internal fast paths where the
// caller already knows the id came from this arena (e.g. iterating a list
// the World itself maintains).
func (a *arena[T]) mustAt(id arenaIndex) *T {
	v, err := a.at(id)
	if err != nil {
		panic(err)
	}
	return v
}

func (a *arena[T]) mustSlot(id arenaIndex) *arenaSlot[T] {
	if int(id.index) >= len(a.slots) {
		panic(outOfRange("arena index %d out of range (size %d)", id.index, len(a.slots)))
	}
	slot := &a.slots[id.index]
	if !slot.occupied || slot.gen != id.gen {
		panic(outOfRange("arena index %d is stale or freed", id.index))
	}
	return slot
}

func (a *arena[T]) contains(id arenaIndex) bool {
	if int(id.index) >= len(a.slots) {
		return false
	}
	slot := &a.slots[id.index]
	return slot.occupied && slot.gen == id.gen
}

// count returns the number of live entries (used = size - free_size).
func (a *arena[T]) count() int {
	return a.used
}

// clear drops all entries and reinitialises the free list.
func (a *arena[T]) clear() {
	a.slots = nil
	a.free = nil
	a.used = 0
}

// each calls f for every live entry, in slot order.
func (a *arena[T]) each(f func(idx uint32, value *T)) {
	for i := range a.slots {
		if a.slots[i].occupied {
			f(uint32(i), &a.slots[i].value)
		}
	}
}
