package physics

// testBodyID builds a BodyID with the given dense index for unit tests that
// construct a Body directly instead of going through World.CreateBody.
func testBodyID(index uint32) BodyID {
	return BodyID{idx: arenaIndex{index: index, gen: 1}}
}
