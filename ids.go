package physics

// BodyID, ShapeID, ContactID, and JointID are opaque handles into the
// World's arenas (§9: "resolve [cyclic references] by using ids throughout;
// arenas own the values, everything else holds ids"). The zero value of
// each is never a valid handle.
type BodyID struct{ idx arenaIndex }
type ShapeID struct{ idx arenaIndex }
type ContactID struct{ idx arenaIndex }
type JointID struct{ idx arenaIndex }

func (id BodyID) Valid() bool    { return id.idx.valid() }
func (id ShapeID) Valid() bool   { return id.idx.valid() }
func (id ContactID) Valid() bool { return id.idx.valid() }
func (id JointID) Valid() bool   { return id.idx.valid() }

// invalidBodyID etc. exist for readability at call sites that need to name
// the zero value explicitly.
var (
	invalidBodyID    BodyID
	invalidShapeID   ShapeID
	invalidContactID ContactID
	invalidJointID   JointID
)

// bodyIDLess orders body ids by their underlying dense index, used to
// impose the bodyA.id <= bodyB.id ordering contacts require (§3, §8
// invariant 2) and for deterministic sort of incidence lists (§9).
func bodyIDLess(a, b BodyID) bool {
	return a.idx.index < b.idx.index
}
