package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceJointPositionPullsBodiesTowardTargetLength(t *testing.T) {
	idA, idB := testBodyID(1), testBodyID(2)
	bc := map[BodyID]*BodyConstraint{
		idA: {BodyID: idA, InvMass: 1, C: VectorZero()},
		idB: {BodyID: idB, InvMass: 1, C: NewVector(2, 0)},
	}
	j := newJoint(JointID{}, JointConf{Kind: JointDistance, BodyA: idA, BodyB: idB, Length: 1})

	solved := j.SolvePositionConstraint(bc)

	newLength := bc[idB].C.Sub(bc[idA].C).Len()
	assert.Less(t, newLength, 2.0, "rigid rod should pull the bodies closer together")
	assert.False(t, solved, "correction is clamped below the full error so it is not solved in one step")
}

func TestDistanceJointPositionNoopWhenAlreadyAtTargetLength(t *testing.T) {
	idA, idB := testBodyID(1), testBodyID(2)
	bc := map[BodyID]*BodyConstraint{
		idA: {BodyID: idA, InvMass: 1, C: VectorZero()},
		idB: {BodyID: idB, InvMass: 1, C: NewVector(1, 0)},
	}
	j := newJoint(JointID{}, JointConf{Kind: JointDistance, BodyA: idA, BodyB: idB, Length: 1})

	solved := j.SolvePositionConstraint(bc)
	assert.True(t, solved)
	assert.InDelta(t, 1.0, bc[idB].C.Sub(bc[idA].C).Len(), 1e-9)
}

func TestDistanceJointVelocityResistsSeparation(t *testing.T) {
	idA, idB := testBodyID(1), testBodyID(2)
	bc := map[BodyID]*BodyConstraint{
		idA: {BodyID: idA, InvMass: 1, C: VectorZero(), V: NewVector(-1, 0)},
		idB: {BodyID: idB, InvMass: 1, C: NewVector(1, 0), V: NewVector(1, 0)},
	}
	j := newJoint(JointID{}, JointConf{Kind: JointDistance, BodyA: idA, BodyB: idB, Length: 1})

	dt := 1.0 / 60.0
	j.InitVelocityConstraint(bc, dt)
	j.SolveVelocityConstraint(bc, dt)

	relSpeed := bc[idB].V.Sub(bc[idA].V).Dot(NewVector(1, 0))
	assert.Less(t, relSpeed, 2.0, "the rod should damp the separating relative velocity")
}

func TestDistanceJointWithLimitsAllowsFreeMovementInsideRange(t *testing.T) {
	idA, idB := testBodyID(1), testBodyID(2)
	bc := map[BodyID]*BodyConstraint{
		idA: {BodyID: idA, InvMass: 1, C: VectorZero()},
		idB: {BodyID: idB, InvMass: 1, C: NewVector(1.5, 0)},
	}
	j := newJoint(JointID{}, JointConf{Kind: JointDistance, BodyA: idA, BodyB: idB, MinLength: 1, MaxLength: 2})

	solved := j.SolvePositionConstraint(bc)
	assert.True(t, solved, "a length inside [MinLength, MaxLength] needs no correction")
	assert.InDelta(t, 1.5, bc[idB].C.Sub(bc[idA].C).Len(), 1e-9)
}
