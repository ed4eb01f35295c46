package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRevoluteJointPositionPullsAnchorsTogether(t *testing.T) {
	idA, idB := testBodyID(1), testBodyID(2)
	bc := map[BodyID]*BodyConstraint{
		idA: {BodyID: idA, InvMass: 1, InvI: 1, C: VectorZero()},
		idB: {BodyID: idB, InvMass: 1, InvI: 1, C: NewVector(1, 0)},
	}
	j := newJoint(JointID{}, JointConf{Kind: JointRevolute, BodyA: idA, BodyB: idB})

	initialGap := bc[idB].C.Sub(bc[idA].C).Len()

	j.SolvePositionConstraint(bc)

	afterGap := bc[idB].C.Sub(bc[idA].C).Len()
	assert.Less(t, afterGap, initialGap, "the shared anchor should be drawn together")
}

func TestRevoluteJointMotorDrivesRelativeAngularVelocityTowardTarget(t *testing.T) {
	idA, idB := testBodyID(1), testBodyID(2)
	bc := map[BodyID]*BodyConstraint{
		idA: {BodyID: idA, InvMass: 1, InvI: 1},
		idB: {BodyID: idB, InvMass: 1, InvI: 1},
	}
	j := newJoint(JointID{}, JointConf{
		Kind:           JointRevolute,
		BodyA:          idA,
		BodyB:          idB,
		EnableMotor:    true,
		MotorSpeed:     5,
		MaxMotorTorque: 1000,
	})

	dt := 1.0 / 60.0
	j.InitVelocityConstraint(bc, dt)
	j.SolveVelocityConstraint(bc, dt)

	relW := bc[idB].W - bc[idA].W
	assert.InDelta(t, 5.0, relW, 1e-6, "an unloaded motor should hit its target speed in one solve")
}

func TestRevoluteJointMotorTorqueIsClampedByMaxMotorTorque(t *testing.T) {
	idA, idB := testBodyID(1), testBodyID(2)
	bc := map[BodyID]*BodyConstraint{
		idA: {BodyID: idA, InvMass: 1, InvI: 1},
		idB: {BodyID: idB, InvMass: 1, InvI: 1},
	}
	dt := 1.0 / 60.0
	j := newJoint(JointID{}, JointConf{
		Kind:           JointRevolute,
		BodyA:          idA,
		BodyB:          idB,
		EnableMotor:    true,
		MotorSpeed:     1000,
		MaxMotorTorque: 1,
	})

	j.InitVelocityConstraint(bc, dt)
	j.SolveVelocityConstraint(bc, dt)

	maxImpulse := dt * 1
	assert.InDelta(t, maxImpulse, j.revMotorImpulse, 1e-9, "motor impulse must not exceed MaxMotorTorque*dt")
}

func TestRevoluteJointLimitKeepsLowerImpulseNonNegative(t *testing.T) {
	idA, idB := testBodyID(1), testBodyID(2)
	bc := map[BodyID]*BodyConstraint{
		idA: {BodyID: idA, InvMass: 1, InvI: 1, A: 0},
		idB: {BodyID: idB, InvMass: 1, InvI: 1, A: 0.1},
	}
	dt := 1.0 / 60.0
	j := newJoint(JointID{}, JointConf{
		Kind:        JointRevolute,
		BodyA:       idA,
		BodyB:       idB,
		EnableLimit: true,
		LowerAngle:  -0.2,
		UpperAngle:  0.2,
	})

	j.InitVelocityConstraint(bc, dt)
	j.SolveVelocityConstraint(bc, dt)

	assert.GreaterOrEqual(t, j.revLowerImpulse, 0.0)
	assert.GreaterOrEqual(t, j.revUpperImpulse, 0.0)
}
