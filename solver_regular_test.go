package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampFloatClampsToRange(t *testing.T) {
	assert.Equal(t, 1.0, clampFloat(5, -1, 1))
	assert.Equal(t, -1.0, clampFloat(-5, -1, 1))
	assert.Equal(t, 0.5, clampFloat(0.5, -1, 1))
}

func TestSolve2x2SolvesLinearSystem(t *testing.T) {
	k := [2][2]float64{{2, 0}, {0, 4}}
	x := solve2x2(k, NewVector(4, 8))
	assert.InDelta(t, 2, x.X(), 1e-9)
	assert.InDelta(t, 2, x.Y(), 1e-9)
}

func TestSolve2x2SingularMatrixReturnsZero(t *testing.T) {
	k := [2][2]float64{{0, 0}, {0, 0}}
	x := solve2x2(k, NewVector(1, 1))
	assert.Equal(t, 0.0, x.X())
	assert.Equal(t, 0.0, x.Y())
}

// A single separating point never generates a pulling (negative) normal
// impulse: the solver clamps at zero (Box2D contacts are push-only).
func TestSolveVelocityConstraintClampsNormalImpulseAtZero(t *testing.T) {
	bodyA := &BodyConstraint{InvMass: 1, V: NewVector(-5, 0)}
	bodyB := &BodyConstraint{InvMass: 1, V: NewVector(5, 0)}

	vc := ContactVelocityConstraint{
		bodyA:      bodyA,
		bodyB:      bodyB,
		normal:     NewVector(1, 0),
		pointCount: 1,
		invMassA:   1,
		invMassB:   1,
	}
	vc.points[0].normalMass = 0.5
	vc.points[0].tangentMass = 0.5

	solveVelocityConstraint(&vc)
	assert.Equal(t, 0.0, vc.points[0].normalImpulse, "bodies separating along the normal must not accumulate impulse")
}

// Two bodies approaching head-on along the contact normal pick up a
// positive normal impulse that pushes them apart.
func TestSolveVelocityConstraintApproachingPairGainsPositiveImpulse(t *testing.T) {
	bodyA := &BodyConstraint{InvMass: 1, V: NewVector(5, 0)}
	bodyB := &BodyConstraint{InvMass: 1, V: NewVector(-5, 0)}

	vc := ContactVelocityConstraint{
		bodyA:      bodyA,
		bodyB:      bodyB,
		normal:     NewVector(1, 0),
		pointCount: 1,
		invMassA:   1,
		invMassB:   1,
	}
	vc.points[0].normalMass = 0.5
	vc.points[0].tangentMass = 0.5

	solveVelocityConstraint(&vc)
	assert.Greater(t, vc.points[0].normalImpulse, 0.0)
	assert.Less(t, bodyA.V.X(), 5.0, "bodyA should be decelerated by the impulse")
	assert.Greater(t, bodyB.V.X(), -5.0, "bodyB should be decelerated by the impulse")
}

func TestStoreImpulsesCopiesToManifoldPoints(t *testing.T) {
	c := &Contact{manifold: Manifold{Points: []ManifoldPoint{{}, {}}}}
	vc := ContactVelocityConstraint{contact: c, pointCount: 2}
	vc.points[0].normalImpulse = 1.5
	vc.points[0].tangentImpulse = 0.25
	vc.points[1].normalImpulse = 2.5
	vc.points[1].tangentImpulse = 0.75

	storeImpulses(&vc)

	assert.Equal(t, 1.5, c.manifold.Points[0].NormalImpulse)
	assert.Equal(t, 0.25, c.manifold.Points[0].TangentImpulse)
	assert.Equal(t, 2.5, c.manifold.Points[1].NormalImpulse)
	assert.Equal(t, 0.75, c.manifold.Points[1].TangentImpulse)
}

// §4.7: an island sleeps only once every body in it has been under
// tolerance for MinStillTimeToSleep; a single disqualified body keeps the
// whole island awake and resets its own timer.
func TestUpdateSleepPutsWholeIslandToSleepTogether(t *testing.T) {
	w := NewWorld(DefaultWorldConf())
	a := mustCreateBody(t, w, BodyConf{Type: BodyDynamic, Awake: true, Enabled: true, AllowSleep: true})
	attachShape(t, w, a, NewCircleShape(0.5, VectorZero()))
	b := mustCreateBody(t, w, BodyConf{Type: BodyDynamic, Awake: true, Enabled: true, AllowSleep: true})
	attachShape(t, w, b, NewCircleShape(0.5, VectorZero()))

	island := &Island{Bodies: []BodyID{a, b}}
	conf := DefaultStepConf()

	put := updateSleep(w, island, conf, conf.MinStillTimeToSleep, true)
	assert.Equal(t, 2, put)

	ba, _ := w.getBody(a)
	bb, _ := w.getBody(b)
	assert.False(t, ba.IsAwake())
	assert.False(t, bb.IsAwake())
}

func TestUpdateSleepDisallowedBodyKeepsIslandAwake(t *testing.T) {
	w := NewWorld(DefaultWorldConf())
	a := mustCreateBody(t, w, BodyConf{Type: BodyDynamic, Awake: true, Enabled: true, AllowSleep: false})
	attachShape(t, w, a, NewCircleShape(0.5, VectorZero()))

	island := &Island{Bodies: []BodyID{a}}
	conf := DefaultStepConf()

	put := updateSleep(w, island, conf, conf.MinStillTimeToSleep, true)
	assert.Equal(t, 0, put)
	ba, _ := w.getBody(a)
	assert.True(t, ba.IsAwake())
}

// §4.8 step 11: time under tolerance isn't enough by itself - an island
// whose position constraints never converged this step must stay awake.
func TestUpdateSleepUnsolvedPositionKeepsIslandAwake(t *testing.T) {
	w := NewWorld(DefaultWorldConf())
	a := mustCreateBody(t, w, BodyConf{Type: BodyDynamic, Awake: true, Enabled: true, AllowSleep: true})
	attachShape(t, w, a, NewCircleShape(0.5, VectorZero()))

	island := &Island{Bodies: []BodyID{a}}
	conf := DefaultStepConf()

	put := updateSleep(w, island, conf, conf.MinStillTimeToSleep, false)
	assert.Equal(t, 0, put)
	ba, _ := w.getBody(a)
	assert.True(t, ba.IsAwake())
}
