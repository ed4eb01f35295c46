package physics

// BodyConstraint is the per-body working state the velocity/position
// solvers mutate in place while iterating a single island (Box2D
// b2SolverData / b2Position / b2Velocity, collapsed into one struct since
// this core solves one island at a time rather than batching all bodies
// up front).
type BodyConstraint struct {
	BodyID BodyID

	InvMass float64
	InvI    float64

	LocalCenter Vector

	V Vector  // working linear velocity
	W float64 // working angular velocity
	C Vector  // working center-of-mass position
	A float64 // working angle
}

// newBodyConstraints snapshots one BodyConstraint per island body and
// returns both the slice (iteration order = island order, used for
// integration) and an index lookup by BodyID (used by contacts/joints to
// find their endpoints in O(1), §4.8 step 1 / §9's "dual body-constraint
// lookup").
func newBodyConstraints(w *World, bodies []BodyID) ([]*BodyConstraint, map[BodyID]*BodyConstraint) {
	out := make([]*BodyConstraint, 0, len(bodies))
	index := make(map[BodyID]*BodyConstraint, len(bodies))
	for _, id := range bodies {
		b, err := w.getBody(id)
		if err != nil {
			continue
		}
		bc := &BodyConstraint{
			BodyID:      id,
			InvMass:     b.invMass,
			InvI:        b.invI,
			LocalCenter: b.sweep.LocalCenter,
			V:           b.vel.Linear,
			W:           b.vel.Angular,
			C:           b.sweep.Pos1.Center,
			A:           b.sweep.Pos1.Angle,
		}
		out = append(out, bc)
		index[id] = bc
	}
	return out, index
}

// writeBack copies the solved velocity/position state back into each
// Body, then re-synchronizes its transform from the updated sweep (§4.8
// step 10).
func writeBack(w *World, bcs []*BodyConstraint) {
	for _, bc := range bcs {
		b, err := w.getBody(bc.BodyID)
		if err != nil {
			continue
		}
		b.vel.Linear = bc.V
		b.vel.Angular = bc.W
		b.sweep.Pos1.Center = bc.C
		b.sweep.Pos1.Angle = bc.A
		b.synchronizeTransform()
	}
}

// velocityConstraintPoint is one contact point's solver scratch state,
// rebuilt every step from the current manifold (Box2D
// b2VelocityConstraintPoint).
type velocityConstraintPoint struct {
	rA, rB         Vector
	normalImpulse  float64
	tangentImpulse float64
	normalMass     float64
	tangentMass    float64
	velocityBias   float64
}

// ContactVelocityConstraint is the Gauss-Seidel working state for one
// contact's velocity iterations (§4.8 steps 2-5).
type ContactVelocityConstraint struct {
	contact *Contact

	points [2]velocityConstraintPoint
	pointCount int

	normal Vector

	bodyA, bodyB *BodyConstraint

	friction    float64
	restitution float64
	tangentSpeed float64

	invMassA, invMassB float64
	invIA, invIB       float64

	normalMass [2][2]float64 // 2x2 block solver matrix (Box2D K)
	useBlockSolver bool
}

// ContactPositionConstraint is the Non-Linear Gauss-Seidel working state
// for one contact's position iterations (§4.8 steps 6-8), expressed
// entirely in local coordinates so it is safe to reuse across the
// position solver's repeated small-angle re-evaluations.
type ContactPositionConstraint struct {
	contact *Contact

	localPoints [2]Vector
	pointCount  int

	localNormal Vector
	localPoint  Vector
	manifoldType ManifoldType

	localCenterA, localCenterB Vector
	invMassA, invMassB         float64
	invIA, invIB               float64
	radiusA, radiusB           float64

	bodyAIndex, bodyBIndex BodyID
}
