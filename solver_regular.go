package physics

import "math"

// RegularSolveStats reports what one island's regular (non-TOI) solve did,
// folded into the per-step StepStats by World.Step (§4.8).
type RegularSolveStats struct {
	RegVelocityIterations int
	RegPositionIterations int
	BodiesPutToSleep      int
}

// solveRegularIsland runs the full per-step pipeline for one island (§4.8):
// build body/contact/joint constraints, warm-start, iterate velocity,
// integrate position, iterate position (NGS), write the solved state back
// to the bodies, then update sleep bookkeeping.
func solveRegularIsland(w *World, island *Island, conf StepConf, dt float64) RegularSolveStats {
	var stats RegularSolveStats

	bcs, bcIndex := newBodyConstraints(w, island.Bodies)
	if len(bcs) == 0 {
		return stats
	}

	for _, b := range bcs {
		body, err := w.getBody(b.BodyID)
		if err != nil {
			continue
		}
		body.integrateVelocity(w.gravity, dt)
		b.V = body.vel.Linear
		b.W = body.vel.Angular
	}

	velocityConstraints := buildContactVelocityConstraints(w, island.Contacts, bcIndex, conf, w.stack)
	positionConstraints := buildContactPositionConstraints(w, island.Contacts, bcIndex, w.stack)
	defer stackFreeSlice(w.stack, velocityConstraints)
	defer stackFreeSlice(w.stack, positionConstraints)

	joints := make([]*Joint, 0, len(island.Joints))
	for _, jointID := range island.Joints {
		j, err := w.getJoint(jointID)
		if err != nil {
			continue
		}
		joints = append(joints, j)
	}

	for _, j := range joints {
		j.InitVelocityConstraint(bcIndex, dt)
	}
	for i := range velocityConstraints {
		initVelocityConstraint(&velocityConstraints[i], conf)
	}

	if conf.DoWarmStart {
		for i := range velocityConstraints {
			warmStartVelocityConstraint(&velocityConstraints[i])
		}
	}

	regVelIters := conf.RegVelocityIterations
	for iter := 0; iter < regVelIters; iter++ {
		for _, j := range joints {
			j.SolveVelocityConstraint(bcIndex, dt)
		}
		for i := range velocityConstraints {
			solveVelocityConstraint(&velocityConstraints[i])
		}
	}
	stats.RegVelocityIterations = regVelIters

	for i := range velocityConstraints {
		storeImpulses(&velocityConstraints[i])
	}

	for _, b := range bcs {
		body, err := w.getBody(b.BodyID)
		if err != nil {
			continue
		}
		body.vel.Linear = b.V
		body.vel.Angular = b.W
		body.integratePosition(dt, conf.MaxTranslation, conf.MaxRotation)
		b.C = body.sweep.Pos1.Center
		b.A = body.sweep.Pos1.Angle
		b.V = body.vel.Linear
		b.W = body.vel.Angular
	}

	regPosIters := conf.RegPositionIterations
	positionSolved := false
	for iter := 0; iter < regPosIters; iter++ {
		contactsOK := true
		for i := range positionConstraints {
			if !solveContactPosition(&positionConstraints[i], bcIndex, conf.RegMinSeparation, conf.Baumgarte) {
				contactsOK = false
			}
		}
		jointsOK := true
		for _, j := range joints {
			if !j.SolvePositionConstraint(bcIndex) {
				jointsOK = false
			}
		}
		if contactsOK && jointsOK {
			positionSolved = true
			stats.RegPositionIterations = iter + 1
			break
		}
	}
	if !positionSolved {
		stats.RegPositionIterations = regPosIters
	}

	writeBack(w, bcs)

	reportPostSolve(w, island.Contacts, velocityConstraints)

	stats.BodiesPutToSleep = updateSleep(w, island, conf, dt, positionSolved)

	return stats
}

// buildContactVelocityConstraints rebuilds one ContactVelocityConstraint
// per touching, non-sensor contact in the island from its current
// manifold (Box2D b2ContactSolver constructor, §4.8 step 1).
func buildContactVelocityConstraints(w *World, contactIDs []ContactID, bcIndex map[BodyID]*BodyConstraint, conf StepConf, alloc *StackAllocator) []ContactVelocityConstraint {
	out := stackAllocSlice[ContactVelocityConstraint](alloc, len(contactIDs))
	n := 0
	for _, id := range contactIDs {
		c, err := w.contactManager.get(id)
		if err != nil || !c.touching {
			continue
		}
		shapeA, errA := w.getShape(c.shapeA)
		shapeB, errB := w.getShape(c.shapeB)
		if errA != nil || errB != nil || shapeA.sensor || shapeB.sensor {
			continue
		}
		bodyA, bodyB := bcIndex[c.bodyA], bcIndex[c.bodyB]
		if bodyA == nil || bodyB == nil {
			continue
		}

		vc := ContactVelocityConstraint{
			contact:     c,
			bodyA:       bodyA,
			bodyB:       bodyB,
			friction:    c.friction,
			restitution: c.restitution,
			tangentSpeed: c.tangentSpeed,
			invMassA:    bodyA.InvMass,
			invMassB:    bodyB.InvMass,
			invIA:       bodyA.InvI,
			invIB:       bodyB.InvI,
			pointCount:  len(c.manifold.Points),
		}

		xfA := NewTransform(bodyA.C.Sub(Rotate(RotationFromAngle(bodyA.A), bodyA.LocalCenter)), RotationFromAngle(bodyA.A))
		xfB := NewTransform(bodyB.C.Sub(Rotate(RotationFromAngle(bodyB.A), bodyB.LocalCenter)), RotationFromAngle(bodyB.A))
		radiusA := shapeA.VertexRadius()
		radiusB := shapeB.VertexRadius()
		wm := ComputeWorldManifold(c.manifold, xfA, radiusA, xfB, radiusB)
		vc.normal = wm.Normal

		for i, p := range c.manifold.Points {
			vc.points[i].normalImpulse = p.NormalImpulse
			vc.points[i].tangentImpulse = p.TangentImpulse
			vc.points[i].rA = wm.Points[i].Sub(bodyA.C)
			vc.points[i].rB = wm.Points[i].Sub(bodyB.C)
		}

		vc.useBlockSolver = vc.pointCount == 2

		out[n] = vc
		n++
	}
	return out[:n]
}

// buildContactPositionConstraints builds the local-frame counterpart used
// by the NGS position solver (§4.8 steps 6-8).
func buildContactPositionConstraints(w *World, contactIDs []ContactID, bcIndex map[BodyID]*BodyConstraint, alloc *StackAllocator) []ContactPositionConstraint {
	out := stackAllocSlice[ContactPositionConstraint](alloc, len(contactIDs))
	n := 0
	for _, id := range contactIDs {
		c, err := w.contactManager.get(id)
		if err != nil || !c.touching {
			continue
		}
		shapeA, errA := w.getShape(c.shapeA)
		shapeB, errB := w.getShape(c.shapeB)
		if errA != nil || errB != nil || shapeA.sensor || shapeB.sensor {
			continue
		}
		bodyA, bodyB := bcIndex[c.bodyA], bcIndex[c.bodyB]
		if bodyA == nil || bodyB == nil {
			continue
		}

		pc := ContactPositionConstraint{
			contact:      c,
			pointCount:   len(c.manifold.Points),
			localNormal:  c.manifold.LocalNormal,
			localPoint:   c.manifold.LocalPoint,
			manifoldType: c.manifold.Type,
			localCenterA: bodyA.LocalCenter,
			localCenterB: bodyB.LocalCenter,
			invMassA:     bodyA.InvMass,
			invMassB:     bodyB.InvMass,
			invIA:        bodyA.InvI,
			invIB:        bodyB.InvI,
			radiusA:      shapeA.VertexRadius(),
			radiusB:      shapeB.VertexRadius(),
			bodyAIndex:   c.bodyA,
			bodyBIndex:   c.bodyB,
		}
		for i, p := range c.manifold.Points {
			pc.localPoints[i] = p.LocalPoint
		}
		out[n] = pc
		n++
	}
	return out[:n]
}

// initVelocityConstraint computes each point's normal/tangent mass and
// the restitution bias, and the 2x2 block-solver matrix for two-point
// manifolds (Box2D b2ContactSolver::InitializeVelocityConstraints).
func initVelocityConstraint(vc *ContactVelocityConstraint, conf StepConf) {
	bodyA, bodyB := vc.bodyA, vc.bodyB
	mA, mB, iA, iB := vc.invMassA, vc.invMassB, vc.invIA, vc.invIB
	normal := vc.normal
	tangent := CrossVS(normal, 1)

	for i := 0; i < vc.pointCount; i++ {
		p := &vc.points[i]
		rnA := Cross(p.rA, normal)
		rnB := Cross(p.rB, normal)
		kNormal := mA + mB + iA*rnA*rnA + iB*rnB*rnB
		if kNormal > 0 {
			p.normalMass = 1 / kNormal
		}

		rtA := Cross(p.rA, tangent)
		rtB := Cross(p.rB, tangent)
		kTangent := mA + mB + iA*rtA*rtA + iB*rtB*rtB
		if kTangent > 0 {
			p.tangentMass = 1 / kTangent
		}

		relVel := bodyB.V.Add(CrossSV(bodyB.W, p.rB)).Sub(bodyA.V.Add(CrossSV(bodyA.W, p.rA)))
		vn := relVel.Dot(normal)
		if vn < -conf.VelocityThreshold {
			p.velocityBias = -vc.restitution * vn
		}
	}

	if vc.pointCount == 2 {
		p1, p2 := &vc.points[0], &vc.points[1]
		rn1A, rn1B := Cross(p1.rA, normal), Cross(p1.rB, normal)
		rn2A, rn2B := Cross(p2.rA, normal), Cross(p2.rB, normal)
		k11 := mA + mB + iA*rn1A*rn1A + iB*rn1B*rn1B
		k22 := mA + mB + iA*rn2A*rn2A + iB*rn2B*rn2B
		k12 := mA + mB + iA*rn1A*rn2A + iB*rn1B*rn2B
		const maxConditionNumber = 1000.0
		if k11*k11 < maxConditionNumber*(k11*k22-k12*k12) {
			vc.normalMass[0][0], vc.normalMass[0][1] = k11, k12
			vc.normalMass[1][0], vc.normalMass[1][1] = k12, k22
		} else {
			vc.useBlockSolver = false
		}
	}
}

func warmStartVelocityConstraint(vc *ContactVelocityConstraint) {
	bodyA, bodyB := vc.bodyA, vc.bodyB
	mA, mB, iA, iB := vc.invMassA, vc.invMassB, vc.invIA, vc.invIB
	normal := vc.normal
	tangent := CrossVS(normal, 1)

	for i := 0; i < vc.pointCount; i++ {
		p := &vc.points[i]
		impulse := normal.Mul(p.normalImpulse).Add(tangent.Mul(p.tangentImpulse))
		bodyA.V = bodyA.V.Sub(impulse.Mul(mA))
		bodyA.W -= iA * Cross(p.rA, impulse)
		bodyB.V = bodyB.V.Add(impulse.Mul(mB))
		bodyB.W += iB * Cross(p.rB, impulse)
	}
}

// solveVelocityConstraint applies one Gauss-Seidel velocity iteration for
// a single contact: tangent (friction) first, then normal, using the
// exact block solver for two-point manifolds so simultaneous corrections
// don't fight each other (Box2D b2ContactSolver::SolveVelocityConstraints).
func solveVelocityConstraint(vc *ContactVelocityConstraint) {
	bodyA, bodyB := vc.bodyA, vc.bodyB
	mA, mB, iA, iB := vc.invMassA, vc.invMassB, vc.invIA, vc.invIB
	normal := vc.normal
	tangent := CrossVS(normal, 1)
	friction := vc.friction

	for i := 0; i < vc.pointCount; i++ {
		p := &vc.points[i]
		dv := bodyB.V.Add(CrossSV(bodyB.W, p.rB)).Sub(bodyA.V.Add(CrossSV(bodyA.W, p.rA)))
		vt := dv.Dot(tangent) - vc.tangentSpeed
		lambda := p.tangentMass * -vt

		maxFriction := friction * p.normalImpulse
		newImpulse := clampFloat(p.tangentImpulse+lambda, -maxFriction, maxFriction)
		lambda = newImpulse - p.tangentImpulse
		p.tangentImpulse = newImpulse

		impulse := tangent.Mul(lambda)
		bodyA.V = bodyA.V.Sub(impulse.Mul(mA))
		bodyA.W -= iA * Cross(p.rA, impulse)
		bodyB.V = bodyB.V.Add(impulse.Mul(mB))
		bodyB.W += iB * Cross(p.rB, impulse)
	}

	if vc.pointCount == 1 || !vc.useBlockSolver {
		for i := 0; i < vc.pointCount; i++ {
			p := &vc.points[i]
			dv := bodyB.V.Add(CrossSV(bodyB.W, p.rB)).Sub(bodyA.V.Add(CrossSV(bodyA.W, p.rA)))
			vn := dv.Dot(normal)
			lambda := -p.normalMass * (vn - p.velocityBias)

			newImpulse := math.Max(p.normalImpulse+lambda, 0)
			lambda = newImpulse - p.normalImpulse
			p.normalImpulse = newImpulse

			impulse := normal.Mul(lambda)
			bodyA.V = bodyA.V.Sub(impulse.Mul(mA))
			bodyA.W -= iA * Cross(p.rA, impulse)
			bodyB.V = bodyB.V.Add(impulse.Mul(mB))
			bodyB.W += iB * Cross(p.rB, impulse)
		}
		return
	}

	solveTwoPointBlock(vc)
}

// solveTwoPointBlock solves both normal impulses of a two-point manifold
// simultaneously via the 2x2 K matrix, working through Box2D's four-case
// analysis (both active, one clamped to zero each way, both clamped to
// zero) so the jointly-solved impulses stay feasible.
func solveTwoPointBlock(vc *ContactVelocityConstraint) {
	p1, p2 := &vc.points[0], &vc.points[1]
	normal := vc.normal
	k := vc.normalMass

	a := Vector{p1.normalImpulse, p2.normalImpulse}

	dv1 := vc.bodyB.V.Add(CrossSV(vc.bodyB.W, p1.rB)).Sub(vc.bodyA.V.Add(CrossSV(vc.bodyA.W, p1.rA)))
	dv2 := vc.bodyB.V.Add(CrossSV(vc.bodyB.W, p2.rB)).Sub(vc.bodyA.V.Add(CrossSV(vc.bodyA.W, p2.rA)))

	b := Vector{dv1.Dot(normal) - p1.velocityBias, dv2.Dot(normal) - p2.velocityBias}
	b = b.Sub(mulK(k, a))

	// Case 1: both points active, with both jointly solved impulses
	// non-negative.
	if x := solve2x2(k, b.Mul(-1)); x.X() >= 0 && x.Y() >= 0 {
		applyTwoPointImpulse(vc, p1, p2, x, normal)
		return
	}

	// Case 2: point 1 active, point 2 clamped to zero.
	if p1.normalMass > 0 {
		x1 := -p1.normalMass * b.X()
		vn2 := k[1][0]*x1 + b.Y()
		if x1 >= 0 && vn2 >= 0 {
			applyTwoPointImpulse(vc, p1, p2, Vector{x1, 0}, normal)
			return
		}
	}

	// Case 3: point 2 active, point 1 clamped to zero.
	if p2.normalMass > 0 {
		x2 := -p2.normalMass * b.Y()
		vn1 := k[0][1]*x2 + b.X()
		if x2 >= 0 && vn1 >= 0 {
			applyTwoPointImpulse(vc, p1, p2, Vector{0, x2}, normal)
			return
		}
	}

	// Case 4: both clamped to zero.
	if b.X() >= 0 && b.Y() >= 0 {
		applyTwoPointImpulse(vc, p1, p2, Vector{0, 0}, normal)
	}
}

func mulK(k [2][2]float64, v Vector) Vector {
	return Vector{k[0][0]*v.X() + k[0][1]*v.Y(), k[1][0]*v.X() + k[1][1]*v.Y()}
}

// applyTwoPointImpulse moves both points' normal impulses to the new
// jointly-solved values x and applies the resulting velocity delta.
func applyTwoPointImpulse(vc *ContactVelocityConstraint, p1, p2 *velocityConstraintPoint, x Vector, normal Vector) {
	mA, mB, iA, iB := vc.invMassA, vc.invMassB, vc.invIA, vc.invIB
	d1 := x.X() - p1.normalImpulse
	d2 := x.Y() - p2.normalImpulse
	p1.normalImpulse = x.X()
	p2.normalImpulse = x.Y()

	impulse1 := normal.Mul(d1)
	impulse2 := normal.Mul(d2)

	vc.bodyA.V = vc.bodyA.V.Sub(impulse1.Add(impulse2).Mul(mA))
	vc.bodyA.W -= iA * (Cross(p1.rA, impulse1) + Cross(p2.rA, impulse2))
	vc.bodyB.V = vc.bodyB.V.Add(impulse1.Add(impulse2).Mul(mB))
	vc.bodyB.W += iB * (Cross(p1.rB, impulse1) + Cross(p2.rB, impulse2))
}

// storeImpulses copies the solved normal/tangent impulses back to the
// contact's manifold points so the next step's warm start (matchWarmStart)
// and PostSolveContactListener see them (§4.6).
func storeImpulses(vc *ContactVelocityConstraint) {
	for i := 0; i < vc.pointCount; i++ {
		vc.contact.manifold.Points[i].NormalImpulse = vc.points[i].normalImpulse
		vc.contact.manifold.Points[i].TangentImpulse = vc.points[i].tangentImpulse
	}
}

// solveContactPosition runs one Non-Linear Gauss-Seidel position
// correction for a single contact, directly adjusting the working
// position/angle of its two bodies, and reports whether the remaining
// separation is within minSeparation (Box2D b2ContactSolver::SolvePositionConstraints).
func solveContactPosition(pc *ContactPositionConstraint, bcIndex map[BodyID]*BodyConstraint, minSeparation, baumgarte float64) bool {
	bodyA, bodyB := bcIndex[pc.bodyAIndex], bcIndex[pc.bodyBIndex]
	if bodyA == nil || bodyB == nil {
		return true
	}
	mA, mB, iA, iB := pc.invMassA, pc.invMassB, pc.invIA, pc.invIB

	minSep := 0.0
	first := true

	for i := 0; i < pc.pointCount; i++ {
		qA := RotationFromAngle(bodyA.A)
		qB := RotationFromAngle(bodyB.A)
		xfA := Transform{P: bodyA.C.Sub(Rotate(qA, pc.localCenterA)), Q: qA}
		xfB := Transform{P: bodyB.C.Sub(Rotate(qB, pc.localCenterB)), Q: qB}

		point, normal, separation := evaluatePositionConstraint(pc, xfA, xfB, i)

		rA := point.Sub(bodyA.C)
		rB := point.Sub(bodyB.C)

		if first || separation < minSep {
			minSep = separation
			first = false
		}

		c := clampFloat(baumgarte*(separation+linearSlop), -maxLinearCorrection, 0)

		rnA := Cross(rA, normal)
		rnB := Cross(rB, normal)
		k := mA + mB + iA*rnA*rnA + iB*rnB*rnB
		var impulse float64
		if k > 0 {
			impulse = -c / k
		}

		p := normal.Mul(impulse)
		bodyA.C = bodyA.C.Sub(p.Mul(mA))
		bodyA.A -= iA * Cross(rA, p)
		bodyB.C = bodyB.C.Add(p.Mul(mB))
		bodyB.A += iB * Cross(rB, p)
	}

	return minSep >= minSeparation
}

// evaluatePositionConstraint recomputes the world witness point, normal,
// and separation for position-constraint point i from the constraint's
// local-frame data and the bodies' current working transforms.
func evaluatePositionConstraint(pc *ContactPositionConstraint, xfA, xfB Transform, i int) (point, normal Vector, separation float64) {
	switch pc.manifoldType {
	case ManifoldCircles:
		pA := xfA.Apply(pc.localPoint)
		pB := xfB.Apply(pc.localPoints[0])
		d := pB.Sub(pA)
		normal = Vector{1, 0}
		if d.LenSqr() > 1e-18 {
			normal = d.Normalize()
		}
		point = pA.Add(pB).Mul(0.5)
		separation = d.Dot(normal) - pc.radiusA - pc.radiusB
		return
	case ManifoldFaceA:
		normal = Rotate(xfA.Q, pc.localNormal)
		planePoint := xfA.Apply(pc.localPoint)
		clipPoint := xfB.Apply(pc.localPoints[i])
		separation = clipPoint.Sub(planePoint).Dot(normal) - pc.radiusA - pc.radiusB
		point = clipPoint.Sub(normal.Mul(pc.radiusB))
		return
	default: // ManifoldFaceB
		normal = Rotate(xfB.Q, pc.localNormal)
		planePoint := xfB.Apply(pc.localPoint)
		clipPoint := xfA.Apply(pc.localPoints[i])
		separation = clipPoint.Sub(planePoint).Dot(normal) - pc.radiusA - pc.radiusB
		point = clipPoint.Sub(normal.Mul(pc.radiusA))
		normal = normal.Mul(-1)
		return
	}
}

// reportPostSolve fires the PostSolveContactListener for each touching
// contact actually solved this island, carrying the final per-point
// normal/tangent impulses (§6).
func reportPostSolve(w *World, contactIDs []ContactID, vcs []ContactVelocityConstraint) {
	if w.contactManager.postSolve == nil {
		return
	}
	for i := range vcs {
		vc := &vcs[i]
		impulse := ContactImpulse{
			NormalImpulses:  make([]float64, vc.pointCount),
			TangentImpulses: make([]float64, vc.pointCount),
		}
		for j := 0; j < vc.pointCount; j++ {
			impulse.NormalImpulses[j] = vc.points[j].normalImpulse
			impulse.TangentImpulses[j] = vc.points[j].tangentImpulse
		}
		w.contactManager.postSolve(vc.contact, &impulse)
	}
}

// updateSleep aggregates under-active time per body and puts the whole
// island to sleep together once every body has been still for at least
// MinStillTimeToSleep AND the island's position constraints actually
// converged this step (§4.8 step 11: time tolerance alone isn't enough -
// a body still resolving penetration must stay awake to keep solving it).
// A body disqualified from sleeping (AllowSleep false, or above
// tolerance) keeps the entire island awake.
func updateSleep(w *World, island *Island, conf StepConf, dt float64, positionSolved bool) int {
	minSleepTime := math.Inf(1)

	linTolSqr := conf.LinearSleepTolerance * conf.LinearSleepTolerance
	angTolSqr := conf.AngularSleepTolerance * conf.AngularSleepTolerance

	for _, id := range island.Bodies {
		b, err := w.getBody(id)
		if err != nil {
			continue
		}
		if b.bodyType == BodyStatic {
			continue
		}
		if !b.allowSleep || !b.awake ||
			b.vel.Angular*b.vel.Angular > angTolSqr ||
			b.vel.Linear.Dot(b.vel.Linear) > linTolSqr {
			b.underActiveTime = 0
			minSleepTime = 0
		} else {
			b.underActiveTime += dt
			if b.underActiveTime < minSleepTime {
				minSleepTime = b.underActiveTime
			}
		}
	}

	if minSleepTime < conf.MinStillTimeToSleep || !positionSolved {
		return 0
	}

	count := 0
	for _, id := range island.Bodies {
		b, err := w.getBody(id)
		if err != nil || b.bodyType == BodyStatic || !b.awake {
			continue
		}
		b.setAwake(false)
		count++
	}
	return count
}
