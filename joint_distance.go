package physics

import "math"

// Distance joint: holds the anchor points at a target separation (Box2D
// b2DistanceJoint, §4.9). When MinLength >= MaxLength it is a rigid rod of
// length Length; otherwise the length moves freely within
// [MinLength, MaxLength], with a soft spring toward Length when Hertz > 0.

func (j *Joint) initDistance(bc map[BodyID]*BodyConstraint, dt float64) {
	a, b := bc[j.bodyA], bc[j.bodyB]

	qA := RotationFromAngle(a.A)
	qB := RotationFromAngle(b.A)
	rA := Rotate(qA, j.localAnchorA.Sub(a.LocalCenter))
	rB := Rotate(qB, j.localAnchorB.Sub(b.LocalCenter))

	u := b.C.Add(rB).Sub(a.C.Add(rA))
	length := u.Len()
	if length > 1e-9 {
		u = u.Mul(1 / length)
	} else {
		u = VectorZero()
	}
	j.distU = u
	j.distCurrentLength = length

	crA := Cross(rA, u)
	crB := Cross(rB, u)
	invMass := a.InvMass + a.InvI*crA*crA + b.InvMass + b.InvI*crB*crB
	j.distMass = 0
	if invMass > 0 {
		j.distMass = 1 / invMass
	}
	j.distRA, j.distRB = rA, rB

	if j.distHertz > 0 && j.distMinLength < j.distMaxLength {
		reducedMass := 0.0
		if a.InvMass+b.InvMass > 0 {
			reducedMass = 1 / (a.InvMass + b.InvMass)
		}
		omega := 2 * math.Pi * j.distHertz
		stiffness := reducedMass * omega * omega
		damping := 2 * reducedMass * j.distDampingRatio * omega

		c := length - j.distLength
		h := dt
		j.distGamma = h * (damping + h*stiffness)
		if j.distGamma != 0 {
			j.distGamma = 1 / j.distGamma
		}
		j.distBias = c * h * stiffness * j.distGamma
		invMass += j.distGamma
		j.distMass = 0
		if invMass != 0 {
			j.distMass = 1 / invMass
		}
	} else {
		j.distGamma = 0
		j.distBias = 0
	}

	if j.distMinLength >= j.distMaxLength {
		// Keep warm-start impulses; nothing else to prepare.
	}
}

func (j *Joint) solveDistanceVelocity(bc map[BodyID]*BodyConstraint, dt float64) {
	a, b := bc[j.bodyA], bc[j.bodyB]
	rA, rB := j.distRA, j.distRB
	u := j.distU

	invH := 0.0
	if dt > 0 {
		invH = 1 / dt
	}

	if j.distMinLength < j.distMaxLength {
		if j.distHertz > 0 {
			vpA := a.V.Add(CrossSV(a.W, rA))
			vpB := b.V.Add(CrossSV(b.W, rB))
			cdot := u.Dot(vpB.Sub(vpA))

			impulse := -j.distMass * (cdot + j.distBias + j.distGamma*j.distImpulse)
			j.distImpulse += impulse
			p := u.Mul(impulse)
			a.V = a.V.Sub(p.Mul(a.InvMass))
			a.W -= a.InvI * Cross(rA, p)
			b.V = b.V.Add(p.Mul(b.InvMass))
			b.W += b.InvI * Cross(rB, p)
		}

		// Lower limit.
		{
			c := j.distCurrentLength - j.distMinLength
			bias := math.Max(0, c) * invH
			vpA := a.V.Add(CrossSV(a.W, rA))
			vpB := b.V.Add(CrossSV(b.W, rB))
			cdot := u.Dot(vpB.Sub(vpA))
			impulse := -j.distMass * (cdot + bias)
			newImpulse := math.Max(0, j.distLowerImpulse+impulse)
			impulse = newImpulse - j.distLowerImpulse
			j.distLowerImpulse = newImpulse
			p := u.Mul(impulse)
			a.V = a.V.Sub(p.Mul(a.InvMass))
			a.W -= a.InvI * Cross(rA, p)
			b.V = b.V.Add(p.Mul(b.InvMass))
			b.W += b.InvI * Cross(rB, p)
		}

		// Upper limit.
		{
			c := j.distMaxLength - j.distCurrentLength
			bias := math.Max(0, c) * invH
			vpA := a.V.Add(CrossSV(a.W, rA))
			vpB := b.V.Add(CrossSV(b.W, rB))
			cdot := -u.Dot(vpB.Sub(vpA))
			impulse := -j.distMass * (cdot + bias)
			newImpulse := math.Max(0, j.distUpperImpulse+impulse)
			impulse = newImpulse - j.distUpperImpulse
			j.distUpperImpulse = newImpulse
			p := u.Mul(-impulse)
			a.V = a.V.Sub(p.Mul(a.InvMass))
			a.W -= a.InvI * Cross(rA, p)
			b.V = b.V.Add(p.Mul(b.InvMass))
			b.W += b.InvI * Cross(rB, p)
		}
		return
	}

	// Fixed-length rigid rod.
	vpA := a.V.Add(CrossSV(a.W, rA))
	vpB := b.V.Add(CrossSV(b.W, rB))
	cdot := u.Dot(vpB.Sub(vpA))
	impulse := -j.distMass * (cdot + j.distBias + j.distGamma*j.distImpulse)
	j.distImpulse += impulse
	p := u.Mul(impulse)
	a.V = a.V.Sub(p.Mul(a.InvMass))
	a.W -= a.InvI * Cross(rA, p)
	b.V = b.V.Add(p.Mul(b.InvMass))
	b.W += b.InvI * Cross(rB, p)
}

func (j *Joint) solveDistancePosition(bc map[BodyID]*BodyConstraint) bool {
	if j.distHertz > 0 {
		// Soft joints rely entirely on the velocity bias; no NGS pass.
		return true
	}

	a, b := bc[j.bodyA], bc[j.bodyB]
	qA := RotationFromAngle(a.A)
	qB := RotationFromAngle(b.A)
	rA := Rotate(qA, j.localAnchorA.Sub(a.LocalCenter))
	rB := Rotate(qB, j.localAnchorB.Sub(b.LocalCenter))

	u := b.C.Add(rB).Sub(a.C.Add(rA))
	length := u.Len()
	if length > 1e-9 {
		u = u.Mul(1 / length)
	}

	var c float64
	if j.distMinLength < j.distMaxLength {
		if length < j.distMinLength {
			c = length - j.distMinLength
		} else if length > j.distMaxLength {
			c = length - j.distMaxLength
		} else {
			return true
		}
	} else {
		c = length - j.distLength
	}

	cClamped := clampFloat(c, -maxLinearCorrection, maxLinearCorrection)

	crA := Cross(rA, u)
	crB := Cross(rB, u)
	invMass := a.InvMass + a.InvI*crA*crA + b.InvMass + b.InvI*crB*crB
	mass := 0.0
	if invMass > 0 {
		mass = 1 / invMass
	}
	impulse := -mass * cClamped
	p := u.Mul(impulse)

	a.C = a.C.Sub(p.Mul(a.InvMass))
	a.A -= a.InvI * Cross(rA, p)
	b.C = b.C.Add(p.Mul(b.InvMass))
	b.A += b.InvI * Cross(rB, p)

	return math.Abs(c) < linearSlop
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
