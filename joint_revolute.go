package physics

import "math"

// Revolute joint: pins two bodies together at a shared anchor point,
// optionally with an angle limit and/or a motor driving relative angular
// velocity (Box2D b2RevoluteJoint, §4.9).

func (j *Joint) initRevolute(bc map[BodyID]*BodyConstraint, dt float64) {
	a, b := bc[j.bodyA], bc[j.bodyB]
	qA := RotationFromAngle(a.A)
	qB := RotationFromAngle(b.A)
	j.revRA = Rotate(qA, j.localAnchorA.Sub(a.LocalCenter))
	j.revRB = Rotate(qB, j.localAnchorB.Sub(b.LocalCenter))

	mA, mB, iA, iB := a.InvMass, b.InvMass, a.InvI, b.InvI
	fixedRotation := iA+iB == 0

	j.revAxialMass = 0
	if iA+iB > 0 {
		j.revAxialMass = 1 / (iA + iB)
	}

	j.revK[0][0] = mA + mB + iA*j.revRA.Y()*j.revRA.Y() + iB*j.revRB.Y()*j.revRB.Y()
	j.revK[0][1] = -iA*j.revRA.X()*j.revRA.Y() - iB*j.revRB.X()*j.revRB.Y()
	j.revK[1][0] = j.revK[0][1]
	j.revK[1][1] = mA + mB + iA*j.revRA.X()*j.revRA.X() + iB*j.revRB.X()*j.revRB.X()

	if !j.revEnableMotor || fixedRotation {
		j.revMotorImpulse = 0
	}
	if !j.revEnableLimit || fixedRotation {
		j.revLowerImpulse = 0
		j.revUpperImpulse = 0
	}

	axialImpulse := j.revMotorImpulse + j.revLowerImpulse - j.revUpperImpulse
	p := j.revImpulse
	a.V = a.V.Sub(p.Mul(mA))
	a.W -= iA * (Cross(j.revRA, p) + axialImpulse)
	b.V = b.V.Add(p.Mul(mB))
	b.W += iB * (Cross(j.revRB, p) + axialImpulse)
}

func (j *Joint) solveRevoluteVelocity(bc map[BodyID]*BodyConstraint, dt float64) {
	a, b := bc[j.bodyA], bc[j.bodyB]
	mA, mB, iA, iB := a.InvMass, b.InvMass, a.InvI, b.InvI
	fixedRotation := iA+iB == 0

	if j.revEnableMotor && !fixedRotation {
		cdot := b.W - a.W - j.revMotorSpeed
		impulse := -j.revAxialMass * cdot
		old := j.revMotorImpulse
		maxImpulse := dt * j.revMaxMotorTorque
		j.revMotorImpulse = clampFloat(old+impulse, -maxImpulse, maxImpulse)
		impulse = j.revMotorImpulse - old
		a.W -= iA * impulse
		b.W += iB * impulse
	}

	if j.revEnableLimit && !fixedRotation {
		angle := b.A - a.A - j.revReferenceAngle
		invH := 0.0
		if dt > 0 {
			invH = 1 / dt
		}

		{
			c := angle - j.revLowerAngle
			bias := math.Max(c, 0) * invH
			cdot := b.W - a.W + bias
			impulse := -j.revAxialMass * cdot
			newImpulse := math.Max(j.revLowerImpulse+impulse, 0)
			impulse = newImpulse - j.revLowerImpulse
			j.revLowerImpulse = newImpulse
			a.W -= iA * impulse
			b.W += iB * impulse
		}
		{
			c := j.revUpperAngle - angle
			bias := math.Max(c, 0) * invH
			cdot := a.W - b.W + bias
			impulse := -j.revAxialMass * cdot
			newImpulse := math.Max(j.revUpperImpulse+impulse, 0)
			impulse = newImpulse - j.revUpperImpulse
			j.revUpperImpulse = newImpulse
			a.W += iA * impulse
			b.W -= iB * impulse
		}
	}

	rA, rB := j.revRA, j.revRB
	cdot := b.V.Add(CrossSV(b.W, rB)).Sub(a.V.Add(CrossSV(a.W, rA)))
	impulse := solve2x2(j.revK, cdot.Mul(-1))
	j.revImpulse = j.revImpulse.Add(impulse)

	a.V = a.V.Sub(impulse.Mul(mA))
	a.W -= iA * Cross(rA, impulse)
	b.V = b.V.Add(impulse.Mul(mB))
	b.W += iB * Cross(rB, impulse)
}

func (j *Joint) solveRevolutePosition(bc map[BodyID]*BodyConstraint) bool {
	a, b := bc[j.bodyA], bc[j.bodyB]
	fixedRotation := a.InvI+b.InvI == 0

	angularError := 0.0

	if j.revEnableLimit && !fixedRotation {
		angle := b.A - a.A - j.revReferenceAngle
		var c float64
		switch {
		case math.Abs(j.revUpperAngle-j.revLowerAngle) < 2*angularSlop:
			c = clampFloat(angle-j.revLowerAngle, -maxAngularCorrection, maxAngularCorrection)
		case angle <= j.revLowerAngle:
			c = clampFloat(angle-j.revLowerAngle, -maxAngularCorrection, 0)
		case angle >= j.revUpperAngle:
			c = clampFloat(angle-j.revUpperAngle, 0, maxAngularCorrection)
		}
		if c != 0 {
			limitImpulse := -j.revAxialMass * c
			a.A -= a.InvI * limitImpulse
			b.A += b.InvI * limitImpulse
			angularError = math.Abs(c)
		}
	}

	qA := RotationFromAngle(a.A)
	qB := RotationFromAngle(b.A)
	rA := Rotate(qA, j.localAnchorA.Sub(a.LocalCenter))
	rB := Rotate(qB, j.localAnchorB.Sub(b.LocalCenter))

	c := b.C.Add(rB).Sub(a.C).Sub(rA)
	positionError := c.Len()

	mA, mB, iA, iB := a.InvMass, b.InvMass, a.InvI, b.InvI
	var k [2][2]float64
	k[0][0] = mA + mB + iA*rA.Y()*rA.Y() + iB*rB.Y()*rB.Y()
	k[0][1] = -iA*rA.X()*rA.Y() - iB*rB.X()*rB.Y()
	k[1][0] = k[0][1]
	k[1][1] = mA + mB + iA*rA.X()*rA.X() + iB*rB.X()*rB.X()

	impulse := solve2x2(k, c.Mul(-1))

	a.C = a.C.Sub(impulse.Mul(mA))
	a.A -= iA * Cross(rA, impulse)
	b.C = b.C.Add(impulse.Mul(mB))
	b.A += iB * Cross(rB, impulse)

	return positionError <= linearSlop && angularError <= angularSlop
}

// solve2x2 solves k*x = b for x (Box2D b2Mat22::Solve).
func solve2x2(k [2][2]float64, b Vector) Vector {
	a11, a12 := k[0][0], k[0][1]
	a21, a22 := k[1][0], k[1][1]
	det := a11*a22 - a12*a21
	if det != 0 {
		det = 1 / det
	}
	x := det * (a22*b.X() - a12*b.Y())
	y := det * (a11*b.Y() - a21*b.X())
	return Vector{x, y}
}
