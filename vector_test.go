package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrossIsPerpDotProduct(t *testing.T) {
	assert.InDelta(t, 1.0, Cross(NewVector(1, 0), NewVector(0, 1)), 1e-12)
	assert.InDelta(t, -1.0, Cross(NewVector(0, 1), NewVector(1, 0)), 1e-12)
	assert.InDelta(t, 0.0, Cross(NewVector(2, 2), NewVector(1, 1)), 1e-12)
}

func TestPerpAndRPerpAreOpposite(t *testing.T) {
	v := NewVector(3, 4)
	assert.Equal(t, Perp(v), RPerp(v).Mul(-1))
}

func TestRotateByIdentityIsNoop(t *testing.T) {
	v := NewVector(1, 2)
	got := Rotate(IdentityRotation(), v)
	assert.InDelta(t, v.X(), got.X(), 1e-12)
	assert.InDelta(t, v.Y(), got.Y(), 1e-12)
}

func TestRotateThenInvRotateRoundTrips(t *testing.T) {
	q := RotationFromAngle(0.73)
	v := NewVector(5, -2)
	got := InvRotate(q, Rotate(q, v))
	assert.InDelta(t, v.X(), got.X(), 1e-9)
	assert.InDelta(t, v.Y(), got.Y(), 1e-9)
}

func TestRotationFromAngleRoundTripsThroughAngle(t *testing.T) {
	for _, a := range []float64{0, 0.5, -1.2, math.Pi / 2} {
		q := RotationFromAngle(a)
		assert.InDelta(t, a, q.Angle(), 1e-9)
	}
}

func TestRotMulComposesRotationsLikeSequentialRotate(t *testing.T) {
	qa := RotationFromAngle(0.4)
	qb := RotationFromAngle(0.9)
	v := NewVector(1, 0)

	viaCompose := Rotate(RotMul(qa, qb), v)
	viaSequential := Rotate(qa, Rotate(qb, v))
	assert.InDelta(t, viaSequential.X(), viaCompose.X(), 1e-9)
	assert.InDelta(t, viaSequential.Y(), viaCompose.Y(), 1e-9)
}

func TestRotMulTUndoesRotMul(t *testing.T) {
	qa := RotationFromAngle(1.1)
	qb := RotationFromAngle(0.3)
	composed := RotMul(qa, qb)
	back := RotMulT(composed, qb)
	assert.InDelta(t, qa.X(), back.X(), 1e-9)
	assert.InDelta(t, qa.Y(), back.Y(), 1e-9)
}

func TestTransformApplyThenApplyInverseRoundTrips(t *testing.T) {
	xf := NewTransform(NewVector(2, -3), RotationFromAngle(0.6))
	v := NewVector(4, 5)
	got := xf.ApplyInverse(xf.Apply(v))
	assert.InDelta(t, v.X(), got.X(), 1e-9)
	assert.InDelta(t, v.Y(), got.Y(), 1e-9)
}

func TestMulComposesTransformsInApplicationOrder(t *testing.T) {
	a := NewTransform(NewVector(1, 0), RotationFromAngle(math.Pi / 2))
	b := NewTransform(NewVector(0, 1), IdentityRotation())
	v := NewVector(1, 0)

	composed := Mul(a, b).Apply(v)
	sequential := a.Apply(b.Apply(v))
	assert.InDelta(t, sequential.X(), composed.X(), 1e-9)
	assert.InDelta(t, sequential.Y(), composed.Y(), 1e-9)
}

func TestLerpInterpolatesLinearly(t *testing.T) {
	a := NewVector(0, 0)
	b := NewVector(10, 20)
	mid := Lerp(a, b, 0.5)
	assert.InDelta(t, 5, mid.X(), 1e-9)
	assert.InDelta(t, 10, mid.Y(), 1e-9)
	assert.Equal(t, a, Lerp(a, b, 0))
	assert.Equal(t, b, Lerp(a, b, 1))
}

func TestClampLeavesShortVectorsUntouched(t *testing.T) {
	v := NewVector(1, 0)
	assert.Equal(t, v, Clamp(v, 5))
}

func TestClampScalesDownVectorsExceedingMaxLen(t *testing.T) {
	v := NewVector(10, 0)
	clamped := Clamp(v, 2)
	assert.InDelta(t, 2, clamped.Len(), 1e-9)
	assert.InDelta(t, 0, clamped.Y(), 1e-9)
}

func TestCrossVSAndCrossSVAreNegationsOfEachOther(t *testing.T) {
	v := NewVector(3, -2)
	assert.Equal(t, CrossVS(v, 2), CrossSV(2, v).Mul(-1))
}
