package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vector is a 2D point, direction, or velocity. It is mgl64.Vec2 directly so
// that Add/Sub/Mul/Dot/Len/Normalize come from mathgl; the free functions
// below fill in the 2D-specific operations (perp products, rotation as
// complex multiplication) that a generic N-dimensional vector library has no
// business carrying.
type Vector = mgl64.Vec2

// Rotation is a unit-length Vector standing in for a complex number: X is
// cos(angle), Y is sin(angle). Composing rotations and rotating a vector by
// a rotation both reduce to complex multiplication, which is why Chipmunk
// and Box2D represent rotation this way instead of carrying a raw angle.
type Rotation = Vector

func VectorZero() Vector {
	return Vector{0, 0}
}

func NewVector(x, y float64) Vector {
	return Vector{x, y}
}

// IdentityRotation is the zero-angle rotation.
func IdentityRotation() Rotation {
	return Rotation{1, 0}
}

// RotationFromAngle builds a Rotation from an angle in radians.
func RotationFromAngle(angle float64) Rotation {
	return Rotation{math.Cos(angle), math.Sin(angle)}
}

// Angle returns the angle in radians this Rotation represents.
func (r Rotation) Angle() float64 {
	return math.Atan2(r.Y(), r.X())
}

// Cross returns the 2D "perp dot product" a.x*b.y - a.y*b.x, a scalar. Its
// sign indicates which way b is rotated relative to a; its magnitude is the
// area of the parallelogram they span.
func Cross(a, b Vector) float64 {
	return a.X()*b.Y() - a.Y()*b.X()
}

// CrossVS crosses a vector with a scalar (treated as a z-axis vector),
// producing a vector: equivalent to a 90-degree rotation of v scaled by s.
func CrossVS(v Vector, s float64) Vector {
	return Vector{s * v.Y(), -s * v.X()}
}

// CrossSV crosses a scalar with a vector; the scalar counterpart of CrossVS.
func CrossSV(s float64, v Vector) Vector {
	return Vector{-s * v.Y(), s * v.X()}
}

// Perp returns v rotated 90 degrees counter-clockwise.
func Perp(v Vector) Vector {
	return Vector{-v.Y(), v.X()}
}

// RPerp returns v rotated 90 degrees clockwise (the "right perp").
func RPerp(v Vector) Vector {
	return Vector{v.Y(), -v.X()}
}

// RotMul composes two rotations (complex multiplication).
func RotMul(a, b Rotation) Rotation {
	return Rotation{a.X()*b.X() - a.Y()*b.Y(), a.X()*b.Y() + a.Y()*b.X()}
}

// RotMulT composes a with the inverse (conjugate) of b.
func RotMulT(a, b Rotation) Rotation {
	return Rotation{a.X()*b.X() + a.Y()*b.Y(), a.Y()*b.X() - a.X()*b.Y()}
}

// Rotate applies rotation q to vector v (complex multiplication).
func Rotate(q Rotation, v Vector) Vector {
	return Vector{q.X()*v.X() - q.Y()*v.Y(), q.X()*v.Y() + q.Y()*v.X()}
}

// InvRotate applies the inverse of rotation q to vector v.
func InvRotate(q Rotation, v Vector) Vector {
	return Vector{q.X()*v.X() + q.Y()*v.Y(), q.X()*v.Y() - q.Y()*v.X()}
}

// Transform composes a translation and a rotation, the way a Body's pose is
// represented: world = q*local + p.
type Transform struct {
	P Vector
	Q Rotation
}

func IdentityTransform() Transform {
	return Transform{P: VectorZero(), Q: IdentityRotation()}
}

func NewTransform(p Vector, q Rotation) Transform {
	return Transform{P: p, Q: q}
}

// Apply maps a local-space point/vector into world space.
func (t Transform) Apply(v Vector) Vector {
	return Rotate(t.Q, v).Add(t.P)
}

// ApplyVector rotates (but does not translate) v into world space.
func (t Transform) ApplyVector(v Vector) Vector {
	return Rotate(t.Q, v)
}

// ApplyInverse maps a world-space point back into this transform's local
// space.
func (t Transform) ApplyInverse(v Vector) Vector {
	return InvRotate(t.Q, v.Sub(t.P))
}

// ApplyInverseVector rotates (but does not translate) v back into local
// space.
func (t Transform) ApplyInverseVector(v Vector) Vector {
	return InvRotate(t.Q, v)
}

// Mul composes two transforms: applying the result to v is the same as
// applying b then a.
func Mul(a, b Transform) Transform {
	return Transform{
		P: Rotate(a.Q, b.P).Add(a.P),
		Q: RotMul(a.Q, b.Q),
	}
}

// MulT composes the inverse of a with b: applying the result to v is the
// same as applying b then the inverse of a.
func MulT(a, b Transform) Transform {
	return Transform{
		P: InvRotate(a.Q, b.P.Sub(a.P)),
		Q: RotMulT(b.Q, a.Q),
	}
}

// Lerp linearly interpolates between two vectors.
func Lerp(a, b Vector, t float64) Vector {
	return a.Mul(1 - t).Add(b.Mul(t))
}

// Clamp returns v scaled down to at most maxLen if it exceeds it.
func Clamp(v Vector, maxLen float64) Vector {
	lenSq := v.LenSqr()
	if lenSq <= maxLen*maxLen || lenSq == 0 {
		return v
	}
	return v.Mul(maxLen / math.Sqrt(lenSq))
}
