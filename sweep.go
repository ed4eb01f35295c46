package physics

import "math"

// Position is a body pose expressed as the world position of its center of
// mass plus an angle, the representation the solver integrates and
// interpolates (as opposed to Transform, which is what shapes/contacts are
// evaluated against).
type Position struct {
	Center Vector
	Angle  float64
}

// Velocity is a body's linear and angular velocity.
type Velocity struct {
	Linear  Vector
	Angular float64
}

func (v Velocity) IsZero() bool {
	return v.Linear == VectorZero() && v.Angular == 0
}

// Sweep describes the motion of a body's center of mass across one step:
// from pos0 (the state at fraction alpha0) to pos1 (the state at fraction
// 1). alpha0 is nonzero only when an earlier TOI event within the same step
// has already advanced this body partway.
type Sweep struct {
	LocalCenter Vector // center of mass in body-local coordinates
	Pos0        Position
	Pos1        Position
	Alpha0      float64
}

// NewSweep builds a sweep at rest at the given pose.
func NewSweep(center Vector, angle float64, localCenter Vector) Sweep {
	pos := Position{Center: center, Angle: angle}
	return Sweep{LocalCenter: localCenter, Pos0: pos, Pos1: pos, Alpha0: 0}
}

// GetTransform interpolates the sweep at fraction alpha in [alpha0, 1] and
// returns the world transform of the body's origin (not its center of
// mass).
func (s Sweep) GetTransform(alpha float64) Transform {
	beta := (alpha - s.Alpha0) / (1 - s.Alpha0)
	if s.Alpha0 == 1 {
		beta = 1
	}
	center := Lerp(s.Pos0.Center, s.Pos1.Center, beta)
	angle := s.Pos0.Angle + beta*(s.Pos1.Angle-s.Pos0.Angle)
	q := RotationFromAngle(angle)
	// Transform is for the body origin; Pos.Center is the center of mass.
	return Transform{
		P: center.Sub(Rotate(q, s.LocalCenter)),
		Q: q,
	}
}

// Advance moves pos0 forward to fraction alpha, leaving pos1 untouched; used
// when a TOI event consumes part of the remaining step.
func (s *Sweep) Advance(alpha float64) {
	if alpha <= s.Alpha0 {
		return
	}
	beta := (alpha - s.Alpha0) / (1 - s.Alpha0)
	s.Pos0.Center = Lerp(s.Pos0.Center, s.Pos1.Center, beta)
	s.Pos0.Angle = s.Pos0.Angle + beta*(s.Pos1.Angle-s.Pos0.Angle)
	s.Alpha0 = alpha
}

// Normalize wraps pos0's angle into [0, 2*pi), adjusting pos0 and pos1 by
// the same multiple of 2*pi so the interpolated motion is unaffected.
func (s *Sweep) Normalize() {
	twoPi := 2 * math.Pi
	d := twoPi * math.Floor(s.Pos0.Angle/twoPi)
	s.Pos0.Angle -= d
	s.Pos1.Angle -= d
}
