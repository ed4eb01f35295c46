package physics

import "math"

// AABB is an axis-aligned bounding box.
type AABB struct {
	Lower Vector
	Upper Vector
}

func MinVector(a, b Vector) Vector {
	return Vector{math.Min(a.X(), b.X()), math.Min(a.Y(), b.Y())}
}

func MaxVector(a, b Vector) Vector {
	return Vector{math.Max(a.X(), b.X()), math.Max(a.Y(), b.Y())}
}

// Union returns the smallest AABB containing both a and b.
func (a AABB) Union(b AABB) AABB {
	return AABB{Lower: MinVector(a.Lower, b.Lower), Upper: MaxVector(a.Upper, b.Upper)}
}

// Contains reports whether b is entirely inside a.
func (a AABB) Contains(b AABB) bool {
	return a.Lower.X() <= b.Lower.X() && a.Lower.Y() <= b.Lower.Y() &&
		b.Upper.X() <= a.Upper.X() && b.Upper.Y() <= a.Upper.Y()
}

// Intersects reports whether a and b overlap (touching counts as overlap).
func (a AABB) Intersects(b AABB) bool {
	d1x := b.Lower.X() - a.Upper.X()
	d1y := b.Lower.Y() - a.Upper.Y()
	d2x := a.Lower.X() - b.Upper.X()
	d2y := a.Lower.Y() - b.Upper.Y()
	if d1x > 0 || d1y > 0 {
		return false
	}
	if d2x > 0 || d2y > 0 {
		return false
	}
	return true
}

// Perimeter is the AABB's perimeter, 2*(width+height), used as the surface-area
// heuristic proxy in dynamic-tree insertion (§4.2).
func (a AABB) Perimeter() float64 {
	wx := a.Upper.X() - a.Lower.X()
	wy := a.Upper.Y() - a.Lower.Y()
	return 2 * (wx + wy)
}

// Extend returns a padded by margin on every side.
func (a AABB) Extend(margin float64) AABB {
	m := Vector{margin, margin}
	return AABB{Lower: a.Lower.Sub(m), Upper: a.Upper.Add(m)}
}

// Center returns the AABB's midpoint.
func (a AABB) Center() Vector {
	return a.Lower.Add(a.Upper).Mul(0.5)
}

// RayCastInput describes a segment query: from P1 toward P1 + maxFraction *
// (P2 - P1).
type RayCastInput struct {
	P1, P2      Vector
	MaxFraction float64
}

// RayCastOutput is the first hit along a ray.
type RayCastOutput struct {
	Normal   Vector
	Fraction float64
	Hit      bool
}

// RayCast performs a slab test of the segment in input against this AABB.
func (a AABB) RayCast(input RayCastInput) RayCastOutput {
	tmin := math.Inf(-1)
	tmax := math.Inf(1)
	p := input.P1
	d := input.P2.Sub(input.P1)
	absD := Vector{math.Abs(d.X()), math.Abs(d.Y())}
	normal := VectorZero()

	for axis := 0; axis < 2; axis++ {
		var pAxis, dAxis, absDAxis, lower, upper float64
		if axis == 0 {
			pAxis, dAxis, absDAxis, lower, upper = p.X(), d.X(), absD.X(), a.Lower.X(), a.Upper.X()
		} else {
			pAxis, dAxis, absDAxis, lower, upper = p.Y(), d.Y(), absD.Y(), a.Lower.Y(), a.Upper.Y()
		}
		if absDAxis < 1e-12 {
			if pAxis < lower || pAxis > upper {
				return RayCastOutput{}
			}
			continue
		}
		inv := 1 / dAxis
		t1 := (lower - pAxis) * inv
		t2 := (upper - pAxis) * inv
		sign := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1.0
		}
		if t1 > tmin {
			tmin = t1
			if axis == 0 {
				normal = Vector{sign, 0}
			} else {
				normal = Vector{0, sign}
			}
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return RayCastOutput{}
		}
	}

	if tmin < 0 || tmin > input.MaxFraction {
		return RayCastOutput{}
	}
	return RayCastOutput{Normal: normal, Fraction: tmin, Hit: true}
}
