package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollideCirclesOverlap(t *testing.T) {
	a := NewCircleShape(0.6, VectorZero())
	b := NewCircleShape(0.6, VectorZero())
	xfA := IdentityTransform()
	xfB := NewTransform(NewVector(1, 0), IdentityRotation())
	m := CollideShapes(a, xfA, b, xfB)
	assert.Equal(t, ManifoldCircles, m.Type)
	assert.Len(t, m.Points, 1)
}

func TestCollideCirclesSeparated(t *testing.T) {
	a := NewCircleShape(0.2, VectorZero())
	b := NewCircleShape(0.2, VectorZero())
	xfA := IdentityTransform()
	xfB := NewTransform(NewVector(5, 0), IdentityRotation())
	m := CollideShapes(a, xfA, b, xfB)
	assert.Equal(t, ManifoldUnset, m.Type)
}

func TestCollidePolygonAndCircle(t *testing.T) {
	box := NewBoxShape(0.5, 0.5)
	circle := NewCircleShape(0.3, VectorZero())
	xfA := IdentityTransform()
	xfB := NewTransform(NewVector(0.7, 0), IdentityRotation())
	m := CollideShapes(box, xfA, circle, xfB)
	assert.Equal(t, ManifoldFaceA, m.Type)
	assert.Len(t, m.Points, 1)
}

func TestCollidePolygonsFacingBoxes(t *testing.T) {
	boxA := NewBoxShape(0.5, 0.5)
	boxB := NewBoxShape(0.5, 0.5)
	xfA := IdentityTransform()
	xfB := NewTransform(NewVector(0.9, 0), IdentityRotation())
	m := CollideShapes(boxA, xfA, boxB, xfB)
	assert.Contains(t, []ManifoldType{ManifoldFaceA, ManifoldFaceB}, m.Type)
	assert.Len(t, m.Points, 2)
}

func TestCollidePolygonsNoOverlap(t *testing.T) {
	boxA := NewBoxShape(0.5, 0.5)
	boxB := NewBoxShape(0.5, 0.5)
	xfA := IdentityTransform()
	xfB := NewTransform(NewVector(5, 0), IdentityRotation())
	m := CollideShapes(boxA, xfA, boxB, xfB)
	assert.Equal(t, ManifoldUnset, m.Type)
}

func TestComputeWorldManifoldCircles(t *testing.T) {
	a := NewCircleShape(0.5, VectorZero())
	b := NewCircleShape(0.5, VectorZero())
	xfA := IdentityTransform()
	xfB := NewTransform(NewVector(0.8, 0), IdentityRotation())
	m := CollideShapes(a, xfA, b, xfB)
	wm := ComputeWorldManifold(m, xfA, 0.5, xfB, 0.5)
	assert.InDelta(t, 1, wm.Normal.X(), 1e-9)
	assert.Len(t, wm.Separations, 1)
	assert.Less(t, wm.Separations[0], 0.0)
}
