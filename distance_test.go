package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceSeparatedCircles(t *testing.T) {
	a := NewCircleShape(0.2, VectorZero())
	b := NewCircleShape(0.2, VectorZero())
	xfA := NewTransform(NewVector(-1, 0), IdentityRotation())
	xfB := NewTransform(NewVector(1, 0), IdentityRotation())

	var cache SimplexCache
	out := Distance(&cache, DistanceInput{
		ProxyA: a.Proxy(0), ProxyB: b.Proxy(0),
		TransformA: xfA, TransformB: xfB, UseRadii: true,
	})
	assert.InDelta(t, 2.0-0.4, out.Distance, 1e-6)
}

func TestDistanceOverlappingCircles(t *testing.T) {
	a := NewCircleShape(1.0, VectorZero())
	b := NewCircleShape(1.0, VectorZero())
	xfA := NewTransform(NewVector(-0.1, 0), IdentityRotation())
	xfB := NewTransform(NewVector(0.1, 0), IdentityRotation())

	var cache SimplexCache
	out := Distance(&cache, DistanceInput{
		ProxyA: a.Proxy(0), ProxyB: b.Proxy(0),
		TransformA: xfA, TransformB: xfB, UseRadii: true,
	})
	assert.Equal(t, 0.0, out.Distance, "overlapping circles clamp distance to zero")
}

func TestDistanceCoincidentProxies(t *testing.T) {
	a := NewCircleShape(0.5, VectorZero())
	var cache SimplexCache
	out := Distance(&cache, DistanceInput{
		ProxyA: a.Proxy(0), ProxyB: a.Proxy(0),
		TransformA: IdentityTransform(), TransformB: IdentityTransform(), UseRadii: false,
	})
	assert.InDelta(t, 0, out.Distance, 1e-9)
}

func TestShapeSeparationBoxes(t *testing.T) {
	box := NewBoxShape(0.5, 0.5)
	xfA := IdentityTransform()
	xfB := NewTransform(NewVector(3, 0), IdentityRotation())
	sep := ShapeSeparation(box.Proxy(0), xfA, box.Proxy(0), xfB)
	assert.InDelta(t, 2.0, sep, 1e-6)
}

func TestFindMaxSeparationTouchingBoxes(t *testing.T) {
	box := NewBoxShape(0.5, 0.5)
	xfA := IdentityTransform()
	xfB := NewTransform(NewVector(1, 0), IdentityRotation())
	_, sep := FindMaxSeparation(box.Proxy(0), xfA, box.Proxy(0), xfB)
	assert.InDelta(t, 0.0, sep, 1e-6)
}
