package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeFilterShouldCollideDefault(t *testing.T) {
	a := DefaultShapeFilter()
	b := DefaultShapeFilter()
	assert.True(t, a.ShouldCollide(b))
}

func TestShapeFilterMaskRejects(t *testing.T) {
	a := ShapeFilter{CategoryBits: 0x0002, MaskBits: 0x0001}
	b := ShapeFilter{CategoryBits: 0x0001, MaskBits: 0x0001}
	assert.False(t, a.ShouldCollide(b), "a's category isn't in b's mask")
}

func TestShapeFilterGroupIndexSignDecides(t *testing.T) {
	a := ShapeFilter{CategoryBits: 1, MaskBits: 1, GroupIndex: 5}
	b := ShapeFilter{CategoryBits: 1, MaskBits: 1, GroupIndex: 5}
	assert.True(t, a.ShouldCollide(b))

	c := ShapeFilter{CategoryBits: 1, MaskBits: 1, GroupIndex: -5}
	assert.False(t, a.ShouldCollide(c), "opposite-sign matching groups must never collide")
}

func TestNewPolygonShapeRejectsTooFew(t *testing.T) {
	_, err := NewPolygonShape([]Vector{{0, 0}, {1, 0}}, 0)
	assert.Error(t, err)
}

func TestNewPolygonShapeRejectsDegenerate(t *testing.T) {
	_, err := NewPolygonShape([]Vector{{0, 0}, {0, 0}, {1, 1}}, 0)
	assert.Error(t, err)
}

func TestCircleMassData(t *testing.T) {
	s := NewCircleShape(1.0, VectorZero())
	s.SetDensity(1)
	md := s.ComputeMass()
	assert.InDelta(t, math.Pi, md.Mass, 1e-9)
}

func TestBoxMassData(t *testing.T) {
	s := NewBoxShape(0.5, 0.5)
	s.SetDensity(1)
	md := s.ComputeMass()
	assert.InDelta(t, 1.0, md.Mass, 1e-9)
	assert.InDelta(t, 0, md.Center.X(), 1e-9)
	assert.InDelta(t, 0, md.Center.Y(), 1e-9)
}

func TestBoxComputeAABB(t *testing.T) {
	s := NewBoxShape(0.5, 0.5)
	aabb := s.ComputeAABB(IdentityTransform(), 0)
	assert.InDelta(t, -0.5, aabb.Lower.X(), 1e-9)
	assert.InDelta(t, 0.5, aabb.Upper.X(), 1e-9)
}

func TestDistanceProxyGetSupport(t *testing.T) {
	s := NewBoxShape(1, 1)
	proxy := s.Proxy(0)
	idx := proxy.GetSupport(NewVector(1, 1))
	v := proxy.Vertex(idx)
	assert.InDelta(t, 1, v.X(), 1e-9)
	assert.InDelta(t, 1, v.Y(), 1e-9)
}

func TestNewPolygonShapeValid(t *testing.T) {
	s, err := NewPolygonShape([]Vector{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, 0)
	require.NoError(t, err)
	assert.Equal(t, ShapeKindPolygon, s.Kind())
}
