package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAABBUnion(t *testing.T) {
	a := AABB{Lower: NewVector(0, 0), Upper: NewVector(1, 1)}
	b := AABB{Lower: NewVector(-1, -1), Upper: NewVector(0.5, 0.5)}
	u := a.Union(b)
	assert.Equal(t, NewVector(-1, -1), u.Lower)
	assert.Equal(t, NewVector(1, 1), u.Upper)
}

func TestAABBContains(t *testing.T) {
	outer := AABB{Lower: NewVector(-2, -2), Upper: NewVector(2, 2)}
	inner := AABB{Lower: NewVector(-1, -1), Upper: NewVector(1, 1)}
	assert.True(t, outer.Contains(inner))
	assert.False(t, inner.Contains(outer))
}

func TestAABBIntersects(t *testing.T) {
	a := AABB{Lower: NewVector(0, 0), Upper: NewVector(1, 1)}
	b := AABB{Lower: NewVector(1, 1), Upper: NewVector(2, 2)}
	c := AABB{Lower: NewVector(2, 2), Upper: NewVector(3, 3)}
	assert.True(t, a.Intersects(b), "touching boxes count as overlapping")
	assert.False(t, a.Intersects(c))
}

func TestAABBExtend(t *testing.T) {
	a := AABB{Lower: NewVector(0, 0), Upper: NewVector(1, 1)}
	e := a.Extend(0.5)
	assert.Equal(t, NewVector(-0.5, -0.5), e.Lower)
	assert.Equal(t, NewVector(1.5, 1.5), e.Upper)
}

func TestAABBRayCastHit(t *testing.T) {
	box := AABB{Lower: NewVector(-1, -1), Upper: NewVector(1, 1)}
	out := box.RayCast(RayCastInput{P1: NewVector(-5, 0), P2: NewVector(5, 0), MaxFraction: 1})
	assert.True(t, out.Hit)
	assert.InDelta(t, -1, out.Normal.X(), 1e-9)
}

func TestAABBRayCastMiss(t *testing.T) {
	box := AABB{Lower: NewVector(-1, -1), Upper: NewVector(1, 1)}
	out := box.RayCast(RayCastInput{P1: NewVector(-5, 5), P2: NewVector(5, 5), MaxFraction: 1})
	assert.False(t, out.Hit)
}
