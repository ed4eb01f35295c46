package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSweepGetTransformInterpolates(t *testing.T) {
	s := NewSweep(VectorZero(), 0, VectorZero())
	s.Pos1.Center = NewVector(2, 0)
	xf := s.GetTransform(0.5)
	assert.InDelta(t, 1.0, xf.P.X(), 1e-9)
}

func TestSweepAdvance(t *testing.T) {
	s := NewSweep(VectorZero(), 0, VectorZero())
	s.Pos1.Center = NewVector(4, 0)
	s.Advance(0.5)
	assert.InDelta(t, 2.0, s.Pos0.Center.X(), 1e-9)
	assert.Equal(t, 0.5, s.Alpha0)
}

func TestSweepAdvanceNoopIfBehindAlpha0(t *testing.T) {
	s := NewSweep(VectorZero(), 0, VectorZero())
	s.Pos1.Center = NewVector(4, 0)
	s.Advance(0.5)
	before := s.Pos0.Center
	s.Advance(0.3)
	assert.Equal(t, before, s.Pos0.Center)
	assert.Equal(t, 0.5, s.Alpha0)
}

func TestSweepNormalize(t *testing.T) {
	s := Sweep{Pos0: Position{Angle: 3 * 3.141592653589793}, Pos1: Position{Angle: 3 * 3.141592653589793}}
	s.Normalize()
	assert.InDelta(t, 3.141592653589793, s.Pos0.Angle, 1e-6)
}
