package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetToiCoincidentProxiesOverlapped(t *testing.T) {
	proxy := NewCircleShape(0.5, VectorZero()).Proxy(0)
	sweep := NewSweep(VectorZero(), 0, VectorZero())
	out := GetToi(proxy, sweep, proxy, sweep, DefaultToiConf())
	assert.Equal(t, ToiStateOverlapped, out.State)
	assert.Equal(t, 0.0, out.Time)
}

func TestGetToiAlreadyTouchingWithinTolerance(t *testing.T) {
	proxy := NewCircleShape(0.5, VectorZero()).Proxy(0)
	conf := DefaultToiConf()
	gap := (proxy.Radius + proxy.Radius) - conf.TargetDepth
	sweepA := NewSweep(VectorZero(), 0, VectorZero())
	sweepB := NewSweep(NewVector(gap, 0), 0, VectorZero())
	out := GetToi(proxy, sweepA, proxy, sweepB, conf)
	assert.Equal(t, ToiStateTouching, out.State)
	assert.Equal(t, 0.0, out.Time)
}

func TestGetToiSeparatedThroughoutInterval(t *testing.T) {
	proxy := NewCircleShape(0.2, VectorZero()).Proxy(0)
	sweepA := NewSweep(NewVector(-5, 0), 0, VectorZero())
	sweepB := NewSweep(NewVector(5, 0), 0, VectorZero())
	out := GetToi(proxy, sweepA, proxy, sweepB, DefaultToiConf())
	assert.Equal(t, ToiStateSeparated, out.State)
}

func TestGetToiMovingTogetherFindsImpactTime(t *testing.T) {
	proxy := NewCircleShape(1.0, VectorZero()).Proxy(0)
	sweepA := NewSweep(NewVector(-2, 0), 0, VectorZero())
	sweepA.Pos1.Center = NewVector(-0.5, 0)
	sweepB := NewSweep(NewVector(2, 0), 0, VectorZero())
	sweepB.Pos1.Center = NewVector(0.5, 0)

	out := GetToi(proxy, sweepA, proxy, sweepB, DefaultToiConf())
	assert.Equal(t, ToiStateTouching, out.State)
	assert.Greater(t, out.Time, 0.0)
	assert.Less(t, out.Time, 1.0)
}

func TestGetToiTargetDepthExceedsTotalRadiusFails(t *testing.T) {
	proxy := NewCircleShape(0.1, VectorZero()).Proxy(0)
	conf := DefaultToiConf()
	conf.TargetDepth = 10
	sweep := NewSweep(VectorZero(), 0, VectorZero())
	out := GetToi(proxy, sweep, proxy, sweep, conf)
	assert.Equal(t, ToiStateFailed, out.State)
}
