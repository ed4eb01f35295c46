package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBodyConstraintsSnapshotsLiveBodies(t *testing.T) {
	w := NewWorld(DefaultWorldConf())
	a := mustCreateBody(t, w, BodyConf{Type: BodyDynamic, Position: NewVector(1, 2), Awake: true, Enabled: true})
	attachShape(t, w, a, NewCircleShape(0.5, VectorZero()))

	bcs, index := newBodyConstraints(w, []BodyID{a})
	require.Len(t, bcs, 1)
	bc, ok := index[a]
	require.True(t, ok)
	assert.Equal(t, bcs[0], bc)
	assert.InDelta(t, 1, bc.C.X(), 1e-9)
}

func TestWriteBackAppliesConstraintStateToBody(t *testing.T) {
	w := NewWorld(DefaultWorldConf())
	a := mustCreateBody(t, w, BodyConf{Type: BodyDynamic, Awake: true, Enabled: true})
	attachShape(t, w, a, NewCircleShape(0.5, VectorZero()))

	bcs, _ := newBodyConstraints(w, []BodyID{a})
	bcs[0].V = NewVector(3, 4)
	bcs[0].C = NewVector(9, 9)
	writeBack(w, bcs)

	b, err := w.getBody(a)
	require.NoError(t, err)
	assert.Equal(t, NewVector(3, 4), b.Velocity().Linear)
	assert.Equal(t, NewVector(9, 9), b.WorldCenter())
}
