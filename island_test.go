package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIslandsSeparatesUnconnectedBodies(t *testing.T) {
	w := NewWorld(DefaultWorldConf())
	a := mustCreateBody(t, w, BodyConf{Type: BodyDynamic, Position: NewVector(-10, 0), Awake: true, Enabled: true})
	attachShape(t, w, a, NewCircleShape(0.2, VectorZero()))
	b := mustCreateBody(t, w, BodyConf{Type: BodyDynamic, Position: NewVector(10, 0), Awake: true, Enabled: true})
	attachShape(t, w, b, NewCircleShape(0.2, VectorZero()))

	resetIslandFlags(w)
	islands := BuildIslands(w)
	assert.Len(t, islands, 2)
}

func TestBuildIslandsMergesTouchingBodiesIntoOneIsland(t *testing.T) {
	w := NewWorld(DefaultWorldConf())
	a := mustCreateBody(t, w, BodyConf{Type: BodyDynamic, Position: VectorZero(), Awake: true, Enabled: true})
	attachShape(t, w, a, NewCircleShape(0.5, VectorZero()))
	b := mustCreateBody(t, w, BodyConf{Type: BodyDynamic, Position: NewVector(0.3, 0), Awake: true, Enabled: true})
	attachShape(t, w, b, NewCircleShape(0.5, VectorZero()))

	w.contactManager.FindNewContacts()
	w.contactManager.Collide()

	resetIslandFlags(w)
	islands := BuildIslands(w)
	require.Len(t, islands, 1)
	assert.Len(t, islands[0].Bodies, 2)
	assert.Len(t, islands[0].Contacts, 1)
}

func TestBuildIslandsStaticBodyBridgesWithoutMergingOtherIslands(t *testing.T) {
	w := NewWorld(DefaultWorldConf())
	ground := mustCreateBody(t, w, BodyConf{Type: BodyStatic, Enabled: true})
	attachShape(t, w, ground, NewEdgeShape(NewVector(-50, 0), NewVector(50, 0)))

	a := mustCreateBody(t, w, BodyConf{Type: BodyDynamic, Position: NewVector(-10, 0.4), Awake: true, Enabled: true})
	attachShape(t, w, a, NewBoxShape(0.5, 0.5))
	b := mustCreateBody(t, w, BodyConf{Type: BodyDynamic, Position: NewVector(10, 0.4), Awake: true, Enabled: true})
	attachShape(t, w, b, NewBoxShape(0.5, 0.5))

	w.contactManager.FindNewContacts()
	w.contactManager.Collide()

	resetIslandFlags(w)
	islands := BuildIslands(w)
	assert.Len(t, islands, 2, "a static body must not merge unrelated islands together")
}

func TestBuildIslandsJointToDisabledBodyDoesNotIslandIt(t *testing.T) {
	w := NewWorld(DefaultWorldConf())
	a := mustCreateBody(t, w, BodyConf{Type: BodyDynamic, Awake: true, Enabled: true})
	attachShape(t, w, a, NewCircleShape(0.5, VectorZero()))
	b := mustCreateBody(t, w, BodyConf{Type: BodyDynamic, Awake: true, Enabled: false})
	attachShape(t, w, b, NewCircleShape(0.5, VectorZero()))

	_, err := w.CreateJoint(JointConf{Kind: JointDistance, BodyA: a, BodyB: b, Length: 1, CollideConnected: true})
	require.NoError(t, err)

	resetIslandFlags(w)
	islands := BuildIslands(w)
	require.Len(t, islands, 1)
	assert.Len(t, islands[0].Bodies, 1, "a joint to a disabled body must not pull that body into the island")
	assert.Len(t, islands[0].Joints, 0)
}

func TestBuildIslandsSkipsSleepingBodies(t *testing.T) {
	w := NewWorld(DefaultWorldConf())
	a := mustCreateBody(t, w, BodyConf{Type: BodyDynamic, Awake: false, Enabled: true, AllowSleep: true})
	attachShape(t, w, a, NewCircleShape(0.5, VectorZero()))

	resetIslandFlags(w)
	islands := BuildIslands(w)
	assert.Len(t, islands, 0)
}
