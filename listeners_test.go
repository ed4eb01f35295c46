package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginAndEndContactListenersFireOnOverlapTransitions(t *testing.T) {
	w := NewWorld(WorldConf{Gravity: VectorZero(), AabbExtension: 0.1})

	var began, ended int
	w.SetBeginContactListener(func(c *Contact) { began++ })
	w.SetEndContactListener(func(c *Contact) { ended++ })

	bodyA := mustCreateBody(t, w, BodyConf{Type: BodyDynamic, Position: VectorZero(), Awake: true, Enabled: true})
	attachShape(t, w, bodyA, NewCircleShape(0.5, VectorZero()))
	bodyB := mustCreateBody(t, w, BodyConf{Type: BodyDynamic, Position: NewVector(0.3, 0), Awake: true, Enabled: true})
	attachShape(t, w, bodyB, NewCircleShape(0.5, VectorZero()))

	w.contactManager.FindNewContacts()
	w.contactManager.Collide()
	assert.Equal(t, 1, began)
	assert.Equal(t, 0, ended)

	require.NoError(t, w.SetTransform(bodyB, NewVector(500, 500), 0))
	w.synchronizeBody(mustBody(t, w, bodyB), VectorZero())
	w.contactManager.Collide()
	assert.Equal(t, 1, ended)
}

func TestDestructionListenerFiresWhenBodyDestroyCascadesJoint(t *testing.T) {
	w := NewWorld(DefaultWorldConf())
	bodyA := mustCreateBody(t, w, BodyConf{Type: BodyDynamic, Awake: true, Enabled: true})
	attachShape(t, w, bodyA, NewCircleShape(0.5, VectorZero()))
	bodyB := mustCreateBody(t, w, BodyConf{Type: BodyDynamic, Position: NewVector(2, 0), Awake: true, Enabled: true})
	attachShape(t, w, bodyB, NewCircleShape(0.5, VectorZero()))

	jid, err := w.CreateJoint(JointConf{Kind: JointDistance, BodyA: bodyA, BodyB: bodyB, Length: 2, CollideConnected: true})
	require.NoError(t, err)

	var destroyed JointID
	w.SetDestructionListener(func(j JointID) { destroyed = j })

	require.NoError(t, w.DestroyBody(bodyA))
	assert.Equal(t, jid, destroyed)
}

func TestShapeDestructionListenerFiresWhenBodyDestroyCascadesShape(t *testing.T) {
	w := NewWorld(DefaultWorldConf())
	bodyA := mustCreateBody(t, w, BodyConf{Type: BodyDynamic, Awake: true, Enabled: true})
	sid := attachShape(t, w, bodyA, NewCircleShape(0.5, VectorZero()))

	var destroyed ShapeID
	w.SetShapeDestructionListener(func(s ShapeID) { destroyed = s })

	require.NoError(t, w.DestroyBody(bodyA))
	assert.Equal(t, sid, destroyed)
}
