package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZeroValueIDsAreInvalid(t *testing.T) {
	assert.False(t, (BodyID{}).Valid())
	assert.False(t, (ShapeID{}).Valid())
	assert.False(t, (ContactID{}).Valid())
	assert.False(t, (JointID{}).Valid())
}

func TestAllocatedIDsAreValid(t *testing.T) {
	assert.True(t, testBodyID(0).Valid())
	assert.True(t, testBodyID(5).Valid())
}

func TestBodyIDLessOrdersByDenseIndex(t *testing.T) {
	a := testBodyID(1)
	b := testBodyID(2)
	assert.True(t, bodyIDLess(a, b))
	assert.False(t, bodyIDLess(b, a))
	assert.False(t, bodyIDLess(a, a))
}
