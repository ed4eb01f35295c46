package physics

import "math"

// ContactKey orders a body/shape pair so a contact is always looked up
// and stored the same way regardless of discovery order (§3, §8 invariant
// 2: "a contact's bodyA/shapeA always precedes bodyB/shapeB").
type ContactKey struct {
	ShapeA ShapeID
	ShapeB ShapeID
}

func makeContactKey(a, b ShapeID) ContactKey {
	if a.idx.index <= b.idx.index {
		return ContactKey{ShapeA: a, ShapeB: b}
	}
	return ContactKey{ShapeA: b, ShapeB: a}
}

// MixFriction and MixRestitution combine two shapes' material properties
// (Box2D's defaults: geometric mean for friction, max for restitution).
func MixFriction(a, b float64) float64 {
	return math.Sqrt(a * b)
}

func MixRestitution(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Contact holds the narrow-phase manifold and warm-start state between
// one shape pair over a body pair. bodyA/bodyB are cached alongside
// shapeA/shapeB since the solver walks contacts by body far more often
// than it needs to revisit shape geometry (§3).
type Contact struct {
	id ContactID

	shapeA, shapeB ShapeID
	bodyA, bodyB   BodyID
	childA, childB int

	friction    float64
	restitution float64
	tangentSpeed float64

	manifold Manifold

	touching   bool
	enabled    bool
	filterFlag bool // pending broad-phase re-filter (shape filter or Enable changed)
	islanded   bool

	toi       float64
	toiCount  int
	hasToi    bool
}

func newContact(id ContactID, shapeA, shapeB *Shape, bodyA, bodyB BodyID) *Contact {
	return &Contact{
		id:          id,
		shapeA:      shapeA.id,
		shapeB:      shapeB.id,
		bodyA:       bodyA,
		bodyB:       bodyB,
		friction:    MixFriction(shapeA.friction, shapeB.friction),
		restitution: MixRestitution(shapeA.restitution, shapeB.restitution),
		enabled:     true,
	}
}

func (c *Contact) ID() ContactID      { return c.id }
func (c *Contact) ShapeA() ShapeID    { return c.shapeA }
func (c *Contact) ShapeB() ShapeID    { return c.shapeB }
func (c *Contact) BodyA() BodyID      { return c.bodyA }
func (c *Contact) BodyB() BodyID      { return c.bodyB }
func (c *Contact) IsTouching() bool   { return c.touching }
func (c *Contact) IsEnabled() bool    { return c.enabled }
func (c *Contact) SetEnabled(v bool)  { c.enabled = v }
func (c *Contact) Manifold() Manifold { return c.manifold }
func (c *Contact) Friction() float64  { return c.friction }
func (c *Contact) Restitution() float64 { return c.restitution }

// resetFriction/resetRestitution restore the mixed defaults, used after a
// listener has overridden them for one step (Box2D Contact::ResetFriction
// idiom).
func (c *Contact) resetFriction(shapeA, shapeB *Shape) {
	c.friction = MixFriction(shapeA.friction, shapeB.friction)
}

func (c *Contact) resetRestitution(shapeA, shapeB *Shape) {
	c.restitution = MixRestitution(shapeA.restitution, shapeB.restitution)
}

// matchWarmStart carries over normal/tangent impulses from the previous
// manifold's points to the new one wherever their ContactFeature matches;
// if nothing matches by feature (indices shifted frame-to-frame) it falls
// back to the nearest old point by local-coordinate distance, so a
// persisting contact never simply loses its accumulated impulses
// (§4.6: "warm-start by contact feature... falling back to nearest-old-point").
func matchWarmStart(oldManifold, newManifold Manifold) {
	for i := range newManifold.Points {
		np := &newManifold.Points[i]
		matched := false
		for _, op := range oldManifold.Points {
			if op.Feature == np.Feature {
				np.NormalImpulse = op.NormalImpulse
				np.TangentImpulse = op.TangentImpulse
				matched = true
				break
			}
		}
		if matched || len(oldManifold.Points) == 0 {
			continue
		}
		best := oldManifold.Points[0]
		bestDist := np.LocalPoint.Sub(best.LocalPoint).LenSqr()
		for _, op := range oldManifold.Points[1:] {
			d := np.LocalPoint.Sub(op.LocalPoint).LenSqr()
			if d < bestDist {
				best = op
				bestDist = d
			}
		}
		np.NormalImpulse = best.NormalImpulse
		np.TangentImpulse = best.TangentImpulse
	}
}

// update recomputes the manifold from current shape/transform state,
// warm-starts the new points from the old manifold, and reports whether
// the touching state changed (used by ContactManager to fire begin/end
// listeners, §4.6/§6).
func (c *Contact) update(shapeA, shapeB *Shape, xfA, xfB Transform) (wasTouching, nowTouching bool) {
	wasTouching = c.touching

	oldManifold := c.manifold
	var newManifold Manifold
	if shapeA.sensor || shapeB.sensor {
		newManifold = CollideShapes(shapeA, xfA, shapeB, xfB)
		newManifold.Points = nil // sensors report overlap only, no impulse state
		nowTouching = touchingFromOverlap(shapeA, xfA, shapeB, xfB)
	} else {
		newManifold = CollideShapes(shapeA, xfA, shapeB, xfB)
		nowTouching = newManifold.Type != ManifoldUnset && len(newManifold.Points) > 0
		if nowTouching {
			matchWarmStart(oldManifold, newManifold)
		}
	}

	c.manifold = newManifold
	c.touching = nowTouching
	return wasTouching, nowTouching
}

// touchingFromOverlap is the sensor path: touching means "proxies
// overlap at all", independent of manifold point generation (sensors
// never get points/impulses).
func touchingFromOverlap(shapeA *Shape, xfA Transform, shapeB *Shape, xfB Transform) bool {
	m := CollideShapes(shapeA, xfA, shapeB, xfB)
	return m.Type != ManifoldUnset
}
