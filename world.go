package physics

import "math"

// Tuning constants shared by the joint solvers and the regular/position
// solvers, matching Box2D's b2Settings defaults. These are compile-time
// constants rather than StepConf fields because the Joint solve hooks
// only ever receive a body-constraint map and a dt (§4.9); threading a
// full StepConf through every joint call for values that essentially
// never change per-world wasn't worth the signature churn.
const (
	linearSlop           = 0.005
	angularSlop          = 2.0 / 180.0 * math.Pi
	maxLinearCorrection  = 0.2
	maxAngularCorrection = 8.0 / 180.0 * math.Pi
)

// StepConf configures one call to World.Step (§6).
type StepConf struct {
	DeltaTime float64

	RegVelocityIterations int
	RegPositionIterations int
	ToiVelocityIterations int
	ToiPositionIterations int

	MaxSubSteps int

	LinearSleepTolerance  float64
	AngularSleepTolerance float64
	MinStillTimeToSleep   float64

	MaxTranslation float64
	MaxRotation    float64

	RegMinSeparation float64
	RegMinMomentum   float64
	ToiMinSeparation float64
	ToiMinMomentum   float64

	VelocityThreshold  float64 // restitution is applied only above this relative approach speed
	Baumgarte          float64 // regular-phase position-correction resolution rate
	ToiBaumgarte       float64 // TOI-phase position-correction resolution rate

	DoWarmStart bool
	DoToi       bool

	AabbExtension float64

	Toi ToiConf
}

// DefaultStepConf returns Box2D-standard tuning for a 1/60s step: 8
// velocity iterations, 3 position iterations for the regular solve, 8/4
// for the TOI sub-solve, sleeping enabled.
func DefaultStepConf() StepConf {
	return StepConf{
		DeltaTime:             1.0 / 60.0,
		RegVelocityIterations: 8,
		RegPositionIterations: 3,
		ToiVelocityIterations: 8,
		ToiPositionIterations: 4,
		MaxSubSteps:           8,
		LinearSleepTolerance:  0.01,
		AngularSleepTolerance: 2.0 / 180.0 * math.Pi,
		MinStillTimeToSleep:   0.5,
		MaxTranslation:        2.0,
		MaxRotation:           0.5 * math.Pi,
		RegMinSeparation:      -3 * linearSlop,
		RegMinMomentum:        0,
		ToiMinSeparation:      -1.5 * linearSlop,
		ToiMinMomentum:        0,
		VelocityThreshold:     1.0,
		Baumgarte:             0.2,
		ToiBaumgarte:          0.75,
		DoWarmStart:           true,
		DoToi:                 true,
		AabbExtension:         0.1,
		Toi:                   DefaultToiConf(),
	}
}

// WorldConf configures NewWorld.
type WorldConf struct {
	Gravity       Vector
	AabbExtension float64
}

func DefaultWorldConf() WorldConf {
	return WorldConf{Gravity: Vector{0, -10}, AabbExtension: 0.1}
}

// StepStats reports what one Step actually did (§6: "counts of islands,
// contacts processed, TOI events, solver iterations run").
type StepStats struct {
	StepCount int

	IslandCount int
	ContactCount int
	TouchingContactCount int
	JointCount int

	ToiEventCount int
	ToiSubSteps   int

	BodiesPutToSleep int
	BodiesWoken      int

	RegVelocityIterations int
	RegPositionIterations int
	ToiVelocityIterations int
	ToiPositionIterations int
}

func (a StepStats) add(b StepStats) StepStats {
	a.StepCount += b.StepCount
	a.IslandCount += b.IslandCount
	a.ContactCount += b.ContactCount
	a.TouchingContactCount += b.TouchingContactCount
	a.JointCount += b.JointCount
	a.ToiEventCount += b.ToiEventCount
	a.ToiSubSteps += b.ToiSubSteps
	a.BodiesPutToSleep += b.BodiesPutToSleep
	a.BodiesWoken += b.BodiesWoken
	a.RegVelocityIterations += b.RegVelocityIterations
	a.RegPositionIterations += b.RegPositionIterations
	a.ToiVelocityIterations += b.ToiVelocityIterations
	a.ToiPositionIterations += b.ToiPositionIterations
	return a
}

// World owns every body, shape, joint, and contact, and drives the full
// step pipeline (§4.10). It is the single entry point; everything else in
// this package is reached only through a World method or an id it handed
// out, mirroring the teacher's Space (space.go).
type World struct {
	conf WorldConf

	bodies *arena[Body]
	shapes *arena[Shape]
	joints *arena[Joint]

	contactManager *ContactManager
	shapeProxies   map[ShapeID]TreeProxyID

	stack *StackAllocator

	gravity Vector

	// locked counts re-entrant Step calls the way the teacher's
	// Space.locked does (space.go): mutation methods reject calls made
	// from inside a listener callback fired mid-Step.
	locked int

	destructionListener      DestructionListener
	shapeDestructionListener ShapeDestructionListener

	lastStats  StepStats
	totalStats StepStats
}

// NewWorld builds an empty World.
func NewWorld(conf WorldConf) *World {
	w := &World{
		conf:         conf,
		bodies:       newArena[Body](),
		shapes:       newArena[Shape](),
		joints:       newArena[Joint](),
		shapeProxies: make(map[ShapeID]TreeProxyID),
		stack:        NewStackAllocator(0),
		gravity:      conf.Gravity,
	}
	w.contactManager = newContactManager(w, conf.AabbExtension)
	return w
}

func (w *World) checkUnlocked() error {
	if w.locked > 0 {
		return wrongState("world is mid-step")
	}
	return nil
}

// SetGravity changes the gravity used by every future Step.
func (w *World) SetGravity(g Vector) { w.gravity = g }
func (w *World) Gravity() Vector     { return w.gravity }

func (w *World) SetBeginContactListener(f BeginContactListener)     { w.contactManager.beginContact = f }
func (w *World) SetEndContactListener(f EndContactListener)         { w.contactManager.endContact = f }
func (w *World) SetPreSolveContactListener(f PreSolveContactListener)   { w.contactManager.preSolve = f }
func (w *World) SetPostSolveContactListener(f PostSolveContactListener) { w.contactManager.postSolve = f }
func (w *World) SetDestructionListener(f DestructionListener)       { w.destructionListener = f }
func (w *World) SetShapeDestructionListener(f ShapeDestructionListener) { w.shapeDestructionListener = f }

func (w *World) BodyCount() int    { return w.bodies.count() }
func (w *World) ShapeCount() int   { return w.shapes.count() }
func (w *World) JointCount() int   { return w.joints.count() }
func (w *World) ContactCount() int { return w.contactManager.count() }

func (w *World) Stats() StepStats      { return w.lastStats }
func (w *World) TotalStats() StepStats { return w.totalStats }

func (w *World) getBody(id BodyID) (*Body, error)    { return w.bodies.at(id.idx) }
func (w *World) getShape(id ShapeID) (*Shape, error) { return w.shapes.at(id.idx) }
func (w *World) getJoint(id JointID) (*Joint, error) { return w.joints.at(id.idx) }

func (w *World) shapeProxy(id ShapeID) (TreeProxyID, bool) {
	p, ok := w.shapeProxies[id]
	return p, ok
}

// shouldCollideConnected reports whether a and b are allowed to generate
// a contact: false only if some joint directly links them with
// CollideConnected set to false (§4.6).
func (w *World) shouldCollideConnected(a, b BodyID) bool {
	bodyA, err := w.getBody(a)
	if err != nil {
		return true
	}
	for jointID, other := range bodyA.joints {
		if other != b {
			continue
		}
		j, err := w.getJoint(jointID)
		if err != nil {
			continue
		}
		if !j.collideConnected {
			return false
		}
	}
	return true
}

// CreateBody allocates a new body; it carries no shapes until Attach is
// called.
func (w *World) CreateBody(conf BodyConf) (BodyID, error) {
	if err := w.checkUnlocked(); err != nil {
		return invalidBodyID, err
	}
	idx := w.bodies.allocate(Body{})
	id := BodyID{idx: idx}
	b := w.bodies.mustAt(idx)
	*b = *newBody(id, conf)
	return id, nil
}

// DestroyBody removes a body along with every shape/contact/joint
// attached to it.
func (w *World) DestroyBody(id BodyID) error {
	if err := w.checkUnlocked(); err != nil {
		return err
	}
	b, err := w.getBody(id)
	if err != nil {
		return err
	}

	for jointID := range b.joints {
		if w.destructionListener != nil {
			w.destructionListener(jointID)
		}
		_ = w.destroyJointInternal(jointID)
	}

	for _, shapeID := range append([]ShapeID(nil), b.shapeIDs...) {
		if w.shapeDestructionListener != nil {
			w.shapeDestructionListener(shapeID)
		}
		_ = w.detachInternal(id, shapeID)
		w.shapes.freeID(shapeID.idx)
	}

	w.bodies.freeID(id.idx)
	return nil
}

// CreateShape allocates a shape not yet attached to any body.
func (w *World) CreateShape(shape *Shape) (ShapeID, error) {
	if err := w.checkUnlocked(); err != nil {
		return invalidShapeID, err
	}
	idx := w.shapes.allocate(*shape)
	id := ShapeID{idx: idx}
	s := w.shapes.mustAt(idx)
	s.id = id
	return id, nil
}

// DestroyShape detaches (if attached) and frees a shape.
func (w *World) DestroyShape(id ShapeID) error {
	if err := w.checkUnlocked(); err != nil {
		return err
	}
	s, err := w.getShape(id)
	if err != nil {
		return err
	}
	if s.body.Valid() {
		if err := w.detachInternal(s.body, id); err != nil {
			return err
		}
	}
	w.shapes.freeID(id.idx)
	return nil
}

// Attach binds a shape to a body, creates its broad-phase proxy, and
// recomputes the body's mass from its (now one more) attached shapes.
func (w *World) Attach(bodyID BodyID, shapeID ShapeID) error {
	if err := w.checkUnlocked(); err != nil {
		return err
	}
	b, err := w.getBody(bodyID)
	if err != nil {
		return err
	}
	s, err := w.getShape(shapeID)
	if err != nil {
		return err
	}
	if s.body.Valid() {
		return wrongState("shape %v already attached", shapeID)
	}

	s.body = bodyID
	b.addShapeID(shapeID)

	aabb := s.ComputeAABB(b.xf, 0)
	proxy := w.contactManager.addProxy(aabb, TreeLeafData{Body: bodyID, Shape: shapeID, ChildIndex: 0})
	w.shapeProxies[shapeID] = proxy

	w.resetMassFromShapes(b)
	return nil
}

// Detach unbinds a shape from its body, destroying its proxy and every
// contact involving it.
func (w *World) Detach(bodyID BodyID, shapeID ShapeID) error {
	if err := w.checkUnlocked(); err != nil {
		return err
	}
	return w.detachInternal(bodyID, shapeID)
}

func (w *World) detachInternal(bodyID BodyID, shapeID ShapeID) error {
	b, err := w.getBody(bodyID)
	if err != nil {
		return err
	}
	s, err := w.getShape(shapeID)
	if err != nil {
		return err
	}

	w.contactManager.destroyAllFor(shapeID)
	if proxy, ok := w.shapeProxies[shapeID]; ok {
		w.contactManager.removeProxy(proxy)
		delete(w.shapeProxies, shapeID)
	}
	b.removeShapeID(shapeID)
	s.body = invalidBodyID

	w.resetMassFromShapes(b)
	return nil
}

// resetMassFromShapes recomputes mass/center/inertia from every shape
// currently attached to b (Box2D b2Body::ResetMassData).
func (w *World) resetMassFromShapes(b *Body) {
	if b.bodyType != BodyDynamic {
		b.resetMassData()
		return
	}
	if len(b.shapeIDs) == 0 {
		b.setMassData(0, 0, VectorZero())
		return
	}

	totalMass := 0.0
	center := VectorZero()
	i := 0.0
	for _, shapeID := range b.shapeIDs {
		s, err := w.getShape(shapeID)
		if err != nil || s.density == 0 {
			continue
		}
		md := s.ComputeMass()
		totalMass += md.Mass
		center = center.Add(md.Center.Mul(md.Mass))
		i += md.I
	}
	if totalMass > 0 {
		center = center.Mul(1 / totalMass)
	} else {
		totalMass = 1
	}
	b.setMassData(totalMass, i, center)
}

// CreateJoint allocates a joint connecting two bodies.
func (w *World) CreateJoint(conf JointConf) (JointID, error) {
	if err := w.checkUnlocked(); err != nil {
		return invalidJointID, err
	}
	if !conf.BodyA.Valid() || !conf.BodyB.Valid() {
		return invalidJointID, invalidArgument("joint requires two valid bodies")
	}
	bodyA, err := w.getBody(conf.BodyA)
	if err != nil {
		return invalidJointID, err
	}
	bodyB, err := w.getBody(conf.BodyB)
	if err != nil {
		return invalidJointID, err
	}

	idx := w.joints.allocate(Joint{})
	id := JointID{idx: idx}
	j := w.joints.mustAt(idx)
	*j = *newJoint(id, conf)

	bodyA.joints[id] = conf.BodyB
	bodyB.joints[id] = conf.BodyA
	return id, nil
}

// DestroyJoint removes a joint.
func (w *World) DestroyJoint(id JointID) error {
	if err := w.checkUnlocked(); err != nil {
		return err
	}
	return w.destroyJointInternal(id)
}

func (w *World) destroyJointInternal(id JointID) error {
	j, err := w.getJoint(id)
	if err != nil {
		return err
	}
	if bodyA, err := w.getBody(j.bodyA); err == nil {
		delete(bodyA.joints, id)
	}
	if bodyB, err := w.getBody(j.bodyB); err == nil {
		delete(bodyB.joints, id)
	}
	w.joints.freeID(id.idx)
	return nil
}

// SetTransform teleports a body, invalidating its sweep history (no
// interpolation across the jump).
func (w *World) SetTransform(bodyID BodyID, pos Vector, angle float64) error {
	b, err := w.getBody(bodyID)
	if err != nil {
		return err
	}
	b.setTransform(pos, angle)
	w.synchronizeBody(b, VectorZero())
	return nil
}

func (w *World) SetType(bodyID BodyID, t BodyType) error {
	b, err := w.getBody(bodyID)
	if err != nil {
		return err
	}
	b.setType(t)
	return nil
}

func (w *World) SetEnabled(bodyID BodyID, v bool) error {
	b, err := w.getBody(bodyID)
	if err != nil {
		return err
	}
	b.setEnabled(v)
	return nil
}

func (w *World) SetAwake(bodyID BodyID, v bool) error {
	b, err := w.getBody(bodyID)
	if err != nil {
		return err
	}
	b.setAwake(v)
	return nil
}

func (w *World) ApplyForce(bodyID BodyID, force, point Vector, wake bool) error {
	b, err := w.getBody(bodyID)
	if err != nil {
		return err
	}
	b.applyForce(force, point, wake)
	return nil
}

func (w *World) ApplyForceToCenter(bodyID BodyID, force Vector, wake bool) error {
	b, err := w.getBody(bodyID)
	if err != nil {
		return err
	}
	b.applyForceToCenter(force, wake)
	return nil
}

func (w *World) ApplyTorque(bodyID BodyID, torque float64, wake bool) error {
	b, err := w.getBody(bodyID)
	if err != nil {
		return err
	}
	b.applyTorque(torque, wake)
	return nil
}

func (w *World) ApplyLinearImpulse(bodyID BodyID, impulse, point Vector, wake bool) error {
	b, err := w.getBody(bodyID)
	if err != nil {
		return err
	}
	b.applyLinearImpulse(impulse, point, wake)
	return nil
}

func (w *World) ApplyLinearImpulseToCenter(bodyID BodyID, impulse Vector, wake bool) error {
	b, err := w.getBody(bodyID)
	if err != nil {
		return err
	}
	b.applyLinearImpulseToCenter(impulse, wake)
	return nil
}

func (w *World) ApplyAngularImpulse(bodyID BodyID, impulse float64, wake bool) error {
	b, err := w.getBody(bodyID)
	if err != nil {
		return err
	}
	b.applyAngularImpulse(impulse, wake)
	return nil
}

// synchronizeBody pushes b's current shapes' AABBs into the broad phase,
// fattened by displacement (the distance the body moved this step, used
// to bias the fattened box toward where the shape is headed, §4.2).
func (w *World) synchronizeBody(b *Body, displacement Vector) {
	for _, shapeID := range b.shapeIDs {
		s, err := w.getShape(shapeID)
		if err != nil {
			continue
		}
		proxy, ok := w.shapeProxies[shapeID]
		if !ok {
			continue
		}
		aabb := s.ComputeAABB(b.xf, 0)
		w.contactManager.touchProxy(proxy, aabb, displacement)
	}
}

// Step advances the simulation by conf.DeltaTime (§4.10): find new
// contacts, update manifolds, build islands, run the regular solver per
// island (which also updates sleep state), re-synchronize the moved
// bodies' proxies, then (if enabled) run the TOI sub-stepping pass.
func (w *World) Step(conf StepConf) (StepStats, error) {
	if err := w.checkUnlocked(); err != nil {
		return StepStats{}, err
	}

	dt := conf.DeltaTime
	stats := StepStats{StepCount: 1}

	w.locked++

	w.contactManager.FindNewContacts()
	w.contactManager.Collide()

	resetIslandFlags(w)
	islands := BuildIslands(w)
	stats.IslandCount = len(islands)

	w.contactManager.each(func(c *Contact) {
		stats.ContactCount++
		if c.touching {
			stats.TouchingContactCount++
		}
	})
	stats.JointCount = w.joints.count()

	if dt > 0 {
		for _, island := range islands {
			islandStats := solveRegularIsland(w, island, conf, dt)
			stats.RegVelocityIterations += islandStats.RegVelocityIterations
			stats.RegPositionIterations += islandStats.RegPositionIterations
			stats.BodiesPutToSleep += islandStats.BodiesPutToSleep
		}

		for _, body := range w.liveBodies() {
			if body.bodyType.Speedable() && body.awake {
				w.synchronizeBody(body, body.vel.Linear.Mul(dt))
			}
		}

		if conf.DoToi {
			toiStats := solveToiPass(w, conf, dt)
			stats.ToiEventCount = toiStats.ToiEventCount
			stats.ToiSubSteps = toiStats.ToiSubSteps
			stats.ToiVelocityIterations = toiStats.ToiVelocityIterations
			stats.ToiPositionIterations = toiStats.ToiPositionIterations
		}
	}

	w.locked--

	w.stack.Reset()

	w.lastStats = stats
	w.totalStats = w.totalStats.add(stats)
	return stats, nil
}

func (w *World) liveBodies() []*Body {
	out := make([]*Body, 0, w.bodies.count())
	w.bodies.each(func(_ uint32, b *Body) { out = append(out, b) })
	return out
}

// RayCast reports every shape whose proxy the segment in input crosses,
// via callback, in the broad phase's traversal order, which is not sorted
// by distance (DynamicTree.RayCast walks the tree depth-first and clips
// the segment to each fraction the callback returns).
func (w *World) RayCast(input RayCastInput, callback func(ShapeID, Vector, Vector, float64) bool) {
	w.contactManager.tree.RayCast(input, func(proxy TreeProxyID, subInput RayCastInput) float64 {
		data := w.contactManager.tree.GetLeafData(proxy)
		s, err := w.getShape(data.Shape)
		if err != nil {
			return subInput.MaxFraction
		}
		b, err := w.getBody(data.Body)
		if err != nil {
			return subInput.MaxFraction
		}
		proxyGeom := s.Proxy(data.ChildIndex)
		localInput := RayCastInput{
			P1:          b.xf.ApplyInverse(subInput.P1),
			P2:          b.xf.ApplyInverse(subInput.P2),
			MaxFraction: subInput.MaxFraction,
		}
		hit := rayCastProxy(proxyGeom, localInput)
		if !hit.Hit {
			return subInput.MaxFraction
		}
		worldPoint := b.xf.Apply(localInput.P1.Add(localInput.P2.Sub(localInput.P1).Mul(hit.Fraction)))
		worldNormal := b.xf.ApplyVector(hit.Normal)
		if callback(data.Shape, worldPoint, worldNormal, hit.Fraction) {
			return hit.Fraction
		}
		return 0
	})
}

// rayCastProxy performs a slab-test raycast against a proxy's AABB as a
// conservative stand-in for exact per-shape raycasting (the exact
// circle/polygon raycast routines are part of the out-of-scope primitive
// library, §1; this core only needs a broad-phase-consistent hit test for
// World.RayCast to be usable end-to-end).
func rayCastProxy(proxy DistanceProxy, input RayCastInput) RayCastOutput {
	lower := proxy.Vertices[0]
	upper := lower
	for _, v := range proxy.Vertices[1:] {
		lower = MinVector(lower, v)
		upper = MaxVector(upper, v)
	}
	r := proxy.Radius
	aabb := AABB{Lower: lower.Sub(Vector{r, r}), Upper: upper.Add(Vector{r, r})}
	return aabb.RayCast(input)
}

// Query reports every shape whose fattened broad-phase proxy overlaps
// aabb.
func (w *World) Query(aabb AABB, callback func(ShapeID) bool) {
	w.contactManager.tree.Query(aabb, func(proxy TreeProxyID) bool {
		data := w.contactManager.tree.GetLeafData(proxy)
		return callback(data.Shape)
	})
}

// ShiftOrigin translates every body and the broad-phase tree by -delta,
// used by callers recentering the simulation to avoid float precision
// loss far from the origin (Box2D b2World::ShiftOrigin).
func (w *World) ShiftOrigin(delta Vector) error {
	if err := w.checkUnlocked(); err != nil {
		return err
	}
	w.bodies.each(func(_ uint32, b *Body) {
		b.xf.P = b.xf.P.Sub(delta)
		b.sweep.Pos0.Center = b.sweep.Pos0.Center.Sub(delta)
		b.sweep.Pos1.Center = b.sweep.Pos1.Center.Sub(delta)
	})
	for _, shapeID := range w.allShapeIDs() {
		if proxy, ok := w.shapeProxies[shapeID]; ok {
			aabb := w.contactManager.tree.GetFatAABB(proxy)
			w.contactManager.tree.UpdateLeaf(proxy, AABB{Lower: aabb.Lower.Sub(delta), Upper: aabb.Upper.Sub(delta)}, VectorZero())
		}
	}
	return nil
}

func (w *World) allShapeIDs() []ShapeID {
	var out []ShapeID
	w.shapes.each(func(_ uint32, s *Shape) { out = append(out, s.id) })
	return out
}
