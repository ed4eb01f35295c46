package physics

import "math"

// BodyType controls how a body participates in integration and collision
// (§3): only Dynamic bodies are "accelerable" (integrate forces), and only
// Dynamic|Kinematic bodies are "speedable" (integrate velocity).
type BodyType int

const (
	BodyStatic BodyType = iota
	BodyKinematic
	BodyDynamic
)

func (t BodyType) Accelerable() bool {
	return t == BodyDynamic
}

func (t BodyType) Speedable() bool {
	return t == BodyDynamic || t == BodyKinematic
}

// BodyConf configures CreateBody.
type BodyConf struct {
	Type           BodyType
	Position       Vector
	Angle          float64
	LinearVelocity Vector
	AngularVelocity float64
	LinearDamping  float64
	AngularDamping float64
	GravityScale   float64
	FixedRotation  bool
	Impenetrable   bool // bullet: eligible for continuous collision detection
	AllowSleep     bool
	Awake          bool
	Enabled        bool
	UserData       any
}

// DefaultBodyConf returns a BodyConf for a static body at the origin with
// unit gravity scale and the Enabled, Awake and AllowSleep flags set
// (newBody keeps a static body asleep whatever Awake says).
func DefaultBodyConf() BodyConf {
	return BodyConf{
		Type:         BodyStatic,
		GravityScale: 1,
		AllowSleep:   true,
		Awake:        true,
		Enabled:      true,
	}
}

// Body is the kinematic+mass state for one rigid body (§3). All
// cross-references (shapes, contacts, joints) are by id; the Body itself
// owns no heap graph beyond its own small slices/sets.
type Body struct {
	id BodyID

	bodyType BodyType

	xf    Transform
	sweep Sweep
	vel   Velocity

	invMass float64
	invI    float64
	mass    float64
	i       float64 // rotational inertia about the center of mass

	linearDamping  float64
	angularDamping float64
	gravityScale   float64

	awake          bool
	enabled        bool
	allowSleep     bool
	fixedRotation  bool
	impenetrable   bool
	massDataDirty  bool
	islanded       bool
	newFixture     bool

	underActiveTime float64

	forceAccum  Vector
	torqueAccum float64

	shapeIDs []ShapeID

	// Incidence sets. A map keyed by the peer id is the idiomatic Go
	// translation of the intrusive linked lists the teacher (ported from a
	// language without generics/maps) threads through bodies; see
	// DESIGN.md.
	contacts map[ContactID]BodyID // contactID -> id of the *other* body
	joints   map[JointID]BodyID   // jointID -> id of the *other* body

	userData any
}

func newBody(id BodyID, conf BodyConf) *Body {
	b := &Body{
		id:             id,
		bodyType:       conf.Type,
		xf:             NewTransform(conf.Position, RotationFromAngle(conf.Angle)),
		sweep:          NewSweep(conf.Position, conf.Angle, VectorZero()),
		vel:            Velocity{Linear: conf.LinearVelocity, Angular: conf.AngularVelocity},
		linearDamping:  conf.LinearDamping,
		angularDamping: conf.AngularDamping,
		gravityScale:   conf.GravityScale,
		awake:          conf.Awake || conf.Type != BodyDynamic,
		enabled:        conf.Enabled,
		allowSleep:     conf.AllowSleep,
		fixedRotation:  conf.FixedRotation,
		impenetrable:   conf.Impenetrable,
		contacts:       make(map[ContactID]BodyID),
		joints:         make(map[JointID]BodyID),
		userData:       conf.UserData,
	}
	if conf.Type != BodyStatic {
		b.awake = conf.Awake
	} else {
		b.awake = false
	}
	b.resetMassData()
	return b
}

func (b *Body) ID() BodyID        { return b.id }
func (b *Body) Type() BodyType    { return b.bodyType }
func (b *Body) IsAwake() bool     { return b.awake }
func (b *Body) IsEnabled() bool   { return b.enabled }
func (b *Body) IsImpenetrable() bool { return b.impenetrable }
func (b *Body) AllowSleep() bool  { return b.allowSleep }
func (b *Body) Transform() Transform { return b.xf }
func (b *Body) Position() Vector  { return b.xf.P }
func (b *Body) Angle() float64    { return b.sweep.Pos1.Angle }
func (b *Body) Velocity() Velocity { return b.vel }
func (b *Body) InvMass() float64  { return b.invMass }
func (b *Body) InvI() float64     { return b.invI }
func (b *Body) Mass() float64     { return b.mass }
func (b *Body) LocalCenter() Vector { return b.sweep.LocalCenter }
func (b *Body) WorldCenter() Vector { return b.sweep.Pos1.Center }
func (b *Body) Sweep() Sweep      { return b.sweep }
func (b *Body) ShapeIDs() []ShapeID { return b.shapeIDs }
func (b *Body) UserData() any     { return b.userData }

// setType changes the body's type, applying the documented side effects: a
// body demoted to Static has its velocity cleared and wakes no one.
func (b *Body) setType(t BodyType) {
	if b.bodyType == t {
		return
	}
	b.bodyType = t
	b.resetMassData()
	if t == BodyStatic {
		b.vel = Velocity{}
		b.sweep.Pos0 = b.sweep.Pos1
		b.awake = false
	} else {
		b.awake = true
	}
}

func (b *Body) setEnabled(v bool) { b.enabled = v }

func (b *Body) setAwake(v bool) {
	if b.bodyType == BodyStatic {
		return
	}
	if v {
		b.awake = true
		b.underActiveTime = 0
	} else {
		b.awake = false
		b.underActiveTime = 0
		b.vel = Velocity{}
	}
}

func (b *Body) setTransform(p Vector, angle float64) {
	q := RotationFromAngle(angle)
	b.xf = Transform{P: p.Sub(Rotate(q, b.sweep.LocalCenter)), Q: q}
	center := b.xf.Apply(b.sweep.LocalCenter)
	b.sweep.Pos0 = Position{Center: center, Angle: angle}
	b.sweep.Pos1 = b.sweep.Pos0
	b.sweep.Alpha0 = 0
}

// synchronizeTransform recomputes xf from the sweep's current (pos1) pose;
// called after the solver updates sweep.Pos1.
func (b *Body) synchronizeTransform() {
	b.xf.Q = RotationFromAngle(b.sweep.Pos1.Angle)
	b.xf.P = b.sweep.Pos1.Center.Sub(Rotate(b.xf.Q, b.sweep.LocalCenter))
}

func (b *Body) applyLinearImpulse(impulse, point Vector, wake bool) {
	if b.bodyType != BodyDynamic {
		return
	}
	if wake && !b.awake {
		b.setAwake(true)
	}
	if !b.awake {
		return
	}
	b.vel.Linear = b.vel.Linear.Add(impulse.Mul(b.invMass))
	b.vel.Angular += b.invI * Cross(point.Sub(b.WorldCenter()), impulse)
}

func (b *Body) applyLinearImpulseToCenter(impulse Vector, wake bool) {
	if b.bodyType != BodyDynamic {
		return
	}
	if wake && !b.awake {
		b.setAwake(true)
	}
	if !b.awake {
		return
	}
	b.vel.Linear = b.vel.Linear.Add(impulse.Mul(b.invMass))
}

func (b *Body) applyAngularImpulse(impulse float64, wake bool) {
	if b.bodyType != BodyDynamic {
		return
	}
	if wake && !b.awake {
		b.setAwake(true)
	}
	if !b.awake {
		return
	}
	b.vel.Angular += b.invI * impulse
}

// applyForce accumulates a force (and the torque it produces about the
// center of mass) to be integrated at the next integrateVelocity call,
// then cleared (Box2D b2Body::ApplyForce).
func (b *Body) applyForce(force, point Vector, wake bool) {
	if b.bodyType != BodyDynamic {
		return
	}
	if wake && !b.awake {
		b.setAwake(true)
	}
	if !b.awake {
		return
	}
	b.forceAccum = b.forceAccum.Add(force)
	b.torqueAccum += Cross(point.Sub(b.WorldCenter()), force)
}

func (b *Body) applyForceToCenter(force Vector, wake bool) {
	if b.bodyType != BodyDynamic {
		return
	}
	if wake && !b.awake {
		b.setAwake(true)
	}
	if !b.awake {
		return
	}
	b.forceAccum = b.forceAccum.Add(force)
}

func (b *Body) applyTorque(torque float64, wake bool) {
	if b.bodyType != BodyDynamic {
		return
	}
	if wake && !b.awake {
		b.setAwake(true)
	}
	if !b.awake {
		return
	}
	b.torqueAccum += torque
}

// integrateVelocity applies accumulated forces/torques, gravity, and
// damping, then clears the force accumulator (§4.8 steps 4-5 happen in
// the solver; this is the Newton-Euler part of cp's velocity_func).
func (b *Body) integrateVelocity(gravity Vector, dt float64) {
	if b.bodyType != BodyDynamic {
		return
	}
	v := b.vel.Linear
	w := b.vel.Angular
	v = v.Add(gravity.Mul(b.gravityScale).Add(b.forceAccum.Mul(b.invMass)).Mul(dt))
	w += dt * b.invI * b.torqueAccum
	v = v.Mul(1 / (1 + dt*b.linearDamping))
	w *= 1 / (1 + dt*b.angularDamping)
	b.vel.Linear = v
	b.vel.Angular = w
	b.forceAccum = VectorZero()
	b.torqueAccum = 0
}

// integratePosition advances the sweep's pos1 by one step of the current
// velocity, clamped to maxTranslation/maxRotation (§4.8 step 7).
func (b *Body) integratePosition(dt, maxTranslation, maxRotation float64) {
	if !b.bodyType.Speedable() || !b.awake {
		return
	}
	translation := b.vel.Linear.Mul(dt)
	if translation.LenSqr() > maxTranslation*maxTranslation {
		ratio := maxTranslation / translation.Len()
		b.vel.Linear = b.vel.Linear.Mul(ratio)
	}
	rotation := b.vel.Angular * dt
	if rotation*rotation > maxRotation*maxRotation {
		ratio := maxRotation / math.Abs(rotation)
		b.vel.Angular *= ratio
	}
	b.sweep.Pos1.Center = b.sweep.Pos1.Center.Add(b.vel.Linear.Mul(dt))
	b.sweep.Pos1.Angle += b.vel.Angular * dt
}

// kineticEnergy is used by sleep bookkeeping.
func (b *Body) kineticEnergy() float64 {
	linear := b.vel.Linear.Dot(b.vel.Linear) * b.mass
	angular := b.vel.Angular * b.vel.Angular * b.i
	return 0.5 * (linear + angular)
}

func (b *Body) addShapeID(id ShapeID) {
	b.shapeIDs = append(b.shapeIDs, id)
	b.massDataDirty = true
	b.newFixture = true
}

func (b *Body) removeShapeID(id ShapeID) {
	for i, s := range b.shapeIDs {
		if s == id {
			b.shapeIDs = append(b.shapeIDs[:i], b.shapeIDs[i+1:]...)
			break
		}
	}
	b.massDataDirty = true
}

// resetMassData is a placeholder sized correctly for a point mass; World
// recomputes it from attached shapes via World.resetMassFromShapes whenever a
// shape is attached/detached, matching cp's "mass-data-dirty" flag flow.
func (b *Body) resetMassData() {
	if b.bodyType != BodyDynamic {
		b.invMass = 0
		b.invI = 0
		b.mass = 0
		b.i = 0
		return
	}
	if b.mass == 0 {
		b.mass = 1
	}
	b.invMass = 1 / b.mass
	if b.fixedRotation || b.i == 0 {
		b.invI = 0
	} else {
		b.invI = 1 / b.i
	}
}

// setMassData installs a computed mass/inertia/center of mass, adjusting
// sweep.LocalCenter and the world center consistently (Box2D/PlayRho
// Body::SetMassData idiom).
func (b *Body) setMassData(mass, i float64, localCenter Vector) {
	b.massDataDirty = false
	if b.bodyType != BodyDynamic {
		b.invMass = 0
		b.invI = 0
		b.mass = 0
		b.i = 0
		b.sweep.LocalCenter = VectorZero()
		b.synchronizeTransform()
		return
	}
	b.mass = mass
	if b.mass <= 0 {
		b.mass = 1
	}
	b.invMass = 1 / b.mass

	if i > 0 && !b.fixedRotation {
		b.i = i - b.mass*localCenter.Dot(localCenter)
		b.invI = 1 / b.i
	} else {
		b.i = 0
		b.invI = 0
	}

	oldCenter := b.sweep.Pos1.Center
	b.sweep.LocalCenter = localCenter
	b.sweep.Pos1.Center = b.xf.Apply(localCenter)
	b.sweep.Pos0.Center = b.sweep.Pos1.Center

	b.vel.Linear = b.vel.Linear.Add(CrossSV(b.vel.Angular, b.sweep.Pos1.Center.Sub(oldCenter)))
}
