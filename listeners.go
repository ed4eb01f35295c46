package physics

// Listener function types mirror the hook names the teacher's collision
// handlers use (BeginFunc/PreSolveFunc/PostSolveFunc/SeparateFunc), kept
// as plain function values rather than an interface since World only ever
// needs one of each at a time (§6, §9).
type BeginContactListener func(c *Contact)
type EndContactListener func(c *Contact)
type PreSolveContactListener func(c *Contact, oldManifold Manifold)
type PostSolveContactListener func(c *Contact, impulse *ContactImpulse)

// DestructionListener is notified before a joint is implicitly destroyed
// because one of the bodies it connects was destroyed (§6).
type DestructionListener func(j JointID)

// ShapeDestructionListener is notified before a shape is implicitly
// destroyed because the body it's attached to was destroyed (§6). Shapes
// destroyed directly through DestroyShape don't fire it, the same way
// Box2D's b2DestructionListener::SayGoodbye(b2Fixture*) only runs for
// fixtures swept away by b2World::DestroyBody.
type ShapeDestructionListener func(s ShapeID)

// ContactImpulse reports the impulses the solver actually applied for one
// contact's points, handed to PostSolveContactListener for effects like
// damage-from-impact (Box2D b2ContactImpulse).
type ContactImpulse struct {
	NormalImpulses  []float64
	TangentImpulses []float64
}
