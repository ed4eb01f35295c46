package physics

// shapePair is a candidate contact surfaced by the broad phase, before
// any shape-filter or listener rejection.
type shapePair struct {
	proxyA, proxyB TreeProxyID
}

// ContactManager owns the broad-phase tree and the live Contact set, and
// drives the find-new/update/destroy lifecycle each step (§4.6). It holds
// a back-reference to the owning World to resolve body/shape ids, the way
// Box2D's b2ContactManager is embedded in and driven by b2World.
type ContactManager struct {
	world *World

	tree       *DynamicTree
	moveBuffer []TreeProxyID

	contacts   map[ContactKey]ContactID
	arena      *arena[Contact]

	beginContact BeginContactListener
	endContact   EndContactListener
	preSolve     PreSolveContactListener
	postSolve    PostSolveContactListener
}

func newContactManager(world *World, aabbExtension float64) *ContactManager {
	return &ContactManager{
		world:    world,
		tree:     NewDynamicTree(aabbExtension),
		contacts: make(map[ContactKey]ContactID),
		arena:    newArena[Contact](),
	}
}

// addProxy creates a broad-phase leaf for one shape child and enqueues it
// so the next FindNewContacts pass considers pairs touching it.
func (cm *ContactManager) addProxy(aabb AABB, data TreeLeafData) TreeProxyID {
	id := cm.tree.CreateLeaf(aabb, data)
	cm.moveBuffer = append(cm.moveBuffer, id)
	return id
}

func (cm *ContactManager) removeProxy(id TreeProxyID) {
	cm.unbufferMove(id)
	_ = cm.tree.DestroyLeaf(id)
}

func (cm *ContactManager) unbufferMove(id TreeProxyID) {
	for i, m := range cm.moveBuffer {
		if m == id {
			cm.moveBuffer = append(cm.moveBuffer[:i], cm.moveBuffer[i+1:]...)
			return
		}
	}
}

// touchProxy updates a leaf's fattened AABB and, if it was actually
// reinserted, enqueues it for pair discovery.
func (cm *ContactManager) touchProxy(id TreeProxyID, aabb AABB, displacement Vector) {
	moved, err := cm.tree.UpdateLeaf(id, aabb, displacement)
	if err != nil {
		return
	}
	if moved {
		cm.moveBuffer = append(cm.moveBuffer, id)
	}
}

// FindNewContacts queries the tree around every proxy touched since the
// last call, creating a Contact for any newly-overlapping shape pair that
// passes the filter (§4.6).
func (cm *ContactManager) FindNewContacts() {
	for _, proxyID := range cm.moveBuffer {
		if !cm.tree.isLive(proxyID) {
			continue
		}
		fatAABB := cm.tree.GetFatAABB(proxyID)
		data := cm.tree.GetLeafData(proxyID)

		cm.tree.Query(fatAABB, func(other TreeProxyID) bool {
			if other == proxyID {
				return true
			}
			otherData := cm.tree.GetLeafData(other)
			cm.maybeCreateContact(data, proxyID, otherData, other)
			return true
		})
	}
	cm.moveBuffer = cm.moveBuffer[:0]
}

func (cm *ContactManager) maybeCreateContact(dataA TreeLeafData, proxyA TreeProxyID, dataB TreeLeafData, proxyB TreeProxyID) {
	if dataA.Body == dataB.Body {
		return
	}
	key := makeContactKey(dataA.Shape, dataB.Shape)
	if _, exists := cm.contacts[key]; exists {
		return
	}

	shapeA, err := cm.world.getShape(dataA.Shape)
	if err != nil {
		return
	}
	shapeB, err := cm.world.getShape(dataB.Shape)
	if err != nil {
		return
	}

	bodyA, err := cm.world.getBody(dataA.Body)
	if err != nil {
		return
	}
	bodyB, err := cm.world.getBody(dataB.Body)
	if err != nil {
		return
	}
	if !bodyA.bodyType.Accelerable() && !bodyB.bodyType.Accelerable() {
		return
	}
	if !shapeA.filter.ShouldCollide(shapeB.filter) {
		return
	}
	if !cm.world.shouldCollideConnected(dataA.Body, dataB.Body) {
		return
	}

	orderedA, orderedB := shapeA, shapeB
	orderedBodyA, orderedBodyB := dataA.Body, dataB.Body
	if key.ShapeA != shapeA.id {
		orderedA, orderedB = shapeB, shapeA
		orderedBodyA, orderedBodyB = dataB.Body, dataA.Body
	}

	id := ContactID{}
	idx := cm.arena.allocate(Contact{})
	id.idx = idx
	c := cm.arena.mustAt(idx)
	*c = *newContact(id, orderedA, orderedB, orderedBodyA, orderedBodyB)
	cm.contacts[key] = id

	orderedBodyA_, _ := cm.world.getBody(orderedBodyA)
	orderedBodyB_, _ := cm.world.getBody(orderedBodyB)
	orderedBodyA_.contacts[id] = orderedBodyB
	orderedBodyB_.contacts[id] = orderedBodyA
}

// Collide updates every live contact's manifold, destroying pairs whose
// fattened AABBs no longer overlap and firing begin/end listeners for
// touching-state transitions (§4.6, §4.10 step 2).
func (cm *ContactManager) Collide() {
	var toDestroy []ContactID

	for key, id := range cm.contacts {
		c := cm.arena.mustAt(id.idx)

		shapeA, errA := cm.world.getShape(c.shapeA)
		shapeB, errB := cm.world.getShape(c.shapeB)
		if errA != nil || errB != nil {
			toDestroy = append(toDestroy, id)
			continue
		}
		bodyA, _ := cm.world.getBody(c.bodyA)
		bodyB, _ := cm.world.getBody(c.bodyB)

		if !shapeA.filter.ShouldCollide(shapeB.filter) {
			toDestroy = append(toDestroy, id)
			continue
		}
		if !cm.world.shouldCollideConnected(c.bodyA, c.bodyB) {
			toDestroy = append(toDestroy, id)
			continue
		}

		activeA := bodyA.bodyType.Accelerable() && bodyA.awake
		activeB := bodyB.bodyType.Accelerable() && bodyB.awake
		if !activeA && !activeB {
			continue
		}

		proxyA, okA := cm.world.shapeProxy(c.shapeA)
		proxyB, okB := cm.world.shapeProxy(c.shapeB)
		if okA && okB {
			fatA := cm.tree.GetFatAABB(proxyA)
			fatB := cm.tree.GetFatAABB(proxyB)
			if !fatA.Intersects(fatB) {
				toDestroy = append(toDestroy, id)
				continue
			}
		}

		if cm.preSolve != nil && !c.enabled {
			continue
		}

		wasTouching, nowTouching := c.update(shapeA, shapeB, bodyA.xf, bodyB.xf)

		if nowTouching && cm.preSolve != nil {
			cm.preSolve(c, c.manifold)
		}

		if !wasTouching && nowTouching && cm.beginContact != nil {
			cm.beginContact(c)
		}
		if wasTouching && !nowTouching && cm.endContact != nil {
			cm.endContact(c)
		}

		_ = key
	}

	for _, id := range toDestroy {
		cm.destroy(id)
	}
}

func (cm *ContactManager) destroy(id ContactID) {
	c, err := cm.arena.at(id.idx)
	if err != nil {
		return
	}
	if c.touching && cm.endContact != nil {
		cm.endContact(c)
	}

	key := makeContactKey(c.shapeA, c.shapeB)
	delete(cm.contacts, key)

	if bodyA, err := cm.world.getBody(c.bodyA); err == nil {
		delete(bodyA.contacts, id)
	}
	if bodyB, err := cm.world.getBody(c.bodyB); err == nil {
		delete(bodyB.contacts, id)
	}

	cm.arena.freeID(id.idx)
}

// destroyAllFor removes every contact touching the given shape, used
// when a shape or body is destroyed.
func (cm *ContactManager) destroyAllFor(shapeID ShapeID) {
	var ids []ContactID
	for key, id := range cm.contacts {
		if key.ShapeA == shapeID || key.ShapeB == shapeID {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		cm.destroy(id)
	}
}

func (cm *ContactManager) get(id ContactID) (*Contact, error) {
	return cm.arena.at(id.idx)
}

func (cm *ContactManager) each(f func(*Contact)) {
	cm.arena.each(func(_ uint32, c *Contact) { f(c) })
}

func (cm *ContactManager) count() int {
	return cm.arena.count()
}

// isLive reports whether a tree proxy id still refers to a live leaf.
func (t *DynamicTree) isLive(id TreeProxyID) bool {
	idx := int32(id)
	return idx >= 0 && int(idx) < len(t.nodes) && t.nodes[idx].height >= 0
}
