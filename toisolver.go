package physics

import "math"

// maxToiContacts bounds how many contacts a single TOI island pulls in,
// mirroring Box2D's b2_maxTOIContacts safety valve against runaway islands
// built from densely packed bullets.
const maxToiContacts = 32

// ToiSolveStats reports what the TOI sub-stepping pass did this Step
// (§4.9), folded into StepStats by World.Step.
type ToiSolveStats struct {
	ToiEventCount         int
	ToiSubSteps           int
	ToiVelocityIterations int
	ToiPositionIterations int
}

// toiEligible reports whether a contact needs continuous-collision
// treatment at all: at least one side must be either non-dynamic (a wall
// the other body could tunnel through) or an impenetrable ("bullet")
// dynamic body (Box2D b2World::Solve's e_toiFlag gate).
func toiEligible(bodyA, bodyB *Body) bool {
	collideA := bodyA.impenetrable || bodyA.bodyType != BodyDynamic
	collideB := bodyB.impenetrable || bodyB.bodyType != BodyDynamic
	return collideA || collideB
}

// solveToiPass runs the conservative-advancement sub-stepping loop for
// one Step (§4.9): repeatedly find the contact with the soonest time of
// impact among awake, enabled, non-sensor contacts eligible for CCD,
// advance its two bodies' sweeps to that time, re-validate touching at
// the new pose, and - if still touching - solve a small island seeded
// from that contact before moving on to the next soonest event.
func solveToiPass(w *World, conf StepConf, dt float64) ToiSolveStats {
	var stats ToiSolveStats

	for sub := 0; sub < conf.MaxSubSteps; sub++ {
		minAlpha := 1.0
		var minContact *Contact

		w.contactManager.each(func(c *Contact) {
			if !c.enabled || c.toiCount > conf.MaxSubSteps {
				return
			}
			shapeA, errA := w.getShape(c.shapeA)
			shapeB, errB := w.getShape(c.shapeB)
			if errA != nil || errB != nil || shapeA.sensor || shapeB.sensor {
				return
			}
			bodyA, errA := w.getBody(c.bodyA)
			bodyB, errB := w.getBody(c.bodyB)
			if errA != nil || errB != nil {
				return
			}
			activeA := bodyA.awake && bodyA.bodyType != BodyStatic
			activeB := bodyB.awake && bodyB.bodyType != BodyStatic
			if !activeA && !activeB {
				return
			}
			if !toiEligible(bodyA, bodyB) {
				return
			}

			if !c.hasToi {
				c.toi = computeContactToi(shapeA, bodyA, shapeB, bodyB, conf.Toi)
				c.hasToi = true
			}

			if c.toi < minAlpha {
				minAlpha = c.toi
				minContact = c
			}
		})

		if minContact == nil || minAlpha >= 1-1e-9 {
			break
		}

		bodyA, errA := w.getBody(minContact.bodyA)
		bodyB, errB := w.getBody(minContact.bodyB)
		if errA != nil || errB != nil {
			minContact.hasToi = false
			minContact.toiCount++
			continue
		}

		backupA, backupB := bodyA.sweep, bodyB.sweep

		island := buildToiIsland(w, minContact.bodyA, minContact.bodyB, minAlpha)

		shapeA, _ := w.getShape(minContact.shapeA)
		shapeB, _ := w.getShape(minContact.shapeB)
		xfA := bodyA.sweep.GetTransform(minAlpha)
		xfB := bodyB.sweep.GetTransform(minAlpha)
		_, nowTouching := minContact.update(shapeA, shapeB, xfA, xfB)
		minContact.toiCount++

		if !nowTouching {
			// False positive: restore both bodies' sweeps to their
			// pre-advance state and skip the event entirely (§4.9 Open
			// Question; WorldImpl.cpp's bA.Restore(backupA)/bB.Restore(backupB)).
			bodyA.sweep = backupA
			bodyB.sweep = backupB
			bodyA.synchronizeTransform()
			bodyB.synchronizeTransform()
			minContact.hasToi = false
			continue
		}

		subDt := (1 - minAlpha) * dt
		islandStats := solveToiIsland(w, island, conf, subDt)
		stats.ToiVelocityIterations += islandStats.velocityIterations
		stats.ToiPositionIterations += islandStats.positionIterations
		stats.ToiEventCount++
		stats.ToiSubSteps++

		for _, bodyID := range island.Bodies {
			b, err := w.getBody(bodyID)
			if err != nil {
				continue
			}
			w.synchronizeBody(b, VectorZero())
			for contactID := range b.contacts {
				if c, err := w.contactManager.get(contactID); err == nil {
					c.hasToi = false
				}
			}
		}

		w.contactManager.FindNewContacts()
	}

	return stats
}

// computeContactToi runs GetToi between a contact's two shapes, returning
// the reported time for Touching, 0 for Overlapped, and 1 (no CCD event)
// for every other state, including Failed and the exhaustion states.
func computeContactToi(shapeA *Shape, bodyA *Body, shapeB *Shape, bodyB *Body, conf ToiConf) float64 {
	sweepA, sweepB := bodyA.sweep, bodyB.sweep
	if bodyA.bodyType != BodyDynamic {
		sweepA.Alpha0 = 0
	}
	if bodyB.bodyType != BodyDynamic {
		sweepB.Alpha0 = 0
	}

	out := GetToi(shapeA.Proxy(0), sweepA, shapeB.Proxy(0), sweepB, conf)
	switch out.State {
	case ToiStateTouching:
		return out.Time
	case ToiStateOverlapped:
		return 0
	default:
		return 1
	}
}

// buildToiIsland seeds a small island from a TOI event's two bodies,
// advancing each dynamic body's sweep to alpha as it's added, then grows
// the island through already-touching contacts the same way BuildIslands
// does, up to maxToiContacts (§4.9).
func buildToiIsland(w *World, seedA, seedB BodyID, alpha float64) *Island {
	island := &Island{}
	visited := make(map[BodyID]bool)
	var stack []BodyID

	addBody := func(id BodyID) {
		if visited[id] {
			return
		}
		visited[id] = true
		b, err := w.getBody(id)
		if err != nil {
			return
		}
		if b.bodyType == BodyDynamic && b.sweep.Alpha0 < alpha {
			// Advance the sweep only - the body's xf must keep reflecting
			// its current pose until the solver writes a new one back;
			// callers that need the TOI-time pose use sweep.GetTransform.
			b.sweep.Advance(alpha)
		}
		island.Bodies = append(island.Bodies, id)
		if b.bodyType == BodyDynamic {
			stack = append(stack, id)
		}
	}

	addBody(seedA)
	addBody(seedB)

	for len(stack) > 0 && len(island.Contacts) < maxToiContacts {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		body, err := w.getBody(id)
		if err != nil {
			continue
		}
		for contactID, otherID := range body.contacts {
			if len(island.Contacts) >= maxToiContacts {
				break
			}
			c, err := w.contactManager.get(contactID)
			if err != nil || !c.touching || !c.enabled {
				continue
			}
			shapeA, errA := w.getShape(c.shapeA)
			shapeB, errB := w.getShape(c.shapeB)
			if errA != nil || errB != nil || shapeA.sensor || shapeB.sensor {
				continue
			}
			already := false
			for _, cid := range island.Contacts {
				if cid == contactID {
					already = true
					break
				}
			}
			if already {
				continue
			}
			island.Contacts = append(island.Contacts, contactID)
			addBody(otherID)
		}
	}

	return island
}

type toiIslandStats struct {
	velocityIterations int
	positionIterations int
}

// solveToiIsland solves one TOI sub-step's island: contacts only (no
// joints - Box2D's TOI solve skips joints entirely), position-correct
// first with the tighter TOI separation/Baumgarte tuning, then run
// velocity iterations, then integrate every island body forward by
// subDt (§4.9 steps 4-8).
func solveToiIsland(w *World, island *Island, conf StepConf, subDt float64) toiIslandStats {
	var stats toiIslandStats

	bcs, bcIndex := newBodyConstraints(w, island.Bodies)
	if len(bcs) == 0 {
		return stats
	}

	velocityConstraints := buildContactVelocityConstraints(w, island.Contacts, bcIndex, conf, w.stack)
	positionConstraints := buildContactPositionConstraints(w, island.Contacts, bcIndex, w.stack)
	defer stackFreeSlice(w.stack, velocityConstraints)
	defer stackFreeSlice(w.stack, positionConstraints)

	for i := range velocityConstraints {
		initVelocityConstraint(&velocityConstraints[i], conf)
	}

	posIters := conf.ToiPositionIterations
	for iter := 0; iter < posIters; iter++ {
		ok := true
		for i := range positionConstraints {
			if !solveContactPosition(&positionConstraints[i], bcIndex, conf.ToiMinSeparation, conf.ToiBaumgarte) {
				ok = false
			}
		}
		stats.positionIterations = iter + 1
		if ok {
			break
		}
	}

	velIters := conf.ToiVelocityIterations
	for iter := 0; iter < velIters; iter++ {
		for i := range velocityConstraints {
			solveVelocityConstraint(&velocityConstraints[i])
		}
	}
	stats.velocityIterations = velIters

	for i := range velocityConstraints {
		storeImpulses(&velocityConstraints[i])
	}

	for _, b := range bcs {
		body, err := w.getBody(b.BodyID)
		if err != nil {
			continue
		}
		body.vel.Linear = b.V
		body.vel.Angular = b.W
		maxTranslation := math.Max(conf.MaxTranslation, 0)
		maxRotation := math.Max(conf.MaxRotation, 0)
		body.integratePosition(subDt, maxTranslation, maxRotation)
		b.C = body.sweep.Pos1.Center
		b.A = body.sweep.Pos1.Angle
		b.V = body.vel.Linear
		b.W = body.vel.Angular
	}

	writeBack(w, bcs)
	reportPostSolve(w, island.Contacts, velocityConstraints)

	return stats
}
