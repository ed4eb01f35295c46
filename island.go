package physics

// Island is one connected component of awake dynamic bodies plus the
// contacts and joints linking them, built fresh each step by a DFS over
// the body/contact/joint graph (§4.7). Static bodies are never added as
// stack roots and don't propagate the search further, so islands break at
// the ground the way Box2D's b2Island construction does.
type Island struct {
	Bodies    []BodyID
	Contacts  []ContactID
	Joints    []JointID
}

// BuildIslands partitions every awake, non-islanded body reachable
// through touching-and-enabled contacts or joints into islands. Bodies
// already marked islanded (from a previous island this same pass) are
// skipped as roots; static bodies are included as graph leaves (they can
// belong to many islands) but never push their own contacts/joints onto
// the stack.
func BuildIslands(w *World) []*Island {
	var islands []*Island

	w.bodies.each(func(_ uint32, b *Body) {
		if b.islanded || !b.awake || !b.enabled {
			return
		}
		if b.bodyType == BodyStatic {
			return
		}

		island := &Island{}
		stack := []BodyID{b.id}
		b.islanded = true

		for len(stack) > 0 {
			bodyID := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			body, err := w.getBody(bodyID)
			if err != nil {
				continue
			}
			island.Bodies = append(island.Bodies, bodyID)

			if body.bodyType == BodyStatic {
				continue
			}

			for contactID, otherID := range body.contacts {
				contact, err := w.contactManager.get(contactID)
				if err != nil || contact.islanded || !contact.touching || !contact.enabled {
					continue
				}
				shapeA, errA := w.getShape(contact.shapeA)
				shapeB, errB := w.getShape(contact.shapeB)
				if errA != nil || errB != nil || shapeA.sensor || shapeB.sensor {
					continue
				}
				contact.islanded = true
				island.Contacts = append(island.Contacts, contactID)

				other, err := w.getBody(otherID)
				if err != nil || other.islanded {
					continue
				}
				other.islanded = true
				if other.bodyType != BodyStatic {
					stack = append(stack, otherID)
				} else {
					island.Bodies = append(island.Bodies, otherID)
				}
			}

			for jointID, otherID := range body.joints {
				joint, err := w.getJoint(jointID)
				if err != nil || joint.islanded() {
					continue
				}
				other, err := w.getBody(otherID)
				if err != nil || !other.enabled {
					continue
				}
				joint.setIslanded(true)
				island.Joints = append(island.Joints, jointID)

				if other.islanded {
					continue
				}
				other.islanded = true
				if other.bodyType != BodyStatic {
					stack = append(stack, otherID)
				} else {
					island.Bodies = append(island.Bodies, otherID)
				}
			}
		}

		// Static bodies bridge islands without being consumed by one: clear
		// their islanded flag now so they're free to join whichever other
		// island reaches them next (§4.7).
		for _, bodyID := range island.Bodies {
			if body, err := w.getBody(bodyID); err == nil && body.bodyType == BodyStatic {
				body.islanded = false
			}
		}

		islands = append(islands, island)
	})

	return islands
}

// resetIslandFlags clears every body/contact/joint's islanded flag,
// called at the start of each step before BuildIslands runs (§4.7).
func resetIslandFlags(w *World) {
	w.bodies.each(func(_ uint32, b *Body) { b.islanded = false })
	w.contactManager.each(func(c *Contact) { c.islanded = false })
	w.joints.each(func(_ uint32, j *Joint) { j.setIslanded(false) })
}
