package physics

const treeNullNode = -1

// TreeLeafData is the payload a dynamic-tree leaf carries (§3: "leaf (AABB,
// user payload {bodyId, shapeId, childIndex})").
type TreeLeafData struct {
	Body       BodyID
	Shape      ShapeID
	ChildIndex int
}

// TreeProxyID identifies one leaf in a DynamicTree. It is the node's dense
// slot index directly (the tree is single-writer and never exposes a
// stale-reuse window within one World's lifetime the way the id arenas do).
type TreeProxyID int32

func (id TreeProxyID) Valid() bool { return id != treeNullNode }

type treeNode struct {
	aabb       AABB
	data       TreeLeafData
	parent     int32 // also doubles as "next free" for free-list nodes
	child1     int32
	child2     int32
	height     int32 // -1: free, 0: leaf, >0: branch
}

func (n *treeNode) isLeaf() bool {
	return n.child1 == treeNullNode
}

// DynamicTree is the broad-phase AABB BVH (§4.2): insert/update/query/
// raycast with fattened leaf AABBs so small motion doesn't force
// re-insertion, SAH-guided insertion, and rotation-based rebalancing.
type DynamicTree struct {
	nodes         []treeNode
	root          int32
	freeList      int32
	nodeCount     int32
	aabbExtension float64
}

// NewDynamicTree builds an empty tree. aabbExtension is the fattening
// margin added to every leaf's tight AABB (StepConf.aabbExtension).
func NewDynamicTree(aabbExtension float64) *DynamicTree {
	t := &DynamicTree{root: treeNullNode, aabbExtension: aabbExtension}
	t.freeList = treeNullNode
	return t
}

func (t *DynamicTree) allocateNode() int32 {
	if t.freeList == treeNullNode {
		t.nodes = append(t.nodes, treeNode{height: -1, child1: treeNullNode, child2: treeNullNode, parent: treeNullNode})
		return int32(len(t.nodes) - 1)
	}
	idx := t.freeList
	t.freeList = t.nodes[idx].parent
	t.nodes[idx] = treeNode{height: 0, child1: treeNullNode, child2: treeNullNode, parent: treeNullNode}
	return idx
}

func (t *DynamicTree) freeNode(idx int32) {
	t.nodes[idx].height = -1
	t.nodes[idx].parent = t.freeList
	t.freeList = idx
}

// CreateLeaf inserts a new leaf with the given tight AABB (fattened by
// aabbExtension before storage) and payload.
func (t *DynamicTree) CreateLeaf(aabb AABB, data TreeLeafData) TreeProxyID {
	idx := t.allocateNode()
	n := &t.nodes[idx]
	n.aabb = aabb.Extend(t.aabbExtension)
	n.data = data
	n.height = 0
	t.nodeCount++
	t.insertLeaf(idx)
	return TreeProxyID(idx)
}

// DestroyLeaf removes a leaf from the tree.
func (t *DynamicTree) DestroyLeaf(id TreeProxyID) error {
	idx := int32(id)
	if idx < 0 || int(idx) >= len(t.nodes) || t.nodes[idx].height < 0 {
		return outOfRange("dynamic tree leaf %d is not live", id)
	}
	t.removeLeaf(idx)
	t.freeNode(idx)
	t.nodeCount--
	return nil
}

// UpdateLeaf re-fits leaf id to newAABB. It only reinserts the leaf into
// the tree (returning true) when the stored fattened AABB no longer
// contains the new tight AABB; the reinserted AABB is additionally
// expanded by the given displacement so that continued motion in the same
// direction is more likely to stay inside the fattened box next time
// (§4.2).
func (t *DynamicTree) UpdateLeaf(id TreeProxyID, newAABB AABB, displacement Vector) (bool, error) {
	idx := int32(id)
	if idx < 0 || int(idx) >= len(t.nodes) || t.nodes[idx].height < 0 {
		return false, outOfRange("dynamic tree leaf %d is not live", id)
	}
	n := &t.nodes[idx]
	if n.aabb.Contains(newAABB) {
		return false, nil
	}

	t.removeLeaf(idx)

	fat := newAABB.Extend(t.aabbExtension)
	if displacement.X() < 0 {
		fat.Lower[0] += displacement.X()
	} else {
		fat.Upper[0] += displacement.X()
	}
	if displacement.Y() < 0 {
		fat.Lower[1] += displacement.Y()
	} else {
		fat.Upper[1] += displacement.Y()
	}
	n.aabb = fat

	t.insertLeaf(idx)
	return true, nil
}

func (t *DynamicTree) GetFatAABB(id TreeProxyID) AABB {
	return t.nodes[id].aabb
}

func (t *DynamicTree) GetLeafData(id TreeProxyID) TreeLeafData {
	return t.nodes[id].data
}

// insertLeaf implements SAH-guided insertion (§4.2): descend from the root
// choosing the cheaper child by the surface-area heuristic, insert as a new
// sibling of the chosen leaf, then walk back to the root refitting AABBs
// and rebalancing via rotation.
func (t *DynamicTree) insertLeaf(leaf int32) {
	if t.root == treeNullNode {
		t.root = leaf
		t.nodes[leaf].parent = treeNullNode
		return
	}

	leafAABB := t.nodes[leaf].aabb
	index := t.root
	for !t.nodes[index].isLeaf() {
		child1 := t.nodes[index].child1
		child2 := t.nodes[index].child2

		area := t.nodes[index].aabb.Perimeter()
		combined := t.nodes[index].aabb.Union(leafAABB)
		combinedArea := combined.Perimeter()

		cost := 2 * combinedArea
		inheritanceCost := 2 * (combinedArea - area)

		cost1 := t.childCost(child1, leafAABB) + inheritanceCost
		cost2 := t.childCost(child2, leafAABB) + inheritanceCost

		if cost < cost1 && cost < cost2 {
			break
		}
		if cost1 < cost2 {
			index = child1
		} else {
			index = child2
		}
	}

	sibling := index
	oldParent := t.nodes[sibling].parent
	newParent := t.allocateNode()
	t.nodes[newParent].parent = oldParent
	t.nodes[newParent].aabb = leafAABB.Union(t.nodes[sibling].aabb)
	t.nodes[newParent].height = t.nodes[sibling].height + 1

	if oldParent != treeNullNode {
		if t.nodes[oldParent].child1 == sibling {
			t.nodes[oldParent].child1 = newParent
		} else {
			t.nodes[oldParent].child2 = newParent
		}
		t.nodes[newParent].child1 = sibling
		t.nodes[newParent].child2 = leaf
		t.nodes[sibling].parent = newParent
		t.nodes[leaf].parent = newParent
	} else {
		t.nodes[newParent].child1 = sibling
		t.nodes[newParent].child2 = leaf
		t.nodes[sibling].parent = newParent
		t.nodes[leaf].parent = newParent
		t.root = newParent
	}

	// Walk back up, refitting AABBs and rebalancing.
	index = t.nodes[leaf].parent
	for index != treeNullNode {
		index = t.balance(index)

		child1 := t.nodes[index].child1
		child2 := t.nodes[index].child2

		t.nodes[index].height = 1 + maxInt32(t.nodes[child1].height, t.nodes[child2].height)
		t.nodes[index].aabb = t.nodes[child1].aabb.Union(t.nodes[child2].aabb)

		index = t.nodes[index].parent
	}
}

func (t *DynamicTree) childCost(child int32, leafAABB AABB) float64 {
	combined := leafAABB.Union(t.nodes[child].aabb)
	if t.nodes[child].isLeaf() {
		return combined.Perimeter()
	}
	oldArea := t.nodes[child].aabb.Perimeter()
	newArea := combined.Perimeter()
	return (newArea - oldArea)
}

func (t *DynamicTree) removeLeaf(leaf int32) {
	if leaf == t.root {
		t.root = treeNullNode
		return
	}

	parent := t.nodes[leaf].parent
	grandParent := t.nodes[parent].parent
	var sibling int32
	if t.nodes[parent].child1 == leaf {
		sibling = t.nodes[parent].child2
	} else {
		sibling = t.nodes[parent].child1
	}

	if grandParent != treeNullNode {
		if t.nodes[grandParent].child1 == parent {
			t.nodes[grandParent].child1 = sibling
		} else {
			t.nodes[grandParent].child2 = sibling
		}
		t.nodes[sibling].parent = grandParent
		t.freeNode(parent)

		index := grandParent
		for index != treeNullNode {
			index = t.balance(index)
			child1 := t.nodes[index].child1
			child2 := t.nodes[index].child2
			t.nodes[index].aabb = t.nodes[child1].aabb.Union(t.nodes[child2].aabb)
			t.nodes[index].height = 1 + maxInt32(t.nodes[child1].height, t.nodes[child2].height)
			index = t.nodes[index].parent
		}
	} else {
		t.root = sibling
		t.nodes[sibling].parent = treeNullNode
		t.freeNode(parent)
	}
}

// balance performs at most one tree rotation at iA to keep the subtree
// heights within 1 of each other (§4.2: "single tree rotations that reduce
// the maximum of subtree heights when imbalance >= 2").
func (t *DynamicTree) balance(iA int32) int32 {
	a := &t.nodes[iA]
	if a.isLeaf() || a.height < 2 {
		return iA
	}

	iB := a.child1
	iC := a.child2
	b := &t.nodes[iB]
	c := &t.nodes[iC]

	balance := c.height - b.height

	if balance > 1 {
		return t.rotate(iA, iC, iB)
	}
	if balance < -1 {
		return t.rotate(iA, iB, iC)
	}
	return iA
}

// rotate promotes iChild (currently a child of iA) to iA's position,
// demoting iA to be iChild's child, choosing whichever of iChild's two
// children keeps the shallower overall tree (the classic Box2D rotation
// step, generalized over which side is heavier via iOther).
func (t *DynamicTree) rotate(iA, iChild, iOther int32) int32 {
	child := &t.nodes[iChild]
	f := child.child1
	g := child.child2
	childIsFirst := t.nodes[iA].child1 == iChild

	child.child1 = iA
	child.parent = t.nodes[iA].parent
	t.nodes[iA].parent = iChild

	if child.parent != treeNullNode {
		if t.nodes[child.parent].child1 == iA {
			t.nodes[child.parent].child1 = iChild
		} else {
			t.nodes[child.parent].child2 = iChild
		}
	} else {
		t.root = iChild
	}

	if t.nodes[f].height > t.nodes[g].height {
		child.child2 = f
		if childIsFirst {
			t.nodes[iA].child1 = g
		} else {
			t.nodes[iA].child2 = g
		}
		t.nodes[g].parent = iA
		t.nodes[iA].aabb = t.nodes[iOther].aabb.Union(t.nodes[g].aabb)
		child.aabb = t.nodes[iA].aabb.Union(t.nodes[f].aabb)
		t.nodes[iA].height = 1 + maxInt32(t.nodes[iOther].height, t.nodes[g].height)
		child.height = 1 + maxInt32(t.nodes[iA].height, t.nodes[f].height)
	} else {
		child.child2 = g
		if childIsFirst {
			t.nodes[iA].child1 = f
		} else {
			t.nodes[iA].child2 = f
		}
		t.nodes[f].parent = iA
		t.nodes[iA].aabb = t.nodes[iOther].aabb.Union(t.nodes[f].aabb)
		child.aabb = t.nodes[iA].aabb.Union(t.nodes[g].aabb)
		t.nodes[iA].height = 1 + maxInt32(t.nodes[iOther].height, t.nodes[f].height)
		child.height = 1 + maxInt32(t.nodes[iA].height, t.nodes[g].height)
	}

	return iChild
}

// Query emits leaf ids whose fattened AABB overlaps aabb, in DFS order.
// callback returns false to stop early.
func (t *DynamicTree) Query(aabb AABB, callback func(TreeProxyID) bool) {
	if t.root == treeNullNode {
		return
	}
	var stack []int32
	stack = append(stack, t.root)
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if idx == treeNullNode {
			continue
		}
		n := &t.nodes[idx]
		if !n.aabb.Intersects(aabb) {
			continue
		}
		if n.isLeaf() {
			if !callback(TreeProxyID(idx)) {
				return
			}
		} else {
			stack = append(stack, n.child1, n.child2)
		}
	}
}

// RayCast clips against the segment in input with a slab test, walking
// the tree depth-first in stored child order; children are not sorted by
// distance along the ray. callback returns the new max fraction to
// continue clipping the search segment, or 0 to stop.
func (t *DynamicTree) RayCast(input RayCastInput, callback func(TreeProxyID, RayCastInput) float64) {
	if t.root == treeNullNode {
		return
	}
	p1 := input.P1
	p2 := input.P2
	r := p2.Sub(p1)
	if r.LenSqr() > 0 {
		r = r.Normalize()
	}
	v := Perp(r)
	absV := Vector{absf(v.X()), absf(v.Y())}

	maxFraction := input.MaxFraction
	segEnd := p1.Add(p2.Sub(p1).Mul(maxFraction))
	segAABB := AABB{Lower: MinVector(p1, segEnd), Upper: MaxVector(p1, segEnd)}

	var stack []int32
	stack = append(stack, t.root)
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if idx == treeNullNode {
			continue
		}
		n := &t.nodes[idx]
		if !n.aabb.Intersects(segAABB) {
			continue
		}

		c := n.aabb.Center()
		h := n.aabb.Upper.Sub(n.aabb.Lower).Mul(0.5)
		separation := absf(v.Dot(c.Sub(p1))) - absV.Dot(h)
		if separation > 0 {
			continue
		}

		if n.isLeaf() {
			subInput := RayCastInput{P1: input.P1, P2: input.P2, MaxFraction: maxFraction}
			fraction := callback(TreeProxyID(idx), subInput)
			if fraction == 0 {
				return
			}
			if fraction < maxFraction {
				maxFraction = fraction
				segEnd = p1.Add(p2.Sub(p1).Mul(maxFraction))
				segAABB = AABB{Lower: MinVector(p1, segEnd), Upper: MaxVector(p1, segEnd)}
			}
		} else {
			stack = append(stack, n.child1, n.child2)
		}
	}
}

func maxInt32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// ValidateStructure walks the tree checking parent/child consistency; it
// is a debug/test helper named directly after PlayRho's
// UnitTests/DynamicTree.cpp (§8 scenario 6).
func (t *DynamicTree) ValidateStructure() bool {
	return t.validateStructure(t.root, treeNullNode)
}

func (t *DynamicTree) validateStructure(idx, expectedParent int32) bool {
	if idx == treeNullNode {
		return true
	}
	n := &t.nodes[idx]
	if n.parent != expectedParent {
		return false
	}
	if n.isLeaf() {
		return n.child1 == treeNullNode && n.child2 == treeNullNode
	}
	return t.validateStructure(n.child1, idx) && t.validateStructure(n.child2, idx)
}

// ValidateMetrics recomputes each branch's AABB union and height bottom-up
// and checks they match what's stored.
func (t *DynamicTree) ValidateMetrics() bool {
	return t.validateMetrics(t.root)
}

func (t *DynamicTree) validateMetrics(idx int32) bool {
	if idx == treeNullNode {
		return true
	}
	n := &t.nodes[idx]
	if n.isLeaf() {
		return n.height == 0
	}
	if !t.validateMetrics(n.child1) || !t.validateMetrics(n.child2) {
		return false
	}
	c1 := &t.nodes[n.child1]
	c2 := &t.nodes[n.child2]
	height := 1 + maxInt32(c1.height, c2.height)
	if height != n.height {
		return false
	}
	union := c1.aabb.Union(c2.aabb)
	return union.Lower == n.aabb.Lower && union.Upper == n.aabb.Upper
}

// NodeCount is the number of live leaves; used by §8 scenario 6 (must be 0
// after destroying everything).
func (t *DynamicTree) NodeCount() int {
	return int(t.nodeCount)
}

// Height is the root's subtree height, 0 for an empty or single-leaf tree.
func (t *DynamicTree) Height() int {
	if t.root == treeNullNode {
		return 0
	}
	return int(t.nodes[t.root].height)
}

// Clear empties the tree back to a single-root-or-empty state.
func (t *DynamicTree) Clear() {
	t.nodes = nil
	t.root = treeNullNode
	t.freeList = treeNullNode
	t.nodeCount = 0
}

