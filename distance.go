package physics

import "math"

// SimplexCache carries GJK simplex indices across steps so that a moving
// pair's distance query can warm-start from the previous step's simplex
// (§4.3).
type SimplexCache struct {
	count   int
	indexA  [3]int
	indexB  [3]int
	metric  float64
}

// DistanceInput describes a GJK query between two proxies under their
// respective world transforms.
type DistanceInput struct {
	ProxyA    DistanceProxy
	ProxyB    DistanceProxy
	TransformA Transform
	TransformB Transform
	UseRadii  bool
}

// DistanceOutput is the closest-point pair and separation found by GJK.
type DistanceOutput struct {
	PointA     Vector
	PointB     Vector
	Distance   float64
	Iterations int
}

type simplexVertex struct {
	wA, wB Vector // support points in world space
	w      Vector // wB - wA
	a      float64 // barycentric coordinate for closest point
	indexA int
	indexB int
}

type simplex struct {
	v     [3]simplexVertex
	count int
}

func (s *simplex) readCache(cache *SimplexCache, proxyA DistanceProxy, xfA Transform, proxyB DistanceProxy, xfB Transform) {
	s.count = cache.count
	for i := 0; i < s.count; i++ {
		v := &s.v[i]
		v.indexA = cache.indexA[i]
		v.indexB = cache.indexB[i]
		wALocal := proxyA.Vertex(v.indexA)
		wBLocal := proxyB.Vertex(v.indexB)
		v.wA = xfA.Apply(wALocal)
		v.wB = xfB.Apply(wBLocal)
		v.w = v.wB.Sub(v.wA)
		v.a = -1
	}

	if s.count == 0 {
		v := &s.v[0]
		v.indexA = 0
		v.indexB = 0
		wALocal := proxyA.Vertex(0)
		wBLocal := proxyB.Vertex(0)
		v.wA = xfA.Apply(wALocal)
		v.wB = xfB.Apply(wBLocal)
		v.w = v.wB.Sub(v.wA)
		v.a = 1
		s.count = 1
	}
}

func (s *simplex) writeCache(cache *SimplexCache) {
	cache.count = s.count
	for i := 0; i < s.count; i++ {
		cache.indexA[i] = s.v[i].indexA
		cache.indexB[i] = s.v[i].indexB
	}
}

func (s *simplex) searchDirection() Vector {
	switch s.count {
	case 1:
		return s.v[0].w.Mul(-1)
	case 2:
		e12 := s.v[1].w.Sub(s.v[0].w)
		sgn := Cross(e12, s.v[0].w.Mul(-1))
		if sgn > 0 {
			return Perp(e12)
		}
		return RPerp(e12)
	default:
		return VectorZero()
	}
}

func (s *simplex) closestPoint() Vector {
	switch s.count {
	case 1:
		return s.v[0].w
	case 2:
		return s.v[0].w.Mul(s.v[0].a).Add(s.v[1].w.Mul(s.v[1].a))
	default:
		return VectorZero()
	}
}

func (s *simplex) witnessPoints() (pA, pB Vector) {
	switch s.count {
	case 1:
		return s.v[0].wA, s.v[0].wB
	case 2:
		pA = s.v[0].wA.Mul(s.v[0].a).Add(s.v[1].wA.Mul(s.v[1].a))
		pB = s.v[0].wB.Mul(s.v[0].a).Add(s.v[1].wB.Mul(s.v[1].a))
		return
	case 3:
		pA = s.v[0].wA.Mul(s.v[0].a).Add(s.v[1].wA.Mul(s.v[1].a)).Add(s.v[2].wA.Mul(s.v[2].a))
		pB = pA
		return
	default:
		return VectorZero(), VectorZero()
	}
}

// solve2 reduces a 2-simplex {w1,w2} to the barycentric coordinates of the
// closest point to the origin on segment w1w2, dropping a vertex if the
// origin projects outside the segment.
func (s *simplex) solve2() {
	w1 := s.v[0].w
	w2 := s.v[1].w
	e12 := w2.Sub(w1)

	d12_2 := -w1.Dot(e12)
	if d12_2 <= 0 {
		s.v[0].a = 1
		s.count = 1
		return
	}

	d12_1 := w2.Dot(e12)
	if d12_1 <= 0 {
		s.v[0] = s.v[1]
		s.v[0].a = 1
		s.count = 1
		return
	}

	inv := 1 / (d12_1 + d12_2)
	s.v[0].a = d12_1 * inv
	s.v[1].a = d12_2 * inv
	s.count = 2
}

// solve3 reduces a 2-simplex triangle to whichever sub-simplex is closest
// to the origin (vertex region, edge region, or the full triangle if the
// origin is inside).
func (s *simplex) solve3() {
	w1 := s.v[0].w
	w2 := s.v[1].w
	w3 := s.v[2].w

	e12 := w2.Sub(w1)
	w1e12 := w1.Dot(e12)
	w2e12 := w2.Dot(e12)
	d12_1 := w2e12
	d12_2 := -w1e12

	e13 := w3.Sub(w1)
	w1e13 := w1.Dot(e13)
	w3e13 := w3.Dot(e13)
	d13_1 := w3e13
	d13_2 := -w1e13

	e23 := w3.Sub(w2)
	w2e23 := w2.Dot(e23)
	w3e23 := w3.Dot(e23)
	d23_1 := w3e23
	d23_2 := -w2e23

	n123 := Cross(e12, e13)

	d123_1 := n123 * Cross(w2, w3)
	d123_2 := n123 * Cross(w3, w1)
	d123_3 := n123 * Cross(w1, w2)

	if d12_2 <= 0 && d13_2 <= 0 {
		s.v[0].a = 1
		s.count = 1
		return
	}

	if d12_1 > 0 && d12_2 > 0 && d123_3 <= 0 {
		inv := 1 / (d12_1 + d12_2)
		s.v[0].a = d12_1 * inv
		s.v[1].a = d12_2 * inv
		s.count = 2
		return
	}

	if d13_1 > 0 && d13_2 > 0 && d123_2 <= 0 {
		inv := 1 / (d13_1 + d13_2)
		s.v[0].a = d13_1 * inv
		s.v[1] = s.v[2]
		s.v[1].a = d13_2 * inv
		s.count = 2
		return
	}

	if d12_1 <= 0 && d23_2 <= 0 {
		s.v[0] = s.v[1]
		s.v[0].a = 1
		s.count = 1
		return
	}

	if d13_1 <= 0 && d23_1 <= 0 {
		s.v[0] = s.v[2]
		s.v[0].a = 1
		s.count = 1
		return
	}

	if d23_1 > 0 && d23_2 > 0 && d123_1 <= 0 {
		inv := 1 / (d23_1 + d23_2)
		s.v[1].a = d23_1 * inv
		s.v[2].a = d23_2 * inv
		s.v[0] = s.v[2]
		s.count = 2
		return
	}

	inv := 1 / (d123_1 + d123_2 + d123_3)
	s.v[0].a = d123_1 * inv
	s.v[1].a = d123_2 * inv
	s.v[2].a = d123_3 * inv
	s.count = 3
}

const maxGJKIterations = 20

// Distance runs GJK to find the closest points between two convex
// proxies (§4.3). When input.UseRadii is set the output distance and
// witness points account for each proxy's vertex radius (so two circles'
// "distance" is the gap between their surfaces, not their centers).
func Distance(cache *SimplexCache, input DistanceInput) DistanceOutput {
	proxyA := input.ProxyA
	proxyB := input.ProxyB
	xfA := input.TransformA
	xfB := input.TransformB

	var s simplex
	s.readCache(cache, proxyA, xfA, proxyB, xfB)

	var saveA, saveB [3]int
	iter := 0
	for iter < maxGJKIterations {
		saveCount := s.count
		for i := 0; i < saveCount; i++ {
			saveA[i] = s.v[i].indexA
			saveB[i] = s.v[i].indexB
		}

		switch s.count {
		case 1:
		case 2:
			s.solve2()
		case 3:
			s.solve3()
		}

		if s.count == 3 {
			break
		}

		d := s.searchDirection()
		if d.LenSqr() < 1e-20 {
			break
		}

		vertex := &s.v[s.count]
		vertex.indexA = proxyA.GetSupport(InvRotate(xfA.Q, d.Mul(-1)))
		vertex.wA = xfA.Apply(proxyA.Vertex(vertex.indexA))
		vertex.indexB = proxyB.GetSupport(InvRotate(xfB.Q, d))
		vertex.wB = xfB.Apply(proxyB.Vertex(vertex.indexB))
		vertex.w = vertex.wB.Sub(vertex.wA)

		iter++

		duplicate := false
		for i := 0; i < saveCount; i++ {
			if vertex.indexA == saveA[i] && vertex.indexB == saveB[i] {
				duplicate = true
				break
			}
		}
		if duplicate {
			break
		}

		s.count++
	}

	pA, pB := s.witnessPoints()
	distance := pA.Sub(pB).Len()

	s.writeCache(cache)

	if input.UseRadii {
		if distance < 1e-9 {
			mid := pA.Add(pB).Mul(0.5)
			return DistanceOutput{PointA: mid, PointB: mid, Distance: 0, Iterations: iter}
		}
		rA := proxyA.Radius
		rB := proxyB.Radius
		normal := pB.Sub(pA).Mul(1 / distance)
		pA = pA.Add(normal.Mul(rA))
		pB = pB.Sub(normal.Mul(rB))
		distance = math.Max(0, distance-rA-rB)
	}

	return DistanceOutput{PointA: pA, PointB: pB, Distance: distance, Iterations: iter}
}

// ShapeSeparation reports the surface-to-surface separation (possibly
// negative, meaning overlap) between two proxies: the distance between
// their cores minus both proxies' vertex radii.
func ShapeSeparation(proxyA DistanceProxy, xfA Transform, proxyB DistanceProxy, xfB Transform) float64 {
	var cache SimplexCache
	out := Distance(&cache, DistanceInput{ProxyA: proxyA, ProxyB: proxyB, TransformA: xfA, TransformB: xfB, UseRadii: false})
	return out.Distance - proxyA.Radius - proxyB.Radius
}

// edgeSeparation computes the separation of poly2's vertices from poly1's
// edge[edge1], in world coordinates with poly1 placed by xf1 and poly2 by
// xf2. This is the classic Box2D
// b2FindMaxSeparation building block used by manifold construction to pick
// the reference edge via SAT (§4.4).
func edgeSeparation(poly1 DistanceProxy, xf1 Transform, edge1 int, poly2 DistanceProxy, xf2 Transform) float64 {
	count1 := len(poly1.Vertices)
	count2 := len(poly2.Vertices)

	normal1 := Rotate(xf1.Q, poly1.Normals[edge1])

	// Convert normal into frame2.
	normal1Local2 := InvRotate(xf2.Q, normal1)

	index := 0
	minDot := math.Inf(1)
	for i := 0; i < count2; i++ {
		dot := poly2.Vertices[i].Dot(normal1Local2)
		if dot < minDot {
			minDot = dot
			index = i
		}
	}
	_ = count1

	v1 := xf1.Apply(poly1.Vertices[edge1])
	v2 := xf2.Apply(poly2.Vertices[index])
	return v2.Sub(v1).Dot(normal1)
}

// FindMaxSeparation returns the edge index of the maximally separating
// face of poly1 against poly2 and that separation (§4.3/§4.4: SAT probe
// feeding polygon-polygon manifold construction).
func FindMaxSeparation(poly1 DistanceProxy, xf1 Transform, poly2 DistanceProxy, xf2 Transform) (bestEdge int, bestSeparation float64) {
	count1 := len(poly1.Vertices)
	bestSeparation = math.Inf(-1)
	for i := 0; i < count1; i++ {
		s := edgeSeparation(poly1, xf1, i, poly2, xf2)
		if s > bestSeparation {
			bestSeparation = s
			bestEdge = i
		}
	}
	return
}
