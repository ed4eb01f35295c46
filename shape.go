package physics

import "math"

// MaxPolygonVertices bounds convex polygon shapes, matching the teacher's
// domain (Chipmunk/Box2D polygons are small fixed-capacity convex hulls).
const MaxPolygonVertices = 12

// ShapeFilter controls which shape pairs the broad/narrow phase consider
// (§4.6).
type ShapeFilter struct {
	CategoryBits uint32
	MaskBits     uint32
	GroupIndex   int32
}

// DefaultShapeFilter collides with everything.
func DefaultShapeFilter() ShapeFilter {
	return ShapeFilter{CategoryBits: 0x0001, MaskBits: 0xFFFF}
}

// ShouldCollide implements §4.6's filter predicate exactly as specified:
// category/mask must both pass, and unless at least one side's group is
// zero, the two groups must share a sign.
func (f ShapeFilter) ShouldCollide(o ShapeFilter) bool {
	if f.CategoryBits&o.MaskBits == 0 || o.CategoryBits&f.MaskBits == 0 {
		return false
	}
	if f.GroupIndex == 0 || o.GroupIndex == 0 {
		return true
	}
	return (f.GroupIndex < 0) == (o.GroupIndex < 0)
}

// Reject is the negation of ShouldCollide, matching cp's QueryReject idiom.
func (f ShapeFilter) Reject(o ShapeFilter) bool {
	return !f.ShouldCollide(o)
}

// DistanceProxy is the shape-agnostic support-function interface GJK and
// the manifold builder operate on (§4.3): a radius plus an ordered vertex
// list, with outward edge normals for polygon-like children.
type DistanceProxy struct {
	Radius   float64
	Vertices []Vector
	Normals  []Vector // len(Normals) == len(Vertices) for polygon-like proxies, nil for a single point/circle
}

// GetSupport returns the index of the vertex farthest along direction.
func (p *DistanceProxy) GetSupport(direction Vector) int {
	best := 0
	bestDot := p.Vertices[0].Dot(direction)
	for i := 1; i < len(p.Vertices); i++ {
		d := p.Vertices[i].Dot(direction)
		if d > bestDot {
			bestDot = d
			best = i
		}
	}
	return best
}

func (p *DistanceProxy) Vertex(i int) Vector {
	return p.Vertices[i]
}

// MassData is the mass, centroid (in shape-local coordinates), and
// rotational inertia about the shape-local origin for one shape child, at
// the shape's configured density.
type MassData struct {
	Mass   float64
	Center Vector
	I      float64
}

// ShapeKind tags the Shape union's active variant (§9: tagged enum with
// inline storage, no heap-per-shape).
type ShapeKind int

const (
	ShapeKindCircle ShapeKind = iota
	ShapeKindPolygon
	ShapeKindEdge
	ShapeKindChainSegment
)

// Shape is a value-typed polymorphic payload (§3). Bodies reference shapes
// by ShapeID; several bodies may reference the same shape id.
type Shape struct {
	id   ShapeID
	body BodyID
	kind ShapeKind

	// circle
	circleCenter Vector
	circleRadius float64

	// polygon: vertices/normals in CCW order, centroid precomputed
	polyVertices []Vector
	polyNormals  []Vector
	polyCentroid Vector
	polyRadius   float64

	// edge / chain segment: a two-sided segment v1-v2. A chain segment
	// also stores its "ghost" neighbor vertices; the collision code does
	// not read them.
	edgeV1, edgeV2   Vector
	edgeGhostA       Vector
	edgeGhostB       Vector
	edgeHasGhostA    bool
	edgeHasGhostB    bool
	edgeRadius       float64

	density     float64
	friction    float64
	restitution float64
	sensor      bool
	filter      ShapeFilter

	userData any
}

// NewCircleShape builds a circle of the given radius centered at center
// (shape-local coordinates).
func NewCircleShape(radius float64, center Vector) *Shape {
	return &Shape{
		kind:         ShapeKindCircle,
		circleCenter: center,
		circleRadius: radius,
		density:      1,
		friction:     0.2,
		filter:       DefaultShapeFilter(),
	}
}

// NewPolygonShape builds a convex polygon from CCW-ordered vertices. The
// caller is responsible for convexity (the convex-hull-construction helper
// is part of the out-of-scope geometric primitive library, §1); this core
// only validates the size bound and computes outward normals/centroid.
func NewPolygonShape(vertices []Vector, radius float64) (*Shape, error) {
	if len(vertices) < 3 {
		return nil, invalidArgument("polygon needs at least 3 vertices, got %d", len(vertices))
	}
	if len(vertices) > MaxPolygonVertices {
		return nil, invalidArgument("polygon exceeds max vertex count %d", MaxPolygonVertices)
	}
	normals := make([]Vector, len(vertices))
	for i := range vertices {
		j := (i + 1) % len(vertices)
		edge := vertices[j].Sub(vertices[i])
		if edge.LenSqr() < 1e-18 {
			return nil, invalidArgument("polygon has a degenerate edge at vertex %d", i)
		}
		normals[i] = RPerp(edge).Normalize()
	}
	return &Shape{
		kind:         ShapeKindPolygon,
		polyVertices: append([]Vector(nil), vertices...),
		polyNormals:  normals,
		polyCentroid: polygonCentroid(vertices),
		polyRadius:   radius,
		density:      1,
		friction:     0.2,
		filter:       DefaultShapeFilter(),
	}, nil
}

// NewBoxShape is a convenience built on NewPolygonShape, matching the
// "disk/edge/polygon/chain/multi" primitive layer's common case (the
// primitive library itself is out of scope; this one helper is needed to
// build the §8 end-to-end scenarios without a separate package).
func NewBoxShape(halfWidth, halfHeight float64) *Shape {
	s, err := NewPolygonShape([]Vector{
		{-halfWidth, -halfHeight},
		{halfWidth, -halfHeight},
		{halfWidth, halfHeight},
		{-halfWidth, halfHeight},
	}, 0)
	if err != nil {
		panic(err)
	}
	return s
}

// NewEdgeShape builds a two-sided line segment without ghost vertices
// (NewChainSegmentShape stores them, but collision does not use them, so
// internal joints of a chain of edges are not smoothed).
func NewEdgeShape(v1, v2 Vector) *Shape {
	return &Shape{
		kind:     ShapeKindEdge,
		edgeV1:   v1,
		edgeV2:   v2,
		density:  1,
		friction: 0.2,
		filter:   DefaultShapeFilter(),
	}
}

func NewChainSegmentShape(ghostA, v1, v2, ghostB Vector) *Shape {
	s := NewEdgeShape(v1, v2)
	s.kind = ShapeKindChainSegment
	s.edgeGhostA = ghostA
	s.edgeGhostB = ghostB
	s.edgeHasGhostA = true
	s.edgeHasGhostB = true
	return s
}

func polygonCentroid(vertices []Vector) Vector {
	center := VectorZero()
	area := 0.0
	origin := vertices[0]
	const inv3 = 1.0 / 3.0
	for i := 1; i+1 < len(vertices); i++ {
		e1 := vertices[i].Sub(origin)
		e2 := vertices[i+1].Sub(origin)
		d := Cross(e1, e2)
		triArea := 0.5 * d
		area += triArea
		center = center.Add(e1.Add(e2).Mul(triArea * inv3))
	}
	if area > 1e-12 {
		center = center.Mul(1 / area)
	}
	return center.Add(origin)
}

func (s *Shape) ID() ShapeID      { return s.id }
func (s *Shape) Body() BodyID     { return s.body }
func (s *Shape) Kind() ShapeKind  { return s.kind }
func (s *Shape) Density() float64 { return s.density }
func (s *Shape) Friction() float64 { return s.friction }
func (s *Shape) Restitution() float64 { return s.restitution }
func (s *Shape) Sensor() bool     { return s.sensor }
func (s *Shape) Filter() ShapeFilter { return s.filter }
func (s *Shape) UserData() any    { return s.userData }

func (s *Shape) SetDensity(d float64)     { s.density = d }
func (s *Shape) SetFriction(f float64)    { s.friction = f }
func (s *Shape) SetRestitution(r float64) { s.restitution = r }
func (s *Shape) SetSensor(v bool)         { s.sensor = v }
func (s *Shape) SetFilter(f ShapeFilter)  { s.filter = f }
func (s *Shape) SetUserData(v any)        { s.userData = v }

// ChildCount is 1 for circle/polygon/edge, and 1 per segment for a chain
// (a ChainSegment shape IS one child by construction here; an owning
// ChainShape composed of many ChainSegments is the out-of-scope primitive
// library's concern, §1).
func (s *Shape) ChildCount() int {
	return 1
}

// VertexRadius is the "skin" radius used to fatten narrow-phase contact
// generation (0 for sharp polygons, the circle's own radius for circles).
func (s *Shape) VertexRadius() float64 {
	switch s.kind {
	case ShapeKindCircle:
		return s.circleRadius
	case ShapeKindPolygon:
		return s.polyRadius
	default:
		return s.edgeRadius
	}
}

// Proxy returns child childIndex's DistanceProxy (§4.3).
func (s *Shape) Proxy(childIndex int) DistanceProxy {
	switch s.kind {
	case ShapeKindCircle:
		return DistanceProxy{Radius: s.circleRadius, Vertices: []Vector{s.circleCenter}}
	case ShapeKindPolygon:
		return DistanceProxy{Radius: s.polyRadius, Vertices: s.polyVertices, Normals: s.polyNormals}
	case ShapeKindEdge, ShapeKindChainSegment:
		return DistanceProxy{Radius: s.edgeRadius, Vertices: []Vector{s.edgeV1, s.edgeV2}, Normals: edgeNormals(s.edgeV1, s.edgeV2)}
	default:
		panic("unreachable shape kind")
	}
}

func edgeNormals(v1, v2 Vector) []Vector {
	n := RPerp(v2.Sub(v1)).Normalize()
	return []Vector{n, n.Mul(-1)}
}

// ComputeAABB returns the tight world-space AABB of child childIndex under
// transform xf.
func (s *Shape) ComputeAABB(xf Transform, childIndex int) AABB {
	proxy := s.Proxy(childIndex)
	r := proxy.Radius
	lower := xf.Apply(proxy.Vertices[0])
	upper := lower
	for _, v := range proxy.Vertices[1:] {
		p := xf.Apply(v)
		lower = MinVector(lower, p)
		upper = MaxVector(upper, p)
	}
	return AABB{Lower: lower.Sub(Vector{r, r}), Upper: upper.Add(Vector{r, r})}
}

// ComputeMass computes the shape's MassData at its configured density
// (Box2D's b2Shape::ComputeMass formulas; circles and polygons are
// load-bearing for §8 scenario 3, edges are massless per convention since
// they're used for static boundaries).
func (s *Shape) ComputeMass() MassData {
	switch s.kind {
	case ShapeKindCircle:
		mass := s.density * math.Pi * s.circleRadius * s.circleRadius
		i := mass * (0.5*s.circleRadius*s.circleRadius + s.circleCenter.Dot(s.circleCenter))
		return MassData{Mass: mass, Center: s.circleCenter, I: i}
	case ShapeKindPolygon:
		return s.computePolygonMass()
	default:
		return MassData{Mass: 0, Center: Lerp(s.edgeV1, s.edgeV2, 0.5), I: 0}
	}
}

func (s *Shape) computePolygonMass() MassData {
	vertices := s.polyVertices
	origin := vertices[0]
	area := 0.0
	center := VectorZero()
	I := 0.0
	const inv3 = 1.0 / 3.0
	for i := 1; i+1 < len(vertices); i++ {
		e1 := vertices[i].Sub(origin)
		e2 := vertices[i+1].Sub(origin)
		d := Cross(e1, e2)
		triArea := 0.5 * d
		area += triArea
		center = center.Add(e1.Add(e2).Mul(triArea * inv3))
		intx2 := e1.X()*e1.X() + e1.X()*e2.X() + e2.X()*e2.X()
		inty2 := e1.Y()*e1.Y() + e1.Y()*e2.Y() + e2.Y()*e2.Y()
		I += (0.25 * inv3 * d) * (intx2 + inty2)
	}
	mass := s.density * area
	if area > 1e-12 {
		center = center.Mul(1 / area)
	}
	localCenter := center.Add(origin)
	I = s.density * I
	// Shift I from origin to the centroid, then to the body origin (the
	// caller, Body.setMassData, re-centers to the body's local center).
	I += mass * (localCenter.Dot(localCenter) - center.Dot(center))
	return MassData{Mass: mass, Center: localCenter, I: I}
}
