package physics

import "math"

// ManifoldType tags which side of a contact pair produced the reference
// feature (§4.4): circles (point contact), or one shape's face clipping
// the other's incident points.
type ManifoldType int

const (
	ManifoldUnset ManifoldType = iota
	ManifoldCircles
	ManifoldFaceA
	ManifoldFaceB
)

// ContactFeature identifies which vertex/edge pair produced a manifold
// point, stable across a step even as the manifold's point order is
// rebuilt, so warm-starting can match old impulses to new points (§4.4,
// §4.6).
type ContactFeature struct {
	IndexA, IndexB uint8
	TypeA, TypeB   uint8
}

const (
	featureVertex uint8 = 0
	featureFace   uint8 = 1
)

// ManifoldPoint is one contact point in local coordinates of the
// reference shape's frame, plus the accumulated impulses warm-starting
// carries across steps.
type ManifoldPoint struct {
	LocalPoint      Vector
	NormalImpulse   float64
	TangentImpulse  float64
	Feature         ContactFeature
}

// Manifold describes up to two contact points between a shape pair, all
// expressed relative to the reference shape's local frame so it survives
// unchanged across a step of body motion (§4.4).
type Manifold struct {
	Type        ManifoldType
	LocalPoint  Vector // circle center (Circles) or reference face point (FaceA/FaceB)
	LocalNormal Vector // reference face normal (FaceA/FaceB); unused for Circles
	Points      []ManifoldPoint
}

// clipVertex is one endpoint of a segment being clipped against a half
// plane, carrying the feature that produced it.
type clipVertex struct {
	v       Vector
	feature ContactFeature
}

// clipSegmentToLine keeps the portion of the 2-point segment vIn on the
// side normal.Dot(x) <= offset, synthesizing a new clipped vertex on the
// plane when a point is cut, and tagging it with vertexIndexA (Box2D
// b2ClipSegmentToLine, generalized with an explicit side tag for the
// synthesized vertex since this core threads typeA/typeB uniformly).
func clipSegmentToLine(vIn [2]clipVertex, normal Vector, offset float64, vertexIndexA uint8) ([2]clipVertex, int) {
	var vOut [2]clipVertex
	numOut := 0

	dist0 := normal.Dot(vIn[0].v) - offset
	dist1 := normal.Dot(vIn[1].v) - offset

	if dist0 <= 0 {
		vOut[numOut] = vIn[0]
		numOut++
	}
	if dist1 <= 0 {
		vOut[numOut] = vIn[1]
		numOut++
	}

	if dist0*dist1 < 0 {
		interp := dist0 / (dist0 - dist1)
		vOut[numOut].v = vIn[0].v.Add(vIn[1].v.Sub(vIn[0].v).Mul(interp))
		f := vIn[0].feature
		f.IndexA = vertexIndexA
		f.TypeA = featureFace
		vOut[numOut].feature = f
		numOut++
	}

	return vOut, numOut
}

// CollideCircles builds the (at most one point) manifold between two
// circle proxies.
func CollideCircles(proxyA DistanceProxy, xfA Transform, proxyB DistanceProxy, xfB Transform) Manifold {
	pA := xfA.Apply(proxyA.Vertices[0])
	pB := xfB.Apply(proxyB.Vertices[0])
	d := pB.Sub(pA)
	distSqr := d.Dot(d)
	rA := proxyA.Radius
	rB := proxyB.Radius
	radius := rA + rB
	if distSqr > radius*radius {
		return Manifold{Type: ManifoldUnset}
	}

	return Manifold{
		Type:        ManifoldCircles,
		LocalPoint:  proxyA.Vertices[0],
		LocalNormal: VectorZero(),
		Points: []ManifoldPoint{{
			LocalPoint: proxyB.Vertices[0],
			Feature:    ContactFeature{IndexA: 0, IndexB: 0, TypeA: featureVertex, TypeB: featureVertex},
		}},
	}
}

// CollidePolygonAndCircle builds the manifold between a polygon-like
// proxy (polygon, edge, or chain segment - anything with >= 2 vertices)
// and a circle, in polyA's local frame (Box2D b2CollidePolygonAndCircle).
func CollidePolygonAndCircle(proxyA DistanceProxy, xfA Transform, proxyB DistanceProxy, xfB Transform) Manifold {
	rA := proxyA.Radius
	rB := proxyB.Radius
	radius := rA + rB

	cLocal := xfA.ApplyInverse(xfB.Apply(proxyB.Vertices[0]))

	count := len(proxyA.Vertices)
	normalIndex := 0
	separation := math.Inf(-1)
	for i := 0; i < count; i++ {
		s := proxyA.Normals[i].Dot(cLocal.Sub(proxyA.Vertices[i]))
		if s > separation {
			separation = s
			normalIndex = i
		}
	}
	if separation > radius {
		return Manifold{Type: ManifoldUnset}
	}

	v1 := proxyA.Vertices[normalIndex]
	v2 := proxyA.Vertices[(normalIndex+1)%count]

	if separation < 1e-12 {
		normal := proxyA.Normals[normalIndex]
		return Manifold{
			Type:        ManifoldFaceA,
			LocalNormal: normal,
			LocalPoint:  v1.Add(v2).Mul(0.5),
			Points: []ManifoldPoint{{
				LocalPoint: proxyB.Vertices[0],
				Feature:    ContactFeature{IndexA: uint8(normalIndex), TypeA: featureFace, TypeB: featureVertex},
			}},
		}
	}

	u1 := cLocal.Sub(v1).Dot(v2.Sub(v1))
	u2 := cLocal.Sub(v2).Dot(v1.Sub(v2))

	switch {
	case u1 <= 0:
		if cLocal.Sub(v1).LenSqr() > radius*radius {
			return Manifold{Type: ManifoldUnset}
		}
		normal := cLocal.Sub(v1).Normalize()
		return Manifold{
			Type:        ManifoldFaceA,
			LocalNormal: normal,
			LocalPoint:  v1,
			Points: []ManifoldPoint{{
				LocalPoint: proxyB.Vertices[0],
				Feature:    ContactFeature{IndexA: uint8(normalIndex), TypeA: featureVertex, TypeB: featureVertex},
			}},
		}
	case u2 <= 0:
		if cLocal.Sub(v2).LenSqr() > radius*radius {
			return Manifold{Type: ManifoldUnset}
		}
		normal := cLocal.Sub(v2).Normalize()
		return Manifold{
			Type:        ManifoldFaceA,
			LocalNormal: normal,
			LocalPoint:  v2,
			Points: []ManifoldPoint{{
				LocalPoint: proxyB.Vertices[0],
				Feature:    ContactFeature{IndexA: uint8((normalIndex + 1) % count), TypeA: featureVertex, TypeB: featureVertex},
			}},
		}
	default:
		normal := proxyA.Normals[normalIndex]
		if cLocal.Sub(v1).Dot(normal) > radius {
			return Manifold{Type: ManifoldUnset}
		}
		return Manifold{
			Type:        ManifoldFaceA,
			LocalNormal: normal,
			LocalPoint:  v1.Add(v2).Mul(0.5),
			Points: []ManifoldPoint{{
				LocalPoint: proxyB.Vertices[0],
				Feature:    ContactFeature{IndexA: uint8(normalIndex), TypeA: featureFace, TypeB: featureVertex},
			}},
		}
	}
}

// CollidePolygons builds up to a 2-point manifold between two polygon-like
// proxies using SAT to pick a reference face, then clipping the other
// shape's incident edge against the reference face's side planes (Box2D
// b2CollidePolygons).
func CollidePolygons(proxyA DistanceProxy, xfA Transform, proxyB DistanceProxy, xfB Transform) Manifold {
	rA := proxyA.Radius
	rB := proxyB.Radius
	totalRadius := rA + rB

	edgeA, separationA := FindMaxSeparation(proxyA, xfA, proxyB, xfB)
	if separationA > totalRadius {
		return Manifold{Type: ManifoldUnset}
	}

	edgeB, separationB := FindMaxSeparation(proxyB, xfB, proxyA, xfA)
	if separationB > totalRadius {
		return Manifold{Type: ManifoldUnset}
	}

	var refProxy, incProxy DistanceProxy
	var refXf, incXf Transform
	var refEdge int
	flip := false
	const tol = 0.1 * 0.005 // linearSlop-scale bias toward A, matches Box2D's k_tol

	if separationB > separationA+tol {
		refProxy, refXf, refEdge = proxyB, xfB, edgeB
		incProxy, incXf = proxyA, xfA
		flip = true
	} else {
		refProxy, refXf, refEdge = proxyA, xfA, edgeA
		incProxy, incXf = proxyB, xfB
		flip = false
	}

	incEdge := findIncidentEdge(refProxy, refXf, refEdge, incProxy, incXf)

	count := len(refProxy.Vertices)
	v11 := refProxy.Vertices[refEdge]
	v12 := refProxy.Vertices[(refEdge+1)%count]

	localTangent := v12.Sub(v11).Normalize()
	localNormal := RPerp(localTangent)
	planePoint := v11.Add(v12).Mul(0.5)

	tangent := Rotate(refXf.Q, localTangent)
	normal := RPerp(tangent)

	v11w := refXf.Apply(v11)
	v12w := refXf.Apply(v12)

	sideOffset1 := -tangent.Dot(v11w) + totalRadius
	sideOffset2 := tangent.Dot(v12w) + totalRadius

	in := [2]clipVertex{
		{v: incEdge[0].v, feature: incEdge[0].feature},
		{v: incEdge[1].v, feature: incEdge[1].feature},
	}

	clip1, n1 := clipSegmentToLine(in, tangent.Mul(-1), sideOffset1, uint8(refEdge))
	if n1 < 2 {
		return Manifold{Type: ManifoldUnset}
	}
	clip2, n2 := clipSegmentToLine(clip1, tangent, sideOffset2, uint8((refEdge+1)%count))
	if n2 < 2 {
		return Manifold{Type: ManifoldUnset}
	}

	points := make([]ManifoldPoint, 0, 2)
	for i := 0; i < 2; i++ {
		separation := normal.Dot(clip2[i].v.Sub(v11w)) - totalRadius
		if separation > 0 {
			continue
		}
		localP := refXf.ApplyInverse(clip2[i].v)
		f := clip2[i].feature
		if flip {
			f.TypeA, f.TypeB = f.TypeB, f.TypeA
			f.IndexA, f.IndexB = f.IndexB, f.IndexA
		}
		points = append(points, ManifoldPoint{LocalPoint: localP, Feature: f})
	}

	if len(points) == 0 {
		return Manifold{Type: ManifoldUnset}
	}

	mt := ManifoldFaceA
	if flip {
		mt = ManifoldFaceB
	}
	return Manifold{Type: mt, LocalNormal: localNormal, LocalPoint: planePoint, Points: points}
}

// findIncidentEdge locates the edge of incProxy most anti-parallel to
// the reference proxy's refEdge normal (Box2D b2FindIncidentEdge).
func findIncidentEdge(refProxy DistanceProxy, refXf Transform, refEdge int, incProxy DistanceProxy, incXf Transform) [2]clipVertex {
	refNormal := Rotate(refXf.Q, refProxy.Normals[refEdge])
	refNormalLocal := InvRotate(incXf.Q, refNormal)

	count := len(incProxy.Vertices)
	index := 0
	minDot := math.Inf(1)
	for i := 0; i < count; i++ {
		dot := refNormalLocal.Dot(incProxy.Normals[i])
		if dot < minDot {
			minDot = dot
			index = i
		}
	}

	i1 := index
	i2 := (index + 1) % count
	return [2]clipVertex{
		{v: incXf.Apply(incProxy.Vertices[i1]), feature: ContactFeature{IndexB: uint8(i1), TypeB: featureVertex}},
		{v: incXf.Apply(incProxy.Vertices[i2]), feature: ContactFeature{IndexB: uint8(i2), TypeB: featureVertex}},
	}
}

// isCircleLike reports whether a proxy is a single-point (radius > 0)
// shape, i.e. a circle.
func isCircleLike(p DistanceProxy) bool {
	return len(p.Vertices) == 1
}

// CollideShapes dispatches to the right narrow-phase routine for a shape
// pair by inspecting their proxies' vertex counts, and normalizes the
// result so Contact can always treat "A" as shapeA regardless of which
// concrete routine actually ran (§4.4).
func CollideShapes(shapeA *Shape, xfA Transform, shapeB *Shape, xfB Transform) Manifold {
	proxyA := shapeA.Proxy(0)
	proxyB := shapeB.Proxy(0)

	aCircle := isCircleLike(proxyA)
	bCircle := isCircleLike(proxyB)

	switch {
	case aCircle && bCircle:
		return CollideCircles(proxyA, xfA, proxyB, xfB)
	case !aCircle && bCircle:
		return CollidePolygonAndCircle(proxyA, xfA, proxyB, xfB)
	case aCircle && !bCircle:
		m := CollidePolygonAndCircle(proxyB, xfB, proxyA, xfA)
		return flipManifold(m)
	default:
		return CollidePolygons(proxyA, xfA, proxyB, xfB)
	}
}

// flipManifold swaps the A/B roles of a manifold produced by running a
// routine with its arguments reversed.
func flipManifold(m Manifold) Manifold {
	if m.Type == ManifoldUnset {
		return m
	}
	switch m.Type {
	case ManifoldFaceA:
		m.Type = ManifoldFaceB
	case ManifoldFaceB:
		m.Type = ManifoldFaceA
	}
	for i := range m.Points {
		f := &m.Points[i].Feature
		f.TypeA, f.TypeB = f.TypeB, f.TypeA
		f.IndexA, f.IndexB = f.IndexB, f.IndexA
	}
	return m
}

// WorldManifold expands a local-frame Manifold into world-space points
// and a world normal, splitting the gap between the two surfaces evenly
// per point (Box2D b2WorldManifold, used by the velocity/position solvers
// to build per-point anchors).
type WorldManifold struct {
	Normal Vector
	Points []Vector
	Separations []float64
}

func ComputeWorldManifold(m Manifold, xfA Transform, radiusA float64, xfB Transform, radiusB float64) WorldManifold {
	if len(m.Points) == 0 {
		return WorldManifold{}
	}

	var normal Vector
	wm := WorldManifold{Points: make([]Vector, len(m.Points)), Separations: make([]float64, len(m.Points))}

	switch m.Type {
	case ManifoldCircles:
		normal = Vector{1, 0}
		pointA := xfA.Apply(m.LocalPoint)
		pointB := xfB.Apply(m.Points[0].LocalPoint)
		if pointA.Sub(pointB).LenSqr() > 1e-18 {
			normal = pointB.Sub(pointA).Normalize()
		}
		cA := pointA.Add(normal.Mul(radiusA))
		cB := pointB.Sub(normal.Mul(radiusB))
		wm.Normal = normal
		wm.Points[0] = cA.Add(cB).Mul(0.5)
		wm.Separations[0] = cB.Sub(cA).Dot(normal)
	case ManifoldFaceA:
		normal = Rotate(xfA.Q, m.LocalNormal)
		planePoint := xfA.Apply(m.LocalPoint)
		for i, p := range m.Points {
			clipPoint := xfB.Apply(p.LocalPoint)
			cA := clipPoint.Add(normal.Mul(radiusA - clipPoint.Sub(planePoint).Dot(normal)))
			cB := clipPoint.Sub(normal.Mul(radiusB))
			wm.Points[i] = cA.Add(cB).Mul(0.5)
			wm.Separations[i] = clipPoint.Sub(planePoint).Dot(normal) - radiusA - radiusB
		}
		wm.Normal = normal
	case ManifoldFaceB:
		normal = Rotate(xfB.Q, m.LocalNormal)
		planePoint := xfB.Apply(m.LocalPoint)
		for i, p := range m.Points {
			clipPoint := xfA.Apply(p.LocalPoint)
			cB := clipPoint.Add(normal.Mul(radiusB - clipPoint.Sub(planePoint).Dot(normal)))
			cA := clipPoint.Sub(normal.Mul(radiusA))
			wm.Points[i] = cA.Add(cB).Mul(0.5)
			wm.Separations[i] = clipPoint.Sub(planePoint).Dot(normal) - radiusA - radiusB
		}
		// Box2D negates the normal for FaceB so it always points from A to B.
		wm.Normal = normal.Mul(-1)
	}

	return wm
}
