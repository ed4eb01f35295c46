package physics

import "math"

// ToiState is the terminal outcome of GetToi (§4.5).
type ToiState int

const (
	ToiStateUnknown ToiState = iota
	ToiStateFailed
	ToiStateOverlapped
	ToiStateTouching
	ToiStateSeparated
	// ToiStateMaxToiIters and ToiStateNextAfter are diagnostic exhaustion
	// states, not failures: the caller still gets a usable (conservative)
	// Time, just one the root finder couldn't refine further (§7).
	ToiStateMaxToiIters
	ToiStateNextAfter
)

func (s ToiState) String() string {
	switch s {
	case ToiStateFailed:
		return "failed"
	case ToiStateOverlapped:
		return "overlapped"
	case ToiStateTouching:
		return "touching"
	case ToiStateSeparated:
		return "separated"
	case ToiStateMaxToiIters:
		return "max-toi-iters"
	case ToiStateNextAfter:
		return "next-after"
	default:
		return "unknown"
	}
}

// ToiConf configures GetToi.
type ToiConf struct {
	TMax float64

	// TargetDepth is the allowed penetration depth below the proxies'
	// combined radius that still counts as "touching" rather than
	// "overlapped" (Box2D's hard-coded 3*linearSlop, made configurable).
	TargetDepth float64
	Tolerance   float64

	MaxToiIters  int
	MaxRootIters int
}

// DefaultToiConf mirrors Box2D's b2TimeOfImpact constants.
func DefaultToiConf() ToiConf {
	return ToiConf{
		TMax:         1,
		TargetDepth:  3 * linearSlop,
		Tolerance:    0.25 * linearSlop,
		MaxToiIters:  20,
		MaxRootIters: 50,
	}
}

// ToiStats carries iteration counters for diagnostics (§4.5).
type ToiStats struct {
	ToiIters        int
	SumRootIters    int
	MaxRootItersHit int
	SumDistIters    int
}

// ToiOutput is GetToi's result: the terminal State, the time t in
// [0,1] it was determined at, and diagnostic Stats.
type ToiOutput struct {
	State ToiState
	Time  float64
	Stats ToiStats
}

// GetToi runs conservative advancement between two swept convex proxies,
// returning the first time in [0, conf.TMax] at which their separation
// along some witness axis reaches conf.TargetDepth (§4.5). Proxies whose
// cores already overlap at t=0 report Overlapped at Time 0; proxies
// within tolerance of touching report Touching at the time found.
func GetToi(proxyA DistanceProxy, sweepA Sweep, proxyB DistanceProxy, sweepB Sweep, conf ToiConf) ToiOutput {
	var stats ToiStats

	totalRadius := proxyA.Radius + proxyB.Radius
	if conf.TargetDepth > totalRadius {
		return ToiOutput{State: ToiStateFailed, Time: 0, Stats: stats}
	}

	target := math.Max(linearSlop, totalRadius-conf.TargetDepth)
	tolerance := conf.Tolerance
	if math.IsInf((target-tolerance)*(target-tolerance), 0) || math.IsInf((target+tolerance)*(target+tolerance), 0) {
		return ToiOutput{State: ToiStateFailed, Time: 0, Stats: stats}
	}

	t1 := math.Max(sweepA.Alpha0, sweepB.Alpha0)
	tMax := conf.TMax

	var cache SimplexCache

	for iter := 0; ; iter++ {
		xfA := sweepA.GetTransform(t1)
		xfB := sweepB.GetTransform(t1)

		distOut := Distance(&cache, DistanceInput{ProxyA: proxyA, ProxyB: proxyB, TransformA: xfA, TransformB: xfB, UseRadii: false})
		stats.SumDistIters += distOut.Iterations

		if distOut.Distance <= 0 {
			return ToiOutput{State: ToiStateOverlapped, Time: 0, Stats: stats}
		}
		if distOut.Distance < target+tolerance {
			return ToiOutput{State: ToiStateTouching, Time: t1, Stats: stats}
		}

		sepFunc := newSeparationFunction(&cache, proxyA, sweepA, proxyB, sweepB, t1)

		done := false
		failed := false
		touched := false
		exhausted := false
		t2 := tMax
		pushBackIter := 0
		for {
			indexA, indexB, s2 := sepFunc.findMinSeparation(t2)
			if s2 > target+tolerance {
				done = true
				break
			}
			if s2 > target-tolerance {
				t1 = t2
				break
			}

			s1 := sepFunc.evaluate(indexA, indexB, t1)
			if s1 < target-tolerance {
				failed = true
				done = true
				break
			}
			if s1 <= target+tolerance {
				touched = true
				done = true
				break
			}

			if math.Nextafter(t1, t2) >= t2 {
				exhausted = true
				break
			}

			rootIterCount := 0
			a1, a2 := t1, t2
			for {
				var t float64
				if rootIterCount&1 != 0 {
					t = a1 + (target-s1)*(a2-a1)/(s2-s1)
				} else {
					t = 0.5 * (a1 + a2)
				}
				rootIterCount++
				stats.SumRootIters++

				s := sepFunc.evaluate(indexA, indexB, t)
				if math.Abs(s-target) < tolerance {
					t2 = t
					break
				}
				if s > target {
					a1 = t
					s1 = s
				} else {
					a2 = t
					s2 = s
				}
				if rootIterCount == conf.MaxRootIters {
					break
				}
			}
			if rootIterCount > stats.MaxRootItersHit {
				stats.MaxRootItersHit = rootIterCount
			}

			pushBackIter++
			if pushBackIter == MaxPolygonVertices {
				break
			}
		}

		stats.ToiIters++

		if failed {
			return ToiOutput{State: ToiStateFailed, Time: t1, Stats: stats}
		}
		if touched {
			return ToiOutput{State: ToiStateTouching, Time: t1, Stats: stats}
		}
		if done {
			return ToiOutput{State: ToiStateSeparated, Time: tMax, Stats: stats}
		}

		if exhausted {
			return ToiOutput{State: ToiStateNextAfter, Time: t1, Stats: stats}
		}

		if iter+1 >= conf.MaxToiIters {
			return ToiOutput{State: ToiStateMaxToiIters, Time: t1, Stats: stats}
		}
	}
}

type sepFuncKind int

const (
	sepPoints sepFuncKind = iota
	sepFaceA
	sepFaceB
)

// separationFunction evaluates the signed separation along one fixed
// witness axis, chosen once from the GJK simplex at t1, as a function of
// t (Box2D b2SeparationFunction).
type separationFunction struct {
	proxyA, proxyB DistanceProxy
	sweepA, sweepB Sweep

	kind       sepFuncKind
	axis       Vector
	localPoint Vector
}

func newSeparationFunction(cache *SimplexCache, proxyA DistanceProxy, sweepA Sweep, proxyB DistanceProxy, sweepB Sweep, t1 float64) separationFunction {
	xfA := sweepA.GetTransform(t1)
	xfB := sweepB.GetTransform(t1)

	f := separationFunction{proxyA: proxyA, proxyB: proxyB, sweepA: sweepA, sweepB: sweepB}

	count := cache.count
	switch {
	case count == 1:
		localPointA := proxyA.Vertex(cache.indexA[0])
		localPointB := proxyB.Vertex(cache.indexB[0])
		pointA := xfA.Apply(localPointA)
		pointB := xfB.Apply(localPointB)
		axis := pointB.Sub(pointA)
		if axis.LenSqr() > 1e-18 {
			axis = axis.Normalize()
		} else {
			axis = Vector{1, 0}
		}
		f.kind = sepPoints
		f.axis = axis
	case cache.indexA[0] == cache.indexA[1]:
		localPointB1 := proxyB.Vertex(cache.indexB[0])
		localPointB2 := proxyB.Vertex(cache.indexB[1])
		axis := RPerp(localPointB2.Sub(localPointB1)).Normalize()
		normal := Rotate(xfB.Q, axis)
		localPoint := Lerp(localPointB1, localPointB2, 0.5)
		pointB := xfB.Apply(localPoint)

		localPointA := proxyA.Vertex(cache.indexA[0])
		pointA := xfA.Apply(localPointA)

		s := pointA.Sub(pointB).Dot(normal)
		if s < 0 {
			axis = axis.Mul(-1)
		}
		f.kind = sepFaceB
		f.axis = axis
		f.localPoint = localPoint
	default:
		localPointA1 := proxyA.Vertex(cache.indexA[0])
		localPointA2 := proxyA.Vertex(cache.indexA[1])
		axis := RPerp(localPointA2.Sub(localPointA1)).Normalize()
		normal := Rotate(xfA.Q, axis)
		localPoint := Lerp(localPointA1, localPointA2, 0.5)
		pointA := xfA.Apply(localPoint)

		localPointB := proxyB.Vertex(cache.indexB[0])
		pointB := xfB.Apply(localPointB)

		s := pointB.Sub(pointA).Dot(normal)
		if s < 0 {
			axis = axis.Mul(-1)
		}
		f.kind = sepFaceA
		f.axis = axis
		f.localPoint = localPoint
	}

	return f
}

// findMinSeparation returns the support-point indices that minimize
// separation along the witness axis at time t, and that separation.
func (f *separationFunction) findMinSeparation(t float64) (indexA, indexB int, separation float64) {
	xfA := f.sweepA.GetTransform(t)
	xfB := f.sweepB.GetTransform(t)

	switch f.kind {
	case sepPoints:
		axisA := InvRotate(xfA.Q, f.axis)
		axisB := InvRotate(xfB.Q, f.axis.Mul(-1))
		indexA = f.proxyA.GetSupport(axisA)
		indexB = f.proxyB.GetSupport(axisB)
		pointA := xfA.Apply(f.proxyA.Vertex(indexA))
		pointB := xfB.Apply(f.proxyB.Vertex(indexB))
		separation = pointB.Sub(pointA).Dot(f.axis)
		return
	case sepFaceA:
		normal := Rotate(xfA.Q, f.axis)
		pointA := xfA.Apply(f.localPoint)
		axisB := InvRotate(xfB.Q, normal.Mul(-1))
		indexB = f.proxyB.GetSupport(axisB)
		indexA = -1
		pointB := xfB.Apply(f.proxyB.Vertex(indexB))
		separation = pointB.Sub(pointA).Dot(normal)
		return
	default: // sepFaceB
		normal := Rotate(xfB.Q, f.axis)
		pointB := xfB.Apply(f.localPoint)
		axisA := InvRotate(xfA.Q, normal.Mul(-1))
		indexA = f.proxyA.GetSupport(axisA)
		indexB = -1
		pointA := xfA.Apply(f.proxyA.Vertex(indexA))
		separation = pointA.Sub(pointB).Dot(normal)
		return
	}
}

// evaluate computes the separation at time t for a fixed witness-point
// pair already chosen by findMinSeparation.
func (f *separationFunction) evaluate(indexA, indexB int, t float64) float64 {
	xfA := f.sweepA.GetTransform(t)
	xfB := f.sweepB.GetTransform(t)

	switch f.kind {
	case sepPoints:
		pointA := xfA.Apply(f.proxyA.Vertex(indexA))
		pointB := xfB.Apply(f.proxyB.Vertex(indexB))
		return pointB.Sub(pointA).Dot(f.axis)
	case sepFaceA:
		normal := Rotate(xfA.Q, f.axis)
		pointA := xfA.Apply(f.localPoint)
		pointB := xfB.Apply(f.proxyB.Vertex(indexB))
		return pointB.Sub(pointA).Dot(normal)
	default: // sepFaceB
		normal := Rotate(xfB.Q, f.axis)
		pointB := xfB.Apply(f.localPoint)
		pointA := xfA.Apply(f.proxyA.Vertex(indexA))
		return pointA.Sub(pointB).Dot(normal)
	}
}
