package ray

import (
	"math"

	"spheretrace/vmath/vec3"
)

// Span is a closed parametric interval [Lo, Hi] along a ray.
type Span struct {
	Lo, Hi float64
}

func (s Span) Contains(t float64) bool {
	return s.Lo <= t && t <= s.Hi
}

func (s Span) IsNaN() bool {
	return math.IsNaN(s.Lo) || math.IsNaN(s.Hi)
}

// Ray is the set of points Point + t*Slope.  Slope is not required to be
// normalized.
type Ray struct {
	Point vec3.T
	Slope vec3.T
}

func (r *Ray) Eval(t float64) vec3.T {
	return vec3.T{
		r.Point[0] + t*r.Slope[0],
		r.Point[1] + t*r.Slope[1],
		r.Point[2] + t*r.Slope[2],
	}
}

type RaySegment struct {
	TheRay     Ray
	TheSegment Span
}
