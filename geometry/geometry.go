package geometry

import (
	"errors"
	"fmt"
	"math"

	"spheretrace/ray"
	"spheretrace/vmath/vec3"
)

var ErrBadRadius = errors.New("sphere radius must be positive")

type Geometry interface {
	// RayInto returns the smallest t within query.TheSegment at which the ray
	// meets the surface, or NaN if there is none.
	RayInto(query ray.RaySegment) float64

	// SurfaceNormal returns the outward unit normal of the surface at the
	// surface point closest to p.
	SurfaceNormal(p vec3.T) vec3.T

	// Validate reports parameters the intersection math can't handle.
	Validate() error
}

type Sphere struct {
	Center vec3.T
	Radius float64
}

func NewSphere(center vec3.T, radius float64) (*Sphere, error) {
	s := &Sphere{Center: center, Radius: radius}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sphere) Validate() error {
	if !(s.Radius > 0) || math.IsInf(s.Radius, 1) {
		return fmt.Errorf("%w: got %v", ErrBadRadius, s.Radius)
	}
	for _, c := range s.Center {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("sphere center %v must be finite", s.Center)
		}
	}
	return nil
}

func (s *Sphere) String() string {
	return fmt.Sprintf("Sphere with center %v, radius %v", s.Center, s.Radius)
}

// RayInto solves |p + t*v - center|^2 = r^2 for t.
//
// A zero-length slope degenerates the quadratic; -c/b is returned unchecked in
// that case, so callers must not query with a zero slope.
func (s *Sphere) RayInto(query ray.RaySegment) float64 {
	p := query.TheRay.Point
	v := query.TheRay.Slope
	rel := vec3.SubVV(p, s.Center)

	a := v.NormSquared()
	b := 2 * vec3.IProd(rel, v)
	c := rel.NormSquared() - s.Radius*s.Radius

	if a == 0 {
		return -c / b
	}

	d := b*b - 4*a*c
	if d < 0 {
		return math.NaN()
	}

	sqrtD := math.Sqrt(d)
	tFar := (-b + sqrtD) / (2 * a)
	tNear := (-b - sqrtD) / (2 * a)

	if query.TheSegment.Contains(tNear) {
		return tNear
	}
	if query.TheSegment.Contains(tFar) {
		return tFar
	}
	return math.NaN()
}

// SurfaceNormal projects p radially onto the sphere.  At the center itself the
// direction is undefined and the result is NaN.
func (s *Sphere) SurfaceNormal(p vec3.T) vec3.T {
	return vec3.DivVS(vec3.SubVV(p, s.Center), vec3.SubVV(p, s.Center).Norm())
}
