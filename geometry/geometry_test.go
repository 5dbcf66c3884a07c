package geometry

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"spheretrace/ray"
	"spheretrace/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func query(p, v vec3.T, lo, hi float64) ray.RaySegment {
	return ray.RaySegment{
		TheRay:     ray.Ray{Point: p, Slope: v},
		TheSegment: ray.Span{Lo: lo, Hi: hi},
	}
}

func TestNewSphereRejectsBadRadius(t *testing.T) {
	for _, r := range []float64{0, -1, math.NaN()} {
		if _, err := NewSphere(vec3.T{}, r); !errors.Is(err, ErrBadRadius) {
			t.Errorf("NewSphere(radius=%v): got %v, want %v", r, err, ErrBadRadius)
		}
	}
}

func TestSphereValidate(t *testing.T) {
	for _, s := range []*Sphere{
		{Radius: -1},
		{Radius: math.Inf(1)},
		{Center: vec3.T{math.NaN(), 0, 0}, Radius: 1},
	} {
		if err := s.Validate(); err == nil {
			t.Errorf("%v: Validate accepted it", s)
		}
	}

	if err := (&Sphere{Center: vec3.T{1, 2, 3}, Radius: 0.1}).Validate(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestRayFromCenterHitsBoundary(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := &Sphere{Center: vec3.T{1, -2, 3}, Radius: 2.5}

	for i := 0; i < 100; i++ {
		dir := vec3.MustUnit(vec3.T{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()})
		got := s.RayInto(query(s.Center, dir, 0, math.Inf(1)))
		if math.Abs(got-s.Radius) > 1e-9 {
			t.Errorf("Ray from center along %v hit at t=%v, want %v", dir, got, s.Radius)
		}
	}
}

func TestRayPointingAwayMisses(t *testing.T) {
	s := &Sphere{Center: vec3.T{0, 0, 0}, Radius: 1}

	got := s.RayInto(query(vec3.T{5, 0, 0}, vec3.T{1, 0, 0}, 0, math.Inf(1)))
	if !math.IsNaN(got) {
		t.Errorf("Ray pointing away from the sphere hit at t=%v", got)
	}
}

func TestRayMissesOffAxis(t *testing.T) {
	s := &Sphere{Center: vec3.T{0, 0, 0}, Radius: 1}

	got := s.RayInto(query(vec3.T{5, 0, 2}, vec3.T{-1, 0, 0}, 0, math.Inf(1)))
	if !math.IsNaN(got) {
		t.Errorf("Ray passing above the sphere hit at t=%v", got)
	}
}

func TestNearestValidRoot(t *testing.T) {
	s := &Sphere{Center: vec3.T{0, 0, 0}, Radius: 1}
	p := vec3.T{5, 0, 0}
	v := vec3.T{-2, 0, 0}

	for _, tc := range []struct {
		name   string
		lo, hi float64
		want   float64
	}{
		{"both valid", 0, math.Inf(1), 2},
		{"near root excluded", 2.5, math.Inf(1), 3},
		{"far root excluded", 0, 2.5, 2},
		{"both excluded", 0, 1, math.NaN()},
		{"beyond both", 3.5, math.Inf(1), math.NaN()},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := s.RayInto(query(p, v, tc.lo, tc.hi))
			if diff := cmp.Diff(got, tc.want, approx, cmpopts.EquateNaNs()); diff != "" {
				t.Errorf("Bad root; diff (-got +want)\n%s", diff)
			}
		})
	}
}

func TestZeroSlopeFallback(t *testing.T) {
	s := &Sphere{Center: vec3.T{0, 0, 0}, Radius: 1}

	// a == 0 and b == 0, so -c/b divides by zero.  The value is whatever IEEE
	// arithmetic gives; only check that no panic happens and it isn't finite.
	got := s.RayInto(query(vec3.T{5, 0, 0}, vec3.T{}, 0, math.Inf(1)))
	if !math.IsInf(got, 0) && !math.IsNaN(got) {
		t.Errorf("Zero slope gave finite t=%v", got)
	}
}

func TestSurfaceNormal(t *testing.T) {
	s := &Sphere{Center: vec3.T{1, 1, 1}, Radius: 2}

	if diff := cmp.Diff(s.SurfaceNormal(vec3.T{3, 1, 1}), vec3.T{1, 0, 0}, approx); diff != "" {
		t.Errorf("Bad normal on surface; diff (-got +want)\n%s", diff)
	}

	// Off-surface points are projected radially.
	if diff := cmp.Diff(s.SurfaceNormal(vec3.T{1, 11, 1}), vec3.T{0, 1, 0}, approx); diff != "" {
		t.Errorf("Bad normal off surface; diff (-got +want)\n%s", diff)
	}

	n := s.SurfaceNormal(s.Center)
	if !math.IsNaN(n[0]) || !math.IsNaN(n[1]) || !math.IsNaN(n[2]) {
		t.Errorf("Normal at center should be NaN, got %v", n)
	}
}
