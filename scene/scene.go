package scene

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"spheretrace/camera"
	"spheretrace/contact"
	"spheretrace/geometry"
	"spheretrace/material"
	"spheretrace/ray"
	"spheretrace/vmath/vec3"
)

var ErrBadScene = errors.New("invalid scene")

// Element is a renderable object: a surface shape and what it looks like.
type Element struct {
	TheGeometry geometry.Geometry
	TheMaterial *material.Surface
}

// Light is a point light.  It has no intensity; it only decides shadowing and
// Lambertian weighting.
type Light struct {
	Position vec3.T
}

// Scene is immutable once built, so a single Scene may be traced from many
// goroutines at once.
type Scene struct {
	Camera   camera.Camera
	Elements []*Element
	Lights   []Light
}

func New(cam camera.Camera, elements []*Element, lights []Light) (*Scene, error) {
	if cam == nil {
		return nil, fmt.Errorf("%w: no camera", ErrBadScene)
	}
	for i, e := range elements {
		if e == nil || e.TheGeometry == nil || e.TheMaterial == nil {
			return nil, fmt.Errorf("%w: element %d is incomplete", ErrBadScene, i)
		}
		if err := e.TheGeometry.Validate(); err != nil {
			return nil, fmt.Errorf("%w: element %d geometry: %w", ErrBadScene, i, err)
		}
		if err := e.TheMaterial.Validate(); err != nil {
			return nil, fmt.Errorf("%w: element %d material: %w", ErrBadScene, i, err)
		}
	}

	s := &Scene{
		Camera:   cam,
		Elements: make([]*Element, len(elements)),
		Lights:   make([]Light, len(lights)),
	}
	copy(s.Elements, elements)
	copy(s.Lights, lights)
	return s, nil
}

// SceneRayIntersect finds the element whose surface the query meets first.
// Ties go to the element listed first.
func (s *Scene) SceneRayIntersect(query ray.RaySegment) contact.Contact {
	minContact := contact.ContactNaN()

	for i, elt := range s.Elements {
		t := elt.TheGeometry.RayInto(query)
		if math.IsNaN(t) || !query.TheSegment.Contains(t) {
			continue
		}
		if !minContact.IsNaN() && t >= minContact.T {
			continue
		}
		minContact.T = t
		minContact.Index = i
		query.TheSegment.Hi = t
	}

	if minContact.IsNaN() {
		return minContact
	}

	p := query.TheRay.Eval(minContact.T)
	minContact.R = query.TheRay
	minContact.P = p
	minContact.N = s.Elements[minContact.Index].TheGeometry.SurfaceNormal(p)
	return minContact
}

// Occluded reports whether anything lies strictly between p and the light.
func (s *Scene) Occluded(p vec3.T, l Light, eps float64) bool {
	query := ray.RaySegment{
		TheRay: ray.Ray{
			Point: p,
			Slope: vec3.SubVV(l.Position, p),
		},
		TheSegment: ray.Span{Lo: eps, Hi: math.Nextafter(1, 0)},
	}

	for _, elt := range s.Elements {
		t := elt.TheGeometry.RayInto(query)
		if !math.IsNaN(t) && query.TheSegment.Contains(t) {
			return true
		}
	}
	return false
}

// Illumination is the mean Lambertian factor over all lights at point p with
// unit normal n.  Occluded lights contribute nothing.  A scene without lights
// is dark.
func (s *Scene) Illumination(p, n vec3.T, eps float64) float64 {
	if len(s.Lights) == 0 {
		return 0
	}

	total := 0.0
	for _, l := range s.Lights {
		if s.Occluded(p, l, eps) {
			continue
		}
		toLight, err := vec3.Unit(vec3.SubVV(l.Position, p))
		if err != nil {
			// The light sits on the point; it can't shine on it from any side.
			continue
		}
		total += math.Max(0, vec3.IProd(n, toLight))
	}
	return total / float64(len(s.Lights))
}

// ObservedColors follows a ray through at most opts.MaxBounces surface
// interactions, recording the color seen at each.  A miss records the
// background and ends the walk.
func (s *Scene) ObservedColors(initial ray.Ray, opts *TraceOptions, rng *rand.Rand) []vec3.T {
	colors := make([]vec3.T, 0, opts.MaxBounces)
	curRay := initial

	for i := 0; i < opts.MaxBounces; i++ {
		hit := s.SceneRayIntersect(ray.RaySegment{
			TheRay:     curRay,
			TheSegment: ray.Span{Lo: opts.Epsilon, Hi: math.Inf(1)},
		})
		if hit.IsNaN() {
			colors = append(colors, opts.Background)
			break
		}

		surface := s.Elements[hit.Index].TheMaterial
		colors = append(colors, surface.Color)

		curRay = ray.Ray{
			Point: hit.Lift(opts.Epsilon),
			Slope: surface.Bounce(curRay.Slope, hit.N, rng),
		}
	}

	return colors
}

// ShadeDirect is the single-bounce model: the first surface hit, dimmed by its
// illumination from the scene's lights.
func (s *Scene) ShadeDirect(initial ray.Ray, opts *TraceOptions) vec3.T {
	hit := s.SceneRayIntersect(ray.RaySegment{
		TheRay:     initial,
		TheSegment: ray.Span{Lo: opts.Epsilon, Hi: math.Inf(1)},
	})
	if hit.IsNaN() {
		return opts.Background
	}

	surface := s.Elements[hit.Index].TheMaterial
	return vec3.MulVS(surface.Color, s.Illumination(hit.Lift(opts.Epsilon), hit.N, opts.Epsilon))
}

// SampleRay computes the color carried back along initial.  It also returns
// the number of primary and bounce rays traced.
func (s *Scene) SampleRay(initial ray.Ray, opts *TraceOptions, rng *rand.Rand) (vec3.T, int) {
	switch opts.Model {
	case Direct:
		return s.ShadeDirect(initial, opts), 1
	case Bounce:
		colors := s.ObservedColors(initial, opts, rng)
		return Compose(colors, opts.Policy), len(colors)
	}
	panic(fmt.Sprintf("scene: unknown shading model %v", opts.Model))
}
