package material

import (
	"errors"
	"fmt"
	"math/rand"

	"spheretrace/vmath/vec3"
)

var (
	ErrBadRoughness = errors.New("roughness must lie in [0, 1]")
	ErrBadColor     = errors.New("color channels must lie in [0, 255]")
)

// Surface mixes a mirror bounce with a diffuse one.  Roughness 0 is a perfect
// mirror, roughness 1 is fully diffuse.
type Surface struct {
	Color     vec3.T
	Roughness float64
}

func NewSurface(color vec3.T, roughness float64) (*Surface, error) {
	s := &Surface{Color: color, Roughness: roughness}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Surface) Validate() error {
	if !(0 <= s.Roughness && s.Roughness <= 1) {
		return fmt.Errorf("%w: got %v", ErrBadRoughness, s.Roughness)
	}
	for _, c := range s.Color {
		if !(0 <= c && c <= 255) {
			return fmt.Errorf("%w: got %v", ErrBadColor, s.Color)
		}
	}
	return nil
}

// Bounce picks the direction of the ray leaving the surface, given the
// direction of the arriving ray and the unit surface normal.
func (s *Surface) Bounce(incoming, normal vec3.T, rng *rand.Rand) vec3.T {
	clean := vec3.ReflectAround(vec3.Neg(incoming), normal)

	// Mirrors don't draw from rng.
	if s.Roughness == 0 {
		return clean
	}

	diffuse := vec3.RandomInHemisphere(normal, rng)
	return vec3.Lerp(clean, diffuse, s.Roughness)
}
