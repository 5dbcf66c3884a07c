package scene

import (
	"errors"
	"fmt"
	"math"

	"spheretrace/vmath/vec3"
)

var ErrBadOptions = errors.New("invalid trace options")

// Policy selects how the colors seen along one ray are combined.
type Policy int

const (
	// WeightedAverage weights the i-th observed color by 1/2^(i+1), doubling
	// the last weight so the weights sum to one.
	WeightedAverage Policy = iota

	// Multiplicative multiplies the colors channel by channel, each normalized
	// to [0, 1].
	Multiplicative
)

func (p Policy) String() string {
	switch p {
	case WeightedAverage:
		return "average"
	case Multiplicative:
		return "multiply"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "average":
		return WeightedAverage, nil
	case "multiply":
		return Multiplicative, nil
	}
	return 0, fmt.Errorf("%w: unknown color policy %q", ErrBadOptions, s)
}

// Model selects the shading algorithm.
type Model int

const (
	// Bounce follows reflected and scattered rays, blending the colors seen.
	Bounce Model = iota

	// Direct shades the first hit by its shadow-tested Lambertian illumination.
	Direct
)

func (m Model) String() string {
	switch m {
	case Bounce:
		return "bounce"
	case Direct:
		return "direct"
	}
	return fmt.Sprintf("Model(%d)", int(m))
}

func ParseModel(s string) (Model, error) {
	switch s {
	case "bounce":
		return Bounce, nil
	case "direct":
		return Direct, nil
	}
	return 0, fmt.Errorf("%w: unknown shading model %q", ErrBadOptions, s)
}

type TraceOptions struct {
	MaxBounces int

	// Epsilon is the minimum distance along a ray for a hit to count, and the
	// distance bounce origins are lifted off a surface.
	Epsilon float64

	Policy     Policy
	Model      Model
	Background vec3.T
}

func (o *TraceOptions) Validate() error {
	if o.MaxBounces <= 0 {
		return fmt.Errorf("%w: max bounces %d must be positive", ErrBadOptions, o.MaxBounces)
	}
	if !(o.Epsilon > 0) || math.IsInf(o.Epsilon, 1) {
		return fmt.Errorf("%w: epsilon %v must be positive and finite", ErrBadOptions, o.Epsilon)
	}
	if o.Policy != WeightedAverage && o.Policy != Multiplicative {
		return fmt.Errorf("%w: unknown color policy %v", ErrBadOptions, o.Policy)
	}
	if o.Model != Bounce && o.Model != Direct {
		return fmt.Errorf("%w: unknown shading model %v", ErrBadOptions, o.Model)
	}
	return nil
}

// Compose folds the colors seen along a ray, nearest first, into one.
func Compose(colors []vec3.T, policy Policy) vec3.T {
	if len(colors) == 0 {
		panic("scene: Compose called without colors")
	}

	switch policy {
	case Multiplicative:
		result := colors[0]
		for _, c := range colors[1:] {
			result = vec3.MulVS(vec3.MulVV(vec3.DivVS(result, 256), vec3.DivVS(c, 256)), 256)
		}
		return result

	case WeightedAverage:
		result := vec3.T{}
		weight := 0.5
		for _, c := range colors {
			result = vec3.AddVV(result, vec3.MulVS(c, weight))
			weight /= 2
		}
		// The last color takes the remaining weight, which equals its own.
		return vec3.AddVV(result, vec3.MulVS(colors[len(colors)-1], 2*weight))
	}

	panic(fmt.Sprintf("scene: unknown color policy %v", policy))
}
