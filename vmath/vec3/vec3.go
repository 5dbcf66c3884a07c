package vec3

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrZeroMagnitude is returned when a unit vector is requested for the zero
// vector.
var ErrZeroMagnitude = errors.New("vector has zero magnitude")

type T [3]float64

func (v T) Norm() float64 {
	return math.Sqrt(v.NormSquared())
}

func (v T) NormSquared() float64 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

func (v T) String() string {
	return fmt.Sprintf("(%v, %v, %v)", v[0], v[1], v[2])
}

// Unit returns v scaled to length 1.
func Unit(v T) (T, error) {
	l := v.Norm()
	if l == 0 {
		return T{}, ErrZeroMagnitude
	}
	return DivVS(v, l), nil
}

// MustUnit is Unit for callers that guarantee v is nonzero.  It panics
// otherwise.
func MustUnit(v T) T {
	u, err := Unit(v)
	if err != nil {
		panic(err)
	}
	return u
}

func AddVV(a, b T) T {
	return T{
		a[0] + b[0],
		a[1] + b[1],
		a[2] + b[2],
	}
}

func SubVV(a, b T) T {
	return T{
		a[0] - b[0],
		a[1] - b[1],
		a[2] - b[2],
	}
}

func Neg(a T) T {
	return T{-a[0], -a[1], -a[2]}
}

func MulVS(a T, b float64) T {
	return T{
		a[0] * b,
		a[1] * b,
		a[2] * b,
	}
}

func DivVS(a T, b float64) T {
	return T{
		a[0] / b,
		a[1] / b,
		a[2] / b,
	}
}

// MulVV is the elementwise product.
func MulVV(a, b T) T {
	return T{
		a[0] * b[0],
		a[1] * b[1],
		a[2] * b[2],
	}
}

func IProd(a, b T) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func CProd(a, b T) T {
	return T{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Project returns the component of v along n.  n does not need to be
// normalized.
func Project(v, n T) T {
	return MulVS(n, IProd(v, n)/n.NormSquared())
}

// ReflectAround mirrors v about the axis n.
func ReflectAround(v, n T) T {
	return SubVV(MulVS(Project(v, n), 2), v)
}

// Lerp returns a*(1-k) + b*k.  k must lie in [0, 1].
func Lerp(a, b T, k float64) T {
	if k < 0 || k > 1 || math.IsNaN(k) {
		panic(fmt.Sprintf("vec3.Lerp: interpolation factor %v outside [0, 1]", k))
	}
	switch k {
	case 0:
		return a
	case 1:
		return b
	}
	return AddVV(MulVS(a, 1-k), MulVS(b, k))
}

// RandomInHemisphere rejection-samples a point of the unit ball lying on the
// same side as normal.  The result is not normalized.
func RandomInHemisphere(normal T, rng *rand.Rand) T {
	for {
		candidate := T{
			2 * (rng.Float64() - 0.5),
			2 * (rng.Float64() - 0.5),
			2 * (rng.Float64() - 0.5),
		}
		if candidate.NormSquared() > 1.0 {
			continue
		}
		if IProd(candidate, normal) < 0.0 {
			continue
		}
		return candidate
	}
}
