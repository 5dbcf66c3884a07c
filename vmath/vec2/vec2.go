package vec2

import (
	"math"
	"math/rand"
)

type T [2]float64

func (v T) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1])
}

func MulVS(a T, b float64) T {
	return T{a[0] * b, a[1] * b}
}

// RandomInUnitDisk rejection-samples a point from the closed unit disk.
func RandomInUnitDisk(rng *rand.Rand) T {
	for {
		x := 2*rng.Float64() - 1
		y := 2*rng.Float64() - 1
		if x*x+y*y > 1 {
			continue
		}
		return T{x, y}
	}
}
