package contact

import (
	"math"

	"spheretrace/ray"
	"spheretrace/vmath/vec3"
)

// Contact records where a ray met a scene element.
type Contact struct {
	T float64
	R ray.Ray
	P vec3.T
	N vec3.T

	// Index of the element in the scene's element list.
	Index int
}

func ContactNaN() Contact {
	return Contact{
		T:     math.NaN(),
		Index: -1,
	}
}

func (c Contact) IsNaN() bool {
	return math.IsNaN(c.T)
}

// Lift returns the contact point pushed off the surface along the normal by
// eps.
func (c Contact) Lift(eps float64) vec3.T {
	return vec3.AddVV(c.P, vec3.MulVS(c.N, eps))
}
