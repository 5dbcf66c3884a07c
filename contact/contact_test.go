package contact

import (
	"testing"

	"spheretrace/vmath/vec3"

	"github.com/google/go-cmp/cmp"
)

func TestContactNaN(t *testing.T) {
	c := ContactNaN()
	if !c.IsNaN() {
		t.Errorf("ContactNaN().IsNaN() = false")
	}
	if c.Index != -1 {
		t.Errorf("Bad index; got %d, want -1", c.Index)
	}
}

func TestLift(t *testing.T) {
	c := Contact{T: 1, P: vec3.T{1, 2, 3}, N: vec3.T{0, 0, 1}}
	if diff := cmp.Diff(c.Lift(0.5), vec3.T{1, 2, 3.5}); diff != "" {
		t.Errorf("Bad lifted point; diff (-got +want)\n%s", diff)
	}
}
