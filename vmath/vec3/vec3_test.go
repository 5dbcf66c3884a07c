package vec3

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestArithmeticDoesNotMutate(t *testing.T) {
	a := T{1, 2, 3}
	b := T{1, 1, 1}

	if diff := cmp.Diff(SubVV(a, b), T{0, 1, 2}); diff != "" {
		t.Errorf("Bad SubVV; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(AddVV(a, b), T{2, 3, 4}); diff != "" {
		t.Errorf("Bad AddVV; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(Neg(a), T{-1, -2, -3}); diff != "" {
		t.Errorf("Bad Neg; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(MulVS(a, 2), T{2, 4, 6}); diff != "" {
		t.Errorf("Bad MulVS; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(a, T{1, 2, 3}); diff != "" {
		t.Errorf("Operand was mutated; diff (-got +want)\n%s", diff)
	}
}

func TestProducts(t *testing.T) {
	if got := IProd(T{1, 2, 3}, T{4, 5, 6}); got != 32 {
		t.Errorf("Bad IProd; got %v, want 32", got)
	}
	if diff := cmp.Diff(CProd(T{1, 0, 0}, T{0, 1, 0}), T{0, 0, 1}); diff != "" {
		t.Errorf("Bad CProd; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(MulVV(T{1, 2, 3}, T{4, 5, 6}), T{4, 10, 18}); diff != "" {
		t.Errorf("Bad MulVV; diff (-got +want)\n%s", diff)
	}
}

func TestUnitHasMagnitudeOne(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	for i := 0; i < 1000; i++ {
		v := T{
			1000 * (rng.Float64() - 0.5),
			1000 * (rng.Float64() - 0.5),
			1000 * (rng.Float64() - 0.5),
		}
		u, err := Unit(v)
		if err != nil {
			t.Fatalf("Unexpected error for %v: %v", v, err)
		}
		if math.Abs(u.Norm()-1) > 1e-9 {
			t.Errorf("Unit(%v) has magnitude %v", v, u.Norm())
		}
	}
}

func TestUnitOfZero(t *testing.T) {
	if _, err := Unit(T{}); !errors.Is(err, ErrZeroMagnitude) {
		t.Errorf("Bad error for zero vector; got %v, want %v", err, ErrZeroMagnitude)
	}
}

func TestMustUnitPanicsOnZero(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("MustUnit didn't panic on the zero vector")
		}
	}()
	MustUnit(T{})
}

func TestReflectAroundTwiceIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		v := T{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
		n := T{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}

		got := ReflectAround(ReflectAround(v, n), n)
		if diff := cmp.Diff(got, v, approx); diff != "" {
			t.Errorf("Double reflection isn't identity; diff (-got +want)\n%s", diff)
		}
	}
}

func TestReflectAroundUnnormalizedAxis(t *testing.T) {
	// Mirror about the z axis, given with length 5.
	got := ReflectAround(T{1, 0, 1}, T{0, 0, 5})
	if diff := cmp.Diff(got, T{-1, 0, 1}, approx); diff != "" {
		t.Errorf("Bad reflection; diff (-got +want)\n%s", diff)
	}
}

func TestLerpEndpoints(t *testing.T) {
	a := T{0.1, 0.2, 0.3}
	b := T{7, -8, 9}

	if got := Lerp(a, b, 0); got != a {
		t.Errorf("Lerp(a, b, 0) = %v, want %v", got, a)
	}
	if got := Lerp(a, b, 1); got != b {
		t.Errorf("Lerp(a, b, 1) = %v, want %v", got, b)
	}
	if diff := cmp.Diff(Lerp(T{0, 0, 0}, T{2, 4, 6}, 0.5), T{1, 2, 3}, approx); diff != "" {
		t.Errorf("Bad midpoint; diff (-got +want)\n%s", diff)
	}
}

func TestLerpRejectsOutOfRange(t *testing.T) {
	for _, k := range []float64{-0.1, 1.1, math.NaN()} {
		func() {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("Lerp didn't panic for k=%v", k)
				}
			}()
			Lerp(T{}, T{1, 1, 1}, k)
		}()
	}
}

func TestRandomInHemisphere(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	normal := T{0, 3, 4}
	for i := 0; i < 10000; i++ {
		v := RandomInHemisphere(normal, rng)
		if v.NormSquared() > 1 {
			t.Fatalf("Sample %v is outside the unit ball", v)
		}
		if IProd(v, normal) < 0 {
			t.Fatalf("Sample %v is in the wrong hemisphere", v)
		}
	}
}
