package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestConstraintConvergence(t *testing.T) {
	w := testWorld(t)
	rng := rand.New(rand.NewSource(7))
	for i := range w.particles {
		w.particles[i].Pos = w.particles[i].Pos.Add(mgl64.Vec2{
			(rng.Float64() - 0.5) * 0.4,
			(rng.Float64() - 0.5) * 0.4,
		})
	}

	prev := w.constraintError()
	if prev == 0 {
		t.Fatal("expected perturbation to violate constraints")
	}
	for pass := 0; pass < 5; pass++ {
		w.solveConstraints()
		err := w.constraintError()
		if err > prev+1e-12 {
			t.Fatalf("pass %d: error increased from %g to %g", pass, prev, err)
		}
		prev = err
	}
	if prev > 1e-6 {
		t.Fatalf("expected convergence below epsilon, residual error %g", prev)
	}
}

func TestSinglePassConvergesFromSmallPerturbation(t *testing.T) {
	w := testWorld(t)
	w.particles[WheelFL].Pos = w.particles[WheelFL].Pos.Add(mgl64.Vec2{0.05, -0.03})

	before := w.constraintError()
	w.solveConstraints()
	after := w.constraintError()
	if after > before/10 {
		t.Fatalf("expected one solver invocation to reduce error by 10x, before=%g after=%g", before, after)
	}
}

func TestDegenerateConstraintSkipped(t *testing.T) {
	w := testWorld(t)
	w.particles[WheelFR].Pos = w.particles[WheelFL].Pos
	w.solveConstraints()
	for i := range w.particles {
		for axis := 0; axis < 2; axis++ {
			if math.IsNaN(w.particles[i].Pos[axis]) {
				t.Fatalf("particle %d axis %d became NaN on coincident pair", i, axis)
			}
		}
	}
}
