package analysis

import (
	"math"

	"github.com/san-kum/rigid2d/internal/dynamo"
)

// Divergence estimates the largest Lyapunov exponent of a system by
// stepping a reference and a perturbed copy side by side:
//
//	λ ≈ (1/t) * ln(|δx(t)| / |δx(0)|)
//
// Both systems must share a timestep and state layout. A positive value
// means nearby initial conditions drift apart, as in a collapsing stack.
// Stepping stops early if either state stops being finite.
func Divergence(ref, perturbed dynamo.Stepper, steps int) float64 {
	d0 := perturbed.State().Sub(ref.State()).Norm()
	if d0 == 0 || steps <= 0 {
		return 0
	}

	start := ref.Time()
	last, elapsed := d0, 0.0
	for i := 0; i < steps; i++ {
		ref.Step()
		perturbed.Step()

		d := perturbed.State().Sub(ref.State()).Norm()
		if math.IsNaN(d) || math.IsInf(d, 0) {
			break
		}
		last, elapsed = d, ref.Time()-start
	}

	if elapsed <= 0 || last == 0 {
		return 0
	}
	return math.Log(last/d0) / elapsed
}
