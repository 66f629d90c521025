package joint

import (
	"github.com/san-kum/rigid2d/internal/body"
	"github.com/san-kum/rigid2d/internal/solver"
)

// Joint is a bilateral constraint between two bodies.
type Joint interface {
	solver.Constraint
	// Broken reports whether the accumulated impulse exceeded the
	// breaking threshold during the last solve.
	Broken() bool
	// AnchorError is the distance between the two attachment points.
	AnchorError(b1, b2 *body.RigidBody) float64
	// AccumulatedImpulse is the impulse carried into the next step's warm
	// start, one component per constrained degree of freedom.
	AccumulatedImpulse() []float64
	SetAccumulatedImpulse(v []float64)
}

// breaker tracks an optional impulse threshold. Zero disables breaking.
type breaker struct {
	BreakingImpulse float64
	broken          bool
}

func (b *breaker) Broken() bool { return b.broken }

func (b *breaker) check(magnitude float64) {
	if b.BreakingImpulse > 0 && magnitude > b.BreakingImpulse {
		b.broken = true
	}
}
