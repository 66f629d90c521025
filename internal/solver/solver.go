package solver

import (
	"math"

	"github.com/san-kum/rigid2d/internal/body"
)

// Constraint is a velocity-level constraint between two bodies with a
// nonlinear position correction pass.
type Constraint interface {
	Bodies() (body.Handle, body.Handle)
	// Prepare computes effective masses and biases from the current poses.
	Prepare(b1, b2 *body.RigidBody, p *Params)
	// WarmStart reapplies the impulse accumulated in the previous step.
	WarmStart(b1, b2 *body.RigidBody)
	SolveVelocity(b1, b2 *body.RigidBody)
	// SolvePosition moves the bodies to reduce the position error and
	// returns the linear and angular error it saw before correcting.
	SolvePosition(b1, b2 *body.RigidBody, p *Params) (linear, angular float64)
}

// Restituting is implemented by constraints that restore bounce after the
// velocity iterations.
type Restituting interface {
	ApplyRestitution(b1, b2 *body.RigidBody)
}

type Item struct {
	C      Constraint
	B1, B2 *body.RigidBody
}

// SolveVelocities runs the sequential impulse loop, then the restitution
// pass. Items are visited in the given order on every iteration.
func SolveVelocities(items []Item, p *Params) {
	for i := range items {
		it := &items[i]
		it.C.Prepare(it.B1, it.B2, p)
	}
	if p.WarmStartCoeff > 0 {
		for i := range items {
			it := &items[i]
			it.C.WarmStart(it.B1, it.B2)
		}
	}
	for iter := 0; iter < p.MaxVelocityIterations; iter++ {
		for i := range items {
			it := &items[i]
			it.C.SolveVelocity(it.B1, it.B2)
		}
	}
	for i := range items {
		it := &items[i]
		if r, ok := it.C.(Restituting); ok {
			r.ApplyRestitution(it.B1, it.B2)
		}
	}
}

// Stabilize runs position iterations until every constraint is within the
// allowed error. It returns the number of iterations and whether the
// tolerance was reached.
func Stabilize(items []Item, p *Params) (int, bool) {
	if len(items) == 0 {
		return 0, true
	}
	for iter := 0; iter < p.MaxPositionIterations; iter++ {
		maxLin, maxAng := 0.0, 0.0
		for i := range items {
			it := &items[i]
			lin, ang := it.C.SolvePosition(it.B1, it.B2, p)
			maxLin = math.Max(maxLin, lin)
			maxAng = math.Max(maxAng, ang)
		}
		if maxLin <= 3*p.AllowedLinearError && maxAng <= 3*p.AllowedAngularError {
			return iter + 1, true
		}
	}
	return p.MaxPositionIterations, false
}
