package world

import (
	"math"

	"github.com/san-kum/rigid2d/internal/body"
	"github.com/san-kum/rigid2d/internal/collision"
	"github.com/san-kum/rigid2d/internal/dynamo"
	"github.com/san-kum/rigid2d/internal/joint"
)

// Contacts returns the manifolds found during the last step.
func (w *World) Contacts() []collision.Manifold {
	out := make([]collision.Manifold, len(w.manifolds))
	copy(out, w.manifolds)
	return out
}

// ContactEvents returns the pairs that started or stopped touching during
// the last step.
func (w *World) ContactEvents() []collision.Event {
	out := make([]collision.Event, len(w.events))
	copy(out, w.events)
	return out
}

func (w *World) ContactCount() int {
	n := 0
	for i := range w.manifolds {
		if w.manifolds[i].Touching() {
			n++
		}
	}
	return n
}

// MaxPenetration is the deepest overlap among the last step's contacts.
func (w *World) MaxPenetration() float64 {
	depth := 0.0
	for i := range w.manifolds {
		depth = math.Max(depth, w.manifolds[i].MaxDepth())
	}
	return depth
}

// JointError is the largest anchor separation over all joints.
func (w *World) JointError() float64 {
	worst := 0.0
	w.joints.Each(func(_ joint.Handle, j joint.Joint) bool {
		h1, h2 := j.Bodies()
		b1, ok1 := w.bodies.Get(h1)
		b2, ok2 := w.bodies.Get(h2)
		if ok1 && ok2 {
			worst = math.Max(worst, j.AnchorError(b1, b2))
		}
		return true
	})
	return worst
}

func (w *World) KineticEnergy() float64 {
	total := 0.0
	w.bodies.Each(func(_ body.Handle, b *body.RigidBody) bool {
		total += b.KineticEnergy()
		return true
	})
	return total
}

// PotentialEnergy sums spring energy and gravitational energy relative to
// the origin.
func (w *World) PotentialEnergy() float64 {
	total := w.forces.PotentialEnergy(w.bodies)
	w.bodies.Each(func(_ body.Handle, b *body.RigidBody) bool {
		total -= b.Mass() * w.gravity.Dot(b.CenterOfMass())
		return true
	})
	return total
}

func (w *World) Energy() float64 {
	return w.KineticEnergy() + w.PotentialEnergy()
}

// State flattens every dynamic body to [x, y, angle, vx, vy, omega] in
// handle order.
func (w *World) State() dynamo.State {
	x := make(dynamo.State, 0, dynamo.BodyStride*w.bodies.Len())
	w.bodies.Each(func(_ body.Handle, b *body.RigidBody) bool {
		if !b.IsDynamic() {
			return true
		}
		x = append(x,
			b.Pose.Translation[0], b.Pose.Translation[1], b.Pose.Rotation,
			b.LinearVelocity[0], b.LinearVelocity[1], b.AngularVelocity,
		)
		return true
	})
	return x
}

var _ dynamo.Stepper = (*World)(nil)
var _ dynamo.EnergyComputer = (*World)(nil)
