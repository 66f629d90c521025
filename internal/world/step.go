package world

import (
	"github.com/san-kum/rigid2d/internal/body"
	"github.com/san-kum/rigid2d/internal/collider"
	"github.com/san-kum/rigid2d/internal/collision"
	"github.com/san-kum/rigid2d/internal/joint"
	"github.com/san-kum/rigid2d/internal/solver"
)

// Step advances the world by one timestep.
func (w *World) Step() {
	p := w.params
	dt := p.Dt

	w.bodies.Each(func(_ body.Handle, b *body.RigidBody) bool {
		b.ClearForces()
		return true
	})
	if expired := w.forces.ApplyAll(dt, w.bodies); len(expired) > 0 {
		w.log.Debugw("force generators expired", "count", len(expired))
	}
	w.bodies.Each(func(_ body.Handle, b *body.RigidBody) bool {
		b.IntegrateVelocity(w.gravity, dt)
		return true
	})

	w.manifolds = w.detect(p.PredictionDistance)

	items, contacts := w.constraints(&p)
	solver.SolveVelocities(items, &p)

	impulses := make(solver.ImpulseCache, len(contacts))
	for _, c := range contacts {
		c.Store(impulses)
	}
	w.impulses = impulses

	w.bodies.Each(func(_ body.Handle, b *body.RigidBody) bool {
		b.IntegratePosition(dt)
		return true
	})

	if iters, ok := solver.Stabilize(items, &p); !ok {
		w.log.Debugw("position stabilization did not converge", "step", w.steps, "iterations", iters)
	}

	if broken := w.joints.RemoveBroken(); len(broken) > 0 {
		w.log.Debugw("joints broke", "count", len(broken), "step", w.steps)
	}

	w.events, w.touching = collision.Diff(w.touching, w.manifolds)
	w.time += dt
	w.steps++
}

func (w *World) detect(prediction float64) []collision.Manifold {
	proxies := make([]collision.Proxy, 0, w.colliders.Len())
	w.colliders.Each(func(h collider.Handle, c *collider.Collider) bool {
		b, ok := w.bodies.Get(c.Body)
		if !ok {
			return true
		}
		proxies = append(proxies, collision.Proxy{
			Collider: h,
			Body:     c.Body,
			Shape:    c.Shape,
			Pose:     c.Pose(b.Pose),
			Margin:   c.Margin,
			Material: c.Material,
			Dynamic:  b.IsDynamic(),
			AABB:     c.AABB(b.Pose),
		})
		return true
	})

	pairs := collision.FindPairs(proxies, prediction)
	return collision.Narrow(proxies, pairs, prediction)
}

// constraints lists joints first, then contacts, each in a stable order.
func (w *World) constraints(p *solver.Params) ([]solver.Item, []*solver.ContactConstraint) {
	items := make([]solver.Item, 0, w.joints.Len()+len(w.manifolds))

	w.joints.Each(func(_ joint.Handle, j joint.Joint) bool {
		h1, h2 := j.Bodies()
		b1, ok1 := w.bodies.Get(h1)
		b2, ok2 := w.bodies.Get(h2)
		if ok1 && ok2 && (b1.IsDynamic() || b2.IsDynamic()) {
			items = append(items, solver.Item{C: j, B1: b1, B2: b2})
		}
		return true
	})

	contacts := make([]*solver.ContactConstraint, 0, len(w.manifolds))
	for _, m := range w.manifolds {
		b1, _ := w.bodies.Get(m.BodyA)
		b2, _ := w.bodies.Get(m.BodyB)
		c := solver.NewContactConstraint(m, w.impulses, p.WarmStartCoeff)
		contacts = append(contacts, c)
		items = append(items, solver.Item{C: c, B1: b1, B2: b2})
	}
	return items, contacts
}
