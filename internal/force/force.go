package force

import (
	"github.com/san-kum/rigid2d/internal/body"
	"github.com/san-kum/rigid2d/internal/geom"
)

// Generator contributes forces to bodies once per step, before velocities
// are integrated. Returning false removes the generator from its set.
type Generator interface {
	Apply(dt float64, bodies *body.Store) bool
}

// Attached is implemented by generators bound to specific bodies so that
// removing a body can remove them too.
type Attached interface {
	AttachedTo(h body.Handle) bool
}

// Potential is implemented by generators that store energy.
type Potential interface {
	PotentialEnergy(bodies *body.Store) float64
}

// Spring pulls two anchor points towards a rest length. Anchors are in the
// local frame of their body.
type Spring struct {
	Body1, Body2     body.Handle
	Anchor1, Anchor2 geom.Vec2
	Length           float64
	Stiffness        float64
	Damping          float64
}

func NewSpring(b1, b2 body.Handle, anchor1, anchor2 geom.Vec2, length, stiffness float64) *Spring {
	return &Spring{
		Body1:     b1,
		Body2:     b2,
		Anchor1:   anchor1,
		Anchor2:   anchor2,
		Length:    length,
		Stiffness: stiffness,
	}
}

func (s *Spring) endpoints(bodies *body.Store) (*body.RigidBody, *body.RigidBody, geom.Vec2, geom.Vec2, bool) {
	b1, ok1 := bodies.Get(s.Body1)
	b2, ok2 := bodies.Get(s.Body2)
	if !ok1 || !ok2 {
		return nil, nil, geom.Vec2{}, geom.Vec2{}, false
	}
	return b1, b2, b1.Pose.TransformPoint(s.Anchor1), b2.Pose.TransformPoint(s.Anchor2), true
}

func (s *Spring) Apply(_ float64, bodies *body.Store) bool {
	b1, b2, p1, p2, ok := s.endpoints(bodies)
	if !ok {
		return false
	}

	axis, length := geom.Normalize(p2.Sub(p1))
	if length == 0 {
		return true
	}

	f := s.Stiffness * (length - s.Length)
	if s.Damping != 0 {
		rel := b2.VelocityAtPoint(p2).Sub(b1.VelocityAtPoint(p1))
		f += s.Damping * rel.Dot(axis)
	}

	force := axis.Mul(f)
	b1.ApplyForceAtPoint(force, p1)
	b2.ApplyForceAtPoint(force.Mul(-1), p2)
	return true
}

func (s *Spring) AttachedTo(h body.Handle) bool {
	return s.Body1 == h || s.Body2 == h
}

func (s *Spring) PotentialEnergy(bodies *body.Store) float64 {
	_, _, p1, p2, ok := s.endpoints(bodies)
	if !ok {
		return 0
	}
	ext := p2.Sub(p1).Len() - s.Length
	return 0.5 * s.Stiffness * ext * ext
}

// ConstantAcceleration applies a fixed linear and angular acceleration to
// a list of bodies. Bodies that disappear are dropped from the list.
type ConstantAcceleration struct {
	Bodies  []body.Handle
	Linear  geom.Vec2
	Angular float64
}

func NewConstantAcceleration(linear geom.Vec2, angular float64, bodies ...body.Handle) *ConstantAcceleration {
	return &ConstantAcceleration{Bodies: bodies, Linear: linear, Angular: angular}
}

func (c *ConstantAcceleration) Apply(_ float64, bodies *body.Store) bool {
	kept := c.Bodies[:0]
	for _, h := range c.Bodies {
		b, ok := bodies.Get(h)
		if !ok {
			continue
		}
		kept = append(kept, h)
		i := b.Inertia()
		b.ApplyForce(c.Linear.Mul(i.Mass))
		b.ApplyTorque(c.Angular * i.AngularInertia)
	}
	c.Bodies = kept
	return len(c.Bodies) > 0
}

func (c *ConstantAcceleration) AttachedTo(h body.Handle) bool {
	for _, b := range c.Bodies {
		if b == h {
			return true
		}
	}
	return false
}
