package world

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/rigid2d/internal/body"
	"github.com/san-kum/rigid2d/internal/collider"
	"github.com/san-kum/rigid2d/internal/collision"
	"github.com/san-kum/rigid2d/internal/force"
	"github.com/san-kum/rigid2d/internal/geom"
	"github.com/san-kum/rigid2d/internal/joint"
	"github.com/san-kum/rigid2d/internal/shape"
	"github.com/san-kum/rigid2d/internal/solver"
)

// World owns every body, collider, force generator and joint of one
// simulation. It is not safe for concurrent use.
type World struct {
	bodies    *body.Store
	colliders *collider.Store
	forces    *force.Set
	joints    *joint.Set

	gravity geom.Vec2
	params  solver.Params
	time    float64
	steps   int

	impulses  solver.ImpulseCache
	touching  map[collision.PairKey]struct{}
	manifolds []collision.Manifold
	events    []collision.Event

	log *zap.SugaredLogger
}

type Option func(*World)

func WithLogger(log *zap.SugaredLogger) Option {
	return func(w *World) { w.log = log }
}

func WithGravity(g geom.Vec2) Option {
	return func(w *World) { w.gravity = g }
}

// WithParams replaces the default integration parameters. Invalid
// parameters are ignored with a warning; use SetParams to get the error.
func WithParams(p solver.Params) Option {
	return func(w *World) {
		if err := p.Validate(); err != nil {
			w.log.Warnw("ignoring invalid integration parameters", "error", err)
			return
		}
		w.params = p
	}
}

func New(opts ...Option) *World {
	w := &World{
		bodies:    body.NewStore(),
		colliders: collider.NewStore(),
		forces:    force.NewSet(),
		joints:    joint.NewSet(),
		params:    solver.DefaultParams(),
		impulses:  make(solver.ImpulseCache),
		touching:  make(map[collision.PairKey]struct{}),
		log:       zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *World) SetGravity(g geom.Vec2) { w.gravity = g }
func (w *World) Gravity() geom.Vec2     { return w.gravity }
func (w *World) Params() solver.Params  { return w.params }
func (w *World) Time() float64          { return w.time }
func (w *World) StepCount() int         { return w.steps }
func (w *World) Timestep() float64      { return w.params.Dt }

func (w *World) SetParams(p solver.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	w.params = p
	return nil
}

func (w *World) SetTimestep(dt float64) error {
	p := w.params
	p.Dt = dt
	return w.SetParams(p)
}

// AddRigidBody inserts a dynamic body with the given mass properties and
// local center of mass.
func (w *World) AddRigidBody(pose geom.Isometry, inertia shape.Inertia, centerOfMass geom.Vec2) body.Handle {
	return w.bodies.Insert(body.New(pose, inertia, centerOfMass))
}

func (w *World) AddBody(b *body.RigidBody) body.Handle {
	return w.bodies.Insert(b)
}

func (w *World) Body(h body.Handle) (*body.RigidBody, bool) {
	return w.bodies.Get(h)
}

// Bodies lists every body except ground in handle order.
func (w *World) Bodies() []body.Handle { return w.bodies.Handles() }

func (w *World) BodyCount() int { return w.bodies.Len() }

// RemoveBody removes a body together with its colliders, force generators
// and joints.
func (w *World) RemoveBody(h body.Handle) error {
	if h.IsGround() {
		return ErrGroundImmutable
	}
	if !w.bodies.Remove(h) {
		return fmt.Errorf("%w: %v", ErrBodyNotFound, h)
	}

	cols := w.colliders.ByBody(h)
	for _, c := range cols {
		w.colliders.Remove(c)
	}
	gens := w.forces.RemoveAttachedTo(h)
	js := w.joints.RemoveAttachedTo(h)

	w.log.Debugw("body removed", "body", h, "colliders", len(cols), "generators", len(gens), "joints", len(js))
	return nil
}

func (w *World) AddCollider(margin float64, s shape.Shape, parent body.Handle, localPose geom.Isometry, material collider.Material) (collider.Handle, error) {
	if !w.bodies.Contains(parent) {
		return collider.Handle{}, fmt.Errorf("%w: %v", ErrBodyNotFound, parent)
	}
	if margin < 0 || math.IsNaN(margin) {
		return collider.Handle{}, fmt.Errorf("%w: %v", ErrInvalidMargin, margin)
	}
	if s == nil {
		return collider.Handle{}, fmt.Errorf("world: collider without a shape: %w", shape.ErrInvalidShape)
	}

	return w.colliders.Insert(&collider.Collider{
		Shape:     s,
		Body:      parent,
		LocalPose: localPose,
		Margin:    margin,
		Material:  material,
	}), nil
}

func (w *World) Collider(h collider.Handle) (*collider.Collider, bool) {
	return w.colliders.Get(h)
}

func (w *World) ColliderCount() int { return w.colliders.Len() }

func (w *World) RemoveCollider(h collider.Handle) error {
	if !w.colliders.Remove(h) {
		return fmt.Errorf("%w: %v", ErrColliderNotFound, h)
	}
	return nil
}

// AddConstraint registers a joint after checking both of its bodies exist.
func (w *World) AddConstraint(j joint.Joint) (joint.Handle, error) {
	b1, b2 := j.Bodies()
	if b1 == b2 {
		return joint.Handle{}, ErrSelfConstraint
	}
	for _, b := range []body.Handle{b1, b2} {
		if !w.bodies.Contains(b) {
			return joint.Handle{}, fmt.Errorf("%w: %v", ErrBodyNotFound, b)
		}
	}
	return w.joints.Add(j), nil
}

func (w *World) Constraint(h joint.Handle) (joint.Joint, bool) {
	return w.joints.Get(h)
}

func (w *World) ConstraintCount() int { return w.joints.Len() }

func (w *World) RemoveConstraint(h joint.Handle) error {
	if !w.joints.Remove(h) {
		return fmt.Errorf("%w: %v", ErrConstraintNotFound, h)
	}
	return nil
}

func (w *World) AddForceGenerator(g force.Generator) force.Handle {
	return w.forces.Add(g)
}

func (w *World) ForceGenerator(h force.Handle) (force.Generator, bool) {
	return w.forces.Get(h)
}

func (w *World) ForceGeneratorCount() int { return w.forces.Len() }

func (w *World) RemoveForceGenerator(h force.Handle) error {
	if !w.forces.Remove(h) {
		return fmt.Errorf("%w: %v", ErrForceGeneratorNotFound, h)
	}
	return nil
}
