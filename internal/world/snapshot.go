package world

import (
	"fmt"
	"sort"

	"github.com/san-kum/rigid2d/internal/body"
	"github.com/san-kum/rigid2d/internal/collider"
	"github.com/san-kum/rigid2d/internal/collision"
	"github.com/san-kum/rigid2d/internal/geom"
	"github.com/san-kum/rigid2d/internal/joint"
	"github.com/san-kum/rigid2d/internal/solver"
)

type BodyState struct {
	Index           uint32  `json:"index" bson:"index"`
	Generation      uint32  `json:"generation" bson:"generation"`
	X               float64 `json:"x" bson:"x"`
	Y               float64 `json:"y" bson:"y"`
	Angle           float64 `json:"angle" bson:"angle"`
	VX              float64 `json:"vx" bson:"vx"`
	VY              float64 `json:"vy" bson:"vy"`
	AngularVelocity float64 `json:"omega" bson:"omega"`
}

func (s BodyState) Handle() body.Handle {
	return body.Handle{Index: s.Index, Generation: s.Generation}
}

// JointState is the warm-start impulse a joint carries between steps.
type JointState struct {
	Index      uint32    `json:"index" bson:"index"`
	Generation uint32    `json:"generation" bson:"generation"`
	Impulse    []float64 `json:"impulse" bson:"impulse"`
}

func (s JointState) Handle() joint.Handle {
	return joint.Handle{Index: s.Index, Generation: s.Generation}
}

// ContactState is one cached contact point impulse, or with Point < 0 a
// collider pair that was touching.
type ContactState struct {
	A       collider.Handle `json:"a" bson:"a"`
	B       collider.Handle `json:"b" bson:"b"`
	Point   int             `json:"point" bson:"point"`
	Normal  float64         `json:"normal" bson:"normal"`
	Tangent float64         `json:"tangent" bson:"tangent"`
}

// Snapshot captures everything a step depends on besides the scene
// layout: body motion, joint and contact warm-start impulses, and the
// touching pairs used for contact events.
type Snapshot struct {
	Time     float64        `json:"time" bson:"time"`
	Steps    int            `json:"steps" bson:"steps"`
	Bodies   []BodyState    `json:"bodies" bson:"bodies"`
	Joints   []JointState   `json:"joints,omitempty" bson:"joints,omitempty"`
	Contacts []ContactState `json:"contacts,omitempty" bson:"contacts,omitempty"`
}

func (w *World) Snapshot() Snapshot {
	snap := Snapshot{Time: w.time, Steps: w.steps}
	for _, h := range w.bodies.Handles() {
		b, _ := w.bodies.Get(h)
		snap.Bodies = append(snap.Bodies, BodyState{
			Index:           h.Index,
			Generation:      h.Generation,
			X:               b.Pose.Translation[0],
			Y:               b.Pose.Translation[1],
			Angle:           b.Pose.Rotation,
			VX:              b.LinearVelocity[0],
			VY:              b.LinearVelocity[1],
			AngularVelocity: b.AngularVelocity,
		})
	}

	w.joints.Each(func(h joint.Handle, j joint.Joint) bool {
		snap.Joints = append(snap.Joints, JointState{
			Index:      h.Index,
			Generation: h.Generation,
			Impulse:    j.AccumulatedImpulse(),
		})
		return true
	})

	for k, imp := range w.impulses {
		snap.Contacts = append(snap.Contacts, ContactState{A: k.A, B: k.B, Point: k.Point, Normal: imp.Normal, Tangent: imp.Tangent})
	}
	for k := range w.touching {
		snap.Contacts = append(snap.Contacts, ContactState{A: k.A, B: k.B, Point: -1})
	}
	sort.Slice(snap.Contacts, func(i, j int) bool {
		a, b := snap.Contacts[i], snap.Contacts[j]
		if a.A != b.A {
			return a.A.Less(b.A)
		}
		if a.B != b.B {
			return a.B.Less(b.B)
		}
		return a.Point < b.Point
	})
	return snap
}

// Restore writes a snapshot back into the world. Every body and joint in
// the snapshot must still exist; nothing is changed otherwise.
func (w *World) Restore(snap Snapshot) error {
	targets := make([]*body.RigidBody, len(snap.Bodies))
	for i, s := range snap.Bodies {
		b, ok := w.bodies.Get(s.Handle())
		if !ok {
			return fmt.Errorf("%w: %v", ErrBodyNotFound, s.Handle())
		}
		targets[i] = b
	}
	joints := make([]joint.Joint, len(snap.Joints))
	for i, s := range snap.Joints {
		j, ok := w.joints.Get(s.Handle())
		if !ok {
			return fmt.Errorf("%w: %v", ErrConstraintNotFound, s.Handle())
		}
		joints[i] = j
	}

	for i, s := range snap.Bodies {
		b := targets[i]
		b.Pose = geom.NewIsometry(geom.V(s.X, s.Y), s.Angle)
		b.LinearVelocity = geom.V(s.VX, s.VY)
		b.AngularVelocity = s.AngularVelocity
	}

	for i, s := range snap.Joints {
		joints[i].SetAccumulatedImpulse(s.Impulse)
	}

	w.time = snap.Time
	w.steps = snap.Steps
	w.impulses = make(solver.ImpulseCache)
	w.touching = make(map[collision.PairKey]struct{})
	for _, c := range snap.Contacts {
		if c.Point < 0 {
			w.touching[collision.PairKey{A: c.A, B: c.B}] = struct{}{}
			continue
		}
		w.impulses[solver.ContactKey{A: c.A, B: c.B, Point: c.Point}] = solver.ContactImpulse{Normal: c.Normal, Tangent: c.Tangent}
	}
	w.manifolds = nil
	w.events = nil
	return nil
}
