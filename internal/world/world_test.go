package world_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rigid2d/internal/body"
	"github.com/san-kum/rigid2d/internal/collider"
	"github.com/san-kum/rigid2d/internal/collision"
	"github.com/san-kum/rigid2d/internal/force"
	"github.com/san-kum/rigid2d/internal/geom"
	"github.com/san-kum/rigid2d/internal/joint"
	"github.com/san-kum/rigid2d/internal/scene"
	"github.com/san-kum/rigid2d/internal/shape"
	"github.com/san-kum/rigid2d/internal/solver"
	"github.com/san-kum/rigid2d/internal/world"
)

const dt = 1.0 / 60.0

func addBall(w *world.World, x, y, radius float64, mat collider.Material) (body.Handle, collider.Handle) {
	ball := &shape.Ball{Radius: radius}
	h := w.AddRigidBody(geom.NewIsometry(geom.V(x, y), 0), ball.Inertia(1), ball.CenterOfMass())
	c, err := w.AddCollider(0, ball, h, geom.Identity(), mat)
	Expect(err).NotTo(HaveOccurred())
	return h, c
}

func position(w *world.World, h body.Handle) geom.Vec2 {
	b, ok := w.Body(h)
	Expect(ok).To(BeTrue())
	return b.Pose.Translation
}

func stepN(w *world.World, n int) {
	for i := 0; i < n; i++ {
		w.Step()
	}
}

var frictionless = collider.Material{Friction: 0}

var _ = Describe("World", func() {
	var w *world.World

	BeforeEach(func() {
		w = world.New()
	})

	Describe("construction", func() {
		It("starts with only the ground body", func() {
			Expect(w.BodyCount()).To(Equal(0))
			g, ok := w.Body(body.Ground)
			Expect(ok).To(BeTrue())
			Expect(g.Status).To(Equal(body.Static))
			Expect(w.RemoveBody(body.Ground)).To(MatchError(world.ErrGroundImmutable))
		})

		It("rejects colliders on unknown bodies, negative margins and missing shapes", func() {
			ball := &shape.Ball{Radius: 1}
			_, err := w.AddCollider(0, ball, body.Handle{Index: 7, Generation: 1}, geom.Identity(), collider.DefaultMaterial())
			Expect(err).To(MatchError(world.ErrBodyNotFound))

			_, err = w.AddCollider(-0.1, ball, body.Ground, geom.Identity(), collider.DefaultMaterial())
			Expect(err).To(MatchError(world.ErrInvalidMargin))

			_, err = w.AddCollider(0, nil, body.Ground, geom.Identity(), collider.DefaultMaterial())
			Expect(err).To(MatchError(shape.ErrInvalidShape))
			Expect(w.ColliderCount()).To(Equal(0))
			Expect(w.Step).NotTo(Panic())
		})

		It("rejects constraints on missing or identical bodies", func() {
			h := w.AddRigidBody(geom.Identity(), shape.Inertia{Mass: 1, AngularInertia: 1}, geom.Vec2{})

			_, err := w.AddConstraint(joint.NewRevolute(h, body.Handle{Index: 9, Generation: 1}, geom.Vec2{}, geom.Vec2{}))
			Expect(err).To(MatchError(world.ErrBodyNotFound))

			_, err = w.AddConstraint(joint.NewRevolute(h, h, geom.Vec2{}, geom.Vec2{}))
			Expect(err).To(MatchError(world.ErrSelfConstraint))
		})

		It("refuses invalid integration parameters", func() {
			p := solver.DefaultParams()
			p.Dt = -1
			Expect(w.SetParams(p)).To(MatchError(solver.ErrInvalidParams))
			Expect(w.Timestep()).To(Equal(dt))
		})
	})

	Describe("free motion", func() {
		It("keeps a constant velocity without gravity", func() {
			h := w.AddRigidBody(geom.Identity(), shape.Inertia{Mass: 1, AngularInertia: 1}, geom.Vec2{})
			b, _ := w.Body(h)
			b.LinearVelocity = geom.V(1, 2)

			stepN(w, 60)

			Expect(b.LinearVelocity).To(Equal(geom.V(1, 2)))
			Expect(position(w, h)[0]).To(BeNumerically("~", 1, 1e-9))
			Expect(position(w, h)[1]).To(BeNumerically("~", 2, 1e-9))
			Expect(w.Time()).To(BeNumerically("~", 1, 1e-9))
			Expect(w.StepCount()).To(Equal(60))
		})

		It("accelerates by g·dt per step under gravity", func() {
			w.SetGravity(geom.V(0, -9.81))
			h := w.AddRigidBody(geom.Identity(), shape.Inertia{Mass: 3, AngularInertia: 1}, geom.Vec2{})

			w.Step()
			b, _ := w.Body(h)
			Expect(b.LinearVelocity[1]).To(BeNumerically("~", -9.81*dt, 1e-12))

			w.Step()
			Expect(b.LinearVelocity[1]).To(BeNumerically("~", -2*9.81*dt, 1e-12))
		})

		It("moves kinematic bodies but never static ones", func() {
			w.SetGravity(geom.V(0, -9.81))
			kin := body.New(geom.Identity(), shape.Inertia{Mass: 1, AngularInertia: 1}, geom.Vec2{})
			kin.Status = body.Kinematic
			kin.LinearVelocity = geom.V(1, 0)
			hk := w.AddBody(kin)

			st := body.NewStatic(geom.NewIsometry(geom.V(5, 5), 0))
			st.LinearVelocity = geom.V(1, 0)
			hs := w.AddBody(st)

			stepN(w, 60)

			Expect(position(w, hk)[0]).To(BeNumerically("~", 1, 1e-9))
			Expect(position(w, hk)[1]).To(Equal(0.0))
			Expect(position(w, hs)).To(Equal(geom.V(5, 5)))
		})
	})

	Describe("contacts", func() {
		It("pushes overlapping balls apart without adding velocity", func() {
			a, _ := addBall(w, 0, 0, 0.5, frictionless)
			b, _ := addBall(w, 0.8, 0, 0.5, frictionless)

			stepN(w, 60)

			gap := position(w, b).Sub(position(w, a)).Len()
			Expect(gap).To(BeNumerically(">", 1-3*0.005))
			ba, _ := w.Body(a)
			Expect(ba.LinearVelocity.Len()).To(BeNumerically("<", 1e-9))
		})

		It("conserves momentum in a frictionless head-on collision", func() {
			a, _ := addBall(w, -1, 0, 0.5, frictionless)
			b, _ := addBall(w, 1, 0, 0.5, frictionless)
			ba, _ := w.Body(a)
			bb, _ := w.Body(b)
			ba.LinearVelocity = geom.V(1, 0)
			bb.LinearVelocity = geom.V(-1, 0)

			stepN(w, 90)

			momentum := ba.LinearVelocity.Add(bb.LinearVelocity)
			Expect(momentum.Len()).To(BeNumerically("<", 1e-9))
			Expect(ba.LinearVelocity[0]).To(BeNumerically("<=", 1e-9))
			Expect(position(w, b)[0] - position(w, a)[0]).To(BeNumerically(">", 0.95))
		})

		DescribeTable("swaps velocities of an elastic head-on pair",
			func(gap float64) {
				elastic := collider.Material{Restitution: 1, Friction: 0}
				half := 0.5 + gap/2
				a, _ := addBall(w, -half, 0, 0.5, elastic)
				b, _ := addBall(w, half, 0, 0.5, elastic)
				ba, _ := w.Body(a)
				bb, _ := w.Body(b)
				ba.LinearVelocity = geom.V(3, 0)
				bb.LinearVelocity = geom.V(-3, 0)

				stepN(w, 30)

				Expect(ba.LinearVelocity[0]).To(BeNumerically("~", -3, 1e-6))
				Expect(bb.LinearVelocity[0]).To(BeNumerically("~", 3, 1e-6))
				Expect(w.KineticEnergy()).To(BeNumerically("~", 9*ba.Mass(), 1e-6))
			},
			Entry("starting apart", 0.3),
			Entry("starting inside the prediction distance", 0.001),
		)

		It("rests a falling ball on static ground and reports the touch", func() {
			w.SetGravity(geom.V(0, -9.81))
			groundBox := &shape.Cuboid{HalfExtents: geom.V(5, 0.5)}
			gc, err := w.AddCollider(0, groundBox, body.Ground, geom.Identity(), collider.DefaultMaterial())
			Expect(err).NotTo(HaveOccurred())

			h, bc := addBall(w, 0, 1.5, 0.5, collider.DefaultMaterial())

			var started []collision.Event
			for i := 0; i < 180; i++ {
				w.Step()
				for _, e := range w.ContactEvents() {
					if e.Started {
						started = append(started, e)
					}
				}
			}

			Expect(started).To(ContainElement(collision.Event{A: gc, B: bc, Started: true}))
			Expect(position(w, h)[1]).To(BeNumerically("~", 1.0, 0.02))
			b, _ := w.Body(h)
			Expect(b.LinearVelocity.Len()).To(BeNumerically("<", 0.05))
			Expect(w.MaxPenetration()).To(BeNumerically("<", 0.02))
			Expect(w.ContactCount()).To(Equal(1))
		})
	})

	Describe("joints", func() {
		It("keeps a pendulum at its length", func() {
			w.SetGravity(geom.V(0, -9.81))
			h := w.AddRigidBody(geom.NewIsometry(geom.V(1, 0), 0), shape.Inertia{Mass: 1, AngularInertia: 0.01}, geom.Vec2{})
			_, err := w.AddConstraint(joint.NewRevolute(body.Ground, h, geom.Vec2{}, geom.V(-1, 0)))
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 120; i++ {
				w.Step()
				Expect(w.JointError()).To(BeNumerically("<", 0.01))
				if i == 30 {
					// a quarter period in, the bob swings near the bottom
					Expect(position(w, h)[1]).To(BeNumerically("<", -0.5))
				}
			}
		})

		It("removes joints that exceed their breaking impulse", func() {
			w.SetGravity(geom.V(0, -9.81))
			h := w.AddRigidBody(geom.NewIsometry(geom.V(0, -1), 0), shape.Inertia{Mass: 10, AngularInertia: 1}, geom.Vec2{})
			j := joint.NewRevolute(body.Ground, h, geom.V(0, -1), geom.Vec2{})
			j.BreakingImpulse = 0.5
			jh, err := w.AddConstraint(j)
			Expect(err).NotTo(HaveOccurred())

			w.Step()

			_, ok := w.Constraint(jh)
			Expect(ok).To(BeFalse())
			Expect(w.ConstraintCount()).To(Equal(0))
		})
	})

	Describe("springs", func() {
		It("oscillates at sqrt(k/m)", func() {
			h := w.AddRigidBody(geom.NewIsometry(geom.V(1, 0), 0), shape.Inertia{Mass: 1, AngularInertia: 1}, geom.Vec2{})
			w.AddForceGenerator(force.NewSpring(body.Ground, h, geom.Vec2{}, geom.Vec2{}, 0, 4))

			halfPeriod := int(math.Round(math.Pi / 2 / dt))
			stepN(w, halfPeriod)

			Expect(position(w, h)[0]).To(BeNumerically("~", -1, 0.05))
			Expect(w.Energy()).To(BeNumerically("~", 2, 0.1))
		})
	})

	Describe("removal", func() {
		It("cascades a body removal to its colliders, generators and joints", func() {
			a, ca := addBall(w, 0, 0, 0.1, collider.DefaultMaterial())
			b, _ := addBall(w, 1, 0, 0.1, collider.DefaultMaterial())
			sh := w.AddForceGenerator(force.NewSpring(body.Ground, a, geom.Vec2{}, geom.Vec2{}, 0, 1))
			_, err := w.AddConstraint(joint.NewRevolute(a, b, geom.Vec2{}, geom.V(-1, 0)))
			Expect(err).NotTo(HaveOccurred())

			Expect(w.RemoveBody(a)).To(Succeed())

			Expect(w.BodyCount()).To(Equal(1))
			Expect(w.ColliderCount()).To(Equal(1))
			Expect(w.ForceGeneratorCount()).To(Equal(0))
			Expect(w.ConstraintCount()).To(Equal(0))
			_, ok := w.Collider(ca)
			Expect(ok).To(BeFalse())
			Expect(w.RemoveForceGenerator(sh)).To(MatchError(world.ErrForceGeneratorNotFound))
		})

		It("never resolves stale handles after slot reuse", func() {
			a, _ := addBall(w, 0, 0, 0.1, collider.DefaultMaterial())
			Expect(w.RemoveBody(a)).To(Succeed())
			fresh := w.AddRigidBody(geom.Identity(), shape.Inertia{Mass: 1, AngularInertia: 1}, geom.Vec2{})

			Expect(fresh.Index).To(Equal(a.Index))
			_, ok := w.Body(a)
			Expect(ok).To(BeFalse())
			Expect(w.RemoveBody(a)).To(MatchError(world.ErrBodyNotFound))
			_, err := w.AddCollider(0, &shape.Ball{Radius: 1}, a, geom.Identity(), collider.DefaultMaterial())
			Expect(err).To(MatchError(world.ErrBodyNotFound))
		})
	})

	Describe("snapshots", func() {
		It("replays identically after restore", func() {
			h := w.AddRigidBody(geom.NewIsometry(geom.V(1, 0), 0.3), shape.Inertia{Mass: 1, AngularInertia: 1}, geom.Vec2{})
			w.AddForceGenerator(force.NewSpring(body.Ground, h, geom.Vec2{}, geom.V(0.2, 0), 0, 2))

			stepN(w, 10)
			snap := w.Snapshot()
			Expect(snap.Bodies).To(HaveLen(1))

			stepN(w, 25)
			want := w.State()

			Expect(w.Restore(snap)).To(Succeed())
			Expect(w.StepCount()).To(Equal(10))
			stepN(w, 25)
			Expect(w.State()).To(Equal(want))
		})

		It("replays a jointed chain identically after restore", func() {
			chain, err := scene.Build("pendulum_chain", scene.Params{"links": 4})
			Expect(err).NotTo(HaveOccurred())

			stepN(chain, 10)
			snap := chain.Snapshot()
			Expect(snap.Joints).To(HaveLen(4))

			stepN(chain, 20)
			want := chain.State()

			Expect(chain.Restore(snap)).To(Succeed())
			stepN(chain, 20)
			Expect(chain.State()).To(Equal(want))
		})

		It("carries contact impulses and touching pairs across a restore", func() {
			w.SetGravity(geom.V(0, -9.81))
			_, err := w.AddCollider(0, &shape.Cuboid{HalfExtents: geom.V(5, 0.5)}, body.Ground, geom.Identity(), collider.DefaultMaterial())
			Expect(err).NotTo(HaveOccurred())
			addBall(w, 0, 1.2, 0.5, collider.DefaultMaterial())

			stepN(w, 40)
			snap := w.Snapshot()
			Expect(snap.Contacts).NotTo(BeEmpty())

			stepN(w, 15)
			want := w.State()

			Expect(w.Restore(snap)).To(Succeed())
			w.Step()
			Expect(w.ContactEvents()).To(BeEmpty())
			stepN(w, 14)
			Expect(w.State()).To(Equal(want))
		})

		It("rejects snapshots that name missing joints", func() {
			snap := world.Snapshot{Joints: []world.JointState{{Index: 3, Generation: 1, Impulse: []float64{1, 0}}}}
			Expect(w.Restore(snap)).To(MatchError(world.ErrConstraintNotFound))
		})

		It("rejects snapshots that name missing bodies", func() {
			snap := world.Snapshot{Bodies: []world.BodyState{{Index: 4, Generation: 1}}}
			Expect(w.Restore(snap)).To(MatchError(world.ErrBodyNotFound))
		})
	})

	Describe("state", func() {
		It("flattens dynamic bodies in handle order", func() {
			w.AddRigidBody(geom.NewIsometry(geom.V(1, 2), 0.5), shape.Inertia{Mass: 1, AngularInertia: 1}, geom.Vec2{})
			w.AddBody(body.NewStatic(geom.NewIsometry(geom.V(9, 9), 0)))
			w.AddRigidBody(geom.NewIsometry(geom.V(3, 4), 0), shape.Inertia{Mass: 1, AngularInertia: 1}, geom.Vec2{})

			Expect(w.State()).To(HaveLen(12))
			Expect([]float64(w.State()[:3])).To(Equal([]float64{1, 2, 0.5}))
			Expect([]float64(w.State()[6:8])).To(Equal([]float64{3, 4}))
		})
	})
})
