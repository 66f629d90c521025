package joint

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigid2d/internal/body"
	"github.com/san-kum/rigid2d/internal/geom"
	"github.com/san-kum/rigid2d/internal/solver"
)

// Revolute pins Anchor1 on Body1 to Anchor2 on Body2, leaving the relative
// rotation free. Anchors are in the local frame of their body.
type Revolute struct {
	Body1, Body2     body.Handle
	Anchor1, Anchor2 geom.Vec2
	breaker

	rA, rB  geom.Vec2
	invK    mgl64.Mat2
	impulse geom.Vec2
}

func NewRevolute(b1, b2 body.Handle, anchor1, anchor2 geom.Vec2) *Revolute {
	return &Revolute{Body1: b1, Body2: b2, Anchor1: anchor1, Anchor2: anchor2}
}

func (j *Revolute) Bodies() (body.Handle, body.Handle) { return j.Body1, j.Body2 }

// Impulse is the impulse accumulated during the last step.
func (j *Revolute) Impulse() geom.Vec2 { return j.impulse }

func (j *Revolute) AccumulatedImpulse() []float64 { return []float64{j.impulse[0], j.impulse[1]} }

func (j *Revolute) SetAccumulatedImpulse(v []float64) {
	j.impulse = geom.Vec2{}
	copy(j.impulse[:], v)
}

func arms(b1, b2 *body.RigidBody, a1, a2 geom.Vec2) (geom.Vec2, geom.Vec2) {
	rA := b1.Pose.TransformVector(a1.Sub(b1.LocalCenterOfMass))
	rB := b2.Pose.TransformVector(a2.Sub(b2.LocalCenterOfMass))
	return rA, rB
}

func pointMass(b1, b2 *body.RigidBody, rA, rB geom.Vec2) mgl64.Mat2 {
	mA, mB := b1.InvMass(), b2.InvMass()
	iA, iB := b1.InvInertia(), b2.InvInertia()

	k00 := mA + mB + rA[1]*rA[1]*iA + rB[1]*rB[1]*iB
	k01 := -rA[1]*rA[0]*iA - rB[1]*rB[0]*iB
	k11 := mA + mB + rA[0]*rA[0]*iA + rB[0]*rB[0]*iB
	return mgl64.Mat2{k00, k01, k01, k11}
}

func (j *Revolute) Prepare(b1, b2 *body.RigidBody, p *solver.Params) {
	j.rA, j.rB = arms(b1, b2, j.Anchor1, j.Anchor2)
	j.invK = pointMass(b1, b2, j.rA, j.rB).Inv()
	j.impulse = j.impulse.Mul(p.WarmStartCoeff)
}

func (j *Revolute) WarmStart(b1, b2 *body.RigidBody) {
	b1.ApplyImpulse(j.impulse.Mul(-1), j.rA)
	b2.ApplyImpulse(j.impulse, j.rB)
}

func (j *Revolute) SolveVelocity(b1, b2 *body.RigidBody) {
	vA := b1.LinearVelocity.Add(geom.CrossSV(b1.AngularVelocity, j.rA))
	vB := b2.LinearVelocity.Add(geom.CrossSV(b2.AngularVelocity, j.rB))
	cdot := vB.Sub(vA)

	lambda := j.invK.Mul2x1(cdot).Mul(-1)
	j.impulse = j.impulse.Add(lambda)
	j.check(j.impulse.Len())

	b1.ApplyImpulse(lambda.Mul(-1), j.rA)
	b2.ApplyImpulse(lambda, j.rB)
}

func (j *Revolute) SolvePosition(b1, b2 *body.RigidBody, p *solver.Params) (float64, float64) {
	rA, rB := arms(b1, b2, j.Anchor1, j.Anchor2)
	c := b2.CenterOfMass().Add(rB).Sub(b1.CenterOfMass().Add(rA))

	errLen := c.Len()
	if errLen > p.MaxLinearCorrection {
		c = c.Mul(p.MaxLinearCorrection / errLen)
	}

	P := pointMass(b1, b2, rA, rB).Inv().Mul2x1(c).Mul(-1)
	b1.Displace(P.Mul(-b1.InvMass()), -b1.InvInertia()*geom.Cross(rA, P))
	b2.Displace(P.Mul(b2.InvMass()), b2.InvInertia()*geom.Cross(rB, P))
	return errLen, 0
}

func (j *Revolute) AnchorError(b1, b2 *body.RigidBody) float64 {
	return b2.Pose.TransformPoint(j.Anchor2).Sub(b1.Pose.TransformPoint(j.Anchor1)).Len()
}
