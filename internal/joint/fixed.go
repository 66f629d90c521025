package joint

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigid2d/internal/body"
	"github.com/san-kum/rigid2d/internal/geom"
	"github.com/san-kum/rigid2d/internal/solver"
)

// Fixed welds Frame1 on Body1 to Frame2 on Body2, removing all relative
// motion.
type Fixed struct {
	Body1, Body2   body.Handle
	Frame1, Frame2 geom.Isometry
	breaker

	rA, rB  geom.Vec2
	invK    mgl64.Mat3
	impulse mgl64.Vec3
}

func NewFixed(b1, b2 body.Handle, frame1, frame2 geom.Isometry) *Fixed {
	return &Fixed{Body1: b1, Body2: b2, Frame1: frame1, Frame2: frame2}
}

func (j *Fixed) Bodies() (body.Handle, body.Handle) { return j.Body1, j.Body2 }

func (j *Fixed) AccumulatedImpulse() []float64 {
	return []float64{j.impulse[0], j.impulse[1], j.impulse[2]}
}

func (j *Fixed) SetAccumulatedImpulse(v []float64) {
	j.impulse = mgl64.Vec3{}
	copy(j.impulse[:], v)
}

func (j *Fixed) angleError(b1, b2 *body.RigidBody) float64 {
	return (b2.Pose.Rotation + j.Frame2.Rotation) - (b1.Pose.Rotation + j.Frame1.Rotation)
}

func weldMass(b1, b2 *body.RigidBody, rA, rB geom.Vec2) mgl64.Mat3 {
	iA, iB := b1.InvInertia(), b2.InvInertia()
	k := pointMass(b1, b2, rA, rB)
	k02 := -rA[1]*iA - rB[1]*iB
	k12 := rA[0]*iA + rB[0]*iB
	k22 := iA + iB

	return mgl64.Mat3{
		k[0], k[1], k02,
		k[2], k[3], k12,
		k02, k12, k22,
	}
}

func (j *Fixed) Prepare(b1, b2 *body.RigidBody, p *solver.Params) {
	j.rA, j.rB = arms(b1, b2, j.Frame1.Translation, j.Frame2.Translation)
	j.invK = weldMass(b1, b2, j.rA, j.rB).Inv()
	j.impulse = j.impulse.Mul(p.WarmStartCoeff)
}

func (j *Fixed) apply(b1, b2 *body.RigidBody, imp mgl64.Vec3) {
	P := geom.V(imp[0], imp[1])
	b1.ApplyImpulse(P.Mul(-1), j.rA)
	b2.ApplyImpulse(P, j.rB)
	if b1.IsDynamic() {
		b1.AngularVelocity -= b1.InvInertia() * imp[2]
	}
	if b2.IsDynamic() {
		b2.AngularVelocity += b2.InvInertia() * imp[2]
	}
}

func (j *Fixed) WarmStart(b1, b2 *body.RigidBody) {
	j.apply(b1, b2, j.impulse)
}

func (j *Fixed) SolveVelocity(b1, b2 *body.RigidBody) {
	vA := b1.LinearVelocity.Add(geom.CrossSV(b1.AngularVelocity, j.rA))
	vB := b2.LinearVelocity.Add(geom.CrossSV(b2.AngularVelocity, j.rB))
	cdot1 := vB.Sub(vA)
	cdot := mgl64.Vec3{cdot1[0], cdot1[1], b2.AngularVelocity - b1.AngularVelocity}

	lambda := j.invK.Mul3x1(cdot).Mul(-1)
	j.impulse = j.impulse.Add(lambda)
	j.check(geom.V(j.impulse[0], j.impulse[1]).Len())

	j.apply(b1, b2, lambda)
}

func (j *Fixed) SolvePosition(b1, b2 *body.RigidBody, p *solver.Params) (float64, float64) {
	rA, rB := arms(b1, b2, j.Frame1.Translation, j.Frame2.Translation)
	c1 := b2.CenterOfMass().Add(rB).Sub(b1.CenterOfMass().Add(rA))
	c2 := j.angleError(b1, b2)

	linErr, angErr := c1.Len(), math.Abs(c2)
	if linErr > p.MaxLinearCorrection {
		c1 = c1.Mul(p.MaxLinearCorrection / linErr)
	}
	c2 = geom.Clamp(c2, -p.MaxAngularCorrection, p.MaxAngularCorrection)

	imp := weldMass(b1, b2, rA, rB).Inv().Mul3x1(mgl64.Vec3{c1[0], c1[1], c2}).Mul(-1)
	P := geom.V(imp[0], imp[1])

	b1.Displace(P.Mul(-b1.InvMass()), -b1.InvInertia()*(geom.Cross(rA, P)+imp[2]))
	b2.Displace(P.Mul(b2.InvMass()), b2.InvInertia()*(geom.Cross(rB, P)+imp[2]))
	return linErr, angErr
}

func (j *Fixed) AnchorError(b1, b2 *body.RigidBody) float64 {
	return b2.Pose.TransformPoint(j.Frame2.Translation).Sub(b1.Pose.TransformPoint(j.Frame1.Translation)).Len()
}
