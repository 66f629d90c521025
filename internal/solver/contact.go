package solver

import (
	"math"

	"github.com/san-kum/rigid2d/internal/body"
	"github.com/san-kum/rigid2d/internal/collider"
	"github.com/san-kum/rigid2d/internal/collision"
	"github.com/san-kum/rigid2d/internal/geom"
)

// ContactKey identifies one contact point across steps for warm starting.
type ContactKey struct {
	A, B  collider.Handle
	Point int
}

type ContactImpulse struct {
	Normal  float64
	Tangent float64
}

// ImpulseCache keeps the accumulated impulses of the previous step.
type ImpulseCache map[ContactKey]ContactImpulse

type contactPoint struct {
	localA, localB geom.Vec2
	depth          float64

	rA, rB      geom.Vec2
	normalMass  float64
	tangentMass float64
	bias        float64

	// approach is the normal relative velocity before the solve; maxNormal
	// the largest normal impulse seen during it.
	approach  float64
	maxNormal float64

	impulse ContactImpulse
}

// ContactConstraint is the non-penetration and friction constraint built
// from one manifold.
type ContactConstraint struct {
	Manifold collision.Manifold

	localNormal geom.Vec2
	friction    float64
	restitution float64
	threshold   float64
	points      []contactPoint
}

// NewContactConstraint seeds the constraint with cached impulses scaled by
// warmStart.
func NewContactConstraint(m collision.Manifold, cache ImpulseCache, warmStart float64) *ContactConstraint {
	c := &ContactConstraint{
		Manifold:    m,
		friction:    m.Material.Friction,
		restitution: m.Material.Restitution,
		points:      make([]contactPoint, len(m.Points)),
	}
	for i := range m.Points {
		if imp, ok := cache[ContactKey{A: m.A, B: m.B, Point: i}]; ok {
			c.points[i].impulse = ContactImpulse{Normal: imp.Normal * warmStart, Tangent: imp.Tangent * warmStart}
		}
	}
	return c
}

func (c *ContactConstraint) Bodies() (body.Handle, body.Handle) {
	return c.Manifold.BodyA, c.Manifold.BodyB
}

// Impulses returns the accumulated impulse of each point.
func (c *ContactConstraint) Impulses() []ContactImpulse {
	out := make([]ContactImpulse, len(c.points))
	for i := range c.points {
		out[i] = c.points[i].impulse
	}
	return out
}

// Store writes the accumulated impulses into cache.
func (c *ContactConstraint) Store(cache ImpulseCache) {
	for i := range c.points {
		cache[ContactKey{A: c.Manifold.A, B: c.Manifold.B, Point: i}] = c.points[i].impulse
	}
}

func (c *ContactConstraint) Prepare(b1, b2 *body.RigidBody, p *Params) {
	n := c.Manifold.Normal
	t := geom.CrossVS(n, 1)
	c.localNormal = b1.Pose.InverseTransformVector(n)

	mA, mB := b1.InvMass(), b2.InvMass()
	iA, iB := b1.InvInertia(), b2.InvInertia()
	comA, comB := b1.CenterOfMass(), b2.CenterOfMass()

	for i, mp := range c.Manifold.Points {
		cp := &c.points[i]
		cp.depth = mp.Depth

		onA := mp.Point.Add(n.Mul(mp.Depth / 2))
		onB := mp.Point.Sub(n.Mul(mp.Depth / 2))
		cp.localA = b1.Pose.InverseTransformPoint(onA)
		cp.localB = b2.Pose.InverseTransformPoint(onB)

		cp.rA = mp.Point.Sub(comA)
		cp.rB = mp.Point.Sub(comB)

		rnA, rnB := geom.Cross(cp.rA, n), geom.Cross(cp.rB, n)
		kNormal := mA + mB + iA*rnA*rnA + iB*rnB*rnB
		if kNormal > 0 {
			cp.normalMass = 1 / kNormal
		}

		rtA, rtB := geom.Cross(cp.rA, t), geom.Cross(cp.rB, t)
		kTangent := mA + mB + iA*rtA*rtA + iB*rtB*rtB
		if kTangent > 0 {
			cp.tangentMass = 1 / kTangent
		}

		cp.bias = 0
		if mp.Depth < 0 {
			// speculative: allow closing the gap within this step
			cp.bias = mp.Depth * p.InvDt()
		}
		cp.approach = relativeVelocity(b1, b2, cp.rA, cp.rB).Dot(n)
		cp.maxNormal = 0
	}
	c.threshold = p.RestitutionVelocityThreshold
}

func relativeVelocity(b1, b2 *body.RigidBody, rA, rB geom.Vec2) geom.Vec2 {
	vA := b1.LinearVelocity.Add(geom.CrossSV(b1.AngularVelocity, rA))
	vB := b2.LinearVelocity.Add(geom.CrossSV(b2.AngularVelocity, rB))
	return vB.Sub(vA)
}

func (c *ContactConstraint) WarmStart(b1, b2 *body.RigidBody) {
	n := c.Manifold.Normal
	t := geom.CrossVS(n, 1)
	for i := range c.points {
		cp := &c.points[i]
		P := n.Mul(cp.impulse.Normal).Add(t.Mul(cp.impulse.Tangent))
		b1.ApplyImpulse(P.Mul(-1), cp.rA)
		b2.ApplyImpulse(P, cp.rB)
	}
}

func (c *ContactConstraint) SolveVelocity(b1, b2 *body.RigidBody) {
	n := c.Manifold.Normal
	t := geom.CrossVS(n, 1)

	for i := range c.points {
		cp := &c.points[i]

		dv := relativeVelocity(b1, b2, cp.rA, cp.rB)
		lambda := -cp.tangentMass * dv.Dot(t)
		maxFriction := c.friction * cp.impulse.Normal
		newImpulse := geom.Clamp(cp.impulse.Tangent+lambda, -maxFriction, maxFriction)
		lambda = newImpulse - cp.impulse.Tangent
		cp.impulse.Tangent = newImpulse

		P := t.Mul(lambda)
		b1.ApplyImpulse(P.Mul(-1), cp.rA)
		b2.ApplyImpulse(P, cp.rB)
	}

	for i := range c.points {
		cp := &c.points[i]

		dv := relativeVelocity(b1, b2, cp.rA, cp.rB)
		lambda := -cp.normalMass * (dv.Dot(n) - cp.bias)
		newImpulse := math.Max(cp.impulse.Normal+lambda, 0)
		lambda = newImpulse - cp.impulse.Normal
		cp.impulse.Normal = newImpulse
		cp.maxNormal = math.Max(cp.maxNormal, newImpulse)

		P := n.Mul(lambda)
		b1.ApplyImpulse(P.Mul(-1), cp.rA)
		b2.ApplyImpulse(P, cp.rB)
	}
}

// ApplyRestitution drives the separating speed of every point that was
// approaching faster than the threshold and actually pushed during the
// solve to restitution times the approach speed. This covers speculative
// contacts, whose solve only stops the bodies at the surface.
func (c *ContactConstraint) ApplyRestitution(b1, b2 *body.RigidBody) {
	if c.restitution == 0 {
		return
	}
	n := c.Manifold.Normal
	for i := range c.points {
		cp := &c.points[i]
		if cp.approach > -c.threshold || cp.maxNormal == 0 {
			continue
		}

		vn := relativeVelocity(b1, b2, cp.rA, cp.rB).Dot(n)
		lambda := -cp.normalMass * (vn + c.restitution*cp.approach)
		newImpulse := math.Max(cp.impulse.Normal+lambda, 0)
		lambda = newImpulse - cp.impulse.Normal
		cp.impulse.Normal = newImpulse
		cp.maxNormal = math.Max(cp.maxNormal, newImpulse)

		P := n.Mul(lambda)
		b1.ApplyImpulse(P.Mul(-1), cp.rA)
		b2.ApplyImpulse(P, cp.rB)
	}
}

// SolvePosition pushes overlapping bodies apart along the contact normal,
// leaving AllowedLinearError of overlap to keep contacts alive.
func (c *ContactConstraint) SolvePosition(b1, b2 *body.RigidBody, p *Params) (float64, float64) {
	mA, mB := b1.InvMass(), b2.InvMass()
	iA, iB := b1.InvInertia(), b2.InvInertia()

	maxErr := 0.0
	for i := range c.points {
		cp := &c.points[i]

		n := b1.Pose.TransformVector(c.localNormal)
		pA := b1.Pose.TransformPoint(cp.localA)
		pB := b2.Pose.TransformPoint(cp.localB)
		separation := pB.Sub(pA).Dot(n)
		maxErr = math.Max(maxErr, -separation)

		C := geom.Clamp(p.ERP*(separation+p.AllowedLinearError), -p.MaxLinearCorrection, 0)
		if C == 0 {
			continue
		}

		point := pA.Add(pB).Mul(0.5)
		rA := point.Sub(b1.CenterOfMass())
		rB := point.Sub(b2.CenterOfMass())
		rnA, rnB := geom.Cross(rA, n), geom.Cross(rB, n)
		k := mA + mB + iA*rnA*rnA + iB*rnB*rnB
		if k <= 0 {
			continue
		}

		P := n.Mul(-C / k)
		b1.Displace(P.Mul(-mA), -iA*geom.Cross(rA, P))
		b2.Displace(P.Mul(mB), iB*geom.Cross(rB, P))
	}
	return maxErr, 0
}
