package body

import (
	"fmt"

	"github.com/san-kum/rigid2d/internal/geom"
	"github.com/san-kum/rigid2d/internal/shape"
)

type Status int

const (
	Dynamic Status = iota
	Static
	Kinematic
)

func (s Status) String() string {
	switch s {
	case Dynamic:
		return "dynamic"
	case Static:
		return "static"
	case Kinematic:
		return "kinematic"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// RigidBody holds the state of one simulated body. Pose is the body frame;
// the center of mass sits at LocalCenterOfMass in that frame and all
// rotation during integration happens about it.
type RigidBody struct {
	Name              string
	Status            Status
	Pose              geom.Isometry
	LocalCenterOfMass geom.Vec2
	LinearVelocity    geom.Vec2
	AngularVelocity   float64
	LinearDamping     float64
	AngularDamping    float64

	inertia    shape.Inertia
	invInertia shape.Inertia
	force      geom.Vec2
	torque     float64
}

func New(pose geom.Isometry, inertia shape.Inertia, localCenterOfMass geom.Vec2) *RigidBody {
	b := &RigidBody{
		Status:            Dynamic,
		Pose:              pose,
		LocalCenterOfMass: localCenterOfMass,
	}
	b.SetInertia(inertia)
	return b
}

func NewStatic(pose geom.Isometry) *RigidBody {
	return &RigidBody{Status: Static, Pose: pose}
}

func (b *RigidBody) SetInertia(i shape.Inertia) {
	b.inertia = i
	b.invInertia = i.Inverse()
}

func (b *RigidBody) Inertia() shape.Inertia { return b.inertia }

func (b *RigidBody) IsDynamic() bool { return b.Status == Dynamic }

// InvMass is zero for anything that does not respond to forces.
func (b *RigidBody) InvMass() float64 {
	if !b.IsDynamic() {
		return 0
	}
	return b.invInertia.Mass
}

func (b *RigidBody) InvInertia() float64 {
	if !b.IsDynamic() {
		return 0
	}
	return b.invInertia.AngularInertia
}

func (b *RigidBody) Mass() float64 {
	if !b.IsDynamic() {
		return 0
	}
	return b.inertia.Mass
}

// CenterOfMass returns the world-space center of mass.
func (b *RigidBody) CenterOfMass() geom.Vec2 {
	return b.Pose.TransformPoint(b.LocalCenterOfMass)
}

func (b *RigidBody) Force() geom.Vec2 { return b.force }

func (b *RigidBody) Torque() float64 { return b.torque }

func (b *RigidBody) ApplyForce(f geom.Vec2) {
	if !b.IsDynamic() {
		return
	}
	b.force = b.force.Add(f)
}

func (b *RigidBody) ApplyTorque(t float64) {
	if !b.IsDynamic() {
		return
	}
	b.torque += t
}

// ApplyForceAtPoint applies f at a world-space point.
func (b *RigidBody) ApplyForceAtPoint(f, point geom.Vec2) {
	if !b.IsDynamic() {
		return
	}
	b.force = b.force.Add(f)
	b.torque += geom.Cross(point.Sub(b.CenterOfMass()), f)
}

// ApplyImpulseAtPoint changes velocity directly; the point is in world space.
func (b *RigidBody) ApplyImpulseAtPoint(impulse, point geom.Vec2) {
	if !b.IsDynamic() {
		return
	}
	r := point.Sub(b.CenterOfMass())
	b.ApplyImpulse(impulse, r)
}

// ApplyImpulse applies an impulse at offset r from the center of mass.
func (b *RigidBody) ApplyImpulse(impulse, r geom.Vec2) {
	if !b.IsDynamic() {
		return
	}
	b.LinearVelocity = b.LinearVelocity.Add(impulse.Mul(b.invInertia.Mass))
	b.AngularVelocity += b.invInertia.AngularInertia * geom.Cross(r, impulse)
}

func (b *RigidBody) VelocityAtPoint(point geom.Vec2) geom.Vec2 {
	r := point.Sub(b.CenterOfMass())
	return b.LinearVelocity.Add(geom.CrossSV(b.AngularVelocity, r))
}

func (b *RigidBody) ClearForces() {
	b.force = geom.Vec2{}
	b.torque = 0
}

func (b *RigidBody) KineticEnergy() float64 {
	if !b.IsDynamic() {
		return 0
	}
	v := b.LinearVelocity
	return 0.5*b.inertia.Mass*v.Dot(v) + 0.5*b.inertia.AngularInertia*b.AngularVelocity*b.AngularVelocity
}

// IntegrateVelocity folds gravity and accumulated forces into the velocity.
func (b *RigidBody) IntegrateVelocity(gravity geom.Vec2, dt float64) {
	if !b.IsDynamic() {
		return
	}
	acc := b.force.Mul(b.invInertia.Mass)
	if b.invInertia.Mass != 0 {
		acc = acc.Add(gravity)
	}
	b.LinearVelocity = b.LinearVelocity.Add(acc.Mul(dt))
	b.AngularVelocity += b.torque * b.invInertia.AngularInertia * dt

	if b.LinearDamping > 0 {
		b.LinearVelocity = b.LinearVelocity.Mul(1 / (1 + dt*b.LinearDamping))
	}
	if b.AngularDamping > 0 {
		b.AngularVelocity /= 1 + dt*b.AngularDamping
	}
}

// IntegratePosition advances the pose by the current velocity. Static
// bodies never move; kinematic bodies follow their velocity.
func (b *RigidBody) IntegratePosition(dt float64) {
	if b.Status == Static {
		return
	}
	b.Displace(b.LinearVelocity.Mul(dt), b.AngularVelocity*dt)
}

// Displace translates the center of mass by dp and rotates the body about it by dtheta.
func (b *RigidBody) Displace(dp geom.Vec2, dtheta float64) {
	com := b.CenterOfMass()
	newCom := com.Add(dp)
	b.Pose.Rotation += dtheta
	b.Pose.Translation = newCom.Sub(b.Pose.TransformVector(b.LocalCenterOfMass))
}
