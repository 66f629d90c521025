package collider

import (
	"math"

	"github.com/san-kum/rigid2d/internal/body"
	"github.com/san-kum/rigid2d/internal/geom"
	"github.com/san-kum/rigid2d/internal/shape"
)

type Material struct {
	Restitution float64
	Friction    float64
}

func DefaultMaterial() Material {
	return Material{Restitution: 0, Friction: 0.5}
}

// Combine mixes the materials of two touching colliders.
func Combine(a, b Material) Material {
	return Material{
		Restitution: math.Max(a.Restitution, b.Restitution),
		Friction:    math.Sqrt(a.Friction * b.Friction),
	}
}

// Collider attaches a shape to a body. The collision geometry is the shape
// inflated by Margin.
type Collider struct {
	Shape     shape.Shape
	Body      body.Handle
	LocalPose geom.Isometry
	Margin    float64
	Material  Material
}

// Pose returns the collider's world pose given the pose of its body.
func (c *Collider) Pose(bodyPose geom.Isometry) geom.Isometry {
	return bodyPose.Mul(c.LocalPose)
}

func (c *Collider) AABB(bodyPose geom.Isometry) geom.AABB {
	return c.Shape.AABB(c.Pose(bodyPose)).Loosened(c.Margin)
}
