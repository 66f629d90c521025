package shape

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/rigid2d/internal/geom"
)

var ErrInvalidShape = errors.New("shape: invalid dimensions")

type Kind int

const (
	KindBall Kind = iota
	KindCuboid
)

func (k Kind) String() string {
	switch k {
	case KindBall:
		return "ball"
	case KindCuboid:
		return "cuboid"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Shape is a convex collision shape expressed in its own local frame.
type Shape interface {
	Kind() Kind
	AABB(pose geom.Isometry) geom.AABB
	Mass(density float64) float64
	// AngularInertia is taken about the center of mass.
	AngularInertia(density float64) float64
	CenterOfMass() geom.Vec2
	Inertia(density float64) Inertia
}

type Ball struct {
	Radius float64
}

func NewBall(radius float64) (*Ball, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("%w: ball radius %v", ErrInvalidShape, radius)
	}
	return &Ball{Radius: radius}, nil
}

func (b *Ball) Kind() Kind { return KindBall }

func (b *Ball) AABB(pose geom.Isometry) geom.AABB {
	r := geom.V(b.Radius, b.Radius)
	c := pose.Translation
	return geom.AABB{Min: c.Sub(r), Max: c.Add(r)}
}

func (b *Ball) Mass(density float64) float64 {
	return density * math.Pi * b.Radius * b.Radius
}

func (b *Ball) AngularInertia(density float64) float64 {
	return b.Mass(density) * b.Radius * b.Radius / 2
}

func (b *Ball) CenterOfMass() geom.Vec2 { return geom.Vec2{} }

func (b *Ball) Inertia(density float64) Inertia {
	return Inertia{Mass: b.Mass(density), AngularInertia: b.AngularInertia(density)}
}

// Cuboid is a box centered on its local origin.
type Cuboid struct {
	HalfExtents geom.Vec2
}

func NewCuboid(halfExtents geom.Vec2) (*Cuboid, error) {
	if !(halfExtents[0] > 0) || !(halfExtents[1] > 0) || !geom.IsFinite(halfExtents) {
		return nil, fmt.Errorf("%w: cuboid half extents %v", ErrInvalidShape, halfExtents)
	}
	return &Cuboid{HalfExtents: halfExtents}, nil
}

func (c *Cuboid) Kind() Kind { return KindCuboid }

// Vertices returns the corners in counter-clockwise order starting bottom-left.
func (c *Cuboid) Vertices() [4]geom.Vec2 {
	hx, hy := c.HalfExtents[0], c.HalfExtents[1]
	return [4]geom.Vec2{{-hx, -hy}, {hx, -hy}, {hx, hy}, {-hx, hy}}
}

// Normals returns the outward normal of edge i, the edge from vertex i to i+1.
func (c *Cuboid) Normals() [4]geom.Vec2 {
	return [4]geom.Vec2{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
}

func (c *Cuboid) AABB(pose geom.Isometry) geom.AABB {
	verts := c.Vertices()
	pts := make([]geom.Vec2, len(verts))
	for i, v := range verts {
		pts[i] = pose.TransformPoint(v)
	}
	return geom.AABBFromPoints(pts...)
}

func (c *Cuboid) Mass(density float64) float64 {
	return density * 4 * c.HalfExtents[0] * c.HalfExtents[1]
}

func (c *Cuboid) AngularInertia(density float64) float64 {
	hx, hy := c.HalfExtents[0], c.HalfExtents[1]
	return c.Mass(density) * (hx*hx + hy*hy) / 3
}

func (c *Cuboid) CenterOfMass() geom.Vec2 { return geom.Vec2{} }

func (c *Cuboid) Inertia(density float64) Inertia {
	return Inertia{Mass: c.Mass(density), AngularInertia: c.AngularInertia(density)}
}
