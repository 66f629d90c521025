package collision

import (
	"math"

	"github.com/san-kum/rigid2d/internal/body"
	"github.com/san-kum/rigid2d/internal/collider"
	"github.com/san-kum/rigid2d/internal/dynamo"
	"github.com/san-kum/rigid2d/internal/geom"
	"github.com/san-kum/rigid2d/internal/shape"
)

// Contact is one point of a manifold. Depth is positive when the shapes
// overlap and negative for speculative contacts that are still apart.
type Contact struct {
	Point geom.Vec2
	Depth float64
}

// Manifold describes the contact between collider A and collider B.
// Normal is a unit vector pointing from A towards B.
type Manifold struct {
	A, B         collider.Handle
	BodyA, BodyB body.Handle
	Normal       geom.Vec2
	Points       []Contact
	Material     collider.Material
}

func (m *Manifold) MaxDepth() float64 {
	d := math.Inf(-1)
	for _, p := range m.Points {
		d = math.Max(d, p.Depth)
	}
	return d
}

// Touching reports whether any point is in actual contact.
func (m *Manifold) Touching() bool {
	return m.MaxDepth() >= 0
}

// Narrow runs exact tests for every broad phase pair concurrently and
// returns the manifolds in pair order.
func Narrow(proxies []Proxy, pairs []Pair, prediction float64) []Manifold {
	found := make([]Manifold, len(pairs))
	hit := make([]bool, len(pairs))

	dynamo.ParallelFor(len(pairs), 32, func(start, end int) {
		for i := start; i < end; i++ {
			p := pairs[i]
			found[i], hit[i] = Detect(&proxies[p.I], &proxies[p.J], prediction)
		}
	})

	out := make([]Manifold, 0, len(pairs))
	for i := range found {
		if hit[i] {
			out = append(out, found[i])
		}
	}
	return out
}

// Detect computes the manifold between two proxies if their rounded
// shapes are closer than prediction.
func Detect(a, b *Proxy, prediction float64) (Manifold, bool) {
	var (
		normal geom.Vec2
		points []Contact
		ok     bool
	)

	switch sa := a.Shape.(type) {
	case *shape.Ball:
		switch sb := b.Shape.(type) {
		case *shape.Ball:
			normal, points, ok = ballBall(a.Pose, sa.Radius+a.Margin, b.Pose, sb.Radius+b.Margin, prediction)
		case *shape.Cuboid:
			normal, points, ok = cuboidBall(b.Pose, sb, b.Margin, a.Pose, sa.Radius+a.Margin, prediction)
			normal = normal.Mul(-1)
		}
	case *shape.Cuboid:
		switch sb := b.Shape.(type) {
		case *shape.Ball:
			normal, points, ok = cuboidBall(a.Pose, sa, a.Margin, b.Pose, sb.Radius+b.Margin, prediction)
		case *shape.Cuboid:
			normal, points, ok = cuboidCuboid(a.Pose, sa, a.Margin, b.Pose, sb, b.Margin, prediction)
		}
	}
	if !ok {
		return Manifold{}, false
	}

	return Manifold{
		A:        a.Collider,
		B:        b.Collider,
		BodyA:    a.Body,
		BodyB:    b.Body,
		Normal:   normal,
		Points:   points,
		Material: collider.Combine(a.Material, b.Material),
	}, true
}

func ballBall(pa geom.Isometry, ra float64, pb geom.Isometry, rb float64, prediction float64) (geom.Vec2, []Contact, bool) {
	ca, cb := pa.Translation, pb.Translation
	n, dist := geom.Normalize(cb.Sub(ca))
	if dist == 0 {
		n = geom.V(1, 0)
	}

	sep := dist - ra - rb
	if sep > prediction {
		return geom.Vec2{}, nil, false
	}

	onA := ca.Add(n.Mul(ra))
	onB := cb.Sub(n.Mul(rb))
	return n, []Contact{{Point: onA.Add(onB).Mul(0.5), Depth: -sep}}, true
}

// cuboidBall returns a normal pointing from the cuboid towards the ball.
func cuboidBall(pc geom.Isometry, c *shape.Cuboid, marginC float64, pb geom.Isometry, rb float64, prediction float64) (geom.Vec2, []Contact, bool) {
	hx, hy := c.HalfExtents[0], c.HalfExtents[1]
	p := pc.InverseTransformPoint(pb.Translation)

	var (
		local geom.Vec2
		q     geom.Vec2
		dist  float64
	)

	inside := math.Abs(p[0]) <= hx && math.Abs(p[1]) <= hy
	if inside {
		dx := hx - math.Abs(p[0])
		dy := hy - math.Abs(p[1])
		if dx < dy {
			local = geom.V(sign(p[0]), 0)
			q = geom.V(local[0]*hx, p[1])
			dist = -dx
		} else {
			local = geom.V(0, sign(p[1]))
			q = geom.V(p[0], local[1]*hy)
			dist = -dy
		}
	} else {
		q = geom.V(geom.Clamp(p[0], -hx, hx), geom.Clamp(p[1], -hy, hy))
		local, dist = geom.Normalize(p.Sub(q))
	}

	sep := dist - marginC - rb
	if sep > prediction {
		return geom.Vec2{}, nil, false
	}

	n := pc.TransformVector(local)
	onC := pc.TransformPoint(q).Add(n.Mul(marginC))
	onB := pb.Translation.Sub(n.Mul(rb))
	return n, []Contact{{Point: onC.Add(onB).Mul(0.5), Depth: -sep}}, true
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}
