package collision

import (
	"math"

	"github.com/san-kum/rigid2d/internal/geom"
	"github.com/san-kum/rigid2d/internal/shape"
)

// relTolerance biases reference face selection towards the first shape so
// that resting stacks do not flip between faces from one step to the next.
const relTolerance = 0.0005

type polygon struct {
	vertices [4]geom.Vec2
	normals  [4]geom.Vec2
}

func worldPolygon(pose geom.Isometry, c *shape.Cuboid) polygon {
	var p polygon
	verts, normals := c.Vertices(), c.Normals()
	for i := range verts {
		p.vertices[i] = pose.TransformPoint(verts[i])
		p.normals[i] = pose.TransformVector(normals[i])
	}
	return p
}

// maxSeparation finds the face of p1 along which p2 is furthest away.
func maxSeparation(p1, p2 *polygon) (int, float64) {
	best, bestSep := 0, math.Inf(-1)
	for i, n := range p1.normals {
		v1 := p1.vertices[i]
		sep := math.Inf(1)
		for _, v2 := range p2.vertices {
			sep = math.Min(sep, n.Dot(v2.Sub(v1)))
		}
		if sep > bestSep {
			best, bestSep = i, sep
		}
	}
	return best, bestSep
}

func incidentEdge(ref *polygon, edge int, inc *polygon) [2]geom.Vec2 {
	n := ref.normals[edge]
	idx, minDot := 0, math.Inf(1)
	for i, m := range inc.normals {
		if d := n.Dot(m); d < minDot {
			idx, minDot = i, d
		}
	}
	return [2]geom.Vec2{inc.vertices[idx], inc.vertices[(idx+1)%4]}
}

// clipSegment keeps the part of the segment on the negative side of the
// plane dot(normal, x) = offset.
func clipSegment(in [2]geom.Vec2, normal geom.Vec2, offset float64) ([2]geom.Vec2, int) {
	var out [2]geom.Vec2
	n := 0

	d0 := normal.Dot(in[0]) - offset
	d1 := normal.Dot(in[1]) - offset
	if d0 <= 0 {
		out[n] = in[0]
		n++
	}
	if d1 <= 0 {
		out[n] = in[1]
		n++
	}
	if d0*d1 < 0 && n < 2 {
		t := d0 / (d0 - d1)
		out[n] = in[0].Add(in[1].Sub(in[0]).Mul(t))
		n++
	}
	return out, n
}

// cuboidCuboid uses the separating axis test with reference/incident face
// clipping. Margins act as rounding radii on both shapes.
func cuboidCuboid(pa geom.Isometry, ca *shape.Cuboid, ma float64, pb geom.Isometry, cb *shape.Cuboid, mb float64, prediction float64) (geom.Vec2, []Contact, bool) {
	polyA, polyB := worldPolygon(pa, ca), worldPolygon(pb, cb)
	total := ma + mb

	edgeA, sepA := maxSeparation(&polyA, &polyB)
	if sepA > total+prediction {
		return geom.Vec2{}, nil, false
	}
	edgeB, sepB := maxSeparation(&polyB, &polyA)
	if sepB > total+prediction {
		return geom.Vec2{}, nil, false
	}

	ref, inc := &polyA, &polyB
	edge := edgeA
	rRef, rInc := ma, mb
	flipped := false
	if sepB > sepA+relTolerance {
		ref, inc = &polyB, &polyA
		edge = edgeB
		rRef, rInc = mb, ma
		flipped = true
	}

	incident := incidentEdge(ref, edge, inc)

	v1 := ref.vertices[edge]
	v2 := ref.vertices[(edge+1)%4]
	tangent, _ := geom.Normalize(v2.Sub(v1))
	normal := ref.normals[edge]

	front := normal.Dot(v1)
	side1 := -tangent.Dot(v1) + total
	side2 := tangent.Dot(v2) + total

	clipped, n := clipSegment(incident, tangent.Mul(-1), side1)
	if n < 2 {
		return geom.Vec2{}, nil, false
	}
	clipped, n = clipSegment(clipped, tangent, side2)
	if n < 2 {
		return geom.Vec2{}, nil, false
	}

	points := make([]Contact, 0, 2)
	for _, v := range clipped {
		sep := normal.Dot(v) - front
		if sep > total+prediction {
			continue
		}
		onRef := v.Sub(normal.Mul(sep - rRef))
		onInc := v.Sub(normal.Mul(rInc))
		points = append(points, Contact{
			Point: onRef.Add(onInc).Mul(0.5),
			Depth: total - sep,
		})
	}
	if len(points) == 0 {
		return geom.Vec2{}, nil, false
	}

	if flipped {
		normal = normal.Mul(-1)
	}
	return normal, points, true
}
