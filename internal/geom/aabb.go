package geom

import "math"

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min Vec2
	Max Vec2
}

func AABBFromPoints(points ...Vec2) AABB {
	box := AABB{
		Min: Vec2{math.Inf(1), math.Inf(1)},
		Max: Vec2{math.Inf(-1), math.Inf(-1)},
	}
	for _, p := range points {
		box.Min = Vec2{math.Min(box.Min[0], p[0]), math.Min(box.Min[1], p[1])}
		box.Max = Vec2{math.Max(box.Max[0], p[0]), math.Max(box.Max[1], p[1])}
	}
	return box
}

func (b AABB) Intersects(o AABB) bool {
	return b.Min[0] <= o.Max[0] && o.Min[0] <= b.Max[0] &&
		b.Min[1] <= o.Max[1] && o.Min[1] <= b.Max[1]
}

func (b AABB) Contains(p Vec2) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] && p[1] >= b.Min[1] && p[1] <= b.Max[1]
}

func (b AABB) Merge(o AABB) AABB {
	return AABB{
		Min: Vec2{math.Min(b.Min[0], o.Min[0]), math.Min(b.Min[1], o.Min[1])},
		Max: Vec2{math.Max(b.Max[0], o.Max[0]), math.Max(b.Max[1], o.Max[1])},
	}
}

func (b AABB) Loosened(margin float64) AABB {
	m := Vec2{margin, margin}
	return AABB{Min: b.Min.Sub(m), Max: b.Max.Add(m)}
}

func (b AABB) Center() Vec2 {
	return b.Min.Add(b.Max).Mul(0.5)
}
