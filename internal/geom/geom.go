package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type Vec2 = mgl64.Vec2

func V(x, y float64) Vec2 { return Vec2{x, y} }

// Cross returns the z component of a × b.
func Cross(a, b Vec2) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// CrossSV returns s × v for a scalar treated as a z-axis vector.
func CrossSV(s float64, v Vec2) Vec2 {
	return Vec2{-s * v[1], s * v[0]}
}

// CrossVS returns v × s for a scalar treated as a z-axis vector.
func CrossVS(v Vec2, s float64) Vec2 {
	return Vec2{s * v[1], -s * v[0]}
}

func Perp(v Vec2) Vec2 {
	return Vec2{-v[1], v[0]}
}

func Rotate(v Vec2, angle float64) Vec2 {
	if angle == 0 {
		return v
	}
	return mgl64.Rotate2D(angle).Mul2x1(v)
}

func LenSq(v Vec2) float64 {
	return v.Dot(v)
}

// Normalize returns v scaled to unit length and its original length.
// A zero vector is returned unchanged with length 0.
func Normalize(v Vec2) (Vec2, float64) {
	l := v.Len()
	if l == 0 {
		return v, 0
	}
	return v.Mul(1 / l), l
}

func IsFinite(v Vec2) bool {
	return !math.IsNaN(v[0]) && !math.IsNaN(v[1]) && !math.IsInf(v[0], 0) && !math.IsInf(v[1], 0)
}

func Clamp(x, lo, hi float64) float64 {
	return mgl64.Clamp(x, lo, hi)
}
