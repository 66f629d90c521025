package collision

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/rigid2d/internal/body"
	"github.com/san-kum/rigid2d/internal/collider"
	"github.com/san-kum/rigid2d/internal/geom"
	"github.com/san-kum/rigid2d/internal/shape"
)

func proxy(id uint32, s shape.Shape, pose geom.Isometry, margin float64) Proxy {
	p := Proxy{
		Collider: collider.Handle{Index: id, Generation: 1},
		Body:     body.Handle{Index: id + 1, Generation: 1},
		Shape:    s,
		Pose:     pose,
		Margin:   margin,
		Material: collider.DefaultMaterial(),
		Dynamic:  true,
	}
	p.AABB = s.AABB(pose).Loosened(margin)
	return p
}

func at(x, y float64) geom.Isometry { return geom.NewIsometry(geom.V(x, y), 0) }

func TestBallBall(t *testing.T) {
	a := proxy(0, &shape.Ball{Radius: 0.5}, at(0, 0), 0)
	b := proxy(1, &shape.Ball{Radius: 0.5}, at(0.9, 0), 0)

	m, ok := Detect(&a, &b, 0)
	require.True(t, ok)
	require.Len(t, m.Points, 1)
	require.InDelta(t, 1.0, m.Normal[0], 1e-12)
	require.InDelta(t, 0.1, m.Points[0].Depth, 1e-12)
	require.InDelta(t, 0.45, m.Points[0].Point[0], 1e-12)
}

func TestBallBallMarginCountsAsRadius(t *testing.T) {
	a := proxy(0, &shape.Ball{Radius: 0.06}, at(0, 0), 0.04)
	b := proxy(1, &shape.Ball{Radius: 0.06}, at(0.202, 0), 0.04)

	_, ok := Detect(&a, &b, 0)
	require.False(t, ok, "0.002 gap with zero prediction")

	m, ok := Detect(&a, &b, 0.003)
	require.True(t, ok)
	require.InDelta(t, -0.002, m.Points[0].Depth, 1e-12)
	require.False(t, m.Touching())
}

func TestBallCuboidBothOrders(t *testing.T) {
	box := proxy(0, &shape.Cuboid{HalfExtents: geom.V(2, 0.5)}, at(0, 0), 0)
	ball := proxy(1, &shape.Ball{Radius: 0.25}, at(0.5, 0.7), 0)

	m, ok := Detect(&box, &ball, 0)
	require.True(t, ok)
	require.InDelta(t, 0, m.Normal[0], 1e-12)
	require.InDelta(t, 1, m.Normal[1], 1e-12)
	require.InDelta(t, 0.05, m.Points[0].Depth, 1e-12)

	m2, ok := Detect(&ball, &box, 0)
	require.True(t, ok)
	require.InDelta(t, -1, m2.Normal[1], 1e-12)
	require.Equal(t, ball.Collider, m2.A)
}

func TestBallInsideCuboid(t *testing.T) {
	box := proxy(0, &shape.Cuboid{HalfExtents: geom.V(1, 1)}, at(0, 0), 0)
	ball := proxy(1, &shape.Ball{Radius: 0.1}, at(0.8, 0.2), 0)

	m, ok := Detect(&box, &ball, 0)
	require.True(t, ok)
	require.InDelta(t, 1, m.Normal[0], 1e-12)
	require.InDelta(t, 0.3, m.Points[0].Depth, 1e-12)
}

func TestCuboidStack(t *testing.T) {
	lower := proxy(0, &shape.Cuboid{HalfExtents: geom.V(1, 1)}, at(0, 0), 0)
	upper := proxy(1, &shape.Cuboid{HalfExtents: geom.V(1, 1)}, at(0, 1.9), 0)

	m, ok := Detect(&lower, &upper, 0)
	require.True(t, ok)
	require.Len(t, m.Points, 2)
	require.InDelta(t, 0, m.Normal[0], 1e-9)
	require.InDelta(t, 1, m.Normal[1], 1e-9)
	for _, p := range m.Points {
		require.InDelta(t, 0.1, p.Depth, 1e-9)
		require.InDelta(t, 0.95, p.Point[1], 1e-9)
	}

	m2, ok := Detect(&upper, &lower, 0)
	require.True(t, ok)
	require.InDelta(t, -1, m2.Normal[1], 1e-9)
}

func TestCuboidRotatedCorner(t *testing.T) {
	ground := proxy(0, &shape.Cuboid{HalfExtents: geom.V(5, 0.5)}, at(0, 0), 0)
	tilted := proxy(1, &shape.Cuboid{HalfExtents: geom.V(0.5, 0.5)}, geom.NewIsometry(geom.V(0, 0.5+math.Sqrt2/2-0.05), math.Pi/4), 0)

	m, ok := Detect(&ground, &tilted, 0)
	require.True(t, ok)
	require.Len(t, m.Points, 1)
	require.InDelta(t, 1, m.Normal[1], 1e-9)
	require.InDelta(t, 0.05, m.Points[0].Depth, 1e-9)
}

func TestCuboidsApart(t *testing.T) {
	a := proxy(0, &shape.Cuboid{HalfExtents: geom.V(1, 1)}, at(0, 0), 0)
	b := proxy(1, &shape.Cuboid{HalfExtents: geom.V(1, 1)}, at(3, 0), 0)

	_, ok := Detect(&a, &b, 0.1)
	require.False(t, ok)
}

func TestFindPairs(t *testing.T) {
	ball := func(id uint32, x float64) Proxy {
		return proxy(id, &shape.Ball{Radius: 0.5}, at(x, 0), 0)
	}
	proxies := []Proxy{ball(0, 0), ball(1, 0.8), ball(2, 5), ball(3, 1.6)}

	sameBody := ball(4, 0.1)
	sameBody.Body = proxies[0].Body
	proxies = append(proxies, sameBody)

	static := ball(5, 5.5)
	static.Dynamic = false
	other := ball(6, 5.2)
	other.Dynamic = false
	proxies = append(proxies, static, other)

	pairs := FindPairs(proxies, 0)
	require.Equal(t, []Pair{{0, 1}, {1, 3}, {1, 4}, {2, 5}, {2, 6}}, pairs)
}

func TestNarrowKeepsPairOrder(t *testing.T) {
	var proxies []Proxy
	for i := 0; i < 100; i++ {
		proxies = append(proxies, proxy(uint32(i), &shape.Ball{Radius: 0.5}, at(float64(i)*0.9, 0), 0))
	}

	pairs := FindPairs(proxies, 0)
	require.Len(t, pairs, 99)

	manifolds := Narrow(proxies, pairs, 0)
	require.Len(t, manifolds, 99)
	for i, m := range manifolds {
		require.Equal(t, proxies[i].Collider, m.A)
		require.Equal(t, proxies[i+1].Collider, m.B)
	}
}

func TestDiff(t *testing.T) {
	a := collider.Handle{Index: 0, Generation: 1}
	b := collider.Handle{Index: 1, Generation: 1}
	c := collider.Handle{Index: 2, Generation: 1}

	touching := []Manifold{{A: a, B: b, Points: []Contact{{Depth: 0.01}}}}
	events, set := Diff(nil, touching)
	require.Equal(t, []Event{{A: a, B: b, Started: true}}, events)

	events, set = Diff(set, []Manifold{{A: a, B: b, Points: []Contact{{Depth: 0.02}}}})
	require.Empty(t, events)

	events, _ = Diff(set, []Manifold{
		{A: a, B: b, Points: []Contact{{Depth: -0.001}}},
		{A: b, B: c, Points: []Contact{{Depth: 0}}},
	})
	require.Equal(t, []Event{{A: b, B: c, Started: true}, {A: a, B: b}}, events)
}
