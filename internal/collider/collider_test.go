package collider

import (
	"math"
	"testing"

	"github.com/san-kum/rigid2d/internal/body"
	"github.com/san-kum/rigid2d/internal/geom"
	"github.com/san-kum/rigid2d/internal/shape"
)

func TestCombine(t *testing.T) {
	tests := []struct {
		name string
		a, b Material
		want Material
	}{
		{"defaults", DefaultMaterial(), DefaultMaterial(), Material{0, 0.5}},
		{"max restitution", Material{0.2, 1}, Material{0.8, 0.25}, Material{0.8, 0.5}},
		{"frictionless side", Material{0, 0}, Material{0, 1}, Material{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Combine(tt.a, tt.b)
			if math.Abs(got.Friction-tt.want.Friction) > 1e-12 || got.Restitution != tt.want.Restitution {
				t.Errorf("Combine = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestColliderAABBIncludesMargin(t *testing.T) {
	c := &Collider{
		Shape:     &shape.Ball{Radius: 0.06},
		LocalPose: geom.NewIsometry(geom.V(1, 0), 0),
		Margin:    0.04,
	}
	box := c.AABB(geom.NewIsometry(geom.V(0, 2), 0))

	if math.Abs(box.Min[0]-0.9) > 1e-12 || math.Abs(box.Max[1]-2.1) > 1e-12 {
		t.Errorf("AABB = %+v", box)
	}
}

func TestStoreByBody(t *testing.T) {
	s := NewStore()
	b1 := body.Handle{Index: 1, Generation: 1}
	b2 := body.Handle{Index: 2, Generation: 1}

	h1 := s.Insert(&Collider{Body: b1})
	h2 := s.Insert(&Collider{Body: b1})
	h3 := s.Insert(&Collider{Body: b2})

	if got := s.ByBody(b1); len(got) != 2 || got[0] != h1 || got[1] != h2 {
		t.Fatalf("ByBody(b1) = %v", got)
	}

	s.Remove(h1)
	if got := s.ByBody(b1); len(got) != 1 || got[0] != h2 {
		t.Errorf("after remove ByBody(b1) = %v", got)
	}
	if s.Remove(h1) {
		t.Error("second remove should fail")
	}
	if got := s.ByBody(b2); len(got) != 1 || got[0] != h3 {
		t.Errorf("ByBody(b2) = %v", got)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}
