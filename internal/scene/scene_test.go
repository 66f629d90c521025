package scene

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/rigid2d/internal/geom"
	"github.com/san-kum/rigid2d/internal/world"
)

func TestSpringGridLayout(t *testing.T) {
	w, err := Build("spring_grid", nil)
	if err != nil {
		t.Fatal(err)
	}

	if w.BodyCount() != 144 {
		t.Errorf("BodyCount = %d, want 144", w.BodyCount())
	}
	if w.ColliderCount() != 144 {
		t.Errorf("ColliderCount = %d, want 144", w.ColliderCount())
	}
	if w.ForceGeneratorCount() != 144 {
		t.Errorf("ForceGeneratorCount = %d, want 144", w.ForceGeneratorCount())
	}
	if w.ConstraintCount() != 72 {
		t.Errorf("ConstraintCount = %d, want 72", w.ConstraintCount())
	}
	if w.Gravity() != (geom.Vec2{}) {
		t.Errorf("gravity = %v, want zero", w.Gravity())
	}

	first, _ := w.Body(w.Bodies()[0])
	shift := 0.202
	want := geom.V(-shift*6, shift/2)
	if d := first.Pose.Translation.Sub(want).Len(); d > 1e-12 {
		t.Errorf("first body at %v, want %v", first.Pose.Translation, want)
	}
}

func TestSpringGridParams(t *testing.T) {
	w, err := Build("spring_grid", Params{"num": 3, "ground": 1})
	if err != nil {
		t.Fatal(err)
	}
	if w.BodyCount() != 9 {
		t.Errorf("BodyCount = %d, want 9", w.BodyCount())
	}
	// one extra collider on ground
	if w.ColliderCount() != 10 {
		t.Errorf("ColliderCount = %d, want 10", w.ColliderCount())
	}
	if w.ConstraintCount() != 4 {
		t.Errorf("ConstraintCount = %d, want 4", w.ConstraintCount())
	}
}

func TestScenesStepFinite(t *testing.T) {
	for _, name := range List() {
		t.Run(name, func(t *testing.T) {
			w, err := Build(name, Params{"num": 4, "links": 3, "rows": 3})
			if err != nil {
				t.Fatal(err)
			}
			for i := 0; i < 60; i++ {
				w.Step()
			}
			if !w.State().IsValid() {
				t.Fatalf("state diverged after 60 steps")
			}
		})
	}
}

func TestOptionsOverrideSceneGravity(t *testing.T) {
	w, err := Build("pyramid", nil, world.WithGravity(geom.V(0, -1)))
	if err != nil {
		t.Fatal(err)
	}
	if w.Gravity() != geom.V(0, -1) {
		t.Errorf("gravity = %v", w.Gravity())
	}
}

func TestPyramidCount(t *testing.T) {
	w, err := Build("pyramid", Params{"rows": 4})
	if err != nil {
		t.Fatal(err)
	}
	if w.BodyCount() != 10 {
		t.Errorf("BodyCount = %d, want 10", w.BodyCount())
	}
}

func TestCradlePulledBall(t *testing.T) {
	w, err := Build("cradle", Params{"balls": 3, "pulled": 1})
	if err != nil {
		t.Fatal(err)
	}
	hs := w.Bodies()
	first, _ := w.Body(hs[0])
	second, _ := w.Body(hs[1])
	if first.Pose.Translation[1] <= second.Pose.Translation[1] {
		t.Errorf("pulled ball not raised: %v vs %v", first.Pose.Translation, second.Pose.Translation)
	}
	if e := w.JointError(); e > 1e-9 {
		t.Errorf("initial joint error = %v", e)
	}
	if math.Abs(w.KineticEnergy()) > 0 {
		t.Errorf("cradle should start at rest")
	}
}

func TestCradleTransfersMomentum(t *testing.T) {
	w, err := Build("cradle", Params{"balls": 3, "pulled": 1})
	if err != nil {
		t.Fatal(err)
	}
	hs := w.Bodies()
	first, _ := w.Body(hs[0])
	last, _ := w.Body(hs[len(hs)-1])

	var peakFirst, peakLast, firstAtPeak float64
	for i := 0; i < 90; i++ {
		w.Step()
		peakFirst = math.Max(peakFirst, first.LinearVelocity.Len())
		if v := last.LinearVelocity.Len(); v > peakLast {
			peakLast, firstAtPeak = v, first.LinearVelocity.Len()
		}
	}

	if peakFirst < 3 {
		t.Fatalf("pulled ball peaked at %v, expected about 3.4", peakFirst)
	}
	if peakLast < 0.8*peakFirst {
		t.Errorf("last ball peaked at %v, want most of %v", peakLast, peakFirst)
	}
	if firstAtPeak > 0.2*peakFirst {
		t.Errorf("first ball still moving at %v when the last one peaked", firstAtPeak)
	}
}

func TestUnknownScene(t *testing.T) {
	if _, err := Build("nope", nil); !errors.Is(err, ErrUnknownScene) {
		t.Errorf("expected ErrUnknownScene, got %v", err)
	}
}

func TestInvalidParams(t *testing.T) {
	cases := []struct {
		scene  string
		params Params
	}{
		{"spring_grid", Params{"num": 0}},
		{"pendulum_chain", Params{"links": 0}},
		{"pyramid", Params{"rows": 0}},
		{"cradle", Params{"balls": 2, "pulled": 3}},
		{"cradle", Params{"gap": -0.1}},
	}
	for _, tc := range cases {
		_, err := Build(tc.scene, tc.params)
		if err == nil {
			t.Errorf("%s: expected error for %v", tc.scene, tc.params)
		}
		if errors.Is(err, ErrUnknownScene) {
			t.Errorf("%s: scene should exist", tc.scene)
		}
	}
}
