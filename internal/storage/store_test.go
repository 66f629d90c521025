package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/san-kum/rigid2d/internal/collider"
	"github.com/san-kum/rigid2d/internal/config"
	"github.com/san-kum/rigid2d/internal/dynamo"
	"github.com/san-kum/rigid2d/internal/world"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Scene = "test"
	cfg.Seed = 42
	cfg.Duration = 1.0
	return cfg
}

func testResult() *dynamo.Result {
	return &dynamo.Result{
		States: []dynamo.State{
			{1, 0, 0, 0, -0.1, 0},
			{1, -0.01, 0, 0, -0.2, 0},
		},
		Times:      []float64{0.0, 0.01},
		StepsTaken: 1,
		Metrics: map[string]float64{
			"energy": 1.5,
		},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(testConfig(), testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Scene != "test" {
		t.Errorf("expected scene 'test', got '%s'", meta.Scene)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Metrics["energy"] != 1.5 {
		t.Errorf("expected energy 1.5, got %f", meta.Metrics["energy"])
	}
	if meta.Samples != 2 {
		t.Errorf("expected 2 samples, got %d", meta.Samples)
	}

	states, times, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}
	if len(states) != 2 || len(times) != 2 {
		t.Fatalf("expected 2 states and times, got %d and %d", len(states), len(times))
	}
	if states[1][1] != -0.01 || times[1] != 0.01 {
		t.Errorf("row mismatch: %v at %v", states[1], times[1])
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	for i := 0; i < 2; i++ {
		if _, err := st.Save(testConfig(), testResult()); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	if err != nil || len(runs) != 0 {
		t.Errorf("List on missing dir = %v, %v", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(testConfig(), testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{metadataFile, statesFile} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestHeader(t *testing.T) {
	h := Header(6)
	if len(h) != 7 || h[1] != "b0_x" || h[6] != "b0_omega" {
		t.Errorf("Header(6) = %v", h)
	}
	if h := Header(4); h[4] != "x3" {
		t.Errorf("Header(4) = %v", h)
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	runID, err := st.Save(testConfig(), testResult())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := st.ExportJSON(&buf, runID); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var got ExportData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if got.ID != runID || len(got.States) != 2 || got.Header[1] != "b0_x" {
		t.Errorf("unexpected export: %+v", got)
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	runID, err := st.Save(testConfig(), testResult())
	if err != nil {
		t.Fatal(err)
	}

	snap := world.Snapshot{
		Time:  1.5,
		Steps: 90,
		Bodies: []world.BodyState{
			{Index: 3, Generation: 2, X: 1, Y: -2, Angle: 0.5, VX: 0.1, VY: 0.2, AngularVelocity: -1},
		},
		Joints: []world.JointState{
			{Index: 0, Generation: 1, Impulse: []float64{0.25, -1.5}},
		},
		Contacts: []world.ContactState{
			{A: collider.Handle{Index: 1, Generation: 1}, B: collider.Handle{Index: 4, Generation: 2}, Point: 0, Normal: 0.7, Tangent: -0.1},
			{A: collider.Handle{Index: 1, Generation: 1}, B: collider.Handle{Index: 4, Generation: 2}, Point: -1},
		},
	}
	if err := st.SaveCheckpoint(runID, snap); err != nil {
		t.Fatalf("save checkpoint: %v", err)
	}

	got, err := st.LoadCheckpoint(runID)
	if err != nil {
		t.Fatalf("load checkpoint: %v", err)
	}
	if !reflect.DeepEqual(got, snap) {
		t.Errorf("checkpoint = %+v, want %+v", got, snap)
	}
}

func TestLoadCheckpointMissing(t *testing.T) {
	if _, err := New(t.TempDir()).LoadCheckpoint("none"); err == nil {
		t.Error("expected error for missing checkpoint")
	}
}
