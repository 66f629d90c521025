package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/rigid2d/internal/config"
)

const scenarioYAML = `
name: smoke
description: two short runs
steps:
  - scene: spring_grid
    duration: 0.05
    params:
      num: 2
  - scene: pyramid
    preset: small
    duration: 0.05
    gravity: [0, -1]
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if sc.Name != "smoke" || len(sc.Steps) != 2 {
		t.Fatalf("unexpected scenario: %+v", sc)
	}

	results, err := RunScenario(context.Background(), sc, nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if g := results[1].Config.World.Gravity; len(g) != 2 || g[1] != -1 {
		t.Errorf("gravity not applied: %v", g)
	}
	if results[1].Config.Params["rows"] != 4 {
		t.Errorf("preset params not applied: %v", results[1].Config.Params)
	}
}

func TestLoadScenarioEmpty(t *testing.T) {
	if _, err := LoadScenario(writeScenario(t, "name: empty\n")); err == nil {
		t.Error("expected error for scenario without steps")
	}
}

func TestScenarioStopsOnError(t *testing.T) {
	sc := &Scenario{Name: "bad", Steps: []ScenarioStep{
		{Scene: "spring_grid", Duration: 0.02, Params: map[string]float64{"num": 2}},
		{Scene: "no_such_scene", Duration: 0.02},
	}}

	results, err := RunScenario(context.Background(), sc, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(results) != 1 {
		t.Errorf("expected the first step to complete, got %d results", len(results))
	}
}

func smallBase() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Scene = "spring_grid"
	cfg.Duration = 0.05
	cfg.Params = map[string]float64{"num": 2}
	return cfg
}

func TestRunSweep(t *testing.T) {
	sweep := &ParameterSweep{
		Base:      smallBase(),
		ParamName: "stiffness",
		ParamMin:  0.001,
		ParamMax:  0.01,
		NumSteps:  4,
	}

	results, err := RunSweep(context.Background(), sweep, nil)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	if results[0].ParamValue != 0.001 || results[3].ParamValue != 0.01 {
		t.Errorf("sweep range = %v .. %v", results[0].ParamValue, results[3].ParamValue)
	}
	for _, r := range results {
		if !r.Stable || len(r.FinalState) != 4*6 {
			t.Errorf("unexpected sweep result %+v", r)
		}
	}
}

func TestRunMonteCarlo(t *testing.T) {
	base := smallBase()
	base.Seed = 10

	results, err := RunMonteCarlo(context.Background(), &MonteCarloConfig{
		Base:         base,
		Perturbation: 0.1,
		NumTrials:    3,
	}, nil)
	if err != nil {
		t.Fatalf("monte carlo failed: %v", err)
	}

	stableCount, unstableCount := MonteCarloStats(results)
	if stableCount != 3 || unstableCount != 0 {
		t.Errorf("stable=%d unstable=%d", stableCount, unstableCount)
	}
	if results[2].Seed != 12 {
		t.Errorf("trial seed = %d, want 12", results[2].Seed)
	}
}

func TestSweepValidation(t *testing.T) {
	if _, err := RunSweep(context.Background(), &ParameterSweep{Base: smallBase(), ParamName: "num"}, nil); err == nil {
		t.Error("expected error for zero steps")
	}
}
