package automation

import (
	"context"
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/rigid2d/internal/config"
	"github.com/san-kum/rigid2d/internal/dynamo"
	"github.com/san-kum/rigid2d/internal/experiment"
	"github.com/san-kum/rigid2d/internal/metrics"
)

// Scenario defines a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run. Zero fields fall back to the defaults, or to
// the preset when one is named.
type ScenarioStep struct {
	Scene    string             `yaml:"scene"`
	Preset   string             `yaml:"preset"`
	Duration float64            `yaml:"duration"`
	Dt       float64            `yaml:"dt"`
	Gravity  []float64          `yaml:"gravity"`
	Seed     int64              `yaml:"seed"`
	Params   map[string]float64 `yaml:"params"`
	SaveAs   string             `yaml:"save_as"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

// Config resolves the step into a run configuration.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Scene, s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %s for scene %s", s.Preset, s.Scene)
		}
	}

	if s.Scene != "" {
		cfg.Scene = s.Scene
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	if s.Dt > 0 {
		cfg.World.Dt = s.Dt
	}
	if s.Gravity != nil {
		cfg.World.Gravity = s.Gravity
	}
	cfg.Seed = s.Seed
	for k, v := range s.Params {
		cfg.Params[k] = v
	}
	return cfg, nil
}

// StepResult pairs a run with the step that produced it.
type StepResult struct {
	Step   ScenarioStep
	Config *config.Config
	Result *dynamo.Result
}

// RunScenario executes the steps in order and stops at the first failure,
// returning what completed so far.
func RunScenario(ctx context.Context, scenario *Scenario, log *zap.SugaredLogger) ([]StepResult, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		log.Infow("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "scene", step.Scene)

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(cfg, log)
		if err := exp.Setup(); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{Step: step, Config: cfg, Result: result})
	}

	return results, nil
}

// ParameterSweep runs a scene across evenly spaced values of one scene
// parameter, concurrently.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

type SweepResult struct {
	ParamValue     float64
	FinalState     dynamo.State
	MaxPenetration float64
	EnergyDrift    float64
	Stable         bool
}

func (s *ParameterSweep) value(i int) float64 {
	if s.NumSteps == 1 {
		return s.ParamMin
	}
	return s.ParamMin + float64(i)*(s.ParamMax-s.ParamMin)/float64(s.NumSteps-1)
}

func RunSweep(ctx context.Context, sweep *ParameterSweep, log *zap.SugaredLogger) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	if sweep.ParamName == "" {
		return nil, fmt.Errorf("sweep parameter name is required")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	build := func(run int, seed int64) (dynamo.Stepper, []dynamo.Metric, error) {
		cfg := sweep.Base.Clone()
		cfg.Params[sweep.ParamName] = sweep.value(run)
		w, err := experiment.BuildWorld(cfg, nil)
		if err != nil {
			return nil, nil, err
		}
		return w, metrics.Standard(), nil
	}

	ens := dynamo.NewEnsemble(build, sweep.NumSteps, sweep.Base.Seed)
	runs, err := ens.Run(ctx, simConfig(sweep.Base))

	results := make([]SweepResult, 0, sweep.NumSteps)
	for i, r := range runs {
		if r == nil {
			continue
		}
		results = append(results, SweepResult{
			ParamValue:     sweep.value(i),
			FinalState:     final(r),
			MaxPenetration: r.Metrics["max_penetration"],
			EnergyDrift:    r.EnergyDrift,
			Stable:         stable(r),
		})
	}

	log.Infow("sweep finished", "param", sweep.ParamName, "runs", len(results))
	return results, err
}

// MonteCarloConfig runs one scene many times, each with a different seeded
// random velocity kick of up to Perturbation on every body.
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	NumTrials    int
}

type MonteCarloResult struct {
	TrialID    int
	Seed       int64
	FinalState dynamo.State
	Stable     bool
}

func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig, log *zap.SugaredLogger) ([]MonteCarloResult, error) {
	if mc.NumTrials < 1 {
		return nil, fmt.Errorf("monte carlo needs at least one trial, got %d", mc.NumTrials)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	build := func(run int, seed int64) (dynamo.Stepper, []dynamo.Metric, error) {
		cfg := mc.Base.Clone()
		cfg.Seed = seed
		cfg.Params["perturb"] = mc.Perturbation
		w, err := experiment.BuildWorld(cfg, nil)
		if err != nil {
			return nil, nil, err
		}
		return w, []dynamo.Metric{metrics.NewStability(1e6)}, nil
	}

	ens := dynamo.NewEnsemble(build, mc.NumTrials, mc.Base.Seed)
	runs, err := ens.Run(ctx, simConfig(mc.Base))

	results := make([]MonteCarloResult, 0, mc.NumTrials)
	for i, r := range runs {
		if r == nil {
			continue
		}
		results = append(results, MonteCarloResult{
			TrialID:    i,
			Seed:       mc.Base.Seed + int64(i),
			FinalState: final(r),
			Stable:     stable(r),
		})
	}

	stableCount, _ := MonteCarloStats(results)
	log.Infow("monte carlo finished", "trials", len(results), "stable", stableCount)
	return results, err
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}

func simConfig(cfg *config.Config) dynamo.Config {
	return dynamo.Config{
		Duration:      cfg.Duration,
		RecordEvery:   cfg.RecordEvery,
		ValidateState: true,
	}
}

func final(r *dynamo.Result) dynamo.State {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}

// stable reports whether the run finished without diverging and its final
// state stayed bounded.
func stable(r *dynamo.Result) bool {
	if len(r.Errors) > 0 {
		return false
	}
	for _, v := range final(r) {
		if math.Abs(v) > 1e6 || math.IsNaN(v) {
			return false
		}
	}
	return true
}
