package experiment

import (
	"context"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/san-kum/rigid2d/internal/config"
	"github.com/san-kum/rigid2d/internal/dynamo"
	"github.com/san-kum/rigid2d/internal/geom"
	"github.com/san-kum/rigid2d/internal/metrics"
	"github.com/san-kum/rigid2d/internal/scene"
	"github.com/san-kum/rigid2d/internal/world"
)

// Experiment is one configured run: a scene built into a world and the
// simulator that drives it.
type Experiment struct {
	cfg        *config.Config
	log        *zap.SugaredLogger
	world      *world.World
	simulator  *dynamo.Simulator
	randSource *rand.Rand
}

func New(cfg *config.Config, log *zap.SugaredLogger) *Experiment {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Experiment{
		cfg:        cfg,
		log:        log,
		randSource: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Setup builds the scene and attaches the standard metrics plus any extra
// ones given.
func (e *Experiment) Setup(extra ...dynamo.Metric) error {
	w, err := buildWorld(e.cfg, e.log, e.randSource)
	if err != nil {
		return err
	}

	e.world = w
	e.simulator = dynamo.New(w)
	e.simulator.SetLogger(e.log.With("scene", e.cfg.Scene))
	for _, m := range metrics.Standard() {
		e.simulator.AddMetric(m)
	}
	for _, m := range extra {
		e.simulator.AddMetric(m)
	}

	e.log.Debugw("experiment ready",
		"scene", e.cfg.Scene,
		"bodies", w.BodyCount(),
		"colliders", w.ColliderCount(),
		"joints", w.ConstraintCount(),
	)
	return nil
}

// BuildWorld validates cfg and builds its scene without a simulator, for
// callers that drive the world themselves such as ensembles.
func BuildWorld(cfg *config.Config, log *zap.SugaredLogger) (*world.World, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return buildWorld(cfg, log, rand.New(rand.NewSource(cfg.Seed)))
}

func buildWorld(cfg *config.Config, log *zap.SugaredLogger, rng *rand.Rand) (*world.World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []world.Option{
		world.WithLogger(log),
		world.WithParams(cfg.SolverParams()),
	}
	if g, ok := cfg.Gravity(); ok {
		opts = append(opts, world.WithGravity(g))
	}

	w, err := scene.Build(cfg.Scene, scene.Params(cfg.Params), opts...)
	if err != nil {
		return nil, fmt.Errorf("build scene: %w", err)
	}

	if amp := cfg.Params["perturb"]; amp > 0 {
		perturb(w, rng, amp)
	}
	return w, nil
}

// perturb adds a random velocity in [-amp, amp] to every dynamic body.
func perturb(w *world.World, rng *rand.Rand, amp float64) {
	for _, h := range w.Bodies() {
		b, ok := w.Body(h)
		if !ok || !b.IsDynamic() {
			continue
		}
		dv := geom.V((rng.Float64()-0.5)*2*amp, (rng.Float64()-0.5)*2*amp)
		b.LinearVelocity = b.LinearVelocity.Add(dv)
	}
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	simCfg := dynamo.Config{
		Duration:      e.cfg.Duration,
		RecordEvery:   e.cfg.RecordEvery,
		Seed:          e.cfg.Seed,
		ValidateState: true,
	}

	return e.simulator.Run(ctx, simCfg)
}

// Simulator returns the underlying simulator for adding observers.
func (e *Experiment) Simulator() *dynamo.Simulator {
	return e.simulator
}

func (e *Experiment) World() *world.World {
	return e.world
}

func (e *Experiment) Config() *config.Config {
	return e.cfg
}
