package dynamo

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
)

type Simulator struct {
	sys       Stepper
	metrics   []Metric
	observers []Observer
	log       *zap.SugaredLogger
}

func New(sys Stepper) *Simulator {
	return &Simulator{
		sys:       sys,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		log:       zap.NewNop().Sugar(),
	}
}

func (s *Simulator) SetLogger(log *zap.SugaredLogger) { s.log = log }

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run steps the system for cfg.Duration seconds of simulated time. On
// cancellation the partial result is returned alongside the error.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	recordEvery := cfg.RecordEvery
	if recordEvery == 0 {
		recordEvery = 1
	}

	steps := int(math.Round(cfg.Duration / s.sys.Timestep()))
	result := &Result{
		States:  make([]State, 0, steps/recordEvery+1),
		Times:   make([]float64, 0, steps/recordEvery+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	result.States = append(result.States, s.sys.State())
	result.Times = append(result.Times, s.sys.Time())

	initialEnergy, hasEnergy := s.computeEnergy()
	s.log.Infow("run started", "steps", steps, "dt", s.sys.Timestep())

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.finish(result, initialEnergy, hasEnergy)
			return result, &SimulationError{
				Step:    i,
				Time:    s.sys.Time(),
				Wrapped: fmt.Errorf("%w: %w", ErrContextCanceled, ctx.Err()),
			}
		default:
		}

		s.sys.Step()
		t := s.sys.Time()
		result.StepsTaken++

		for _, m := range s.metrics {
			m.Observe(s.sys, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(s.sys, i+1)
		}

		if cfg.ValidateState || (i+1)%recordEvery == 0 {
			x := s.sys.State()
			if cfg.ValidateState && !x.IsValid() {
				err := SimError{Time: t, Step: i + 1, Message: "invalid state (NaN/Inf)"}
				result.Errors = append(result.Errors, err)
				s.log.Warnw("run diverged", "step", i+1, "time", t)
				break
			}
			if (i+1)%recordEvery == 0 {
				result.States = append(result.States, x)
				result.Times = append(result.Times, t)
			}
		}
	}

	s.finish(result, initialEnergy, hasEnergy)
	s.log.Infow("run finished", "steps", result.StepsTaken, "drift", result.EnergyDrift)
	return result, nil
}

func (s *Simulator) finish(result *Result, initialEnergy float64, hasEnergy bool) {
	if hasEnergy && initialEnergy != 0 {
		finalEnergy, _ := s.computeEnergy()
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) validateConfig(cfg Config) error {
	if dt := s.sys.Timestep(); !(dt > 0) {
		return fmt.Errorf("%w: timestep must be positive, got %f", ErrParameterBounds, dt)
	}
	if !(cfg.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrParameterBounds, cfg.Duration)
	}
	if cfg.RecordEvery < 0 {
		return fmt.Errorf("%w: record interval must not be negative, got %d", ErrParameterBounds, cfg.RecordEvery)
	}
	return nil
}

func (s *Simulator) computeEnergy() (float64, bool) {
	if ec, ok := s.sys.(EnergyComputer); ok {
		return ec.Energy(), true
	}
	return 0, false
}

// RunWithCallback steps until the duration elapses or callback returns false.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, callback func(sys Stepper, step int) bool) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}

	steps := int(math.Round(cfg.Duration / s.sys.Timestep()))
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrContextCanceled, ctx.Err())
		default:
		}

		s.sys.Step()
		for _, obs := range s.observers {
			obs.OnStep(s.sys, i+1)
		}
		if !callback(s.sys, i+1) {
			return nil
		}

		if cfg.ValidateState && !s.sys.State().IsValid() {
			return &SimulationError{Step: i + 1, Time: s.sys.Time(), Wrapped: ErrInvalidState}
		}
	}

	return nil
}
