package config

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/rigid2d/internal/geom"
	"github.com/san-kum/rigid2d/internal/solver"
)

const (
	DefaultScene       = "spring_grid"
	DefaultDuration    = 10.0
	DefaultRecordEvery = 1
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Scene       string             `yaml:"scene"`
	Duration    float64            `yaml:"duration"`
	RecordEvery int                `yaml:"record_every"`
	Seed        int64              `yaml:"seed"`
	World       WorldConfig        `yaml:"world"`
	Params      map[string]float64 `yaml:"params,omitempty"`
}

// WorldConfig holds gravity and the integration parameters. A nil gravity
// keeps whatever the scene sets up.
type WorldConfig struct {
	Gravity       []float64 `yaml:"gravity,omitempty"`
	solver.Params `yaml:",inline"`
}

func DefaultConfig() *Config {
	return &Config{
		Scene:       DefaultScene,
		Duration:    DefaultDuration,
		RecordEvery: DefaultRecordEvery,
		World:       WorldConfig{Params: solver.DefaultParams()},
		Params:      map[string]float64{},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) SolverParams() solver.Params {
	return c.World.Params
}

// Gravity returns the configured gravity and whether one was set.
func (c *Config) Gravity() (geom.Vec2, bool) {
	if len(c.World.Gravity) != 2 {
		return geom.Vec2{}, false
	}
	return geom.V(c.World.Gravity[0], c.World.Gravity[1]), true
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var err error
	if c.Scene == "" {
		err = multierr.Append(err, fmt.Errorf("%w: scene is required", ErrInvalidConfig))
	}
	if !(c.Duration > 0) {
		err = multierr.Append(err, fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidConfig, c.Duration))
	}
	if c.RecordEvery < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: record_every must not be negative, got %d", ErrInvalidConfig, c.RecordEvery))
	}
	if n := len(c.World.Gravity); n != 0 && n != 2 {
		err = multierr.Append(err, fmt.Errorf("%w: gravity needs 2 components, got %d", ErrInvalidConfig, n))
	}
	if perr := c.World.Params.Validate(); perr != nil {
		err = multierr.Append(err, perr)
	}
	return err
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	if c.World.Gravity != nil {
		out.World.Gravity = append([]float64(nil), c.World.Gravity...)
	}
	out.Params = make(map[string]float64, len(c.Params))
	for k, v := range c.Params {
		out.Params[k] = v
	}
	return &out
}

// Set assigns a value by its yaml name. Integration parameters are matched
// first; any other name is stored as a scene parameter.
func (c *Config) Set(name string, v float64) {
	p := &c.World.Params
	switch name {
	case "dt":
		p.Dt = v
	case "erp":
		p.ERP = v
	case "warm_start_coeff":
		p.WarmStartCoeff = v
	case "restitution_velocity_threshold":
		p.RestitutionVelocityThreshold = v
	case "allowed_linear_error":
		p.AllowedLinearError = v
	case "allowed_angular_error":
		p.AllowedAngularError = v
	case "max_linear_correction":
		p.MaxLinearCorrection = v
	case "max_angular_correction":
		p.MaxAngularCorrection = v
	case "max_velocity_iterations":
		p.MaxVelocityIterations = int(v)
	case "max_position_iterations":
		p.MaxPositionIterations = int(v)
	case "prediction_distance":
		p.PredictionDistance = v
	case "duration":
		c.Duration = v
	default:
		if c.Params == nil {
			c.Params = map[string]float64{}
		}
		c.Params[name] = v
	}
}
