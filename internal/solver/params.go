package solver

import (
	"fmt"

	"go.uber.org/multierr"
)

// Params are the integration parameters of one world step.
type Params struct {
	Dt float64 `yaml:"dt" json:"dt"`
	// ERP is the fraction of the position error corrected per iteration.
	ERP                          float64 `yaml:"erp" json:"erp"`
	WarmStartCoeff               float64 `yaml:"warm_start_coeff" json:"warm_start_coeff"`
	RestitutionVelocityThreshold float64 `yaml:"restitution_velocity_threshold" json:"restitution_velocity_threshold"`
	AllowedLinearError           float64 `yaml:"allowed_linear_error" json:"allowed_linear_error"`
	AllowedAngularError          float64 `yaml:"allowed_angular_error" json:"allowed_angular_error"`
	MaxLinearCorrection          float64 `yaml:"max_linear_correction" json:"max_linear_correction"`
	MaxAngularCorrection         float64 `yaml:"max_angular_correction" json:"max_angular_correction"`
	MaxVelocityIterations        int     `yaml:"max_velocity_iterations" json:"max_velocity_iterations"`
	MaxPositionIterations        int     `yaml:"max_position_iterations" json:"max_position_iterations"`
	// PredictionDistance is how far apart two shapes may be and still
	// produce a speculative contact.
	PredictionDistance float64 `yaml:"prediction_distance" json:"prediction_distance"`
}

func DefaultParams() Params {
	return Params{
		Dt:                           1.0 / 60.0,
		ERP:                          0.2,
		WarmStartCoeff:               1.0,
		RestitutionVelocityThreshold: 1.0,
		AllowedLinearError:           0.005,
		AllowedAngularError:          0.001,
		MaxLinearCorrection:          0.2,
		MaxAngularCorrection:         0.2,
		MaxVelocityIterations:        8,
		MaxPositionIterations:        3,
		PredictionDistance:           0.002,
	}
}

func (p Params) InvDt() float64 {
	if p.Dt == 0 {
		return 0
	}
	return 1 / p.Dt
}

// Validate reports every out-of-range parameter at once.
func (p Params) Validate() error {
	var err error
	if !(p.Dt > 0) {
		err = multierr.Append(err, fmt.Errorf("%w: dt must be positive, got %v", ErrInvalidParams, p.Dt))
	}
	if p.ERP < 0 || p.ERP > 1 {
		err = multierr.Append(err, fmt.Errorf("%w: erp must be in [0, 1], got %v", ErrInvalidParams, p.ERP))
	}
	if p.WarmStartCoeff < 0 || p.WarmStartCoeff > 1 {
		err = multierr.Append(err, fmt.Errorf("%w: warm start coefficient must be in [0, 1], got %v", ErrInvalidParams, p.WarmStartCoeff))
	}
	if p.RestitutionVelocityThreshold < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: restitution velocity threshold must not be negative", ErrInvalidParams))
	}
	if p.AllowedLinearError < 0 || p.AllowedAngularError < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: allowed errors must not be negative", ErrInvalidParams))
	}
	if !(p.MaxLinearCorrection > 0) || !(p.MaxAngularCorrection > 0) {
		err = multierr.Append(err, fmt.Errorf("%w: max corrections must be positive", ErrInvalidParams))
	}
	if p.MaxVelocityIterations < 1 {
		err = multierr.Append(err, fmt.Errorf("%w: velocity iterations must be at least 1, got %d", ErrInvalidParams, p.MaxVelocityIterations))
	}
	if p.MaxPositionIterations < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: position iterations must not be negative, got %d", ErrInvalidParams, p.MaxPositionIterations))
	}
	if p.PredictionDistance < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: prediction distance must not be negative", ErrInvalidParams))
	}
	return err
}
