package dynamo

import (
	"fmt"
	"math"
)

// State is a flat snapshot of a stepper. Rigid-body worlds lay it out as
// BodyStride components per dynamic body.
type State []float64

// BodyStride is the number of components per body: x, y, angle, vx, vy and
// angular velocity.
const BodyStride = 6

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Stepper is a system advanced by fixed timesteps, such as a physics world.
type Stepper interface {
	Step()
	State() State
	Time() float64
	Timestep() float64
}

type EnergyComputer interface {
	Energy() float64
}

type Metric interface {
	Name() string
	Observe(sys Stepper, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(sys Stepper, step int)
}

type Config struct {
	Duration      float64
	RecordEvery   int
	Seed          int64
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Duration:      10.0,
		RecordEvery:   1,
		ValidateState: true,
	}
}

type Result struct {
	States      []State
	Times       []float64
	Metrics     map[string]float64
	EnergyDrift float64
	StepsTaken  int
	Errors      []error
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
