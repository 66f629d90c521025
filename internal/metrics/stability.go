package metrics

import (
	"math"

	"github.com/san-kum/rigid2d/internal/dynamo"
)

// Stability is the fraction of observed steps in which the state stayed
// finite and every component stayed within bound. A world whose bodies
// tunnel away or blow up under a stiff spring drops below one.
type Stability struct {
	bound float64
	bad   int
	seen  int
}

func NewStability(bound float64) *Stability {
	return &Stability{bound: bound}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(sys dynamo.Stepper, t float64) {
	s.seen++
	x := sys.State()
	if !x.IsValid() || maxAbs(x) > s.bound {
		s.bad++
	}
}

func (s *Stability) Value() float64 {
	if s.seen == 0 {
		return 1
	}
	return 1 - float64(s.bad)/float64(s.seen)
}

func (s *Stability) Reset() {
	s.bad, s.seen = 0, 0
}

func maxAbs(x dynamo.State) float64 {
	m := 0.0
	for _, v := range x {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

// Standard returns the metrics recorded for every run.
func Standard() []dynamo.Metric {
	return []dynamo.Metric{
		NewKineticEnergy(),
		NewEnergy(),
		NewEnergyDrift(),
		NewPenetration(),
		NewContactCount(),
		NewJointError(),
		NewStability(1e6),
	}
}
