package metrics

import (
	"math"

	"github.com/san-kum/rigid2d/internal/dynamo"
)

type contactSource interface {
	ContactCount() int
	MaxPenetration() float64
}

type jointSource interface {
	JointError() float64
}

// Penetration records the deepest contact overlap seen during a run.
type Penetration struct {
	name  string
	worst float64
}

func NewPenetration() *Penetration {
	return &Penetration{name: "max_penetration"}
}

func (p *Penetration) Name() string { return p.name }

func (p *Penetration) Observe(sys dynamo.Stepper, t float64) {
	if src, ok := sys.(contactSource); ok {
		p.worst = math.Max(p.worst, src.MaxPenetration())
	}
}

func (p *Penetration) Value() float64 { return p.worst }
func (p *Penetration) Reset()         { p.worst = 0 }

type ContactCount struct {
	name    string
	total   int
	samples int
}

func NewContactCount() *ContactCount {
	return &ContactCount{name: "contacts"}
}

func (c *ContactCount) Name() string { return c.name }

func (c *ContactCount) Observe(sys dynamo.Stepper, t float64) {
	if src, ok := sys.(contactSource); ok {
		c.total += src.ContactCount()
		c.samples++
	}
}

func (c *ContactCount) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return float64(c.total) / float64(c.samples)
}

func (c *ContactCount) Reset() {
	c.total = 0
	c.samples = 0
}

// JointError records the largest joint anchor separation.
type JointError struct {
	name  string
	worst float64
}

func NewJointError() *JointError {
	return &JointError{name: "joint_error"}
}

func (j *JointError) Name() string { return j.name }

func (j *JointError) Observe(sys dynamo.Stepper, t float64) {
	if src, ok := sys.(jointSource); ok {
		j.worst = math.Max(j.worst, src.JointError())
	}
}

func (j *JointError) Value() float64 { return j.worst }
func (j *JointError) Reset()         { j.worst = 0 }
