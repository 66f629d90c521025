package main

import (
	"time"

	"github.com/san-kum/rigid2d/internal/dynamo"
)

// pacer sleeps so that simulated time tracks wall-clock time.
type pacer struct {
	start time.Time
	dt    float64
}

func newPacer(dt float64) *pacer {
	return &pacer{dt: dt}
}

func (p *pacer) OnStep(_ dynamo.Stepper, step int) {
	if p.start.IsZero() {
		p.start = time.Now()
	}
	target := p.start.Add(time.Duration(float64(step) * p.dt * float64(time.Second)))
	if d := time.Until(target); d > 0 {
		time.Sleep(d)
	}
}
