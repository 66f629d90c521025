// Package dynamo runs fixed-timestep systems and collects what they do.
//
// The package defines the harness types shared by every run:
//
//   - [State]: flattened system state recorded each sample
//   - [Stepper]: anything advanced one timestep at a time
//   - [Metric] and [Observer]: per-step hooks
//   - [Simulator]: orchestrates a single run
//   - [Ensemble]: independent runs in parallel
//
// # Example
//
//	w, _ := scene.Build("spring_grid", nil)
//	s := dynamo.New(w)
//	s.AddMetric(metrics.NewKineticEnergy())
//	result, _ := s.Run(ctx, cfg)
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. For parallel simulations,
// use the [Ensemble] type which builds a fresh system per run.
package dynamo
