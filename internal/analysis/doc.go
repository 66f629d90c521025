// Package analysis post-processes recorded runs.
//
//   - [PowerSpectrum] and [DominantFrequency]: oscillation analysis of a
//     single state component, e.g. a spring grid breathing mode
//   - [NewPhasePortrait]: two state components plotted against each other
//   - [Divergence]: sensitivity of a scene to its initial conditions
//
// Recorded states flatten each body as x, y, angle, vx, vy, omega, so
// component 6*i+k is field k of body i.
package analysis
