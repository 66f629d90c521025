package analysis

import "math"

// Column extracts one state component from every recorded sample.
func Column(states [][]float64, idx int) []float64 {
	out := make([]float64, 0, len(states))
	for _, s := range states {
		if idx < len(s) {
			out = append(out, s[idx])
		}
	}
	return out
}

type Summary struct {
	Min, Max, Mean, RMS float64
}

func Summarize(data []float64) Summary {
	if len(data) == 0 {
		return Summary{}
	}
	s := Summary{Min: math.Inf(1), Max: math.Inf(-1)}
	sumSq := 0.0
	for _, v := range data {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
		s.Mean += v
		sumSq += v * v
	}
	n := float64(len(data))
	s.Mean /= n
	s.RMS = math.Sqrt(sumSq / n)
	return s
}
