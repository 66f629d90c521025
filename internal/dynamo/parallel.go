package dynamo

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/multierr"
)

// Build constructs an independent system for one ensemble run together
// with the metrics to observe on it.
type Build func(run int, seed int64) (Stepper, []Metric, error)

type Ensemble struct {
	build     Build
	numRuns   int
	seedStart int64
}

func NewEnsemble(build Build, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns, seedStart: seedStart}
}

// Run executes every member concurrently, at most GOMAXPROCS at a time.
// Failed members leave a nil result and their errors are combined.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			cfgCopy := cfg
			cfgCopy.Seed = e.seedStart + int64(idx)

			sys, metrics, err := e.build(idx, cfgCopy.Seed)
			if err != nil {
				errs[idx] = fmt.Errorf("run %d: %w", idx, err)
				return
			}

			s := New(sys)
			for _, m := range metrics {
				s.AddMetric(m)
			}

			results[idx], err = s.Run(ctx, cfgCopy)
			if err != nil {
				errs[idx] = fmt.Errorf("run %d: %w", idx, err)
			}
		}(i)
	}

	wg.Wait()

	return results, multierr.Combine(errs...)
}

// ParallelFor executes fn over [0, n) split into contiguous chunks of at
// least minChunk items.
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	numWorkers := runtime.GOMAXPROCS(0)
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || numWorkers <= 1 {
		fn(0, n)
		return
	}

	workers := numWorkers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
