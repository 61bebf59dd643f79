// Package parallel provides data-parallel loop helpers for cast kernels.
package parallel

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 16 * 1024, // Elementwise casts are memory bound; keep chunks large.
	}
}

// Sequential returns a Config that never spawns goroutines.
func Sequential() Config {
	return Config{}
}

// chunkSize returns the per-goroutine range length for n items,
// or 0 when the loop should run inline.
func (cfg Config) chunkSize(n int) int {
	if !cfg.Enabled || cfg.NumWorkers < 2 || n < 2*max(cfg.MinChunkSize, 1) {
		return 0
	}
	return max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	ForRange(n, func(start, end int) {
		for i := start; i < end; i++ {
			f(i)
		}
	}, cfg)
}

// ForRange splits [0, n) into contiguous chunks and calls f(start, end) once
// per chunk. Chunks never overlap, so f may write its range without locking.
func ForRange(n int, f func(start, end int), cfg Config) {
	if n <= 0 {
		return
	}
	chunk := cfg.chunkSize(n)
	if chunk == 0 {
		f(0, n)
		return
	}

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			f(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ForErr is ForRange for fallible chunk bodies. It waits for every chunk and
// returns the error of the lowest failing chunk, so the result does not
// depend on goroutine scheduling.
func ForErr(n int, f func(start, end int) error, cfg Config) error {
	if n <= 0 {
		return nil
	}
	chunk := cfg.chunkSize(n)
	if chunk == 0 {
		return f(0, n)
	}

	numChunks := (n + chunk - 1) / chunk
	errs := make([]error, numChunks)

	var g errgroup.Group
	g.SetLimit(cfg.NumWorkers)
	for c := range numChunks {
		start := c * chunk
		end := min(start+chunk, n)
		g.Go(func() error {
			errs[c] = f(start, end)
			return errs[c]
		})
	}
	if g.Wait() == nil {
		return nil
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
