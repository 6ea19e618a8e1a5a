// Package parallel is the data-parallel primitive used by the pseudo-time
// drivers and the block-sparse linear algebra: a chunked parallel-for over
// cells, plus reductions. It intentionally stays a thin wrapper over
// sync.WaitGroup — this corpus has no worker-pool or task-queue library, so
// every concurrent loop here is written the same plain way the rest of the
// pack writes its goroutine fan-out (see katalvlaran-lvlath/core's
// concurrency tests).
package parallel

import (
	"runtime"
	"sync"
)

// Workers is the number of goroutines used by For and the reductions below.
// It defaults to GOMAXPROCS and may be overridden (e.g. by tests wanting
// deterministic single-threaded execution).
var Workers = runtime.GOMAXPROCS(0)

// chunks splits [0,n) into at most Workers contiguous, roughly equal pieces.
// It never returns more pieces than n, and never an empty piece.
func chunks(n int) [][2]int {
	if n <= 0 {
		return nil
	}
	w := Workers
	if w < 1 {
		w = 1
	}
	if w > n {
		w = n
	}
	out := make([][2]int, 0, w)
	base, rem := n/w, n%w
	lo := 0
	for i := 0; i < w; i++ {
		hi := lo + base
		if i < rem {
			hi++
		}
		if hi > lo {
			out = append(out, [2]int{lo, hi})
		}
		lo = hi
	}
	return out
}

// For calls body(lo, hi) once per chunk of [0,n), running the chunks
// concurrently, and blocks until all have returned. body must not assume
// any ordering or overlap between chunks: it owns [lo,hi) exclusively.
func For(n int, body func(lo, hi int)) {
	cs := chunks(n)
	if len(cs) == 0 {
		return
	}
	if len(cs) == 1 {
		body(cs[0][0], cs[0][1])
		return
	}
	var wg sync.WaitGroup
	wg.Add(len(cs))
	for _, c := range cs {
		lo, hi := c[0], c[1]
		go func() {
			defer wg.Done()
			body(lo, hi)
		}()
	}
	wg.Wait()
}

// NumChunks returns the number of chunks For/ForChunk will split [0,n)
// into, so a caller can size a per-chunk slot (e.g. a per-chunk error) to
// match before calling ForChunk.
func NumChunks(n int) int {
	return len(chunks(n))
}

// ForChunk is For, but body also receives the chunk's index in [0,
// NumChunks(n)), so each goroutine can write to its own slot of a
// pre-sized per-chunk slice instead of sharing a variable across workers.
func ForChunk(n int, body func(c, lo, hi int)) {
	cs := chunks(n)
	if len(cs) == 0 {
		return
	}
	if len(cs) == 1 {
		body(0, cs[0][0], cs[0][1])
		return
	}
	var wg sync.WaitGroup
	wg.Add(len(cs))
	for ci, c := range cs {
		ci, lo, hi := ci, c[0], c[1]
		go func() {
			defer wg.Done()
			body(ci, lo, hi)
		}()
	}
	wg.Wait()
}

// SumFloat64 computes a numerically stable parallel reduction
// Σ f(i) for i in [0,n), by summing each chunk serially and then summing the
// per-chunk partial sums serially. Order-of-summation differs from a pure
// serial loop only within each chunk boundary.
func SumFloat64(n int, f func(i int) float64) float64 {
	cs := chunks(n)
	if len(cs) == 0 {
		return 0
	}
	partials := make([]float64, len(cs))
	var wg sync.WaitGroup
	wg.Add(len(cs))
	for ci, c := range cs {
		ci, lo, hi := ci, c[0], c[1]
		go func() {
			defer wg.Done()
			var s float64
			for i := lo; i < hi; i++ {
				s += f(i)
			}
			partials[ci] = s
		}()
	}
	wg.Wait()
	var total float64
	for _, p := range partials {
		total += p
	}
	return total
}

// MinFloat64 computes a parallel min: reduction over f(i) for i in [0,n).
// n must be positive.
func MinFloat64(n int, f func(i int) float64) float64 {
	cs := chunks(n)
	partials := make([]float64, len(cs))
	var wg sync.WaitGroup
	wg.Add(len(cs))
	for ci, c := range cs {
		ci, lo, hi := ci, c[0], c[1]
		go func() {
			defer wg.Done()
			m := f(lo)
			for i := lo + 1; i < hi; i++ {
				if v := f(i); v < m {
					m = v
				}
			}
			partials[ci] = m
		}()
	}
	wg.Wait()
	m := partials[0]
	for _, p := range partials[1:] {
		if p < m {
			m = p
		}
	}
	return m
}
