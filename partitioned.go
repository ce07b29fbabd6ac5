package biseek

import (
	"sync"
	"time"

	"github.com/Giulio2002/biseek/mmap"
)

// partitionResult is one worker's report. Workers write only their own
// entry, so the slice needs no locking.
type partitionResult struct {
	found       bool
	index       int64
	comparisons int64
}

// SearchParallel memory-maps the file and splits [0, N-1] into workers
// contiguous, disjoint, near-equal slices, one goroutine each, every
// worker running ordinary binary search confined to its slice. All workers
// run to completion; there is no early cancellation on a match elsewhere.
// When duplicates of the target span slice boundaries any one match is an
// acceptable answer. workers is clamped to [1, N]; zero or negative picks
// DefaultWorkers.
func SearchParallel(path string, target uint64, workers int) (Outcome, error) {
	f, err := Open(path)
	if err != nil {
		return Outcome{}, err
	}
	defer f.Close()

	m, err := mmap.New(f.Fd(), f.Size())
	if err != nil {
		return Outcome{}, WrapError(ErrIO, err)
	}
	defer m.Close()

	// Best effort: a refused hint costs performance, not correctness
	_ = m.AdviseRandom()

	n := f.Count()
	t := int64(workers)
	if t <= 0 {
		t = DefaultWorkers
	}
	if t > n {
		t = n
	}

	start := time.Now()
	results := make([]partitionResult, t)
	chunk := n / t

	var wg sync.WaitGroup
	for w := int64(0); w < t; w++ {
		lo := w * chunk
		hi := lo + chunk - 1
		if w == t-1 {
			hi = n - 1 // remainder goes to the last slice
		}
		wg.Add(1)
		go func(res *partitionResult, lo, hi int64) {
			defer wg.Done()
			for lo <= hi {
				mid := lo + (hi-lo)/2
				v := m.Uint64At(mid)
				res.comparisons++
				switch {
				case v == target:
					res.found = true
					res.index = mid
					return
				case v < target:
					lo = mid + 1
				default:
					hi = mid - 1
				}
			}
		}(&results[w], lo, hi)
	}
	wg.Wait()

	var out Outcome
	for i := range results {
		out.Comparisons += results[i].comparisons
		if results[i].found && !out.Found {
			out.markFound(results[i].index * ElementSize)
		}
	}
	out.Reads = out.Comparisons
	out.Elapsed = time.Since(start)
	return out, nil
}
