package biseek

import (
	"time"

	"github.com/Giulio2002/biseek/mmap"
)

// SearchMapped runs a single-threaded binary search over a read-only
// memory mapping of the file. It is the baseline the other engines are
// measured against: no fan-out, no partitioning, one element load per
// comparison.
func SearchMapped(path string, target uint64) (Outcome, error) {
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

	var out Outcome
	start := time.Now()
	lo, hi := int64(0), f.Count()-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		v := m.Uint64At(mid)
		out.Reads++
		out.Comparisons++
		switch {
		case v == target:
			out.markFound(mid * ElementSize)
			out.Elapsed = time.Since(start)
			return out, nil
		case v < target:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	out.Elapsed = time.Since(start)
	return out, nil
}
