package biseek

// probeArena owns the probe slots of one search. The slot number is the
// completion tag carried through the ring and, in fixed-buffer mode, also
// the kernel buffer index. Slots are reset each round and never aliased
// while a round is in flight.
type probeArena struct {
	backing []byte
	bufs    [ParallelReads][]byte
	index   [ParallelReads]int64
	value   [ParallelReads]uint64
	valid   [ParallelReads]bool
}

func newProbeArena() *probeArena {
	a := &probeArena{backing: make([]byte, ParallelReads*ElementSize)}
	for i := range a.bufs {
		a.bufs[i] = a.backing[i*ElementSize : (i+1)*ElementSize]
	}
	return a
}

func (a *probeArena) reset() {
	for i := range a.valid {
		a.valid[i] = false
	}
}

// probePoints places the round's probes: k = ParallelReads when the range
// is wide enough to benefit from fan-out, else 1; probe j (1-indexed) sits
// at lo + step*j, clamped to hi when the rounded step overshoots. idx must
// hold ParallelReads entries. Returns k.
func probePoints(lo, hi int64, idx []int64) int {
	w := hi - lo
	k := 1
	if w > FanoutMinRange {
		k = ParallelReads
	}
	step := w / int64(k+1)
	if step < 1 {
		step = 1
	}
	for j := 1; j <= k; j++ {
		p := lo + step*int64(j)
		if p > hi {
			p = hi
		}
		idx[j-1] = p
	}
	return k
}

// tighten folds one probe observation (element e holds v) into [lo, hi].
// Sorted order: v below the target rules out everything through e, v above
// it rules out everything from e on. An equal value never reaches here.
func tighten(lo, hi, e int64, v, target uint64) (int64, int64) {
	if v < target {
		if e+1 > lo {
			lo = e + 1
		}
	} else if v > target {
		if e-1 < hi {
			hi = e - 1
		}
	}
	return lo, hi
}
