//go:build linux

package biseek

import (
	"time"

	"github.com/Giulio2002/biseek/uring"
)

// ringCaps is the capability descriptor fixed at setup. The round loop
// reads it to pick the submission variant instead of re-attempting
// privileged setup on the hot path.
type ringCaps struct {
	sqpoll bool
	fixed  bool
}

// SearchRing drives a speculative multi-probe binary search over an
// io_uring completion ring. Each round issues up to ParallelReads reads at
// evenly spaced candidate indices, waits for the whole batch, and narrows
// [lo, hi] with every valid completion at once. Small ranges switch to a
// readahead hint and finally to a contiguous linear scan unless
// RingNoHeuristics is set. RingSQPoll and RingFixedBuffers request the
// privileged modes; both degrade transparently when denied, and the
// outcome reports what was actually granted.
func SearchRing(path string, target uint64, flags RingFlags) (Outcome, error) {
	f, err := Open(path)
	if err != nil {
		return Outcome{}, err
	}
	defer f.Close()

	// Probes land all over the file; kernel readahead around each one
	// would evict more than it helps. Unlike the mapped engines this
	// hint is mandatory.
	if err := f.AdviseRandom(); err != nil {
		return Outcome{}, WrapError(ErrAdvise, err)
	}

	ring, caps, err := setupRing(flags)
	if err != nil {
		return Outcome{}, err
	}
	defer ring.Close()

	arena := newProbeArena()
	if flags&RingFixedBuffers != 0 {
		// Registration can be refused (locked-memory limits); plain
		// pointer-addressed reads are the fallback, not a failure.
		if err := ring.RegisterBuffers(arena.bufs[:]); err == nil {
			caps.fixed = true
		}
	}

	out := Outcome{SQPoll: caps.sqpoll, FixedBuffers: caps.fixed}
	start := time.Now()
	err = runRounds(f, target, ring, caps, arena, flags, &out)
	out.Elapsed = time.Since(start)
	return out, err
}

// setupRing initializes the completion ring, degrading a denied SQPOLL
// request to a standard ring. Only the baseline failing is fatal.
func setupRing(flags RingFlags) (*uring.Ring, ringCaps, error) {
	var caps ringCaps
	if flags&RingSQPoll != 0 {
		ring, err := uring.New(uring.Config{
			Entries:    QueueDepth,
			SQPoll:     true,
			SQPollIdle: SQPollIdleMillis * time.Millisecond,
		})
		if err == nil {
			caps.sqpoll = true
			return ring, caps, nil
		}
	}
	ring, err := uring.New(uring.Config{Entries: QueueDepth})
	if err != nil {
		return nil, caps, WrapError(ErrRingSetup, err)
	}
	return ring, caps, nil
}

// runRounds is the engine's round loop: pick a strategy, probe, harvest,
// narrow, until the range converges or empties.
func runRounds(f *File, target uint64, ring *uring.Ring, caps ringCaps, arena *probeArena, flags RingFlags, out *Outcome) error {
	lo, hi := int64(0), f.Count()-1
	heuristics := flags&RingNoHeuristics == 0
	var cqes [ParallelReads]uring.CQE

	for lo <= hi {
		w := hi - lo

		if heuristics {
			if w <= LinearScanThreshold {
				// Contiguous sequential access beats more
				// round-trips at this size, found or not.
				return linearScan(f, target, lo, hi, out)
			}
			if w <= ReadaheadThreshold {
				// Non-blocking; a refused hint only costs the
				// cache warmup.
				_ = f.AdviseWillNeed(lo*ElementSize, (w+1)*ElementSize)
			}
		}

		arena.reset()
		k := probePoints(lo, hi, arena.index[:])
		for slot := 0; slot < k; slot++ {
			if err := pushProbe(ring, f, arena, slot, caps.fixed); err != nil {
				return err
			}
		}
		out.Rounds++

		if _, err := ring.SubmitAndWait(uint32(k)); err != nil {
			return WrapError(ErrIO, err)
		}

		valid, err := harvest(ring, arena, cqes[:], k, out)
		if err != nil {
			return err
		}
		if valid == 0 {
			// Nothing to narrow with; retrying the same round
			// could loop forever on a repeating fault.
			return NewError(ErrStalled)
		}

		newLo, newHi := lo, hi
		for slot := 0; slot < k; slot++ {
			if !arena.valid[slot] {
				continue
			}
			out.Comparisons++
			if arena.value[slot] == target {
				out.markFound(arena.index[slot] * ElementSize)
				return nil
			}
			newLo, newHi = tighten(newLo, newHi, arena.index[slot], arena.value[slot], target)
		}
		lo, hi = newLo, newHi

		if lo == hi {
			// The surviving singleton may never have been probed
			return directProbe(f, target, lo, out)
		}
	}
	return nil // exhausted: not found
}

// pushProbe queues the read for one arena slot, pointer-addressed or by
// registered buffer index per the capability descriptor.
func pushProbe(ring *uring.Ring, f *File, arena *probeArena, slot int, fixed bool) error {
	off := arena.index[slot] * ElementSize
	var err error
	if fixed {
		err = ring.PushReadFixed(f.Fd(), arena.bufs[slot], off, uint16(slot), uint64(slot))
	} else {
		err = ring.PushRead(f.Fd(), arena.bufs[slot], off, uint64(slot))
	}
	if err != nil {
		if err == uring.ErrSQFull {
			// No slot to retry into; fatal for the whole search
			return WrapError(ErrRingFull, err)
		}
		return WrapError(ErrIO, err)
	}
	return nil
}

// harvest drains exactly k completions, marking arena slots valid only
// when the read returned the full element width. Returns the valid count.
func harvest(ring *uring.Ring, arena *probeArena, cqes []uring.CQE, k int, out *Outcome) (int, error) {
	valid := 0
	for got := 0; got < k; {
		n := ring.PeekBatch(cqes[got:k])
		if n == 0 {
			if _, err := ring.SubmitAndWait(1); err != nil {
				return valid, WrapError(ErrIO, err)
			}
			continue
		}
		for _, c := range cqes[got : got+n] {
			slot := int(c.UserData)
			out.Reads++
			if c.Res != ElementSize {
				// Partial or errored probe: dropped from
				// narrowing, not retried within the round
				out.FailedReads++
				continue
			}
			arena.value[slot] = getWord(arena.bufs[slot])
			arena.valid[slot] = true
			valid++
		}
		ring.Advance(uint32(n))
		got += n
	}
	return valid, nil
}

// linearScan reads the whole remaining range with one contiguous pread and
// scans it. Terminal either way.
func linearScan(f *File, target uint64, lo, hi int64, out *Outcome) error {
	buf := make([]byte, (hi-lo+1)*ElementSize)
	b, err := f.ReadRange(lo, hi, buf)
	if err != nil {
		return err
	}
	n := int64(len(b) / ElementSize)
	out.Reads += n
	for i := int64(0); i < n; i++ {
		v := getWord(b[i*ElementSize:])
		out.Comparisons++
		if v == target {
			out.markFound((lo + i) * ElementSize)
			return nil
		}
		if v > target {
			break // sorted: the target cannot appear further right
		}
	}
	return nil
}

// directProbe settles a converged range with one positioned read.
func directProbe(f *File, target uint64, idx int64, out *Outcome) error {
	v, err := f.Element(idx)
	if err != nil {
		return err
	}
	out.Reads++
	out.Comparisons++
	if v == target {
		out.markFound(idx * ElementSize)
	}
	return nil
}
