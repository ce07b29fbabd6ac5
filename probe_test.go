package biseek

import "testing"

func TestProbePointsNarrowRange(t *testing.T) {
	idx := make([]int64, ParallelReads)
	k := probePoints(100, 400, idx)
	if k != 1 {
		t.Fatalf("k = %d, want 1", k)
	}
	if idx[0] != 250 {
		t.Errorf("probe at %d, want 250", idx[0])
	}
}

func TestProbePointsFanOut(t *testing.T) {
	idx := make([]int64, ParallelReads)
	k := probePoints(0, 1000, idx)
	if k != ParallelReads {
		t.Fatalf("k = %d, want %d", k, ParallelReads)
	}
	want := []int64{200, 400, 600, 800}
	for j, w := range want {
		if idx[j] != w {
			t.Errorf("probe %d at %d, want %d", j, idx[j], w)
		}
	}
}

func TestProbePointsFanOutBoundary(t *testing.T) {
	idx := make([]int64, ParallelReads)

	// Exactly at the fan-out floor: still a single probe
	if k := probePoints(0, FanoutMinRange, idx); k != 1 {
		t.Errorf("k = %d at the floor, want 1", k)
	}
	// One past it: full fan-out
	if k := probePoints(0, FanoutMinRange+1, idx); k != ParallelReads {
		t.Errorf("k = %d past the floor, want %d", k, ParallelReads)
	}
}

func TestProbePointsSingleton(t *testing.T) {
	idx := make([]int64, ParallelReads)
	k := probePoints(7, 7, idx)
	if k != 1 {
		t.Fatalf("k = %d, want 1", k)
	}
	if idx[0] != 7 {
		t.Errorf("probe at %d, want the clamp to 7", idx[0])
	}
}

func TestProbePointsStayInRange(t *testing.T) {
	idx := make([]int64, ParallelReads)
	for _, bounds := range [][2]int64{{0, 1}, {0, 2}, {5, 9}, {0, 401}, {1000, 100000}} {
		lo, hi := bounds[0], bounds[1]
		k := probePoints(lo, hi, idx)
		for j := 0; j < k; j++ {
			if idx[j] < lo || idx[j] > hi {
				t.Errorf("probe %d at %d escapes [%d, %d]", j, idx[j], lo, hi)
			}
		}
	}
}

func TestTightenBelowTarget(t *testing.T) {
	lo, hi := tighten(0, 100, 30, 5, 10)
	if lo != 31 || hi != 100 {
		t.Errorf("got [%d, %d], want [31, 100]", lo, hi)
	}
}

func TestTightenAboveTarget(t *testing.T) {
	lo, hi := tighten(0, 100, 30, 50, 10)
	if lo != 0 || hi != 29 {
		t.Errorf("got [%d, %d], want [0, 29]", lo, hi)
	}
}

func TestTightenFoldsTightestBounds(t *testing.T) {
	lo, hi := int64(0), int64(1000)
	lo, hi = tighten(lo, hi, 200, 1, 10)  // below: lo -> 201
	lo, hi = tighten(lo, hi, 800, 99, 10) // above: hi -> 799
	lo, hi = tighten(lo, hi, 400, 2, 10)  // below: lo -> 401
	if lo != 401 || hi != 799 {
		t.Errorf("got [%d, %d], want [401, 799]", lo, hi)
	}
}

func TestTightenNeverWidens(t *testing.T) {
	// An observation outside the current range must not move a bound
	// backwards.
	lo, hi := tighten(500, 600, 30, 5, 10)
	if lo != 500 || hi != 600 {
		t.Errorf("got [%d, %d], want [500, 600]", lo, hi)
	}
	lo, hi = tighten(500, 600, 900, 99, 10)
	if lo != 500 || hi != 600 {
		t.Errorf("got [%d, %d], want [500, 600]", lo, hi)
	}
}
